package notify

import (
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// StartEmbeddedNATS runs an in-process NATS server on host:port.
// A port of -1 picks a random free port.
func StartEmbeddedNATS(host string, port int) (*server.Server, error) {
	opts := &server.Options{
		ServerName: "shortlinks",
		Host:       host,
		Port:       port,
		NoLog:      true,
		NoSigs:     true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS server: %w", err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(4 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server failed to start")
	}
	return ns, nil
}
