package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/joshdurbin/shortlinks/internal/domain"
)

// NATSPublisher publishes notifications as JSON on a per-owner subject
type NATSPublisher struct {
	conn  *nats.Conn
	owned bool
}

// NewNATSPublisher connects to the NATS server at url
func NewNATSPublisher(url string, opts ...nats.Option) (*NATSPublisher, error) {
	opts = append([]nats.Option{
		nats.Name("shortlinks"),
		nats.Timeout(5 * time.Second),
		nats.MaxReconnects(-1),
	}, opts...)

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn, owned: true}, nil
}

// NewNATSPublisherFromConn wraps an existing connection; Close leaves it open
func NewNATSPublisherFromConn(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

// Subject returns the subject notifications for owner are published on
func Subject(owner uuid.UUID) string {
	return NATSSubjectPrefix + owner.String()
}

func (p *NATSPublisher) Publish(ctx context.Context, n *domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := p.conn.Publish(Subject(n.OwnerID), data); err != nil {
		return fmt.Errorf("failed to publish to NATS: %w", err)
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	if !p.owned {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	return nil
}

var _ Publisher = (*NATSPublisher)(nil)
