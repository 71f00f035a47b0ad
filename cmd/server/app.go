package main

import (
	"context"
	"errors"
	"fmt"

	natsserver "github.com/nats-io/nats-server/v2/server"

	"github.com/joshdurbin/shortlinks/internal/config"
	"github.com/joshdurbin/shortlinks/internal/logger"
	"github.com/joshdurbin/shortlinks/internal/metrics"
	"github.com/joshdurbin/shortlinks/internal/notify"
	"github.com/joshdurbin/shortlinks/internal/reaper"
	"github.com/joshdurbin/shortlinks/internal/repository"
	"github.com/joshdurbin/shortlinks/internal/repository/memory"
	"github.com/joshdurbin/shortlinks/internal/repository/postgres"
	"github.com/joshdurbin/shortlinks/internal/repository/sqlite"
	"github.com/joshdurbin/shortlinks/internal/service"
	"github.com/joshdurbin/shortlinks/internal/shortener"
	httpTransport "github.com/joshdurbin/shortlinks/internal/transport/http"
)

// app is the fully wired server; close releases everything in reverse order
type app struct {
	server  *httpTransport.Server
	reaper  *reaper.Reaper
	links   service.LinkService
	notes   service.NotificationService
	metrics *metrics.Metrics
	nats    *natsserver.Server
	closers []func() error
}

// stores pairs the two stores with whatever owns their connection
type stores struct {
	links         repository.LinkStore
	notifications repository.NotificationStore
	close         func() error
}

func openStores(ctx context.Context, cfg config.DatabaseConfig) (*stores, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return &stores{
			links:         memory.NewLinkStore(),
			notifications: memory.NewNotificationStore(),
			close:         func() error { return nil },
		}, nil
	case config.DriverSQLite:
		repo, err := sqlite.New(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return &stores{links: repo.Links(), notifications: repo.Notifications(), close: repo.Close}, nil
	case config.DriverPostgres:
		repo, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return &stores{links: repo.Links(), notifications: repo.Notifications(), close: repo.Close}, nil
	default:
		return nil, fmt.Errorf("unknown database driver: %q", cfg.Driver)
	}
}

func (a *app) openPublishers(ctx context.Context, cfg config.NotifyConfig, log *logger.Logger) (notify.Multi, error) {
	var publishers notify.Multi

	natsURL := cfg.NATSURL
	if cfg.NATSEmbedded {
		ns, err := notify.StartEmbeddedNATS("127.0.0.1", cfg.NATSPort)
		if err != nil {
			return nil, err
		}
		a.nats = ns
		a.closers = append(a.closers, func() error {
			ns.Shutdown()
			return nil
		})
		natsURL = ns.ClientURL()
		log.Info("embedded NATS started", "url", natsURL)
	}

	if natsURL != "" {
		p, err := notify.NewNATSPublisher(natsURL)
		if err != nil {
			return nil, err
		}
		publishers = append(publishers, p)
		log.Info("publishing notifications to NATS", "url", natsURL)
	}

	if cfg.RedisAddr != "" {
		p, err := notify.NewRedisPublisher(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		publishers = append(publishers, p)
		log.Info("publishing notifications to Redis", "addr", cfg.RedisAddr)
	}

	if len(publishers) > 0 {
		a.closers = append(a.closers, publishers.Close)
	}
	return publishers, nil
}

// newApp wires stores, services, the reaper and the HTTP server from cfg
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (_ *app, err error) {
	a := &app{metrics: metrics.New()}
	defer func() {
		if err != nil {
			_ = a.close()
		}
	}()

	st, err := openStores(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.closers = append(a.closers, st.close)
	log.Info("storage ready", "driver", cfg.Database.Driver)

	allocator, err := shortener.New(cfg.Shortener, st.links)
	if err != nil {
		return nil, fmt.Errorf("failed to create code allocator: %w", err)
	}

	publishers, err := a.openPublishers(ctx, cfg.Notify, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize notification publishers: %w", err)
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(a.metrics),
	}
	if len(publishers) > 0 {
		opts = append(opts, service.WithPublisher(publishers))
	}

	a.notes = service.NewNotificationService(st.notifications, opts...)
	a.links = service.NewLinkService(st.links, allocator, a.notes, cfg.Links.TTL, opts...)

	a.reaper = reaper.New(st.links, a.notes, reaper.Config{
		Interval: cfg.Links.ReaperInterval,
		Logger:   log,
		Metrics:  a.metrics,
	})

	handler := httpTransport.NewHandler(a.links, a.notes, cfg.Server.PublicBaseURL, log)
	a.server = httpTransport.NewServer(handler, a.metrics.Handler(), cfg.Server.Port, cfg.Logging.Verbose, log)
	return a, nil
}

// close releases resources in reverse order of acquisition
func (a *app) close() error {
	var errs []error
	if a.reaper != nil {
		errs = append(errs, a.reaper.Stop())
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}
