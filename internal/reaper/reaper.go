package reaper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/joshdurbin/shortlinks/internal/domain"
	"github.com/joshdurbin/shortlinks/internal/logger"
	"github.com/joshdurbin/shortlinks/internal/metrics"
	"github.com/joshdurbin/shortlinks/internal/repository"
)

// DefaultInterval is the time between sweeps
const DefaultInterval = 600 * time.Second

// Reaper periodically notifies owners of expired links and deletes them.
// A crash between notifying and deleting repeats the notification on the next sweep.
type Reaper struct {
	links    repository.LinkStore
	notifier Notifier
	interval time.Duration
	clock    domain.Clock
	log      *logger.Logger
	metrics  *metrics.Metrics

	mutex    sync.Mutex
	running  bool
	stopChan chan struct{}
	done     chan struct{}
}

// Config holds the reaper's collaborators besides the stores
type Config struct {
	Interval time.Duration
	Clock    domain.Clock
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
}

// New creates a reaper; zero config fields fall back to defaults
func New(links repository.LinkStore, notifier Notifier, cfg Config) *Reaper {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = domain.RealClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}

	return &Reaper{
		links:    links,
		notifier: notifier,
		interval: cfg.Interval,
		clock:    cfg.Clock,
		log:      cfg.Logger.With("component", "reaper"),
		metrics:  cfg.Metrics,
	}
}

// RunOnce performs a single sweep and returns how many links were retired.
// A failing link is logged and skipped; the first such error is returned.
func (r *Reaper) RunOnce(ctx context.Context) (int, error) {
	expired, err := r.links.FindExpiredActive(ctx, r.clock.Now())
	if err != nil {
		r.metrics.ReaperFailed()
		return 0, fmt.Errorf("failed to find expired links: %w", err)
	}

	var (
		processed int
		firstErr  error
	)
	for _, link := range expired {
		if err := ctx.Err(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			break
		}

		if err := r.retire(ctx, link); err != nil {
			r.metrics.ReaperFailed()
			r.log.Error("failed to retire expired link", "code", link.ShortCode, "id", link.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		processed++
	}

	r.metrics.ReaperProcessed(processed)
	if processed > 0 {
		r.log.Info("retired expired links", "processed", processed, "found", len(expired))
	}
	return processed, firstErr
}

func (r *Reaper) retire(ctx context.Context, link *domain.Link) error {
	_, err := r.notifier.Create(ctx, link.OwnerID, link.ID, link.ShortCode,
		domain.NotificationLinkExpired, domain.LinkExpiredMessage(link.ShortCode))
	if err != nil {
		return fmt.Errorf("failed to notify owner of %s: %w", link.ShortCode, err)
	}

	if err := r.links.Delete(ctx, link); err != nil {
		return fmt.Errorf("failed to delete %s: %w", link.ShortCode, err)
	}
	return nil
}

// Start launches the sweep loop. The first sweep runs immediately.
// Calling Start on a running reaper does nothing.
func (r *Reaper) Start(ctx context.Context) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.running {
		return nil
	}
	r.running = true
	r.stopChan = make(chan struct{})
	r.done = make(chan struct{})

	go r.loop(ctx, r.stopChan, r.done)
	r.log.Info("reaper started", "interval", r.interval)
	return nil
}

// Stop ends the sweep loop and waits for an in-flight sweep to finish
func (r *Reaper) Stop() error {
	r.mutex.Lock()
	if !r.running {
		r.mutex.Unlock()
		return nil
	}
	r.running = false
	close(r.stopChan)
	done := r.done
	r.mutex.Unlock()

	<-done
	r.log.Info("reaper stopped")
	return nil
}

// Running reports whether the sweep loop is active
func (r *Reaper) Running() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.running
}

func (r *Reaper) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.sweep(ctx)
	for {
		select {
		case <-ticker.C:
			r.sweep(ctx)
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// sweep runs RunOnce, leaving failures to the next tick
func (r *Reaper) sweep(ctx context.Context) {
	if _, err := r.RunOnce(ctx); err != nil {
		r.log.Warn("sweep failed, retrying next tick", "error", err)
	}
}
