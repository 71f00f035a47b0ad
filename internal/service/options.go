package service

import (
	"github.com/joshdurbin/shortlinks/internal/domain"
	"github.com/joshdurbin/shortlinks/internal/logger"
	"github.com/joshdurbin/shortlinks/internal/metrics"
	"github.com/joshdurbin/shortlinks/internal/notify"
)

type options struct {
	clock     domain.Clock
	log       *logger.Logger
	metrics   *metrics.Metrics
	publisher notify.Publisher
}

// Option configures optional collaborators of the services
type Option func(*options)

// WithClock sets the time source; defaults to domain.RealClock
func WithClock(clock domain.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithLogger sets the logger; defaults to a discarding logger
func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMetrics sets the Prometheus collectors; nil disables recording
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithPublisher sets where new notifications are fanned out to
func WithPublisher(p notify.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

func newOptions(opts []Option) options {
	o := options{
		clock: domain.RealClock{},
		log:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
