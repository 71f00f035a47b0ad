package notify

import (
	"context"
	"errors"

	"github.com/joshdurbin/shortlinks/internal/domain"
)

// Multi publishes to every publisher in order, joining their errors
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, n *domain.Notification) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ Publisher = Multi(nil)
