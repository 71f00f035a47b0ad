package notify

import (
	"context"

	"github.com/joshdurbin/shortlinks/internal/domain"
)

// Publisher fans a persisted notification out to live subscribers
type Publisher interface {
	// Publish delivers the notification; the stored record stays authoritative on failure
	Publish(ctx context.Context, n *domain.Notification) error

	// Close releases the publisher's connection
	Close() error
}

const (
	// NATSSubjectPrefix is followed by the owner id
	NATSSubjectPrefix = "shortlinks.notifications."

	// RedisChannelPrefix is followed by the owner id
	RedisChannelPrefix = "shortlinks:notifications:"
)
