package reaper

import (
	"context"

	"github.com/google/uuid"

	"github.com/joshdurbin/shortlinks/internal/domain"
)

// Notifier records owner-facing notifications
type Notifier interface {
	Create(ctx context.Context, ownerID uuid.UUID, linkID int64, shortCode string, typ domain.NotificationType, message string) (*domain.Notification, error)
}
