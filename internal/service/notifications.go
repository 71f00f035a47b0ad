package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/joshdurbin/shortlinks/internal/domain"
	"github.com/joshdurbin/shortlinks/internal/logger"
	"github.com/joshdurbin/shortlinks/internal/metrics"
	"github.com/joshdurbin/shortlinks/internal/notify"
	"github.com/joshdurbin/shortlinks/internal/repository"
)

// notificationService implements NotificationService on top of a NotificationStore
type notificationService struct {
	store     repository.NotificationStore
	publisher notify.Publisher
	clock     domain.Clock
	log       *logger.Logger
	metrics   *metrics.Metrics
}

// NewNotificationService creates a new notification service
func NewNotificationService(store repository.NotificationStore, opts ...Option) NotificationService {
	o := newOptions(opts)
	return &notificationService{
		store:     store,
		publisher: o.publisher,
		clock:     o.clock,
		log:       o.log.With("component", "notifications"),
		metrics:   o.metrics,
	}
}

// Create stores an unread notification, then publishes it
func (s *notificationService) Create(ctx context.Context, ownerID uuid.UUID, linkID int64, shortCode string, typ domain.NotificationType, message string) (*domain.Notification, error) {
	n := &domain.Notification{
		OwnerID:   ownerID,
		LinkID:    linkID,
		ShortCode: shortCode,
		Type:      typ,
		Message:   message,
		CreatedAt: s.clock.Now(),
		Read:      false,
	}

	if err := s.store.Insert(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	s.metrics.NotificationCreated(typ)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, n); err != nil {
			s.log.Warn("failed to publish notification",
				"id", n.ID, "owner", ownerID, "type", typ, "error", err)
		}
	}
	return n, nil
}

// ListByOwner retrieves the owner's notifications
func (s *notificationService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Notification, error) {
	list, err := s.store.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, nil
}

// ListUnread retrieves the owner's unread notifications
func (s *notificationService) ListUnread(ctx context.Context, ownerID uuid.UUID) ([]*domain.Notification, error) {
	list, err := s.store.FindUnreadByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unread notifications: %w", err)
	}
	return list, nil
}

// MarkRead flags an owned notification as read
func (s *notificationService) MarkRead(ctx context.Context, id int64, ownerID uuid.UUID) error {
	n, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get notification: %w", err)
	}
	if n.OwnerID != ownerID || n.Read {
		return nil
	}

	n.Read = true
	if err := s.store.Save(ctx, n); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

var _ NotificationService = (*notificationService)(nil)
