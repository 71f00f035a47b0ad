package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/joshdurbin/shortlinks/internal/domain"
)

// LinkService defines the link lifecycle operations
type LinkService interface {
	// CreateLink allocates a fresh short code and stores an active link owned by ownerID
	CreateLink(ctx context.Context, originalURL string, clickLimit *int, ownerID uuid.UUID) (*domain.Link, error)

	// GetByCode retrieves a link by short code without side effects
	GetByCode(ctx context.Context, code string) (*domain.Link, error)

	// GetLink retrieves one of the owner's links by ID
	GetLink(ctx context.Context, id int64, ownerID uuid.UUID) (*domain.Link, error)

	// ResolveAndConsumeClick atomically checks availability and counts one click
	ResolveAndConsumeClick(ctx context.Context, code string) (*domain.Link, error)

	// ResolveAndConsumeClickAs is ResolveAndConsumeClick restricted to the link's owner
	ResolveAndConsumeClickAs(ctx context.Context, code string, ownerID uuid.UUID) (*domain.Link, error)

	// UpdateLink changes the URL and/or click limit of one of the owner's links
	UpdateLink(ctx context.Context, id int64, ownerID uuid.UUID, originalURL *string, clickLimit *int) (*domain.Link, error)

	// DeleteLink removes one of the owner's links, reporting whether anything was deleted
	DeleteLink(ctx context.Context, id int64, ownerID uuid.UUID) (bool, error)

	// ListByOwner retrieves the owner's links, newest first
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Link, error)
}

// NotificationService defines the owner-facing notification operations
type NotificationService interface {
	// Create stores an unread notification and fans it out to live subscribers
	Create(ctx context.Context, ownerID uuid.UUID, linkID int64, shortCode string, typ domain.NotificationType, message string) (*domain.Notification, error)

	// ListByOwner retrieves the owner's notifications, newest first
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Notification, error)

	// ListUnread retrieves the owner's unread notifications, newest first
	ListUnread(ctx context.Context, ownerID uuid.UUID) ([]*domain.Notification, error)

	// MarkRead flags a notification as read; unknown or foreign ids are ignored
	MarkRead(ctx context.Context, id int64, ownerID uuid.UUID) error
}
