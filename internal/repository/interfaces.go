package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/joshdurbin/shortlinks/internal/domain"
)

var (
	// ErrCodeExists is returned by Insert when the short code is already stored
	ErrCodeExists = errors.New("short code already exists")

	// ErrVersionConflict is returned by Save when the record changed since it was read
	ErrVersionConflict = errors.New("version conflict")
)

// LinkStore defines the interface for link persistence.
// Missing records are reported as domain.ErrNotFound.
type LinkStore interface {
	// Insert stores a new link, assigning its ID and initial version
	Insert(ctx context.Context, link *domain.Link) error

	// FindByShortCode retrieves a link by its short code
	FindByShortCode(ctx context.Context, code string) (*domain.Link, error)

	// ExistsByShortCode checks whether a short code is currently taken
	ExistsByShortCode(ctx context.Context, code string) (bool, error)

	// FindByID retrieves a link by its ID
	FindByID(ctx context.Context, id int64) (*domain.Link, error)

	// FindByOwner retrieves an owner's links, newest first
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Link, error)

	// FindExpiredActive retrieves active links with ExpiresAt <= now
	FindExpiredActive(ctx context.Context, now time.Time) ([]*domain.Link, error)

	// Save writes the full record if its version still matches the stored one,
	// then bumps link.Version. Returns ErrVersionConflict or domain.ErrNotFound otherwise.
	Save(ctx context.Context, link *domain.Link) error

	// Delete removes a link by its ID; deleting a missing link is not an error
	Delete(ctx context.Context, link *domain.Link) error

	// Close closes the store
	Close() error
}

// NotificationStore defines the interface for append-only notification persistence
type NotificationStore interface {
	// Insert stores a new notification, assigning its ID
	Insert(ctx context.Context, n *domain.Notification) error

	// FindByOwner retrieves an owner's notifications, newest first
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Notification, error)

	// FindUnreadByOwner retrieves an owner's unread notifications, newest first
	FindUnreadByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Notification, error)

	// FindByID retrieves a notification by its ID
	FindByID(ctx context.Context, id int64) (*domain.Notification, error)

	// Save updates an existing notification
	Save(ctx context.Context, n *domain.Notification) error

	// Close closes the store
	Close() error
}
