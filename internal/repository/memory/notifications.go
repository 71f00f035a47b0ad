package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/joshdurbin/shortlinks/internal/domain"
	"github.com/joshdurbin/shortlinks/internal/repository"
)

// NotificationStore provides thread-safe in-memory notification storage.
type NotificationStore struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]*domain.Notification
}

// NewNotificationStore creates a new in-memory notification store.
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{
		data: make(map[int64]*domain.Notification),
	}
}

// Insert stores a new notification.
func (s *NotificationStore) Insert(ctx context.Context, n *domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	n.ID = s.nextID
	s.data[n.ID] = n.Clone()
	return nil
}

// FindByOwner retrieves an owner's notifications, newest first.
func (s *NotificationStore) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Notification, error) {
	return s.find(ctx, func(n *domain.Notification) bool {
		return n.OwnerID == ownerID
	})
}

// FindUnreadByOwner retrieves an owner's unread notifications, newest first.
func (s *NotificationStore) FindUnreadByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Notification, error) {
	return s.find(ctx, func(n *domain.Notification) bool {
		return n.OwnerID == ownerID && !n.Read
	})
}

func (s *NotificationStore) find(ctx context.Context, match func(*domain.Notification) bool) ([]*domain.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	result := make([]*domain.Notification, 0)
	for _, n := range s.data {
		if match(n) {
			result = append(result, n.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// FindByID retrieves a notification by its ID.
func (s *NotificationStore) FindByID(ctx context.Context, id int64) (*domain.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n, exists := s.data[id]
	if !exists {
		return nil, domain.ErrNotFound
	}
	return n.Clone(), nil
}

// Save updates an existing notification.
func (s *NotificationStore) Save(ctx context.Context, n *domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[n.ID]; !exists {
		return domain.ErrNotFound
	}
	s.data[n.ID] = n.Clone()
	return nil
}

// Close is a no-op for the in-memory store.
func (s *NotificationStore) Close() error {
	return nil
}

// Ensure NotificationStore implements the interface
var _ repository.NotificationStore = (*NotificationStore)(nil)
