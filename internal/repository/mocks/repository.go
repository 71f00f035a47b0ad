package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/joshdurbin/shortlinks/internal/domain"
)

// LinkStore is a mock implementation of repository.LinkStore
type LinkStore struct {
	mock.Mock
}

// Insert stores a new link
func (m *LinkStore) Insert(ctx context.Context, link *domain.Link) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

// FindByShortCode retrieves a link by its short code
func (m *LinkStore) FindByShortCode(ctx context.Context, code string) (*domain.Link, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

// ExistsByShortCode checks whether a short code is taken
func (m *LinkStore) ExistsByShortCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

// FindByID retrieves a link by its ID
func (m *LinkStore) FindByID(ctx context.Context, id int64) (*domain.Link, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

// FindByOwner retrieves an owner's links
func (m *LinkStore) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Link, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Link), args.Error(1)
}

// FindExpiredActive retrieves active links that expired at or before now
func (m *LinkStore) FindExpiredActive(ctx context.Context, now time.Time) ([]*domain.Link, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Link), args.Error(1)
}

// Save writes the full record
func (m *LinkStore) Save(ctx context.Context, link *domain.Link) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

// Delete removes a link
func (m *LinkStore) Delete(ctx context.Context, link *domain.Link) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

// Close closes the store
func (m *LinkStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// NotificationStore is a mock implementation of repository.NotificationStore
type NotificationStore struct {
	mock.Mock
}

// Insert stores a new notification
func (m *NotificationStore) Insert(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// FindByOwner retrieves an owner's notifications
func (m *NotificationStore) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Notification, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

// FindUnreadByOwner retrieves an owner's unread notifications
func (m *NotificationStore) FindUnreadByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Notification, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

// FindByID retrieves a notification by its ID
func (m *NotificationStore) FindByID(ctx context.Context, id int64) (*domain.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

// Save updates an existing notification
func (m *NotificationStore) Save(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// Close closes the store
func (m *NotificationStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
