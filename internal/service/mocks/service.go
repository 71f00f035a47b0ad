package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/joshdurbin/shortlinks/internal/domain"
)

// LinkService is a mock implementation of service.LinkService
type LinkService struct {
	mock.Mock
}

// CreateLink creates a new short link
func (m *LinkService) CreateLink(ctx context.Context, originalURL string, clickLimit *int, ownerID uuid.UUID) (*domain.Link, error) {
	args := m.Called(ctx, originalURL, clickLimit, ownerID)
	return linkOrNil(args.Get(0)), args.Error(1)
}

// GetByCode retrieves a link by short code
func (m *LinkService) GetByCode(ctx context.Context, code string) (*domain.Link, error) {
	args := m.Called(ctx, code)
	return linkOrNil(args.Get(0)), args.Error(1)
}

// GetLink retrieves one of the owner's links
func (m *LinkService) GetLink(ctx context.Context, id int64, ownerID uuid.UUID) (*domain.Link, error) {
	args := m.Called(ctx, id, ownerID)
	return linkOrNil(args.Get(0)), args.Error(1)
}

// ResolveAndConsumeClick counts one click
func (m *LinkService) ResolveAndConsumeClick(ctx context.Context, code string) (*domain.Link, error) {
	args := m.Called(ctx, code)
	return linkOrNil(args.Get(0)), args.Error(1)
}

// ResolveAndConsumeClickAs counts one click for the owner
func (m *LinkService) ResolveAndConsumeClickAs(ctx context.Context, code string, ownerID uuid.UUID) (*domain.Link, error) {
	args := m.Called(ctx, code, ownerID)
	return linkOrNil(args.Get(0)), args.Error(1)
}

// UpdateLink changes an owned link
func (m *LinkService) UpdateLink(ctx context.Context, id int64, ownerID uuid.UUID, originalURL *string, clickLimit *int) (*domain.Link, error) {
	args := m.Called(ctx, id, ownerID, originalURL, clickLimit)
	return linkOrNil(args.Get(0)), args.Error(1)
}

// DeleteLink removes an owned link
func (m *LinkService) DeleteLink(ctx context.Context, id int64, ownerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, id, ownerID)
	return args.Bool(0), args.Error(1)
}

// ListByOwner retrieves the owner's links
func (m *LinkService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Link, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Link), args.Error(1)
}

// NotificationService is a mock implementation of service.NotificationService
type NotificationService struct {
	mock.Mock
}

// Create stores a notification
func (m *NotificationService) Create(ctx context.Context, ownerID uuid.UUID, linkID int64, shortCode string, typ domain.NotificationType, message string) (*domain.Notification, error) {
	args := m.Called(ctx, ownerID, linkID, shortCode, typ, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

// ListByOwner retrieves the owner's notifications
func (m *NotificationService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Notification, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

// ListUnread retrieves the owner's unread notifications
func (m *NotificationService) ListUnread(ctx context.Context, ownerID uuid.UUID) ([]*domain.Notification, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

// MarkRead flags a notification as read
func (m *NotificationService) MarkRead(ctx context.Context, id int64, ownerID uuid.UUID) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func linkOrNil(v any) *domain.Link {
	if v == nil {
		return nil
	}
	return v.(*domain.Link)
}
