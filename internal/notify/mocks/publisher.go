package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/joshdurbin/shortlinks/internal/domain"
)

// Publisher is a mock implementation of notify.Publisher
type Publisher struct {
	mock.Mock
}

// Publish delivers a notification
func (m *Publisher) Publish(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// Close releases the publisher
func (m *Publisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
