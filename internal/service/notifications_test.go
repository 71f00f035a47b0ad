package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/joshdurbin/shortlinks/internal/domain"
	notifyMocks "github.com/joshdurbin/shortlinks/internal/notify/mocks"
	"github.com/joshdurbin/shortlinks/internal/repository/memory"
	repoMocks "github.com/joshdurbin/shortlinks/internal/repository/mocks"
)

func TestNotificationService_Create(t *testing.T) {
	ctx := context.Background()
	store := memory.NewNotificationStore()
	clock := domain.NewMockClock(startTime)
	publisher := new(notifyMocks.Publisher)
	publisher.On("Publish", ctx, mock.AnythingOfType("*domain.Notification")).Return(nil).Once()

	svc := NewNotificationService(store, WithClock(clock), WithPublisher(publisher))
	owner := uuid.New()

	n, err := svc.Create(ctx, owner, 7, "abc123", domain.NotificationLinkExpired, "Link abc123 has expired.")
	require.NoError(t, err)
	assert.NotZero(t, n.ID)
	assert.Equal(t, owner, n.OwnerID)
	assert.Equal(t, int64(7), n.LinkID)
	assert.Equal(t, "abc123", n.ShortCode)
	assert.Equal(t, domain.NotificationLinkExpired, n.Type)
	assert.Equal(t, startTime, n.CreatedAt)
	assert.False(t, n.Read)

	publisher.AssertExpectations(t)
	published := publisher.Calls[0].Arguments.Get(1).(*domain.Notification)
	assert.Equal(t, n.ID, published.ID, "publishing happens after the record has an id")
}

func TestNotificationService_Create_PublishFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	store := memory.NewNotificationStore()
	publisher := new(notifyMocks.Publisher)
	publisher.On("Publish", ctx, mock.Anything).Return(assert.AnError)

	svc := NewNotificationService(store, WithPublisher(publisher))
	owner := uuid.New()

	n, err := svc.Create(ctx, owner, 1, "abc123", domain.NotificationClickLimitReached, "limit")
	require.NoError(t, err)
	require.NotNil(t, n)

	stored, err := svc.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestNotificationService_Create_StoreError(t *testing.T) {
	ctx := context.Background()
	store := new(repoMocks.NotificationStore)
	store.On("Insert", ctx, mock.Anything).Return(assert.AnError)
	publisher := new(notifyMocks.Publisher)

	svc := NewNotificationService(store, WithPublisher(publisher))

	_, err := svc.Create(ctx, uuid.New(), 1, "abc123", domain.NotificationLinkExpired, "expired")
	assert.ErrorIs(t, err, assert.AnError)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestNotificationService_ListByOwner(t *testing.T) {
	ctx := context.Background()
	clock := domain.NewMockClock(startTime)
	svc := NewNotificationService(memory.NewNotificationStore(), WithClock(clock))
	owner := uuid.New()

	older, err := svc.Create(ctx, owner, 1, "aaa111", domain.NotificationLinkExpired, "older")
	require.NoError(t, err)
	clock.Advance(time.Second)
	newer, err := svc.Create(ctx, owner, 2, "bbb222", domain.NotificationClickLimitReached, "newer")
	require.NoError(t, err)
	_, err = svc.Create(ctx, uuid.New(), 3, "ccc333", domain.NotificationLinkExpired, "someone else")
	require.NoError(t, err)

	list, err := svc.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)
}

func TestNotificationService_MarkRead(t *testing.T) {
	ctx := context.Background()
	store := memory.NewNotificationStore()
	svc := NewNotificationService(store)
	owner := uuid.New()

	first, err := svc.Create(ctx, owner, 1, "aaa111", domain.NotificationLinkExpired, "first")
	require.NoError(t, err)
	second, err := svc.Create(ctx, owner, 2, "bbb222", domain.NotificationLinkExpired, "second")
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(ctx, first.ID, owner))

	unread, err := svc.ListUnread(ctx, owner)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, second.ID, unread[0].ID)

	// marking twice is harmless
	require.NoError(t, svc.MarkRead(ctx, first.ID, owner))

	all, err := svc.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestNotificationService_MarkRead_SilentNoOp(t *testing.T) {
	ctx := context.Background()
	store := memory.NewNotificationStore()
	svc := NewNotificationService(store)
	owner := uuid.New()

	n, err := svc.Create(ctx, owner, 1, "aaa111", domain.NotificationLinkExpired, "expired")
	require.NoError(t, err)

	assert.NoError(t, svc.MarkRead(ctx, n.ID, uuid.New()), "wrong owner")
	assert.NoError(t, svc.MarkRead(ctx, n.ID+100, owner), "missing id")

	stored, err := store.FindByID(ctx, n.ID)
	require.NoError(t, err)
	assert.False(t, stored.Read)
}

func TestNotificationService_MarkRead_StorageErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("lookup", func(t *testing.T) {
		store := new(repoMocks.NotificationStore)
		store.On("FindByID", ctx, int64(1)).Return(nil, assert.AnError)

		err := NewNotificationService(store).MarkRead(ctx, 1, owner)
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("save", func(t *testing.T) {
		store := new(repoMocks.NotificationStore)
		store.On("FindByID", ctx, int64(1)).Return(&domain.Notification{ID: 1, OwnerID: owner}, nil)
		store.On("Save", ctx, mock.MatchedBy(func(n *domain.Notification) bool { return n.Read })).Return(assert.AnError)

		err := NewNotificationService(store).MarkRead(ctx, 1, owner)
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestNotificationService_ListErrors(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	store := new(repoMocks.NotificationStore)
	store.On("FindByOwner", ctx, owner).Return(nil, assert.AnError)
	store.On("FindUnreadByOwner", ctx, owner).Return(nil, assert.AnError)

	svc := NewNotificationService(store)

	_, err := svc.ListByOwner(ctx, owner)
	assert.ErrorIs(t, err, assert.AnError)

	_, err = svc.ListUnread(ctx, owner)
	assert.ErrorIs(t, err, assert.AnError)
}
