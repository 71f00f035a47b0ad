package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshdurbin/shortlinks/internal/domain"
	"github.com/joshdurbin/shortlinks/internal/repository"
)

const dsnEnv = "SHORTLINKS_TEST_POSTGRES_DSN"

func TestLinkStore_Lifecycle(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	owner := uuid.New()
	now := time.Now().UTC().Truncate(time.Microsecond)

	limit := 2
	link := &domain.Link{
		ShortCode:   "pg0001",
		OriginalURL: "https://example.com",
		OwnerID:     owner,
		ClickLimit:  &limit,
		CreatedAt:   now,
		ExpiresAt:   now.Add(24 * time.Hour),
		Active:      true,
	}
	require.NoError(t, repo.Links().Insert(ctx, link))
	assert.NotZero(t, link.ID)
	assert.Equal(t, int64(1), link.Version)

	dup := *link
	assert.ErrorIs(t, repo.Links().Insert(ctx, &dup), repository.ErrCodeExists)

	exists, err := repo.Links().ExistsByShortCode(ctx, "pg0001")
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := repo.Links().FindByShortCode(ctx, "pg0001")
	require.NoError(t, err)
	assert.Equal(t, owner, got.OwnerID)
	require.NotNil(t, got.ClickLimit)
	assert.Equal(t, 2, *got.ClickLimit)
	assert.True(t, now.Equal(got.CreatedAt))

	stale := got.Clone()
	got.ClicksCount = 1
	require.NoError(t, repo.Links().Save(ctx, got))
	assert.Equal(t, int64(2), got.Version)

	stale.ClicksCount = 1
	assert.ErrorIs(t, repo.Links().Save(ctx, stale), repository.ErrVersionConflict)

	expired, err := repo.Links().FindExpiredActive(ctx, now.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, link.ID, expired[0].ID)

	require.NoError(t, repo.Links().Delete(ctx, got))
	_, err = repo.Links().FindByID(ctx, link.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.Links().Save(ctx, got), domain.ErrNotFound)
}

func TestLinkStore_FindByOwner(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	owner := uuid.New()
	now := time.Now().UTC()

	for i, code := range []string{"pgown1", "pgown2"} {
		created := now.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Links().Insert(ctx, &domain.Link{
			ShortCode: code, OriginalURL: "https://example.com", OwnerID: owner,
			CreatedAt: created, ExpiresAt: created.Add(time.Hour), Active: true,
		}))
	}

	links, err := repo.Links().FindByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "pgown2", links[0].ShortCode)
	assert.Equal(t, "pgown1", links[1].ShortCode)
}

func TestNotificationStore_Lifecycle(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	owner := uuid.New()

	n := &domain.Notification{
		OwnerID:   owner,
		LinkID:    7,
		ShortCode: "pg0001",
		Type:      domain.NotificationLinkExpired,
		Message:   "Link pg0001 expired",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Notifications().Insert(ctx, n))
	assert.NotZero(t, n.ID)

	unread, err := repo.Notifications().FindUnreadByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	n.Read = true
	require.NoError(t, repo.Notifications().Save(ctx, n))

	unread, err = repo.Notifications().FindUnreadByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, unread, 0)

	all, err := repo.Notifications().FindByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Read)

	_, err = repo.Notifications().FindByID(ctx, -1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s not set", dsnEnv)
	}

	ctx := context.Background()
	repo, err := New(ctx, dsn)
	require.NoError(t, err)

	_, err = repo.db.ExecContext(ctx, `TRUNCATE links, notifications RESTART IDENTITY`)
	require.NoError(t, err)

	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}
