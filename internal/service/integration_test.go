package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshdurbin/shortlinks/internal/domain"
	"github.com/joshdurbin/shortlinks/internal/reaper"
	"github.com/joshdurbin/shortlinks/internal/repository/sqlite"
	"github.com/joshdurbin/shortlinks/internal/service"
	"github.com/joshdurbin/shortlinks/internal/shortener"
)

type stack struct {
	clock         *domain.MockClock
	links         service.LinkService
	notifications service.NotificationService
	reaper        *reaper.Reaper
}

func setupSQLiteStack(t *testing.T) *stack {
	t.Helper()

	repo, err := sqlite.New(filepath.Join(t.TempDir(), "shortlinks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	clock := domain.NewMockClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	allocator, err := shortener.New(shortener.DefaultConfig(), repo.Links())
	require.NoError(t, err)

	notifications := service.NewNotificationService(repo.Notifications(), service.WithClock(clock))
	return &stack{
		clock:         clock,
		links:         service.NewLinkService(repo.Links(), allocator, notifications, 24*time.Hour, service.WithClock(clock)),
		notifications: notifications,
		reaper:        reaper.New(repo.Links(), notifications, reaper.Config{Clock: clock}),
	}
}

func TestIntegration_FullWorkflow(t *testing.T) {
	s := setupSQLiteStack(t)
	ctx := context.Background()
	owner := uuid.New()

	limit := 2
	link, err := s.links.CreateLink(ctx, "https://example.com/very/long/path", &limit, owner)
	require.NoError(t, err)
	assert.Len(t, link.ShortCode, 6)

	resolved, err := s.links.ResolveAndConsumeClickAs(ctx, link.ShortCode, owner)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/very/long/path", resolved.OriginalURL)
	assert.Equal(t, 1, resolved.ClicksCount)

	_, err = s.links.ResolveAndConsumeClickAs(ctx, link.ShortCode, uuid.New())
	assert.ErrorIs(t, err, domain.ErrForbidden)

	newURL := "https://example.org"
	updated, err := s.links.UpdateLink(ctx, link.ID, owner, &newURL, nil)
	require.NoError(t, err)
	assert.Equal(t, newURL, updated.OriginalURL)
	assert.Equal(t, 1, updated.ClicksCount)

	resolved, err = s.links.ResolveAndConsumeClick(ctx, link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, newURL, resolved.OriginalURL)
	assert.False(t, resolved.Active)

	_, err = s.links.ResolveAndConsumeClick(ctx, link.ShortCode)
	assert.ErrorIs(t, err, domain.ErrUnavailable)

	notes, err := s.notifications.ListUnread(ctx, owner)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, domain.NotificationClickLimitReached, notes[0].Type)

	require.NoError(t, s.notifications.MarkRead(ctx, notes[0].ID, owner))
	notes, err = s.notifications.ListUnread(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, notes)

	deleted, err := s.links.DeleteLink(ctx, link.ID, owner)
	require.NoError(t, err)
	assert.True(t, deleted)

	links, err := s.links.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestIntegration_ReaperRetiresExpiredLinks(t *testing.T) {
	s := setupSQLiteStack(t)
	ctx := context.Background()
	owner := uuid.New()

	expiring, err := s.links.CreateLink(ctx, "https://old.example", nil, owner)
	require.NoError(t, err)

	s.clock.Advance(12 * time.Hour)
	survivor, err := s.links.CreateLink(ctx, "https://new.example", nil, owner)
	require.NoError(t, err)

	s.clock.Advance(13 * time.Hour)

	processed, err := s.reaper.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	_, err = s.links.GetByCode(ctx, expiring.ShortCode)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.links.GetByCode(ctx, survivor.ShortCode)
	assert.NoError(t, err)

	notes, err := s.notifications.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, domain.NotificationLinkExpired, notes[0].Type)
	assert.Equal(t, expiring.ShortCode, notes[0].ShortCode)
}

func TestIntegration_ConcurrentResolves(t *testing.T) {
	s := setupSQLiteStack(t)
	ctx := context.Background()
	owner := uuid.New()

	limit := 5
	link, err := s.links.CreateLink(ctx, "https://example.com", &limit, owner)
	require.NoError(t, err)

	const callers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.links.ResolveAndConsumeClick(ctx, link.ShortCode)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, domain.ErrUnavailable), "unexpected error: %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, successes)

	final, err := s.links.GetLink(ctx, link.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, limit, final.ClicksCount)
	assert.False(t, final.Active)

	notes, err := s.notifications.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestIntegration_ConcurrentCreates(t *testing.T) {
	s := setupSQLiteStack(t)
	ctx := context.Background()

	const creators = 25
	codes := make(chan string, creators)
	var wg sync.WaitGroup
	for i := 0; i < creators; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			link, err := s.links.CreateLink(ctx, "https://example.com", nil, uuid.New())
			if assert.NoError(t, err) {
				codes <- link.ShortCode
			}
		}()
	}
	wg.Wait()
	close(codes)

	seen := make(map[string]bool)
	for code := range codes {
		assert.False(t, seen[code])
		seen[code] = true
	}
	assert.Len(t, seen, creators)
}
