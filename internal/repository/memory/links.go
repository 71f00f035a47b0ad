package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joshdurbin/shortlinks/internal/domain"
	"github.com/joshdurbin/shortlinks/internal/repository"
)

// LinkStore provides thread-safe in-memory link storage.
// Records are cloned on the way in and out so callers never share state with the store.
type LinkStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*domain.Link
	byCode map[string]int64
}

// NewLinkStore creates a new in-memory link store.
func NewLinkStore() *LinkStore {
	return &LinkStore{
		byID:   make(map[int64]*domain.Link),
		byCode: make(map[string]int64),
	}
}

// Insert stores a new link, failing with ErrCodeExists when the code is taken.
func (s *LinkStore) Insert(ctx context.Context, link *domain.Link) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byCode[link.ShortCode]; exists {
		return repository.ErrCodeExists
	}

	s.nextID++
	link.ID = s.nextID
	link.Version = 1
	s.byID[link.ID] = link.Clone()
	s.byCode[link.ShortCode] = link.ID
	return nil
}

// FindByShortCode retrieves a link by its short code.
func (s *LinkStore) FindByShortCode(ctx context.Context, code string) (*domain.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byCode[code]
	if !exists {
		return nil, domain.ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

// ExistsByShortCode checks whether a short code is taken.
func (s *LinkStore) ExistsByShortCode(ctx context.Context, code string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.byCode[code]
	return exists, nil
}

// FindByID retrieves a link by its ID.
func (s *LinkStore) FindByID(ctx context.Context, id int64) (*domain.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	link, exists := s.byID[id]
	if !exists {
		return nil, domain.ErrNotFound
	}
	return link.Clone(), nil
}

// FindByOwner retrieves an owner's links, newest first.
func (s *LinkStore) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	links := make([]*domain.Link, 0)
	for _, link := range s.byID {
		if link.OwnerID == ownerID {
			links = append(links, link.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(links, func(i, j int) bool {
		if links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].ID > links[j].ID
		}
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})
	return links, nil
}

// FindExpiredActive retrieves active links that expired at or before now.
func (s *LinkStore) FindExpiredActive(ctx context.Context, now time.Time) ([]*domain.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	expired := make([]*domain.Link, 0)
	for _, link := range s.byID {
		if link.Active && !link.ExpiresAt.After(now) {
			expired = append(expired, link.Clone())
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].ID < expired[j].ID })
	return expired, nil
}

// Save replaces the stored record when the versions match.
func (s *LinkStore) Save(ctx context.Context, link *domain.Link) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.byID[link.ID]
	if !exists {
		return domain.ErrNotFound
	}
	if stored.Version != link.Version {
		return repository.ErrVersionConflict
	}
	if stored.ShortCode != link.ShortCode {
		if _, taken := s.byCode[link.ShortCode]; taken {
			return repository.ErrCodeExists
		}
		delete(s.byCode, stored.ShortCode)
		s.byCode[link.ShortCode] = link.ID
	}

	link.Version++
	s.byID[link.ID] = link.Clone()
	return nil
}

// Delete removes a link by its ID.
func (s *LinkStore) Delete(ctx context.Context, link *domain.Link) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.byID[link.ID]
	if !exists {
		return nil
	}
	delete(s.byCode, stored.ShortCode)
	delete(s.byID, link.ID)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *LinkStore) Close() error {
	return nil
}

// Ensure LinkStore implements the interface
var _ repository.LinkStore = (*LinkStore)(nil)
