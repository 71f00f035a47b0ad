package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joshdurbin/shortlinks/internal/domain"
	"github.com/joshdurbin/shortlinks/internal/logger"
	"github.com/joshdurbin/shortlinks/internal/metrics"
	"github.com/joshdurbin/shortlinks/internal/repository"
	"github.com/joshdurbin/shortlinks/internal/shortener"
)

// DefaultTTL is how long a link lives when no TTL is configured
const DefaultTTL = 24 * time.Hour

// linkService implements LinkService on top of a LinkStore
type linkService struct {
	links         repository.LinkStore
	allocator     *shortener.Allocator
	notifications NotificationService
	ttl           time.Duration
	clock         domain.Clock
	log           *logger.Logger
	metrics       *metrics.Metrics
}

// NewLinkService creates a new link lifecycle service
func NewLinkService(links repository.LinkStore, allocator *shortener.Allocator, notifications NotificationService, ttl time.Duration, opts ...Option) LinkService {
	o := newOptions(opts)
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &linkService{
		links:         links,
		allocator:     allocator,
		notifications: notifications,
		ttl:           ttl,
		clock:         o.clock,
		log:           o.log.With("component", "links"),
		metrics:       o.metrics,
	}
}

// CreateLink creates a new short link
func (s *linkService) CreateLink(ctx context.Context, originalURL string, clickLimit *int, ownerID uuid.UUID) (*domain.Link, error) {
	budget := s.allocator.NewBudget()

	for {
		code, err := s.allocator.AllocateFrom(ctx, budget)
		if err != nil {
			if errors.Is(err, domain.ErrAllocationExhausted) {
				s.log.Warn("short code allocation exhausted", "owner", ownerID)
				return nil, err
			}
			return nil, fmt.Errorf("failed to allocate short code: %w", err)
		}

		now := s.clock.Now()
		link := &domain.Link{
			ShortCode:   code,
			OriginalURL: originalURL,
			OwnerID:     ownerID,
			ClickLimit:  copyInt(clickLimit),
			ClicksCount: 0,
			CreatedAt:   now,
			ExpiresAt:   now.Add(s.ttl),
			Active:      true,
		}

		err = s.links.Insert(ctx, link)
		if errors.Is(err, repository.ErrCodeExists) {
			// lost the race for this code between probe and insert
			s.log.Debug("short code taken at insert, re-allocating", "code", code)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create link: %w", err)
		}

		s.metrics.LinkCreated()
		return link, nil
	}
}

// GetByCode retrieves a link by short code
func (s *linkService) GetByCode(ctx context.Context, code string) (*domain.Link, error) {
	link, err := s.links.FindByShortCode(ctx, code)
	if err != nil {
		return nil, notFoundOr(err, "failed to get link")
	}
	return link, nil
}

// GetLink retrieves one of the owner's links
func (s *linkService) GetLink(ctx context.Context, id int64, ownerID uuid.UUID) (*domain.Link, error) {
	return s.ownedLink(ctx, id, ownerID)
}

// ResolveAndConsumeClick counts one click on an available link
func (s *linkService) ResolveAndConsumeClick(ctx context.Context, code string) (*domain.Link, error) {
	return s.resolve(ctx, code, nil)
}

// ResolveAndConsumeClickAs counts one click on an available link owned by ownerID
func (s *linkService) ResolveAndConsumeClickAs(ctx context.Context, code string, ownerID uuid.UUID) (*domain.Link, error) {
	return s.resolve(ctx, code, &ownerID)
}

func (s *linkService) resolve(ctx context.Context, code string, ownerID *uuid.UUID) (link *domain.Link, err error) {
	defer func() {
		s.metrics.RedirectResolved(redirectOutcome(err))
	}()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		link, err := s.links.FindByShortCode(ctx, code)
		if err != nil {
			return nil, notFoundOr(err, "failed to get link")
		}

		if ownerID != nil && link.OwnerID != *ownerID {
			return nil, domain.ErrForbidden
		}

		if reason := link.UnavailableReason(s.clock.Now()); reason != "" {
			return nil, &domain.UnavailableError{Reason: reason}
		}

		link.ClicksCount++
		exhausted := link.IsLimitReached()
		if exhausted {
			link.Active = false
		}

		err = s.links.Save(ctx, link)
		switch {
		case errors.Is(err, repository.ErrVersionConflict):
			continue
		case errors.Is(err, domain.ErrNotFound):
			return nil, domain.ErrNotFound
		case err != nil:
			return nil, fmt.Errorf("failed to record click: %w", err)
		}

		// Only the commit that flipped Active reaches here with exhausted set.
		if exhausted {
			_, err := s.notifications.Create(ctx, link.OwnerID, link.ID, link.ShortCode,
				domain.NotificationClickLimitReached, domain.ClickLimitReachedMessage(link.ShortCode))
			if err != nil {
				return nil, fmt.Errorf("failed to notify click limit reached: %w", err)
			}
			s.log.Info("click limit reached", "code", link.ShortCode, "clicks", link.ClicksCount)
		}
		return link, nil
	}
}

// UpdateLink changes the URL and/or click limit of an owned link
func (s *linkService) UpdateLink(ctx context.Context, id int64, ownerID uuid.UUID, originalURL *string, clickLimit *int) (*domain.Link, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		link, err := s.ownedLink(ctx, id, ownerID)
		if err != nil {
			return nil, err
		}

		if originalURL != nil && strings.TrimSpace(*originalURL) != "" {
			link.OriginalURL = *originalURL
		}
		if clickLimit != nil {
			link.ClickLimit = copyInt(clickLimit)
		}

		err = s.links.Save(ctx, link)
		switch {
		case errors.Is(err, repository.ErrVersionConflict):
			continue
		case errors.Is(err, domain.ErrNotFound):
			return nil, domain.ErrNotFound
		case err != nil:
			return nil, fmt.Errorf("failed to update link: %w", err)
		}
		return link, nil
	}
}

// DeleteLink removes an owned link
func (s *linkService) DeleteLink(ctx context.Context, id int64, ownerID uuid.UUID) (bool, error) {
	link, err := s.ownedLink(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := s.links.Delete(ctx, link); err != nil {
		return false, fmt.Errorf("failed to delete link: %w", err)
	}
	return true, nil
}

// ListByOwner retrieves the owner's links, newest first
func (s *linkService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Link, error) {
	links, err := s.links.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	return links, nil
}

// ownedLink loads a link and hides it from everyone but its owner
func (s *linkService) ownedLink(ctx context.Context, id int64, ownerID uuid.UUID) (*domain.Link, error) {
	link, err := s.links.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "failed to get link")
	}
	if link.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return link, nil
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func redirectOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, domain.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, domain.ErrForbidden):
		return metrics.OutcomeForbidden
	case errors.Is(err, domain.ErrUnavailable):
		return metrics.OutcomeUnavailable
	default:
		return metrics.OutcomeError
	}
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

var _ LinkService = (*linkService)(nil)
