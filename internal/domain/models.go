package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NotificationType identifies the lifecycle event an owner is told about
type NotificationType string

const (
	NotificationClickLimitReached NotificationType = "CLICK_LIMIT_REACHED"
	NotificationLinkExpired       NotificationType = "LINK_EXPIRED"
)

// ClickLimitReachedMessage is the owner-facing text for a spent click budget
func ClickLimitReachedMessage(code string) string {
	return fmt.Sprintf("Click limit for link %s has been reached.", code)
}

// LinkExpiredMessage is the owner-facing text for an expired link
func LinkExpiredMessage(code string) string {
	return fmt.Sprintf("Link %s has expired.", code)
}

// Link represents one short alias and its lifecycle state
type Link struct {
	ID          int64     `json:"id"`
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	OwnerID     uuid.UUID `json:"owner_id"`
	ClickLimit  *int      `json:"click_limit,omitempty"` // nil means unlimited
	ClicksCount int       `json:"clicks_count"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
	Active      bool      `json:"active"`
	Version     int64     `json:"-"` // bumped by every successful store Save
}

// IsExpired reports whether the link's lifetime ended before now
func (l *Link) IsExpired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// IsLimitReached reports whether the click budget is used up
func (l *Link) IsLimitReached() bool {
	return l.ClickLimit != nil && l.ClicksCount >= *l.ClickLimit
}

// IsAvailable reports whether the link may still be followed
func (l *Link) IsAvailable(now time.Time) bool {
	return l.Active && !l.IsExpired(now) && !l.IsLimitReached()
}

// UnavailableReason returns why the link cannot be followed, or "" when it can.
// Expiry wins over an exhausted budget, which wins over a plain deactivation.
func (l *Link) UnavailableReason(now time.Time) UnavailableReason {
	switch {
	case l.IsExpired(now):
		return ReasonExpired
	case l.IsLimitReached():
		return ReasonLimitReached
	case !l.Active:
		return ReasonDeactivated
	default:
		return ""
	}
}

// Clone creates a deep copy of the link
func (l *Link) Clone() *Link {
	c := *l
	if l.ClickLimit != nil {
		limit := *l.ClickLimit
		c.ClickLimit = &limit
	}
	return &c
}

// Notification represents one owner-facing event
type Notification struct {
	ID        int64            `json:"id"`
	OwnerID   uuid.UUID        `json:"owner_id"`
	LinkID    int64            `json:"link_id"`
	ShortCode string           `json:"short_code"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at"`
	Read      bool             `json:"read"`
}

// Clone creates a copy of the notification
func (n *Notification) Clone() *Notification {
	c := *n
	return &c
}

// CreateLinkRequest represents the request to create a short link
type CreateLinkRequest struct {
	OriginalURL string `json:"original_url"`
	ClickLimit  *int   `json:"click_limit,omitempty"`
}

// UpdateLinkRequest represents a partial update of a link; nil fields are left untouched
type UpdateLinkRequest struct {
	OriginalURL *string `json:"original_url,omitempty"`
	ClickLimit  *int    `json:"click_limit,omitempty"`
}

// LinkResponse is the wire view of a link with its absolute short URL
type LinkResponse struct {
	ID          int64     `json:"id"`
	ShortCode   string    `json:"short_code"`
	ShortURL    string    `json:"short_url"`
	OriginalURL string    `json:"original_url"`
	ClickLimit  *int      `json:"click_limit,omitempty"`
	ClicksCount int       `json:"clicks_count"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
	Active      bool      `json:"active"`
}

// CreateLinkResponse represents the response when creating a short link
type CreateLinkResponse struct {
	Link   LinkResponse `json:"link"`
	UserID uuid.UUID    `json:"user_id"`
}

// NewLinkResponse renders a link for display under the given public base URL
func NewLinkResponse(l *Link, baseURL string) LinkResponse {
	return LinkResponse{
		ID:          l.ID,
		ShortCode:   l.ShortCode,
		ShortURL:    strings.TrimRight(baseURL, "/") + "/" + l.ShortCode,
		OriginalURL: l.OriginalURL,
		ClickLimit:  l.ClickLimit,
		ClicksCount: l.ClicksCount,
		ExpiresAt:   l.ExpiresAt,
		CreatedAt:   l.CreatedAt,
		Active:      l.Active,
	}
}
