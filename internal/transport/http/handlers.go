package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/joshdurbin/shortlinks/internal/domain"
	"github.com/joshdurbin/shortlinks/internal/logger"
	"github.com/joshdurbin/shortlinks/internal/service"
)

// UserIDHeader carries the caller's owner id
const UserIDHeader = "X-User-Id"

// ErrorResponse is the JSON body of every non-2xx API response
type ErrorResponse struct {
	Error  string                   `json:"error"`
	Reason domain.UnavailableReason `json:"reason,omitempty"`
}

// Handler holds the HTTP handlers for the link API
type Handler struct {
	links         service.LinkService
	notifications service.NotificationService
	baseURL       string
	log           *logger.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(links service.LinkService, notifications service.NotificationService, baseURL string, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{
		links:         links,
		notifications: notifications,
		baseURL:       baseURL,
		log:           log.With("component", "http"),
	}
}

// Register mounts the API routes on mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/links", h.CreateLink)
	mux.HandleFunc("GET /api/links", h.ListLinks)
	mux.HandleFunc("GET /api/links/{id}", h.GetLink)
	mux.HandleFunc("PUT /api/links/{id}", h.UpdateLink)
	mux.HandleFunc("DELETE /api/links/{id}", h.DeleteLink)
	mux.HandleFunc("GET /api/notifications", h.ListNotifications)
	mux.HandleFunc("POST /api/notifications/{id}/read", h.MarkNotificationRead)
	mux.HandleFunc("PATCH /api/notifications/{id}/read", h.MarkNotificationRead)
	mux.HandleFunc("GET /{code}", h.Redirect)
}

// CreateLink handles POST /api/links. A caller without an owner id is issued one.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ownerID := uuid.New()
	if r.Header.Get(UserIDHeader) != "" {
		var ok bool
		if ownerID, ok = h.requireOwner(w, r); !ok {
			return
		}
	}

	var req domain.CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if strings.TrimSpace(req.OriginalURL) == "" {
		h.writeError(w, http.StatusBadRequest, "original_url is required")
		return
	}

	if req.ClickLimit != nil && *req.ClickLimit <= 0 {
		h.writeError(w, http.StatusBadRequest, "click_limit must be positive")
		return
	}

	link, err := h.links.CreateLink(r.Context(), req.OriginalURL, req.ClickLimit, ownerID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set(UserIDHeader, ownerID.String())
	h.writeJSON(w, http.StatusCreated, domain.CreateLinkResponse{
		Link:   domain.NewLinkResponse(link, h.baseURL),
		UserID: ownerID,
	})
}

// ListLinks handles GET /api/links
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	links, err := h.links.ListByOwner(r.Context(), ownerID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	response := make([]domain.LinkResponse, 0, len(links))
	for _, link := range links {
		response = append(response, domain.NewLinkResponse(link, h.baseURL))
	}
	h.writeJSON(w, http.StatusOK, response)
}

// GetLink handles GET /api/links/{id}
func (h *Handler) GetLink(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.requireOwner(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	link, err := h.links.GetLink(r.Context(), id, ownerID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, domain.NewLinkResponse(link, h.baseURL))
}

// UpdateLink handles PUT /api/links/{id}
func (h *Handler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.requireOwner(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req domain.UpdateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.ClickLimit != nil && *req.ClickLimit <= 0 {
		h.writeError(w, http.StatusBadRequest, "click_limit must be positive")
		return
	}

	link, err := h.links.UpdateLink(r.Context(), id, ownerID, req.OriginalURL, req.ClickLimit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, domain.NewLinkResponse(link, h.baseURL))
}

// DeleteLink handles DELETE /api/links/{id}
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.requireOwner(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	deleted, err := h.links.DeleteLink(r.Context(), id, ownerID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if !deleted {
		h.writeError(w, http.StatusNotFound, domain.ErrNotFound.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListNotifications handles GET /api/notifications[?unread=true]
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	unread := false
	if raw := r.URL.Query().Get("unread"); raw != "" {
		var err error
		if unread, err = strconv.ParseBool(raw); err != nil {
			h.writeError(w, http.StatusBadRequest, "unread must be a boolean")
			return
		}
	}

	var (
		notes []*domain.Notification
		err   error
	)
	if unread {
		notes, err = h.notifications.ListUnread(r.Context(), ownerID)
	} else {
		notes, err = h.notifications.ListByOwner(r.Context(), ownerID)
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	if notes == nil {
		notes = []*domain.Notification{}
	}
	h.writeJSON(w, http.StatusOK, notes)
}

// MarkNotificationRead handles POST|PATCH /api/notifications/{id}/read
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.requireOwner(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(r.Context(), id, ownerID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Redirect handles GET /{code}: counts a click and redirects the owner to the original URL
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	code := r.PathValue("code")
	link, err := h.links.ResolveAndConsumeClickAs(r.Context(), code, ownerID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	http.Redirect(w, r, redirectTarget(link.OriginalURL), http.StatusFound)
}

func redirectTarget(originalURL string) string {
	if strings.HasPrefix(originalURL, "http://") || strings.HasPrefix(originalURL, "https://") {
		return originalURL
	}
	return "https://" + originalURL
}

func (h *Handler) requireOwner(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get(UserIDHeader)
	if raw == "" {
		h.writeError(w, http.StatusBadRequest, UserIDHeader+" header is required")
		return uuid.Nil, false
	}
	ownerID, err := uuid.Parse(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, UserIDHeader+" header must be a UUID")
		return uuid.Nil, false
	}
	return ownerID, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "id must be an integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var unavailable *domain.UnavailableError
	switch {
	case errors.As(err, &unavailable):
		h.writeJSON(w, http.StatusGone, ErrorResponse{Error: domain.ErrUnavailable.Error(), Reason: unavailable.Reason})
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, domain.ErrNotFound.Error())
	case errors.Is(err, domain.ErrForbidden):
		h.writeError(w, http.StatusForbidden, domain.ErrForbidden.Error())
	case errors.Is(err, domain.ErrAllocationExhausted):
		h.writeError(w, http.StatusServiceUnavailable, domain.ErrAllocationExhausted.Error())
	default:
		h.log.Error("request failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, ErrorResponse{Error: msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("failed to encode response", "error", err)
	}
}
