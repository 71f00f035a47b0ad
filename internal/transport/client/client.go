package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/joshdurbin/shortlinks/internal/domain"
)

// UserIDHeader carries the caller's owner id
const UserIDHeader = "X-User-Id"

// APIError is a non-2xx answer from the server
type APIError struct {
	StatusCode int
	Message    string
	Reason     string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Reason != "" {
		return fmt.Sprintf("server returned status %d: %s (%s)", e.StatusCode, msg, e.Reason)
	}
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, msg)
}

// IsStatus reports whether err is an APIError with the given status code
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// Client represents an HTTP client for the shortlinks API
type Client struct {
	serverURL  string
	userID     string
	httpClient *http.Client
}

// NewClient creates a new client acting as userID; an empty userID is filled in by the first CreateLink
func NewClient(serverURL, userID string) *Client {
	return &Client{
		serverURL: serverURL,
		userID:    userID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// UserID returns the owner id sent with every request
func (c *Client) UserID() string {
	return c.userID
}

// CreateLink creates a short link
func (c *Client) CreateLink(ctx context.Context, originalURL string, clickLimit *int) (*domain.CreateLinkResponse, error) {
	body := domain.CreateLinkRequest{OriginalURL: originalURL, ClickLimit: clickLimit}

	var result domain.CreateLinkResponse
	resp, err := c.do(ctx, http.MethodPost, "/api/links", body, http.StatusCreated, &result)
	if err != nil {
		return nil, err
	}

	if c.userID == "" {
		c.userID = resp.Header.Get(UserIDHeader)
	}
	return &result, nil
}

// GetLink retrieves one of the caller's links
func (c *Client) GetLink(ctx context.Context, id int64) (*domain.LinkResponse, error) {
	var result domain.LinkResponse
	if _, err := c.do(ctx, http.MethodGet, linkPath(id), nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListLinks retrieves the caller's links, newest first
func (c *Client) ListLinks(ctx context.Context) ([]domain.LinkResponse, error) {
	var result []domain.LinkResponse
	if _, err := c.do(ctx, http.MethodGet, "/api/links", nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateLink changes the URL and/or click limit of one of the caller's links
func (c *Client) UpdateLink(ctx context.Context, id int64, originalURL *string, clickLimit *int) (*domain.LinkResponse, error) {
	body := domain.UpdateLinkRequest{OriginalURL: originalURL, ClickLimit: clickLimit}

	var result domain.LinkResponse
	if _, err := c.do(ctx, http.MethodPut, linkPath(id), body, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteLink removes one of the caller's links
func (c *Client) DeleteLink(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, linkPath(id), nil, http.StatusNoContent, nil)
	return err
}

// ListNotifications retrieves the caller's notifications, newest first
func (c *Client) ListNotifications(ctx context.Context, unreadOnly bool) ([]domain.Notification, error) {
	path := "/api/notifications"
	if unreadOnly {
		path += "?unread=true"
	}

	var result []domain.Notification
	if _, err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkRead marks one of the caller's notifications as read
func (c *Client) MarkRead(ctx context.Context, id int64) error {
	path := "/api/notifications/" + strconv.FormatInt(id, 10) + "/read"
	_, err := c.do(ctx, http.MethodPatch, path, nil, http.StatusNoContent, nil)
	return err
}

// Open follows a short code once, consuming a click, and returns the redirect target
func (c *Client) Open(ctx context.Context, shortCode string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/"+shortCode, nil, http.StatusFound, nil)
	if err != nil {
		return "", err
	}
	return resp.Header.Get("Location"), nil
}

func linkPath(id int64) string {
	return "/api/links/" + strconv.FormatInt(id, 10)
}

// do sends one request and decodes a JSON answer into out when the status matches want
func (c *Client) do(ctx context.Context, method, path string, body any, want int, out any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userID != "" {
		req.Header.Set(UserIDHeader, c.userID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Error  string `json:"error"`
			Reason string `json:"reason"`
		}
		if json.NewDecoder(resp.Body).Decode(&payload) == nil {
			apiErr.Message = payload.Error
			apiErr.Reason = payload.Reason
		}
		return nil, apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp, nil
}
