package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshdurbin/shortlinks/internal/config"
	"github.com/joshdurbin/shortlinks/internal/domain"
	"github.com/joshdurbin/shortlinks/internal/logger"
	"github.com/joshdurbin/shortlinks/internal/notify"
	httpTransport "github.com/joshdurbin/shortlinks/internal/transport/http"
)

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Driver = driver
	if driver == config.DriverSQLite {
		cfg.Database.DSN = filepath.Join(t.TempDir(), "shortlinks.db")
	}
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *app {
	t.Helper()
	require.NoError(t, cfg.Validate())

	a, err := newApp(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.close()) })
	return a
}

func request(t *testing.T, h http.Handler, method, path string, body any, owner string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if owner != "" {
		req.Header.Set(httpTransport.UserIDHeader, owner)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestApp_ClickLimitOverHTTP(t *testing.T) {
	for _, driver := range []string{config.DriverMemory, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			a := newTestApp(t, testConfig(t, driver))
			h := a.server.Handler()

			limit := 1
			w := request(t, h, http.MethodPost, "/api/links", domain.CreateLinkRequest{
				OriginalURL: "example.com/landing",
				ClickLimit:  &limit,
			}, "")
			require.Equal(t, http.StatusCreated, w.Code)

			owner := w.Header().Get(httpTransport.UserIDHeader)
			var created domain.CreateLinkResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
			code := created.Link.ShortCode
			assert.Len(t, code, 6)

			w = request(t, h, http.MethodGet, "/"+code, nil, uuid.NewString())
			assert.Equal(t, http.StatusForbidden, w.Code)

			w = request(t, h, http.MethodGet, "/"+code, nil, owner)
			require.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, "https://example.com/landing", w.Header().Get("Location"))

			w = request(t, h, http.MethodGet, "/"+code, nil, owner)
			assert.Equal(t, http.StatusGone, w.Code)
			assert.Contains(t, w.Body.String(), string(domain.ReasonLimitReached))

			w = request(t, h, http.MethodGet, "/api/notifications?unread=true", nil, owner)
			require.Equal(t, http.StatusOK, w.Code)
			var notes []domain.Notification
			require.NoError(t, json.NewDecoder(w.Body).Decode(&notes))
			require.Len(t, notes, 1)
			assert.Equal(t, domain.NotificationClickLimitReached, notes[0].Type)
		})
	}
}

func TestApp_EmbeddedNATSReceivesNotifications(t *testing.T) {
	cfg := testConfig(t, config.DriverMemory)
	cfg.Notify.NATSEmbedded = true
	cfg.Notify.NATSPort = -1
	a := newTestApp(t, cfg)
	require.NotNil(t, a.nats)

	conn, err := nats.Connect(a.nats.ClientURL())
	require.NoError(t, err)
	defer conn.Close()

	owner := uuid.New()
	sub, err := conn.SubscribeSync(notify.Subject(owner))
	require.NoError(t, err)
	require.NoError(t, conn.Flush())

	ctx := context.Background()
	limit := 1
	link, err := a.links.CreateLink(ctx, "https://example.com", &limit, owner)
	require.NoError(t, err)
	_, err = a.links.ResolveAndConsumeClick(ctx, link.ShortCode)
	require.NoError(t, err)

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)

	var n domain.Notification
	require.NoError(t, json.Unmarshal(msg.Data, &n))
	assert.Equal(t, domain.NotificationClickLimitReached, n.Type)
	assert.Equal(t, link.ShortCode, n.ShortCode)
}

func TestApp_MetricsEndpoint(t *testing.T) {
	a := newTestApp(t, testConfig(t, config.DriverMemory))

	_, err := a.links.CreateLink(context.Background(), "https://example.com", nil, uuid.New())
	require.NoError(t, err)

	w := request(t, a.server.Handler(), http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "shortlinks_links_created_total 1")
}

func TestOpenStores_UnknownDriver(t *testing.T) {
	_, err := openStores(context.Background(), config.DatabaseConfig{Driver: "mysql"})
	assert.ErrorContains(t, err, "unknown database driver")
}
