package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"webview-proxy-go/internal/config"
	"webview-proxy-go/internal/metrics"
)

func newTestEcho(t *testing.T, mutate func(*config.Config)) *echo.Echo {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := NewEcho(cfg, metrics.New(), logger)
	e.Any("/proxy/:headers/:url", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return e
}

func serveProxy(e *echo.Echo, body io.Reader) int {
	req := httptest.NewRequest(http.MethodPost, "/proxy/_/x", body)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestNewEcho_RateLimitEnabled(t *testing.T) {
	e := newTestEcho(t, func(cfg *config.Config) {
		cfg.Server.RateLimit.Enabled = true
		cfg.Server.RateLimit.RequestsPerSecond = 1
	})

	if code := serveProxy(e, http.NoBody); code != http.StatusOK {
		t.Fatalf("first request: status = %d, want %d", code, http.StatusOK)
	}

	got429 := false
	for i := 0; i < 10; i++ {
		if serveProxy(e, http.NoBody) == http.StatusTooManyRequests {
			got429 = true
			break
		}
	}
	if !got429 {
		t.Error("expected a 429 on /proxy once the burst is spent")
	}
}

func TestNewEcho_RateLimitDisabled(t *testing.T) {
	e := newTestEcho(t, nil)

	for i := 0; i < 20; i++ {
		if code := serveProxy(e, http.NoBody); code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i, code, http.StatusOK)
		}
	}
}

func TestNewEcho_BodyLimit(t *testing.T) {
	e := newTestEcho(t, func(cfg *config.Config) { cfg.Server.BodyMaxBytes = 8 })

	if code := serveProxy(e, strings.NewReader("small")); code != http.StatusOK {
		t.Errorf("small body: status = %d, want %d", code, http.StatusOK)
	}
	if code := serveProxy(e, strings.NewReader(strings.Repeat("x", 64))); code != http.StatusRequestEntityTooLarge {
		t.Errorf("large body: status = %d, want %d", code, http.StatusRequestEntityTooLarge)
	}
}

func TestNewEcho_SetsRequestID(t *testing.T) {
	e := newTestEcho(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/proxy/_/x", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if id := rec.Header().Get(echo.HeaderXRequestID); len(id) != 36 {
		t.Errorf("X-Request-Id = %q, want a uuid", id)
	}
}
