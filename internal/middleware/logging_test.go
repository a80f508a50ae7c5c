package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	e := echo.New()
	e.Use(RequestLogger(logger))
	e.GET("/test", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(buf.String(), "route=/test") {
		t.Errorf("log = %q, want route=/test", buf.String())
	}
}

func TestRequestLogger_HidesProxyTarget(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	e := echo.New()
	e.Use(RequestLogger(logger))
	e.GET("/proxy/:headers/:url", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/proxy/Authorization%3Asecret/https%3A%2F%2Fexample.com%2F%3Ftoken%3Dabc", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	out := buf.String()
	for _, leak := range []string{"secret", "token", "example.com"} {
		if strings.Contains(out, leak) {
			t.Errorf("log leaks %q: %q", leak, out)
		}
	}
	if !strings.Contains(out, "route=/proxy/:headers/:url") {
		t.Errorf("log = %q, want the route template", out)
	}
}
