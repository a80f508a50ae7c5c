package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newCORSEcho(reached *bool) *echo.Echo {
	e := echo.New()
	e.Use(CORS())
	e.Any("/proxy/:headers/:url", func(c echo.Context) error {
		*reached = true
		return c.String(http.StatusOK, "ok")
	})
	return e
}

func TestCORS_Preflight(t *testing.T) {
	var reached bool
	e := newCORSEcho(&reached)

	req := httptest.NewRequest(http.MethodOptions, "/proxy/_/x", http.NoBody)
	req.Header.Set(echo.HeaderOrigin, "http://tauri.localhost")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if reached {
		t.Error("preflight reached the proxy handler")
	}
	if v := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); v != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", v, "*")
	}

	allowed := rec.Header().Get(echo.HeaderAccessControlAllowMethods)
	for _, m := range []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"} {
		if !strings.Contains(allowed, m) {
			t.Errorf("Access-Control-Allow-Methods = %q, missing %s", allowed, m)
		}
	}
	if v := rec.Header().Get(echo.HeaderAccessControlAllowHeaders); !strings.EqualFold(v, echo.HeaderContentType) {
		t.Errorf("Access-Control-Allow-Headers = %q, want %q", v, echo.HeaderContentType)
	}
}

func TestCORS_SimpleRequest(t *testing.T) {
	var reached bool
	e := newCORSEcho(&reached)

	req := httptest.NewRequest(http.MethodGet, "/proxy/_/x", http.NoBody)
	req.Header.Set(echo.HeaderOrigin, "http://tauri.localhost")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if !reached || rec.Code != http.StatusOK {
		t.Fatalf("status = %d reached = %v, want handler to run", rec.Code, reached)
	}
	if v := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); v != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", v, "*")
	}
}

func TestCORS_PlainOptionsPassesThrough(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
	}{
		{"no origin", nil},
		{"origin without request method", map[string]string{echo.HeaderOrigin: "http://tauri.localhost"}},
		{"request method without origin", map[string]string{echo.HeaderAccessControlRequestMethod: http.MethodGet}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reached bool
			e := newCORSEcho(&reached)

			req := httptest.NewRequest(http.MethodOptions, "/proxy/_/x", http.NoBody)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if !reached {
				t.Fatal("OPTIONS without a full preflight should reach the handler")
			}
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
			}
		})
	}
}
