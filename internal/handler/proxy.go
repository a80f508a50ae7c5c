package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"webview-proxy-go/internal/codec"
	"webview-proxy-go/internal/metrics"
	"webview-proxy-go/internal/model"
	"webview-proxy-go/internal/service"
)

// ProxyHandler relays /proxy/{headers}/{url} requests to their encoded target.
type ProxyHandler struct {
	service *service.ProxyService
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler. The metrics parameter is optional.
func NewProxyHandler(svc *service.ProxyService, m *metrics.Metrics, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		metrics: m,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// Handle forwards the request and streams the upstream response back with its
// status code and filtered headers.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()

	pr := &model.ProxyRequest{
		Ctx:            req.Context(),
		Method:         req.Method,
		HeadersSegment: c.Param("headers"),
		URLSegment:     c.Param("url"),
		RawQuery:       req.URL.RawQuery,
		Header:         req.Header,
		Body:           req.Body,
		ContentLength:  req.ContentLength,
	}

	resp, err := h.service.Forward(pr)
	if err != nil {
		return h.mapError(c, err)
	}
	defer func() { _ = resp.Body.Close() }()

	dst := c.Response().Header()
	for key, vals := range resp.Header {
		// CORS headers set by the listener take precedence over the upstream's.
		// Any other header the middleware chain already set, such as
		// X-Request-Id, is replaced by the upstream value.
		if strings.HasPrefix(key, "Access-Control-") && dst.Get(key) != "" {
			continue
		}
		dst[key] = append([]string(nil), vals...)
	}

	c.Response().WriteHeader(resp.StatusCode)

	// The status line is already sent, so a failed copy can only truncate the body.
	var w io.Writer = c.Response()
	if resp.ContentLength < 0 {
		w = flushWriter{c.Response()}
	}
	if _, err := io.Copy(w, resp.Body); err != nil && !errors.Is(err, context.Canceled) {
		h.logger.Warn("streaming response body", "err", err)
	}

	return nil
}

// flushWriter pushes each chunk to the client as soon as the upstream yields
// it, for responses of unknown length such as event streams.
type flushWriter struct {
	res *echo.Response
}

func (f flushWriter) Write(p []byte) (int, error) {
	n, err := f.res.Write(p)
	if err == nil {
		f.res.Flush()
	}
	return n, err
}

func (h *ProxyHandler) mapError(c echo.Context, err error) error {
	var (
		kind   string
		status int
		msg    string
	)

	switch {
	case errors.Is(err, codec.ErrInvalidURLEncoding):
		kind, status, msg = "invalid_encoding", http.StatusBadRequest, "Invalid URL encoding"
	case errors.Is(err, codec.ErrInvalidTargetURL):
		kind, status, msg = "invalid_target", http.StatusBadRequest, "Invalid target URL"
	case errors.Is(err, service.ErrHostNotAllowed):
		kind, status, msg = "host_not_allowed", http.StatusForbidden, "Target host not allowed"
	case errors.Is(err, service.ErrRequestBuild):
		kind, status, msg = "request_build", http.StatusInternalServerError, "Failed to build request"
	case errors.Is(err, context.Canceled):
		kind, status, msg = "client_canceled", http.StatusBadGateway, "Request failed: "+transportReason(err)
	default:
		kind, status, msg = "upstream", http.StatusBadGateway, "Request failed: "+transportReason(err)
	}

	if h.metrics != nil {
		h.metrics.ForwardErrors.WithLabelValues(kind).Inc()
	}

	level := slog.LevelWarn
	if kind == "client_canceled" {
		level = slog.LevelDebug
	}
	h.logger.Log(c.Request().Context(), level, "proxy error",
		"kind", kind,
		"status", status,
		"err", transportReason(err),
	)

	return c.String(status, msg)
}

// transportReason returns the underlying transport failure without the
// request URL, which may carry credentials in its query.
func transportReason(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err.Error()
	}
	return err.Error()
}
