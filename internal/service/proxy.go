// Package service implements the core proxy forwarding logic.
package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"webview-proxy-go/internal/client"
	"webview-proxy-go/internal/codec"
	"webview-proxy-go/internal/config"
	"webview-proxy-go/internal/model"
)

var (
	// ErrHostNotAllowed is returned when upstream.allowed_hosts is set and the
	// target host is not in it.
	ErrHostNotAllowed = errors.New("target host not allowed")
	// ErrRequestBuild is returned when the outbound request cannot be constructed.
	ErrRequestBuild = errors.New("failed to build request")
	// ErrUpstreamRequest is returned when the upstream exchange fails before a
	// response arrives.
	ErrUpstreamRequest = errors.New("upstream request failed")
)

// ProxyService handles the forwarding logic for proxy requests.
type ProxyService struct {
	client   *client.UpstreamClient
	cfg      *config.Config
	logger   *slog.Logger
	defaults http.Header
}

// NewProxyService creates a ProxyService.
func NewProxyService(c *client.UpstreamClient, cfg *config.Config, logger *slog.Logger) *ProxyService {
	defaults := make(http.Header)
	defaults.Set("User-Agent", cfg.Upstream.UserAgent)
	defaults.Set("Upgrade-Insecure-Requests", "1")

	return &ProxyService{
		client:   c,
		cfg:      cfg,
		logger:   logger.With("component", "proxy_service"),
		defaults: defaults,
	}
}

// Forward decodes the proxy token in pr, sends the request to its target and
// returns the upstream response. The caller is responsible for closing the
// response body.
//
// Errors wrap codec.ErrInvalidURLEncoding, codec.ErrInvalidTargetURL,
// ErrHostNotAllowed, ErrRequestBuild or ErrUpstreamRequest.
func (s *ProxyService) Forward(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	token, err := codec.Decode(pr.HeadersSegment, pr.URLSegment)
	if err != nil {
		return nil, err
	}

	if !s.cfg.Upstream.HostAllowed(token.Target.Hostname()) {
		return nil, fmt.Errorf("%w: %s", ErrHostNotAllowed, token.Target.Hostname())
	}

	header := MergeHeaders(token.Headers, pr.Header)
	applyDefaultHeaders(header, s.defaults)

	req, err := s.buildRequest(pr, buildUpstreamURL(token.URL, pr.RawQuery), header)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("forwarding request",
		"method", pr.Method,
		"host", req.URL.Host,
		"declared_headers", len(token.Headers),
	)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamRequest, err)
	}

	resp.Header = filterResponseHeaders(resp.Header)
	return resp, nil
}

func (s *ProxyService) buildRequest(pr *model.ProxyRequest, target string, header http.Header) (*http.Request, error) {
	var body io.Reader = pr.Body
	if pr.Body == nil || pr.ContentLength == 0 {
		body = http.NoBody
	}

	req, err := http.NewRequestWithContext(pr.Ctx, pr.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestBuild, err)
	}
	if body != http.NoBody {
		req.ContentLength = pr.ContentLength
	}

	// net/http ignores Header["Host"] on client requests.
	if host := header.Get("Host"); host != "" {
		req.Host = host
		header.Del("Host")
	}
	req.Header = header

	return req, nil
}

// buildUpstreamURL appends the inbound query string to the decoded target,
// joining with '&' when the target already carries a query.
func buildUpstreamURL(target, rawQuery string) string {
	if rawQuery == "" {
		return target
	}
	base, fragment, hasFragment := strings.Cut(target, "#")

	switch {
	case !strings.Contains(base, "?"):
		base += "?" + rawQuery
	case strings.HasSuffix(base, "?"), strings.HasSuffix(base, "&"):
		base += rawQuery
	default:
		base += "&" + rawQuery
	}

	if hasFragment {
		return base + "#" + fragment
	}
	return base
}
