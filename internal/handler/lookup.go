package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"webview-proxy-go/internal/codec"
	"webview-proxy-go/internal/endpoint"
)

// LookupHandler exposes the endpoint registry to a host UI over HTTP.
type LookupHandler struct {
	registry *endpoint.Registry
}

// NewLookupHandler creates a LookupHandler.
func NewLookupHandler(registry *endpoint.Registry) *LookupHandler {
	return &LookupHandler{registry: registry}
}

type proxyURLResponse struct {
	URL  string `json:"url"`
	Port int    `json:"port"`
}

// ProxyURL handles GET /url?target=...&header=Name:Value and returns the proxy
// URL for target. The target is encoded as given; it is validated only when
// the URL is used.
func (h *LookupHandler) ProxyURL(c echo.Context) error {
	target := c.QueryParam("target")
	if target == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "target is required")
	}

	headers := codec.ParseHeaders(c.QueryParams()["header"])
	return c.JSON(http.StatusOK, proxyURLResponse{
		URL:  h.registry.ProxyURL(target, headers),
		Port: h.registry.Port(),
	})
}

// Port handles GET /port.
func (h *LookupHandler) Port(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]int{
		"port": h.registry.Port(),
	})
}
