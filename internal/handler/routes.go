// Package handler contains the Echo handlers served by the local listener.
package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"webview-proxy-go/internal/config"
	"webview-proxy-go/internal/metrics"
)

// ExtensionMethods are forwarded on /proxy in addition to the methods echo's
// Any registers. The router only dispatches methods it has a route for, so a
// method outside both sets is answered with 405.
var ExtensionMethods = []string{
	"PURGE", "BAN",
	"PROPPATCH", "MKCOL", "COPY", "MOVE", "LOCK", "UNLOCK",
	"SEARCH", "MKCALENDAR", "LINK", "UNLINK",
}

// RegisterRoutes wires all route handlers onto the Echo instance.
func RegisterRoutes(e *echo.Echo, proxy *ProxyHandler, health *HealthHandler, lookup *LookupHandler, m *metrics.Metrics, cfg *config.Config) {
	e.GET("/healthz", health.Healthz)
	e.GET("/status", health.Status)

	e.GET("/url", lookup.ProxyURL)
	e.GET("/port", lookup.Port)

	e.Any("/proxy/:headers/:url", proxy.Handle)
	e.Match(ExtensionMethods, "/proxy/:headers/:url", proxy.Handle)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
}
