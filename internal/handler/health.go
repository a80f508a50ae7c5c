package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"webview-proxy-go/internal/endpoint"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	registry *endpoint.Registry
	version  Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(registry *endpoint.Registry, v Version) *HealthHandler {
	return &HealthHandler{registry: registry, version: v}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

type statusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Port    int    `json:"port"`
}

// Status returns the build version and the bound port.
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, statusResponse{
		Status:  "ok",
		Version: string(h.version),
		Port:    h.registry.Port(),
	})
}
