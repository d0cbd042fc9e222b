package handler

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"openapi-client-go/internal/config"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves liveness and gateway status endpoints.
type HealthHandler struct {
	cfg     *config.Config
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, v Version) *HealthHandler {
	return &HealthHandler{cfg: cfg, version: v}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type upstreamStatus struct {
	TimeoutSeconds    int     `json:"timeout_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second,omitempty"`
	HTTP2             bool    `json:"http2"`
}

type gatewayStatus struct {
	Status      string         `json:"status"`
	Version     string         `json:"version"`
	Endpoint    string         `json:"endpoint"`
	URIPrefix   string         `json:"uri_prefix,omitempty"`
	MediaType   string         `json:"media_type"`
	Credentials string         `json:"credentials"`
	Upstream    upstreamStatus `json:"upstream"`
}

// Status describes how calls are sent: target API, body encoding, where the
// API key comes from and the upstream limits. Credentials are never shown.
func (h *HealthHandler) Status(c echo.Context) error {
	credentials := "per_request"
	if h.cfg.API.APIKey != "" {
		credentials = "configured"
	}
	return c.JSON(http.StatusOK, gatewayStatus{
		Status:      "ok",
		Version:     string(h.version),
		Endpoint:    publicEndpoint(h.cfg.API.Endpoint),
		URIPrefix:   h.cfg.API.URIPrefix,
		MediaType:   h.cfg.API.SerializerFormat().MediaType(),
		Credentials: credentials,
		Upstream: upstreamStatus{
			TimeoutSeconds:    h.cfg.Upstream.TimeoutSeconds,
			RequestsPerSecond: h.cfg.Upstream.RequestsPerSecond,
			HTTP2:             !h.cfg.Upstream.DisableHTTP2,
		},
	})
}

// publicEndpoint strips user info and query from the endpoint URL.
func publicEndpoint(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return ""
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}
