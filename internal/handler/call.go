package handler

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"

	"openapi-client-go/internal/apierror"
	"openapi-client-go/internal/service"
)

// credentialPattern matches credentials that may be embedded in error messages.
var credentialPattern = regexp.MustCompile(`(?i)((?:api_?key|authorization)[=:]\s*(?:apikey |bearer )?)[^&\s"]+`)

// errorBody is the JSON document returned for failed calls.
type errorBody struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Status int    `json:"status,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// CallHandler exposes the API connection over HTTP.
type CallHandler struct {
	service *service.GatewayService
	logger  *slog.Logger
}

// NewCallHandler creates a CallHandler.
func NewCallHandler(svc *service.GatewayService, logger *slog.Logger) *CallHandler {
	return &CallHandler{
		service: svc,
		logger:  logger.With("component", "call_handler"),
	}
}

// Handle decodes a call envelope, performs it and writes the result as JSON.
func (h *CallHandler) Handle(c echo.Context) error {
	var call service.Call
	if err := c.Bind(&call); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "malformed call envelope"})
	}

	result, err := h.service.Perform(c.Request().Context(), &call, c.Request().Header)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *CallHandler) mapError(c echo.Context, err error) error {
	h.logger.Error("call error",
		"err", sanitizeError(err),
		"path", c.Request().URL.Path,
	)

	if errors.Is(err, service.ErrInvalidCall) {
		return c.JSON(http.StatusBadRequest, errorBody{Error: sanitizeError(err), Kind: apierror.KindClient.String()})
	}

	var e *apierror.Error
	if !errors.As(err, &e) {
		return c.JSON(http.StatusBadGateway, errorBody{Error: "upstream request failed"})
	}

	body := errorBody{Error: e.Message, Kind: e.Kind.String(), Status: e.StatusCode}
	if e.Response != nil {
		body.Data = e.Response.Data
	}

	switch e.Kind {
	case apierror.KindAuthentication:
		return c.JSON(http.StatusUnauthorized, body)
	case apierror.KindNotFound:
		return c.JSON(http.StatusNotFound, body)
	case apierror.KindAPI:
		status := e.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		return c.JSON(status, body)
	case apierror.KindUnexpectedValue:
		return c.JSON(http.StatusBadGateway, body)
	case apierror.KindConnection:
		if isTimeout(err) {
			body.Error = "upstream request timed out"
			return c.JSON(http.StatusGatewayTimeout, body)
		}
		if errors.Is(err, context.Canceled) {
			body.Error = "client disconnected"
			return c.JSON(http.StatusBadGateway, body)
		}
		body.Error = "upstream connection failed"
		return c.JSON(http.StatusBadGateway, body)
	default:
		body.Error = sanitizeError(e)
		return c.JSON(http.StatusBadRequest, body)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// sanitizeError redacts credentials from error messages.
func sanitizeError(err error) string {
	return credentialPattern.ReplaceAllString(err.Error(), "${1}[REDACTED]")
}
