// Package service turns gateway and CLI calls into API requests.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"openapi-client-go/internal/config"
	"openapi-client-go/internal/model"
)

// ErrInvalidCall is returned when a call envelope cannot be turned into a request.
var ErrInvalidCall = errors.New("invalid call")

// Performer performs API requests. [*connection.Connection] implements it.
type Performer interface {
	Perform(ctx context.Context, req *model.Request) (*model.Response, error)
}

// Call is the envelope accepted by the gateway and built by the CLI.
type Call struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Params  map[string]string `json:"params,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    any               `json:"body,omitempty"`
}

// Result is the outcome of a successful call.
type Result struct {
	Status  int         `json:"status"`
	Headers http.Header `json:"headers,omitempty"`
	Data    any         `json:"data"`
}

// droppedRequestHeaders are never taken from the call envelope: the
// pipeline and transport own them.
var droppedRequestHeaders = map[string]bool{
	"Authorization":     true,
	"Connection":        true,
	"Content-Length":    true,
	"Host":              true,
	"Transfer-Encoding": true,
	"X-Api-Key":         true,
}

// forwardableResponseHeaders are the only response headers returned to the caller.
var forwardableResponseHeaders = map[string]bool{
	"Content-Type":  true,
	"Cache-Control": true,
	"Date":          true,
	"Etag":          true,
	"Last-Modified": true,
	"Location":      true,
	"X-Request-Id":  true,
}

// GatewayService performs calls through a [Performer].
type GatewayService struct {
	conn   Performer
	cfg    *config.Config
	logger *slog.Logger
}

// NewGatewayService creates a GatewayService.
func NewGatewayService(conn Performer, cfg *config.Config, logger *slog.Logger) *GatewayService {
	return &GatewayService{
		conn:   conn,
		cfg:    cfg,
		logger: logger.With("component", "gateway_service"),
	}
}

// Perform validates call, sends it and returns the decoded result.
//
// The API key is resolved in order: config value → X-Api-Key inbound header.
// When neither is present the call is sent without credentials.
func (s *GatewayService) Perform(ctx context.Context, call *Call, inbound http.Header) (*Result, error) {
	req, err := s.buildRequest(call, inbound)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("performing call",
		"method", req.Method,
		"path", req.URI,
	)

	resp, err := s.conn.Perform(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("perform %s %s: %w", req.Method, req.URI, err)
	}

	return &Result{
		Status:  resp.StatusCode,
		Headers: filterResponseHeaders(resp.Header),
		Data:    resp.Data,
	}, nil
}

func (s *GatewayService) buildRequest(call *Call, inbound http.Header) (*model.Request, error) {
	if call == nil {
		return nil, fmt.Errorf("%w: empty envelope", ErrInvalidCall)
	}
	method := model.Method(strings.ToUpper(strings.TrimSpace(call.Method)))
	if method == "" {
		method = model.MethodGet
	}
	if !knownMethod(method) {
		return nil, fmt.Errorf("%w: unsupported method %q", ErrInvalidCall, call.Method)
	}
	if strings.TrimSpace(call.Path) == "" {
		return nil, fmt.Errorf("%w: path is required", ErrInvalidCall)
	}

	header := make(http.Header)
	for k, v := range call.Headers {
		key := http.CanonicalHeaderKey(k)
		if droppedRequestHeaders[key] {
			continue
		}
		header.Set(key, v)
	}
	if apiKey := s.resolveAPIKey(inbound); apiKey != "" {
		header.Set("Authorization", "ApiKey "+apiKey)
	}

	var params model.Params
	if len(call.Params) > 0 {
		params = make(model.Params, len(call.Params))
		for k, v := range call.Params {
			params[k] = v
		}
	}

	return &model.Request{
		Method: method,
		URI:    call.Path,
		Header: header,
		Body:   call.Body,
		Params: params,
	}, nil
}

// resolveAPIKey returns the API key from config, falling back to the X-Api-Key inbound header.
func (s *GatewayService) resolveAPIKey(inbound http.Header) string {
	if s.cfg.API.APIKey != "" {
		return s.cfg.API.APIKey
	}
	return inbound.Get("X-Api-Key")
}

func knownMethod(m model.Method) bool {
	switch m {
	case model.MethodGet, model.MethodHead, model.MethodPost, model.MethodPut,
		model.MethodPatch, model.MethodDelete, model.MethodOptions:
		return true
	}
	return false
}

func filterResponseHeaders(src http.Header) http.Header {
	dst := make(http.Header)
	for key, vals := range src {
		if forwardableResponseHeaders[http.CanonicalHeaderKey(key)] {
			dst[http.CanonicalHeaderKey(key)] = vals
		}
	}
	return dst
}
