package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"openapi-client-go/internal/model"
)

// HostHandler sets the destination host and scheme on every request and
// prepends an optional URI prefix.
//
// Construct using [NewHostHandler].
type HostHandler struct {
	inner  Handler
	host   string
	scheme string
	prefix string
}

var _ Handler = &HostHandler{}

// NewHostHandler returns a [*HostHandler] wrapping inner.
//
// The endpoint argument is the API base URL (e.g. "https://api.example.com:8443").
// A path on the endpoint becomes the leading part of the URI prefix. The
// uriPrefix argument may be empty.
//
// Returns an error when the endpoint has no scheme or host.
func NewHostHandler(inner Handler, endpoint string, uriPrefix string) (*HostHandler, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("pipeline: parse endpoint %q: %w", endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("pipeline: endpoint %q must include scheme and host", endpoint)
	}
	prefix := uriPrefix
	if base := strings.TrimRight(u.Path, "/"); base != "" {
		prefix = joinPrefix(base, uriPrefix)
	}
	return &HostHandler{
		inner:  inner,
		host:   u.Host,
		scheme: u.Scheme,
		prefix: prefix,
	}, nil
}

// Handle implements [Handler].
func (h *HostHandler) Handle(ctx context.Context, req *model.Request) (*model.Response, error) {
	out := req.Clone()
	out.Header.Set("Host", h.host)
	out.Scheme = h.scheme
	if h.prefix != "" {
		out.URI = h.addPrefix(out.URI)
	}
	return h.inner.Handle(ctx, out)
}

// addPrefix prepends the prefix to uri unless uri already carries it.
func (h *HostHandler) addPrefix(uri string) string {
	trimmed := strings.TrimRight(h.prefix, "/")
	if trimmed != "" && (uri == trimmed || hasPathPrefix(uri, trimmed)) {
		return uri
	}
	switch {
	case strings.HasPrefix(uri, "/"):
		return trimmed + uri
	case strings.HasSuffix(h.prefix, "/") || uri == "":
		return h.prefix + uri
	default:
		return h.prefix + "/" + uri
	}
}

func hasPathPrefix(uri, prefix string) bool {
	if !strings.HasPrefix(uri, prefix) {
		return false
	}
	switch uri[len(prefix)] {
	case '/', '?':
		return true
	}
	return false
}

func joinPrefix(base, prefix string) string {
	if prefix == "" {
		return base + "/"
	}
	return base + "/" + strings.TrimLeft(prefix, "/")
}
