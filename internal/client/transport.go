// Package client provides the HTTP transport and the builder assembling the
// handler chain into a [connection.Connection].
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptrace"
	"strings"
	"time"

	"golang.org/x/net/http2"

	"openapi-client-go/internal/apierror"
	"openapi-client-go/internal/config"
	"openapi-client-go/internal/model"
	"openapi-client-go/internal/pipeline"
)

// HTTPTransport is the terminal handler: it sends the shaped request over
// HTTP and returns the response with its body still open.
type HTTPTransport struct {
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

var _ pipeline.Handler = &HTTPTransport{}

// NewHTTPTransport creates an HTTPTransport with connection pooling and timeouts.
// HTTP/2 is negotiated over TLS unless upstream.disable_http2 is set.
// Redirects are never followed.
func NewHTTPTransport(cfg *config.Config, logger *slog.Logger) (*HTTPTransport, error) {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	if !cfg.Upstream.DisableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			return nil, fmt.Errorf("transport: configure http2: %w", err)
		}
	}

	userAgent := cfg.API.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}

	return &HTTPTransport{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
			// Redirects reach the connection as plain 3xx responses.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent: userAgent,
		logger:    logger.With("component", "http_transport"),
	}, nil
}

// Handle implements [pipeline.Handler].
//
// The request must have been shaped by the earlier handlers: Host header and
// scheme set, body already encoded. The caller is responsible for closing the
// response body. Malformed requests fail with [apierror.KindClient]; network
// failures are returned untyped for the connection error handler to classify.
func (t *HTTPTransport) Handle(ctx context.Context, req *model.Request) (*model.Response, error) {
	host := req.Header.Get("Host")
	if host == "" {
		return nil, apierror.New(apierror.KindClient,
			fmt.Sprintf("transport: request %s %s has no Host header", req.Method, req.URI))
	}
	scheme := req.Scheme
	if scheme == "" {
		scheme = "http"
	}
	uri := req.URI
	if !strings.HasPrefix(uri, "/") {
		uri = "/" + uri
	}
	target := scheme + "://" + host + uri

	body, err := bodyReader(req.Body)
	if err != nil {
		return nil, err
	}

	var primaryIP string
	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			if addr, ok := info.Conn.RemoteAddr().(*net.TCPAddr); ok {
				primaryIP = addr.IP.String()
			}
		},
	}
	httpReq, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, trace), string(req.Method), target, body)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindClient, err, "transport: build request")
	}
	httpReq.Header = req.Header.Clone()
	httpReq.Header.Del("Host")
	httpReq.Host = host
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", t.userAgent)
	}

	t.logger.Debug("upstream request",
		"method", httpReq.Method,
		"host", host,
		"path", httpReq.URL.Path,
	)

	start := time.Now()
	resp, err := t.httpClient.Do(httpReq) //nolint:bodyclose // body ownership transfers to the response handler
	if err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}

	stats := map[string]any{
		model.StatTotalTime:   time.Since(start).Seconds(),
		model.StatURL:         target,
		model.StatContentType: resp.Header.Get("Content-Type"),
		model.StatHTTPCode:    resp.StatusCode,
		model.StatPrimaryIP:   primaryIP,
	}
	if resp.ContentLength >= 0 {
		stats[model.StatSizeDownload] = resp.ContentLength
	}

	return &model.Response{
		StatusCode:    resp.StatusCode,
		Header:        resp.Header,
		Body:          resp.Body,
		TransferStats: stats,
	}, nil
}

// bodyReader returns the wire body of an already serialized request.
func bodyReader(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	default:
		return nil, apierror.New(apierror.KindClient,
			fmt.Sprintf("transport: body of type %T was not serialized", body))
	}
}
