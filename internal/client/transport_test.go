package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"openapi-client-go/internal/config"
	"openapi-client-go/internal/model"
)

func testConfig(timeout int) *config.Config {
	return &config.Config{
		API: config.APIConfig{UserAgent: "test-agent/1.0"},
		Upstream: config.UpstreamConfig{
			TimeoutSeconds:  timeout,
			IdleConnections: 10,
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTransport(t *testing.T, timeout int) *HTTPTransport {
	t.Helper()
	tr, err := NewHTTPTransport(testConfig(timeout), discardLogger())
	if err != nil {
		t.Fatalf("NewHTTPTransport() error = %v", err)
	}
	return tr
}

func TestHTTPTransport_Handle(t *testing.T) {
	var gotMethod, gotURI, gotUA, gotBody, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotURI = r.RequestURI
		gotUA = r.Header.Get("User-Agent")
		gotType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	tr := newTestTransport(t, 10)
	req := &model.Request{
		Method: model.MethodPost,
		URI:    "/engines?size=3",
		Scheme: "http",
		Header: http.Header{
			"Host":         {strings.TrimPrefix(srv.URL, "http://")},
			"Content-Type": {"application/json"},
		},
		Body: []byte(`{"name":"e1"}`),
	}

	resp, err := tr.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want %q", gotMethod, http.MethodPost)
	}
	if gotURI != "/engines?size=3" {
		t.Errorf("request URI = %q, want %q", gotURI, "/engines?size=3")
	}
	if gotUA != "test-agent/1.0" {
		t.Errorf("User-Agent = %q, want %q", gotUA, "test-agent/1.0")
	}
	if gotType != "application/json" {
		t.Errorf("Content-Type = %q, want %q", gotType, "application/json")
	}
	if gotBody != `{"name":"e1"}` {
		t.Errorf("body = %q, want %q", gotBody, `{"name":"e1"}`)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(body) != `{"status":"ok"}` {
		t.Errorf("body = %q, want %q", string(body), `{"status":"ok"}`)
	}

	if got := resp.TransferStats[model.StatHTTPCode]; got != http.StatusCreated {
		t.Errorf("stats[%s] = %v, want %d", model.StatHTTPCode, got, http.StatusCreated)
	}
	if got := resp.ContentType(); got != "application/json" {
		t.Errorf("ContentType() = %q, want %q", got, "application/json")
	}
	if got := resp.TransferStats[model.StatPrimaryIP]; got != "127.0.0.1" {
		t.Errorf("stats[%s] = %v, want %q", model.StatPrimaryIP, got, "127.0.0.1")
	}
	if got := resp.TransferStats[model.StatURL]; got != srv.URL+"/engines?size=3" {
		t.Errorf("stats[%s] = %v, want %q", model.StatURL, got, srv.URL+"/engines?size=3")
	}
	if resp.TotalTime() <= 0 {
		t.Errorf("TotalTime() = %v, want > 0", resp.TotalTime())
	}
}

func TestHTTPTransport_KeepsCallerUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	tr := newTestTransport(t, 10)
	resp, err := tr.Handle(context.Background(), &model.Request{
		Method: model.MethodGet,
		URI:    "ping",
		Header: http.Header{
			"Host":       {strings.TrimPrefix(srv.URL, "http://")},
			"User-Agent": {"custom/2.0"},
		},
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	_ = resp.Body.Close()

	if gotUA != "custom/2.0" {
		t.Errorf("User-Agent = %q, want %q", gotUA, "custom/2.0")
	}
}

func TestHTTPTransport_MissingHost(t *testing.T) {
	tr := newTestTransport(t, 1)

	_, err := tr.Handle(context.Background(), &model.Request{Method: model.MethodGet, URI: "/", Header: http.Header{}})
	if err == nil {
		t.Fatal("Handle() expected error without Host header, got nil")
	}
}

func TestHTTPTransport_UnserializedBody(t *testing.T) {
	tr := newTestTransport(t, 1)

	_, err := tr.Handle(context.Background(), &model.Request{
		Method: model.MethodPost,
		URI:    "/",
		Header: http.Header{"Host": {"127.0.0.1:1"}},
		Body:   map[string]any{"a": 1},
	})
	if err == nil {
		t.Fatal("Handle() expected error for unserialized body, got nil")
	}
	if !strings.Contains(err.Error(), "not serialized") {
		t.Errorf("error = %q, want mention of serialization", err)
	}
}

func TestHTTPTransport_Unreachable(t *testing.T) {
	tr := newTestTransport(t, 1)

	_, err := tr.Handle(context.Background(), &model.Request{
		Method: model.MethodGet,
		URI:    "/nonexistent",
		Header: http.Header{"Host": {"127.0.0.1:1"}},
	})
	if err == nil {
		t.Fatal("Handle() expected error for unreachable host, got nil")
	}
}

func TestHTTPTransport_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Simulate a slow upstream; the request should be canceled before this completes.
		time.Sleep(5 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := newTestTransport(t, 30)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	_, err := tr.Handle(ctx, &model.Request{
		Method: model.MethodGet,
		URI:    "/slow",
		Header: http.Header{"Host": {strings.TrimPrefix(srv.URL, "http://")}},
	})
	if err == nil {
		t.Fatal("Handle() expected error for canceled context, got nil")
	}
}

func TestNewHTTPTransport_DisableHTTP2(t *testing.T) {
	cfg := testConfig(5)
	cfg.Upstream.DisableHTTP2 = true
	if _, err := NewHTTPTransport(cfg, discardLogger()); err != nil {
		t.Fatalf("NewHTTPTransport() error = %v", err)
	}
}
