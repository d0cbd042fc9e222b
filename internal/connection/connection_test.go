package connection

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/bassosimone/slogstub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openapi-client-go/internal/apierror"
	"openapi-client-go/internal/metrics"
	"openapi-client-go/internal/model"
	"openapi-client-go/internal/pipeline"
)

// newCapturingLogger returns a logger that captures all log records.
func newCapturingLogger() (*slog.Logger, *[]slog.Record) {
	var records []slog.Record
	handler := &slogstub.FuncHandler{
		EnabledFunc: func(ctx context.Context, level slog.Level) bool {
			return true
		},
		HandleFunc: func(ctx context.Context, record slog.Record) error {
			records = append(records, record)
			return nil
		},
	}
	return slog.New(handler), &records
}

// attr returns the value of the named attribute of record.
func attr(record slog.Record, key string) (slog.Value, bool) {
	var (
		value slog.Value
		found bool
	)
	record.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			value, found = a.Value, true
			return false
		}
		return true
	})
	return value, found
}

func respondWith(resp *model.Response, err error) pipeline.HandlerFunc {
	return func(ctx context.Context, req *model.Request) (*model.Response, error) {
		return resp, err
	}
}

func newRequest() *model.Request {
	return &model.Request{
		Method: model.MethodGet,
		URI:    "/engines",
		Header: http.Header{"Authorization": {"Bearer secret"}, "Accept": {"application/json"}},
	}
}

// A 2xx response is returned and the call is logged with a shared spanID.
func TestPerformSuccess(t *testing.T) {
	logger, records := newCapturingLogger()
	want := &model.Response{StatusCode: 200, Data: map[string]any{"ok": true}}
	conn := New(NewConfig(), respondWith(want, nil), logger, DefaultSLogger())

	resp, err := conn.Perform(context.Background(), newRequest())

	require.NoError(t, err)
	assert.Same(t, want, resp)
	require.Len(t, *records, 2)
	assert.Equal(t, "performStart", (*records)[0].Message)
	assert.Equal(t, "performDone", (*records)[1].Message)
	assert.Equal(t, slog.LevelInfo, (*records)[1].Level)

	start, ok := attr((*records)[0], "spanID")
	require.True(t, ok)
	done, ok := attr((*records)[1], "spanID")
	require.True(t, ok)
	assert.Equal(t, start.String(), done.String())
	assert.NotEmpty(t, start.String())
}

func TestPerformStatusClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		data     any
		sentinel error
		message  string
	}{
		{"unauthorized", 401, nil, apierror.ErrAuthentication, "Unauthorized"},
		{"forbidden", 403, map[string]any{"message": "token expired"}, apierror.ErrAuthentication, "token expired"},
		{"not found", 404, map[string]any{"error": "no such engine"}, apierror.ErrNotFound, "no such engine"},
		{"unprocessable", 422, map[string]any{"errors": []any{"name is required", "size too large"}},
			apierror.ErrAPI, "name is required; size too large"},
		{"server error", 500, map[string]any{"error": map[string]any{"type": "boom", "reason": "shard failure"}},
			apierror.ErrAPI, "shard failure"},
		{"unavailable", 503, "maintenance", apierror.ErrAPI, "Service Unavailable"},
		{"nonstandard", 599, nil, apierror.ErrAPI, "unexpected status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &model.Response{StatusCode: tt.status, Data: tt.data, Raw: []byte("raw")}
			conn := New(NewConfig(), respondWith(resp, nil), DefaultSLogger(), DefaultSLogger())

			got, err := conn.Perform(context.Background(), newRequest())

			assert.Nil(t, got)
			require.ErrorIs(t, err, tt.sentinel)
			var e *apierror.Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, tt.message, e.Message)
			assert.Equal(t, tt.status, e.StatusCode)
			assert.Same(t, resp, e.Response)
			assert.Equal(t, "raw", string(e.Response.Raw))
		})
	}
}

func TestPerformInformationalAndRedirectPassThrough(t *testing.T) {
	for _, status := range []int{101, 204, 302, 304} {
		resp := &model.Response{StatusCode: status}
		conn := New(NewConfig(), respondWith(resp, nil), DefaultSLogger(), DefaultSLogger())

		got, err := conn.Perform(context.Background(), newRequest())

		require.NoError(t, err, "status %d", status)
		assert.Same(t, resp, got)
	}
}

func TestPerformInvalidRequest(t *testing.T) {
	called := false
	conn := New(NewConfig(), pipeline.HandlerFunc(func(ctx context.Context, req *model.Request) (*model.Response, error) {
		called = true
		return nil, nil
	}), DefaultSLogger(), DefaultSLogger())

	_, err := conn.Perform(context.Background(), &model.Request{URI: "/"})
	require.ErrorIs(t, err, apierror.ErrClient)
	require.ErrorIs(t, err, model.ErrMissingMethod)

	_, err = conn.Perform(context.Background(), nil)
	require.ErrorIs(t, err, apierror.ErrClient)

	assert.False(t, called)
}

func TestPerformUntypedErrorIsClientError(t *testing.T) {
	cause := errors.New("serializer exploded")
	conn := New(NewConfig(), respondWith(nil, cause), DefaultSLogger(), DefaultSLogger())

	_, err := conn.Perform(context.Background(), newRequest())

	require.ErrorIs(t, err, apierror.ErrClient)
	require.ErrorIs(t, err, cause)
}

// A transport that drops the connection surfaces as a connection error.
func TestPerformDisconnect(t *testing.T) {
	cause := errors.New("read tcp 10.0.0.1:443: connection reset by peer")
	chain := pipeline.NewConnectionErrorHandler(respondWith(nil, cause), nil)
	logger, records := newCapturingLogger()
	conn := New(NewConfig(), chain, logger, DefaultSLogger())

	_, err := conn.Perform(context.Background(), newRequest())

	require.ErrorIs(t, err, apierror.ErrConnection)
	require.ErrorIs(t, err, cause)
	require.Len(t, *records, 2)
	assert.Equal(t, slog.LevelWarn, (*records)[1].Level)
	kind, ok := attr((*records)[1], "errKind")
	require.True(t, ok)
	assert.Equal(t, "connection", kind.String())
	class, ok := attr((*records)[1], "errClass")
	require.True(t, ok)
	assert.NotEmpty(t, class.String())
}

func TestPerformTypedErrorsPassThrough(t *testing.T) {
	typed := apierror.New(apierror.KindConnection, "down")
	conn := New(NewConfig(), respondWith(nil, typed), DefaultSLogger(), DefaultSLogger())

	_, err := conn.Perform(context.Background(), newRequest())

	assert.Same(t, typed, err)
}

func TestPerformUndecodableResponse(t *testing.T) {
	decodeErr := errors.New("invalid character '<'")

	t.Run("error status is classified by status", func(t *testing.T) {
		resp := &model.Response{StatusCode: 502, Raw: []byte("<html>bad gateway</html>")}
		typed := apierror.FromResponse(apierror.KindUnexpectedValue, resp, "cannot decode")
		typed.Err = decodeErr
		conn := New(NewConfig(), respondWith(resp, typed), DefaultSLogger(), DefaultSLogger())

		_, err := conn.Perform(context.Background(), newRequest())

		require.ErrorIs(t, err, apierror.ErrAPI)
		require.ErrorIs(t, err, decodeErr)
		assert.NotErrorIs(t, err, apierror.ErrUnexpectedValue)
		assert.Same(t, resp, apierror.ResponseOf(err))
	})

	t.Run("success status stays unexpected", func(t *testing.T) {
		resp := &model.Response{StatusCode: 200, Raw: []byte("<html>ok</html>")}
		typed := apierror.FromResponse(apierror.KindUnexpectedValue, resp, "cannot decode")
		conn := New(NewConfig(), respondWith(resp, typed), DefaultSLogger(), DefaultSLogger())

		_, err := conn.Perform(context.Background(), newRequest())

		assert.Same(t, typed, err)
	})
}

func TestPerformNilResponseIsConnectionError(t *testing.T) {
	conn := New(NewConfig(), respondWith(nil, nil), DefaultSLogger(), DefaultSLogger())

	_, err := conn.Perform(context.Background(), newRequest())

	require.ErrorIs(t, err, apierror.ErrConnection)
	require.ErrorIs(t, err, pipeline.ErrNoStatus)
}

func TestPerformTraceRedactsCredentials(t *testing.T) {
	tracer, records := newCapturingLogger()
	resp := &model.Response{
		StatusCode: 200,
		Header:     http.Header{"Set-Cookie": {"session=abc"}, "Content-Type": {"application/json"}},
		Raw:        []byte(`{"ok":true}`),
	}
	conn := New(NewConfig(), respondWith(resp, nil), DefaultSLogger(), tracer)
	req := newRequest()

	_, err := conn.Perform(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, *records, 2)
	assert.Equal(t, "requestTrace", (*records)[0].Message)
	assert.Equal(t, "responseTrace", (*records)[1].Message)
	assert.Equal(t, slog.LevelDebug, (*records)[0].Level)

	headers, ok := attr((*records)[0], "httpHeaders")
	require.True(t, ok)
	traced := headers.Any().(http.Header)
	assert.Equal(t, redacted, traced.Get("Authorization"))
	assert.Equal(t, "application/json", traced.Get("Accept"))
	assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))

	headers, ok = attr((*records)[1], "httpHeaders")
	require.True(t, ok)
	assert.Equal(t, redacted, headers.Any().(http.Header).Get("Set-Cookie"))
	body, ok := attr((*records)[1], "httpBody")
	require.True(t, ok)
	assert.Equal(t, `{"ok":true}`, body.String())
}

func TestRedactHeadersNonCanonicalKeys(t *testing.T) {
	h := http.Header{
		"authorization": {"Bearer secret"},
		"x-api-key":     {"key"},
		"COOKIE":        {"session=abc"},
		"accept":        {"application/json"},
	}

	out := redactHeaders(h)

	assert.Equal(t, []string{redacted}, out["authorization"])
	assert.Equal(t, []string{redacted}, out["x-api-key"])
	assert.Equal(t, []string{redacted}, out["COOKIE"])
	assert.Equal(t, []string{"application/json"}, out["accept"])
	assert.Equal(t, []string{"Bearer secret"}, h["authorization"])
}

type panickingSLogger struct{}

func (panickingSLogger) Debug(msg string, args ...any) { panic("debug sink") }
func (panickingSLogger) Info(msg string, args ...any)  { panic("info sink") }
func (panickingSLogger) Warn(msg string, args ...any)  { panic("warn sink") }

func TestPerformSurvivesPanickingSinks(t *testing.T) {
	want := &model.Response{StatusCode: 200}
	conn := New(NewConfig(), respondWith(want, nil), panickingSLogger{}, panickingSLogger{})

	resp, err := conn.Perform(context.Background(), newRequest())

	require.NoError(t, err)
	assert.Same(t, want, resp)

	conn = New(NewConfig(), respondWith(&model.Response{StatusCode: 404}, nil), panickingSLogger{}, panickingSLogger{})
	_, err = conn.Perform(context.Background(), newRequest())
	require.ErrorIs(t, err, apierror.ErrNotFound)
}

func TestPerformDoneCarriesTiming(t *testing.T) {
	logger, records := newCapturingLogger()
	cfg := NewConfig()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ticks := 0
	cfg.TimeNow = func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * time.Second)
	}
	resp := &model.Response{StatusCode: 200, TransferStats: map[string]any{model.StatTotalTime: 0.25}}
	conn := New(cfg, respondWith(resp, nil), logger, DefaultSLogger())

	_, err := conn.Perform(context.Background(), newRequest())
	require.NoError(t, err)

	done := (*records)[1]
	t0, ok := attr(done, "t0")
	require.True(t, ok)
	tEnd, ok := attr(done, "t")
	require.True(t, ok)
	assert.Equal(t, time.Second, tEnd.Time().Sub(t0.Time()))
	total, ok := attr(done, "totalTime")
	require.True(t, ok)
	assert.Equal(t, 0.25, total.Float64())
}

func TestPerformRecordsMetrics(t *testing.T) {
	cfg := NewConfig()
	cfg.Metrics = metrics.New()
	conn := New(cfg, respondWith(&model.Response{StatusCode: 404}, nil), DefaultSLogger(), DefaultSLogger())

	_, _ = conn.Perform(context.Background(), newRequest())

	families, err := cfg.Metrics.Registry.Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() != "apiclient_calls_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			var labels []string
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetValue())
			}
			if strings.Join(labels, ",") == "GET,not_found" {
				found = true
				assert.Equal(t, 1.0, m.GetCounter().GetValue())
			}
		}
	}
	assert.True(t, found)
}

func TestNewSpanID(t *testing.T) {
	a, b := NewSpanID(), NewSpanID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
