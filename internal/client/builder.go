package client

import (
	"errors"
	"fmt"
	"log/slog"

	"openapi-client-go/internal/config"
	"openapi-client-go/internal/connection"
	"openapi-client-go/internal/metrics"
	"openapi-client-go/internal/pipeline"
	"openapi-client-go/internal/serializer"
)

// ErrNoTransport is returned by [Builder.Handler] when no transport was set.
var ErrNoTransport = errors.New("client: no transport configured")

// Builder assembles the handler chain and the [connection.Connection].
//
// Unset options keep their defaults: the smart JSON serializer, discarding
// logger and tracer, no rate limiting and no metrics.
//
// The chain, outermost first, is:
//
//	ResponseSerialization -> ConnectionError -> [RateLimit] -> Host -> RequestSerialization -> transport
type Builder struct {
	endpoint   string
	uriPrefix  string
	serializer serializer.Serializer
	transport  pipeline.Handler
	logger     connection.SLogger
	tracer     connection.SLogger
	classifier pipeline.ErrClassifier
	metrics    *metrics.Metrics
	rps        float64
	burst      int
}

// NewBuilder returns a [*Builder] targeting endpoint (e.g. "https://api.example.com").
func NewBuilder(endpoint string) *Builder {
	return &Builder{
		endpoint:   endpoint,
		serializer: serializer.NewSmart(),
		logger:     connection.DefaultSLogger(),
		tracer:     connection.DefaultSLogger(),
		classifier: pipeline.DefaultErrClassifier,
	}
}

// FromConfig returns a [*Builder] wired from the application configuration:
// HTTP transport, serializer, rate limit, logging, and the optional metrics.
func FromConfig(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*Builder, error) {
	transport, err := NewHTTPTransport(cfg, logger)
	if err != nil {
		return nil, err
	}
	s, err := serializer.New(cfg.API.SerializerFormat())
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}

	b := NewBuilder(cfg.API.Endpoint).
		WithURIPrefix(cfg.API.URIPrefix).
		WithSerializer(s).
		WithTransport(transport).
		WithLogger(logger.With("component", "connection")).
		WithMetrics(m).
		WithRateLimit(cfg.Upstream.RequestsPerSecond, cfg.Upstream.Burst)
	if cfg.Log.Trace {
		b = b.WithTracer(logger.With("component", "tracer"))
	}
	return b, nil
}

// WithURIPrefix sets the prefix prepended to every request URI.
func (b *Builder) WithURIPrefix(prefix string) *Builder {
	b.uriPrefix = prefix
	return b
}

// WithSerializer replaces the default serializer.
func (b *Builder) WithSerializer(s serializer.Serializer) *Builder {
	if s != nil {
		b.serializer = s
	}
	return b
}

// WithTransport sets the terminal handler.
func (b *Builder) WithTransport(h pipeline.Handler) *Builder {
	b.transport = h
	return b
}

// WithLogger sets the sink of performStart and performDone events.
func (b *Builder) WithLogger(logger connection.SLogger) *Builder {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// WithTracer sets the sink of requestTrace and responseTrace events.
func (b *Builder) WithTracer(tracer connection.SLogger) *Builder {
	if tracer != nil {
		b.tracer = tracer
	}
	return b
}

// WithErrClassifier replaces the default error classifier.
func (b *Builder) WithErrClassifier(c pipeline.ErrClassifier) *Builder {
	if c != nil {
		b.classifier = c
	}
	return b
}

// WithMetrics enables call metrics. A nil value disables them.
func (b *Builder) WithMetrics(m *metrics.Metrics) *Builder {
	b.metrics = m
	return b
}

// WithRateLimit throttles outgoing calls. A non-positive rps disables it.
func (b *Builder) WithRateLimit(rps float64, burst int) *Builder {
	b.rps = rps
	b.burst = burst
	return b
}

// Handler composes the handler chain and returns its head.
func (b *Builder) Handler() (pipeline.Handler, error) {
	if b.transport == nil {
		return nil, ErrNoTransport
	}

	var h pipeline.Handler = pipeline.NewRequestSerializationHandler(b.transport, b.serializer)
	host, err := pipeline.NewHostHandler(h, b.endpoint, b.uriPrefix)
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	h = host
	if b.rps > 0 {
		h = pipeline.NewRateLimitHandler(h, b.rps, b.burst)
	}
	h = pipeline.NewConnectionErrorHandler(h, b.classifier)
	h = pipeline.NewResponseSerializationHandler(h, b.serializer)
	return h, nil
}

// Connection composes the handler chain and wraps it in a [*connection.Connection].
func (b *Builder) Connection() (*connection.Connection, error) {
	h, err := b.Handler()
	if err != nil {
		return nil, err
	}
	cfg := connection.NewConfig()
	cfg.ErrClassifier = b.classifier
	cfg.Metrics = b.metrics
	return connection.New(cfg, h, b.logger, b.tracer), nil
}
