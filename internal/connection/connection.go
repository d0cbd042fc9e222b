// Package connection performs API calls through a [pipeline.Handler] chain.
//
// A [*Connection] owns the head of the chain and is the only place where
// HTTP statuses are turned into typed [apierror.Error] values. Each call
// emits a performStart/performDone pair to the logger and a
// requestTrace/responseTrace pair to the tracer, all sharing a spanID.
package connection

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"openapi-client-go/internal/apierror"
	"openapi-client-go/internal/metrics"
	"openapi-client-go/internal/model"
	"openapi-client-go/internal/pipeline"
)

// New returns a new [*Connection] invoking handler for every call.
//
// The cfg argument contains the common configuration.
//
// The logger receives lifecycle events and the tracer receives the request
// and response details. Use [DefaultSLogger] to disable either.
func New(cfg *Config, handler pipeline.Handler, logger, tracer SLogger) *Connection {
	return &Connection{
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		Metrics:       cfg.Metrics,
		TimeNow:       cfg.TimeNow,
		Tracer:        tracer,
		handler:       handler,
	}
}

// Connection performs API calls.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [*Connection.Perform].
type Connection struct {
	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [New] from [Config.ErrClassifier].
	ErrClassifier pipeline.ErrClassifier

	// Logger receives performStart and performDone events.
	//
	// Set by [New] to the user-provided logger.
	Logger SLogger

	// Metrics records call outcomes, or nil.
	//
	// Set by [New] from [Config.Metrics].
	Metrics *metrics.Metrics

	// TimeNow is the function to get the current time (configurable for testing).
	//
	// Set by [New] from [Config.TimeNow].
	TimeNow func() time.Time

	// Tracer receives requestTrace and responseTrace events.
	//
	// Set by [New] to the user-provided tracer.
	Tracer SLogger

	handler pipeline.Handler
}

// Handler returns the head of the handler chain.
func (c *Connection) Handler() pipeline.Handler {
	return c.handler
}

// Perform sends req through the handler chain and classifies the outcome.
//
// A 2xx, 1xx or 3xx response is returned as is. Every other outcome is an
// [*apierror.Error]: [apierror.KindClient] for invalid requests and untyped
// failures, [apierror.KindAuthentication] for 401 and 403,
// [apierror.KindNotFound] for 404 and [apierror.KindAPI] for any other 4xx
// or 5xx status. Errors already typed by the chain are returned unchanged,
// except undecodable error responses which are classified by their status.
func (c *Connection) Perform(ctx context.Context, req *model.Request) (*model.Response, error) {
	spanID := NewSpanID()
	t0 := c.TimeNow()

	if req == nil {
		req = &model.Request{}
	}
	c.emit(c.Logger.Info,
		"performStart",
		slog.String("httpMethod", string(req.Method)),
		slog.String("httpUri", req.URI),
		slog.String("spanID", spanID),
		slog.Time("t", t0),
	)
	c.emit(c.Tracer.Debug,
		"requestTrace",
		slog.Any("httpBody", req.Body),
		slog.Any("httpHeaders", redactHeaders(req.Header)),
		slog.String("httpMethod", string(req.Method)),
		slog.Any("httpParams", req.Params),
		slog.String("httpUri", req.URI),
		slog.String("spanID", spanID),
	)

	var (
		resp *model.Response
		err  error
	)
	if verr := req.Validate(); verr != nil {
		err = apierror.Wrap(apierror.KindClient, verr, "invalid request")
	} else {
		resp, err = c.classify(c.handler.Handle(ctx, req))
	}

	c.done(spanID, req, t0, resp, err)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// classify maps the outcome of the handler chain to the returned result.
func (c *Connection) classify(resp *model.Response, err error) (*model.Response, error) {
	if err != nil {
		var typed *apierror.Error
		if !errors.As(err, &typed) {
			return resp, apierror.Wrap(apierror.KindClient, err, "request failed")
		}
		if typed.Kind != apierror.KindUnexpectedValue || typed.Response == nil ||
			!isErrorStatus(typed.Response.StatusCode) {
			return resp, err
		}
		e := c.statusError(typed.Response)
		e.Err = typed.Err
		return typed.Response, e
	}

	if resp == nil {
		return nil, apierror.Wrap(apierror.KindConnection, pipeline.ErrNoStatus, "no response")
	}
	if isErrorStatus(resp.StatusCode) {
		return resp, c.statusError(resp)
	}
	return resp, nil
}

func isErrorStatus(code int) bool {
	return code >= 400
}

// statusError returns the typed error for an error status.
func (c *Connection) statusError(resp *model.Response) *apierror.Error {
	msg := errorMessage(resp)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apierror.FromResponse(apierror.KindAuthentication, resp, msg)
	case http.StatusNotFound:
		return apierror.FromResponse(apierror.KindNotFound, resp, msg)
	default:
		return apierror.FromResponse(apierror.KindAPI, resp, msg)
	}
}

// done emits performDone and responseTrace and records metrics.
func (c *Connection) done(spanID string, req *model.Request, t0 time.Time, resp *model.Response, err error) {
	t := c.TimeNow()

	var cause error
	outcome := "success"
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	var typed *apierror.Error
	if errors.As(err, &typed) {
		outcome = typed.Kind.String()
		status = typed.StatusCode
		if typed.Response != nil {
			resp = typed.Response
		}
		cause = typed.Err
	}
	if cause == nil {
		cause = err
	}

	var totalTime float64
	if resp != nil {
		totalTime = resp.TotalTime()
	}

	log := c.Logger.Info
	if err != nil {
		log = c.Logger.Warn
	}
	c.emit(log,
		"performDone",
		slog.Any("err", err),
		slog.String("errClass", c.ErrClassifier.Classify(cause)),
		slog.String("errKind", errKind(err)),
		slog.String("httpMethod", string(req.Method)),
		slog.Int("httpStatus", status),
		slog.String("httpUri", req.URI),
		slog.String("spanID", spanID),
		slog.Float64("totalTime", totalTime),
		slog.Time("t0", t0),
		slog.Time("t", t),
	)

	if resp != nil {
		c.emit(c.Tracer.Debug,
			"responseTrace",
			slog.String("httpBody", string(resp.Raw)),
			slog.Any("httpHeaders", redactHeaders(resp.Header)),
			slog.Int("httpStatus", resp.StatusCode),
			slog.String("spanID", spanID),
			slog.Any("transferStats", resp.TransferStats),
		)
	} else {
		c.emit(c.Tracer.Debug,
			"responseTrace",
			slog.Any("err", err),
			slog.String("spanID", spanID),
		)
	}

	c.Metrics.ObserveCall(string(req.Method), outcome, t.Sub(t0).Seconds())
}

func errKind(err error) string {
	if err == nil {
		return ""
	}
	kind, _ := apierror.KindOf(err)
	return kind.String()
}

// emit invokes a logging sink, swallowing any panic it raises.
func (c *Connection) emit(sink func(msg string, args ...any), msg string, args ...any) {
	defer func() {
		_ = recover()
	}()
	sink(msg, args...)
}
