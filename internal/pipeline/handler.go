// Package pipeline implements the request/response handler chain.
//
// # Core Abstraction
//
// The package is built around a single interface:
//
//	type Handler interface {
//		Handle(ctx context.Context, req *model.Request) (*model.Response, error)
//	}
//
// Each stage wraps exactly one inner [Handler], set once by its constructor.
// A stage may shape the request before delegating and/or shape the response
// after the inner handler returns. The innermost handler is the transport.
//
// # Available Stages
//
//   - [HostHandler]: sets the Host header and scheme, adds the URI prefix
//   - [RequestSerializationHandler]: encodes the body and query parameters
//   - [ConnectionErrorHandler]: turns transport failures into connection errors
//   - [ResponseSerializationHandler]: decodes the response payload
//   - [RateLimitHandler]: waits for a client-side rate limiter before sending
//
// A typical chain, outermost first:
//
//	ResponseSerialization -> ConnectionError -> Host -> RequestSerialization -> transport
//
// Stages hold construction-time configuration only and are safe for
// concurrent use. They never modify the request they receive: each stage
// passes a clone downward.
//
// Stages never classify HTTP status codes; that is the job of the connection.
package pipeline

import (
	"context"

	"openapi-client-go/internal/model"
)

// Handler performs a request and returns its response.
type Handler interface {
	Handle(ctx context.Context, req *model.Request) (*model.Response, error)
}

// HandlerFunc adapts a function to the [Handler] interface.
//
// Use this to create ad-hoc handlers, e.g. a stub transport in tests.
type HandlerFunc func(ctx context.Context, req *model.Request) (*model.Response, error)

var _ Handler = HandlerFunc(nil)

// Handle implements [Handler].
func (f HandlerFunc) Handle(ctx context.Context, req *model.Request) (*model.Response, error) {
	return f(ctx, req)
}
