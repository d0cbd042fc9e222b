// Package apierror defines the typed failures returned by the client.
//
// Every failure is an [*Error] tagged with a [Kind]. Callers branch on the
// kind with [errors.Is] against the sentinels or with [KindOf]:
//
//	resp, err := conn.Perform(ctx, req)
//	switch {
//	case errors.Is(err, apierror.ErrNotFound):
//		// ...
//	case errors.Is(err, apierror.ErrConnection):
//		// ...
//	}
//
// Errors that were produced after the server answered carry the [model.Response]
// so that status, headers and the raw body remain available for diagnostics.
package apierror

import (
	"errors"
	"fmt"

	"openapi-client-go/internal/model"
)

// Kind discriminates client failures.
type Kind int

const (
	// KindClient is a local failure: invalid request, serialization error, or
	// any untyped error raised inside the pipeline.
	KindClient Kind = iota

	// KindConnection means no status was obtained from the server.
	KindConnection

	// KindUnexpectedValue means a response body could not be decoded.
	KindUnexpectedValue

	// KindAPI is any non-2xx status not covered by a more specific kind.
	KindAPI

	// KindAuthentication is a 401 or 403 status.
	KindAuthentication

	// KindNotFound is a 404 status.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindUnexpectedValue:
		return "unexpected_value"
	case KindAPI:
		return "api"
	case KindAuthentication:
		return "authentication"
	case KindNotFound:
		return "not_found"
	default:
		return "client"
	}
}

// Sentinels matched by [*Error.Is] according to the error kind.
var (
	ErrClient          = errors.New("client error")
	ErrConnection      = errors.New("connection error")
	ErrUnexpectedValue = errors.New("unexpected value")
	ErrAPI             = errors.New("api error")
	ErrAuthentication  = errors.New("authentication error")
	ErrNotFound        = errors.New("not found")
)

var sentinels = map[Kind]error{
	KindClient:          ErrClient,
	KindConnection:      ErrConnection,
	KindUnexpectedValue: ErrUnexpectedValue,
	KindAPI:             ErrAPI,
	KindAuthentication:  ErrAuthentication,
	KindNotFound:        ErrNotFound,
}

// ClientError is implemented by every error originating from the client, so
// that callers can catch all of them with a single [errors.As].
type ClientError interface {
	error
	ErrorKind() Kind
}

// Error is a typed client failure.
type Error struct {
	// Kind is the failure class.
	Kind Kind

	// Message is a human readable description.
	Message string

	// StatusCode is the HTTP status, or zero when none was obtained.
	StatusCode int

	// Response is the offending response, if any.
	Response *model.Response

	// Err is the underlying cause, if any.
	Err error

	// Class is the errclass label of Err for connection failures
	// (e.g. "ECONNREFUSED"), empty otherwise.
	Class string
}

var _ ClientError = &Error{}

// New returns an [*Error] of the given kind without a cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap returns an [*Error] of the given kind wrapping err.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// FromResponse returns an [*Error] of the given kind carrying resp.
func FromResponse(kind Kind, resp *model.Response, msg string) *Error {
	e := &Error{Kind: kind, Message: msg, Response: resp}
	if resp != nil {
		e.StatusCode = resp.StatusCode
	}
	return e
}

// Error implements error.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = sentinels[e.Kind].Error()
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// ErrorKind implements [ClientError].
func (e *Error) ErrorKind() Kind {
	return e.Kind
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// KindOf returns the kind of the first [ClientError] in err's chain.
// The second result is false when err carries no [ClientError].
func KindOf(err error) (Kind, bool) {
	var ce ClientError
	if errors.As(err, &ce) {
		return ce.ErrorKind(), true
	}
	return KindClient, false
}

// ResponseOf returns the response carried by the first [*Error] in err's chain.
func ResponseOf(err error) *model.Response {
	var e *Error
	if errors.As(err, &e) {
		return e.Response
	}
	return nil
}
