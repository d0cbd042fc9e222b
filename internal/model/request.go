// Package model defines the request and response types that travel through the handler pipeline.
package model

import (
	"errors"
	"maps"
	"net/http"
)

// Method is an HTTP request method.
type Method string

// Supported methods.
const (
	MethodGet     Method = http.MethodGet
	MethodHead    Method = http.MethodHead
	MethodPost    Method = http.MethodPost
	MethodPut     Method = http.MethodPut
	MethodPatch   Method = http.MethodPatch
	MethodDelete  Method = http.MethodDelete
	MethodOptions Method = http.MethodOptions
)

// IsWrite reports whether requests using m carry a body.
func (m Method) IsWrite() bool {
	switch m {
	case MethodPost, MethodPut, MethodPatch, MethodDelete:
		return true
	}
	return false
}

// Params holds query parameters for a request.
type Params map[string]string

// Request is a logical API call before it is shaped into a wire request.
//
// Body is nil when the call has no payload. It may be any value the configured
// serializer can encode, or already-encoded []byte / string data.
type Request struct {
	Method Method
	URI    string
	Scheme string
	Header http.Header
	Body   any
	Params Params
}

// ErrMissingMethod is returned by [Request.Validate] when no method is set.
var ErrMissingMethod = errors.New("request method is required")

// ErrMissingURI is returned by [Request.Validate] when the URI is empty.
var ErrMissingURI = errors.New("request URI is required")

// Validate checks that the request can be sent.
func (r *Request) Validate() error {
	if r.Method == "" {
		return ErrMissingMethod
	}
	if r.URI == "" {
		return ErrMissingURI
	}
	return nil
}

// Clone returns a copy of r whose header and params can be modified without
// affecting r. Body is shared.
func (r *Request) Clone() *Request {
	out := *r
	if r.Header != nil {
		out.Header = r.Header.Clone()
	} else {
		out.Header = make(http.Header)
	}
	if r.Params != nil {
		out.Params = maps.Clone(r.Params)
	}
	return &out
}
