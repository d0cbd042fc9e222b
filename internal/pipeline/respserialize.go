package pipeline

import (
	"context"
	"fmt"
	"io"

	"openapi-client-go/internal/apierror"
	"openapi-client-go/internal/model"
	"openapi-client-go/internal/serializer"
)

// ResponseSerializationHandler reads the response payload and decodes it.
//
// The raw payload is kept in [model.Response.Raw] and the decoded value is
// stored in [model.Response.Data]. An absent or empty payload leaves Data nil.
//
// A payload that cannot be decoded yields an [apierror.KindUnexpectedValue]
// error that carries the response, so the caller can still inspect the status.
//
// Construct using [NewResponseSerializationHandler].
type ResponseSerializationHandler struct {
	inner      Handler
	serializer serializer.Serializer
}

var _ Handler = &ResponseSerializationHandler{}

// NewResponseSerializationHandler returns a [*ResponseSerializationHandler] wrapping inner.
func NewResponseSerializationHandler(inner Handler, s serializer.Serializer) *ResponseSerializationHandler {
	return &ResponseSerializationHandler{inner: inner, serializer: s}
}

// Handle implements [Handler].
func (h *ResponseSerializationHandler) Handle(ctx context.Context, req *model.Request) (*model.Response, error) {
	resp, err := h.inner.Handle(ctx, req)
	if err != nil || resp == nil || resp.Body == nil {
		return resp, err
	}

	raw, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	resp.Body = nil
	resp.Raw = raw
	if err != nil {
		return nil, apierror.Wrap(apierror.KindConnection, err,
			fmt.Sprintf("reading response body of %s %s", req.Method, req.URI))
	}
	if len(raw) == 0 {
		return resp, nil
	}

	contentType := resp.ContentType()
	data, err := h.serializer.Deserialize(raw, contentType)
	if err != nil {
		e := apierror.FromResponse(apierror.KindUnexpectedValue, resp,
			fmt.Sprintf("cannot decode %d bytes of %q payload", len(raw), contentType))
		e.Err = err
		return resp, e
	}
	resp.Data = data
	return resp, nil
}
