package pipeline

import (
	"context"
	"net/url"
	"strings"

	"openapi-client-go/internal/apierror"
	"openapi-client-go/internal/model"
	"openapi-client-go/internal/serializer"
)

// RequestSerializationHandler encodes the request body and query parameters.
//
// For write methods with an object body, query parameters are merged into the
// body as top-level keys, with body keys winning on collision. In every other
// case parameters are encoded into the URI query string. After this stage the
// request body is either nil or a []byte and Params is empty.
//
// Construct using [NewRequestSerializationHandler].
type RequestSerializationHandler struct {
	inner      Handler
	serializer serializer.Serializer
}

var _ Handler = &RequestSerializationHandler{}

// NewRequestSerializationHandler returns a [*RequestSerializationHandler] wrapping inner.
func NewRequestSerializationHandler(inner Handler, s serializer.Serializer) *RequestSerializationHandler {
	return &RequestSerializationHandler{inner: inner, serializer: s}
}

// Handle implements [Handler].
func (h *RequestSerializationHandler) Handle(ctx context.Context, req *model.Request) (*model.Response, error) {
	out := req.Clone()
	body, err := h.encode(out)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindClient, err, "cannot serialize request body")
	}
	out.Body = nil
	if body != nil {
		out.Body = body
		if out.Header.Get("Content-Type") == "" {
			out.Header.Set("Content-Type", h.serializer.MediaType())
		}
	}
	return h.inner.Handle(ctx, out)
}

// encode returns the serialized body, moving the request params either into
// the body or into the URI. It returns nil when there is nothing to send.
func (h *RequestSerializationHandler) encode(req *model.Request) ([]byte, error) {
	params := req.Params
	req.Params = nil

	if req.Body == nil {
		req.URI = appendQuery(req.URI, params)
		return nil, nil
	}
	if len(params) == 0 || !req.Method.IsWrite() {
		req.URI = appendQuery(req.URI, params)
		return h.serializer.Serialize(req.Body)
	}

	obj, ok, err := h.object(req.Body)
	if err != nil {
		return nil, err
	}
	if !ok {
		req.URI = appendQuery(req.URI, params)
		return h.serializer.Serialize(req.Body)
	}
	for k, v := range params {
		if _, exists := obj[k]; !exists {
			obj[k] = v
		}
	}
	return h.serializer.Serialize(obj)
}

// object returns a fresh map holding the top-level keys of body. The second
// result is false when body does not represent an object.
func (h *RequestSerializationHandler) object(body any) (map[string]any, bool, error) {
	switch b := body.(type) {
	case map[string]any:
		obj := make(map[string]any, len(b))
		for k, v := range b {
			obj[k] = v
		}
		return obj, true, nil
	case map[string]string:
		obj := make(map[string]any, len(b))
		for k, v := range b {
			obj[k] = v
		}
		return obj, true, nil
	}
	data, err := h.serializer.Serialize(body)
	if err != nil {
		return nil, false, err
	}
	v, err := h.serializer.Deserialize(data, h.serializer.MediaType())
	if err != nil {
		return nil, false, nil
	}
	obj, ok := v.(map[string]any)
	return obj, ok, nil
}

func appendQuery(uri string, params model.Params) string {
	if len(params) == 0 {
		return uri
	}
	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, v)
	}
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	return uri + sep + values.Encode()
}
