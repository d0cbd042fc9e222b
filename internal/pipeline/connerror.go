package pipeline

import (
	"context"
	"errors"
	"fmt"

	"openapi-client-go/internal/apierror"
	"openapi-client-go/internal/model"
)

// ConnectionErrorHandler turns transport-level failures into
// [apierror.KindConnection] errors.
//
// A failure is either an error returned by the inner handler or a response
// without a status code. Errors that are already typed pass through
// unchanged, as do responses carrying any status.
//
// Construct using [NewConnectionErrorHandler].
type ConnectionErrorHandler struct {
	inner      Handler
	classifier ErrClassifier
}

var _ Handler = &ConnectionErrorHandler{}

// NewConnectionErrorHandler returns a [*ConnectionErrorHandler] wrapping inner.
//
// A nil classifier selects [DefaultErrClassifier].
func NewConnectionErrorHandler(inner Handler, classifier ErrClassifier) *ConnectionErrorHandler {
	if classifier == nil {
		classifier = DefaultErrClassifier
	}
	return &ConnectionErrorHandler{inner: inner, classifier: classifier}
}

// ErrNoStatus is the cause of connection errors raised for responses that
// carry no status code.
var ErrNoStatus = errors.New("no status code received")

// Handle implements [Handler].
func (h *ConnectionErrorHandler) Handle(ctx context.Context, req *model.Request) (*model.Response, error) {
	resp, err := h.inner.Handle(ctx, req)
	if err != nil {
		var typed *apierror.Error
		if errors.As(err, &typed) {
			return resp, err
		}
		return nil, h.wrap(req, err)
	}
	if resp == nil || resp.StatusCode == 0 {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, h.wrap(req, ErrNoStatus)
	}
	return resp, nil
}

func (h *ConnectionErrorHandler) wrap(req *model.Request, cause error) *apierror.Error {
	e := apierror.Wrap(apierror.KindConnection, cause,
		fmt.Sprintf("cannot complete %s %s", req.Method, req.URI))
	e.Class = h.classifier.Classify(cause)
	return e
}
