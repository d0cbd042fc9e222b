package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"openapi-client-go/internal/model"
)

// RateLimitHandler delays requests so that they do not exceed a client-side
// rate. It waits on the limiter before delegating; a cancelled context while
// waiting is returned as an error without calling the inner handler.
//
// Construct using [NewRateLimitHandler].
type RateLimitHandler struct {
	inner   Handler
	limiter *rate.Limiter
}

var _ Handler = &RateLimitHandler{}

// NewRateLimitHandler returns a [*RateLimitHandler] allowing rps requests per
// second with the given burst. A burst below one is treated as one.
func NewRateLimitHandler(inner Handler, rps float64, burst int) *RateLimitHandler {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitHandler{inner: inner, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Handle implements [Handler].
func (h *RateLimitHandler) Handle(ctx context.Context, req *model.Request) (*model.Response, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return h.inner.Handle(ctx, req)
}
