package connection

import (
	"time"

	"openapi-client-go/internal/metrics"
	"openapi-client-go/internal/pipeline"
)

// Config holds common configuration for a [*Connection].
//
// Pass this to [New] to pre-wire dependencies.
// All fields have sensible defaults set by [NewConfig].
type Config struct {
	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewConfig] to [pipeline.DefaultErrClassifier].
	ErrClassifier pipeline.ErrClassifier

	// Metrics records call outcomes and latency.
	//
	// Set by [NewConfig] to nil, which disables metrics.
	Metrics *metrics.Metrics

	// TimeNow returns the current time.
	//
	// Set by [NewConfig] to [time.Now].
	TimeNow func() time.Time
}

// NewConfig creates a [*Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		ErrClassifier: pipeline.DefaultErrClassifier,
		Metrics:       nil,
		TimeNow:       time.Now,
	}
}
