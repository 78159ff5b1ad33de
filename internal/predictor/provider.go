// Package predictor provides domain.ConfidencePredictor implementations: an
// in-process logistic model per requirement, a client for a remote model
// server, and a mock for tests.
package predictor

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Harshitk-cp/adaptplan/internal/domain"
)

// Provider constants
const (
	ProviderLogistic = "logistic"
	ProviderHTTP     = "http"
	ProviderMock     = "mock"
)

const (
	DefaultTimeout = 10 * time.Second
	DefaultRPS     = 50
)

// Options tune the remote client. Zero values fall back to defaults.
type Options struct {
	Timeout    time.Duration
	RPS        float64
	Burst      int
	HTTPClient *http.Client
}

// NewClient creates a predictor from a model's predictor spec.
// Returns an error if the provider is unknown or its settings are incomplete.
func NewClient(spec domain.PredictorSpec, opts Options) (domain.ConfidencePredictor, error) {
	switch spec.Provider {
	case ProviderLogistic:
		return NewLogistic(spec.Requirements)

	case ProviderHTTP:
		if spec.Endpoint == "" {
			return nil, fmt.Errorf("endpoint is required for http predictor")
		}
		return NewHTTPClient(spec.Endpoint, opts), nil

	case ProviderMock:
		return NewMockClient(nil), nil

	default:
		return nil, fmt.Errorf("unknown predictor provider: %q (valid options: logistic, http, mock)", spec.Provider)
	}
}
