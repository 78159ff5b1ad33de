package predictor

import (
	"context"
	"sync"

	"github.com/Harshitk-cp/adaptplan/internal/domain"
)

// MockClient is a configurable predictor for testing.
// Fn scores one row; Err, when set, fails every call.
type MockClient struct {
	Fn  func(domain.FeatureVector) domain.ConfidenceVector
	Err error

	mu sync.Mutex
	// Call tracking for assertions
	Batches [][]domain.FeatureVector
}

// NewMockClient returns a mock backed by fn. A nil fn reports full confidence
// on a single requirement.
func NewMockClient(fn func(domain.FeatureVector) domain.ConfidenceVector) *MockClient {
	if fn == nil {
		fn = func(domain.FeatureVector) domain.ConfidenceVector {
			return domain.ConfidenceVector{1}
		}
	}
	return &MockClient{Fn: fn}
}

func (c *MockClient) Predict(ctx context.Context, batch []domain.FeatureVector) ([]domain.ConfidenceVector, error) {
	c.mu.Lock()
	recorded := make([]domain.FeatureVector, len(batch))
	for i, v := range batch {
		recorded[i] = v.Clone()
	}
	c.Batches = append(c.Batches, recorded)
	c.mu.Unlock()

	if c.Err != nil {
		return nil, c.Err
	}
	out := make([]domain.ConfidenceVector, len(batch))
	for i, v := range batch {
		out[i] = c.Fn(v)
	}
	return out, nil
}

// Calls returns the number of Predict calls so far.
func (c *MockClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Batches)
}
