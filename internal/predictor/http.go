package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/Harshitk-cp/adaptplan/internal/domain"
	"golang.org/x/time/rate"
)

// HTTPClient asks a remote model server for requirement confidences.
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewHTTPClient(endpoint string, opts Options) *HTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RPS <= 0 {
		opts.RPS = DefaultRPS
	}
	if opts.Burst <= 0 {
		opts.Burst = int(math.Ceil(opts.RPS))
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &HTTPClient{
		endpoint:   endpoint,
		httpClient: hc,
		limiter:    rate.NewLimiter(rate.Limit(opts.RPS), opts.Burst),
	}
}

type predictRequest struct {
	Rows []domain.FeatureVector `json:"rows"`
}

type predictResponse struct {
	Confidence []domain.ConfidenceVector `json:"confidence"`
	Error      *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *HTTPClient) Predict(ctx context.Context, batch []domain.FeatureVector) ([]domain.ConfidenceVector, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("predictor rate limit: %w", err)
	}

	body, err := json.Marshal(predictRequest{Rows: batch})
	if err != nil {
		return nil, fmt.Errorf("marshal predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: predict request failed: %v", domain.ErrPredictorFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read predict response: %v", domain.ErrPredictorFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: model server returned status %d: %s", domain.ErrPredictorFailure, resp.StatusCode, string(respBody))
	}

	var result predictResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("%w: unmarshal predict response: %v", domain.ErrPredictorFailure, err)
	}

	if result.Error != nil {
		return nil, fmt.Errorf("%w: model server error: %s", domain.ErrPredictorFailure, result.Error.Message)
	}

	if len(result.Confidence) != len(batch) {
		return nil, fmt.Errorf("%w: model server returned %d rows for %d inputs", domain.ErrPredictorFailure, len(result.Confidence), len(batch))
	}
	for i, c := range result.Confidence {
		if len(c) == 0 {
			return nil, fmt.Errorf("%w: model server returned no confidences for row %d", domain.ErrPredictorFailure, i)
		}
		for _, x := range c {
			if math.IsNaN(x) || x < 0 || x > 1 {
				return nil, fmt.Errorf("%w: model server returned confidence %v for row %d", domain.ErrPredictorFailure, x, i)
			}
		}
	}

	return result.Confidence, nil
}
