package domain

import "errors"

var (
	// ErrInvalidArgument marks malformed planner inputs: k larger than the
	// reference dataset, empty controllable-feature sets, inverted domains,
	// rows of the wrong width.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPredictorFailure wraps failures reported by a ConfidencePredictor,
	// including batches whose shape does not match the request.
	ErrPredictorFailure = errors.New("predictor failure")
)
