package predictor

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Harshitk-cp/adaptplan/internal/domain"
)

var ErrNoRequirements = errors.New("logistic predictor needs at least one requirement")

// Logistic scores each requirement as sigmoid(w.x + b). It holds no mutable
// state and is safe for concurrent use.
type Logistic struct {
	requirements []domain.LogisticRequirement
}

func NewLogistic(reqs []domain.LogisticRequirement) (*Logistic, error) {
	if len(reqs) == 0 {
		return nil, ErrNoRequirements
	}
	out := make([]domain.LogisticRequirement, len(reqs))
	for i, r := range reqs {
		if len(r.Weights) == 0 {
			return nil, fmt.Errorf("requirement %d (%s) has no weights", i, r.Name)
		}
		out[i] = domain.LogisticRequirement{
			Name:    r.Name,
			Weights: append([]float64(nil), r.Weights...),
			Bias:    r.Bias,
		}
	}
	return &Logistic{requirements: out}, nil
}

// Requirements is the number of confidences produced per row.
func (l *Logistic) Requirements() int {
	return len(l.requirements)
}

func (l *Logistic) Predict(ctx context.Context, batch []domain.FeatureVector) ([]domain.ConfidenceVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.ConfidenceVector, len(batch))
	for i, row := range batch {
		c := make(domain.ConfidenceVector, len(l.requirements))
		for j, r := range l.requirements {
			if len(row) != len(r.Weights) {
				return nil, fmt.Errorf("%w: row %d has %d features, requirement %d expects %d",
					domain.ErrPredictorFailure, i, len(row), j, len(r.Weights))
			}
			z := r.Bias
			for k, w := range r.Weights {
				z += w * row[k]
			}
			c[j] = Sigmoid(z)
		}
		out[i] = c
	}
	return out, nil
}

func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
