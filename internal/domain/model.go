package domain

import (
	"time"

	"github.com/google/uuid"
)

// Model is a persisted planner definition: the feature layout, the search
// parameters, the score function and how to reach the requirement predictors.
// Reference rows and sensitivity curves are stored alongside it.
type Model struct {
	ID                 uuid.UUID             `json:"id"`
	Name               string                `json:"name"`
	FeatureNames       []string              `json:"feature_names"`
	Controllable       []ControllableFeature `json:"controllable"`
	TargetConfidence   float64               `json:"target_confidence"`
	NNeighbors         int                   `json:"n_neighbors"`
	NStartingSolutions int                   `json:"n_starting_solutions"`
	Delta              float64               `json:"delta"`
	Score              LinearScore           `json:"score"`
	Predictor          PredictorSpec         `json:"predictor"`
	ReferenceCount     int                   `json:"reference_count"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// Width is the number of feature dimensions every row of this model has.
func (m *Model) Width() int {
	return len(m.FeatureNames)
}

// LinearScore is the secondary objective: bias + sum(weights[i] * x[i]).
type LinearScore struct {
	Weights []float64 `json:"weights" yaml:"weights"`
	Bias    float64   `json:"bias" yaml:"bias"`
}

func (s LinearScore) Score(v FeatureVector) float64 {
	total := s.Bias
	for i, w := range s.Weights {
		if i < len(v) {
			total += w * v[i]
		}
	}
	return total
}

// ScoreFunc maps an adaptation to the scalar being maximized.
type ScoreFunc func(FeatureVector) float64

// PredictorSpec tells the predictor factory which implementation to build.
type PredictorSpec struct {
	Provider     string                `json:"provider" yaml:"provider"`
	Endpoint     string                `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Requirements []LogisticRequirement `json:"requirements,omitempty" yaml:"requirements,omitempty"`
}

// LogisticRequirement is one requirement predictor of the form
// sigmoid(w.x + b).
type LogisticRequirement struct {
	Name    string    `json:"name,omitempty" yaml:"name,omitempty"`
	Weights []float64 `json:"weights" yaml:"weights"`
	Bias    float64   `json:"bias" yaml:"bias"`
}

// ReferenceRow is one row of the reference dataset the neighbor index and
// the sensitivity curves are built over. RowID is the curve line index.
type ReferenceRow struct {
	RowID  int       `json:"row_id"`
	Values []float64 `json:"values"`
}

// CurveSpec is the stored form of a sensitivity curve for one controllable
// feature. Position is the feature's position in Model.Controllable.
type CurveSpec struct {
	Position int         `json:"position" yaml:"position"`
	Grid     []float64   `json:"grid" yaml:"grid"`
	Lines    [][]float64 `json:"lines" yaml:"lines"`
}
