package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NeighborIndex answers nearest-row queries over the reference dataset.
// Results are ordered by Euclidean distance over every dimension, ties by
// ascending row id.
type NeighborIndex interface {
	Nearest(ctx context.Context, v FeatureVector, k int) ([]int, error)
	Len() int
}

// SensitivityCurve summarizes how the combined requirement confidence
// responds to one controllable feature, with one line per reference row.
// Implementations are immutable.
type SensitivityCurve interface {
	SlopeAt(x float64, row int) float64
	MaximaAt(row int) []float64
	MaxOrdinateAt(row int) float64
	MaxPoint() (x, y float64)
	Rows() int
}

// ConfidencePredictor maps a batch of rows to one ConfidenceVector per row.
// Implementations must be safe for concurrent use.
type ConfidencePredictor interface {
	Predict(ctx context.Context, batch []FeatureVector) ([]ConfidenceVector, error)
}

type ModelStore interface {
	Create(ctx context.Context, m *Model) error
	GetByID(ctx context.Context, id uuid.UUID) (*Model, error)
	List(ctx context.Context, limit int) ([]Model, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ReferenceStore interface {
	InsertBatch(ctx context.Context, modelID uuid.UUID, rows []ReferenceRow) error
	ListByModel(ctx context.Context, modelID uuid.UUID) ([]ReferenceRow, error)
	Nearest(ctx context.Context, modelID uuid.UUID, v FeatureVector, k int) ([]int, error)
}

type CurveStore interface {
	Upsert(ctx context.Context, modelID uuid.UUID, c *CurveSpec) error
	ListByModel(ctx context.Context, modelID uuid.UUID) ([]CurveSpec, error)
}

type AdaptationStore interface {
	Create(ctx context.Context, a *Adaptation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Adaptation, error)
	ListByModel(ctx context.Context, modelID uuid.UUID, limit int) ([]Adaptation, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
