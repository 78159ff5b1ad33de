package service

import (
	"context"
	"sync"
	"time"

	"github.com/Harshitk-cp/adaptplan/internal/domain"
	"github.com/Harshitk-cp/adaptplan/internal/knn"
	"github.com/Harshitk-cp/adaptplan/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// mockModelStore implements domain.ModelStore for testing.
type mockModelStore struct {
	mu       sync.Mutex
	models   map[uuid.UUID]*domain.Model
	getCalls int
	// onGet runs at the start of every GetByID, outside the lock.
	onGet func(ctx context.Context)
}

func newMockModelStore() *mockModelStore {
	return &mockModelStore{models: make(map[uuid.UUID]*domain.Model)}
}

func (m *mockModelStore) Create(ctx context.Context, model *domain.Model) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.models {
		if existing.Name == model.Name {
			return store.ErrConflict
		}
	}
	model.ID = uuid.New()
	model.CreatedAt = time.Now()
	model.UpdatedAt = model.CreatedAt
	m.models[model.ID] = model
	return nil
}

func (m *mockModelStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Model, error) {
	if m.onGet != nil {
		m.onGet(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	model, ok := m.models[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return model, nil
}

func (m *mockModelStore) List(ctx context.Context, limit int) ([]domain.Model, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Model
	for _, model := range m.models {
		out = append(out, *model)
	}
	return out, nil
}

func (m *mockModelStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.models[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.models, id)
	return nil
}

func (m *mockModelStore) gets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getCalls
}

// mockReferenceStore implements domain.ReferenceStore for testing.
type mockReferenceStore struct {
	mu           sync.Mutex
	rows         map[uuid.UUID][]domain.ReferenceRow
	insertErr    error
	nearestCalls int
}

func newMockReferenceStore() *mockReferenceStore {
	return &mockReferenceStore{rows: make(map[uuid.UUID][]domain.ReferenceRow)}
}

func (m *mockReferenceStore) InsertBatch(ctx context.Context, modelID uuid.UUID, rows []domain.ReferenceRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.rows[modelID] = append(m.rows[modelID], rows...)
	return nil
}

func (m *mockReferenceStore) ListByModel(ctx context.Context, modelID uuid.UUID) ([]domain.ReferenceRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[modelID], nil
}

func (m *mockReferenceStore) Nearest(ctx context.Context, modelID uuid.UUID, v domain.FeatureVector, k int) ([]int, error) {
	m.mu.Lock()
	m.nearestCalls++
	rows := m.rows[modelID]
	m.mu.Unlock()

	idx, err := knn.FromReferenceRows(rows)
	if err != nil {
		return nil, err
	}
	return idx.Nearest(ctx, v, k)
}

// mockCurveStore implements domain.CurveStore for testing.
type mockCurveStore struct {
	mu     sync.Mutex
	curves map[uuid.UUID][]domain.CurveSpec
}

func newMockCurveStore() *mockCurveStore {
	return &mockCurveStore{curves: make(map[uuid.UUID][]domain.CurveSpec)}
}

func (m *mockCurveStore) Upsert(ctx context.Context, modelID uuid.UUID, c *domain.CurveSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.curves[modelID] = append(m.curves[modelID], *c)
	return nil
}

func (m *mockCurveStore) ListByModel(ctx context.Context, modelID uuid.UUID) ([]domain.CurveSpec, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.curves[modelID], nil
}

// MockAdaptationStore mocks the AdaptationStore interface.
type MockAdaptationStore struct {
	mock.Mock
}

func (m *MockAdaptationStore) Create(ctx context.Context, a *domain.Adaptation) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAdaptationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Adaptation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Adaptation), args.Error(1)
}

func (m *MockAdaptationStore) ListByModel(ctx context.Context, modelID uuid.UUID, limit int) ([]domain.Adaptation, error) {
	args := m.Called(ctx, modelID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Adaptation), args.Error(1)
}

func (m *MockAdaptationStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// testDefinition is a two-feature model over four reference rows. Feature 0
// raises confidence, feature 1 lowers it, and the score prefers both low.
func testDefinition(name string) *ModelDefinition {
	up := [][]float64{{0, 0.5, 1}, {0, 0.5, 1}, {0, 0.5, 1}, {0, 0.5, 1}}
	down := [][]float64{{1, 0.5, 0}, {1, 0.5, 0}, {1, 0.5, 0}, {1, 0.5, 0}}
	return &ModelDefinition{
		Model: &domain.Model{
			Name:         name,
			FeatureNames: []string{"speed", "power", "wind"},
			Controllable: []domain.ControllableFeature{
				{Name: "speed", Index: 0, Min: 0, Max: 100, Direction: domain.Decrease},
				{Name: "power", Index: 1, Min: 0, Max: 100, Direction: domain.Decrease},
			},
			TargetConfidence:   0.6,
			NNeighbors:         2,
			NStartingSolutions: 3,
			Delta:              1,
			Score:              domain.LinearScore{Weights: []float64{-1, -1, 0}},
			Predictor: domain.PredictorSpec{
				Provider: "logistic",
				Requirements: []domain.LogisticRequirement{
					{Name: "speed", Weights: []float64{0.1, 0, 0}, Bias: -4},
					{Name: "power", Weights: []float64{0, -0.1, 0}, Bias: 6},
				},
			},
		},
		Reference: []domain.ReferenceRow{
			{RowID: 0, Values: []float64{0, 0, 1}},
			{RowID: 1, Values: []float64{100, 100, 1}},
			{RowID: 2, Values: []float64{0, 100, 1}},
			{RowID: 3, Values: []float64{100, 0, 1}},
		},
		Curves: []domain.CurveSpec{
			{Position: 0, Grid: []float64{0, 50, 100}, Lines: up},
			{Position: 1, Grid: []float64{0, 50, 100}, Lines: down},
		},
	}
}
