package handlers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Harshitk-cp/adaptplan/internal/domain"
	"github.com/Harshitk-cp/adaptplan/internal/knn"
	"github.com/Harshitk-cp/adaptplan/internal/store"
	"github.com/google/uuid"
)

// memModelStore implements domain.ModelStore in memory.
type memModelStore struct {
	mu     sync.Mutex
	models map[uuid.UUID]*domain.Model
}

func (m *memModelStore) Create(ctx context.Context, model *domain.Model) error {
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

func (m *memModelStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Model, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	model, ok := m.models[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return model, nil
}

func (m *memModelStore) List(ctx context.Context, limit int) ([]domain.Model, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Model, 0, len(m.models))
	for _, model := range m.models {
		out = append(out, *model)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memModelStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.models[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.models, id)
	return nil
}

// memReferenceStore implements domain.ReferenceStore in memory.
type memReferenceStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID][]domain.ReferenceRow
}

func (m *memReferenceStore) InsertBatch(ctx context.Context, modelID uuid.UUID, rows []domain.ReferenceRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[modelID] = append(m.rows[modelID], rows...)
	return nil
}

func (m *memReferenceStore) ListByModel(ctx context.Context, modelID uuid.UUID) ([]domain.ReferenceRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[modelID], nil
}

func (m *memReferenceStore) Nearest(ctx context.Context, modelID uuid.UUID, v domain.FeatureVector, k int) ([]int, error) {
	rows, _ := m.ListByModel(ctx, modelID)
	idx, err := knn.FromReferenceRows(rows)
	if err != nil {
		return nil, err
	}
	return idx.Nearest(ctx, v, k)
}

// memCurveStore implements domain.CurveStore in memory.
type memCurveStore struct {
	mu     sync.Mutex
	curves map[uuid.UUID][]domain.CurveSpec
}

func (m *memCurveStore) Upsert(ctx context.Context, modelID uuid.UUID, c *domain.CurveSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.curves[modelID] = append(m.curves[modelID], *c)
	return nil
}

func (m *memCurveStore) ListByModel(ctx context.Context, modelID uuid.UUID) ([]domain.CurveSpec, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.curves[modelID], nil
}

// memAdaptationStore implements domain.AdaptationStore in memory.
type memAdaptationStore struct {
	mu          sync.Mutex
	adaptations []domain.Adaptation
}

func (m *memAdaptationStore) Create(ctx context.Context, a *domain.Adaptation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	m.adaptations = append(m.adaptations, *a)
	return nil
}

func (m *memAdaptationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Adaptation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.adaptations {
		if m.adaptations[i].ID == id {
			a := m.adaptations[i]
			return &a, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memAdaptationStore) ListByModel(ctx context.Context, modelID uuid.UUID, limit int) ([]domain.Adaptation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Adaptation
	for _, a := range m.adaptations {
		if a.ModelID == modelID && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAdaptationStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}
