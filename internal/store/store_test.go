package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/Harshitk-cp/adaptplan/internal/domain"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReferences struct {
	ids   []int
	calls int
	model uuid.UUID
}

func (f *fakeReferences) Nearest(_ context.Context, modelID uuid.UUID, _ domain.FeatureVector, k int) ([]int, error) {
	f.calls++
	f.model = modelID
	if k > len(f.ids) {
		k = len(f.ids)
	}
	return f.ids[:k], nil
}

func TestReferenceIndex_Nearest(t *testing.T) {
	modelID := uuid.New()
	refs := &fakeReferences{ids: []int{4, 1, 2}}
	ix := &ReferenceIndex{store: refs, modelID: modelID, rows: 5}

	assert.Equal(t, 5, ix.Len())

	ids, err := ix.Nearest(context.Background(), domain.FeatureVector{1, 2}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 1}, ids)
	assert.Equal(t, modelID, refs.model)
}

func TestReferenceIndex_InvalidK(t *testing.T) {
	refs := &fakeReferences{ids: []int{0, 1}}
	ix := &ReferenceIndex{store: refs, modelID: uuid.New(), rows: 2}

	for _, k := range []int{0, -1, 3} {
		_, err := ix.Nearest(context.Background(), domain.FeatureVector{1}, k)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument, "k=%d", k)
	}
	assert.Zero(t, refs.calls)
}

func TestReferenceIndex_ShortAnswer(t *testing.T) {
	refs := &fakeReferences{ids: []int{0}}
	ix := &ReferenceIndex{store: refs, modelID: uuid.New(), rows: 3}

	_, err := ix.Nearest(context.Background(), domain.FeatureVector{1}, 2)
	assert.Error(t, err)
}

func TestToFloat32(t *testing.T) {
	assert.Equal(t, []float32{1.5, -2, 0}, toFloat32([]float64{1.5, -2, 0}))
}

func migrationDB(t *testing.T) *sql.DB {
	t.Helper()
	// sql.Open does not connect; loading migrations never touches the database.
	db, err := sql.Open("pgx", "postgres://localhost:1/adaptplan_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	body := []byte("-- +goose Up\nSELECT 1;\n")
	for _, name := range []string{"002_more.sql", "001_init.sql"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), body, 0o600))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes"), 0o600))

	provider, err := newMigrationProvider(migrationDB(t), dir)
	require.NoError(t, err)

	var versions []int64
	for _, src := range provider.ListSources() {
		versions = append(versions, src.Version)
	}
	assert.Equal(t, []int64{1, 2}, versions)
}

func TestMigrationFiles_MissingDir(t *testing.T) {
	_, err := newMigrationProvider(migrationDB(t), filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestMigrationFiles_RepoMigrations(t *testing.T) {
	dir := filepath.Join("..", "..", "migrations")
	provider, err := newMigrationProvider(migrationDB(t), dir)
	require.NoError(t, err)

	sources := provider.ListSources()
	require.NotEmpty(t, sources)
	assert.Equal(t, int64(1), sources[0].Version)

	schema, err := os.ReadFile(filepath.Join(dir, "001_init.sql"))
	require.NoError(t, err)
	assert.Contains(t, string(schema), "-- +goose Up")
	assert.Contains(t, string(schema), "-- +goose Down")
}
