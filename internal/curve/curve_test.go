package curve

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name  string
		grid  []float64
		lines [][]float64
		want  error
	}{
		{"empty grid", nil, [][]float64{{1}}, ErrEmptyGrid},
		{"no lines", []float64{0, 1}, nil, ErrNoLines},
		{"unsorted grid", []float64{0, 2, 1}, [][]float64{{0, 0, 0}}, ErrGridOrder},
		{"duplicate grid point", []float64{0, 1, 1}, [][]float64{{0, 0, 0}}, ErrGridOrder},
		{"short line", []float64{0, 1, 2}, [][]float64{{0, 0}}, ErrLineLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.grid, tt.lines)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMaximaAt(t *testing.T) {
	grid := []float64{0, 10, 20, 30, 40, 50}
	c, err := New(grid, [][]float64{
		{0.1, 0.5, 0.3, 0.3, 0.7, 0.2}, // peaks at 10 and 40
		{0.9, 0.1, 0.1, 0.1, 0.1, 0.1}, // left edge peak
		{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}, // monotone increasing
		{0.2, 0.4, 0.4, 0.4, 0.1, 0.1}, // plateau, right end reported
		{0.5, 0.5, 0.5, 0.5, 0.5, 0.5}, // flat
	})
	require.NoError(t, err)

	assert.Equal(t, []float64{10, 40}, c.MaximaAt(0))
	assert.Equal(t, []float64{0}, c.MaximaAt(1))
	assert.Equal(t, []float64{50}, c.MaximaAt(2))
	assert.Equal(t, []float64{30}, c.MaximaAt(3))
	assert.Equal(t, []float64{50}, c.MaximaAt(4))
	assert.Nil(t, c.MaximaAt(5))
	assert.Nil(t, c.MaximaAt(-1))
}

func TestMaxOrdinateAt(t *testing.T) {
	c, err := New([]float64{0, 1, 2}, [][]float64{
		{0.1, 0.8, 0.3},
		{0.6, 0.2, 0.4},
	})
	require.NoError(t, err)

	assert.Equal(t, 0.8, c.MaxOrdinateAt(0))
	assert.Equal(t, 0.6, c.MaxOrdinateAt(1))
	assert.Equal(t, 2, c.Rows())
}

func TestSlopeAt(t *testing.T) {
	c, err := New([]float64{0, 10, 20}, [][]float64{{0, 1, 0.5}})
	require.NoError(t, err)

	tests := []struct {
		x    float64
		want float64
	}{
		{-5, 0.1},  // before grid, first segment
		{0, 0.1},   // on first point
		{5, 0.1},   // inside first segment
		{10, -0.05}, // interior point starts the right segment
		{15, -0.05},
		{20, -0.05}, // last point, last segment
		{99, -0.05},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, c.SlopeAt(tt.x, 0), 1e-12, "x=%v", tt.x)
	}
	assert.Equal(t, 0.0, c.SlopeAt(5, 3), "out of range row")

	single, err := New([]float64{5}, [][]float64{{0.4}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, single.SlopeAt(5, 0))
}

func TestMaxPointAveragesRows(t *testing.T) {
	c, err := New([]float64{0, 1, 2}, [][]float64{
		{0.0, 0.4, 1.0},
		{0.2, 0.8, 0.0},
	})
	require.NoError(t, err)

	x, y := c.MaxPoint()
	assert.Equal(t, 1.0, x)
	assert.InDelta(t, 0.6, y, 1e-12)
}

func TestNewCopiesInputs(t *testing.T) {
	grid := []float64{0, 1}
	lines := [][]float64{{0.1, 0.2}}
	c, err := New(grid, lines)
	require.NoError(t, err)

	grid[1] = 100
	lines[0][1] = 100
	assert.Equal(t, []float64{0, 1}, c.Grid())
	assert.Equal(t, []float64{0.1, 0.2}, c.Line(0))
}

func TestMultiply(t *testing.T) {
	grid := []float64{0, 1, 2}
	a, err := New(grid, [][]float64{{0.5, 1.0, 0.5}, {1, 1, 1}})
	require.NoError(t, err)
	b, err := New(grid, [][]float64{{0.5, 0.2, 1.0}, {0.1, 0.2, 0.3}})
	require.NoError(t, err)

	m, err := Multiply(a, b)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.25, 0.2, 0.5}, m.Line(0), 1e-12)
	assert.InDeltaSlice(t, []float64{0.1, 0.2, 0.3}, m.Line(1), 1e-12)
	assert.Equal(t, []float64{0, 2}, m.MaximaAt(0))

	other, err := New([]float64{0, 1, 3}, [][]float64{{0, 0, 0}, {0, 0, 0}})
	require.NoError(t, err)
	_, err = Multiply(a, other)
	assert.ErrorIs(t, err, ErrGridMismatch)

	fewer, err := New(grid, [][]float64{{0, 0, 0}})
	require.NoError(t, err)
	_, err = Multiply(a, fewer)
	assert.ErrorIs(t, err, ErrRowsMismatch)

	_, err = Multiply()
	assert.ErrorIs(t, err, ErrNothingToJoin)
}
