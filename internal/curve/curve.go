// Package curve implements sensitivity curves: for one controllable feature,
// a piecewise-linear line per reference row describing how the combined
// requirement confidence responds to that feature's value.
package curve

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Harshitk-cp/adaptplan/internal/domain"
)

var (
	ErrEmptyGrid     = errors.New("curve grid is empty")
	ErrGridOrder     = errors.New("curve grid must be strictly ascending")
	ErrLineLength    = errors.New("curve line length does not match grid")
	ErrNoLines       = errors.New("curve has no lines")
	ErrGridMismatch  = errors.New("curves do not share a grid")
	ErrRowsMismatch  = errors.New("curves do not cover the same rows")
	ErrNothingToJoin = errors.New("no curves to multiply")
)

// Curve is immutable after New; all derived values are precomputed.
type Curve struct {
	grid   []float64
	lines  [][]float64
	maxima [][]float64
	maxY   []float64
	peakX  float64
	peakY  float64
}

// New builds a curve over grid with one line per reference row. Inputs are
// copied.
func New(grid []float64, lines [][]float64) (*Curve, error) {
	if len(grid) == 0 {
		return nil, ErrEmptyGrid
	}
	if len(lines) == 0 {
		return nil, ErrNoLines
	}
	for i := 1; i < len(grid); i++ {
		if grid[i] <= grid[i-1] {
			return nil, fmt.Errorf("%w: grid[%d]=%v after %v", ErrGridOrder, i, grid[i], grid[i-1])
		}
	}

	c := &Curve{
		grid:   append([]float64(nil), grid...),
		lines:  make([][]float64, len(lines)),
		maxima: make([][]float64, len(lines)),
		maxY:   make([]float64, len(lines)),
	}
	avg := make([]float64, len(grid))
	for r, line := range lines {
		if len(line) != len(grid) {
			return nil, fmt.Errorf("%w: row %d has %d points, grid has %d", ErrLineLength, r, len(line), len(grid))
		}
		c.lines[r] = append([]float64(nil), line...)
		c.maxima[r] = localMaxima(c.grid, c.lines[r])
		c.maxY[r] = c.lines[r][argmax(c.lines[r])]
		for i, y := range line {
			avg[i] += y
		}
	}
	for i := range avg {
		avg[i] /= float64(len(lines))
	}
	peak := argmax(avg)
	c.peakX, c.peakY = c.grid[peak], avg[peak]

	return c, nil
}

// FromSpec builds a curve from its stored form.
func FromSpec(spec domain.CurveSpec) (*Curve, error) {
	return New(spec.Grid, spec.Lines)
}

// Rows is the number of reference rows the curve has a line for.
func (c *Curve) Rows() int {
	return len(c.lines)
}

// Grid returns a copy of the x grid.
func (c *Curve) Grid() []float64 {
	return append([]float64(nil), c.grid...)
}

// Line returns a copy of row's line, or nil when row is out of range.
func (c *Curve) Line(row int) []float64 {
	if row < 0 || row >= len(c.lines) {
		return nil
	}
	return append([]float64(nil), c.lines[row]...)
}

// SlopeAt returns the slope of row's line on the grid segment containing x.
// Values outside the grid use the first or last segment.
func (c *Curve) SlopeAt(x float64, row int) float64 {
	if row < 0 || row >= len(c.lines) || len(c.grid) < 2 {
		return 0
	}
	i := sort.SearchFloat64s(c.grid, x)
	// SearchFloat64s returns the first grid point >= x; step back to the
	// segment start unless x sits exactly on a grid point.
	if i == len(c.grid) || c.grid[i] != x {
		i--
	}
	if i < 0 {
		i = 0
	}
	if i > len(c.grid)-2 {
		i = len(c.grid) - 2
	}
	y := c.lines[row]
	return (y[i+1] - y[i]) / (c.grid[i+1] - c.grid[i])
}

// MaximaAt returns the x positions of row's local maxima in ascending order.
// The result is never empty for a valid row and must not be modified.
func (c *Curve) MaximaAt(row int) []float64 {
	if row < 0 || row >= len(c.maxima) {
		return nil
	}
	return c.maxima[row]
}

// MaxOrdinateAt returns the highest value on row's line.
func (c *Curve) MaxOrdinateAt(row int) float64 {
	if row < 0 || row >= len(c.maxY) {
		return 0
	}
	return c.maxY[row]
}

// MaxPoint returns the location and value of the maximum of the line
// averaged over every reference row.
func (c *Curve) MaxPoint() (x, y float64) {
	return c.peakX, c.peakY
}

// Multiply combines per-requirement curves of one feature into a summary
// curve by point-wise product. All curves must share grid and rows.
func Multiply(curves ...*Curve) (*Curve, error) {
	if len(curves) == 0 {
		return nil, ErrNothingToJoin
	}
	first := curves[0]
	lines := make([][]float64, len(first.lines))
	for r := range lines {
		lines[r] = make([]float64, len(first.grid))
		for i := range lines[r] {
			lines[r][i] = 1
		}
	}
	for n, c := range curves {
		if len(c.grid) != len(first.grid) {
			return nil, fmt.Errorf("%w: curve %d", ErrGridMismatch, n)
		}
		for i := range c.grid {
			if c.grid[i] != first.grid[i] {
				return nil, fmt.Errorf("%w: curve %d differs at %d", ErrGridMismatch, n, i)
			}
		}
		if len(c.lines) != len(first.lines) {
			return nil, fmt.Errorf("%w: curve %d has %d rows, want %d", ErrRowsMismatch, n, len(c.lines), len(first.lines))
		}
		for r, line := range c.lines {
			for i, y := range line {
				lines[r][i] *= y
			}
		}
	}
	return New(first.grid, lines)
}

// localMaxima reports one point per peak: the right end of every run of
// equal values whose neighbours on both sides (where present) are lower. The
// run holding the global maximum always qualifies, so the result is never
// empty.
func localMaxima(grid, y []float64) []float64 {
	var out []float64
	last := len(y) - 1
	for s := 0; s <= last; {
		e := s
		for e < last && y[e+1] == y[s] {
			e++
		}
		left := s == 0 || y[s-1] < y[s]
		right := e == last || y[e+1] < y[e]
		if left && right {
			out = append(out, grid[e])
		}
		s = e + 1
	}
	return out
}

func argmax(y []float64) int {
	best := 0
	for i := 1; i < len(y); i++ {
		if y[i] > y[best] {
			best = i
		}
	}
	return best
}
