// Package knn provides an exact in-memory nearest-neighbor index over the
// reference dataset.
package knn

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Harshitk-cp/adaptplan/internal/domain"
)

var ErrRaggedRows = errors.New("reference rows have different widths")

// BruteForce scans every reference row per query. Read-only after
// construction and safe for concurrent use.
type BruteForce struct {
	rows  [][]float64
	width int
}

// NewBruteForce indexes rows; row i gets id i. Rows are copied.
func NewBruteForce(rows [][]float64) (*BruteForce, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty reference dataset", domain.ErrInvalidArgument)
	}
	width := len(rows[0])
	idx := &BruteForce{rows: make([][]float64, len(rows)), width: width}
	for i, r := range rows {
		if len(r) != width {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrRaggedRows, i, len(r), width)
		}
		idx.rows[i] = append([]float64(nil), r...)
	}
	return idx, nil
}

// FromReferenceRows indexes stored rows ordered by RowID. RowIDs must be
// exactly 0..n-1 so that curve lines line up with neighbor ids.
func FromReferenceRows(rows []domain.ReferenceRow) (*BruteForce, error) {
	ordered := make([][]float64, len(rows))
	for _, r := range rows {
		if r.RowID < 0 || r.RowID >= len(rows) || ordered[r.RowID] != nil {
			return nil, fmt.Errorf("%w: row ids must be a permutation of 0..%d", domain.ErrInvalidArgument, len(rows)-1)
		}
		ordered[r.RowID] = r.Values
	}
	return NewBruteForce(ordered)
}

func (b *BruteForce) Len() int {
	return len(b.rows)
}

// Width is the number of dimensions of every indexed row.
func (b *BruteForce) Width() int {
	return b.width
}

type neighbor struct {
	id   int
	dist float64
}

// Nearest returns the ids of the k rows closest to v by Euclidean distance,
// ties broken by ascending id.
func (b *BruteForce) Nearest(ctx context.Context, v domain.FeatureVector, k int) ([]int, error) {
	if k < 1 || k > len(b.rows) {
		return nil, fmt.Errorf("%w: k=%d with %d reference rows", domain.ErrInvalidArgument, k, len(b.rows))
	}
	if len(v) != b.width {
		return nil, fmt.Errorf("%w: query has %d values, index has %d", domain.ErrInvalidArgument, len(v), b.width)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Squared distance preserves ordering.
	all := make([]neighbor, len(b.rows))
	for i, r := range b.rows {
		var d float64
		for j, x := range r {
			diff := x - v[j]
			d += diff * diff
		}
		all[i] = neighbor{id: i, dist: d}
	}

	if k == 1 {
		best := all[0]
		for _, n := range all[1:] {
			if n.dist < best.dist {
				best = n
			}
		}
		return []int{best.id}, nil
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].dist != all[j].dist {
			return all[i].dist < all[j].dist
		}
		return all[i].id < all[j].id
	})
	out := make([]int, k)
	for i := range out {
		out[i] = all[i].id
	}
	return out, nil
}
