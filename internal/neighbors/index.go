// Package neighbors provides the exact nearest-neighbor index used for
// company similarity lookups.
package neighbors

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// Errors returned by index operations.
var (
	ErrEmptyIndex       = errors.New("neighbor index is empty")
	ErrInvalidK         = errors.New("number of neighbors must be positive")
	ErrTooManyNeighbors = errors.New("number of neighbors exceeds indexed rows")
	ErrUnknownMetric    = errors.New("unknown distance metric")
)

// DimensionMismatchError reports a vector whose length differs from the index.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Neighbor is one query hit: the row position in the indexed matrix and its
// distance from the query.
type Neighbor struct {
	Row      int     `json:"row"`
	Distance float64 `json:"distance"`
}

// Index is an exact (brute-force) k-nearest-neighbor index over a dense matrix.
// Row i of the index is row i of the matrix it was built from. An Index is
// immutable and safe for concurrent queries.
type Index struct {
	metric Metric
	dims   int
	rows   [][]float64
}

// New builds an index over rows using metric. All rows must share one length.
// The rows are used in place and must not be modified afterwards.
func New(metric Metric, rows [][]float64) (*Index, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyIndex
	}
	metric, err := ParseMetric(string(metric))
	if err != nil {
		return nil, err
	}

	dims := len(rows[0])
	if dims == 0 {
		return nil, fmt.Errorf("row 0: %w", &DimensionMismatchError{Expected: 1, Actual: 0})
	}
	for i, row := range rows {
		if len(row) != dims {
			return nil, fmt.Errorf("row %d: %w", i, &DimensionMismatchError{Expected: dims, Actual: len(row)})
		}
	}

	return &Index{metric: metric, dims: dims, rows: rows}, nil
}

// Len returns the number of indexed rows.
func (idx *Index) Len() int { return len(idx.rows) }

// Dims returns the vector length.
func (idx *Index) Dims() int { return idx.dims }

// Metric returns the distance metric.
func (idx *Index) Metric() Metric { return idx.metric }

// Row returns the indexed vector at position i. The slice must not be modified.
func (idx *Index) Row(i int) []float64 { return idx.rows[i] }

// KNeighbors returns the k rows nearest to query, ordered by increasing
// distance. Equal distances are ordered by row position so results are
// deterministic. k must be between 1 and Len().
func (idx *Index) KNeighbors(query []float64, k int) ([]Neighbor, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}
	if k > len(idx.rows) {
		return nil, fmt.Errorf("%w: requested %d, have %d", ErrTooManyNeighbors, k, len(idx.rows))
	}
	if len(query) != idx.dims {
		return nil, &DimensionMismatchError{Expected: idx.dims, Actual: len(query)}
	}

	all := make([]Neighbor, len(idx.rows))
	for i, row := range idx.rows {
		all[i] = Neighbor{Row: i, Distance: idx.metric.Distance(query, row)}
	}

	slices.SortFunc(all, func(a, b Neighbor) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Row, b.Row)
	})

	return all[:k:k], nil
}
