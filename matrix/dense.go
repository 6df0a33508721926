// SPDX-License-Identifier: MIT

// Package matrix - Dense type and constructors.
//
// Dense is a row-major matrix of complex128 values stored in a flat slice for
// cache friendliness. Every covariance-like quantity of the separation engine
// (block covariances, basis matrices, weighted channel statistics, demixing
// matrices) is a *Dense.

package matrix

import "fmt"

// Dense is a row-major complex matrix.
// r is rows, c is columns, and data holds r*c elements in row-major order.
type Dense struct {
	r, c int          // number of rows and columns
	data []complex128 // flat backing storage, length == r*c
}

// NewDense creates an r×c Dense matrix initialised to zeros.
// Stage 1 (Validate): ensure rows and cols > 0.
// Stage 2 (Prepare): allocate flat backing slice.
// Complexity: O(r*c) time and memory.
func NewDense(rows, cols int) (*Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("NewDense(%d,%d): %w", rows, cols, ErrBadShape)
	}

	return &Dense{r: rows, c: cols, data: make([]complex128, rows*cols)}, nil
}

// NewDenseFrom copies a row-slice literal into a new Dense.
// MAIN DESCRIPTION:
//   - Build a matrix from [][]complex128 where every row has the same length.
//
// Implementation:
//   - Stage 1: validate non-empty, rectangular input.
//   - Stage 2: copy rows into the flat buffer (no aliasing with the input).
//
// Errors:
//   - ErrBadShape for empty or ragged input.
//
// Complexity:
//   - Time O(r*c), Space O(r*c).
func NewDenseFrom(rows [][]complex128) (*Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("NewDenseFrom: %w", ErrBadShape)
	}
	c := len(rows[0])
	m := &Dense{r: len(rows), c: c, data: make([]complex128, len(rows)*c)}
	for i, row := range rows {
		if len(row) != c {
			return nil, fmt.Errorf("NewDenseFrom: row %d has %d columns, want %d: %w", i, len(row), c, ErrBadShape)
		}
		copy(m.data[i*c:(i+1)*c], row)
	}

	return m, nil
}

// NewDiag returns a square matrix with diag on its main diagonal.
// Complexity: O(n^2).
func NewDiag(diag []complex128) (*Dense, error) {
	if len(diag) == 0 {
		return nil, fmt.Errorf("NewDiag: %w", ErrBadShape)
	}
	n := len(diag)
	m := Zeros(n, n)
	for i, v := range diag {
		m.data[i*n+i] = v
	}

	return m, nil
}

// Zeros allocates an r×c zero matrix.
// Unlike NewDense it panics on non-positive dimensions; it is meant for
// kernels whose operand shapes were validated upstream.
func Zeros(rows, cols int) *Dense {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Errorf("Zeros(%d,%d): %w", rows, cols, ErrBadShape))
	}

	return &Dense{r: rows, c: cols, data: make([]complex128, rows*cols)}
}

// Eye returns the n×n identity. Panics when n <= 0 (see Zeros).
func Eye(n int) *Dense {
	m := Zeros(n, n)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}

	return m
}
