// SPDX-License-Identifier: MIT
// Package matrix - validators.
//
// Purpose:
//   - Centralise shape and numeric checks so every fallible routine reports the
//     same sentinels in the same priority order.
//
// Contract:
//   - Validators never mutate their input.
//   - Errors are wrapped with the validator name ("ValidateX: %w").

package matrix

import (
	"fmt"
	"math"
	"math/cmplx"
)

// validatorErrorf wraps err with the validator name.
func validatorErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// ValidateNotNil ensures m is non-nil.
// Errors: ErrNilMatrix.
// Complexity: O(1).
func ValidateNotNil(m *Dense) error {
	if m == nil {
		return validatorErrorf("ValidateNotNil", ErrNilMatrix)
	}

	return nil
}

// ValidateSquare ensures Rows() == Cols().
// Errors: ErrNilMatrix, ErrNonSquare.
// Complexity: O(1).
func ValidateSquare(m *Dense) error {
	if m == nil {
		return validatorErrorf("ValidateSquare", ErrNilMatrix)
	}
	if m.r != m.c {
		return validatorErrorf("ValidateSquare", ErrNonSquare)
	}

	return nil
}

// ValidateSquareNonNil – Composite: NotNil → Square.
//
// Errors: ErrNilMatrix, ErrNonSquare.
// Complexity: O(1).
func ValidateSquareNonNil(m *Dense) error {
	if err := ValidateNotNil(m); err != nil {
		return validatorErrorf("ValidateSquareNonNil", err)
	}
	if err := ValidateSquare(m); err != nil {
		return validatorErrorf("ValidateSquareNonNil", err)
	}

	return nil
}

// ValidateSameShape ensures a and b are non-nil with identical shapes.
// Errors: ErrNilMatrix, ErrDimensionMismatch.
func ValidateSameShape(a, b *Dense) error {
	if a == nil || b == nil {
		return validatorErrorf("ValidateSameShape", ErrNilMatrix)
	}
	if a.r != b.r || a.c != b.c {
		return validatorErrorf("ValidateSameShape", ErrDimensionMismatch)
	}

	return nil
}

// ValidateShape ensures m is non-nil and exactly rows×cols.
// Errors: ErrNilMatrix, ErrDimensionMismatch.
func ValidateShape(m *Dense, rows, cols int) error {
	if m == nil {
		return validatorErrorf("ValidateShape", ErrNilMatrix)
	}
	if m.r != rows || m.c != cols {
		return validatorErrorf("ValidateShape", fmt.Errorf("got %dx%d, want %dx%d: %w", m.r, m.c, rows, cols, ErrDimensionMismatch))
	}

	return nil
}

// ValidateVecLen ensures len(v) == n.
// Errors: ErrDimensionMismatch.
func ValidateVecLen(v []complex128, n int) error {
	if len(v) != n {
		return validatorErrorf("ValidateVecLen", ErrDimensionMismatch)
	}

	return nil
}

// ValidateFinite ensures every entry has finite real and imaginary parts.
// Errors: ErrNilMatrix, ErrNaNInf.
// Complexity: O(r*c).
func ValidateFinite(m *Dense) error {
	if m == nil {
		return validatorErrorf("ValidateFinite", ErrNilMatrix)
	}
	if !m.IsFinite() {
		return validatorErrorf("ValidateFinite", ErrNaNInf)
	}

	return nil
}

// ValidateHermitian checks |A[i,j] − conj(A[j,i])| ≤ tol for all i ≤ j
// (the diagonal must be real within tol).
//
// Inputs: square m, tolerance tol ≥ 0 (a negative tol is flipped to |tol|).
// Errors: ErrNilMatrix, ErrNonSquare, ErrNaNInf on a non-finite tol, ErrNotHermitian.
// Complexity: O(n^2). Space: O(1).
func ValidateHermitian(m *Dense, tol float64) error {
	if err := ValidateSquareNonNil(m); err != nil {
		return validatorErrorf("ValidateHermitian", err)
	}
	if math.IsNaN(tol) || math.IsInf(tol, 0) {
		return validatorErrorf("ValidateHermitian", ErrNaNInf)
	}
	tol = math.Abs(tol)

	n := m.r
	var (
		i, j int
		diff float64
	)
	for i = 0; i < n; i++ {
		for j = i; j < n; j++ {
			diff = cmplx.Abs(m.data[i*n+j] - cmplx.Conj(m.data[j*n+i]))
			if diff > tol {
				return validatorErrorf("ValidateHermitian", ErrNotHermitian)
			}
		}
	}

	return nil
}
