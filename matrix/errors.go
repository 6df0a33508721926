// SPDX-License-Identifier: MIT
// Package matrix: sentinel error set.
// This file defines ONLY package-level sentinel errors used across the matrix
// package. Fallible routines return these sentinels (optionally wrapped with an
// operation tag) and tests check them via errors.Is. Structural kernels that
// take already-validated operands panic on shape misuse instead; see doc.go.

package matrix

import "errors"

// NOTE ON NAMING & PREFIXING
// --------------------------
// Every message is prefixed with "matrix: ..." for consistency and to allow
// easy grepping across logs. Wrap with matrixErrorf(op, ErrX) at the facade;
// callers still match with errors.Is.
//
// ERROR PRIORITY (documented, enforced in tests):
// nil -> shape/index -> NaN/Inf -> structural (Hermitian) -> numerical (singular/eigen).

var (
	// ErrBadShape is returned when a requested shape is invalid (r<=0 or c<=0),
	// or when a row-slice literal is ragged.
	ErrBadShape = errors.New("matrix: invalid shape")

	// ErrOutOfRange indicates that an index (row or column) is outside valid bounds.
	// Public indexers (At/Set) return this, they do not panic.
	ErrOutOfRange = errors.New("matrix: index out of range")

	// ErrDimensionMismatch indicates incompatible dimensions between operands,
	// e.g. Add of different shapes, or Mul where a.Cols != b.Rows.
	ErrDimensionMismatch = errors.New("matrix: dimension mismatch")

	// ErrNonSquare signals that a square matrix was required but the input wasn't.
	ErrNonSquare = errors.New("matrix: matrix is not square")

	// ErrNotHermitian signals that a matrix expected to be Hermitian violated
	// A[i,j] == conj(A[j,i]) beyond the given tolerance.
	ErrNotHermitian = errors.New("matrix: matrix is not Hermitian within tolerance")

	// ErrNaNInf signals a NaN or ±Inf component in a value where finite values
	// are required.
	ErrNaNInf = errors.New("matrix: NaN or Inf encountered")

	// ErrNilMatrix indicates that a nil *Dense (receiver or argument) was used.
	ErrNilMatrix = errors.New("matrix: nil receiver")

	// ErrEigenFailed indicates that the symmetric eigen solver did not converge.
	ErrEigenFailed = errors.New("matrix: eigen decomposition failed")

	// ErrSingular is returned when LU factorisation finds an exactly singular
	// matrix (infinite condition number). Ill-conditioned but factorable
	// matrices are inverted without error.
	ErrSingular = errors.New("matrix: singular matrix")
)
