// SPDX-License-Identifier: MIT
// Package matrix - structural kernels over *Dense: product, sum, difference,
// scaling, conjugate transpose, trace, Hermitian part, outer products and
// quadratic forms.
//
// Purpose:
//   - Provide allocation-explicit kernels used by the block-covariance updates.
//   - Define operation tags and shared helpers for determinism and error reporting.
//
// Notes:
//   - Operands reaching these kernels were shaped by the caller; a mismatch is a
//     programmer error and panics with a wrapped ErrDimensionMismatch, the same
//     contract gonum/mat uses for its structural methods.
//   - Numerical routines that can fail on valid shapes (inverse, solve, eigen)
//     live in impl_spectral.go and return errors.

package matrix

import (
	"fmt"
	"math/cmplx"
)

// Operation name constants for unified error wrapping and reducing magic strings.
const (
	opAdd       = "Add"
	opSub       = "Sub"
	opMul       = "Mul"
	opMulVec    = "MulVec"
	opQuad      = "Quad"
	opOuter     = "Outer"
	opTrace     = "Trace"
	opHermitize = "Hermitize"
	opAxpy      = "AddScaled"
	opEigen     = "Eigen"
	opInverse   = "Inverse"
	opSolve     = "Solve"
	opLogDet    = "LogAbsDet"
	opProject   = "ProjectPSD"
	opSpectral  = "SpectralMap"
)

// matrixErrorf wraps err with an operation tag, preserving the original error via %w.
// Use only when err != nil to avoid creating a non-nil wrapper around a nil cause.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// mustSameShape panics unless a and b have identical shapes.
func mustSameShape(tag string, a, b *Dense) {
	if a.r != b.r || a.c != b.c {
		panic(matrixErrorf(tag, fmt.Errorf("%dx%d vs %dx%d: %w", a.r, a.c, b.r, b.c, ErrDimensionMismatch)))
	}
}

// mustSquare panics unless a is square.
func mustSquare(tag string, a *Dense) {
	if a.r != a.c {
		panic(matrixErrorf(tag, fmt.Errorf("%dx%d: %w", a.r, a.c, ErrNonSquare)))
	}
}

// Mul returns the product a·b.
// Implementation:
//   - Stage 1: check a.Cols == b.Rows.
//   - Stage 2: i-k-j loop order over the flat buffers (row-major friendly).
//
// Complexity: O(r*k*c).
func Mul(a, b *Dense) *Dense {
	if a.c != b.r {
		panic(matrixErrorf(opMul, fmt.Errorf("%dx%d · %dx%d: %w", a.r, a.c, b.r, b.c, ErrDimensionMismatch)))
	}
	out := Zeros(a.r, b.c)
	var (
		i, k, j int
		aik     complex128
		rowOut  []complex128
		rowB    []complex128
	)
	for i = 0; i < a.r; i++ {
		rowOut = out.data[i*b.c : (i+1)*b.c]
		for k = 0; k < a.c; k++ {
			aik = a.data[i*a.c+k]
			if aik == 0 {
				continue
			}
			rowB = b.data[k*b.c : (k+1)*b.c]
			for j = 0; j < b.c; j++ {
				rowOut[j] += aik * rowB[j]
			}
		}
	}

	return out
}

// MulChain multiplies the operands left to right: ms[0]·ms[1]·…·ms[n-1].
// Panics on an empty chain.
func MulChain(ms ...*Dense) *Dense {
	if len(ms) == 0 {
		panic(matrixErrorf(opMul, ErrBadShape))
	}
	out := ms[0]
	for _, m := range ms[1:] {
		out = Mul(out, m)
	}
	if len(ms) == 1 {
		out = out.Clone()
	}

	return out
}

// Add returns a + b.
// Complexity: O(r*c).
func Add(a, b *Dense) *Dense {
	mustSameShape(opAdd, a, b)
	out := Zeros(a.r, a.c)
	for i := range a.data {
		out.data[i] = a.data[i] + b.data[i]
	}

	return out
}

// Sub returns a − b.
// Complexity: O(r*c).
func Sub(a, b *Dense) *Dense {
	mustSameShape(opSub, a, b)
	out := Zeros(a.r, a.c)
	for i := range a.data {
		out.data[i] = a.data[i] - b.data[i]
	}

	return out
}

// Scale returns s·a.
// Complexity: O(r*c).
func Scale(a *Dense, s complex128) *Dense {
	out := Zeros(a.r, a.c)
	for i, v := range a.data {
		out.data[i] = s * v
	}

	return out
}

// AddScaled performs m += alpha·b in place (axpy).
// Complexity: O(r*c).
func (m *Dense) AddScaled(alpha complex128, b *Dense) {
	mustSameShape(opAxpy, m, b)
	for i, v := range b.data {
		m.data[i] += alpha * v
	}
}

// ScaleInPlace performs m *= s.
func (m *Dense) ScaleInPlace(s complex128) {
	for i := range m.data {
		m.data[i] *= s
	}
}

// AddScaledIdentity returns a + s·I for square a.
// Used for diagonal loading (R + eps·I) before inversion.
func AddScaledIdentity(a *Dense, s float64) *Dense {
	mustSquare(opAdd, a)
	out := a.Clone()
	for i := 0; i < a.r; i++ {
		out.data[i*a.c+i] += complex(s, 0)
	}

	return out
}

// ConjTranspose returns aᴴ.
// Complexity: O(r*c).
func ConjTranspose(a *Dense) *Dense {
	out := Zeros(a.c, a.r)
	for i := 0; i < a.r; i++ {
		for j := 0; j < a.c; j++ {
			out.data[j*a.r+i] = cmplx.Conj(a.data[i*a.c+j])
		}
	}

	return out
}

// Conj returns the element-wise complex conjugate of a.
func Conj(a *Dense) *Dense {
	out := Zeros(a.r, a.c)
	for i, v := range a.data {
		out.data[i] = cmplx.Conj(v)
	}

	return out
}

// Trace returns Σ_i a[i,i] for square a.
func Trace(a *Dense) complex128 {
	mustSquare(opTrace, a)
	var s complex128
	for i := 0; i < a.r; i++ {
		s += a.data[i*a.c+i]
	}

	return s
}

// TraceMul returns trace(a·b) without forming the product.
// Complexity: O(n^2) for n×n operands.
func TraceMul(a, b *Dense) complex128 {
	if a.c != b.r || a.r != b.c {
		panic(matrixErrorf(opTrace, fmt.Errorf("%dx%d · %dx%d: %w", a.r, a.c, b.r, b.c, ErrDimensionMismatch)))
	}
	var s complex128
	for i := 0; i < a.r; i++ {
		for k := 0; k < a.c; k++ {
			s += a.data[i*a.c+k] * b.data[k*b.c+i]
		}
	}

	return s
}

// Hermitize returns the Hermitian part (a + aᴴ)/2.
// The diagonal of the result is exactly real and out[j,i] == conj(out[i,j])
// holds bit-for-bit.
func Hermitize(a *Dense) *Dense {
	mustSquare(opHermitize, a)
	n := a.r
	out := Zeros(n, n)
	var (
		i, j int
		v    complex128
	)
	for i = 0; i < n; i++ {
		out.data[i*n+i] = complex(real(a.data[i*n+i]), 0)
		for j = i + 1; j < n; j++ {
			v = (a.data[i*n+j] + cmplx.Conj(a.data[j*n+i])) / 2
			out.data[i*n+j] = v
			out.data[j*n+i] = cmplx.Conj(v)
		}
	}

	return out
}

// MulVec returns a·x.
// Complexity: O(r*c).
func MulVec(a *Dense, x []complex128) []complex128 {
	if len(x) != a.c {
		panic(matrixErrorf(opMulVec, fmt.Errorf("%dx%d · %d: %w", a.r, a.c, len(x), ErrDimensionMismatch)))
	}
	out := make([]complex128, a.r)
	for i := 0; i < a.r; i++ {
		row := a.data[i*a.c : (i+1)*a.c]
		var s complex128
		for j, v := range row {
			s += v * x[j]
		}
		out[i] = s
	}

	return out
}

// Outer returns x·yᴴ.
// Complexity: O(len(x)*len(y)).
func Outer(x, y []complex128) *Dense {
	if len(x) == 0 || len(y) == 0 {
		panic(matrixErrorf(opOuter, ErrBadShape))
	}
	out := Zeros(len(x), len(y))
	for i, xi := range x {
		for j, yj := range y {
			out.data[i*len(y)+j] = xi * cmplx.Conj(yj)
		}
	}

	return out
}

// Quad returns the sesquilinear form xᴴ·a·y.
// Complexity: O(r*c).
func Quad(x []complex128, a *Dense, y []complex128) complex128 {
	if len(x) != a.r || len(y) != a.c {
		panic(matrixErrorf(opQuad, fmt.Errorf("%d · %dx%d · %d: %w", len(x), a.r, a.c, len(y), ErrDimensionMismatch)))
	}
	var s complex128
	for i := 0; i < a.r; i++ {
		row := a.data[i*a.c : (i+1)*a.c]
		var ri complex128
		for j, v := range row {
			ri += v * y[j]
		}
		s += cmplx.Conj(x[i]) * ri
	}

	return s
}

// Dot returns xᴴ·y.
func Dot(x, y []complex128) complex128 {
	if len(x) != len(y) {
		panic(matrixErrorf(opQuad, fmt.Errorf("%d vs %d: %w", len(x), len(y), ErrDimensionMismatch)))
	}
	var s complex128
	for i := range x {
		s += cmplx.Conj(x[i]) * y[i]
	}

	return s
}
