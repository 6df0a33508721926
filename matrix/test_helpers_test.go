// SPDX-License-Identifier: MIT
// Package matrix_test contains test helpers
//
// Purpose:
//   - Provide small, deterministic fixtures (random Hermitian and general
//     matrices from a fixed seed) and tolerance-aware comparisons.

package matrix_test

import (
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/katalvlaran/ipsdta/matrix"
	"github.com/stretchr/testify/require"
)

// tol is the absolute tolerance for floating-point comparisons in this package.
const tol = 1e-9

// MustDenseFrom builds a *Dense from a row-slice literal or fails the test.
func MustDenseFrom(t testing.TB, rows [][]complex128) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDenseFrom(rows)
	require.NoError(t, err)

	return m
}

// randomGeneral fills an n×n matrix with U(-1,1) real and imaginary parts.
func randomGeneral(rng *rand.Rand, n int) *matrix.Dense {
	m := matrix.Zeros(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m.SetEntry(i, j, complex(rng.Float64()*2-1, rng.Float64()*2-1))
		}
	}

	return m
}

// randomHermitian returns an indefinite Hermitian matrix (A + Aᴴ)/2.
func randomHermitian(rng *rand.Rand, n int) *matrix.Dense {
	return matrix.Hermitize(randomGeneral(rng, n))
}

// randomPD returns a well-conditioned positive-definite matrix A·Aᴴ + n·I.
func randomPD(rng *rand.Rand, n int) *matrix.Dense {
	a := randomGeneral(rng, n)
	return matrix.AddScaledIdentity(matrix.Mul(a, matrix.ConjTranspose(a)), float64(n))
}

// requireClose asserts element-wise |a-b| ≤ eps.
func requireClose(t testing.TB, want, got *matrix.Dense, eps float64) {
	t.Helper()
	require.Equal(t, want.Rows(), got.Rows(), "rows")
	require.Equal(t, want.Cols(), got.Cols(), "cols")
	for i := 0; i < want.Rows(); i++ {
		for j := 0; j < want.Cols(); j++ {
			d := cmplx.Abs(want.Entry(i, j) - got.Entry(i, j))
			require.LessOrEqualf(t, d, eps, "entry (%d,%d): want %v got %v", i, j, want.Entry(i, j), got.Entry(i, j))
		}
	}
}

// requireExactHermitian asserts m[j,i] == conj(m[i,j]) bit-for-bit.
func requireExactHermitian(t testing.TB, m *matrix.Dense) {
	t.Helper()
	for i := 0; i < m.Rows(); i++ {
		for j := i; j < m.Cols(); j++ {
			require.Equalf(t, cmplx.Conj(m.Entry(i, j)), m.Entry(j, i), "entry (%d,%d)", j, i)
		}
	}
}
