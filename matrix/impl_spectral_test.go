// SPDX-License-Identifier: MIT
// Package matrix_test contains unit tests for the gonum-backed routines.
package matrix_test

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/katalvlaran/ipsdta/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEigenvaluesHermitian_Known(t *testing.T) {
	t.Parallel()

	// [[2, i], [−i, 2]] has eigenvalues 1 and 3.
	h := MustDenseFrom(t, [][]complex128{{2, 1i}, {-1i, 2}})
	vals, err := matrix.EigenvaluesHermitian(h)
	require.NoError(t, err)
	require.Len(t, vals, 2)
	assert.InDelta(t, 1, vals[0], tol)
	assert.InDelta(t, 3, vals[1], tol)
}

func TestEigenvaluesHermitian_Errors(t *testing.T) {
	t.Parallel()

	_, err := matrix.EigenvaluesHermitian(nil)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)
	_, err = matrix.EigenvaluesHermitian(matrix.Zeros(2, 3))
	require.ErrorIs(t, err, matrix.ErrNonSquare)
}

func TestProjectPSD_ClipsNegativeEigenvalues(t *testing.T) {
	t.Parallel()

	h := MustDenseFrom(t, [][]complex128{{3, 0}, {0, -1}})
	p, err := matrix.ProjectPSD(h, 0)
	require.NoError(t, err)
	requireClose(t, MustDenseFrom(t, [][]complex128{{3, 0}, {0, 0}}), p, tol)

	p, err = matrix.ProjectPSD(h, 0.5)
	require.NoError(t, err)
	requireClose(t, MustDenseFrom(t, [][]complex128{{3, 0}, {0, 0.5}}), p, tol)
}

// TestProjectPSD_Properties checks the projector contract on random
// indefinite Hermitian inputs: Hermitian output, eigenvalues ≥ floor,
// idempotence.
func TestProjectPSD_Properties(t *testing.T) {
	t.Parallel()

	const floor = 1e-12
	rng := rand.New(rand.NewSource(2024))
	for _, n := range []int{1, 2, 3, 5, 8} {
		n := n
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			h := randomHermitian(rng, n)
			p, err := matrix.ProjectPSD(h, floor)
			require.NoError(t, err)
			requireExactHermitian(t, p)

			vals, err := matrix.EigenvaluesHermitian(p)
			require.NoError(t, err)
			for _, v := range vals {
				assert.GreaterOrEqual(t, v, floor-tol)
			}

			pp, err := matrix.ProjectPSD(p, floor)
			require.NoError(t, err)
			requireClose(t, p, pp, tol)
		})
	}
}

func TestProjectPSD_KeepsPositiveDefinite(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(9))
	h := randomPD(rng, 4)
	p, err := matrix.ProjectPSD(h, 0)
	require.NoError(t, err)
	requireClose(t, h, p, 1e-8)
}

func TestProjectPSD_SymmetrisesNonHermitianInput(t *testing.T) {
	t.Parallel()

	// Only the Hermitian part is projected.
	a := MustDenseFrom(t, [][]complex128{{2, 1}, {0, 2}})
	p, err := matrix.ProjectPSD(a, 0)
	require.NoError(t, err)
	requireClose(t, MustDenseFrom(t, [][]complex128{{2, 0.5}, {0.5, 2}}), p, tol)
}

func TestProjectPSDBatch(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	hs := []*matrix.Dense{randomHermitian(rng, 2), randomHermitian(rng, 3)}
	out, err := matrix.ProjectPSDBatch(hs, 1e-12)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for i, h := range hs {
		single, err := matrix.ProjectPSD(h, 1e-12)
		require.NoError(t, err)
		requireClose(t, single, out[i], 0)
	}

	_, err = matrix.ProjectPSDBatch([]*matrix.Dense{nil}, 0)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)
}

func TestSqrtAndInvSqrt(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(17))
	h := randomPD(rng, 3)

	s, err := matrix.SqrtPSD(h)
	require.NoError(t, err)
	requireClose(t, h, matrix.Mul(s, s), 1e-8)

	is, err := matrix.InvSqrtPSD(h, 1e-12)
	require.NoError(t, err)
	requireClose(t, matrix.Eye(3), matrix.MulChain(is, h, is), 1e-8)
}

func TestInverse(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(23))
	for _, n := range []int{1, 2, 4, 6} {
		a := randomGeneral(rng, n)
		inv, err := matrix.Inverse(a)
		require.NoError(t, err)
		requireClose(t, matrix.Eye(n), matrix.Mul(a, inv), 1e-8)
	}

	_, err := matrix.Inverse(MustDenseFrom(t, [][]complex128{{1, 1}, {1, 1}}))
	require.ErrorIs(t, err, matrix.ErrSingular)
	_, err = matrix.Inverse(matrix.Zeros(1, 2))
	require.ErrorIs(t, err, matrix.ErrNonSquare)
}

func TestSolve(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(29))
	a := randomGeneral(rng, 3)
	b := []complex128{1, 1i, -2}
	x, err := matrix.Solve(a, b)
	require.NoError(t, err)
	ax := matrix.MulVec(a, x)
	for i := range b {
		assert.InDelta(t, 0, cmplx.Abs(ax[i]-b[i]), 1e-9)
	}

	_, err = matrix.Solve(a, []complex128{1})
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
	_, err = matrix.Solve(matrix.Zeros(2, 2), []complex128{1, 1})
	require.ErrorIs(t, err, matrix.ErrSingular)
}

func TestLogAbsDet(t *testing.T) {
	t.Parallel()

	d := MustDenseFrom(t, [][]complex128{{2, 0}, {0, 3i}})
	assert.InDelta(t, math.Log(6), matrix.LogAbsDet(d), tol)

	assert.True(t, math.IsInf(matrix.LogAbsDet(matrix.Zeros(2, 2)), -1))
	assert.Panics(t, func() { matrix.LogAbsDet(matrix.Zeros(2, 3)) })
}
