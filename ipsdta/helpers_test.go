// SPDX-License-Identifier: MIT
// Package ipsdta_test contains shared fixtures.
//
// Purpose:
//   - Build small deterministic mixtures so engine tests run in milliseconds.
//   - Offer tolerance-aware checks on model state.

package ipsdta_test

import (
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/katalvlaran/ipsdta/ipsdta"
	"github.com/katalvlaran/ipsdta/matrix"
	"github.com/stretchr/testify/require"
)

// syntheticMixture returns X[channel][bin][frame] = A_f · s_f(t) where the
// sources have frame-varying power (a crude stand-in for speech) and A_f is a
// random, well-conditioned mixing matrix per bin.
func syntheticMixture(seed int64, nChannels, nBins, nFrames int) [][][]complex128 {
	rng := rand.New(rand.NewSource(seed))

	src := make([][][]complex128, nChannels)
	for n := range src {
		src[n] = make([][]complex128, nBins)
		gain := make([]float64, nFrames)
		for t := range gain {
			gain[t] = 0.1 + rng.Float64()*2
		}
		for f := range src[n] {
			src[n][f] = make([]complex128, nFrames)
			for t := range src[n][f] {
				src[n][f][t] = complex(rng.NormFloat64(), rng.NormFloat64()) * complex(gain[t], 0)
			}
		}
	}

	x := make([][][]complex128, nChannels)
	for c := range x {
		x[c] = make([][]complex128, nBins)
		for f := range x[c] {
			x[c][f] = make([]complex128, nFrames)
		}
	}
	for f := 0; f < nBins; f++ {
		a := make([][]complex128, nChannels)
		for c := range a {
			a[c] = make([]complex128, nChannels)
			for n := range a[c] {
				a[c][n] = complex(rng.Float64()*2-1, rng.Float64()*2-1)
				if c == n {
					a[c][n] += 2
				}
			}
		}
		for c := 0; c < nChannels; c++ {
			for n := 0; n < nChannels; n++ {
				for t := 0; t < nFrames; t++ {
					x[c][f][t] += a[c][n] * src[n][f][t]
				}
			}
		}
	}

	return x
}

// smallConfig returns a fast configuration for the given variant.
func smallConfig(v ipsdta.Variant, nBasis, nBlocks int) ipsdta.Config {
	cfg := ipsdta.DefaultConfig(v)
	cfg.NumBasis = nBasis
	cfg.NumBlocks = nBlocks
	cfg.Seed = 7

	return cfg
}

// mustEngine builds an engine or fails the test.
func mustEngine(t testing.TB, x [][][]complex128, cfg ipsdta.Config, opts ...ipsdta.Option) *ipsdta.Engine {
	t.Helper()
	e, err := ipsdta.New(x, cfg, opts...)
	require.NoError(t, err)

	return e
}

// requireFiniteLoss asserts every loss entry is finite.
func requireFiniteLoss(t testing.TB, loss []float64) {
	t.Helper()
	for i, l := range loss {
		require.Falsef(t, math.IsNaN(l) || math.IsInf(l, 0), "loss[%d]=%g", i, l)
	}
}

// requirePSDBasis asserts every U is exactly Hermitian with eigenvalues ≥ −tol.
func requirePSDBasis(t testing.TB, u [][][]*matrix.Dense, tol float64) {
	t.Helper()
	for n := range u {
		for b := range u[n] {
			for k, m := range u[n][b] {
				require.NoErrorf(t, matrix.ValidateHermitian(m, 0), "U[%d][%d][%d]", n, b, k)
				ev, err := matrix.EigenvaluesHermitian(m)
				require.NoError(t, err)
				for _, l := range ev {
					require.GreaterOrEqualf(t, l, -tol, "U[%d][%d][%d] eigenvalue", n, b, k)
				}
			}
		}
	}
}

// requireFiniteState asserts W, U and V hold only finite numbers.
func requireFiniteState(t testing.TB, s ipsdta.State) {
	t.Helper()
	for f, w := range s.W {
		require.Truef(t, w.IsFinite(), "W[%d]", f)
	}
	for n := range s.U {
		for b := range s.U[n] {
			for k, m := range s.U[n][b] {
				require.Truef(t, m.IsFinite(), "U[%d][%d][%d]", n, b, k)
			}
		}
	}
	for n := range s.V {
		for k := range s.V[n] {
			for tt, v := range s.V[n][k] {
				require.Falsef(t, math.IsNaN(v) || math.IsInf(v, 0) || v < 0, "V[%d][%d][%d]=%g", n, k, tt, v)
			}
		}
	}
}

// sourceCov returns Σ_k U[n][b][k]·V[n][k][t].
func sourceCov(s ipsdta.State, n, b, t int) *matrix.Dense {
	r := matrix.Zeros(s.U[n][b][0].Rows(), s.U[n][b][0].Cols())
	for k, u := range s.U[n][b] {
		r.AddScaled(complex(s.V[n][k][t], 0), u)
	}

	return r
}

// maxAbsDiff returns max |a−b| over entries of equal-shape matrices.
func maxAbsDiff(a, b *matrix.Dense) float64 {
	var d float64
	for i := 0; i < a.Rows(); i++ {
		for j := 0; j < a.Cols(); j++ {
			d = math.Max(d, cmplx.Abs(a.Entry(i, j)-b.Entry(i, j)))
		}
	}

	return d
}
