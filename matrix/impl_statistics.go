// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Provide second-moment statistics of complex observation frames as
//     deterministic compositions over the flat Dense buffer.
//
// Exposed API:
//   - SampleCovariance(X)      -> C   // mean_t x_t x_tᴴ (uncentered)
//   - WeightedCovariance(X, w) -> C   // mean_t w_t · x_t x_tᴴ
//   - FrameVectors(x, f)       -> X   // gather [channel][bin][frame] into [frame][channel]
//
// Determinism & Performance:
//   - Fixed t→i→j traversal; the result depends only on input order.
//   - One output allocation; the outer products are accumulated in place.
//
// Notes:
//   - Observations in the STFT domain are zero-mean by construction, so no
//     centering is applied. A weighted covariance with complex weights is not
//     Hermitian in general; callers that need a covariance matrix pass real
//     weights or project afterwards.

package matrix

import "fmt"

const (
	opSampleCov   = "SampleCovariance"
	opWeightedCov = "WeightedCovariance"
)

// SampleCovariance returns mean_t x_t x_tᴴ over the frames X[t] (each of length n).
// Panics with ErrDimensionMismatch on ragged frames; an empty X panics with ErrBadShape.
// Complexity: O(T·n²).
func SampleCovariance(X [][]complex128) *Dense {
	return WeightedCovariance(X, nil)
}

// WeightedCovariance returns mean_t w[t] · x_t x_tᴴ.
// Implementation:
//   - Stage 1: validate frame count, frame lengths and len(w) (nil w means all ones).
//   - Stage 2: accumulate w[t]·x_i·conj(x_j) row by row into the flat buffer.
//   - Stage 3: scale by 1/T.
//
// Complexity: O(T·n²).
func WeightedCovariance(X [][]complex128, w []complex128) *Dense {
	if len(X) == 0 {
		panic(matrixErrorf(opWeightedCov, ErrBadShape))
	}
	if w != nil && len(w) != len(X) {
		panic(matrixErrorf(opWeightedCov, fmt.Errorf("%d weights for %d frames: %w", len(w), len(X), ErrDimensionMismatch)))
	}
	n := len(X[0])
	out := Zeros(n, n)
	for t, x := range X {
		if len(x) != n {
			panic(matrixErrorf(opWeightedCov, fmt.Errorf("frame %d has length %d, want %d: %w", t, len(x), n, ErrDimensionMismatch)))
		}
		wt := complex(1, 0)
		if w != nil {
			wt = w[t]
		}
		for i := 0; i < n; i++ {
			xi := wt * x[i]
			row := out.data[i*n : (i+1)*n]
			for j := 0; j < n; j++ {
				row[j] += xi * complex(real(x[j]), -imag(x[j]))
			}
		}
	}
	out.ScaleInPlace(complex(1/float64(len(X)), 0))

	return out
}

// FrameVectors gathers bin f of a [channel][bin][frame] tensor into
// [frame][channel] vectors suitable for SampleCovariance.
func FrameVectors(x [][][]complex128, f int) [][]complex128 {
	if len(x) == 0 {
		return nil
	}
	out := make([][]complex128, len(x[0][f]))
	for t := range out {
		v := make([]complex128, len(x))
		for c := range x {
			v[c] = x[c][f][t]
		}
		out[t] = v
	}

	return out
}
