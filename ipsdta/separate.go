// SPDX-License-Identifier: MIT

package ipsdta

import (
	"fmt"

	"github.com/katalvlaran/ipsdta/matrix"
)

// Separate applies per-bin demixing: Y[n][f][t] = Σ_c W[f][n,c] · X[c][f][t].
// X is indexed [channel][bin][frame]; W holds one sources×channels matrix per bin.
// The result is freshly allocated.
//
// Errors: ErrEmptyObservation, ErrShapeMismatch, ErrChannelSourceMismatch.
func Separate(x [][][]complex128, w []*matrix.Dense) ([][][]complex128, error) {
	nChannels, nBins, nFrames, err := observationShape(x)
	if err != nil {
		return nil, fmt.Errorf("Separate: %w", err)
	}
	if len(w) != nBins {
		return nil, fmt.Errorf("Separate: %d demixing matrices for %d bins: %w", len(w), nBins, ErrShapeMismatch)
	}
	for f, wf := range w {
		if wf == nil || wf.Rows() != nChannels || wf.Cols() != nChannels {
			return nil, fmt.Errorf("Separate: W[%d]: %w", f, ErrChannelSourceMismatch)
		}
	}

	return separate(x, w, nChannels, nBins, nFrames), nil
}

// separate is Separate without validation.
func separate(x [][][]complex128, w []*matrix.Dense, nChannels, nBins, nFrames int) [][][]complex128 {
	y := make([][][]complex128, nChannels)
	for n := range y {
		y[n] = make([][]complex128, nBins)
		for f := range y[n] {
			row := make([]complex128, nFrames)
			for c := 0; c < nChannels; c++ {
				wnc := w[f].Entry(n, c)
				if wnc == 0 {
					continue
				}
				xc := x[c][f]
				for t := range row {
					row[t] += wnc * xc[t]
				}
			}
			y[n][f] = row
		}
	}

	return y
}

// observationShape validates a [channel][bin][frame] tensor and returns its extents.
func observationShape(x [][][]complex128) (nChannels, nBins, nFrames int, err error) {
	if len(x) == 0 || len(x[0]) == 0 || len(x[0][0]) == 0 {
		return 0, 0, 0, ErrEmptyObservation
	}
	nChannels, nBins, nFrames = len(x), len(x[0]), len(x[0][0])
	for c := range x {
		if len(x[c]) != nBins {
			return 0, 0, 0, fmt.Errorf("channel %d has %d bins, want %d: %w", c, len(x[c]), nBins, ErrShapeMismatch)
		}
		for f := range x[c] {
			if len(x[c][f]) != nFrames {
				return 0, 0, 0, fmt.Errorf("channel %d bin %d has %d frames, want %d: %w", c, f, len(x[c][f]), nFrames, ErrShapeMismatch)
			}
		}
	}

	return nChannels, nBins, nFrames, nil
}

// blockVec gathers y[start+i][t] for i in [0,size) into a fresh vector.
func blockVec(y [][]complex128, start, size, t int) []complex128 {
	v := make([]complex128, size)
	for i := range v {
		v[i] = y[start+i][t]
	}

	return v
}

// mixCov returns Σ_k U_k · V_k(t); u must be non-empty.
func mixCov(u []*matrix.Dense, v [][]float64, t int) *matrix.Dense {
	r := matrix.Zeros(u[0].Rows(), u[0].Cols())
	for k, uk := range u {
		if v[k][t] != 0 {
			r.AddScaled(complex(v[k][t], 0), uk)
		}
	}

	return r
}

// eyeMinus returns I − a for a square a.
func eyeMinus(a *matrix.Dense) *matrix.Dense {
	out := matrix.Scale(a, -1)
	for i := 0; i < out.Rows(); i++ {
		out.SetEntry(i, i, out.Entry(i, i)+1)
	}

	return out
}
