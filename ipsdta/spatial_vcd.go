// SPDX-License-Identifier: MIT

package ipsdta

import (
	"math"
	"math/cmplx"

	"github.com/katalvlaran/ipsdta/matrix"
)

// updateSpatialVCD performs one sweep of vector-wise coordinate descent.
//
// Sources are visited in order and each one sees the rows already updated for
// earlier sources (Gauss-Seidel). Within a source, blocks fan out in parallel
// and all bins read the pre-sweep row of that source. For bin i of a block:
//
//	Q_i = mean_t Rinv[i,i](t) · x_i x_iᴴ
//	γ_i = Σ_{j≠i} mean_t Rinv[i,j](t) · x_i · conj(y_j(t))
//	ξ   = (W_i Q_i)⁻¹ e_n,   ξ̂ = Q_i⁻¹ γ_i
//	η   = Re ξᴴQ_iξ,          η̂ = Re ξᴴQ_iξ̂
//	w   = c·ξ − ξ̂,  c = 1/√η if η̂² < eps, else ½·η̂/η·(1 − √(1 + 4η/η̂²))
//
// where Rinv(t) = (conj(R(t)) + eps·I)⁻¹. The new row n of W_i is conj(w).
// c is the negative root of η·c² − η̂·c − 1 = 0, the stationarity condition of
// the row's majoriser.
// Requires a uniform partition; New rejects anything else.
func (e *Engine) updateSpatialVCD() error {
	nSources, nBlocks := len(e.state.U), e.part.NumBlocks()
	eps := e.cfg.Eps

	// Rinv[n][b][t], computed once from the current source model.
	rinv := make([][][]*matrix.Dense, nSources)
	err := forEach(e.workers, nSources, func(n int) error {
		rinv[n] = make([][]*matrix.Dense, nBlocks)
		for b := range rinv[n] {
			rinv[n][b] = make([]*matrix.Dense, e.nFrames)
			for t := range rinv[n][b] {
				inv, err := conjLoadedInverse(mixCov(e.state.U[n][b], e.state.V[n], t), eps)
				if err != nil {
					return err
				}
				rinv[n][b][t] = inv
			}
		}

		return nil
	})
	if err != nil {
		return ipsdtaErrorf(opVCD, err)
	}

	w := make([]*matrix.Dense, e.nBins)
	for f := range w {
		w[f] = e.state.W[f].Clone()
	}

	for n := 0; n < nSources; n++ {
		// conj(y_j(t)) for source n under the current W.
		yConj := make([][]complex128, e.nBins)
		for f := range yConj {
			row := w[f].Row(n)
			yConj[f] = make([]complex128, e.nFrames)
			for t := range yConj[f] {
				var acc complex128
				for c, wc := range row {
					acc += wc * e.x[c][f][t]
				}
				yConj[f][t] = cmplx.Conj(acc)
			}
		}

		rows := make([][]complex128, e.nBins)
		err := forEach(e.workers, nBlocks, func(b int) error {
			return e.vcdBlock(n, b, w, rinv[n][b], yConj, rows)
		})
		if err != nil {
			return ipsdtaErrorf(opVCD, err)
		}
		for f, row := range rows {
			w[f].SetRow(n, row)
		}
	}
	e.state.W = w

	return nil
}

// vcdBlock fills rows[f] for every bin f of block b; it reads w but never writes it.
func (e *Engine) vcdBlock(n, b int, w []*matrix.Dense, rinv []*matrix.Dense, yConj [][]complex128, rows [][]complex128) error {
	eps, nCh := e.cfg.Eps, e.nChannels
	size, start := e.part.Size(b), e.part.Start(b)
	scale := complex(1/float64(e.nFrames), 0)

	for i := 0; i < size; i++ {
		f := start + i
		frames := matrix.FrameVectors(e.x, f)
		diag := make([]complex128, e.nFrames)
		gamma := make([]complex128, nCh)
		for t, xt := range frames {
			diag[t] = rinv[t].Entry(i, i)

			var s complex128
			for j := 0; j < size; j++ {
				if j != i {
					s += rinv[t].Entry(i, j) * yConj[start+j][t]
				}
			}
			for c := range gamma {
				gamma[c] += xt[c] * s
			}
		}
		q := matrix.WeightedCovariance(frames, diag)
		for c := range gamma {
			gamma[c] *= scale
		}

		en := make([]complex128, nCh)
		en[n] = 1
		xi, err := matrix.Solve(matrix.Mul(w[f], q), en)
		if err != nil {
			return err
		}
		xiHat, err := matrix.Solve(q, gamma)
		if err != nil {
			return err
		}

		eta := real(matrix.Quad(xi, q, xi))
		etaHat := real(matrix.Quad(xi, q, xiHat))
		var coeff float64
		if etaHat*etaHat < eps {
			coeff = 1 / math.Sqrt(eta)
		} else {
			coeff = 0.5 * etaHat / eta * (1 - math.Sqrt(1+4*eta/(etaHat*etaHat)))
		}

		row := make([]complex128, nCh)
		for c := range row {
			row[c] = cmplx.Conj(complex(coeff, 0)*xi[c] - xiHat[c])
		}
		rows[f] = row
	}

	return nil
}
