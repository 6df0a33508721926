// SPDX-License-Identifier: MIT

package ipsdta

import (
	"math/cmplx"

	"github.com/katalvlaran/ipsdta/matrix"
)

// updateSpatialFixedPoint performs one fixed-point update of W and Λ.
//
// All sources read the same W (Jacobi style), so they fan out in parallel.
// For source n and a block of size k starting at bin s:
//
//	G[(i,c),(j,c')] = mean_t x_i[c] · conj(x_j[c']) · (conj(R_t) + eps·I)⁻¹[i,j]
//
// is a kC×kC matrix (PSD-projected, inverted). With a_i = column n of W_{s+i}⁻¹:
//
//	B[i][j] = Σ_{c,c'} conj(a_i[c]) · conj(G⁻¹[(j,c'),(i,c)]) · a_j[c']
//	Λ_i     = 1 / Σ_j B[j][i] · conj(Λ_j)          (|denominator| < eps ⇒ eps)
//	w_(i,c) = Σ_{j,c'} G⁻¹[(i,c),(j,c')] · Λ_j · a_j[c']
//
// and the new row n of W_{s+i} is conj(w_i).
func (e *Engine) updateSpatialFixedPoint() error {
	nSources, nBins := len(e.state.U), e.nBins

	mixing := make([]*matrix.Dense, nBins)
	err := forEach(e.workers, nBins, func(f int) error {
		a, err := matrix.Inverse(e.state.W[f])
		if err != nil {
			return err
		}
		mixing[f] = a

		return nil
	})
	if err != nil {
		return ipsdtaErrorf(opFixedPoint, err)
	}

	rows := make([][][]complex128, nSources) // [source][bin] new row of W
	lambda := make([][]complex128, nSources) // [source][bin]
	err = forEach(e.workers, nSources, func(n int) error {
		r, l, err := e.fixedPointSource(n, mixing)
		if err != nil {
			return err
		}
		rows[n], lambda[n] = r, l

		return nil
	})
	if err != nil {
		return ipsdtaErrorf(opFixedPoint, err)
	}

	newW := make([]*matrix.Dense, nBins)
	for f := range newW {
		wf := matrix.Zeros(nSources, e.nChannels)
		for n := 0; n < nSources; n++ {
			wf.SetRow(n, rows[n][f])
		}
		newW[f] = wf
	}
	e.state.W, e.state.Lambda = newW, lambda

	return nil
}

// fixedPointSource computes the new demixing rows and Λ of source n for every bin.
func (e *Engine) fixedPointSource(n int, mixing []*matrix.Dense) ([][]complex128, []complex128, error) {
	eps, nCh := e.cfg.Eps, e.nChannels
	rows := make([][]complex128, e.nBins)
	lambda := make([]complex128, e.nBins)

	for b := 0; b < e.part.NumBlocks(); b++ {
		size, start := e.part.Size(b), e.part.Start(b)
		dim := size * nCh

		// Stage 1: weighted spatial covariance G over the stacked (bin, channel) index.
		g := matrix.Zeros(dim, dim)
		for t := 0; t < e.nFrames; t++ {
			invR, err := conjLoadedInverse(mixCov(e.state.U[n][b], e.state.V[n], t), eps)
			if err != nil {
				return nil, nil, err
			}
			for i := 0; i < size; i++ {
				for j := 0; j < size; j++ {
					rij := invR.Entry(i, j)
					if rij == 0 {
						continue
					}
					for c := 0; c < nCh; c++ {
						xic := e.x[c][start+i][t] * rij
						for c2 := 0; c2 < nCh; c2++ {
							p, q := i*nCh+c, j*nCh+c2
							g.SetEntry(p, q, g.Entry(p, q)+xic*cmplx.Conj(e.x[c2][start+j][t]))
						}
					}
				}
			}
		}
		g.ScaleInPlace(complex(1/float64(e.nFrames), 0))
		g, err := matrix.ProjectPSD(g, eps)
		if err != nil {
			return nil, nil, err
		}
		invG, err := matrix.Inverse(g)
		if err != nil {
			return nil, nil, err
		}

		// Stage 2: Λ update from the mixing vectors a_i.
		a := make([][]complex128, size)
		for i := range a {
			a[i] = mixing[start+i].Col(n)
		}
		newL := make([]complex128, size)
		for i := 0; i < size; i++ {
			var denom complex128
			for j := 0; j < size; j++ {
				var bji complex128
				for c := 0; c < nCh; c++ {
					for c2 := 0; c2 < nCh; c2++ {
						bji += cmplx.Conj(a[j][c]) * cmplx.Conj(invG.Entry(i*nCh+c2, j*nCh+c)) * a[i][c2]
					}
				}
				denom += bji * cmplx.Conj(e.state.Lambda[n][start+j])
			}
			if cmplx.Abs(denom) < eps {
				denom = complex(eps, 0)
			}
			newL[i] = 1 / denom
		}

		// Stage 3: w = G⁻¹ (Λ ⊗ a), stored conjugated as row n.
		for i := 0; i < size; i++ {
			row := make([]complex128, nCh)
			for c := 0; c < nCh; c++ {
				var acc complex128
				for j := 0; j < size; j++ {
					for c2 := 0; c2 < nCh; c2++ {
						acc += invG.Entry(i*nCh+c, j*nCh+c2) * newL[j] * a[j][c2]
					}
				}
				row[c] = cmplx.Conj(acc)
			}
			rows[start+i] = row
			lambda[start+i] = newL[i]
		}
	}

	return rows, lambda, nil
}

// conjLoadedInverse returns (conj(PSD(r)) + eps·I)⁻¹.
func conjLoadedInverse(r *matrix.Dense, eps float64) (*matrix.Dense, error) {
	pr, err := matrix.ProjectPSD(r, eps)
	if err != nil {
		return nil, err
	}

	return matrix.Inverse(matrix.AddScaledIdentity(matrix.Conj(pr), eps))
}
