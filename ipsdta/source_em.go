// SPDX-License-Identifier: MIT

package ipsdta

import (
	"math"

	"github.com/katalvlaran/ipsdta/blocks"
	"github.com/katalvlaran/ipsdta/matrix"
)

// updateSourceEM runs the EM basis step followed by the EM activation step
// for every source (fan-out over sources). The new U and V are written into
// st only when every source succeeded.
func (e *Engine) updateSourceEM(y [][][]complex128) error {
	nSources := len(e.state.U)
	newU := make([][][]*matrix.Dense, nSources)
	newV := make([][][]float64, nSources)

	err := forEach(e.workers, nSources, func(n int) error {
		u, v, err := emSource(y[n], e.state.U[n], e.state.V[n], e.part, e.nFrames, e.cfg.Eps)
		if err != nil {
			return err
		}
		newU[n], newV[n] = u, v

		return nil
	})
	if err != nil {
		return ipsdtaErrorf(opSourceEM, err)
	}
	e.state.U, e.state.V = newU, newV

	return nil
}

// emSource updates one source.
//
// Stage 1 (basis): with the current U and unfloored V, compute the posterior
// second moment Φ_k(t) of every atom, then floor V at eps and set
// U_k = PSD(mean_t Φ_k(t) / V_k(t)).
//
// Stage 2 (activation): with the new U and the floored V, recompute Φ and set
// V_k(t) = Σ_blocks max(Re tr(U_k⁻¹ Φ_k(t)), 0) / n_bins.
func emSource(y [][]complex128, u [][]*matrix.Dense, v [][]float64, p *blocks.Partition, nFrames int, eps float64) ([][]*matrix.Dense, [][]float64, error) {
	nBasis := len(v)

	// Stage 1: basis.
	acc := make([][]*matrix.Dense, p.NumBlocks())
	for b := range acc {
		size := p.Size(b)
		acc[b] = make([]*matrix.Dense, nBasis)
		for k := range acc[b] {
			acc[b][k] = matrix.Zeros(size, size)
		}
	}

	floored := make([][]float64, nBasis)
	for k := range floored {
		floored[k] = make([]float64, nFrames)
		for t, val := range v[k] {
			floored[k][t] = math.Max(val, eps)
		}
	}

	for b := 0; b < p.NumBlocks(); b++ {
		for t := 0; t < nFrames; t++ {
			phis, err := posteriors(u[b], v, t, blockVec(y, p.Start(b), p.Size(b), t), eps)
			if err != nil {
				return nil, nil, err
			}
			for k, phi := range phis {
				acc[b][k].AddScaled(complex(1/floored[k][t], 0), phi)
			}
		}
	}

	newU := make([][]*matrix.Dense, p.NumBlocks())
	for b := range newU {
		for _, a := range acc[b] {
			a.ScaleInPlace(complex(1/float64(nFrames), 0))
		}
		pu, err := matrix.ProjectPSDBatch(acc[b], eps)
		if err != nil {
			return nil, nil, err
		}
		newU[b] = pu
	}

	// Stage 2: activation.
	trace := make([][]float64, nBasis)
	for k := range trace {
		trace[k] = make([]float64, nFrames)
	}
	for b := 0; b < p.NumBlocks(); b++ {
		invU := make([]*matrix.Dense, nBasis)
		for k := range invU {
			inv, err := matrix.Inverse(newU[b][k])
			if err != nil {
				return nil, nil, err
			}
			invU[k] = inv
		}
		for t := 0; t < nFrames; t++ {
			phis, err := posteriors(newU[b], floored, t, blockVec(y, p.Start(b), p.Size(b), t), eps)
			if err != nil {
				return nil, nil, err
			}
			for k, phi := range phis {
				if tr := real(matrix.TraceMul(invU[k], phi)); tr > 0 {
					trace[k][t] += tr
				}
			}
		}
	}

	nBins := float64(p.NumBins())
	for k := range trace {
		for t := range trace[k] {
			trace[k][t] /= nBins
		}
	}

	return newU, trace, nil
}

// posteriors returns Φ_k = PSD(ŷ_k ŷ_kᴴ + R̂_k) for every atom k at frame t, where
// R_k = U_k V_k(t), R = PSD(Σ_k R_k), ŷ_k = R_k R⁻¹ y and R̂_k = PSD(R_k (I − (R_k R⁻¹)ᴴ)).
func posteriors(u []*matrix.Dense, v [][]float64, t int, y []complex128, eps float64) ([]*matrix.Dense, error) {
	r, err := matrix.ProjectPSD(mixCov(u, v, t), eps)
	if err != nil {
		return nil, err
	}
	invR, err := matrix.Inverse(r)
	if err != nil {
		return nil, err
	}

	out := make([]*matrix.Dense, len(u))
	for k, uk := range u {
		rk := matrix.Scale(uk, complex(v[k][t], 0))
		rr := matrix.Mul(rk, invR)
		yHat := matrix.MulVec(rr, y)

		rHat, err := matrix.ProjectPSD(matrix.Mul(rk, eyeMinus(matrix.ConjTranspose(rr))), eps)
		if err != nil {
			return nil, err
		}
		phi, err := matrix.ProjectPSD(matrix.Add(matrix.Outer(yHat, yHat), rHat), eps)
		if err != nil {
			return nil, err
		}
		out[k] = phi
	}

	return out, nil
}
