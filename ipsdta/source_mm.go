// SPDX-License-Identifier: MIT

package ipsdta

import (
	"math"

	"github.com/katalvlaran/ipsdta/blocks"
	"github.com/katalvlaran/ipsdta/matrix"
)

// updateSourceMM runs the MM basis step followed by the MM activation step
// for every source (fan-out over sources) and commits on success.
func (e *Engine) updateSourceMM(y [][][]complex128) error {
	nSources := len(e.state.U)
	newU := make([][][]*matrix.Dense, nSources)
	newV := make([][][]float64, nSources)

	err := forEach(e.workers, nSources, func(n int) error {
		u, err := mmBasis(y[n], e.state.U[n], e.state.V[n], e.part, e.nFrames, e.cfg.Eps)
		if err != nil {
			return err
		}
		v, err := mmActivation(y[n], u, e.state.V[n], e.part, e.nFrames, e.cfg.Eps)
		if err != nil {
			return err
		}
		newU[n], newV[n] = u, v

		return nil
	})
	if err != nil {
		return ipsdtaErrorf(opSourceMM, err)
	}
	e.state.U, e.state.V = newU, newV

	return nil
}

// mmBasis returns U_k ← U_k S^{1/2} (S^{1/2} U_k T U_k S^{1/2})^{-1/2} S^{1/2} U_k per block, with
//
//	S = Σ_t V_k(t) R⁻¹ (y yᴴ + eps·I) R⁻¹,   T = Σ_t V_k(t) R⁻¹.
//
// Every intermediate square root and inverse is PSD-projected with floor eps.
func mmBasis(y [][]complex128, u [][]*matrix.Dense, v [][]float64, p *blocks.Partition, nFrames int, eps float64) ([][]*matrix.Dense, error) {
	nBasis := len(v)
	out := make([][]*matrix.Dense, p.NumBlocks())

	for b := range out {
		size, start := p.Size(b), p.Start(b)
		s := make([]*matrix.Dense, nBasis)
		tt := make([]*matrix.Dense, nBasis)
		for k := range s {
			s[k] = matrix.Zeros(size, size)
			tt[k] = matrix.Zeros(size, size)
		}

		for t := 0; t < nFrames; t++ {
			invR, err := projectedInverse(mixCov(u[b], v, t), eps)
			if err != nil {
				return nil, err
			}
			yv := blockVec(y, start, size, t)
			yy := matrix.AddScaledIdentity(matrix.Outer(yv, yv), eps)
			ryyr := matrix.MulChain(invR, yy, invR)
			for k := range s {
				w := complex(v[k][t], 0)
				s[k].AddScaled(w, ryyr)
				tt[k].AddScaled(w, invR)
			}
		}

		out[b] = make([]*matrix.Dense, nBasis)
		for k := range out[b] {
			nu, err := mmBasisAtom(u[b][k], s[k], tt[k], eps)
			if err != nil {
				return nil, err
			}
			out[b][k] = nu
		}
	}

	return out, nil
}

// mmBasisAtom evaluates the closed-form update for one atom of one block.
func mmBasisAtom(uk, s, t *matrix.Dense, eps float64) (*matrix.Dense, error) {
	sqrtS, err := matrix.SqrtPSD(s)
	if err != nil {
		return nil, err
	}
	if sqrtS, err = matrix.ProjectPSD(sqrtS, eps); err != nil {
		return nil, err
	}

	m, err := matrix.ProjectPSD(matrix.MulChain(sqrtS, uk, t, uk, sqrtS), eps)
	if err != nil {
		return nil, err
	}
	sqrtM, err := matrix.SqrtPSD(m)
	if err != nil {
		return nil, err
	}
	invSqrtM, err := projectedInverse(sqrtM, eps)
	if err != nil {
		return nil, err
	}

	return matrix.ProjectPSD(matrix.MulChain(uk, sqrtS, invSqrtM, sqrtS, uk), eps)
}

// projectedInverse returns PSD(PSD(a)⁻¹).
func projectedInverse(a *matrix.Dense, eps float64) (*matrix.Dense, error) {
	pa, err := matrix.ProjectPSD(a, eps)
	if err != nil {
		return nil, err
	}
	inv, err := matrix.Inverse(pa)
	if err != nil {
		return nil, err
	}

	return matrix.ProjectPSD(inv, eps)
}

// mmActivation returns V_k(t)·√(num/den) with the new basis u and the old v:
//
//	num = max(Σ_blocks Re tr(R⁻¹ U_k R⁻¹ yy), 0),   den = max(Σ_blocks Re tr(R⁻¹ U_k), eps),
//
// where R = PSD(Σ_k U_k V_k(t)) and yy = PSD(y yᴴ + eps·I).
func mmActivation(y [][]complex128, u [][]*matrix.Dense, v [][]float64, p *blocks.Partition, nFrames int, eps float64) ([][]float64, error) {
	nBasis := len(v)
	num := make([][]float64, nBasis)
	den := make([][]float64, nBasis)
	for k := range num {
		num[k] = make([]float64, nFrames)
		den[k] = make([]float64, nFrames)
	}

	for b := 0; b < p.NumBlocks(); b++ {
		size, start := p.Size(b), p.Start(b)
		for t := 0; t < nFrames; t++ {
			r, err := matrix.ProjectPSD(mixCov(u[b], v, t), eps)
			if err != nil {
				return nil, err
			}
			yv := blockVec(y, start, size, t)
			yy, err := matrix.ProjectPSD(matrix.AddScaledIdentity(matrix.Outer(yv, yv), eps), eps)
			if err != nil {
				return nil, err
			}
			invR, err := matrix.Inverse(r)
			if err != nil {
				return nil, err
			}
			ryy := matrix.Mul(invR, yy)
			for k := 0; k < nBasis; k++ {
				ru := matrix.Mul(invR, u[b][k])
				num[k][t] += real(matrix.TraceMul(ru, ryy))
				den[k][t] += real(matrix.Trace(ru))
			}
		}
	}

	out := make([][]float64, nBasis)
	for k := range out {
		out[k] = make([]float64, nFrames)
		for t := range out[k] {
			n := math.Max(num[k][t], 0)
			d := math.Max(den[k][t], eps)
			out[k][t] = v[k][t] * math.Sqrt(n/d)
		}
	}

	return out, nil
}
