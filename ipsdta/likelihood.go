// SPDX-License-Identifier: MIT

package ipsdta

import (
	"github.com/katalvlaran/ipsdta/matrix"
)

// NegativeLogLikelihood evaluates the loss of the current state:
//
//	Σ_{n,b,t} [ Re yᴴ (R + eps·I)⁻¹ y + log det R ] − 2·T·Σ_f log|det W_f|
//
// with R = PSD(Σ_k U_k V_k(t)) per source, block and frame. Sources fan out in
// parallel; partial sums are reduced in source order.
func (e *Engine) NegativeLogLikelihood() (float64, error) {
	y := separate(e.x, e.state.W, e.nChannels, e.nBins, e.nFrames)

	return e.negativeLogLikelihood(y)
}

func (e *Engine) negativeLogLikelihood(y [][][]complex128) (float64, error) {
	eps := e.cfg.Eps
	partial := make([]float64, len(e.state.U))

	err := forEach(e.workers, len(e.state.U), func(n int) error {
		var sum float64
		for b := 0; b < e.part.NumBlocks(); b++ {
			size, start := e.part.Size(b), e.part.Start(b)
			for t := 0; t < e.nFrames; t++ {
				r, err := matrix.ProjectPSD(mixCov(e.state.U[n][b], e.state.V[n], t), eps)
				if err != nil {
					return err
				}
				invR, err := matrix.Inverse(matrix.AddScaledIdentity(r, eps))
				if err != nil {
					return err
				}
				yv := blockVec(y[n], start, size, t)
				sum += real(matrix.Quad(yv, invR, yv)) + matrix.LogAbsDet(r)
			}
		}
		partial[n] = sum

		return nil
	})
	if err != nil {
		return 0, ipsdtaErrorf(opLoss, err)
	}

	var loss float64
	for _, p := range partial {
		loss += p
	}
	var logDetW float64
	for _, wf := range e.state.W {
		logDetW += matrix.LogAbsDet(wf)
	}

	return loss - 2*float64(e.nFrames)*logDetW, nil
}
