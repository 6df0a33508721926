// SPDX-License-Identifier: MIT

package ipsdta

import (
	"math"

	"github.com/katalvlaran/ipsdta/matrix"
)

// normalize rescales every source/atom so that Σ_blocks Re tr(U) = 1 and
// multiplies the activation by the removed scale; U·V is unchanged.
// The scale is floored at eps so an all-zero basis never divides by zero.
func (e *Engine) normalize() {
	for n := range e.state.U {
		for k := range e.state.V[n] {
			var tr float64
			for b := range e.state.U[n] {
				tr += real(matrix.Trace(e.state.U[n][b][k]))
			}
			tr = math.Max(tr, e.cfg.Eps)

			inv := complex(1/tr, 0)
			for b := range e.state.U[n] {
				e.state.U[n][b][k].ScaleInPlace(inv)
			}
			for t := range e.state.V[n][k] {
				e.state.V[n][k][t] *= tr
			}
		}
	}
}
