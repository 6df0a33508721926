// SPDX-License-Identifier: MIT

package ipsdta

import (
	"github.com/katalvlaran/ipsdta/matrix"
)

// State is the mutable model owned by an Engine.
//
// Shapes (S = sources = channels, F = bins, B = blocks, K = atoms, T = frames):
//   - W      [F] S×C demixing matrices; row n demixes source n.
//   - U      [S][B][K] Hermitian PSD basis matrices of the block's size.
//   - V      [S][K][T] non-negative activations.
//   - Lambda [S][F] auxiliary scalars of the fixed-point update; nil otherwise.
//
// When passed to WithWarmStart, any nil field is initialised afresh.
type State struct {
	W      []*matrix.Dense
	U      [][][]*matrix.Dense
	V      [][][]float64
	Lambda [][]complex128
}

// Clone returns a deep copy; nil fields stay nil.
func (s State) Clone() State {
	var out State
	if s.W != nil {
		out.W = make([]*matrix.Dense, len(s.W))
		for f, w := range s.W {
			if w != nil {
				out.W[f] = w.Clone()
			}
		}
	}
	if s.U != nil {
		out.U = make([][][]*matrix.Dense, len(s.U))
		for n, ub := range s.U {
			out.U[n] = make([][]*matrix.Dense, len(ub))
			for b, uk := range ub {
				out.U[n][b] = make([]*matrix.Dense, len(uk))
				for k, u := range uk {
					if u != nil {
						out.U[n][b][k] = u.Clone()
					}
				}
			}
		}
	}
	if s.V != nil {
		out.V = make([][][]float64, len(s.V))
		for n, vk := range s.V {
			out.V[n] = make([][]float64, len(vk))
			for k, v := range vk {
				out.V[n][k] = append([]float64(nil), v...)
			}
		}
	}
	if s.Lambda != nil {
		out.Lambda = make([][]complex128, len(s.Lambda))
		for n, l := range s.Lambda {
			out.Lambda[n] = append([]complex128(nil), l...)
		}
	}

	return out
}

// Snapshot is the read-only view handed to observers after initialisation
// (Iteration == 0) and after every completed iteration.
type Snapshot struct {
	Iteration int       // completed iterations
	Loss      []float64 // loss trace so far; nil when recording is disabled
	State     State     // deep copy of the model
}

// LastLoss returns the latest loss value and whether one exists.
func (s Snapshot) LastLoss() (float64, bool) {
	if len(s.Loss) == 0 {
		return 0, false
	}

	return s.Loss[len(s.Loss)-1], true
}
