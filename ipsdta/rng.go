// SPDX-License-Identifier: MIT

package ipsdta

import (
	"math/rand"

	"github.com/katalvlaran/ipsdta/blocks"
	"github.com/katalvlaran/ipsdta/matrix"
)

// defaultSeed replaces Config.Seed == 0 so that default runs are reproducible.
const defaultSeed int64 = 1

// rngFromSeed returns a deterministic *rand.Rand; seed==0 ⇒ defaultSeed.
// math/rand.Rand is not goroutine-safe; all initial draws happen on one goroutine.
func rngFromSeed(seed int64) *rand.Rand {
	if seed == 0 {
		seed = defaultSeed
	}

	return rand.New(rand.NewSource(seed))
}

// initDemixing returns one identity matrix per bin.
func initDemixing(nBins, nChannels int) []*matrix.Dense {
	w := make([]*matrix.Dense, nBins)
	for f := range w {
		w[f] = matrix.Eye(nChannels)
	}

	return w
}

// initBasis draws U[n][b][k] = diag(u), u ~ Uniform[0,1) per diagonal entry.
// Draw order is source, block, atom, diagonal.
func initBasis(rng *rand.Rand, nSources, nBasis int, p *blocks.Partition) [][][]*matrix.Dense {
	u := make([][][]*matrix.Dense, nSources)
	for n := range u {
		u[n] = make([][]*matrix.Dense, p.NumBlocks())
		for b := range u[n] {
			size := p.Size(b)
			u[n][b] = make([]*matrix.Dense, nBasis)
			for k := range u[n][b] {
				d := matrix.Zeros(size, size)
				for i := 0; i < size; i++ {
					d.SetEntry(i, i, complex(rng.Float64(), 0))
				}
				u[n][b][k] = d
			}
		}
	}

	return u
}

// initActivation draws V[n][k][t] ~ Uniform[0,1).
func initActivation(rng *rand.Rand, nSources, nBasis, nFrames int) [][][]float64 {
	v := make([][][]float64, nSources)
	for n := range v {
		v[n] = make([][]float64, nBasis)
		for k := range v[n] {
			v[n][k] = make([]float64, nFrames)
			for t := range v[n][k] {
				v[n][k][t] = rng.Float64()
			}
		}
	}

	return v
}

// initLambda returns the all-ones auxiliary variable of the fixed-point update.
func initLambda(nSources, nBins int) [][]complex128 {
	l := make([][]complex128, nSources)
	for n := range l {
		l[n] = make([]complex128, nBins)
		for f := range l[n] {
			l[n][f] = 1
		}
	}

	return l
}
