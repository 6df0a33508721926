// SPDX-License-Identifier: MIT

package blocks

import (
	"fmt"
	"sort"
	"strings"
)

// Partition is an immutable, ordered split of nBins frequency bins into
// contiguous blocks.
type Partition struct {
	sizes  []int // block sizes in bin order
	starts []int // starts[b] = first global bin of block b; len == len(sizes)+1
}

// Group is a maximal run of consecutive blocks sharing one size.
type Group struct {
	Size  int // block size of every block in the run
	First int // index of the first block in the run
	Count int // number of blocks in the run
}

// New returns the canonical partition of nBins bins into nBlocks blocks.
// The first nBlocks−r blocks have size k = nBins/nBlocks, the remaining
// r = nBins%nBlocks blocks have size k+1.
// Returns ErrBlockCount unless 1 ≤ nBlocks ≤ nBins.
// Complexity: O(nBlocks).
func New(nBins, nBlocks int) (*Partition, error) {
	if nBlocks < 1 || nBlocks > nBins {
		return nil, fmt.Errorf("New(n_bins=%d, n_blocks=%d): %w", nBins, nBlocks, ErrBlockCount)
	}
	k, r := nBins/nBlocks, nBins%nBlocks
	sizes := make([]int, nBlocks)
	for b := range sizes {
		sizes[b] = k
		if b >= nBlocks-r {
			sizes[b] = k + 1
		}
	}

	return build(sizes), nil
}

// FromSizes builds a partition from an arbitrary sequence of positive sizes.
// The input is copied.
// Returns ErrEmptyBlock for an empty list or any size <= 0.
func FromSizes(sizes []int) (*Partition, error) {
	if len(sizes) == 0 {
		return nil, fmt.Errorf("FromSizes: %w", ErrEmptyBlock)
	}
	cp := make([]int, len(sizes))
	for b, s := range sizes {
		if s <= 0 {
			return nil, fmt.Errorf("FromSizes: block %d has size %d: %w", b, s, ErrEmptyBlock)
		}
		cp[b] = s
	}

	return build(cp), nil
}

// build computes prefix starts; sizes must already be validated.
func build(sizes []int) *Partition {
	starts := make([]int, len(sizes)+1)
	for b, s := range sizes {
		starts[b+1] = starts[b] + s
	}

	return &Partition{sizes: sizes, starts: starts}
}

// Sizes returns a copy of the block sizes in bin order.
func (p *Partition) Sizes() []int {
	out := make([]int, len(p.sizes))
	copy(out, p.sizes)

	return out
}

// NumBlocks returns the number of blocks.
func (p *Partition) NumBlocks() int { return len(p.sizes) }

// NumBins returns the total number of bins (sum of sizes).
func (p *Partition) NumBins() int { return p.starts[len(p.sizes)] }

// Size returns the size of block b. Panics when b is out of range.
func (p *Partition) Size(b int) int { return p.sizes[b] }

// Start returns the first global bin of block b. Panics when b is out of range.
func (p *Partition) Start(b int) int { return p.starts[b] }

// MaxSize returns the largest block size.
func (p *Partition) MaxSize() int {
	m := 0
	for _, s := range p.sizes {
		if s > m {
			m = s
		}
	}

	return m
}

// Locate maps a global bin to (block, offset within block).
// Complexity: O(log nBlocks).
func (p *Partition) Locate(bin int) (block, offset int, err error) {
	if bin < 0 || bin >= p.NumBins() {
		return 0, 0, fmt.Errorf("Locate(%d): %w", bin, ErrOutOfRange)
	}
	// First block whose end (starts[b+1]) is beyond bin.
	block = sort.Search(len(p.sizes), func(b int) bool { return p.starts[b+1] > bin })

	return block, bin - p.starts[block], nil
}

// Bin maps (block, offset) back to the global bin index.
func (p *Partition) Bin(block, offset int) (int, error) {
	if block < 0 || block >= len(p.sizes) {
		return 0, fmt.Errorf("Bin(%d,%d): block: %w", block, offset, ErrOutOfRange)
	}
	if offset < 0 || offset >= p.sizes[block] {
		return 0, fmt.Errorf("Bin(%d,%d): offset: %w", block, offset, ErrOutOfRange)
	}

	return p.starts[block] + offset, nil
}

// Uniform reports whether all blocks have the same size.
func (p *Partition) Uniform() bool {
	for _, s := range p.sizes[1:] {
		if s != p.sizes[0] {
			return false
		}
	}

	return true
}

// Remainder returns the number of blocks larger than the first block; for a
// canonical partition this is nBins % nBlocks.
func (p *Partition) Remainder() int {
	r := 0
	for _, s := range p.sizes {
		if s > p.sizes[0] {
			r++
		}
	}

	return r
}

// Groups returns the maximal runs of equal-size consecutive blocks.
// A canonical partition yields one group (uniform) or two (low, high).
func (p *Partition) Groups() []Group {
	var out []Group
	for b, s := range p.sizes {
		if n := len(out); n > 0 && out[n-1].Size == s {
			out[n-1].Count++
			continue
		}
		out = append(out, Group{Size: s, First: b, Count: 1})
	}

	return out
}

// String renders the partition compactly, e.g. "Partition(4 bins: 1x2, 2x1)".
func (p *Partition) String() string {
	parts := make([]string, 0, 2)
	for _, g := range p.Groups() {
		parts = append(parts, fmt.Sprintf("%dx%d", g.Count, g.Size))
	}

	return fmt.Sprintf("Partition(%d bins: %s)", p.NumBins(), strings.Join(parts, ", "))
}
