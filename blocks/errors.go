// SPDX-License-Identifier: MIT

package blocks

import "errors"

var (
	// ErrBlockCount indicates the requested number of blocks is not in [1, nBins].
	ErrBlockCount = errors.New("blocks: block count must satisfy 1 <= n_blocks <= n_bins")
	// ErrEmptyBlock indicates a block size <= 0, or an empty size list.
	ErrEmptyBlock = errors.New("blocks: block sizes must be positive")
	// ErrOutOfRange indicates a bin, block or in-block offset outside the partition.
	ErrOutOfRange = errors.New("blocks: index out of range")
)
