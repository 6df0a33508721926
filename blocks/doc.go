// Package blocks describes how the frequency bins of a spectrogram are split
// into contiguous blocks for the block-diagonal covariance model.
//
// What:
//
//   - Partition is an ordered list of block sizes that sum exactly to the bin count.
//   - New applies the canonical split: with k = nBins/nBlocks and r = nBins%nBlocks,
//     the first nBlocks−r blocks have size k and the last r blocks have size k+1.
//   - FromSizes accepts any ragged sequence of positive sizes.
//   - Locate and Bin convert between a global bin index and (block, offset).
//
// Why:
//
//   - Every covariance update iterates over blocks through this one mapping, so
//     uniform and ragged partitions share a single code path.
//
// Complexity:
//
//   - New/FromSizes: O(nBlocks) time and memory.
//   - Locate: O(log nBlocks). Bin, Size, Start: O(1).
//
// Errors:
//
//   - ErrBlockCount: nBlocks outside [1, nBins].
//   - ErrEmptyBlock: a non-positive size passed to FromSizes.
//   - ErrOutOfRange: bin, block or offset outside the partition.
package blocks
