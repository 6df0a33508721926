// SPDX-License-Identifier: MIT

package stft

import "errors"

var (
	// ErrFrameSize is returned when the FFT size is below 2.
	ErrFrameSize = errors.New("stft: frame size must be >= 2")

	// ErrHop is returned when the hop is not in [1, frame size].
	ErrHop = errors.New("stft: hop must be in [1, frame size]")

	// ErrShape is returned when a spectrogram does not have Bins() rows of equal length.
	ErrShape = errors.New("stft: spectrogram shape mismatch")

	// ErrEmptySignal is returned for a signal with no samples or no channels.
	ErrEmptySignal = errors.New("stft: empty signal")
)
