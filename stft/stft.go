// SPDX-License-Identifier: MIT

// Package stft implements the short-time Fourier transform used to turn
// multichannel audio into the [channel][bin][frame] tensor the separator
// consumes, and the weighted overlap-add inverse that turns estimates back
// into waveforms.
//
// The analysis window is a half-sample-shifted Hann window,
// w[i] = sin²(π(i+½)/N), which is strictly positive, so the inverse
// reconstructs every sample covered by at least one frame for any hop ≤ N.
package stft

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// Defaults used by the command-line front end.
const (
	DefaultFrameSize = 2048
	DefaultHop       = 1024
)

// Transform holds the FFT plan and window for one (frame size, hop) pair.
// A Transform is not safe for concurrent use (the FFT plan keeps scratch space).
type Transform struct {
	size, hop int
	window    []float64
	fft       *fourier.FFT
	frame     []float64 // scratch, len size
}

// New returns a Transform with frame length size and hop hop.
// Errors: ErrFrameSize, ErrHop.
func New(size, hop int) (*Transform, error) {
	if size < 2 {
		return nil, fmt.Errorf("New(size=%d): %w", size, ErrFrameSize)
	}
	if hop < 1 || hop > size {
		return nil, fmt.Errorf("New(size=%d, hop=%d): %w", size, hop, ErrHop)
	}
	w := make([]float64, size)
	for i := range w {
		s := math.Sin(math.Pi * (float64(i) + 0.5) / float64(size))
		w[i] = s * s
	}

	return &Transform{
		size:   size,
		hop:    hop,
		window: w,
		fft:    fourier.NewFFT(size),
		frame:  make([]float64, size),
	}, nil
}

// Size returns the frame length.
func (tr *Transform) Size() int { return tr.size }

// Hop returns the frame advance.
func (tr *Transform) Hop() int { return tr.hop }

// Bins returns the number of non-negative frequency bins, size/2+1.
func (tr *Transform) Bins() int { return tr.size/2 + 1 }

// Window returns a copy of the analysis window.
func (tr *Transform) Window() []float64 { return append([]float64(nil), tr.window...) }

// Frames returns how many frames cover n samples (the tail is zero-padded).
func (tr *Transform) Frames(n int) int {
	if n <= tr.size {
		return 1
	}

	return (n-tr.size+tr.hop-1)/tr.hop + 1
}

// Forward returns the spectrogram of x indexed [bin][frame].
// Errors: ErrEmptySignal.
func (tr *Transform) Forward(x []float64) ([][]complex128, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("Forward: %w", ErrEmptySignal)
	}
	nFrames := tr.Frames(len(x))
	out := make([][]complex128, tr.Bins())
	for f := range out {
		out[f] = make([]complex128, nFrames)
	}

	coeff := make([]complex128, tr.Bins())
	for t := 0; t < nFrames; t++ {
		start := t * tr.hop
		clear(tr.frame)
		if start < len(x) {
			copy(tr.frame, x[start:min(start+tr.size, len(x))])
		}
		floats.Mul(tr.frame, tr.window)
		tr.fft.Coefficients(coeff, tr.frame)
		for f, c := range coeff {
			out[f][t] = c
		}
	}

	return out, nil
}

// Inverse reconstructs length samples from a [bin][frame] spectrogram by
// weighted overlap-add: x = Σ_t w·ifft(S_t) / Σ_t w².
// Errors: ErrShape.
func (tr *Transform) Inverse(spec [][]complex128, length int) ([]float64, error) {
	if len(spec) != tr.Bins() || len(spec[0]) == 0 {
		return nil, fmt.Errorf("Inverse: %d bins, want %d: %w", len(spec), tr.Bins(), ErrShape)
	}
	nFrames := len(spec[0])
	for f := range spec {
		if len(spec[f]) != nFrames {
			return nil, fmt.Errorf("Inverse: bin %d has %d frames, want %d: %w", f, len(spec[f]), nFrames, ErrShape)
		}
	}

	total := (nFrames-1)*tr.hop + tr.size
	acc := make([]float64, total)
	norm := make([]float64, total)
	coeff := make([]complex128, tr.Bins())
	for t := 0; t < nFrames; t++ {
		for f := range coeff {
			coeff[f] = spec[f][t]
		}
		tr.fft.Sequence(tr.frame, coeff)
		floats.Scale(1/float64(tr.size), tr.frame)
		floats.Mul(tr.frame, tr.window)

		start := t * tr.hop
		floats.Add(acc[start:start+tr.size], tr.frame)
		for i, w := range tr.window {
			norm[start+i] += w * w
		}
	}
	for i, n := range norm {
		if n > 1e-12 {
			acc[i] /= n
		}
	}

	out := make([]float64, length)
	copy(out, acc)

	return out, nil
}

// ForwardMulti transforms every channel of x ([channel][sample], equal
// lengths) into a [channel][bin][frame] tensor.
// Errors: ErrEmptySignal, ErrShape for unequal channel lengths.
func (tr *Transform) ForwardMulti(x [][]float64) ([][][]complex128, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("ForwardMulti: %w", ErrEmptySignal)
	}
	out := make([][][]complex128, len(x))
	for c := range x {
		if len(x[c]) != len(x[0]) {
			return nil, fmt.Errorf("ForwardMulti: channel %d has %d samples, want %d: %w", c, len(x[c]), len(x[0]), ErrShape)
		}
		s, err := tr.Forward(x[c])
		if err != nil {
			return nil, fmt.Errorf("ForwardMulti: channel %d: %w", c, err)
		}
		out[c] = s
	}

	return out, nil
}

// InverseMulti reconstructs length samples for every [bin][frame] slice of y.
func (tr *Transform) InverseMulti(y [][][]complex128, length int) ([][]float64, error) {
	out := make([][]float64, len(y))
	for n := range y {
		s, err := tr.Inverse(y[n], length)
		if err != nil {
			return nil, fmt.Errorf("InverseMulti: source %d: %w", n, err)
		}
		out[n] = s
	}

	return out, nil
}
