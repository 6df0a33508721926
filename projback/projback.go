// SPDX-License-Identifier: MIT

// Package projback resolves the scale ambiguity of blind source separation by
// projecting every estimated source back onto a reference microphone.
//
// For source n and bin f the scale is the least-squares fit of the estimate
// to the reference channel:
//
//	z[n][f] = Σ_t x_ref[f][t] · conj(y_n[f][t]) / Σ_t |y_n[f][t]|²
//
// and the projected estimate is z[n][f] · y_n[f][t].
package projback

import (
	"errors"
	"fmt"
	"math/cmplx"
)

var (
	// ErrShape is returned when the reference and the estimate disagree in bins or frames.
	ErrShape = errors.New("projback: shape mismatch")

	// ErrReference is returned when the reference channel index is out of range.
	ErrReference = errors.New("projback: reference channel out of range")
)

// Scale returns z[source][bin] for estimate y ([source][bin][frame]) against
// reference ([bin][frame]). A bin whose estimate has zero energy gets z = 0.
// Errors: ErrShape.
func Scale(y [][][]complex128, reference [][]complex128) ([][]complex128, error) {
	z := make([][]complex128, len(y))
	for n := range y {
		if len(y[n]) != len(reference) {
			return nil, fmt.Errorf("Scale: source %d has %d bins, reference %d: %w", n, len(y[n]), len(reference), ErrShape)
		}
		z[n] = make([]complex128, len(y[n]))
		for f := range y[n] {
			yf, xf := y[n][f], reference[f]
			if len(yf) != len(xf) {
				return nil, fmt.Errorf("Scale: source %d bin %d has %d frames, reference %d: %w", n, f, len(yf), len(xf), ErrShape)
			}
			var (
				num complex128
				den float64
			)
			for t, v := range yf {
				num += xf[t] * cmplx.Conj(v)
				den += real(v)*real(v) + imag(v)*imag(v)
			}
			if den > 0 {
				z[n][f] = num / complex(den, 0)
			}
		}
	}

	return z, nil
}

// Apply returns z[n][f]·y[n][f][t] in fresh storage. Shapes must come from Scale.
func Apply(y [][][]complex128, z [][]complex128) [][][]complex128 {
	out := make([][][]complex128, len(y))
	for n := range y {
		out[n] = make([][]complex128, len(y[n]))
		for f := range y[n] {
			out[n][f] = make([]complex128, len(y[n][f]))
			for t, v := range y[n][f] {
				out[n][f][t] = z[n][f] * v
			}
		}
	}

	return out
}

// Project is Scale followed by Apply with x[ref] ([channel][bin][frame]) as the reference.
// Errors: ErrReference, ErrShape.
func Project(y, x [][][]complex128, ref int) ([][][]complex128, error) {
	if ref < 0 || ref >= len(x) {
		return nil, fmt.Errorf("Project(ref=%d, channels=%d): %w", ref, len(x), ErrReference)
	}
	z, err := Scale(y, x[ref])
	if err != nil {
		return nil, err
	}

	return Apply(y, z), nil
}
