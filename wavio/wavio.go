// SPDX-License-Identifier: MIT

// Package wavio reads and writes PCM WAV files as planar float64 channels
// in [-1, 1].
package wavio

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// DefaultBitDepth is the sample width used by Write when bitDepth is 0.
const DefaultBitDepth = 16

var (
	// ErrInvalidFile is returned when the input is not a readable PCM WAV.
	ErrInvalidFile = errors.New("wavio: invalid WAV file")

	// ErrNoChannels is returned when Write receives no channels.
	ErrNoChannels = errors.New("wavio: no channels")

	// ErrRaggedChannels is returned when Write receives channels of unequal length.
	ErrRaggedChannels = errors.New("wavio: channels differ in length")

	// ErrBitDepth is returned for a bit depth other than 8, 16, 24 or 32.
	ErrBitDepth = errors.New("wavio: unsupported bit depth")

	// ErrSampleRate is returned for a non-positive sample rate.
	ErrSampleRate = errors.New("wavio: sample rate must be positive")
)

// Signal is a decoded multichannel recording.
type Signal struct {
	Channels   [][]float64 // [channel][sample], scaled to [-1, 1]
	SampleRate int
	BitDepth   int
}

// Len returns the number of samples per channel.
func (s *Signal) Len() int {
	if len(s.Channels) == 0 {
		return 0
	}

	return len(s.Channels[0])
}

// Read decodes the WAV at path and de-interleaves it.
func Read(path string) (*Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Read(%s): %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("Read(%s): %w", path, ErrInvalidFile)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("Read(%s): decoding PCM: %w", path, err)
	}
	nch := int(dec.NumChans)
	depth := int(dec.BitDepth)
	if nch < 1 {
		return nil, fmt.Errorf("Read(%s): %d channels: %w", path, nch, ErrInvalidFile)
	}
	scale, err := fullScale(depth)
	if err != nil {
		return nil, fmt.Errorf("Read(%s): %w", path, err)
	}

	n := len(buf.Data) / nch
	out := make([][]float64, nch)
	for c := range out {
		out[c] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for c := 0; c < nch; c++ {
			v := buf.Data[i*nch+c]
			if depth == 8 {
				v -= 128 // 8-bit PCM is unsigned
			}
			out[c][i] = float64(v) / scale
		}
	}

	return &Signal{Channels: out, SampleRate: int(dec.SampleRate), BitDepth: depth}, nil
}

// Write encodes channels ([channel][sample]) as an interleaved PCM WAV.
// Samples outside [-1, 1] are clipped. bitDepth 0 selects DefaultBitDepth.
func Write(path string, channels [][]float64, sampleRate, bitDepth int) (err error) {
	if len(channels) == 0 {
		return fmt.Errorf("Write(%s): %w", path, ErrNoChannels)
	}
	n := len(channels[0])
	for c, ch := range channels {
		if len(ch) != n {
			return fmt.Errorf("Write(%s): channel %d has %d samples, want %d: %w", path, c, len(ch), n, ErrRaggedChannels)
		}
	}
	if sampleRate <= 0 {
		return fmt.Errorf("Write(%s): %d: %w", path, sampleRate, ErrSampleRate)
	}
	if bitDepth == 0 {
		bitDepth = DefaultBitDepth
	}
	scale, err := fullScale(bitDepth)
	if err != nil {
		return fmt.Errorf("Write(%s): %w", path, err)
	}

	nch := len(channels)
	data := make([]int, n*nch)
	for i := 0; i < n; i++ {
		for c := 0; c < nch; c++ {
			v := math.Max(-1, math.Min(1, channels[c][i]))
			q := int(math.Round(v * scale))
			if q > int(scale)-1 {
				q = int(scale) - 1
			}
			if bitDepth == 8 {
				q += 128
			}
			data[i*nch+c] = q
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("Write(%s): %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("Write(%s): %w", path, cerr)
		}
	}()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, nch, 1) // 1 = PCM
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: nch, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err = enc.Write(buf); err != nil {
		return fmt.Errorf("Write(%s): encoding: %w", path, err)
	}
	if err = enc.Close(); err != nil {
		return fmt.Errorf("Write(%s): finalising header: %w", path, err)
	}

	return nil
}

// fullScale returns 2^(bitDepth-1), the magnitude of the most negative sample.
func fullScale(bitDepth int) (float64, error) {
	switch bitDepth {
	case 8, 16, 24, 32:
		return math.Ldexp(1, bitDepth-1), nil
	}

	return 0, fmt.Errorf("%d bits: %w", bitDepth, ErrBitDepth)
}
