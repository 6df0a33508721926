// SPDX-License-Identifier: MIT

// Package mixer builds reproducible synthetic convolutive mixtures for
// exercising the separator without recorded room data.
//
// Model:
//
//	x_c[t] = Σ_n Σ_k h_{c,n}[k] · s_n[t−k]
//
// where every impulse response h_{c,n} is a direct-path tap followed by an
// exponentially decaying Gaussian tail. The mixture is truncated to the source
// length and peak-normalised.
//
// Determinism:
//   - Same Config.Seed ⇒ identical impulse responses and identical mixtures.
//   - Seed==0 selects a fixed default seed.
//
// Complexity: O(C · N · T · L) for C channels, N sources, T samples, L taps.
package mixer

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Defaults used by DefaultConfig.
const (
	// DefaultTaps is the impulse-response length in samples.
	DefaultTaps = 128

	// DefaultDecay is the e-folding time of the reverberant tail, in samples.
	DefaultDecay = 24.0

	// DefaultTail scales the reverberant tail relative to the direct path.
	DefaultTail = 0.3

	// DefaultPeak is the absolute peak of the normalised mixture.
	DefaultPeak = 0.9
)

const defaultSeed int64 = 1

var (
	// ErrNoSources is returned when no source signal is supplied.
	ErrNoSources = errors.New("mixer: no sources")

	// ErrEmptySource is returned when a source has no samples.
	ErrEmptySource = errors.New("mixer: empty source")

	// ErrChannels is returned for a non-positive channel count.
	ErrChannels = errors.New("mixer: channel count must be positive")

	// ErrConfig is returned for out-of-range Config fields.
	ErrConfig = errors.New("mixer: invalid config")
)

// Config controls the synthetic room.
type Config struct {
	Taps  int     // impulse-response length, ≥ 1
	Decay float64 // tail e-folding time in samples, > 0
	Tail  float64 // tail gain, ≥ 0
	Peak  float64 // output peak; 0 disables normalisation
	Seed  int64   // 0 ⇒ default seed
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{Taps: DefaultTaps, Decay: DefaultDecay, Tail: DefaultTail, Peak: DefaultPeak}
}

func (c Config) validate() error {
	switch {
	case c.Taps < 1:
		return fmt.Errorf("Taps=%d: %w", c.Taps, ErrConfig)
	case !(c.Decay > 0):
		return fmt.Errorf("Decay=%g: %w", c.Decay, ErrConfig)
	case c.Tail < 0 || math.IsNaN(c.Tail):
		return fmt.Errorf("Tail=%g: %w", c.Tail, ErrConfig)
	case c.Peak < 0 || math.IsNaN(c.Peak):
		return fmt.Errorf("Peak=%g: %w", c.Peak, ErrConfig)
	}

	return nil
}

// ImpulseResponses draws h[channel][source][tap] from cfg.
// The direct-path gain of every pair lies in [0.5, 1); tails decay as exp(−k/Decay).
func ImpulseResponses(nChannels, nSources int, cfg Config) ([][][]float64, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if nChannels < 1 {
		return nil, fmt.Errorf("ImpulseResponses(%d): %w", nChannels, ErrChannels)
	}
	if nSources < 1 {
		return nil, fmt.Errorf("ImpulseResponses: %w", ErrNoSources)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = defaultSeed
	}
	rng := rand.New(rand.NewSource(seed))

	h := make([][][]float64, nChannels)
	for c := range h {
		h[c] = make([][]float64, nSources)
		for n := range h[c] {
			ir := make([]float64, cfg.Taps)
			ir[0] = 0.5 + 0.5*rng.Float64()
			for k := 1; k < cfg.Taps; k++ {
				ir[k] = cfg.Tail * rng.NormFloat64() * math.Exp(-float64(k)/cfg.Decay)
			}
			h[c][n] = ir
		}
	}

	return h, nil
}

// Convolve returns Σ_k h[k]·s[t−k] truncated to len(s).
func Convolve(s, h []float64) []float64 {
	out := make([]float64, len(s))
	for k, g := range h {
		if k >= len(s) {
			break
		}
		if g != 0 {
			floats.AddScaled(out[k:], g, s[:len(s)-k])
		}
	}

	return out
}

// Mix convolves every source into nChannels microphones. Sources shorter than
// the longest are zero-padded. The returned slice is [channel][sample].
func Mix(sources [][]float64, nChannels int, cfg Config) ([][]float64, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("Mix: %w", ErrNoSources)
	}
	length := 0
	for n, s := range sources {
		if len(s) == 0 {
			return nil, fmt.Errorf("Mix: source %d: %w", n, ErrEmptySource)
		}
		length = max(length, len(s))
	}
	h, err := ImpulseResponses(nChannels, len(sources), cfg)
	if err != nil {
		return nil, fmt.Errorf("Mix: %w", err)
	}

	padded := make([][]float64, len(sources))
	for n, s := range sources {
		padded[n] = make([]float64, length)
		copy(padded[n], s)
	}

	out := make([][]float64, nChannels)
	for c := range out {
		out[c] = make([]float64, length)
		for n, s := range padded {
			floats.Add(out[c], Convolve(s, h[c][n]))
		}
	}
	if cfg.Peak > 0 {
		Normalize(out, cfg.Peak)
	}

	return out, nil
}

// Normalize scales all channels jointly so the largest |sample| equals peak.
// Silent input is left untouched.
func Normalize(channels [][]float64, peak float64) {
	m := 0.0
	for _, ch := range channels {
		if len(ch) > 0 {
			m = math.Max(m, floats.Norm(ch, math.Inf(1)))
		}
	}
	if m == 0 {
		return
	}
	for _, ch := range channels {
		floats.Scale(peak/m, ch)
	}
}

// Tones returns n test sources of the given length. Source i is an
// amplitude-modulated harmonic tone whose fundamental and modulation rate
// differ per source, so the sources are mutually independent in practice.
func Tones(n, length, sampleRate int, seed int64) [][]float64 {
	if seed == 0 {
		seed = defaultSeed
	}
	rng := rand.New(rand.NewSource(seed))
	out := make([][]float64, n)
	fs := float64(sampleRate)
	for i := range out {
		f0 := 110 * math.Pow(1.5, float64(i)) * (1 + 0.05*rng.Float64())
		am := 0.7 + 1.3*float64(i) + rng.Float64()
		phase := 2 * math.Pi * rng.Float64()
		s := make([]float64, length)
		for t := range s {
			tt := float64(t) / fs
			env := 0.5 * (1 + math.Sin(2*math.Pi*am*tt+phase))
			v := 0.0
			for h := 1; h <= 4; h++ {
				v += math.Sin(2*math.Pi*f0*float64(h)*tt) / float64(h)
			}
			s[t] = env*v + 0.01*rng.NormFloat64()
		}
		out[i] = s
	}

	return out
}
