// SPDX-License-Identifier: MIT

// Package cli holds the command-line front end: the YAML configuration file,
// the separation and mixing pipelines, and terminal styling.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/katalvlaran/ipsdta/ipsdta"
	"github.com/katalvlaran/ipsdta/stft"
	"github.com/katalvlaran/ipsdta/wavio"
	"gopkg.in/yaml.v3"
)

// Front-end defaults. The separator's own defaults live in ipsdta.DefaultConfig;
// the CLI lowers NumBasis because short recordings rarely support ten atoms.
const (
	DefaultIterations = 50
	DefaultNumBasis   = 2
)

// ErrConfig is returned for an invalid configuration file or flag value.
var ErrConfig = errors.New("cli: invalid configuration")

// STFTConfig selects the analysis frame.
type STFTConfig struct {
	FrameSize int `yaml:"frame_size"`
	Hop       int `yaml:"hop"`
}

// FileConfig is the YAML configuration file. Unknown keys are rejected.
//
// Example:
//
//	separation:
//	  variant: kondo
//	  n_basis: 4
//	  n_blocks: 256
//	stft:
//	  frame_size: 1024
//	  hop: 256
//	iterations: 100
type FileConfig struct {
	Separation ipsdta.Config `yaml:"separation"`
	STFT       STFTConfig    `yaml:"stft"`
	Iterations int           `yaml:"iterations"`
	BitDepth   int           `yaml:"bit_depth"`
}

// DefaultFileConfig returns the Ikeshita preset with the front-end defaults.
func DefaultFileConfig() FileConfig {
	sep := ipsdta.DefaultConfig(ipsdta.Ikeshita)
	sep.NumBasis = DefaultNumBasis

	return FileConfig{
		Separation: sep,
		STFT:       STFTConfig{FrameSize: stft.DefaultFrameSize, Hop: stft.DefaultHop},
		Iterations: DefaultIterations,
		BitDepth:   wavio.DefaultBitDepth,
	}
}

// LoadConfig reads path over DefaultFileConfig. Keys absent from the file
// keep their defaults. An empty path returns the defaults.
func LoadConfig(path string) (FileConfig, error) {
	cfg := DefaultFileConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("LoadConfig(%s): %w", path, err)
	}
	defer f.Close()

	if err := DecodeConfig(f, &cfg); err != nil {
		return cfg, fmt.Errorf("LoadConfig(%s): %w", path, err)
	}

	return cfg, nil
}

// DecodeConfig decodes YAML from r into cfg (strict keys) and validates it.
// An empty document leaves cfg unchanged.
func DecodeConfig(r io.Reader, cfg *FileConfig) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}

	return cfg.Validate()
}

// Validate checks the front-end fields and the separator configuration.
func (c FileConfig) Validate() error {
	switch {
	case c.Iterations < 0:
		return fmt.Errorf("iterations=%d must be >= 0: %w", c.Iterations, ErrConfig)
	case c.STFT.FrameSize < 2:
		return fmt.Errorf("stft.frame_size=%d must be >= 2: %w", c.STFT.FrameSize, ErrConfig)
	case c.STFT.Hop < 1 || c.STFT.Hop > c.STFT.FrameSize:
		return fmt.Errorf("stft.hop=%d must be in [1, frame_size]: %w", c.STFT.Hop, ErrConfig)
	}

	return c.Separation.Validate()
}

// FitBlocks adapts sep.NumBlocks to an observation with bins frequency bins:
// it is clamped to bins and, when the demixing rule is VCD, lowered to the
// largest divisor of bins so the partition is uniform. It reports whether the
// value changed.
func FitBlocks(sep *ipsdta.Config, bins int) bool {
	nb := min(sep.NumBlocks, bins)
	if nb < 1 {
		return false // left for ipsdta.New to reject
	}
	vcd := sep.SpatialUpdate == ipsdta.SpatialVCD ||
		(sep.SpatialUpdate == ipsdta.SpatialDefault && sep.Variant != ipsdta.Ikeshita)
	if vcd {
		for bins%nb != 0 {
			nb--
		}
	}
	changed := nb != sep.NumBlocks
	sep.NumBlocks = nb

	return changed
}
