// SPDX-License-Identifier: MIT

package ipsdta

import (
	"fmt"
	"math"
	"runtime"
	"strings"
)

// Variant selects a named preset of update rules.
//
//   - Ikeshita – EM source update + fixed-point demixing update,
//     NumBlocks=1024, SpatialIterations=1.
//   - Kondo    – MM source update + vector-wise coordinate descent (VCD),
//     NumBlocks=1024, SpatialIterations=10.
//   - StudentT – Student's t source model; named but without an update rule,
//     construction fails with ErrNotImplemented.
type Variant int

const (
	// VariantUnknown is the zero value and never valid.
	VariantUnknown Variant = iota

	// Ikeshita is the EM + fixed-point preset.
	Ikeshita

	// Kondo is the MM + VCD preset.
	Kondo

	// StudentT is the t-distribution model (not implemented).
	StudentT
)

var variantNames = map[Variant]string{
	Ikeshita: "ikeshita",
	Kondo:    "kondo",
	StudentT: "student-t",
}

// String returns the lower-case variant name, e.g. "ikeshita".
func (v Variant) String() string {
	if s, ok := variantNames[v]; ok {
		return s
	}

	return fmt.Sprintf("Variant(%d)", int(v))
}

// ParseVariant maps a case-insensitive name to a Variant.
// Accepted: "ikeshita", "kondo", "student-t" (also "studentt", "t").
func ParseVariant(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ikeshita":
		return Ikeshita, nil
	case "kondo":
		return Kondo, nil
	case "student-t", "studentt", "t":
		return StudentT, nil
	}

	return VariantUnknown, fmt.Errorf("ParseVariant(%q): %w", name, ErrUnknownVariant)
}

// MarshalText implements encoding.TextMarshaler (YAML, flags).
func (v Variant) MarshalText() ([]byte, error) {
	if _, ok := variantNames[v]; !ok {
		return nil, fmt.Errorf("Variant(%d): %w", int(v), ErrUnknownVariant)
	}

	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler (YAML, flags).
func (v *Variant) UnmarshalText(b []byte) error {
	p, err := ParseVariant(string(b))
	if err != nil {
		return err
	}
	*v = p

	return nil
}

// SourceUpdate selects the basis/activation update rule.
// SourceDefault defers to the variant.
type SourceUpdate int

const (
	// SourceDefault uses the variant's rule (EM for Ikeshita, MM for Kondo).
	SourceDefault SourceUpdate = iota
	// SourceEM is the expectation-maximisation update.
	SourceEM
	// SourceMM is the majorisation-minimisation update.
	SourceMM
)

// String returns "default", "em" or "mm".
func (s SourceUpdate) String() string {
	switch s {
	case SourceDefault:
		return "default"
	case SourceEM:
		return "em"
	case SourceMM:
		return "mm"
	}

	return fmt.Sprintf("SourceUpdate(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s SourceUpdate) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SourceUpdate) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "", "default":
		*s = SourceDefault
	case "em":
		*s = SourceEM
	case "mm":
		*s = SourceMM
	default:
		return fmt.Errorf("source update %q: %w", b, ErrInvalidConfig)
	}

	return nil
}

// SpatialUpdate selects the demixing-matrix update rule.
// SpatialDefault defers to the variant.
type SpatialUpdate int

const (
	// SpatialDefault uses the variant's rule (fixed point for Ikeshita, VCD for Kondo).
	SpatialDefault SpatialUpdate = iota
	// SpatialFixedPoint is the fixed-point iteration with the auxiliary Λ.
	SpatialFixedPoint
	// SpatialVCD is vector-wise coordinate descent (uniform partitions only).
	SpatialVCD
)

// String returns "default", "fixed-point" or "vcd".
func (s SpatialUpdate) String() string {
	switch s {
	case SpatialDefault:
		return "default"
	case SpatialFixedPoint:
		return "fixed-point"
	case SpatialVCD:
		return "vcd"
	}

	return fmt.Sprintf("SpatialUpdate(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s SpatialUpdate) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SpatialUpdate) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "", "default":
		*s = SpatialDefault
	case "fixed-point", "fixedpoint", "fp":
		*s = SpatialFixedPoint
	case "vcd":
		*s = SpatialVCD
	default:
		return fmt.Errorf("spatial update %q: %w", b, ErrInvalidConfig)
	}

	return nil
}

// Default values shared by all presets.
const (
	// DefaultNumBasis is the number of basis atoms per source.
	DefaultNumBasis = 10
	// DefaultNumBlocks is the requested number of frequency blocks.
	DefaultNumBlocks = 1024
	// DefaultEps is the numerical floor used by every projection and division.
	DefaultEps = 1e-12
	// DefaultNu is the Student's t degrees of freedom.
	DefaultNu = 1.0
)

// Config is the explicit configuration of one engine.
//
// Fields:
//   - Variant           – preset (Ikeshita, Kondo, StudentT).
//   - SourceUpdate      – override of the preset's source rule (SourceDefault keeps it).
//   - SpatialUpdate     – override of the preset's demixing rule (SpatialDefault keeps it).
//   - NumBasis          – atoms per source, ≥ 1.
//   - NumBlocks         – frequency blocks, 1 ≤ NumBlocks ≤ n_bins (checked in New).
//   - SpatialIterations – demixing updates per source update, ≥ 0.
//   - Normalize         – keep Σ_blocks trace(U) = 1 per source/atom.
//   - ReferenceID       – reference channel for projection back (not used by the engine).
//   - Eps               – numerical floor, > 0.
//   - RecordLoss        – append the negative log-likelihood after every iteration.
//   - Seed              – random initialisation seed; 0 selects a fixed default.
//   - Workers           – fan-out bound; 0 selects runtime.GOMAXPROCS(0).
//   - Nu                – Student's t degrees of freedom, > 0 (StudentT only).
type Config struct {
	Variant           Variant       `yaml:"variant"`
	SourceUpdate      SourceUpdate  `yaml:"source_update"`
	SpatialUpdate     SpatialUpdate `yaml:"spatial_update"`
	NumBasis          int           `yaml:"n_basis"`
	NumBlocks         int           `yaml:"n_blocks"`
	SpatialIterations int           `yaml:"spatial_iterations"`
	Normalize         bool          `yaml:"normalize"`
	ReferenceID       int           `yaml:"reference_id"`
	Eps               float64       `yaml:"eps"`
	RecordLoss        bool          `yaml:"record_loss"`
	Seed              int64         `yaml:"seed"`
	Workers           int           `yaml:"workers"`
	Nu                float64       `yaml:"nu"`
}

// DefaultConfig returns the documented preset for v. Unknown variants get the
// Ikeshita block defaults with Variant left as passed, so Validate reports them.
//
// Defaults:
//   - NumBasis: 10, NumBlocks: 1024, Normalize: true, ReferenceID: 0,
//     Eps: 1e-12, RecordLoss: true, Seed: 0, Workers: 0 (GOMAXPROCS), Nu: 1.
//   - SpatialIterations: 1 (Ikeshita), 10 (Kondo, StudentT).
func DefaultConfig(v Variant) Config {
	cfg := Config{
		Variant:           v,
		NumBasis:          DefaultNumBasis,
		NumBlocks:         DefaultNumBlocks,
		SpatialIterations: 1,
		Normalize:         true,
		Eps:               DefaultEps,
		RecordLoss:        true,
		Nu:                DefaultNu,
	}
	if v == Kondo || v == StudentT {
		cfg.SpatialIterations = 10
	}

	return cfg
}

// Validate checks every field that does not depend on the observation.
// The block count is checked against n_bins by New.
//
// Errors:
//   - ErrUnknownVariant for a Variant outside the closed set.
//   - ErrInvalidConfig for any other out-of-range field.
func (c Config) Validate() error {
	if _, ok := variantNames[c.Variant]; !ok {
		return ipsdtaErrorf(opValidate, fmt.Errorf("%v: %w", c.Variant, ErrUnknownVariant))
	}
	switch {
	case c.SourceUpdate < SourceDefault || c.SourceUpdate > SourceMM:
		return ipsdtaErrorf(opValidate, fmt.Errorf("SourceUpdate=%v: %w", c.SourceUpdate, ErrInvalidConfig))
	case c.SpatialUpdate < SpatialDefault || c.SpatialUpdate > SpatialVCD:
		return ipsdtaErrorf(opValidate, fmt.Errorf("SpatialUpdate=%v: %w", c.SpatialUpdate, ErrInvalidConfig))
	case c.NumBasis < 1:
		return ipsdtaErrorf(opValidate, fmt.Errorf("NumBasis=%d must be >= 1: %w", c.NumBasis, ErrInvalidConfig))
	case c.SpatialIterations < 0:
		return ipsdtaErrorf(opValidate, fmt.Errorf("SpatialIterations=%d must be >= 0: %w", c.SpatialIterations, ErrInvalidConfig))
	case c.ReferenceID < 0:
		return ipsdtaErrorf(opValidate, fmt.Errorf("ReferenceID=%d must be >= 0: %w", c.ReferenceID, ErrInvalidConfig))
	case !(c.Eps > 0) || math.IsInf(c.Eps, 0):
		return ipsdtaErrorf(opValidate, fmt.Errorf("Eps=%g must be finite and > 0: %w", c.Eps, ErrInvalidConfig))
	case c.Workers < 0:
		return ipsdtaErrorf(opValidate, fmt.Errorf("Workers=%d must be >= 0: %w", c.Workers, ErrInvalidConfig))
	case c.Variant == StudentT && (!(c.Nu > 0) || math.IsInf(c.Nu, 0)):
		return ipsdtaErrorf(opValidate, fmt.Errorf("Nu=%g must be finite and > 0: %w", c.Nu, ErrInvalidConfig))
	}

	return nil
}

// sourceRule resolves SourceDefault against the variant.
func (c Config) sourceRule() SourceUpdate {
	if c.SourceUpdate != SourceDefault {
		return c.SourceUpdate
	}
	if c.Variant == Ikeshita {
		return SourceEM
	}

	return SourceMM
}

// spatialRule resolves SpatialDefault against the variant.
func (c Config) spatialRule() SpatialUpdate {
	if c.SpatialUpdate != SpatialDefault {
		return c.SpatialUpdate
	}
	if c.Variant == Ikeshita {
		return SpatialFixedPoint
	}

	return SpatialVCD
}

// workers resolves Workers == 0 to GOMAXPROCS.
func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}

	return runtime.GOMAXPROCS(0)
}
