// SPDX-License-Identifier: MIT
// Package ipsdta: sentinel error set.
// All constructors and updates return these sentinels (wrapped with an
// operation tag) and callers match them with errors.Is. Numerical failures
// from the matrix kernel (matrix.ErrSingular, matrix.ErrEigenFailed) pass
// through wrapped, unchanged.

package ipsdta

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownVariant is returned for a variant name or value outside the closed set.
	ErrUnknownVariant = errors.New("ipsdta: unknown variant")

	// ErrInvalidConfig is returned when a configuration field is out of range.
	ErrInvalidConfig = errors.New("ipsdta: invalid configuration")

	// ErrShapeMismatch is returned when the observation is ragged or a warm-start
	// tensor does not match the observation and configuration.
	ErrShapeMismatch = errors.New("ipsdta: shape mismatch")

	// ErrEmptyObservation is returned when the observation has no channel, bin or frame.
	ErrEmptyObservation = errors.New("ipsdta: empty observation")

	// ErrChannelSourceMismatch is returned when a demixing matrix is not
	// sources×channels with sources == channels.
	ErrChannelSourceMismatch = errors.New("ipsdta: number of sources must equal number of channels")

	// ErrUnsupportedConfiguration is returned at construction for combinations
	// that have no update rule, e.g. VCD over a partition with unequal block sizes.
	ErrUnsupportedConfiguration = errors.New("ipsdta: unsupported configuration")

	// ErrNotImplemented is returned at construction for named variants without
	// a working update rule (StudentT).
	ErrNotImplemented = errors.New("ipsdta: variant not implemented")
)

// Operation tags used when wrapping errors.
const (
	opNew        = "New"
	opValidate   = "Config.Validate"
	opWarmStart  = "WarmStart"
	opStep       = "Step"
	opRun        = "Run"
	opSourceEM   = "SourceEM"
	opSourceMM   = "SourceMM"
	opFixedPoint = "FixedPoint"
	opVCD        = "VCD"
	opLoss       = "NegativeLogLikelihood"
)

// ipsdtaErrorf wraps err with an operation tag; err must be non-nil.
func ipsdtaErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
