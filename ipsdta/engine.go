// SPDX-License-Identifier: MIT

package ipsdta

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/cmplx"
	"strings"
	"time"

	"github.com/katalvlaran/ipsdta/blocks"
	"github.com/katalvlaran/ipsdta/matrix"
)

// Engine owns one separation run: the observation, the partition, the model
// state and the loss trace. It is not safe for concurrent use; updates fan
// out internally.
type Engine struct {
	cfg     Config
	part    *blocks.Partition
	source  SourceUpdate  // resolved rule
	spatial SpatialUpdate // resolved rule
	workers int

	x                         [][][]complex128 // [channel][bin][frame], private copy
	nChannels, nBins, nFrames int

	state State
	loss  []float64
	iter  int

	observers []Observer
	logger    *slog.Logger
}

// New validates cfg and x, builds the block partition, initialises (or warm
// starts) the model, normalises it when enabled, records the initial loss and
// calls every observer once with Iteration == 0.
//
// Stages:
//   - Stage 1: configuration (Validate, StudentT ⇒ ErrNotImplemented).
//   - Stage 2: observation shape and finiteness; the tensor is deep-copied.
//   - Stage 3: partition (wrapped blocks.ErrBlockCount) and VCD uniformity
//     (ErrUnsupportedConfiguration).
//   - Stage 4: state from WithWarmStart, nil fields drawn from the seeded RNG.
//
// Errors:
//   - ErrUnknownVariant, ErrInvalidConfig, ErrNotImplemented,
//     ErrEmptyObservation, ErrShapeMismatch, ErrChannelSourceMismatch,
//     ErrUnsupportedConfiguration, blocks.ErrBlockCount, matrix.ErrNaNInf,
//     and numerical errors of the initial loss.
func New(x [][][]complex128, cfg Config, opts ...Option) (*Engine, error) {
	// Stage 1
	if err := cfg.Validate(); err != nil {
		return nil, ipsdtaErrorf(opNew, err)
	}
	if cfg.Variant == StudentT {
		return nil, ipsdtaErrorf(opNew, fmt.Errorf("%v: %w", cfg.Variant, ErrNotImplemented))
	}

	// Stage 2
	nCh, nBins, nFrames, err := observationShape(x)
	if err != nil {
		return nil, ipsdtaErrorf(opNew, err)
	}
	xc := make([][][]complex128, nCh)
	for c := range x {
		xc[c] = make([][]complex128, nBins)
		for f := range x[c] {
			for t, v := range x[c][f] {
				if cmplx.IsNaN(v) || cmplx.IsInf(v) {
					return nil, ipsdtaErrorf(opNew, fmt.Errorf("X[%d][%d][%d]: %w", c, f, t, matrix.ErrNaNInf))
				}
			}
			xc[c][f] = append([]complex128(nil), x[c][f]...)
		}
	}

	// Stage 3
	part, err := blocks.New(nBins, cfg.NumBlocks)
	if err != nil {
		return nil, ipsdtaErrorf(opNew, err)
	}
	if cfg.spatialRule() == SpatialVCD && !part.Uniform() {
		return nil, ipsdtaErrorf(opNew, fmt.Errorf("vcd over %v: %d of %d blocks have size %d: %w",
			part, part.Remainder(), part.NumBlocks(), part.MaxSize(), ErrUnsupportedConfiguration))
	}

	o := gatherOptions(opts...)
	e := &Engine{
		cfg:       cfg,
		part:      part,
		source:    cfg.sourceRule(),
		spatial:   cfg.spatialRule(),
		workers:   cfg.workers(),
		x:         xc,
		nChannels: nCh,
		nBins:     nBins,
		nFrames:   nFrames,
		observers: o.observers,
		logger:    o.logger,
	}

	// Stage 4
	if err = e.initState(o.warm); err != nil {
		return nil, ipsdtaErrorf(opNew, err)
	}
	if cfg.Normalize {
		e.normalize()
	}
	if cfg.RecordLoss {
		l, err := e.NegativeLogLikelihood()
		if err != nil {
			return nil, ipsdtaErrorf(opNew, err)
		}
		e.loss = append(e.loss, l)
	}

	e.logger.Info("ipsdta engine initialised",
		slog.String("variant", cfg.Variant.String()),
		slog.String("source_update", e.source.String()),
		slog.String("spatial_update", e.spatial.String()),
		slog.Int("channels", nCh),
		slog.Int("bins", nBins),
		slog.Int("frames", nFrames),
		slog.String("partition", part.String()),
		slog.Bool("warm_start", o.warm != nil),
	)
	e.notify()

	return e, nil
}

// initState copies validated warm-start fields and draws the rest.
func (e *Engine) initState(warm *State) error {
	var ws State
	if warm != nil {
		ws = *warm
	}
	nSources, nBasis := e.nChannels, e.cfg.NumBasis
	rng := rngFromSeed(e.cfg.Seed)

	if ws.W != nil {
		if len(ws.W) != e.nBins {
			return ipsdtaErrorf(opWarmStart, fmt.Errorf("W has %d bins, want %d: %w", len(ws.W), e.nBins, ErrShapeMismatch))
		}
		for f, wf := range ws.W {
			if wf == nil || wf.Rows() != nSources || wf.Cols() != e.nChannels {
				return ipsdtaErrorf(opWarmStart, fmt.Errorf("W[%d]: %w", f, ErrChannelSourceMismatch))
			}
		}
		e.state.W = ws.W
	} else {
		e.state.W = initDemixing(e.nBins, e.nChannels)
	}

	if ws.U != nil {
		if err := e.checkBasis(ws.U); err != nil {
			return ipsdtaErrorf(opWarmStart, err)
		}
		e.state.U = ws.U
	} else {
		e.state.U = initBasis(rng, nSources, nBasis, e.part)
	}

	if ws.V != nil {
		if err := e.checkActivation(ws.V); err != nil {
			return ipsdtaErrorf(opWarmStart, err)
		}
		e.state.V = ws.V
	} else {
		e.state.V = initActivation(rng, nSources, nBasis, e.nFrames)
	}

	switch {
	case ws.Lambda != nil:
		if len(ws.Lambda) != nSources {
			return ipsdtaErrorf(opWarmStart, fmt.Errorf("Lambda has %d sources, want %d: %w", len(ws.Lambda), nSources, ErrShapeMismatch))
		}
		for n, l := range ws.Lambda {
			if len(l) != e.nBins {
				return ipsdtaErrorf(opWarmStart, fmt.Errorf("Lambda[%d] has %d bins, want %d: %w", n, len(l), e.nBins, ErrShapeMismatch))
			}
		}
		e.state.Lambda = ws.Lambda
	case e.spatial == SpatialFixedPoint:
		e.state.Lambda = initLambda(nSources, e.nBins)
	}

	return nil
}

// checkBasis verifies U is [source][block][atom] with block-sized square
// matrices that are Hermitian PSD.
func (e *Engine) checkBasis(u [][][]*matrix.Dense) error {
	if len(u) != e.nChannels {
		return fmt.Errorf("U has %d sources, want %d: %w", len(u), e.nChannels, ErrShapeMismatch)
	}
	for n := range u {
		if len(u[n]) != e.part.NumBlocks() {
			return fmt.Errorf("U[%d] has %d blocks, want %d: %w", n, len(u[n]), e.part.NumBlocks(), ErrShapeMismatch)
		}
		for b := range u[n] {
			if len(u[n][b]) != e.cfg.NumBasis {
				return fmt.Errorf("U[%d][%d] has %d atoms, want %d: %w", n, b, len(u[n][b]), e.cfg.NumBasis, ErrShapeMismatch)
			}
			size := e.part.Size(b)
			for k, m := range u[n][b] {
				if m == nil || m.Rows() != size || m.Cols() != size {
					return fmt.Errorf("U[%d][%d][%d] want %dx%d: %w", n, b, k, size, size, ErrShapeMismatch)
				}
				if err := checkPSD(m); err != nil {
					return fmt.Errorf("U[%d][%d][%d]: %w", n, b, k, err)
				}
			}
		}
	}

	return nil
}

// psdTol is the relative tolerance for a warm-start basis: asymmetry and
// negative eigenvalues up to psdTol·max(1, max|U|) are rounding.
const psdTol = 1e-9

// checkPSD reports whether a warm-start basis matrix is finite, Hermitian and
// positive semidefinite within psdTol. Failures wrap ErrInvalidConfig and,
// where one applies, the matrix sentinel.
func checkPSD(m *matrix.Dense) error {
	if err := matrix.ValidateFinite(m); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	scale := 1.0
	for _, v := range m.Data() {
		scale = math.Max(scale, cmplx.Abs(v))
	}
	tol := psdTol * scale
	if err := matrix.ValidateHermitian(m, tol); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	ev, err := matrix.EigenvaluesHermitian(m)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for _, l := range ev {
		if l < -tol {
			return fmt.Errorf("eigenvalue %g: not positive semidefinite: %w", l, ErrInvalidConfig)
		}
	}

	return nil
}

// checkActivation verifies V is [source][atom][frame] with finite non-negative values.
func (e *Engine) checkActivation(v [][][]float64) error {
	if len(v) != e.nChannels {
		return fmt.Errorf("V has %d sources, want %d: %w", len(v), e.nChannels, ErrShapeMismatch)
	}
	for n := range v {
		if len(v[n]) != e.cfg.NumBasis {
			return fmt.Errorf("V[%d] has %d atoms, want %d: %w", n, len(v[n]), e.cfg.NumBasis, ErrShapeMismatch)
		}
		for k := range v[n] {
			if len(v[n][k]) != e.nFrames {
				return fmt.Errorf("V[%d][%d] has %d frames, want %d: %w", n, k, len(v[n][k]), e.nFrames, ErrShapeMismatch)
			}
			for t, val := range v[n][k] {
				switch {
				case math.IsNaN(val) || math.IsInf(val, 0):
					return fmt.Errorf("V[%d][%d][%d]=%g: %w: %w", n, k, t, val, ErrInvalidConfig, matrix.ErrNaNInf)
				case val < 0:
					return fmt.Errorf("V[%d][%d][%d]=%g must be >= 0: %w", n, k, t, val, ErrInvalidConfig)
				}
			}
		}
	}

	return nil
}

// Run performs iterations Steps, checking ctx before each one.
// A cancelled context stops the run between iterations with ctx.Err() wrapped;
// the state stays at the last completed iteration.
func (e *Engine) Run(ctx context.Context, iterations int) error {
	if iterations < 0 {
		return ipsdtaErrorf(opRun, fmt.Errorf("iterations=%d: %w", iterations, ErrInvalidConfig))
	}
	start := time.Now()
	for i := 0; i < iterations; i++ {
		select {
		case <-ctx.Done():
			return ipsdtaErrorf(opRun, ctx.Err())
		default:
		}
		if err := e.Step(); err != nil {
			e.logger.Error("ipsdta iteration failed",
				slog.Int("iteration", e.iter+1),
				slog.String("error", err.Error()),
			)

			return ipsdtaErrorf(opRun, err)
		}
	}

	attrs := []any{
		slog.Int("iterations", iterations),
		slog.Duration("duration", time.Since(start)),
	}
	if n := len(e.loss); n > 0 {
		attrs = append(attrs, slog.Float64("loss", e.loss[n-1]))
	}
	e.logger.Info("ipsdta run completed", attrs...)

	return nil
}

// Step performs one iteration: one source update (plus normalisation), then
// SpatialIterations demixing updates, then the loss (when recorded) and the
// observers.
func (e *Engine) Step() error {
	start := time.Now()
	y := separate(e.x, e.state.W, e.nChannels, e.nBins, e.nFrames)

	var err error
	switch e.source {
	case SourceEM:
		err = e.updateSourceEM(y)
	default:
		err = e.updateSourceMM(y)
	}
	if err != nil {
		return ipsdtaErrorf(opStep, err)
	}
	if e.cfg.Normalize {
		e.normalize()
	}

	for i := 0; i < e.cfg.SpatialIterations; i++ {
		switch e.spatial {
		case SpatialFixedPoint:
			err = e.updateSpatialFixedPoint()
		default:
			err = e.updateSpatialVCD()
		}
		if err != nil {
			return ipsdtaErrorf(opStep, err)
		}
	}
	e.iter++

	attrs := []any{
		slog.Int("iteration", e.iter),
		slog.Duration("duration", time.Since(start)),
	}
	if e.cfg.RecordLoss {
		l, err := e.NegativeLogLikelihood()
		if err != nil {
			return ipsdtaErrorf(opStep, err)
		}
		e.loss = append(e.loss, l)
		attrs = append(attrs, slog.Float64("loss", l))
	}
	e.logger.Debug("ipsdta iteration", attrs...)
	e.notify()

	return nil
}

// notify hands a deep-copied Snapshot to every observer in order.
func (e *Engine) notify() {
	if len(e.observers) == 0 {
		return
	}
	for _, obs := range e.observers {
		obs(e.Snapshot())
	}
}

// Snapshot returns a deep copy of the current progress.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Iteration: e.iter,
		Loss:      e.Loss(),
		State:     e.state.Clone(),
	}
}

// Estimate returns Y = W·X in freshly allocated [source][bin][frame] storage.
func (e *Engine) Estimate() [][][]complex128 {
	return separate(e.x, e.state.W, e.nChannels, e.nBins, e.nFrames)
}

// State returns a deep copy of W, U, V and Λ, suitable for WithWarmStart.
func (e *Engine) State() State { return e.state.Clone() }

// Loss returns a copy of the loss trace; nil when recording is disabled.
func (e *Engine) Loss() []float64 {
	if e.loss == nil {
		return nil
	}

	return append([]float64(nil), e.loss...)
}

// Iteration returns the number of completed iterations.
func (e *Engine) Iteration() int { return e.iter }

// Partition returns the block partition (immutable).
func (e *Engine) Partition() *blocks.Partition { return e.part }

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// Shape returns (channels, bins, frames) of the observation.
func (e *Engine) Shape() (channels, bins, frames int) {
	return e.nChannels, e.nBins, e.nFrames
}

// String describes the model, e.g.
// "Gauss-IPSDTA(n_basis=10, normalize=true, n_blocks=1024, author=Ikeshita)".
// n_blocks is shown for the Ikeshita variant only.
func (e *Engine) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Gauss-IPSDTA(n_basis=%d, normalize=%t", e.cfg.NumBasis, e.cfg.Normalize)
	if e.cfg.Variant == Ikeshita {
		fmt.Fprintf(&sb, ", n_blocks=%d", e.cfg.NumBlocks)
	}
	fmt.Fprintf(&sb, ", author=%s)", authorName(e.cfg.Variant))

	return sb.String()
}

// authorName capitalises the variant name for display.
func authorName(v Variant) string {
	switch v {
	case Ikeshita:
		return "Ikeshita"
	case Kondo:
		return "Kondo"
	}

	return v.String()
}
