// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/katalvlaran/ipsdta/ipsdta"
	"github.com/katalvlaran/ipsdta/metrics"
	"github.com/katalvlaran/ipsdta/projback"
	"github.com/katalvlaran/ipsdta/stft"
	"github.com/katalvlaran/ipsdta/wavio"
	"github.com/prometheus/client_golang/prometheus"
)

// SeparateJob describes one run of the separation pipeline.
type SeparateJob struct {
	Input       string       // multichannel WAV mixture
	OutDir      string       // directory for <stem>_src<N>.wav outputs
	MetricsFile string       // optional Prometheus textfile; "" disables
	Config      FileConfig   // validated configuration
	Logger      *slog.Logger // nil discards
}

// SeparateResult summarises a finished run.
type SeparateResult struct {
	Engine     string // Engine.String()
	Channels   int
	Bins       int
	Frames     int
	SampleRate int
	Outputs    []string
	Loss       []float64
	Elapsed    time.Duration
}

// Separate runs read → STFT → separation → projection back → inverse STFT →
// one WAV per source.
func Separate(ctx context.Context, job SeparateJob) (*SeparateResult, error) {
	start := time.Now()
	logger := job.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cfg := job.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sig, err := wavio.Read(job.Input)
	if err != nil {
		return nil, err
	}
	if ref := cfg.Separation.ReferenceID; ref >= len(sig.Channels) {
		return nil, fmt.Errorf("reference channel %d with %d channels: %w", ref, len(sig.Channels), ErrConfig)
	}
	logger.Info("mixture loaded",
		slog.String("path", job.Input),
		slog.Int("channels", len(sig.Channels)),
		slog.Int("samples", sig.Len()),
		slog.Int("sample_rate", sig.SampleRate),
	)

	tr, err := stft.New(cfg.STFT.FrameSize, cfg.STFT.Hop)
	if err != nil {
		return nil, err
	}
	x, err := tr.ForwardMulti(sig.Channels)
	if err != nil {
		return nil, err
	}

	if requested := cfg.Separation.NumBlocks; FitBlocks(&cfg.Separation, tr.Bins()) {
		logger.Warn("block count adjusted to the frame",
			slog.Int("requested", requested),
			slog.Int("n_blocks", cfg.Separation.NumBlocks),
			slog.Int("bins", tr.Bins()),
		)
	}

	opts := []ipsdta.Option{ipsdta.WithLogger(logger)}
	var reg *prometheus.Registry
	if job.MetricsFile != "" {
		reg = prometheus.NewRegistry()
		opts = append(opts, ipsdta.WithObserver(metrics.NewObserver(reg, cfg.Separation.Variant)))
	}
	engine, err := ipsdta.New(x, cfg.Separation, opts...)
	if err != nil {
		return nil, err
	}
	if err := engine.Run(ctx, cfg.Iterations); err != nil {
		return nil, err
	}

	y, err := projback.Project(engine.Estimate(), x, cfg.Separation.ReferenceID)
	if err != nil {
		return nil, err
	}
	sources, err := tr.InverseMulti(y, sig.Len())
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(job.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("output directory: %w", err)
	}
	stem := strings.TrimSuffix(filepath.Base(job.Input), filepath.Ext(job.Input))
	outputs := make([]string, len(sources))
	for n, s := range sources {
		path := filepath.Join(job.OutDir, fmt.Sprintf("%s_src%d.wav", stem, n))
		if err := wavio.Write(path, [][]float64{s}, sig.SampleRate, cfg.BitDepth); err != nil {
			return nil, err
		}
		outputs[n] = path
		logger.Debug("source written", slog.Int("source", n), slog.String("path", path))
	}

	if reg != nil {
		if err := prometheus.WriteToTextfile(job.MetricsFile, reg); err != nil {
			return nil, fmt.Errorf("metrics file: %w", err)
		}
	}

	nCh, nBins, nFrames := engine.Shape()

	return &SeparateResult{
		Engine:     engine.String(),
		Channels:   nCh,
		Bins:       nBins,
		Frames:     nFrames,
		SampleRate: sig.SampleRate,
		Outputs:    outputs,
		Loss:       engine.Loss(),
		Elapsed:    time.Since(start),
	}, nil
}
