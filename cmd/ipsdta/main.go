// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/katalvlaran/ipsdta/internal/cli"
	"github.com/katalvlaran/ipsdta/ipsdta"
	"github.com/katalvlaran/ipsdta/mixer"
)

var (
	version = "0.1.0"
)

const description = "Blind source separation with independent positive semidefinite tensor analysis"

// CLI defines the command-line interface
type CLI struct {
	Config   string `short:"c" type:"existingfile" help:"Path to YAML config file (optional)"`
	LogLevel string `name:"log-level" enum:"debug,info,warn,error" default:"warn" help:"Log level for diagnostics on stderr"`

	Separate SeparateCmd `cmd:"" help:"Separate a multichannel WAV mixture into one WAV per source"`
	Mix      MixCmd      `cmd:"" help:"Build a synthetic convolutive mixture"`
	Version  VersionCmd  `cmd:"" help:"Show version information"`
}

// runContext is bound into every command's Run.
type runContext struct {
	ctx    context.Context
	logger *slog.Logger
	config string
}

// SeparateCmd flags override the config file; zero values leave it alone.
type SeparateCmd struct {
	Input       string  `arg:"" name:"mixture" type:"existingfile" help:"Multichannel WAV mixture"`
	OutDir      string  `short:"o" name:"out-dir" type:"path" default:"." help:"Directory for separated sources"`
	Variant     string  `short:"m" help:"Preset: ikeshita or kondo"`
	Basis       int     `short:"k" name:"n-basis" help:"Basis atoms per source"`
	Blocks      int     `name:"n-blocks" help:"Frequency blocks"`
	Iterations  int     `short:"n" help:"Iterations"`
	Spatial     int     `name:"spatial-iterations" help:"Demixing updates per iteration"`
	FFT         int     `name:"fft" help:"STFT frame size"`
	Hop         int     `help:"STFT hop"`
	Ref         string  `name:"ref" help:"Reference channel for projection back"`
	Seed        int64   `help:"Initialisation seed"`
	Workers     int     `help:"Parallel workers (0 = all CPUs)"`
	Eps         float64 `help:"Numerical floor"`
	NoNormalize bool    `name:"no-normalize" help:"Disable basis normalisation"`
	MetricsFile string  `name:"metrics-file" type:"path" help:"Write Prometheus metrics to this textfile"`
}

// apply overlays the non-zero flags on cfg.
func (c *SeparateCmd) apply(cfg *cli.FileConfig) error {
	sep := &cfg.Separation
	if c.Variant != "" {
		v, err := ipsdta.ParseVariant(c.Variant)
		if err != nil {
			return err
		}
		// Switching preset resets the preset-specific iteration count.
		if v != sep.Variant {
			sep.SpatialIterations = ipsdta.DefaultConfig(v).SpatialIterations
		}
		sep.Variant = v
	}
	if c.Basis != 0 {
		sep.NumBasis = c.Basis
	}
	if c.Blocks != 0 {
		sep.NumBlocks = c.Blocks
	}
	if c.Spatial != 0 {
		sep.SpatialIterations = c.Spatial
	}
	if c.Ref != "" {
		ref, err := strconv.Atoi(c.Ref)
		if err != nil {
			return fmt.Errorf("--ref=%q: %w", c.Ref, cli.ErrConfig)
		}
		sep.ReferenceID = ref
	}
	if c.Seed != 0 {
		sep.Seed = c.Seed
	}
	if c.Workers != 0 {
		sep.Workers = c.Workers
	}
	if c.Eps != 0 {
		sep.Eps = c.Eps
	}
	if c.NoNormalize {
		sep.Normalize = false
	}
	if c.Iterations != 0 {
		cfg.Iterations = c.Iterations
	}
	if c.FFT != 0 {
		cfg.STFT.FrameSize = c.FFT
	}
	if c.Hop != 0 {
		cfg.STFT.Hop = c.Hop
	}

	return cfg.Validate()
}

func (c *SeparateCmd) Run(rc *runContext) error {
	cfg, err := cli.LoadConfig(rc.config)
	if err != nil {
		return err
	}
	if err := c.apply(&cfg); err != nil {
		return err
	}

	res, err := cli.Separate(rc.ctx, cli.SeparateJob{
		Input:       c.Input,
		OutDir:      c.OutDir,
		MetricsFile: c.MetricsFile,
		Config:      cfg,
		Logger:      rc.logger,
	})
	if err != nil {
		return err
	}

	cli.PrintSummary(os.Stdout, "Separation complete", []cli.KV{
		{Key: "Model", Value: res.Engine},
		{Key: "Shape", Value: fmt.Sprintf("%d channels, %d bins, %d frames", res.Channels, res.Bins, res.Frames)},
		{Key: "Iterations", Value: strconv.Itoa(cfg.Iterations)},
		{Key: "Elapsed", Value: res.Elapsed.Round(time.Millisecond).String()},
		{Key: "Outputs", Value: strings.Join(res.Outputs, ", ")},
	})
	if len(res.Loss) > 0 {
		fmt.Println(cli.LossTable(res.Loss, 3))
	}

	return nil
}

// MixCmd writes a synthetic mixture.
type MixCmd struct {
	Sources  []string `arg:"" name:"sources" type:"existingfile" optional:"" help:"Source WAVs (channel 0 of each is used)"`
	Output   string   `short:"o" type:"path" default:"mixture.wav" help:"Output WAV"`
	Channels int      `help:"Microphones (0 = one per source)"`
	Tones    int      `default:"2" help:"Synthetic tone sources when no files are given"`
	Duration float64  `default:"4" help:"Synthetic source length in seconds"`
	Rate     int      `default:"16000" help:"Synthetic sample rate"`
	Taps     int      `default:"128" help:"Impulse response length in samples"`
	Decay    float64  `default:"24" help:"Reverberation decay in samples"`
	Seed     int64    `help:"Room and tone seed"`
	BitDepth int      `name:"bit-depth" default:"16" help:"Output bit depth"`
}

func (c *MixCmd) Run(rc *runContext) error {
	room := mixer.DefaultConfig()
	room.Taps, room.Decay, room.Seed = c.Taps, c.Decay, c.Seed

	res, err := cli.Mix(cli.MixJob{
		Sources:    c.Sources,
		Output:     c.Output,
		Channels:   c.Channels,
		Tones:      c.Tones,
		Duration:   c.Duration,
		SampleRate: c.Rate,
		BitDepth:   c.BitDepth,
		Room:       room,
		Logger:     rc.logger,
	})
	if err != nil {
		return err
	}

	cli.PrintSummary(os.Stdout, "Mixture written", []cli.KV{
		{Key: "Output", Value: res.Output},
		{Key: "Sources", Value: strconv.Itoa(res.Sources)},
		{Key: "Channels", Value: strconv.Itoa(res.Channels)},
		{Key: "Samples", Value: fmt.Sprintf("%d @ %d Hz", res.Samples, res.SampleRate)},
	})

	return nil
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (VersionCmd) Run() error {
	cli.PrintVersion(os.Stdout, version)
	return nil
}

func main() {
	cliArgs := &CLI{}
	kctx := kong.Parse(cliArgs,
		kong.Name("ipsdta"),
		kong.Description(description),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(description)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cliArgs.LogLevel)}))
	rc := &runContext{ctx: ctx, logger: logger, config: cliArgs.Config}

	if err := kctx.Run(rc); err != nil {
		cli.PrintError(err.Error())
		stop()
		os.Exit(1)
	}
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelWarn
	}
	return l
}
