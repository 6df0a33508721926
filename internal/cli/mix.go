// SPDX-License-Identifier: MIT

package cli

import (
	"fmt"
	"log/slog"

	"github.com/katalvlaran/ipsdta/mixer"
	"github.com/katalvlaran/ipsdta/wavio"
)

// MixJob describes one synthetic mixture.
//
// With Sources empty, Tones synthetic sources of Duration seconds at
// SampleRate are generated instead of reading files.
type MixJob struct {
	Sources    []string
	Output     string
	Channels   int // 0 ⇒ one per source
	Tones      int
	Duration   float64
	SampleRate int
	BitDepth   int
	Room       mixer.Config
	Logger     *slog.Logger
}

// MixResult summarises a written mixture.
type MixResult struct {
	Output     string
	Sources    int
	Channels   int
	Samples    int
	SampleRate int
}

// Mix convolves the sources with a seeded synthetic room and writes the
// multichannel result. Multichannel source files contribute channel 0.
func Mix(job MixJob) (*MixResult, error) {
	logger := job.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var (
		sources [][]float64
		rate    = job.SampleRate
	)
	if len(job.Sources) == 0 {
		if job.Tones < 1 || job.Duration <= 0 || rate <= 0 {
			return nil, fmt.Errorf("tones=%d duration=%g rate=%d: %w", job.Tones, job.Duration, rate, ErrConfig)
		}
		sources = mixer.Tones(job.Tones, int(job.Duration*float64(rate)), rate, job.Room.Seed)
	} else {
		rate = 0
		for _, path := range job.Sources {
			sig, err := wavio.Read(path)
			if err != nil {
				return nil, err
			}
			if rate != 0 && sig.SampleRate != rate {
				return nil, fmt.Errorf("%s: sample rate %d differs from %d: %w", path, sig.SampleRate, rate, ErrConfig)
			}
			rate = sig.SampleRate
			sources = append(sources, sig.Channels[0])
		}
	}

	nch := job.Channels
	if nch == 0 {
		nch = len(sources)
	}
	out, err := mixer.Mix(sources, nch, job.Room)
	if err != nil {
		return nil, err
	}
	if err := wavio.Write(job.Output, out, rate, job.BitDepth); err != nil {
		return nil, err
	}
	logger.Info("mixture written",
		slog.String("path", job.Output),
		slog.Int("sources", len(sources)),
		slog.Int("channels", nch),
	)

	return &MixResult{Output: job.Output, Sources: len(sources), Channels: nch, Samples: len(out[0]), SampleRate: rate}, nil
}
