// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"
	"testing"

	"github.com/katalvlaran/ipsdta/internal/cli"
	"github.com/katalvlaran/ipsdta/ipsdta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeparateCmd_ApplyOverrides(t *testing.T) {
	t.Parallel()

	cfg := cli.DefaultFileConfig()
	cmd := SeparateCmd{
		Variant:     "Kondo",
		Basis:       3,
		Blocks:      16,
		Iterations:  9,
		FFT:         512,
		Hop:         128,
		Ref:         "1",
		Seed:        5,
		NoNormalize: true,
	}
	require.NoError(t, cmd.apply(&cfg))

	assert.Equal(t, ipsdta.Kondo, cfg.Separation.Variant)
	assert.Equal(t, 10, cfg.Separation.SpatialIterations, "preset switch picks the preset's spatial iterations")
	assert.Equal(t, 3, cfg.Separation.NumBasis)
	assert.Equal(t, 16, cfg.Separation.NumBlocks)
	assert.Equal(t, 1, cfg.Separation.ReferenceID)
	assert.Equal(t, int64(5), cfg.Separation.Seed)
	assert.False(t, cfg.Separation.Normalize)
	assert.Equal(t, 9, cfg.Iterations)
	assert.Equal(t, cli.STFTConfig{FrameSize: 512, Hop: 128}, cfg.STFT)
}

func TestSeparateCmd_ApplyKeepsUnsetFields(t *testing.T) {
	t.Parallel()

	cfg := cli.DefaultFileConfig()
	require.NoError(t, (&SeparateCmd{}).apply(&cfg))
	assert.Equal(t, cli.DefaultFileConfig(), cfg)
}

func TestSeparateCmd_ApplyErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cmd  SeparateCmd
		want error
	}{
		{"variant", SeparateCmd{Variant: "nobody"}, ipsdta.ErrUnknownVariant},
		{"ref", SeparateCmd{Ref: "first"}, cli.ErrConfig},
		{"hop", SeparateCmd{FFT: 64, Hop: 128}, cli.ErrConfig},
		{"basis", SeparateCmd{Basis: -1}, ipsdta.ErrInvalidConfig},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := cli.DefaultFileConfig()
			require.ErrorIs(t, tc.cmd.apply(&cfg), tc.want)
		})
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelWarn, parseLevel("loud"))
}
