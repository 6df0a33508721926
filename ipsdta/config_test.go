// SPDX-License-Identifier: MIT

package ipsdta_test

import (
	"testing"

	"github.com/katalvlaran/ipsdta/ipsdta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig_Documented(t *testing.T) {
	t.Parallel()

	ik := ipsdta.DefaultConfig(ipsdta.Ikeshita)
	assert.Equal(t, ipsdta.Ikeshita, ik.Variant)
	assert.Equal(t, 10, ik.NumBasis)
	assert.Equal(t, 1024, ik.NumBlocks)
	assert.Equal(t, 1, ik.SpatialIterations)
	assert.True(t, ik.Normalize)
	assert.Equal(t, 0, ik.ReferenceID)
	assert.Equal(t, 1e-12, ik.Eps)
	assert.True(t, ik.RecordLoss)
	assert.Equal(t, int64(0), ik.Seed)
	assert.Equal(t, 0, ik.Workers)
	assert.Equal(t, 1.0, ik.Nu)
	assert.Equal(t, ipsdta.SourceDefault, ik.SourceUpdate)
	assert.Equal(t, ipsdta.SpatialDefault, ik.SpatialUpdate)
	require.NoError(t, ik.Validate())

	ko := ipsdta.DefaultConfig(ipsdta.Kondo)
	assert.Equal(t, 10, ko.SpatialIterations)
	require.NoError(t, ko.Validate())
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*ipsdta.Config)
		want   error
	}{
		{"unknown variant", func(c *ipsdta.Config) { c.Variant = ipsdta.VariantUnknown }, ipsdta.ErrUnknownVariant},
		{"variant out of range", func(c *ipsdta.Config) { c.Variant = 42 }, ipsdta.ErrUnknownVariant},
		{"zero basis", func(c *ipsdta.Config) { c.NumBasis = 0 }, ipsdta.ErrInvalidConfig},
		{"negative spatial iterations", func(c *ipsdta.Config) { c.SpatialIterations = -1 }, ipsdta.ErrInvalidConfig},
		{"negative reference", func(c *ipsdta.Config) { c.ReferenceID = -1 }, ipsdta.ErrInvalidConfig},
		{"zero eps", func(c *ipsdta.Config) { c.Eps = 0 }, ipsdta.ErrInvalidConfig},
		{"negative workers", func(c *ipsdta.Config) { c.Workers = -2 }, ipsdta.ErrInvalidConfig},
		{"bad source rule", func(c *ipsdta.Config) { c.SourceUpdate = 9 }, ipsdta.ErrInvalidConfig},
		{"bad spatial rule", func(c *ipsdta.Config) { c.SpatialUpdate = 9 }, ipsdta.ErrInvalidConfig},
		{"student-t nu", func(c *ipsdta.Config) { c.Variant = ipsdta.StudentT; c.Nu = 0 }, ipsdta.ErrInvalidConfig},
		{"zero spatial iterations ok", func(c *ipsdta.Config) { c.SpatialIterations = 0 }, nil},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := ipsdta.DefaultConfig(ipsdta.Ikeshita)
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestParseVariant(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]ipsdta.Variant{
		"ikeshita":  ipsdta.Ikeshita,
		"IKESHITA":  ipsdta.Ikeshita,
		" Kondo ":   ipsdta.Kondo,
		"student-t": ipsdta.StudentT,
		"t":         ipsdta.StudentT,
	} {
		got, err := ipsdta.ParseVariant(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ipsdta.ParseVariant("sawada")
	require.ErrorIs(t, err, ipsdta.ErrUnknownVariant)

	assert.Equal(t, "kondo", ipsdta.Kondo.String())
	assert.Equal(t, "Variant(9)", ipsdta.Variant(9).String())
	assert.Equal(t, "em", ipsdta.SourceEM.String())
	assert.Equal(t, "vcd", ipsdta.SpatialVCD.String())
}

func TestConfig_YAML(t *testing.T) {
	t.Parallel()

	src := []byte(`
variant: kondo
source_update: em
spatial_update: fixed-point
n_basis: 3
n_blocks: 16
normalize: false
eps: 1.0e-10
`)
	cfg := ipsdta.DefaultConfig(ipsdta.Ikeshita)
	require.NoError(t, yaml.Unmarshal(src, &cfg))
	assert.Equal(t, ipsdta.Kondo, cfg.Variant)
	assert.Equal(t, ipsdta.SourceEM, cfg.SourceUpdate)
	assert.Equal(t, ipsdta.SpatialFixedPoint, cfg.SpatialUpdate)
	assert.Equal(t, 3, cfg.NumBasis)
	assert.Equal(t, 16, cfg.NumBlocks)
	assert.False(t, cfg.Normalize)
	assert.Equal(t, 1e-10, cfg.Eps)
	assert.True(t, cfg.RecordLoss, "unset fields keep their defaults")

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(out), "variant: kondo")

	bad := ipsdta.DefaultConfig(ipsdta.Ikeshita)
	require.ErrorIs(t, yaml.Unmarshal([]byte("variant: ilrma\n"), &bad), ipsdta.ErrUnknownVariant)
}
