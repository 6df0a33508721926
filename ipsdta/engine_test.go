// SPDX-License-Identifier: MIT

package ipsdta_test

import (
	"context"
	"math"
	"math/cmplx"
	"testing"

	"github.com/katalvlaran/ipsdta/blocks"
	"github.com/katalvlaran/ipsdta/ipsdta"
	"github.com/katalvlaran/ipsdta/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarioA_EMFixedPoint: 2 channels, 4 bins, 2 blocks, 3 frames,
// 1 atom, 1 iteration of EM + fixed point.
func TestScenarioA_EMFixedPoint(t *testing.T) {
	t.Parallel()

	x := syntheticMixture(1, 2, 4, 3)
	cfg := smallConfig(ipsdta.Ikeshita, 1, 2)
	e := mustEngine(t, x, cfg)
	require.NoError(t, e.Run(context.Background(), 1))

	loss := e.Loss()
	require.Len(t, loss, 2)
	requireFiniteLoss(t, loss)

	s := e.State()
	require.Len(t, s.W, 4)
	for f, w := range s.W {
		_, err := matrix.Inverse(w)
		require.NoErrorf(t, err, "W[%d] must stay invertible", f)
	}
	requireFiniteState(t, s)
	require.Len(t, s.Lambda, 2)
	require.Len(t, s.Lambda[0], 4)

	y := e.Estimate()
	require.Len(t, y, 2)
	require.Len(t, y[0], 4)
	require.Len(t, y[0][0], 3)
}

// TestScenarioB_MMFixedPointRagged: 4 bins over 3 blocks → sizes [1,1,2].
func TestScenarioB_MMFixedPointRagged(t *testing.T) {
	t.Parallel()

	x := syntheticMixture(2, 2, 4, 6)
	cfg := smallConfig(ipsdta.Ikeshita, 2, 3)
	cfg.SourceUpdate = ipsdta.SourceMM
	e := mustEngine(t, x, cfg)
	assert.Equal(t, []int{1, 1, 2}, e.Partition().Sizes())

	require.NoError(t, e.Run(context.Background(), 2))
	requireFiniteLoss(t, e.Loss())

	s := e.State()
	for n := range s.U {
		for b, size := range []int{1, 1, 2} {
			for k := range s.U[n][b] {
				assert.Equal(t, size, s.U[n][b][k].Rows())
			}
		}
	}
	requirePSDBasis(t, s.U, 1e-9)
}

// TestScenarioC_VCDRaggedRejected: VCD needs equal block sizes.
func TestScenarioC_VCDRaggedRejected(t *testing.T) {
	t.Parallel()

	x := syntheticMixture(3, 2, 4, 6)
	_, err := ipsdta.New(x, smallConfig(ipsdta.Kondo, 1, 3))
	require.ErrorIs(t, err, ipsdta.ErrUnsupportedConfiguration)
	// 4 bins over 3 blocks: sizes 1, 1, 2.
	assert.Contains(t, err.Error(), "1 of 3 blocks have size 2")

	cfg := smallConfig(ipsdta.Ikeshita, 1, 3)
	cfg.SpatialUpdate = ipsdta.SpatialVCD
	_, err = ipsdta.New(x, cfg)
	require.ErrorIs(t, err, ipsdta.ErrUnsupportedConfiguration)
}

func TestKondo_UniformRuns(t *testing.T) {
	t.Parallel()

	x := syntheticMixture(4, 2, 8, 24)
	cfg := smallConfig(ipsdta.Kondo, 2, 4)
	cfg.SpatialIterations = 2
	e := mustEngine(t, x, cfg)
	require.NoError(t, e.Run(context.Background(), 15))

	require.Len(t, e.Loss(), 16)
	requireFiniteLoss(t, e.Loss())
	requireFiniteState(t, e.State())
	requirePSDBasis(t, e.State().U, 1e-9)
	assert.Nil(t, e.State().Lambda, "VCD keeps no auxiliary variable")
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	good := syntheticMixture(5, 2, 4, 5)
	nan := syntheticMixture(5, 2, 4, 5)
	nan[1][2][3] = complex(math.NaN(), 0)
	ragged := syntheticMixture(5, 2, 4, 5)
	ragged[1][2] = ragged[1][2][:4]

	tests := []struct {
		name string
		x    [][][]complex128
		cfg  ipsdta.Config
		want error
	}{
		{"student-t", good, smallConfig(ipsdta.StudentT, 1, 2), ipsdta.ErrNotImplemented},
		{"unknown variant", good, smallConfig(ipsdta.VariantUnknown, 1, 2), ipsdta.ErrUnknownVariant},
		{"too many blocks", good, smallConfig(ipsdta.Ikeshita, 1, 5), blocks.ErrBlockCount},
		{"default blocks exceed bins", good, ipsdta.DefaultConfig(ipsdta.Ikeshita), blocks.ErrBlockCount},
		{"empty", nil, smallConfig(ipsdta.Ikeshita, 1, 2), ipsdta.ErrEmptyObservation},
		{"no frames", [][][]complex128{{{}}}, smallConfig(ipsdta.Ikeshita, 1, 1), ipsdta.ErrEmptyObservation},
		{"ragged", ragged, smallConfig(ipsdta.Ikeshita, 1, 2), ipsdta.ErrShapeMismatch},
		{"nan", nan, smallConfig(ipsdta.Ikeshita, 1, 2), matrix.ErrNaNInf},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ipsdta.New(tc.x, tc.cfg)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestNew_CopiesObservation(t *testing.T) {
	t.Parallel()

	x := syntheticMixture(6, 2, 4, 5)
	e := mustEngine(t, x, smallConfig(ipsdta.Ikeshita, 1, 2))
	before := e.Estimate()[0][0][0]
	x[0][0][0] = 1e6
	assert.Equal(t, before, e.Estimate()[0][0][0])
}

func TestWarmStart_ContinuesLoss(t *testing.T) {
	t.Parallel()

	x := syntheticMixture(7, 2, 8, 16)
	cfg := smallConfig(ipsdta.Ikeshita, 2, 4)
	a := mustEngine(t, x, cfg)
	require.NoError(t, a.Run(context.Background(), 2))

	b := mustEngine(t, x, cfg, ipsdta.WithWarmStart(a.State()))
	la, lb := a.Loss(), b.Loss()
	require.Len(t, lb, 1)
	assert.InDelta(t, la[len(la)-1], lb[0], 1e-6*math.Abs(la[len(la)-1])+1e-9)
	assert.Equal(t, a.State().Lambda, b.State().Lambda)
}

func TestWarmStart_PartialFields(t *testing.T) {
	t.Parallel()

	x := syntheticMixture(8, 2, 4, 6)
	cfg := smallConfig(ipsdta.Ikeshita, 1, 2)
	a := mustEngine(t, x, cfg)
	require.NoError(t, a.Run(context.Background(), 1))

	// Only W is carried; U, V and Λ are drawn afresh.
	b := mustEngine(t, x, cfg, ipsdta.WithWarmStart(ipsdta.State{W: a.State().W}))
	for f := range a.State().W {
		assert.Equal(t, a.State().W[f].Data(), b.State().W[f].Data())
	}
	for _, l := range b.State().Lambda[0] {
		assert.Equal(t, complex(1, 0), l)
	}
}

func TestWarmStart_Mismatch(t *testing.T) {
	t.Parallel()

	x := syntheticMixture(9, 2, 4, 6)
	cfg := smallConfig(ipsdta.Ikeshita, 1, 2)
	good := mustEngine(t, x, cfg).State()

	tests := []struct {
		name  string
		state func() ipsdta.State
		want  error
	}{
		{"W bins", func() ipsdta.State { s := good.Clone(); s.W = s.W[:3]; return s }, ipsdta.ErrShapeMismatch},
		{"W non-square", func() ipsdta.State { s := good.Clone(); s.W[0] = matrix.Zeros(2, 3); return s }, ipsdta.ErrChannelSourceMismatch},
		{"U blocks", func() ipsdta.State { s := good.Clone(); s.U[0] = s.U[0][:1]; return s }, ipsdta.ErrShapeMismatch},
		{"U size", func() ipsdta.State { s := good.Clone(); s.U[1][0][0] = matrix.Eye(3); return s }, ipsdta.ErrShapeMismatch},
		{"V frames", func() ipsdta.State { s := good.Clone(); s.V[0][0] = s.V[0][0][:2]; return s }, ipsdta.ErrShapeMismatch},
		{"U not Hermitian", func() ipsdta.State { s := good.Clone(); s.U[0][1][0] = basisWith(0, 1, 2i); return s }, matrix.ErrNotHermitian},
		{"U indefinite", func() ipsdta.State { s := good.Clone(); s.U[1][0][0] = basisWith(1, 1, -1); return s }, ipsdta.ErrInvalidConfig},
		{"U NaN", func() ipsdta.State { s := good.Clone(); s.U[0][0][0] = basisWith(0, 0, cmplx.NaN()); return s }, matrix.ErrNaNInf},
		{"V negative", func() ipsdta.State { s := good.Clone(); s.V[0][0][1] = -1; return s }, ipsdta.ErrInvalidConfig},
		{"V NaN", func() ipsdta.State { s := good.Clone(); s.V[1][0][2] = math.NaN(); return s }, matrix.ErrNaNInf},
		{"V Inf", func() ipsdta.State { s := good.Clone(); s.V[1][0][0] = math.Inf(1); return s }, ipsdta.ErrInvalidConfig},
		{"Lambda bins", func() ipsdta.State { s := good.Clone(); s.Lambda[0] = s.Lambda[0][:1]; return s }, ipsdta.ErrShapeMismatch},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ipsdta.New(x, cfg, ipsdta.WithWarmStart(tc.state()))
			require.ErrorIs(t, err, tc.want)
		})
	}
}

// basisWith returns a 2x2 identity with entry (i, j) replaced by v.
func basisWith(i, j int, v complex128) *matrix.Dense {
	m := matrix.Eye(2)
	m.SetEntry(i, j, v)

	return m
}

func TestRun_ContextCancelled(t *testing.T) {
	t.Parallel()

	x := syntheticMixture(10, 2, 4, 6)
	e := mustEngine(t, x, smallConfig(ipsdta.Ikeshita, 1, 2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, e.Run(ctx, 5), context.Canceled)
	assert.Equal(t, 0, e.Iteration())
	assert.Len(t, e.Loss(), 1)

	require.ErrorIs(t, e.Run(context.Background(), -1), ipsdta.ErrInvalidConfig)
}

func TestRecordLossDisabled(t *testing.T) {
	t.Parallel()

	x := syntheticMixture(11, 2, 4, 6)
	cfg := smallConfig(ipsdta.Ikeshita, 1, 2)
	cfg.RecordLoss = false
	e := mustEngine(t, x, cfg)
	require.NoError(t, e.Run(context.Background(), 2))
	assert.Nil(t, e.Loss())
	assert.Equal(t, 2, e.Iteration())

	l, err := e.NegativeLogLikelihood()
	require.NoError(t, err)
	assert.False(t, math.IsNaN(l))
}

func TestObservers(t *testing.T) {
	t.Parallel()

	x := syntheticMixture(12, 2, 4, 6)
	var snaps []ipsdta.Snapshot
	var order []string
	e := mustEngine(t, x, smallConfig(ipsdta.Ikeshita, 1, 2),
		ipsdta.WithObserver(func(s ipsdta.Snapshot) {
			snaps = append(snaps, s)
			order = append(order, "a")
		}),
		ipsdta.WithObserver(func(ipsdta.Snapshot) { order = append(order, "b") }),
	)
	require.Len(t, snaps, 1)
	assert.Equal(t, 0, snaps[0].Iteration)
	require.Len(t, snaps[0].Loss, 1)

	require.NoError(t, e.Run(context.Background(), 2))
	require.Len(t, snaps, 3)
	assert.Equal(t, []string{"a", "b", "a", "b", "a", "b"}, order)
	for i, s := range snaps {
		assert.Equal(t, i, s.Iteration)
		assert.Len(t, s.Loss, i+1)
		last, ok := s.LastLoss()
		require.True(t, ok)
		assert.Equal(t, e.Loss()[i], last)
	}

	// Snapshots are deep copies.
	snaps[2].State.V[0][0][0] = -42
	snaps[2].State.W[0].SetEntry(0, 0, 99)
	assert.NotEqual(t, -42.0, e.State().V[0][0][0])
	assert.NotEqual(t, complex(99, 0), e.State().W[0].Entry(0, 0))

	assert.Panics(t, func() { ipsdta.WithObserver(nil) })
	assert.Panics(t, func() { ipsdta.WithLogger(nil) })
}

func TestEngine_String(t *testing.T) {
	t.Parallel()

	x := syntheticMixture(13, 2, 8, 4)
	ik := mustEngine(t, x, smallConfig(ipsdta.Ikeshita, 3, 4))
	assert.Equal(t, "Gauss-IPSDTA(n_basis=3, normalize=true, n_blocks=4, author=Ikeshita)", ik.String())

	ko := mustEngine(t, x, smallConfig(ipsdta.Kondo, 2, 4))
	assert.Equal(t, "Gauss-IPSDTA(n_basis=2, normalize=true, author=Kondo)", ko.String())

	c, f, tt := ko.Shape()
	assert.Equal(t, []int{2, 8, 4}, []int{c, f, tt})
	assert.Equal(t, ipsdta.Kondo, ko.Config().Variant)
}

func TestSeparate(t *testing.T) {
	t.Parallel()

	x := syntheticMixture(14, 2, 3, 4)
	w := []*matrix.Dense{matrix.Eye(2), matrix.Eye(2), matrix.Eye(2)}
	y, err := ipsdta.Separate(x, w)
	require.NoError(t, err)
	assert.Equal(t, x, y)

	swap, err := matrix.NewDenseFrom([][]complex128{{0, 2}, {1, 0}})
	require.NoError(t, err)
	y, err = ipsdta.Separate(x, []*matrix.Dense{swap, swap, swap})
	require.NoError(t, err)
	assert.Equal(t, 2*x[1][2][3], y[0][2][3])
	assert.Equal(t, x[0][1][0], y[1][1][0])

	_, err = ipsdta.Separate(x, w[:2])
	require.ErrorIs(t, err, ipsdta.ErrShapeMismatch)
	_, err = ipsdta.Separate(x, []*matrix.Dense{matrix.Eye(2), matrix.Eye(3), matrix.Eye(2)})
	require.ErrorIs(t, err, ipsdta.ErrChannelSourceMismatch)
	_, err = ipsdta.Separate(nil, w)
	require.ErrorIs(t, err, ipsdta.ErrEmptyObservation)
}
