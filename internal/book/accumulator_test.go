package book

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplySample_AccumulatorStaysBounded(t *testing.T) {
	cfg := DefaultConfig(50).Physics
	t0 := time.Unix(1000, 0).UTC()

	s := NewState(50)
	s.CurrentPageIndex = 25
	deltas := []float64{1e6, 1e6, -3e6, 12345, -1e9, 1e9, 0, -50}
	for i, d := range deltas {
		s = ApplySample(s, d, 3, t0.Add(time.Duration(i)*time.Millisecond), cfg)
		require.LessOrEqual(t, math.Abs(s.ScrollAccumulator), cfg.MaxTension, "sample %d", i)
	}
}

func TestApplySample_ReleaseAtThreshold(t *testing.T) {
	cfg := DefaultConfig(20).Physics
	t0 := time.Unix(1000, 0).UTC()

	s := NewState(20)
	s.CurrentPageIndex = 5

	next := ApplySample(s, 6000, 4.5, t0, cfg)

	require.Len(t, next.ReleasedPages, 1)
	rp := next.ReleasedPages[0]
	assert.Equal(t, 6, rp.PageIndex)
	assert.Equal(t, Forward, rp.Direction)
	assert.Equal(t, 4.5, rp.InitialVelocity)
	assert.True(t, rp.ReleaseTime.Equal(t0))

	assert.Equal(t, 6, next.CurrentPageIndex)
	assert.InDelta(t, 20.0, next.ScrollAccumulator, 1e-9)
	assert.True(t, next.IsEngaged)

	for _, bp := range next.BendingPages {
		assert.NotEqual(t, next.CurrentPageIndex, bp.PageIndex)
	}
	// Input is untouched.
	assert.Equal(t, 5, s.CurrentPageIndex)
	assert.Empty(t, s.ReleasedPages)
}

func TestApplySample_BackwardReleaseSubtractsSignedRelief(t *testing.T) {
	cfg := DefaultConfig(20).Physics
	s := NewState(20)
	s.CurrentPageIndex = 5

	next := ApplySample(s, -7000, -2, time.Unix(1, 0), cfg)

	require.Len(t, next.ReleasedPages, 1)
	assert.Equal(t, 4, next.ReleasedPages[0].PageIndex)
	assert.Equal(t, Backward, next.ReleasedPages[0].Direction)
	assert.Equal(t, 4, next.CurrentPageIndex)
	assert.InDelta(t, -30.0, next.ScrollAccumulator, 1e-9)
}

func TestApplySample_BendingFalloffAndOrdering(t *testing.T) {
	cfg := DefaultConfig(10).Physics
	s := ApplySample(NewState(10), 4500, 1, time.Unix(1, 0), cfg)

	require.Len(t, s.BendingPages, 4)
	wantBend := []float64{0.9, 0.63, 0.441, 0.3087}
	for i, bp := range s.BendingPages {
		assert.Equal(t, i+1, bp.PageIndex)
		assert.InDelta(t, wantBend[i], bp.BendAmount, 1e-9)
		assert.Equal(t, 4-i, bp.ZOffset)
	}
	assert.Empty(t, s.ReleasedPages)
}

func TestApplySample_BendingNeverCrossesBoundary(t *testing.T) {
	cfg := DefaultConfig(10).Physics

	last := NewState(10)
	last.CurrentPageIndex = 9
	s := ApplySample(last, 9000, 1, time.Unix(1, 0), cfg)
	assert.Empty(t, s.BendingPages)
	assert.Empty(t, s.ReleasedPages)
	assert.Equal(t, 9, s.CurrentPageIndex)

	near := NewState(10)
	near.CurrentPageIndex = 8
	s = ApplySample(near, 5000, 1, time.Unix(1, 0), cfg)
	require.Len(t, s.BendingPages, 1)
	assert.Equal(t, 9, s.BendingPages[0].PageIndex)

	first := NewState(10)
	s = ApplySample(first, -9000, -1, time.Unix(1, 0), cfg)
	assert.Empty(t, s.BendingPages)
	assert.Equal(t, 0, s.CurrentPageIndex)
}

func TestApplyGestureEnd_DiscardsBelowThreshold(t *testing.T) {
	cfg := DefaultConfig(10).Physics
	s := ApplySample(NewState(10), 2000, 1, time.Unix(1, 0), cfg)
	require.InDelta(t, 20.0, s.ScrollAccumulator, 1e-9)
	require.NotEmpty(t, s.BendingPages)

	end := ApplyGestureEnd(s, time.Unix(2, 0), cfg)

	assert.Zero(t, end.ScrollAccumulator)
	assert.Empty(t, end.BendingPages)
	assert.Empty(t, end.ReleasedPages)
	assert.False(t, end.IsEngaged)
	assert.Equal(t, 0, end.CurrentPageIndex)
}

func TestApplyGestureEnd_CascadeRelease(t *testing.T) {
	cfg := DefaultConfig(10).Physics
	t0 := time.Unix(100, 0).UTC()
	s := ApplySample(NewState(10), 4500, 2, t0, cfg)

	end := ApplyGestureEnd(s, t0, cfg)

	require.Len(t, end.ReleasedPages, 4)
	for i, rp := range end.ReleasedPages {
		assert.Equal(t, i+1, rp.PageIndex)
		assert.Equal(t, Forward, rp.Direction)
		assert.InDelta(t, 1.0, rp.InitialVelocity, 1e-9)
		assert.True(t, rp.ReleaseTime.Equal(t0.Add(time.Duration(i)*40*time.Millisecond)), "entry %d at %v", i, rp.ReleaseTime)
	}
	assert.Equal(t, 1, end.CurrentPageIndex)
	assert.Zero(t, end.ScrollAccumulator)
	assert.Empty(t, end.BendingPages)
	assert.False(t, end.IsEngaged)
}
