package book

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepCount(t *testing.T) {
	cfg := DefaultConfig(100).Sequencer

	tests := []struct {
		name     string
		distance int
		ctx      NavContext
		want     int
	}{
		{"riffle single page amplified", 1, NavRiffle, 8},
		{"riffle two pages still minimum", 2, NavRiffle, 8},
		{"riffle five pages", 5, NavRiffle, 20},
		{"riffle negative distance", -5, NavRiffle, 20},
		{"carousel single page", 1, NavCarousel, 1},
		{"carousel exact", 7, NavCarousel, 7},
		{"zero distance", 0, NavRiffle, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StepCount(tt.distance, tt.ctx, cfg))
		})
	}
}

func TestStepDuration(t *testing.T) {
	cfg := DefaultConfig(100).Sequencer

	assert.Equal(t, 250*time.Millisecond, StepDuration(1, cfg))
	assert.InDelta(t, float64(88388347), float64(StepDuration(8, cfg)), float64(time.Microsecond))
	assert.Equal(t, 40*time.Millisecond, StepDuration(100, cfg))
}

func TestPlanJump_RiffleSteps(t *testing.T) {
	cfg := DefaultConfig(10).Sequencer
	steps := PlanJump(4, 5, NavRiffle, cfg)

	require.Len(t, steps, 8)
	for i, st := range steps[:7] {
		assert.Equal(t, i, st.Index)
		assert.Equal(t, EasingBezier, st.Easing)
		assert.True(t, st.Curl)
		assert.False(t, st.ShowsContent)
		assert.False(t, st.Final)
		assert.Equal(t, StepDuration(8, cfg), st.Duration)
		assert.Equal(t, Forward, st.Direction)
	}
	last := steps[7]
	assert.True(t, last.Final)
	assert.True(t, last.ShowsContent)
	assert.Equal(t, EasingSpring, last.Easing)
	assert.Equal(t, 600*time.Millisecond, last.Duration)
	assert.Equal(t, 5, last.Page)
}

func TestPlanJump_CarouselBackward(t *testing.T) {
	cfg := DefaultConfig(10).Sequencer
	steps := PlanJump(5, 2, NavCarousel, cfg)

	require.Len(t, steps, 3)
	assert.Equal(t, []int{4, 3, 2}, []int{steps[0].Page, steps[1].Page, steps[2].Page})
	for _, st := range steps {
		assert.Equal(t, Backward, st.Direction)
	}
	assert.Nil(t, PlanJump(3, 3, NavCarousel, cfg))
}

func TestContextFor(t *testing.T) {
	assert.Equal(t, NavCarousel, ContextFor(SourceCarousel, ViewGrid))
	assert.Equal(t, NavRiffle, ContextFor(SourceTab, ViewCarousel))
	assert.Equal(t, NavRiffle, ContextFor(SourceKeyboard, ViewCarousel))
	assert.Equal(t, NavCarousel, ContextFor(SourceUnspecified, ViewCarousel))
	assert.Equal(t, NavRiffle, ContextFor(SourceUnspecified, ViewGrid))
}

func TestJumpState_AdvanceThroughPhases(t *testing.T) {
	cfg := DefaultConfig(10).Sequencer
	t0 := time.Unix(50, 0)
	steps := PlanJump(0, 2, NavCarousel, cfg)

	j := startJump([16]byte{1}, steps, NavCarousel, t0)
	assert.Equal(t, JumpSequencing, j.Phase)

	j, done := advanceJump(j, t0.Add(time.Second))
	require.False(t, done)
	assert.Equal(t, JumpSettling, j.Phase)
	assert.Equal(t, 1, j.StepIndex)

	j, done = advanceJump(j, t0.Add(2*time.Second))
	assert.True(t, done)
	assert.False(t, j.Active())

	assert.False(t, startJump([16]byte{2}, steps, NavCarousel, t0).TimedOut(t0.Add(9*time.Second), cfg))
	assert.True(t, startJump([16]byte{2}, steps, NavCarousel, t0).TimedOut(t0.Add(10*time.Second), cfg))
}
