package book

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampler_ClassifiesHorizontalAndEmitsSamples(t *testing.T) {
	cfg := DefaultConfig(10).Sampler
	book := NewState(10)
	t0 := time.Unix(10, 0)

	var s SamplerState
	s.TouchStart(TouchStart{ID: 1, X: 100, Y: 100}, t0)

	out := s.TouchMove(TouchMove{ID: 1, X: 105, Y: 103}, t0.Add(5*time.Millisecond), book, cfg)
	assert.Empty(t, out.Actions, "below classification threshold")
	assert.Equal(t, AxisUnknown, s.Axis)

	out = s.TouchMove(TouchMove{ID: 1, X: 120, Y: 104}, t0.Add(10*time.Millisecond), book, cfg)
	require.Equal(t, []Action{GestureBegin{}}, out.Actions)
	assert.True(t, out.PreventDefault)
	assert.Equal(t, AxisHorizontal, s.Axis)

	out = s.TouchMove(TouchMove{ID: 1, X: 160, Y: 90}, t0.Add(30*time.Millisecond), book, cfg)
	require.Len(t, out.Actions, 1)
	sample, ok := out.Actions[0].(GestureSample)
	require.True(t, ok, "got %T", out.Actions[0])
	assert.InDelta(t, 20.0, sample.Delta, 1e-9)
	assert.InDelta(t, 2.0, sample.Velocity, 1e-9)
	assert.True(t, out.PreventDefault)

	out = s.TouchEnd(TouchEnd{ID: 1}, book, cfg)
	assert.Equal(t, []Action{GestureEnd{}}, out.Actions)
	assert.False(t, s.Active)
}

func TestSampler_VelocityFloorsSampleInterval(t *testing.T) {
	cfg := DefaultConfig(10).Sampler
	book := NewState(10)
	t0 := time.Unix(10, 0)

	var s SamplerState
	s.TouchStart(TouchStart{ID: 1}, t0)
	s.TouchMove(TouchMove{ID: 1, X: 20}, t0.Add(time.Millisecond), book, cfg)

	out := s.TouchMove(TouchMove{ID: 1, X: 52}, t0.Add(2*time.Millisecond), book, cfg)
	require.Len(t, out.Actions, 1)
	assert.InDelta(t, 2.0, out.Actions[0].(GestureSample).Velocity, 1e-9)
}

func TestSampler_VerticalIsSticky(t *testing.T) {
	cfg := DefaultConfig(10).Sampler
	book := NewState(10)
	t0 := time.Unix(10, 0)

	var s SamplerState
	s.TouchStart(TouchStart{ID: 1}, t0)
	out := s.TouchMove(TouchMove{ID: 1, X: 2, Y: 15}, t0, book, cfg)
	assert.Empty(t, out.Actions)
	assert.False(t, out.PreventDefault)
	assert.Equal(t, AxisVertical, s.Axis)

	out = s.TouchMove(TouchMove{ID: 1, X: 200, Y: 15}, t0.Add(20*time.Millisecond), book, cfg)
	assert.Empty(t, out.Actions)
	assert.False(t, out.PreventDefault)

	out = s.TouchEnd(TouchEnd{ID: 1}, book, cfg)
	assert.Empty(t, out.Actions)
}

func TestSampler_ScrollableOriginBiasesTowardScrolling(t *testing.T) {
	cfg := DefaultConfig(10).Sampler
	book := NewState(10)
	t0 := time.Unix(10, 0)

	var plain SamplerState
	plain.TouchStart(TouchStart{ID: 1}, t0)
	plain.TouchMove(TouchMove{ID: 1, X: 15, Y: 10}, t0, book, cfg)
	assert.Equal(t, AxisHorizontal, plain.Axis)

	var over SamplerState
	over.TouchStart(TouchStart{ID: 1, OverScrollable: true}, t0)
	over.TouchMove(TouchMove{ID: 1, X: 15, Y: 10}, t0, book, cfg)
	assert.Equal(t, AxisVertical, over.Axis)

	var wide SamplerState
	wide.TouchStart(TouchStart{ID: 1, OverScrollable: true}, t0)
	wide.TouchMove(TouchMove{ID: 1, X: 25, Y: 10}, t0, book, cfg)
	assert.Equal(t, AxisHorizontal, wide.Axis)
}

func TestSampler_TracksFirstTouchOnly(t *testing.T) {
	cfg := DefaultConfig(10).Sampler
	book := NewState(10)
	t0 := time.Unix(10, 0)

	var s SamplerState
	s.TouchStart(TouchStart{ID: 1}, t0)
	s.TouchStart(TouchStart{ID: 2, X: 500}, t0)
	assert.Equal(t, 1, s.ID)

	out := s.TouchMove(TouchMove{ID: 2, X: 900}, t0, book, cfg)
	assert.Empty(t, out.Actions)
	out = s.TouchEnd(TouchEnd{ID: 2}, book, cfg)
	assert.Empty(t, out.Actions)
	assert.True(t, s.Active)
}

func TestSampler_ReducedMotionSwipe(t *testing.T) {
	cfg := DefaultConfig(10).Sampler
	book := NewState(10)
	book.CurrentPageIndex = 4
	book.PrefersReducedMotion = true
	t0 := time.Unix(10, 0)

	var s SamplerState
	s.TouchStart(TouchStart{ID: 1}, t0)
	out := s.TouchMove(TouchMove{ID: 1, X: -20}, t0.Add(16*time.Millisecond), book, cfg)
	assert.Empty(t, out.Actions, "no continuous output under reduced motion")
	assert.True(t, out.PreventDefault)
	out = s.TouchMove(TouchMove{ID: 1, X: -45}, t0.Add(32*time.Millisecond), book, cfg)
	assert.Empty(t, out.Actions)

	out = s.TouchEnd(TouchEnd{ID: 1}, book, cfg)
	assert.Equal(t, []Action{RequestJump{TargetPage: 3, Source: SourceSwipe}}, out.Actions)

	// A short swipe turns nothing.
	s.TouchStart(TouchStart{ID: 2}, t0)
	s.TouchMove(TouchMove{ID: 2, X: 25}, t0, book, cfg)
	out = s.TouchEnd(TouchEnd{ID: 2}, book, cfg)
	assert.Empty(t, out.Actions)
}

func TestSampler_Wheel(t *testing.T) {
	cfg := DefaultConfig(10).Sampler
	book := NewState(10)
	book.CurrentPageIndex = 4
	t0 := time.Unix(10, 0)

	var s SamplerState

	out := s.Wheel(Wheel{DeltaY: 80, OverScrollable: true, CanScroll: true}, t0, book, cfg)
	assert.Empty(t, out.Actions)
	assert.False(t, out.PreventDefault)

	out = s.Wheel(Wheel{DeltaY: 9}, t0, book, cfg)
	assert.Empty(t, out.Actions)

	out = s.Wheel(Wheel{DeltaX: -50, DeltaY: 20}, t0, book, cfg)
	assert.Equal(t, []Action{RequestJump{TargetPage: 3, Source: SourceWheel}}, out.Actions)
	assert.True(t, out.PreventDefault)

	out = s.Wheel(Wheel{DeltaY: 50}, t0.Add(100*time.Millisecond), book, cfg)
	assert.Empty(t, out.Actions, "debounced")

	// Scrollable content with no room left does not capture the wheel.
	out = s.Wheel(Wheel{DeltaY: 50, OverScrollable: true}, t0.Add(150*time.Millisecond), book, cfg)
	assert.Equal(t, []Action{RequestJump{TargetPage: 5, Source: SourceWheel}}, out.Actions)
}

func TestKeyNavigation(t *testing.T) {
	sections := []Section{{Name: "drawings", StartPage: 3}, {Name: "prints", StartPage: 7}}
	at := func(p int) State {
		s := NewState(10)
		s.CurrentPageIndex = p
		return s
	}

	tests := []struct {
		name   string
		key    string
		page   int
		want   int
		wantOK bool
	}{
		{"right", "ArrowRight", 4, 5, true},
		{"down", "ArrowDown", 4, 5, true},
		{"left", "ArrowLeft", 4, 3, true},
		{"left at start", "ArrowLeft", 0, 0, false},
		{"right at end", "ArrowRight", 9, 0, false},
		{"home", "Home", 6, 0, true},
		{"end", "End", 2, 9, true},
		{"page down to next section", "PageDown", 4, 7, true},
		{"page down past last section", "PageDown", 8, 0, false},
		{"page up to previous section", "PageUp", 4, 3, true},
		{"page up from section start", "PageUp", 3, 0, true},
		{"page up at start", "PageUp", 0, 0, false},
		{"unknown key", "Enter", 4, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := KeyNavigation(tt.key, at(tt.page), sections)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got.TargetPage)
				assert.Equal(t, SourceKeyboard, got.Source)
			}
		})
	}

	busy := at(4)
	busy.IsEngaged = true
	_, ok := KeyNavigation("ArrowRight", busy, sections)
	assert.False(t, ok)
}

func TestSectionBoundaries(t *testing.T) {
	book := NewState(10)
	got := SectionBoundaries(book, []Section{{StartPage: 7}, {StartPage: 3}, {StartPage: 3}, {StartPage: 40}})
	assert.Equal(t, []int{0, 3, 7, 9}, got)
}
