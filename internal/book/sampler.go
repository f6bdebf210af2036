package book

import (
	"math"
	"sort"
	"time"
)

// Axis is the sticky classification of a touch gesture.
type Axis int

const (
	AxisUnknown Axis = iota
	AxisHorizontal
	AxisVertical
)

func (a Axis) String() string {
	switch a {
	case AxisHorizontal:
		return "horizontal"
	case AxisVertical:
		return "vertical"
	default:
		return "unknown"
	}
}

// SamplerState is the gesture sampler's memory between raw input events.
// It lives inside EngineState so the reducer stays pure.
type SamplerState struct {
	Active         bool
	ID             int
	OverScrollable bool

	StartX, StartY float64
	LastX, LastY   float64
	LastAt         time.Time

	Axis Axis

	LastWheelAt time.Time
}

// SampleOutput is what the sampler decided for one raw input event.
type SampleOutput struct {
	Actions []Action
	// PreventDefault reports that the host must suppress native scrolling.
	PreventDefault bool
}

// TouchStart begins tracking a touch. Only the first active touch is tracked.
func (s *SamplerState) TouchStart(ev TouchStart, at time.Time) SampleOutput {
	if s.Active {
		return SampleOutput{}
	}
	lastWheel := s.LastWheelAt
	*s = SamplerState{
		Active:         true,
		ID:             ev.ID,
		OverScrollable: ev.OverScrollable,
		StartX:         ev.X,
		StartY:         ev.Y,
		LastX:          ev.X,
		LastY:          ev.Y,
		LastAt:         at,
		LastWheelAt:    lastWheel,
	}
	return SampleOutput{}
}

// TouchMove classifies the gesture on the first move past the threshold and
// emits continuous samples once it is horizontal.
func (s *SamplerState) TouchMove(ev TouchMove, at time.Time, book State, cfg SamplerConfig) SampleOutput {
	if !s.Active || ev.ID != s.ID {
		return SampleOutput{}
	}

	switch s.Axis {
	case AxisVertical:
		return SampleOutput{}

	case AxisUnknown:
		dx := math.Abs(ev.X - s.StartX)
		dy := math.Abs(ev.Y - s.StartY)
		if dx <= cfg.ClassifyThresholdPx && dy <= cfg.ClassifyThresholdPx {
			return SampleOutput{}
		}
		horizontal := dx > dy
		if s.OverScrollable {
			horizontal = dx > cfg.ScrollableBias*dy
		}
		if !horizontal {
			s.Axis = AxisVertical
			return SampleOutput{}
		}
		s.Axis = AxisHorizontal
		s.LastX, s.LastY, s.LastAt = ev.X, ev.Y, at
		if book.PrefersReducedMotion {
			return SampleOutput{PreventDefault: true}
		}
		return SampleOutput{Actions: []Action{GestureBegin{}}, PreventDefault: true}
	}

	dx := ev.X - s.LastX
	dtMS := float64(at.Sub(s.LastAt)) / float64(time.Millisecond)
	if floor := float64(cfg.MinSampleInterval) / float64(time.Millisecond); dtMS < floor {
		dtMS = floor
	}
	s.LastX, s.LastY, s.LastAt = ev.X, ev.Y, at

	if book.PrefersReducedMotion {
		return SampleOutput{PreventDefault: true}
	}
	return SampleOutput{
		Actions: []Action{GestureSample{
			Delta:    dx * cfg.Sensitivity,
			Velocity: dx / dtMS,
		}},
		PreventDefault: true,
	}
}

// TouchEnd finishes the tracked touch. A horizontal gesture ends with
// GestureEnd, or under reduced motion with a single discrete turn when the
// total displacement passed the swipe threshold.
func (s *SamplerState) TouchEnd(ev TouchEnd, book State, cfg SamplerConfig) SampleOutput {
	if !s.Active || ev.ID != s.ID {
		return SampleOutput{}
	}
	axis := s.Axis
	total := s.LastX - s.StartX
	s.reset()

	if axis != AxisHorizontal {
		return SampleOutput{}
	}
	if !book.PrefersReducedMotion {
		return SampleOutput{Actions: []Action{GestureEnd{}}}
	}
	if math.Abs(total) <= cfg.SwipeThresholdPx {
		return SampleOutput{}
	}
	dir := Forward
	if total < 0 {
		dir = Backward
	}
	return SampleOutput{Actions: []Action{RequestJump{
		TargetPage: book.CurrentPageIndex + int(dir),
		Source:     SourceSwipe,
	}}}
}

// Wheel turns wheel input into a discrete one-page jump. It defers to native
// scrolling when the content under the pointer can still scroll.
func (s *SamplerState) Wheel(ev Wheel, at time.Time, book State, cfg SamplerConfig) SampleOutput {
	if ev.OverScrollable && ev.CanScroll {
		return SampleOutput{}
	}
	d := ev.DeltaY
	if math.Abs(ev.DeltaX) > math.Abs(ev.DeltaY) {
		d = ev.DeltaX
	}
	if math.Abs(d) < cfg.WheelMinDelta {
		return SampleOutput{}
	}
	if !s.LastWheelAt.IsZero() && at.Sub(s.LastWheelAt) < cfg.WheelDebounce {
		return SampleOutput{PreventDefault: true}
	}
	s.LastWheelAt = at

	dir := Forward
	if d < 0 {
		dir = Backward
	}
	return SampleOutput{
		Actions: []Action{RequestJump{
			TargetPage: book.CurrentPageIndex + int(dir),
			Source:     SourceWheel,
		}},
		PreventDefault: true,
	}
}

func (s *SamplerState) reset() {
	*s = SamplerState{LastWheelAt: s.LastWheelAt}
}

// KeyNavigation maps a navigation key to a discrete jump. It returns false
// for unknown keys, while a gesture or jump is in flight, and when the key
// would not move the book.
func KeyNavigation(key string, book State, sections []Section) (RequestJump, bool) {
	if book.Busy() {
		return RequestJump{}, false
	}
	cur := book.CurrentPageIndex
	target := cur
	switch key {
	case "ArrowRight", "ArrowDown":
		target = cur + 1
	case "ArrowLeft", "ArrowUp":
		target = cur - 1
	case "Home":
		target = 0
	case "End":
		target = book.LastPage()
	case "PageDown":
		next, ok := nextBoundary(cur, book, sections)
		if !ok {
			return RequestJump{}, false
		}
		target = next
	case "PageUp":
		prev, ok := prevBoundary(cur, book, sections)
		if !ok {
			return RequestJump{}, false
		}
		target = prev
	default:
		return RequestJump{}, false
	}
	target = book.ClampPage(target)
	if target == cur {
		return RequestJump{}, false
	}
	return RequestJump{TargetPage: target, Source: SourceKeyboard}, true
}

// SectionBoundaries returns the sorted, de-duplicated section start pages
// clamped to the book, always including page 0.
func SectionBoundaries(book State, sections []Section) []int {
	seen := map[int]bool{0: true}
	out := []int{0}
	for _, sec := range sections {
		p := book.ClampPage(sec.StartPage)
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

func nextBoundary(cur int, book State, sections []Section) (int, bool) {
	for _, b := range SectionBoundaries(book, sections) {
		if b > cur {
			return b, true
		}
	}
	return 0, false
}

func prevBoundary(cur int, book State, sections []Section) (int, bool) {
	bs := SectionBoundaries(book, sections)
	for i := len(bs) - 1; i >= 0; i-- {
		if bs[i] < cur {
			return bs[i], true
		}
	}
	return 0, false
}
