package book

import (
	"math"
	"time"
)

// The accumulator models paper tension. Continuous gesture samples integrate
// into a signed, bounded tension value; tension bends the pages next to the
// current one and, past the release threshold, commits a page turn.
//
// Interpretation of the knobs (PhysicsConfig):
//
//   - TensionDivisor: sample delta is divided by this before integrating
//   - MaxTension: |accumulator| clamp
//   - BendStep: every BendStep of intensity bends one more page
//   - BendScale / BendFalloff: bend of page i is min(1, intensity/BendScale * BendFalloff^i)
//   - ReleaseThreshold: mid-gesture auto-release
//   - ReleaseRelief: tension removed (signed) after each mid-gesture release
//   - DiscardThreshold: below this, gesture end turns nothing
//   - CascadeStagger / CascadeVelocityFactor: batch release timing on gesture end
//
// Both functions are pure: they clone the input and never touch it.

// ApplySample integrates one continuous sample into the book state.
func ApplySample(s State, delta, velocity float64, at time.Time, cfg PhysicsConfig) State {
	s = s.Clone()
	s.IsEngaged = true
	s.ScrollVelocity = velocity

	divisor := cfg.TensionDivisor
	if divisor <= 0 {
		divisor = defaultTensionDivisor
	}
	s.ScrollAccumulator = clampFloat(s.ScrollAccumulator+delta/divisor, -cfg.MaxTension, cfg.MaxTension)

	dir := directionOf(s.ScrollAccumulator)
	intensity := math.Abs(s.ScrollAccumulator)
	s.BendingPages = bendingPagesFor(s, dir, intensity, cfg)

	if intensity >= cfg.ReleaseThreshold && len(s.BendingPages) > 0 {
		nearest := s.BendingPages[0]
		s.ReleasedPages = append(s.ReleasedPages, ReleasedPage{
			PageIndex:       nearest.PageIndex,
			ReleaseTime:     at,
			InitialVelocity: velocity,
			Direction:       dir,
		})
		s.CurrentPageIndex = s.ClampPage(s.CurrentPageIndex + int(dir))
		s.ScrollAccumulator -= float64(dir) * cfg.ReleaseRelief
		s.BendingPages = s.BendingPages[1:]
		if len(s.BendingPages) == 0 {
			s.BendingPages = nil
		}
	}

	return s
}

// ApplyGestureEnd resolves residual tension when the gesture ends. Below the
// discard threshold all tension is dropped and nothing turns. Otherwise every
// bending page is released as a cascade and the book advances one page.
func ApplyGestureEnd(s State, at time.Time, cfg PhysicsConfig) State {
	s = s.Clone()
	s.IsEngaged = false

	if math.Abs(s.ScrollAccumulator) < cfg.DiscardThreshold || len(s.BendingPages) == 0 {
		s.ScrollAccumulator = 0
		s.BendingPages = nil
		return s
	}

	dir := directionOf(s.ScrollAccumulator)
	v := cfg.CascadeVelocityFactor * math.Abs(s.ScrollVelocity)
	for i, bp := range s.BendingPages {
		s.ReleasedPages = append(s.ReleasedPages, ReleasedPage{
			PageIndex:       bp.PageIndex,
			ReleaseTime:     at.Add(time.Duration(i) * cfg.CascadeStagger),
			InitialVelocity: v,
			Direction:       dir,
		})
	}
	s.CurrentPageIndex = s.ClampPage(s.CurrentPageIndex + int(dir))
	s.ScrollAccumulator = 0
	s.BendingPages = nil
	return s
}

// bendingPagesFor derives the bending list for the given tension.
// The list never contains the current page and never crosses the book boundary.
func bendingPagesFor(s State, dir Direction, intensity float64, cfg PhysicsConfig) []BendingPage {
	if intensity == 0 {
		return nil
	}
	count := int(math.Floor(intensity/cfg.BendStep)) + 1
	if remaining := s.PagesRemaining(dir); count > remaining {
		count = remaining
	}
	if count <= 0 {
		return nil
	}

	pages := make([]BendingPage, 0, count)
	for i := 0; i < count; i++ {
		bend := (intensity / cfg.BendScale) * math.Pow(cfg.BendFalloff, float64(i))
		if bend > 1 {
			bend = 1
		}
		pages = append(pages, BendingPage{
			PageIndex:  s.CurrentPageIndex + int(dir)*(i+1),
			BendAmount: bend,
			ZOffset:    count - i,
		})
	}
	return pages
}

// directionOf maps tension sign to a direction. Zero tension counts as backward,
// matching "accumulator > 0 ? forward : backward".
func directionOf(acc float64) Direction {
	if acc > 0 {
		return Forward
	}
	return Backward
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
