package book

import "time"

// ReduceBook is the store: the single writer of State. It maps
// (state, action) to the next state deterministically and is total: invalid
// or out-of-range input is clamped or ignored, never reported as an error.
//
// now stamps released pages; callers pass the event time.
func ReduceBook(s State, a Action, now time.Time, cfg Config) State {
	switch act := a.(type) {
	case RequestJump:
		if s.IsFlipping || s.IsRiffling || s.IsEngaged {
			return s
		}
		target := s.ClampPage(act.TargetPage)
		if target == s.CurrentPageIndex {
			return s
		}
		s = s.Clone()
		if s.PrefersReducedMotion {
			s.CurrentPageIndex = target
			s.TargetPageIndex = nil
			return s
		}
		s.TargetPageIndex = intPtr(target)
		s.IsFlipping = true
		s.IsRiffling = true
		return s

	case CompleteJump:
		s = s.Clone()
		if s.TargetPageIndex != nil {
			s.CurrentPageIndex = s.ClampPage(*s.TargetPageIndex)
		}
		s.TargetPageIndex = nil
		s.IsFlipping = false
		s.IsRiffling = false
		return s

	case SettleJump:
		if !s.IsRiffling {
			return s
		}
		s = s.Clone()
		s.IsRiffling = false
		return s

	case GestureBegin:
		// A continuous gesture never starts on top of a discrete jump.
		if s.IsFlipping || s.IsEngaged {
			return s
		}
		s = s.Clone()
		s.IsEngaged = true
		return s

	case GestureSample:
		if s.IsFlipping {
			return s
		}
		return ApplySample(s, act.Delta, act.Velocity, now, cfg.Physics)

	case GestureEnd:
		if s.IsFlipping && !s.IsEngaged {
			return s
		}
		return ApplyGestureEnd(s, now, cfg.Physics)

	case PageLanded:
		for i, rp := range s.ReleasedPages {
			if rp.PageIndex != act.PageIndex {
				continue
			}
			s = s.Clone()
			s.ReleasedPages = append(s.ReleasedPages[:i], s.ReleasedPages[i+1:]...)
			if len(s.ReleasedPages) == 0 {
				s.ReleasedPages = nil
			}
			return s
		}
		return s

	case ToggleReducedMotion:
		s = s.Clone()
		s.PrefersReducedMotion = !s.PrefersReducedMotion
		return s

	case SetReducedMotion:
		if s.PrefersReducedMotion == act.Enabled {
			return s
		}
		s = s.Clone()
		s.PrefersReducedMotion = act.Enabled
		return s

	case SetViewMode:
		if !act.Mode.Valid() || act.Mode == s.ViewMode {
			return s
		}
		s = s.Clone()
		s.ViewMode = act.Mode
		return s

	default:
		return s
	}
}
