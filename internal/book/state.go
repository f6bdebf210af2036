// Package book implements the flipbook page-turn engine: gesture sampling,
// the paper-tension accumulator, the riffle sequencer and the authoritative
// book state store.
//
// Everything in this package is pure. Reducers take the current state plus an
// event and return the next state; nothing here performs I/O, sleeps or spawns
// goroutines. The hosting daemon owns the state and serializes events.
package book

import (
	"encoding/json"
	"fmt"
	"time"
)

// Direction is the signed navigation direction along the page axis.
type Direction int

const (
	Backward Direction = -1
	Forward  Direction = 1
)

func (d Direction) String() string {
	if d < 0 {
		return "backward"
	}
	return "forward"
}

// MarshalJSON encodes the direction as "forward" or "backward".
func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts either the string form or a signed integer.
func (d *Direction) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		switch s {
		case "forward":
			*d = Forward
		case "backward":
			*d = Backward
		default:
			return fmt.Errorf("unknown direction %q", s)
		}
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("direction: %w", err)
	}
	if n < 0 {
		*d = Backward
	} else {
		*d = Forward
	}
	return nil
}

// ViewMode is the orthogonal UI mode carried for sequencing decisions.
type ViewMode string

const (
	ViewGrid     ViewMode = "grid"
	ViewCarousel ViewMode = "carousel"
)

// Valid reports whether m is a known view mode.
func (m ViewMode) Valid() bool {
	return m == ViewGrid || m == ViewCarousel
}

// BendingPage is a page currently deforming under gesture tension.
type BendingPage struct {
	PageIndex  int     `json:"page_index"`
	BendAmount float64 `json:"bend_amount"` // 0..1
	ZOffset    int     `json:"z_offset"`
}

// ReleasedPage is a page mid-flight in its release animation. It stays in
// State.ReleasedPages until the render layer acknowledges its landing.
type ReleasedPage struct {
	PageIndex       int       `json:"page_index"`
	ReleaseTime     time.Time `json:"release_time"`
	InitialVelocity float64   `json:"initial_velocity"`
	Direction       Direction `json:"direction"`
}

// State is the single mutable book record. Only the store reducer
// (ReduceBook) produces new values of it.
type State struct {
	TotalPages int `json:"total_pages"`

	CurrentPageIndex int  `json:"current_page_index"`
	TargetPageIndex  *int `json:"target_page_index"`

	// IsRiffling implies IsFlipping.
	IsFlipping bool `json:"is_flipping"`
	IsRiffling bool `json:"is_riffling"`

	ViewMode             ViewMode `json:"view_mode"`
	PrefersReducedMotion bool     `json:"prefers_reduced_motion"`

	// ScrollAccumulator is the signed paper tension in [-100, 100].
	// Positive means forward.
	ScrollAccumulator float64 `json:"scroll_accumulator"`
	ScrollVelocity    float64 `json:"scroll_velocity"`
	IsEngaged         bool    `json:"is_engaged"`

	// BendingPages is ordered nearest-to-current first.
	BendingPages  []BendingPage  `json:"bending_pages"`
	ReleasedPages []ReleasedPage `json:"released_pages"`
}

// NewState returns the mount-time state: page 0, nothing in flight.
func NewState(totalPages int) State {
	if totalPages < 1 {
		totalPages = 1
	}
	return State{
		TotalPages: totalPages,
		ViewMode:   ViewGrid,
	}
}

// LastPage returns the highest valid page index.
func (s State) LastPage() int {
	if s.TotalPages < 1 {
		return 0
	}
	return s.TotalPages - 1
}

// ClampPage clamps p into [0, LastPage()].
func (s State) ClampPage(p int) int {
	if p < 0 {
		return 0
	}
	if last := s.LastPage(); p > last {
		return last
	}
	return p
}

// Busy reports whether a discrete jump request would be rejected.
func (s State) Busy() bool {
	return s.IsFlipping || s.IsRiffling || s.IsEngaged
}

// PagesRemaining returns how many pages exist beyond the current page in dir.
func (s State) PagesRemaining(dir Direction) int {
	if dir == Forward {
		return s.LastPage() - s.CurrentPageIndex
	}
	return s.CurrentPageIndex
}

// InFlight counts unacknowledged releases of page.
func (s State) InFlight(page int) int {
	n := 0
	for _, rp := range s.ReleasedPages {
		if rp.PageIndex == page {
			n++
		}
	}
	return n
}

// Clone returns a deep copy that shares no slices or pointers with s.
func (s State) Clone() State {
	c := s
	if s.TargetPageIndex != nil {
		t := *s.TargetPageIndex
		c.TargetPageIndex = &t
	}
	if s.BendingPages != nil {
		c.BendingPages = append([]BendingPage(nil), s.BendingPages...)
	}
	if s.ReleasedPages != nil {
		c.ReleasedPages = append([]ReleasedPage(nil), s.ReleasedPages...)
	}
	return c
}

// Equal reports whether two states are observably identical.
func (s State) Equal(o State) bool {
	if s.TotalPages != o.TotalPages ||
		s.CurrentPageIndex != o.CurrentPageIndex ||
		s.IsFlipping != o.IsFlipping ||
		s.IsRiffling != o.IsRiffling ||
		s.ViewMode != o.ViewMode ||
		s.PrefersReducedMotion != o.PrefersReducedMotion ||
		s.ScrollAccumulator != o.ScrollAccumulator ||
		s.ScrollVelocity != o.ScrollVelocity ||
		s.IsEngaged != o.IsEngaged {
		return false
	}
	if (s.TargetPageIndex == nil) != (o.TargetPageIndex == nil) {
		return false
	}
	if s.TargetPageIndex != nil && *s.TargetPageIndex != *o.TargetPageIndex {
		return false
	}
	if len(s.BendingPages) != len(o.BendingPages) || len(s.ReleasedPages) != len(o.ReleasedPages) {
		return false
	}
	for i := range s.BendingPages {
		if s.BendingPages[i] != o.BendingPages[i] {
			return false
		}
	}
	for i := range s.ReleasedPages {
		a, b := s.ReleasedPages[i], o.ReleasedPages[i]
		if a.PageIndex != b.PageIndex || !a.ReleaseTime.Equal(b.ReleaseTime) ||
			a.InitialVelocity != b.InitialVelocity || a.Direction != b.Direction {
			return false
		}
	}
	return true
}

func intPtr(v int) *int { return &v }
