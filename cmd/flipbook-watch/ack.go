package main

import (
	"sync"
	"time"

	"flipbook/internal/book"
)

// acker plays the part of a render layer that finishes every animation on
// time: it acknowledges each step after its duration and each released page
// after the landing delay. Useful for driving a daemon without a renderer.
type acker struct {
	landing time.Duration
	send    func(book.Event) error
	after   func(time.Duration, func()) // time.AfterFunc in production

	mu      sync.Mutex
	pending map[landingKey]bool // released pages with a scheduled ack
}

type landingKey struct {
	page int
	at   int64 // release time, unix nanoseconds
}

func newAcker(landing time.Duration, send func(book.Event) error) *acker {
	return &acker{
		landing: landing,
		send:    send,
		after:   func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		pending: make(map[landingKey]bool),
	}
}

// Step schedules the StepComplete for s.
func (a *acker) Step(s stepFrame) {
	ev := book.StepComplete{JumpID: s.JumpID, StepIndex: s.Index}
	a.after(time.Duration(s.DurationMS)*time.Millisecond, func() { _ = a.send(ev) })
}

// State schedules one PageLanded per newly released page.
func (a *acker) State(snap book.Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()

	live := make(map[landingKey]bool, len(snap.Book.ReleasedPages))
	for _, rp := range snap.Book.ReleasedPages {
		k := landingKey{page: rp.PageIndex, at: rp.ReleaseTime.UnixNano()}
		live[k] = true
		if a.pending[k] {
			continue
		}
		a.pending[k] = true
		page := rp.PageIndex
		a.after(a.landing, func() { _ = a.send(book.PageLanded{PageIndex: page}) })
	}
	for k := range a.pending {
		if !live[k] {
			delete(a.pending, k)
		}
	}
}
