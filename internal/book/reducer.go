package book

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// This file implements the engine-level reducer:
//
//   - Events: raw input, store actions, sequencer acknowledgements, ticks
//   - Commands: side effects requested by the reducer (snapshot replies, timeout reports)
//   - Broadcasts: state the render layer must see (snapshots, animation steps)
//   - Reduce(): computes next state + commands + broadcasts, without performing I/O
//
// The continuous path (sampler -> accumulator) and the discrete path
// (sequencer) share one BookState. Both only reach it through ReduceBook,
// and isEngaged / isFlipping keep them from running at the same time.

// ==============================
// Commands (side effects)
// ==============================

// Command represents an external side effect to be executed by the daemon loop.
type Command interface {
	commandMarker()
	String() string
}

// CmdPublishStateSnapshot answers a RequestStateSnapshot.
type CmdPublishStateSnapshot struct {
	Reply    chan<- Snapshot
	Snapshot Snapshot
}

func (CmdPublishStateSnapshot) commandMarker() {}
func (c CmdPublishStateSnapshot) String() string {
	return fmt.Sprintf("CmdPublishStateSnapshot(page=%d)", c.Snapshot.Book.CurrentPageIndex)
}

// CmdReportJumpTimeout reports that the safety timeout force-completed a jump.
// It is a recoverable condition, not a failure.
type CmdReportJumpTimeout struct {
	JumpID     uuid.UUID
	TargetPage int
	StepIndex  int
	StepCount  int
	Elapsed    time.Duration
}

func (CmdReportJumpTimeout) commandMarker() {}
func (c CmdReportJumpTimeout) String() string {
	return fmt.Sprintf("CmdReportJumpTimeout(jump=%s target=%d step=%d/%d elapsed=%s)",
		c.JumpID, c.TargetPage, c.StepIndex, c.StepCount, c.Elapsed)
}

// ==============================
// Broadcasts
// ==============================

// Broadcast is a reducer-emitted notification for render adapters.
type Broadcast interface {
	broadcastMarker()
}

// BroadcastStateChanged carries the snapshot after any observable change.
type BroadcastStateChanged struct {
	Snapshot Snapshot
	At       time.Time
}

// BroadcastAnimationStep tells the render layer to play one sequencer step.
type BroadcastAnimationStep struct {
	JumpID    uuid.UUID
	Step      AnimationStep
	StepCount int
	At        time.Time
}

// BroadcastJumpForced tells the render layer that the safety timeout
// committed the jump; any step still playing should be abandoned.
type BroadcastJumpForced struct {
	JumpID     uuid.UUID
	TargetPage int
	At         time.Time
}

func (BroadcastStateChanged) broadcastMarker()  {}
func (BroadcastAnimationStep) broadcastMarker() {}
func (BroadcastJumpForced) broadcastMarker()    {}

// ==============================
// Reducer input/output
// ==============================

// ReduceResult is the output of Reduce(): next state plus Commands to execute
// and Broadcasts to publish. A BroadcastStateChanged, when present, is first.
type ReduceResult struct {
	State      *EngineState
	Commands   []Command
	Broadcasts []Broadcast

	// PreventDefault reports that the raw input event belonged to the engine
	// and native scrolling must be suppressed.
	PreventDefault bool
}

// Reduce is the pure engine reducer.
//
// Rules:
//   - Must not perform I/O
//   - Must not block
//   - Must not mutate anything outside the returned state
//
// Event time comes from TimedEvent.At or Tick.Now and falls back to time.Now().
func Reduce(s *EngineState, e Event, cfg Config) ReduceResult {
	if s == nil {
		s = NewEngineState(cfg)
	}
	r := &reduction{s: s, cfg: cfg}
	before := s.Snapshot()

	ev := e
	if te, ok := e.(TimedEvent); ok {
		ev = te.Event
		r.at = te.At
	}
	if t, ok := ev.(Tick); ok {
		r.at = t.Now
	}
	if r.at.IsZero() {
		r.at = time.Now()
	}

	switch x := ev.(type) {
	case Tick:
		s.LastTick = x.Now
		if cfg.Sequencer.StepClock == StepClockTimer {
			r.advanceByClock()
		}

	case RequestStateSnapshot:
		if x.Reply != nil {
			r.cmds = append(r.cmds, CmdPublishStateSnapshot{Reply: x.Reply, Snapshot: before})
		}

	case TouchStart:
		r.sampled(s.Sampler.TouchStart(x, r.at))
	case TouchMove:
		r.sampled(s.Sampler.TouchMove(x, r.at, s.Book, cfg.Sampler))
	case TouchEnd:
		r.sampled(s.Sampler.TouchEnd(x, s.Book, cfg.Sampler))
	case Wheel:
		r.sampled(s.Sampler.Wheel(x, r.at, s.Book, cfg.Sampler))
	case KeyDown:
		if jump, ok := KeyNavigation(x.Key, s.Book, cfg.Sections); ok {
			r.dispatch(jump)
		}

	case StepComplete:
		r.acknowledgeStep(x)

	case DeepLink:
		if !s.DeepLinkApplied {
			s.DeepLinkApplied = true
			r.dispatch(RequestJump{TargetPage: x.TargetPage, Source: SourceDeepLink})
		}

	case Action:
		r.dispatch(x)

	default:
		// Unknown event type: no-op.
	}

	r.enforceSafetyTimeout()

	var out []Broadcast
	if after := s.Snapshot(); !after.Equal(before) {
		out = append(out, BroadcastStateChanged{Snapshot: after, At: r.at})
	}
	out = append(out, r.bcasts...)

	return ReduceResult{
		State:          s,
		Commands:       r.cmds,
		Broadcasts:     out,
		PreventDefault: r.preventDefault,
	}
}

// reduction carries the in-progress outputs of one Reduce call.
type reduction struct {
	s   *EngineState
	cfg Config
	at  time.Time

	cmds           []Command
	bcasts         []Broadcast
	preventDefault bool
}

func (r *reduction) sampled(out SampleOutput) {
	r.preventDefault = r.preventDefault || out.PreventDefault
	for _, a := range out.Actions {
		r.dispatch(a)
	}
}

// dispatch applies one store action and keeps the sequencer in step with it.
func (r *reduction) dispatch(a Action) {
	s := r.s
	prev := s.Book

	switch act := a.(type) {
	case SetReducedMotion, ToggleReducedMotion:
		s.Book = ReduceBook(s.Book, a, r.at, r.cfg)
		if !prev.PrefersReducedMotion && s.Book.PrefersReducedMotion {
			r.cancelAnimations()
		}
		return

	case SettleJump:
		// An external settle skips the rest of the riffle.
		if s.Jump.Phase != JumpSequencing {
			return
		}
		s.Jump.StepIndex = len(s.Jump.Steps) - 1
		s.Jump.StepStartedAt = r.at
		s.Jump.Phase = JumpSettling
		s.Book = ReduceBook(s.Book, act, r.at, r.cfg)
		r.emitStep()
		return
	}

	s.Book = ReduceBook(s.Book, a, r.at, r.cfg)

	if rj, ok := a.(RequestJump); ok && !prev.IsFlipping && s.Book.IsFlipping {
		r.beginJump(prev.CurrentPageIndex, rj.Source)
	}
	if !s.Book.IsFlipping && s.Jump.Active() {
		s.Jump = JumpState{}
	}
}

// beginJump plans the steps for the jump the store just accepted.
func (r *reduction) beginJump(from int, src JumpSource) {
	s := r.s
	target := *s.Book.TargetPageIndex
	ctx := ContextFor(src, s.Book.ViewMode)
	steps := PlanJump(from, target, ctx, r.cfg.Sequencer)

	newID := r.cfg.NewJumpID
	if newID == nil {
		newID = uuid.New
	}
	s.Jump = startJump(newID(), steps, ctx, r.at)
	if s.Jump.Phase == JumpSettling {
		s.Book = ReduceBook(s.Book, SettleJump{}, r.at, r.cfg)
	}
	r.emitStep()
}

func (r *reduction) emitStep() {
	step, ok := r.s.Jump.CurrentStep()
	if !ok {
		return
	}
	r.bcasts = append(r.bcasts, BroadcastAnimationStep{
		JumpID:    r.s.Jump.ID,
		Step:      step,
		StepCount: len(r.s.Jump.Steps),
		At:        r.at,
	})
}

// acknowledgeStep advances the sequencer on a render-layer completion.
// Acks for another jump or another step are stale and ignored.
func (r *reduction) acknowledgeStep(ack StepComplete) {
	j := r.s.Jump
	if !j.Active() || ack.JumpID != j.ID || ack.StepIndex != j.StepIndex {
		return
	}
	r.advance(r.at)
}

// advanceByClock advances every step whose duration has elapsed.
func (r *reduction) advanceByClock() {
	for r.s.Jump.Active() {
		step, ok := r.s.Jump.CurrentStep()
		if !ok {
			return
		}
		due := r.s.Jump.StepStartedAt.Add(step.Duration)
		if r.at.Before(due) {
			return
		}
		r.advance(due)
	}
}

func (r *reduction) advance(at time.Time) {
	s := r.s
	next, done := advanceJump(s.Jump, at)
	if done {
		s.Jump = JumpState{}
		s.Book = ReduceBook(s.Book, CompleteJump{}, at, r.cfg)
		return
	}
	s.Jump = next
	if next.Phase == JumpSettling && s.Book.IsRiffling {
		s.Book = ReduceBook(s.Book, SettleJump{}, at, r.cfg)
	}
	r.emitStep()
}

// enforceSafetyTimeout force-completes a jump that has been in flight for
// longer than the safety timeout. Completion is idempotent: a late ack for
// the forced jump finds no active jump and is dropped.
func (r *reduction) enforceSafetyTimeout() {
	s := r.s
	if !s.Jump.TimedOut(r.at, r.cfg.Sequencer) {
		return
	}
	j := s.Jump
	target := s.Book.CurrentPageIndex
	if s.Book.TargetPageIndex != nil {
		target = *s.Book.TargetPageIndex
	}
	s.Jump = JumpState{}
	s.Book = ReduceBook(s.Book, CompleteJump{}, r.at, r.cfg)

	r.cmds = append(r.cmds, CmdReportJumpTimeout{
		JumpID:     j.ID,
		TargetPage: target,
		StepIndex:  j.StepIndex,
		StepCount:  len(j.Steps),
		Elapsed:    r.at.Sub(j.StartedAt),
	})
	r.bcasts = append(r.bcasts, BroadcastJumpForced{JumpID: j.ID, TargetPage: target, At: r.at})
}

// cancelAnimations resolves everything animated synchronously once reduced
// motion is switched on: an in-flight jump commits and an active gesture ends.
func (r *reduction) cancelAnimations() {
	s := r.s
	if s.Jump.Active() || s.Book.IsFlipping {
		j := s.Jump
		target := s.Book.CurrentPageIndex
		if s.Book.TargetPageIndex != nil {
			target = *s.Book.TargetPageIndex
		}
		s.Jump = JumpState{}
		s.Book = ReduceBook(s.Book, CompleteJump{}, r.at, r.cfg)
		if j.ID != uuid.Nil {
			r.bcasts = append(r.bcasts, BroadcastJumpForced{JumpID: j.ID, TargetPage: target, At: r.at})
		}
	}
	if s.Book.IsEngaged {
		s.Book = ReduceBook(s.Book, GestureEnd{}, r.at, r.cfg)
		s.Sampler.reset()
	}
}
