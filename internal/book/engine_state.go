package book

import (
	"time"

	"github.com/google/uuid"
)

// EngineState is the top-level, daemon-owned state container.
//
// It holds everything the reducer owns: the authoritative book record, the
// gesture sampler's memory and the sequencer's per-jump state machine. The
// hosting daemon keeps exactly one of these and only Reduce replaces it.
type EngineState struct {
	Book    State
	Sampler SamplerState
	Jump    JumpState

	// DeepLinkApplied latches after the first DeepLink event.
	DeepLinkApplied bool

	// LastTick is the Now of the most recent Tick.
	LastTick time.Time
}

// NewEngineState returns the mount-time engine state for cfg.
func NewEngineState(cfg Config) *EngineState {
	return &EngineState{Book: NewState(cfg.TotalPages)}
}

// JumpSnapshot is the read-only view of an in-flight jump.
type JumpSnapshot struct {
	ID         uuid.UUID `json:"id"`
	Phase      string    `json:"phase"`
	Context    string    `json:"context"`
	StepIndex  int       `json:"step_index"`
	StepCount  int       `json:"step_count"`
	TargetPage int       `json:"target_page"`
}

// Snapshot is the read-only state handed to render adapters and IPC clients.
// It shares nothing with the EngineState it was taken from.
type Snapshot struct {
	Book State         `json:"book"`
	Jump *JumpSnapshot `json:"jump,omitempty"`
}

// Snapshot takes a deep, read-only copy of the observable state.
func (s *EngineState) Snapshot() Snapshot {
	snap := Snapshot{Book: s.Book.Clone()}
	if s.Jump.Active() {
		target := s.Book.CurrentPageIndex
		if s.Book.TargetPageIndex != nil {
			target = *s.Book.TargetPageIndex
		}
		snap.Jump = &JumpSnapshot{
			ID:         s.Jump.ID,
			Phase:      s.Jump.Phase.String(),
			Context:    s.Jump.Context.String(),
			StepIndex:  s.Jump.StepIndex,
			StepCount:  len(s.Jump.Steps),
			TargetPage: target,
		}
	}
	return snap
}

// Equal reports whether two snapshots are observably identical.
func (s Snapshot) Equal(o Snapshot) bool {
	if !s.Book.Equal(o.Book) {
		return false
	}
	if (s.Jump == nil) != (o.Jump == nil) {
		return false
	}
	return s.Jump == nil || *s.Jump == *o.Jump
}
