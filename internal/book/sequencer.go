package book

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// NavContext distinguishes exact carousel navigation from amplified riffles.
type NavContext int

const (
	// NavRiffle is tab/keyboard style navigation: max(MinRiffleSteps, distance*RiffleMultiplier) steps.
	NavRiffle NavContext = iota
	// NavCarousel is single-collection navigation: one step per real page.
	NavCarousel
)

func (c NavContext) String() string {
	if c == NavCarousel {
		return "carousel"
	}
	return "riffle"
}

// Easing names the curve the render layer should use for a step.
type Easing string

const (
	EasingBezier Easing = "bezier"
	EasingSpring Easing = "spring"
)

// AnimationStep is one stage of a discrete jump.
//
// Intermediate steps play a symmetric curl (flat -> curl -> flat), reset the
// transform before the next step and show a blank placeholder. Only the final
// step swaps in destination content.
type AnimationStep struct {
	Index        int           `json:"index"`
	Page         int           `json:"page"`
	Direction    Direction     `json:"direction"`
	Duration     time.Duration `json:"duration"`
	Easing       Easing        `json:"easing"`
	Curl         bool          `json:"curl"`
	Final        bool          `json:"final"`
	ShowsContent bool          `json:"shows_content"`
}

// ContextFor picks the navigation context for a jump. An explicit carousel
// source wins; any other explicit source riffles; an unspecified source
// follows the view mode.
func ContextFor(src JumpSource, mode ViewMode) NavContext {
	switch src {
	case SourceCarousel:
		return NavCarousel
	case SourceUnspecified:
		if mode == ViewCarousel {
			return NavCarousel
		}
		return NavRiffle
	default:
		return NavRiffle
	}
}

// StepCount returns how many animation steps a jump of distance pages takes.
func StepCount(distance int, ctx NavContext, cfg SequencerConfig) int {
	if distance < 0 {
		distance = -distance
	}
	if distance == 0 {
		return 0
	}
	if ctx == NavCarousel {
		return distance
	}
	n := distance * cfg.RiffleMultiplier
	if n < cfg.MinRiffleSteps {
		n = cfg.MinRiffleSteps
	}
	return n
}

// StepDuration is the duration of every non-final step: max(min, base/sqrt(n)).
func StepDuration(stepCount int, cfg SequencerConfig) time.Duration {
	if stepCount < 1 {
		stepCount = 1
	}
	d := time.Duration(float64(cfg.BaseStepDuration) / math.Sqrt(float64(stepCount)))
	if d < cfg.MinStepDuration {
		d = cfg.MinStepDuration
	}
	return d
}

// PlanJump synthesizes the ordered animation steps from current to target.
// A zero-distance jump has no steps.
func PlanJump(current, target int, ctx NavContext, cfg SequencerConfig) []AnimationStep {
	distance := target - current
	dir := Forward
	if distance < 0 {
		dir = Backward
		distance = -distance
	}
	n := StepCount(distance, ctx, cfg)
	if n == 0 {
		return nil
	}

	per := StepDuration(n, cfg)
	steps := make([]AnimationStep, n)
	for i := 0; i < n-1; i++ {
		// The page under the curl advances proportionally through the real
		// distance; amplified riffles revisit pages.
		progressed := (i + 1) * distance / n
		steps[i] = AnimationStep{
			Index:     i,
			Page:      current + int(dir)*progressed,
			Direction: dir,
			Duration:  per,
			Easing:    EasingBezier,
			Curl:      true,
		}
	}
	steps[n-1] = AnimationStep{
		Index:        n - 1,
		Page:         target,
		Direction:    dir,
		Duration:     cfg.SettleDuration,
		Easing:       EasingSpring,
		Final:        true,
		ShowsContent: true,
	}
	return steps
}

// JumpPhase is the sequencer's per-jump state.
type JumpPhase int

const (
	JumpIdle JumpPhase = iota
	JumpSequencing
	JumpSettling
)

func (p JumpPhase) String() string {
	switch p {
	case JumpSequencing:
		return "sequencing"
	case JumpSettling:
		return "settling"
	default:
		return "idle"
	}
}

// JumpState is the explicit step-indexed sequencer state machine:
//
//	Idle -> (request) -> Sequencing{stepIndex} -> Settling -> Idle
//
// Sequencing and Settling both mean the book is flipping; only Sequencing
// means it is riffling.
type JumpState struct {
	ID            uuid.UUID
	Phase         JumpPhase
	Context       NavContext
	Steps         []AnimationStep
	StepIndex     int
	StartedAt     time.Time
	StepStartedAt time.Time
}

// Active reports whether a jump is in flight.
func (j JumpState) Active() bool {
	return j.Phase != JumpIdle
}

// CurrentStep returns the step being played, if any.
func (j JumpState) CurrentStep() (AnimationStep, bool) {
	if !j.Active() || j.StepIndex < 0 || j.StepIndex >= len(j.Steps) {
		return AnimationStep{}, false
	}
	return j.Steps[j.StepIndex], true
}

// TimedOut reports whether the safety timeout has elapsed at now.
func (j JumpState) TimedOut(now time.Time, cfg SequencerConfig) bool {
	return j.Active() && !j.StartedAt.IsZero() && now.Sub(j.StartedAt) >= cfg.SafetyTimeout
}

// startJump enters Sequencing at step 0 (or straight to Settling when the
// only step is the final one).
func startJump(id uuid.UUID, steps []AnimationStep, ctx NavContext, now time.Time) JumpState {
	j := JumpState{
		ID:            id,
		Phase:         JumpSequencing,
		Context:       ctx,
		Steps:         steps,
		StartedAt:     now,
		StepStartedAt: now,
	}
	if len(steps) <= 1 {
		j.Phase = JumpSettling
	}
	return j
}

// advanceJump moves to the next step. It returns done=true when the final
// step has just completed.
func advanceJump(j JumpState, now time.Time) (next JumpState, done bool) {
	if !j.Active() {
		return j, false
	}
	if j.StepIndex >= len(j.Steps)-1 {
		return JumpState{}, true
	}
	j.StepIndex++
	j.StepStartedAt = now
	if j.StepIndex == len(j.Steps)-1 {
		j.Phase = JumpSettling
	}
	return j, false
}
