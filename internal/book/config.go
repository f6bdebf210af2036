package book

import (
	"time"

	"github.com/google/uuid"
)

// Default engine tuning. These reproduce the paper model the front end was
// designed against; the daemon exposes all of them through its config file.
const (
	defaultTensionDivisor        = 100.0
	defaultMaxTension            = 100.0
	defaultBendStep              = 15.0
	defaultBendScale             = 50.0
	defaultBendFalloff           = 0.7
	defaultReleaseThreshold      = 60.0
	defaultReleaseRelief         = 40.0
	defaultDiscardThreshold      = 30.0
	defaultCascadeStagger        = 40 * time.Millisecond
	defaultCascadeVelocityFactor = 0.5

	defaultClassifyThresholdPx = 10.0
	defaultScrollableBias      = 2.0
	defaultSensitivity         = 0.5
	defaultMinSampleInterval   = 16 * time.Millisecond
	defaultWheelMinDelta       = 10.0
	defaultWheelDebounce       = 150 * time.Millisecond
	defaultSwipeThresholdPx    = 30.0

	defaultMinRiffleSteps   = 8
	defaultRiffleMultiplier = 4
	defaultBaseStepDuration = 250 * time.Millisecond
	defaultMinStepDuration  = 40 * time.Millisecond
	defaultSettleDuration   = 600 * time.Millisecond
	defaultSafetyTimeout    = 10 * time.Second
)

// StepClock selects what advances sequencer steps.
type StepClock string

const (
	// StepClockRender waits for StepComplete acknowledgements from the render layer.
	StepClockRender StepClock = "render"
	// StepClockTimer advances steps on Tick once each step's duration has elapsed.
	StepClockTimer StepClock = "timer"
)

// PhysicsConfig tunes the tension accumulator.
type PhysicsConfig struct {
	TensionDivisor        float64
	MaxTension            float64
	BendStep              float64
	BendScale             float64
	BendFalloff           float64
	ReleaseThreshold      float64
	ReleaseRelief         float64
	DiscardThreshold      float64
	CascadeStagger        time.Duration
	CascadeVelocityFactor float64
}

// SamplerConfig tunes raw input interpretation.
type SamplerConfig struct {
	ClassifyThresholdPx float64
	ScrollableBias      float64
	Sensitivity         float64
	MinSampleInterval   time.Duration
	WheelMinDelta       float64
	WheelDebounce       time.Duration
	SwipeThresholdPx    float64
}

// SequencerConfig tunes discrete jump animation.
type SequencerConfig struct {
	MinRiffleSteps   int
	RiffleMultiplier int
	BaseStepDuration time.Duration
	MinStepDuration  time.Duration
	SettleDuration   time.Duration
	SafetyTimeout    time.Duration
	StepClock        StepClock
}

// Section is a named section boundary used by PageUp/PageDown and deep links.
type Section struct {
	Name      string
	StartPage int
}

// Config is the complete engine configuration.
type Config struct {
	TotalPages int
	Sections   []Section

	Physics   PhysicsConfig
	Sampler   SamplerConfig
	Sequencer SequencerConfig

	// NewJumpID mints jump identifiers. Nil means uuid.New.
	NewJumpID func() uuid.UUID
}

// DefaultConfig returns a fully-populated configuration for a book of totalPages.
func DefaultConfig(totalPages int) Config {
	return Config{TotalPages: totalPages}.WithDefaults()
}

// WithDefaults fills every zero-valued knob with its default.
func (c Config) WithDefaults() Config {
	if c.TotalPages < 1 {
		c.TotalPages = 1
	}

	p := &c.Physics
	if p.TensionDivisor <= 0 {
		p.TensionDivisor = defaultTensionDivisor
	}
	if p.MaxTension <= 0 {
		p.MaxTension = defaultMaxTension
	}
	if p.BendStep <= 0 {
		p.BendStep = defaultBendStep
	}
	if p.BendScale <= 0 {
		p.BendScale = defaultBendScale
	}
	if p.BendFalloff <= 0 {
		p.BendFalloff = defaultBendFalloff
	}
	if p.ReleaseThreshold <= 0 {
		p.ReleaseThreshold = defaultReleaseThreshold
	}
	if p.ReleaseRelief <= 0 {
		p.ReleaseRelief = defaultReleaseRelief
	}
	if p.DiscardThreshold <= 0 {
		p.DiscardThreshold = defaultDiscardThreshold
	}
	if p.CascadeStagger <= 0 {
		p.CascadeStagger = defaultCascadeStagger
	}
	if p.CascadeVelocityFactor <= 0 {
		p.CascadeVelocityFactor = defaultCascadeVelocityFactor
	}

	s := &c.Sampler
	if s.ClassifyThresholdPx <= 0 {
		s.ClassifyThresholdPx = defaultClassifyThresholdPx
	}
	if s.ScrollableBias <= 0 {
		s.ScrollableBias = defaultScrollableBias
	}
	if s.Sensitivity <= 0 {
		s.Sensitivity = defaultSensitivity
	}
	if s.MinSampleInterval <= 0 {
		s.MinSampleInterval = defaultMinSampleInterval
	}
	if s.WheelMinDelta <= 0 {
		s.WheelMinDelta = defaultWheelMinDelta
	}
	if s.WheelDebounce <= 0 {
		s.WheelDebounce = defaultWheelDebounce
	}
	if s.SwipeThresholdPx <= 0 {
		s.SwipeThresholdPx = defaultSwipeThresholdPx
	}

	q := &c.Sequencer
	if q.MinRiffleSteps <= 0 {
		q.MinRiffleSteps = defaultMinRiffleSteps
	}
	if q.RiffleMultiplier <= 0 {
		q.RiffleMultiplier = defaultRiffleMultiplier
	}
	if q.BaseStepDuration <= 0 {
		q.BaseStepDuration = defaultBaseStepDuration
	}
	if q.MinStepDuration <= 0 {
		q.MinStepDuration = defaultMinStepDuration
	}
	if q.SettleDuration <= 0 {
		q.SettleDuration = defaultSettleDuration
	}
	if q.SafetyTimeout <= 0 {
		q.SafetyTimeout = defaultSafetyTimeout
	}
	if q.StepClock == "" {
		q.StepClock = StepClockRender
	}

	if c.NewJumpID == nil {
		c.NewJumpID = uuid.New
	}
	return c
}
