package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"flipbook/internal/book"
)

// Config is the top-level configuration for the flipbook daemon.
//
// The file may be YAML (.yaml/.yml) or TOML (.toml). Defaults and validation
// live here so the rest of the daemon can assume a well-formed config.
type Config struct {
	Book      BookConfig      `yaml:"book" toml:"book"`
	Physics   PhysicsConfig   `yaml:"physics" toml:"physics"`
	Sampler   SamplerConfig   `yaml:"sampler" toml:"sampler"`
	Sequencer SequencerConfig `yaml:"sequencer" toml:"sequencer"`
	Server    ServerConfig    `yaml:"server" toml:"server"`
	IPC       IPCConfig       `yaml:"ipc" toml:"ipc"`
	Input     InputConfig     `yaml:"input" toml:"input"`
	DeepLink  DeepLinkConfig  `yaml:"deep_link" toml:"deep_link"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
}

type BookConfig struct {
	TotalPages    int             `yaml:"total_pages" toml:"total_pages"`
	ViewMode      string          `yaml:"view_mode" toml:"view_mode"`
	ReducedMotion bool            `yaml:"reduced_motion" toml:"reduced_motion"`
	Sections      []SectionConfig `yaml:"sections,omitempty" toml:"sections,omitempty"`
}

type SectionConfig struct {
	Name      string `yaml:"name" toml:"name"`
	StartPage int    `yaml:"start_page" toml:"start_page"`
}

// PhysicsConfig is the user-facing accumulator tuning. Times are milliseconds.
type PhysicsConfig struct {
	TensionDivisor        float64 `yaml:"tension_divisor" toml:"tension_divisor"`
	MaxTension            float64 `yaml:"max_tension" toml:"max_tension"`
	BendStep              float64 `yaml:"bend_step" toml:"bend_step"`
	BendScale             float64 `yaml:"bend_scale" toml:"bend_scale"`
	BendFalloff           float64 `yaml:"bend_falloff" toml:"bend_falloff"`
	ReleaseThreshold      float64 `yaml:"release_threshold" toml:"release_threshold"`
	ReleaseRelief         float64 `yaml:"release_relief" toml:"release_relief"`
	DiscardThreshold      float64 `yaml:"discard_threshold" toml:"discard_threshold"`
	CascadeStaggerMS      int     `yaml:"cascade_stagger_ms" toml:"cascade_stagger_ms"`
	CascadeVelocityFactor float64 `yaml:"cascade_velocity_factor" toml:"cascade_velocity_factor"`
}

type SamplerConfig struct {
	ClassifyThresholdPx float64 `yaml:"classify_threshold_px" toml:"classify_threshold_px"`
	ScrollableBias      float64 `yaml:"scrollable_bias" toml:"scrollable_bias"`
	Sensitivity         float64 `yaml:"sensitivity" toml:"sensitivity"`
	MinSampleIntervalMS int     `yaml:"min_sample_interval_ms" toml:"min_sample_interval_ms"`
	WheelMinDelta       float64 `yaml:"wheel_min_delta" toml:"wheel_min_delta"`
	WheelDebounceMS     int     `yaml:"wheel_debounce_ms" toml:"wheel_debounce_ms"`
	SwipeThresholdPx    float64 `yaml:"swipe_threshold_px" toml:"swipe_threshold_px"`
}

type SequencerConfig struct {
	MinRiffleSteps     int    `yaml:"min_riffle_steps" toml:"min_riffle_steps"`
	RiffleMultiplier   int    `yaml:"riffle_multiplier" toml:"riffle_multiplier"`
	BaseStepMS         int    `yaml:"base_step_ms" toml:"base_step_ms"`
	MinStepMS          int    `yaml:"min_step_ms" toml:"min_step_ms"`
	SettleMS           int    `yaml:"settle_ms" toml:"settle_ms"`
	SafetyTimeoutMS    int    `yaml:"safety_timeout_ms" toml:"safety_timeout_ms"`
	StepClock          string `yaml:"step_clock" toml:"step_clock"`
	TickHz             int    `yaml:"tick_hz" toml:"tick_hz"`
	StateCoalesceMS    int    `yaml:"state_coalesce_ms" toml:"state_coalesce_ms"`
	BroadcastQueueSize int    `yaml:"broadcast_queue_size" toml:"broadcast_queue_size"`
}

type ServerConfig struct {
	Listen string `yaml:"listen" toml:"listen"`
	WSPath string `yaml:"ws_path" toml:"ws_path"`
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path" toml:"socket_path"`
}

// InputConfig lists optional Linux evdev devices (keyboards, wheels, touch panels).
type InputConfig struct {
	Devices []string `yaml:"devices,omitempty" toml:"devices,omitempty"`
	// TouchScale converts absolute touch units to pixels.
	TouchScale float64 `yaml:"touch_scale" toml:"touch_scale"`
}

type DeepLinkConfig struct {
	Fragment string `yaml:"fragment" toml:"fragment"`
}

type LoggingConfig struct {
	Level string `yaml:"level" toml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
// Keep this aligned with the engine defaults in internal/book.
func DefaultConfig() Config {
	eng := book.DefaultConfig(defaultTotalPages)
	return Config{
		Book: BookConfig{
			TotalPages: defaultTotalPages,
			ViewMode:   string(book.ViewGrid),
		},
		Physics: PhysicsConfig{
			TensionDivisor:        eng.Physics.TensionDivisor,
			MaxTension:            eng.Physics.MaxTension,
			BendStep:              eng.Physics.BendStep,
			BendScale:             eng.Physics.BendScale,
			BendFalloff:           eng.Physics.BendFalloff,
			ReleaseThreshold:      eng.Physics.ReleaseThreshold,
			ReleaseRelief:         eng.Physics.ReleaseRelief,
			DiscardThreshold:      eng.Physics.DiscardThreshold,
			CascadeStaggerMS:      int(eng.Physics.CascadeStagger / time.Millisecond),
			CascadeVelocityFactor: eng.Physics.CascadeVelocityFactor,
		},
		Sampler: SamplerConfig{
			ClassifyThresholdPx: eng.Sampler.ClassifyThresholdPx,
			ScrollableBias:      eng.Sampler.ScrollableBias,
			Sensitivity:         eng.Sampler.Sensitivity,
			MinSampleIntervalMS: int(eng.Sampler.MinSampleInterval / time.Millisecond),
			WheelMinDelta:       eng.Sampler.WheelMinDelta,
			WheelDebounceMS:     int(eng.Sampler.WheelDebounce / time.Millisecond),
			SwipeThresholdPx:    eng.Sampler.SwipeThresholdPx,
		},
		Sequencer: SequencerConfig{
			MinRiffleSteps:     eng.Sequencer.MinRiffleSteps,
			RiffleMultiplier:   eng.Sequencer.RiffleMultiplier,
			BaseStepMS:         int(eng.Sequencer.BaseStepDuration / time.Millisecond),
			MinStepMS:          int(eng.Sequencer.MinStepDuration / time.Millisecond),
			SettleMS:           int(eng.Sequencer.SettleDuration / time.Millisecond),
			SafetyTimeoutMS:    int(eng.Sequencer.SafetyTimeout / time.Millisecond),
			StepClock:          string(eng.Sequencer.StepClock),
			TickHz:             defaultTickHz,
			StateCoalesceMS:    defaultStateCoalesceMS,
			BroadcastQueueSize: defaultBroadcastQueueSize,
		},
		Server: ServerConfig{
			Listen: defaultListenAddr,
			WSPath: "/ws",
		},
		IPC: IPCConfig{
			SocketPath: defaultIPCSocket,
		},
		Input: InputConfig{
			TouchScale: 1.0,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads and parses a config file on top of DefaultConfig.
// The format is chosen by extension: .toml is TOML, anything else is YAML.
//
// Unknown fields are rejected in both formats to catch typos.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		dec := toml.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("decode config toml: %w", err)
		}
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Only whitespace/comments are allowed after the document.
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides applies command-line overrides on top of a loaded config.
// Each override is only applied if its pointer is non-nil.
type FlagOverrides struct {
	TotalPages    *int
	ViewMode      *string
	ReducedMotion *bool

	StepClock *string
	TickHz    *int

	Listen        *string
	IPCSocketPath *string
	InputDevice   *string
	Fragment      *string

	LogLevel *string
}

// Apply merges the overrides into cfg. A non-nil pointer is applied even if
// it holds a zero value.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.TotalPages != nil {
		cfg.Book.TotalPages = *o.TotalPages
	}
	if o.ViewMode != nil {
		cfg.Book.ViewMode = *o.ViewMode
	}
	if o.ReducedMotion != nil {
		cfg.Book.ReducedMotion = *o.ReducedMotion
	}
	if o.StepClock != nil {
		cfg.Sequencer.StepClock = *o.StepClock
	}
	if o.TickHz != nil {
		cfg.Sequencer.TickHz = *o.TickHz
	}
	if o.Listen != nil {
		cfg.Server.Listen = *o.Listen
	}
	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}
	if o.InputDevice != nil {
		cfg.Input.Devices = []string{*o.InputDevice}
	}
	if o.Fragment != nil {
		cfg.DeepLink.Fragment = *o.Fragment
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// Call it after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	// Book
	if c.Book.TotalPages < 1 {
		return errors.New("book.total_pages must be >= 1")
	}
	if !book.ViewMode(c.Book.ViewMode).Valid() {
		return fmt.Errorf("book.view_mode must be %q or %q", book.ViewGrid, book.ViewCarousel)
	}
	seen := make(map[string]bool, len(c.Book.Sections))
	for i, s := range c.Book.Sections {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("book.sections[%d].name is empty", i)
		}
		if s.StartPage < 0 || s.StartPage >= c.Book.TotalPages {
			return fmt.Errorf("book.sections[%d].start_page must be in [0, %d]", i, c.Book.TotalPages-1)
		}
		key := strings.ToLower(s.Name)
		if seen[key] {
			return fmt.Errorf("book.sections[%d].name %q is duplicated", i, s.Name)
		}
		seen[key] = true
	}

	// Physics
	p := c.Physics
	if p.TensionDivisor <= 0 || p.MaxTension <= 0 || p.BendStep <= 0 || p.BendScale <= 0 {
		return errors.New("physics.tension_divisor, max_tension, bend_step and bend_scale must be > 0")
	}
	if p.BendFalloff <= 0 || p.BendFalloff > 1 {
		return errors.New("physics.bend_falloff must be in (0, 1]")
	}
	if p.DiscardThreshold > p.ReleaseThreshold {
		return errors.New("physics.discard_threshold must be <= physics.release_threshold")
	}
	if p.ReleaseThreshold > p.MaxTension {
		return errors.New("physics.release_threshold must be <= physics.max_tension")
	}
	if p.ReleaseRelief <= 0 || p.ReleaseRelief > p.ReleaseThreshold {
		return errors.New("physics.release_relief must be in (0, release_threshold]")
	}
	if p.CascadeStaggerMS <= 0 {
		return errors.New("physics.cascade_stagger_ms must be > 0")
	}

	// Sampler
	s := c.Sampler
	if s.ClassifyThresholdPx < 0 || s.ScrollableBias < 1 || s.Sensitivity <= 0 {
		return errors.New("sampler.classify_threshold_px must be >= 0, scrollable_bias >= 1, sensitivity > 0")
	}
	if s.MinSampleIntervalMS <= 0 || s.WheelDebounceMS <= 0 {
		return errors.New("sampler.min_sample_interval_ms and wheel_debounce_ms must be > 0")
	}

	// Sequencer
	q := c.Sequencer
	if q.MinRiffleSteps < 1 || q.RiffleMultiplier < 1 {
		return errors.New("sequencer.min_riffle_steps and riffle_multiplier must be >= 1")
	}
	if q.MinStepMS <= 0 || q.BaseStepMS < q.MinStepMS {
		return errors.New("sequencer.min_step_ms must be > 0 and <= sequencer.base_step_ms")
	}
	if q.SettleMS <= 0 {
		return errors.New("sequencer.settle_ms must be > 0")
	}
	if q.SafetyTimeoutMS <= 0 {
		return errors.New("sequencer.safety_timeout_ms must be > 0")
	}
	if q.StepClock != string(book.StepClockRender) && q.StepClock != string(book.StepClockTimer) {
		return fmt.Errorf("sequencer.step_clock must be %q or %q", book.StepClockRender, book.StepClockTimer)
	}
	if q.TickHz <= 0 || q.TickHz > 1000 {
		return errors.New("sequencer.tick_hz must be between 1 and 1000")
	}
	if q.StateCoalesceMS < 0 {
		return errors.New("sequencer.state_coalesce_ms must be >= 0")
	}
	if q.BroadcastQueueSize < 1 {
		return errors.New("sequencer.broadcast_queue_size must be >= 1")
	}

	// Server / IPC
	if c.Server.Listen == "" {
		return errors.New("server.listen must not be empty")
	}
	if !strings.HasPrefix(c.Server.WSPath, "/") {
		return errors.New("server.ws_path must start with /")
	}
	if c.IPC.SocketPath == "" {
		return errors.New("ipc.socket_path must not be empty")
	}

	// Input
	for i, dev := range c.Input.Devices {
		if dev == "" {
			return fmt.Errorf("input.devices[%d] is empty", i)
		}
	}
	if c.Input.TouchScale <= 0 {
		return errors.New("input.touch_scale must be > 0")
	}

	// Logging
	if c.Logging.Level == "" {
		return errors.New("logging.level must not be empty")
	}

	return nil
}

// ToEngineConfig converts the file config into the engine config.
func (c *Config) ToEngineConfig() book.Config {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }

	sections := make([]book.Section, 0, len(c.Book.Sections))
	for _, s := range c.Book.Sections {
		sections = append(sections, book.Section{Name: s.Name, StartPage: s.StartPage})
	}

	cfg := book.Config{
		TotalPages: c.Book.TotalPages,
		Sections:   sections,
		Physics: book.PhysicsConfig{
			TensionDivisor:        c.Physics.TensionDivisor,
			MaxTension:            c.Physics.MaxTension,
			BendStep:              c.Physics.BendStep,
			BendScale:             c.Physics.BendScale,
			BendFalloff:           c.Physics.BendFalloff,
			ReleaseThreshold:      c.Physics.ReleaseThreshold,
			ReleaseRelief:         c.Physics.ReleaseRelief,
			DiscardThreshold:      c.Physics.DiscardThreshold,
			CascadeStagger:        ms(c.Physics.CascadeStaggerMS),
			CascadeVelocityFactor: c.Physics.CascadeVelocityFactor,
		},
		Sampler: book.SamplerConfig{
			ClassifyThresholdPx: c.Sampler.ClassifyThresholdPx,
			ScrollableBias:      c.Sampler.ScrollableBias,
			Sensitivity:         c.Sampler.Sensitivity,
			MinSampleInterval:   ms(c.Sampler.MinSampleIntervalMS),
			WheelMinDelta:       c.Sampler.WheelMinDelta,
			WheelDebounce:       ms(c.Sampler.WheelDebounceMS),
			SwipeThresholdPx:    c.Sampler.SwipeThresholdPx,
		},
		Sequencer: book.SequencerConfig{
			MinRiffleSteps:   c.Sequencer.MinRiffleSteps,
			RiffleMultiplier: c.Sequencer.RiffleMultiplier,
			BaseStepDuration: ms(c.Sequencer.BaseStepMS),
			MinStepDuration:  ms(c.Sequencer.MinStepMS),
			SettleDuration:   ms(c.Sequencer.SettleMS),
			SafetyTimeout:    ms(c.Sequencer.SafetyTimeoutMS),
			StepClock:        book.StepClock(c.Sequencer.StepClock),
		},
	}
	return cfg.WithDefaults()
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
