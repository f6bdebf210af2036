package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flipbook/internal/book"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	eng := cfg.ToEngineConfig()
	assert.Equal(t, book.DefaultConfig(defaultTotalPages).Physics, eng.Physics)
	assert.Equal(t, book.DefaultConfig(defaultTotalPages).Sampler, eng.Sampler)
	assert.Equal(t, book.StepClockRender, eng.Sequencer.StepClock)
}

func TestLoadConfigFile_YAML(t *testing.T) {
	path := writeConfig(t, "flipbookd.yaml", `
book:
  total_pages: 40
  view_mode: carousel
  sections:
    - name: Drawings
      start_page: 3
    - name: Prints
      start_page: 20
sequencer:
  step_clock: timer
  safety_timeout_ms: 4000
`)
	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 40, cfg.Book.TotalPages)
	assert.Equal(t, "carousel", cfg.Book.ViewMode)
	assert.Len(t, cfg.Book.Sections, 2)
	// Unset keys keep their defaults.
	assert.Equal(t, DefaultConfig().Physics, cfg.Physics)

	eng := cfg.ToEngineConfig()
	assert.Equal(t, 4*time.Second, eng.Sequencer.SafetyTimeout)
	assert.Equal(t, book.StepClockTimer, eng.Sequencer.StepClock)
	assert.Equal(t, []book.Section{{Name: "Drawings", StartPage: 3}, {Name: "Prints", StartPage: 20}}, eng.Sections)
}

func TestLoadConfigFile_TOML(t *testing.T) {
	path := writeConfig(t, "flipbookd.toml", `
[book]
total_pages = 16

[physics]
tension_divisor = 50.0
cascade_stagger_ms = 25

[[book.sections]]
name = "index"
start_page = 0
`)
	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 16, cfg.Book.TotalPages)
	assert.Equal(t, 50.0, cfg.Physics.TensionDivisor)
	assert.Equal(t, 25*time.Millisecond, cfg.ToEngineConfig().Physics.CascadeStagger)
	assert.Equal(t, "index", cfg.Book.Sections[0].Name)
}

func TestLoadConfigFile_RejectsUnknownFields(t *testing.T) {
	_, err := LoadConfigFile(writeConfig(t, "bad.yaml", "book:\n  total_pagez: 3\n"))
	assert.ErrorContains(t, err, "decode config yaml")

	_, err = LoadConfigFile(writeConfig(t, "bad.toml", "[book]\ntotal_pagez = 3\n"))
	assert.ErrorContains(t, err, "decode config toml")

	_, err = LoadConfigFile(writeConfig(t, "two.yaml", "book:\n  total_pages: 3\n---\nbook:\n  total_pages: 4\n"))
	assert.ErrorContains(t, err, "trailing document")

	_, err = LoadConfigFile("")
	assert.Error(t, err)
}

func TestFlagOverrides_Apply(t *testing.T) {
	cfg := DefaultConfig()
	pages, mode, clock, dev := 9, "carousel", "timer", "/dev/input/event3"
	reduced := true
	FlagOverrides{
		TotalPages:    &pages,
		ViewMode:      &mode,
		ReducedMotion: &reduced,
		StepClock:     &clock,
		InputDevice:   &dev,
	}.Apply(&cfg)

	assert.Equal(t, 9, cfg.Book.TotalPages)
	assert.Equal(t, "carousel", cfg.Book.ViewMode)
	assert.True(t, cfg.Book.ReducedMotion)
	assert.Equal(t, "timer", cfg.Sequencer.StepClock)
	assert.Equal(t, []string{dev}, cfg.Input.Devices)
	// Untouched fields keep their values.
	assert.Equal(t, defaultListenAddr, cfg.Server.Listen)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no pages", func(c *Config) { c.Book.TotalPages = 0 }, "book.total_pages"},
		{"view mode", func(c *Config) { c.Book.ViewMode = "list" }, "book.view_mode"},
		{"section out of range", func(c *Config) {
			c.Book.Sections = []SectionConfig{{Name: "tail", StartPage: c.Book.TotalPages}}
		}, "start_page"},
		{"duplicate section", func(c *Config) {
			c.Book.Sections = []SectionConfig{{Name: "A", StartPage: 1}, {Name: "a", StartPage: 2}}
		}, "duplicated"},
		{"falloff", func(c *Config) { c.Physics.BendFalloff = 1.5 }, "bend_falloff"},
		{"discard above release", func(c *Config) { c.Physics.DiscardThreshold = 70 }, "discard_threshold"},
		{"stagger", func(c *Config) { c.Physics.CascadeStaggerMS = 0 }, "cascade_stagger_ms"},
		{"bias", func(c *Config) { c.Sampler.ScrollableBias = 0.5 }, "scrollable_bias"},
		{"step clock", func(c *Config) { c.Sequencer.StepClock = "vsync" }, "step_clock"},
		{"tick hz", func(c *Config) { c.Sequencer.TickHz = 0 }, "tick_hz"},
		{"min above base", func(c *Config) { c.Sequencer.MinStepMS = 500 }, "min_step_ms"},
		{"queue", func(c *Config) { c.Sequencer.BroadcastQueueSize = 0 }, "broadcast_queue_size"},
		{"ws path", func(c *Config) { c.Server.WSPath = "ws" }, "ws_path"},
		{"touch scale", func(c *Config) { c.Input.TouchScale = 0 }, "touch_scale"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, "/tmp/x.sock", ExpandPath("/tmp/x.sock"))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "flipbook.yaml"), ExpandPath("~/flipbook.yaml"))
	assert.Equal(t, "~other/x", ExpandPath("~other/x"))
}
