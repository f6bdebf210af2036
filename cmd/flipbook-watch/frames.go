package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"flipbook/internal/book"
)

// frame is the daemon's outbound envelope: {type, ts, data}.
type frame struct {
	Type string          `json:"type"`
	Ts   time.Time       `json:"ts"`
	Data json.RawMessage `json:"data"`
}

type stepFrame struct {
	JumpID     uuid.UUID      `json:"jump_id"`
	StepCount  int            `json:"step_count"`
	Index      int            `json:"index"`
	Page       int            `json:"page"`
	Direction  book.Direction `json:"direction"`
	DurationMS int64          `json:"duration_ms"`
	Easing     string         `json:"easing"`
	Final      bool           `json:"final"`
}

type forcedFrame struct {
	JumpID     uuid.UUID `json:"jump_id"`
	TargetPage int       `json:"target_page"`
}

// decoded holds exactly one non-nil payload.
type decoded struct {
	State  *book.Snapshot
	Step   *stepFrame
	Forced *forcedFrame
}

func decodeFrame(msg []byte) (frame, decoded, error) {
	var f frame
	if err := json.Unmarshal(msg, &f); err != nil {
		return f, decoded{}, fmt.Errorf("decode frame: %w", err)
	}

	var d decoded
	var target any
	switch f.Type {
	case "state", "state_init":
		d.State = &book.Snapshot{}
		target = d.State
	case "animation_step":
		d.Step = &stepFrame{}
		target = d.Step
	case "jump_forced":
		d.Forced = &forcedFrame{}
		target = d.Forced
	default:
		return f, d, nil
	}
	if err := json.Unmarshal(f.Data, target); err != nil {
		return f, decoded{}, fmt.Errorf("decode %s: %w", f.Type, err)
	}
	return f, d, nil
}
