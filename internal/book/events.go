package book

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Events and Actions
// ============================================================================
// Events are the only input to Reduce. Actions are the subset of events that
// form the store's fixed vocabulary; raw input events are interpreted by the
// gesture sampler and turned into actions inside the reducer.
// ============================================================================

// Event is the input to the reducer.
type Event interface {
	eventMarker()
}

// Action is a store action. Every action is also an Event.
type Action interface {
	Event
	actionMarker()
}

// TimedEvent stamps an event with the time the daemon received it.
// Payload types stay clean; timing lives here.
type TimedEvent struct {
	Event Event
	At    time.Time
}

func (TimedEvent) eventMarker() {}

// Tick is emitted by the daemon loop at a fixed cadence (the animation-frame clock).
// Dt is wall-clock delta in seconds between ticks.
type Tick struct {
	Now time.Time
	Dt  float64
}

func (Tick) eventMarker() {}

// JumpSource identifies what asked for a discrete jump.
type JumpSource string

const (
	SourceUnspecified JumpSource = ""
	SourceCarousel    JumpSource = "carousel"
	SourceTab         JumpSource = "tab"
	SourceKeyboard    JumpSource = "keyboard"
	SourceWheel       JumpSource = "wheel"
	SourceSwipe       JumpSource = "swipe"
	SourceDeepLink    JumpSource = "deeplink"
)

// ----------------------------------------------------------------------------
// Store actions
// ----------------------------------------------------------------------------

// RequestJump asks for a discrete jump to TargetPage.
type RequestJump struct {
	TargetPage int        `json:"target_page"`
	Source     JumpSource `json:"source,omitempty"`
}

// CompleteJump commits the in-flight jump target.
type CompleteJump struct{}

// SettleJump moves an in-flight jump from riffling to its final settle step.
type SettleJump struct{}

// GestureBegin marks the start of a continuous gesture.
type GestureBegin struct{}

// GestureSample is one normalized continuous input sample.
type GestureSample struct {
	Delta    float64 `json:"delta"`
	Velocity float64 `json:"velocity"`
}

// GestureEnd ends the continuous gesture (release or discard).
type GestureEnd struct{}

// PageLanded acknowledges that one released page finished its landing animation.
type PageLanded struct {
	PageIndex int `json:"page_index"`
}

// ToggleReducedMotion flips the reduced-motion preference.
type ToggleReducedMotion struct{}

// SetReducedMotion sets the reduced-motion preference explicitly
// (the host's preference sampled at startup).
type SetReducedMotion struct {
	Enabled bool `json:"enabled"`
}

// SetViewMode switches between grid and carousel.
type SetViewMode struct {
	Mode ViewMode `json:"mode"`
}

func (RequestJump) eventMarker()         {}
func (CompleteJump) eventMarker()        {}
func (SettleJump) eventMarker()          {}
func (GestureBegin) eventMarker()        {}
func (GestureSample) eventMarker()       {}
func (GestureEnd) eventMarker()          {}
func (PageLanded) eventMarker()          {}
func (ToggleReducedMotion) eventMarker() {}
func (SetReducedMotion) eventMarker()    {}
func (SetViewMode) eventMarker()         {}

func (RequestJump) actionMarker()         {}
func (CompleteJump) actionMarker()        {}
func (SettleJump) actionMarker()          {}
func (GestureBegin) actionMarker()        {}
func (GestureSample) actionMarker()       {}
func (GestureEnd) actionMarker()          {}
func (PageLanded) actionMarker()          {}
func (ToggleReducedMotion) actionMarker() {}
func (SetReducedMotion) actionMarker()    {}
func (SetViewMode) actionMarker()         {}

// ----------------------------------------------------------------------------
// Raw input events (interpreted by the gesture sampler)
// ----------------------------------------------------------------------------

// TouchStart begins a touch. OverScrollable is true when the touch origin sits
// over an element with genuine overflow scroll.
type TouchStart struct {
	ID             int     `json:"id"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	OverScrollable bool    `json:"over_scrollable,omitempty"`
}

// TouchMove reports the new position of a touch.
type TouchMove struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// TouchEnd ends a touch.
type TouchEnd struct {
	ID int `json:"id"`
}

// Wheel is a mouse wheel / trackpad scroll. CanScroll reports whether the
// scrollable content under the pointer still has room in the indicated direction.
type Wheel struct {
	DeltaX         float64 `json:"delta_x"`
	DeltaY         float64 `json:"delta_y"`
	OverScrollable bool    `json:"over_scrollable,omitempty"`
	CanScroll      bool    `json:"can_scroll,omitempty"`
}

// KeyDown is a navigation key press, named like DOM KeyboardEvent.key
// (ArrowLeft, ArrowRight, ArrowUp, ArrowDown, PageUp, PageDown, Home, End).
type KeyDown struct {
	Key string `json:"key"`
}

func (TouchStart) eventMarker() {}
func (TouchMove) eventMarker()  {}
func (TouchEnd) eventMarker()   {}
func (Wheel) eventMarker()      {}
func (KeyDown) eventMarker()    {}

// ----------------------------------------------------------------------------
// Sequencer and host events
// ----------------------------------------------------------------------------

// StepComplete acknowledges that the render layer finished an animation step.
type StepComplete struct {
	JumpID    uuid.UUID `json:"jump_id"`
	StepIndex int       `json:"step_index"`
}

// DeepLink supplies the initial jump resolved from a URL fragment.
// Only the first DeepLink after mount is applied.
type DeepLink struct {
	TargetPage int `json:"target_page"`
}

// RequestStateSnapshot asks the reducer to publish a snapshot to Reply.
// It is not serializable; it only travels over in-process channels.
type RequestStateSnapshot struct {
	Reply chan<- Snapshot
}

func (StepComplete) eventMarker()         {}
func (DeepLink) eventMarker()             {}
func (RequestStateSnapshot) eventMarker() {}

// ============================================================================
// JSON Encoding/Decoding Support
// ============================================================================
// Envelope wraps events for JSON serialization. Go has no union types, so a
// type discriminator selects the payload.
// ============================================================================

// Envelope wraps an event with a type discriminator for JSON marshaling.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// UnmarshalEvent deserializes a JSON envelope into a concrete Event.
func UnmarshalEvent(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case "request_jump":
		return decodePayload[RequestJump](env, "RequestJump")
	case "complete_jump":
		return CompleteJump{}, nil
	case "settle_jump":
		return SettleJump{}, nil
	case "gesture_begin":
		return GestureBegin{}, nil
	case "gesture_sample":
		return decodePayload[GestureSample](env, "GestureSample")
	case "gesture_end":
		return GestureEnd{}, nil
	case "page_landed":
		return decodePayload[PageLanded](env, "PageLanded")
	case "toggle_reduced_motion":
		return ToggleReducedMotion{}, nil
	case "set_reduced_motion":
		return decodePayload[SetReducedMotion](env, "SetReducedMotion")
	case "set_view_mode":
		return decodePayload[SetViewMode](env, "SetViewMode")
	case "touch_start":
		return decodePayload[TouchStart](env, "TouchStart")
	case "touch_move":
		return decodePayload[TouchMove](env, "TouchMove")
	case "touch_end":
		if len(env.Data) == 0 {
			return TouchEnd{}, nil
		}
		return decodePayload[TouchEnd](env, "TouchEnd")
	case "wheel":
		return decodePayload[Wheel](env, "Wheel")
	case "key":
		return decodePayload[KeyDown](env, "KeyDown")
	case "step_complete":
		return decodePayload[StepComplete](env, "StepComplete")
	case "deep_link":
		return decodePayload[DeepLink](env, "DeepLink")
	default:
		return nil, fmt.Errorf("unknown event type: %s", env.Type)
	}
}

func decodePayload[T Event](env Envelope, name string) (Event, error) {
	var v T
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("unmarshal %s: missing data", name)
	}
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return v, nil
}

// MarshalEvent serializes an Event into a JSON envelope.
func MarshalEvent(ev Event) ([]byte, error) {
	var env Envelope
	var payload any

	switch e := ev.(type) {
	case RequestJump:
		env.Type, payload = "request_jump", e
	case CompleteJump:
		env.Type = "complete_jump"
	case SettleJump:
		env.Type = "settle_jump"
	case GestureBegin:
		env.Type = "gesture_begin"
	case GestureSample:
		env.Type, payload = "gesture_sample", e
	case GestureEnd:
		env.Type = "gesture_end"
	case PageLanded:
		env.Type, payload = "page_landed", e
	case ToggleReducedMotion:
		env.Type = "toggle_reduced_motion"
	case SetReducedMotion:
		env.Type, payload = "set_reduced_motion", e
	case SetViewMode:
		env.Type, payload = "set_view_mode", e
	case TouchStart:
		env.Type, payload = "touch_start", e
	case TouchMove:
		env.Type, payload = "touch_move", e
	case TouchEnd:
		env.Type, payload = "touch_end", e
	case Wheel:
		env.Type, payload = "wheel", e
	case KeyDown:
		env.Type, payload = "key", e
	case StepComplete:
		env.Type, payload = "step_complete", e
	case DeepLink:
		env.Type, payload = "deep_link", e
	default:
		return nil, fmt.Errorf("unknown event type: %T", ev)
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", env.Type, err)
		}
		env.Data = data
	}
	return json.Marshal(env)
}
