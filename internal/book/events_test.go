package book

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalEvent(t *testing.T) {
	id := uuid.MustParse("6f1c2c4e-8d3b-4b1a-9a57-3f0e2d9c1b44")

	tests := []struct {
		name string
		in   string
		want Event
	}{
		{"request jump", `{"type":"request_jump","data":{"target_page":4,"source":"tab"}}`, RequestJump{TargetPage: 4, Source: SourceTab}},
		{"complete jump without data", `{"type":"complete_jump"}`, CompleteJump{}},
		{"page landed", `{"type":"page_landed","data":{"page_index":3}}`, PageLanded{PageIndex: 3}},
		{"touch end without data", `{"type":"touch_end"}`, TouchEnd{}},
		{"wheel", `{"type":"wheel","data":{"delta_x":0,"delta_y":-40}}`, Wheel{DeltaY: -40}},
		{"key", `{"type":"key","data":{"key":"PageDown"}}`, KeyDown{Key: "PageDown"}},
		{"step complete", `{"type":"step_complete","data":{"jump_id":"` + id.String() + `","step_index":2}}`, StepComplete{JumpID: id, StepIndex: 2}},
		{"view mode", `{"type":"set_view_mode","data":{"mode":"carousel"}}`, SetViewMode{Mode: ViewCarousel}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalEvent([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnmarshalEvent_Errors(t *testing.T) {
	_, err := UnmarshalEvent([]byte(`{"type":"shake_book"}`))
	assert.ErrorContains(t, err, "unknown event type")

	_, err = UnmarshalEvent([]byte(`{"type":"request_jump"}`))
	assert.ErrorContains(t, err, "missing data")

	_, err = UnmarshalEvent([]byte(`{"type":"page_landed","data":{"page_index":"three"}}`))
	assert.ErrorContains(t, err, "unmarshal PageLanded")

	_, err = UnmarshalEvent([]byte(`not json`))
	assert.Error(t, err)
}

func TestMarshalEvent_UsesEnvelopeDiscriminator(t *testing.T) {
	b, err := MarshalEvent(GestureSample{Delta: 1.5, Velocity: -2})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(b, &env))
	assert.Equal(t, "gesture_sample", env.Type)

	back, err := UnmarshalEvent(b)
	require.NoError(t, err)
	assert.Equal(t, GestureSample{Delta: 1.5, Velocity: -2}, back)

	b, err = MarshalEvent(ToggleReducedMotion{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"toggle_reduced_motion"}`, string(b))

	_, err = MarshalEvent(Tick{})
	assert.Error(t, err)
}

func TestDirectionJSON(t *testing.T) {
	b, err := json.Marshal(ReleasedPage{PageIndex: 1, Direction: Backward})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"direction":"backward"`)

	var d Direction
	require.NoError(t, json.Unmarshal([]byte(`"forward"`), &d))
	assert.Equal(t, Forward, d)
	require.NoError(t, json.Unmarshal([]byte(`-1`), &d))
	assert.Equal(t, Backward, d)
	assert.Error(t, json.Unmarshal([]byte(`"sideways"`), &d))
}
