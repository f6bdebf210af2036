package main

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flipbook/internal/book"
)

func feed(tr *evdevTranslator, evs ...inputEvent) []book.Event {
	var out []book.Event
	for _, ev := range evs {
		out = append(out, tr.Translate(ev)...)
	}
	return out
}

func syn() inputEvent { return inputEvent{Type: EV_SYN, Code: SYN_REPORT} }

func TestTranslate_Keys(t *testing.T) {
	tr := newEvdevTranslator(1)

	got := feed(tr,
		inputEvent{Type: EV_KEY, Code: KEY_RIGHT, Value: evValuePress},
		inputEvent{Type: EV_KEY, Code: KEY_RIGHT, Value: evValueRepeat},
		inputEvent{Type: EV_KEY, Code: KEY_RIGHT, Value: evValueRelease},
		inputEvent{Type: EV_KEY, Code: KEY_PAGEDOWN, Value: evValuePress},
		inputEvent{Type: EV_KEY, Code: 30, Value: evValuePress}, // KEY_A
	)
	assert.Equal(t, []book.Event{
		book.KeyDown{Key: "ArrowRight"},
		book.KeyDown{Key: "ArrowRight"},
		book.KeyDown{Key: "PageDown"},
	}, got)
}

func TestTranslate_Wheel(t *testing.T) {
	tr := newEvdevTranslator(1)

	got := feed(tr,
		inputEvent{Type: EV_REL, Code: REL_WHEEL, Value: -1},
		inputEvent{Type: EV_REL, Code: REL_HWHEEL, Value: 2},
	)
	assert.Equal(t, []book.Event{
		book.Wheel{DeltaY: wheelNotchDelta},
		book.Wheel{DeltaX: 2 * wheelNotchDelta},
	}, got)
}

func TestTranslate_TouchFramesBecomeTouchEvents(t *testing.T) {
	tr := newEvdevTranslator(0.5)

	got := feed(tr,
		inputEvent{Type: EV_KEY, Code: BTN_TOUCH, Value: evValuePress},
		inputEvent{Type: EV_ABS, Code: ABS_X, Value: 200},
		inputEvent{Type: EV_ABS, Code: ABS_Y, Value: 100},
		syn(),
		inputEvent{Type: EV_ABS, Code: ABS_X, Value: 260},
		syn(),
		syn(), // no movement, no event
		inputEvent{Type: EV_KEY, Code: BTN_TOUCH, Value: evValueRelease},
		syn(),
	)
	assert.Equal(t, []book.Event{
		book.TouchStart{ID: 0, X: 100, Y: 50},
		book.TouchMove{ID: 0, X: 130, Y: 50},
		book.TouchEnd{ID: 0},
	}, got)

	// The next contact gets a new id.
	got = feed(tr,
		inputEvent{Type: EV_KEY, Code: BTN_TOUCH, Value: evValuePress},
		syn(),
		inputEvent{Type: EV_KEY, Code: BTN_TOUCH, Value: evValueRelease},
	)
	assert.Equal(t, []book.Event{
		book.TouchStart{ID: 1, X: 130, Y: 50},
		book.TouchEnd{ID: 1},
	}, got)
}

func TestTranslate_AbsWithoutContactIgnored(t *testing.T) {
	tr := newEvdevTranslator(1)
	got := feed(tr,
		inputEvent{Type: EV_ABS, Code: ABS_X, Value: 10},
		syn(),
		inputEvent{Type: EV_KEY, Code: BTN_TOUCH, Value: evValueRelease},
	)
	assert.Empty(t, got)
}

func TestDecodeInputEvent(t *testing.T) {
	want := inputEvent{Sec: 12, Usec: 34, Type: EV_KEY, Code: KEY_HOME, Value: evValuePress}
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, want))
	require.Equal(t, inputEventSize, buf.Len())

	got, err := decodeInputEvent(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = decodeInputEvent(buf.Bytes()[:8])
	assert.Error(t, err)
}
