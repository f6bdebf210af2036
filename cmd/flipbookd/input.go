package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"

	"flipbook/internal/book"
)

// inputEvent mirrors the kernel's struct input_event on 64-bit Linux:
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

var inputEventSize = binary.Size(inputEvent{})

func decodeInputEvent(buf []byte) (inputEvent, error) {
	var ev inputEvent
	err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &ev)
	return ev, err
}

// keyNames maps evdev key codes to KeyboardEvent.key names.
var keyNames = map[uint16]string{
	KEY_LEFT:     "ArrowLeft",
	KEY_RIGHT:    "ArrowRight",
	KEY_UP:       "ArrowUp",
	KEY_DOWN:     "ArrowDown",
	KEY_PAGEUP:   "PageUp",
	KEY_PAGEDOWN: "PageDown",
	KEY_HOME:     "Home",
	KEY_END:      "End",
}

// evdevTranslator turns raw evdev events into the engine's raw input events.
//
// Single-touch panels report BTN_TOUCH plus ABS_X/ABS_Y and close each frame
// with SYN_REPORT; the translator emits one TouchStart/TouchMove per frame so
// X and Y always move together. It is not safe for concurrent use.
type evdevTranslator struct {
	scale float64

	touching bool
	started  bool
	dirty    bool
	touchID  int
	x, y     float64
}

func newEvdevTranslator(touchScale float64) *evdevTranslator {
	if touchScale <= 0 {
		touchScale = 1
	}
	return &evdevTranslator{scale: touchScale}
}

// Translate consumes one evdev event and returns the engine events it completes.
func (t *evdevTranslator) Translate(ev inputEvent) []book.Event {
	switch ev.Type {
	case EV_KEY:
		if ev.Code == BTN_TOUCH {
			return t.touch(ev.Value)
		}
		if ev.Value == evValueRelease {
			return nil
		}
		if name, ok := keyNames[ev.Code]; ok {
			return []book.Event{book.KeyDown{Key: name}}
		}

	case EV_REL:
		switch ev.Code {
		case REL_WHEEL:
			// Wheel up is positive in evdev and negative deltaY in the DOM.
			return []book.Event{book.Wheel{DeltaY: -float64(ev.Value) * wheelNotchDelta}}
		case REL_HWHEEL:
			return []book.Event{book.Wheel{DeltaX: float64(ev.Value) * wheelNotchDelta}}
		}

	case EV_ABS:
		switch ev.Code {
		case ABS_X:
			t.x = float64(ev.Value) * t.scale
			t.dirty = true
		case ABS_Y:
			t.y = float64(ev.Value) * t.scale
			t.dirty = true
		}

	case EV_SYN:
		if ev.Code != SYN_REPORT || !t.touching || !t.dirty {
			return nil
		}
		t.dirty = false
		if !t.started {
			t.started = true
			return []book.Event{book.TouchStart{ID: t.touchID, X: t.x, Y: t.y}}
		}
		return []book.Event{book.TouchMove{ID: t.touchID, X: t.x, Y: t.y}}
	}
	return nil
}

func (t *evdevTranslator) touch(value int32) []book.Event {
	if value != evValueRelease {
		t.touching = true
		// The first frame carries the contact position.
		t.dirty = true
		return nil
	}
	var out []book.Event
	if t.started {
		out = append(out, book.TouchEnd{ID: t.touchID})
		t.touchID++
	}
	t.touching, t.started, t.dirty = false, false, false
	return out
}

// runInputReader opens the configured evdev devices and forwards translated
// events until ctx is canceled or a device fails.
func runInputReader(ctx context.Context, paths []string, touchScale float64, events chan<- book.Event, logger *slog.Logger) error {
	files := make([]*os.File, 0, len(paths))
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()
	for _, p := range paths {
		f, err := os.Open(ExpandPath(p))
		if err != nil {
			return fmt.Errorf("open input device %s: %w", p, err)
		}
		files = append(files, f)
		logger.Info("input device opened", "path", p)
	}

	raw := make(chan inputEvent, 64)
	readErr := make(chan error, 1)
	go readInputEvents(ctx, files, raw, readErr)

	tr := newEvdevTranslator(touchScale)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("input reader: %w", err)
		case ev := <-raw:
			for _, out := range tr.Translate(ev) {
				select {
				case events <- out:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}
