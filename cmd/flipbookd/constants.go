package main

// Linux input event types and codes (from <linux/input.h>)
const (
	EV_SYN = 0x00
	EV_KEY = 0x01
	EV_REL = 0x02
	EV_ABS = 0x03

	SYN_REPORT = 0

	KEY_HOME     = 102
	KEY_UP       = 103
	KEY_PAGEUP   = 104
	KEY_LEFT     = 105
	KEY_RIGHT    = 106
	KEY_END      = 107
	KEY_DOWN     = 108
	KEY_PAGEDOWN = 109

	BTN_TOUCH = 0x14a

	REL_HWHEEL = 0x06
	REL_WHEEL  = 0x08

	ABS_X = 0x00
	ABS_Y = 0x01
)

// Input event value constants
const (
	evValueRelease = 0
	evValuePress   = 1
	evValueRepeat  = 2
)

// Daemon defaults
const (
	defaultTotalPages         = 24
	defaultTickHz             = 60 // animation-frame clock
	defaultStateCoalesceMS    = 16 // one frame at 60Hz
	defaultBroadcastQueueSize = 256
	defaultListenAddr         = "127.0.0.1:3310"
	defaultIPCSocket          = "/tmp/flipbook.sock"

	// wheelNotchDelta converts one REL_WHEEL detent into a wheel delta large
	// enough to clear the sampler's minimum.
	wheelNotchDelta = 100.0
)
