package main

import (
	"context"
	"log/slog"
	"time"

	"flipbook/internal/book"
)

// ============================================================================
// Central Daemon Loop
// ============================================================================
//
// The daemon loop is the only owner of *book.EngineState.
//
//   - Every inbound event is stamped with its arrival time (TimedEvent).
//   - A fixed-cadence Tick stands in for the animation-frame clock.
//   - Reduce computes next state + commands + broadcasts without I/O.
//   - Commands run in runEffect after the event queue drains.
//   - Broadcasts are forwarded to the websocket broadcaster without blocking.
//
// ============================================================================

// runDaemon runs until ctx is canceled or events is closed.
func runDaemon(
	ctx context.Context,
	events <-chan book.Event,
	state *book.EngineState,
	cfg book.Config,
	broadcasts chan<- book.Broadcast,
	tickHz int,
	logger *slog.Logger,
) {
	if state == nil {
		logger.Error("engine state is nil")
		return
	}
	if tickHz <= 0 {
		tickHz = defaultTickHz
	}

	ticker := time.NewTicker(time.Second / time.Duration(tickHz))
	defer ticker.Stop()

	lastTick := time.Now()

	var eventQueue []book.Event
	var cmdQueue []book.Command

	enqueueEvent := func(ev book.Event) {
		eventQueue = append(eventQueue, ev)
	}

	publish := func(bs []book.Broadcast) {
		if broadcasts == nil {
			return
		}
		for _, b := range bs {
			select {
			case broadcasts <- b:
			default:
				logger.Warn("broadcast queue full, dropping", "type", broadcastName(b))
			}
		}
	}

	flushEvents := func() {
		for len(eventQueue) > 0 {
			ev := eventQueue[0]
			eventQueue = eventQueue[1:]

			rr := book.Reduce(state, ev, cfg)
			if rr.State != nil {
				state = rr.State
			}
			cmdQueue = append(cmdQueue, rr.Commands...)
			publish(rr.Broadcasts)
		}
	}

	flushCommands := func() {
		for len(cmdQueue) > 0 {
			cmd := cmdQueue[0]
			cmdQueue = cmdQueue[1:]

			runEffect(cmd, logger)
		}
	}

	logger.Info("daemon started",
		"total_pages", cfg.TotalPages,
		"step_clock", cfg.Sequencer.StepClock,
		"tick_hz", tickHz,
	)

	for {
		select {
		case <-ctx.Done():
			logger.Info("daemon stopping (context canceled)")
			return

		case ev, ok := <-events:
			if !ok {
				logger.Info("daemon stopping (events channel closed)")
				return
			}
			enqueueEvent(book.TimedEvent{Event: ev, At: time.Now()})
			flushEvents()
			flushCommands()

		case now := <-ticker.C:
			dt := now.Sub(lastTick).Seconds()
			lastTick = now
			enqueueEvent(book.Tick{Now: now, Dt: dt})
			flushEvents()
			flushCommands()
		}
	}
}

func broadcastName(b book.Broadcast) string {
	switch b.(type) {
	case book.BroadcastStateChanged:
		return "state"
	case book.BroadcastAnimationStep:
		return "animation_step"
	case book.BroadcastJumpForced:
		return "jump_forced"
	default:
		return "unknown"
	}
}
