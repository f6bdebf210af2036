package main

import (
	"log/slog"

	"flipbook/internal/book"
)

// runEffect executes a single reducer-emitted Command.
//
// It may perform I/O but never calls Reduce, and it must not block the loop.
func runEffect(cmd book.Command, logger *slog.Logger) {
	switch c := cmd.(type) {
	case book.CmdPublishStateSnapshot:
		if c.Reply == nil {
			logger.Warn("state snapshot requested with nil reply channel")
			return
		}
		// Never block the loop on a requester that went away.
		select {
		case c.Reply <- c.Snapshot:
		default:
			logger.Warn("state snapshot reply channel not ready; dropping snapshot")
		}

	case book.CmdReportJumpTimeout:
		// Recoverable: the reducer already committed the target.
		logger.Warn("jump safety timeout; forced completion",
			"jump_id", c.JumpID,
			"target_page", c.TargetPage,
			"step", c.StepIndex,
			"steps", c.StepCount,
			"elapsed", c.Elapsed,
		)

	default:
		if cmd == nil {
			return
		}
		logger.Warn("unknown command type", "command", cmd.String())
	}
}
