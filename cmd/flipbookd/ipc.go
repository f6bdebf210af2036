package main

import (
	"context"
	"encoding/json"
	"time"

	"flipbook/internal/book"
	"flipbook/internal/ipc"
)

// snapshotWait bounds a get_state round-trip through the daemon loop.
const snapshotWait = time.Second

// newIPCHandler turns IPC request lines into daemon events.
//
// Event envelopes are enqueued without blocking; a full queue is reported to
// the client. get_state is answered with a snapshot taken through the loop.
func newIPCHandler(events chan<- book.Event) ipc.Handler {
	return func(ctx context.Context, line []byte) ipc.Response {
		var env book.Envelope
		if err := json.Unmarshal(line, &env); err != nil {
			return ipc.Errorf("parse event: %v", err)
		}
		if env.Type == ipc.TypeGetState {
			return querySnapshot(ctx, events)
		}

		ev, err := book.UnmarshalEvent(line)
		if err != nil {
			return ipc.Errorf("parse event: %v", err)
		}

		select {
		case events <- ev:
			return ipc.OK()
		default:
			return ipc.Errorf("event queue full")
		}
	}
}

func querySnapshot(ctx context.Context, events chan<- book.Event) ipc.Response {
	ctx, cancel := context.WithTimeout(ctx, snapshotWait)
	defer cancel()

	reply := make(chan book.Snapshot, 1)
	select {
	case events <- book.RequestStateSnapshot{Reply: reply}:
	case <-ctx.Done():
		return ipc.Errorf("snapshot request: %v", ctx.Err())
	}

	select {
	case snap := <-reply:
		resp := ipc.OK()
		resp.State = &snap
		return resp
	case <-ctx.Done():
		return ipc.Errorf("snapshot request: %v", ctx.Err())
	}
}
