package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flipbook/internal/book"
	"flipbook/internal/ipc"
)

func TestIPCHandler_EnqueuesEvents(t *testing.T) {
	events := make(chan book.Event, 1)
	h := newIPCHandler(events)

	resp := h(context.Background(), []byte(`{"type":"request_jump","data":{"target_page":5,"source":"keyboard"}}`))
	require.Equal(t, ipc.StatusOK, resp.Status)
	assert.Equal(t, book.RequestJump{TargetPage: 5, Source: book.SourceKeyboard}, <-events)

	resp = h(context.Background(), []byte(`{"type":"fold_page"}`))
	assert.Equal(t, ipc.StatusError, resp.Status)
	assert.Contains(t, resp.Error, "parse event")

	resp = h(context.Background(), []byte(`{`))
	assert.Equal(t, ipc.StatusError, resp.Status)
}

func TestIPCHandler_QueueFull(t *testing.T) {
	events := make(chan book.Event, 1)
	events <- book.CompleteJump{}
	h := newIPCHandler(events)

	resp := h(context.Background(), []byte(`{"type":"complete_jump"}`))
	assert.Equal(t, ipc.StatusError, resp.Status)
	assert.Equal(t, "event queue full", resp.Error)
}

func TestIPCHandler_GetStateGoesThroughLoop(t *testing.T) {
	cfg := book.DefaultConfig(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan book.Event, 4)
	go runDaemon(ctx, events, book.NewEngineState(cfg), cfg, nil, 100, quietLogger())

	h := newIPCHandler(events)
	resp := h(ctx, []byte(`{"type":"get_state"}`))
	require.Equal(t, ipc.StatusOK, resp.Status, resp.Error)
	require.NotNil(t, resp.State)
	assert.Equal(t, 8, resp.State.Book.TotalPages)
}

func TestIPCHandler_GetStateTimesOutWithoutLoop(t *testing.T) {
	events := make(chan book.Event, 1)
	h := newIPCHandler(events)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	resp := h(ctx, []byte(`{"type":"get_state"}`))
	assert.Equal(t, ipc.StatusError, resp.Status)
	assert.Nil(t, resp.State)
}
