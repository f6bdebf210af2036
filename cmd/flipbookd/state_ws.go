package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"flipbook/internal/book"
)

// ============================================================================
// Render WebSocket: hub + per-client pumps + broadcaster
// ============================================================================
//
// Render clients (the page renderer, flipbook-watch) connect here.
//
//   - Outbound frames are JSON envelopes {type, ts, data}.
//   - The first frame is "state_init", taken through the event loop.
//   - "state" frames are coalesced latest-wins within one frame window.
//   - "animation_step" and "jump_forced" frames go out immediately.
//   - Inbound frames are event envelopes (page_landed, step_complete, raw
//     input) and are forwarded to the daemon loop.
//   - Slow clients are disconnected when their send buffer fills.
//
// ============================================================================

// wsStepData is the JSON `data` payload for "animation_step".
type wsStepData struct {
	JumpID       uuid.UUID      `json:"jump_id"`
	StepCount    int            `json:"step_count"`
	Index        int            `json:"index"`
	Page         int            `json:"page"`
	Direction    book.Direction `json:"direction"`
	DurationMS   int64          `json:"duration_ms"`
	Easing       book.Easing    `json:"easing"`
	Curl         bool           `json:"curl"`
	Final        bool           `json:"final"`
	ShowsContent bool           `json:"shows_content"`
}

// wsJumpForcedData is the JSON `data` payload for "jump_forced".
type wsJumpForcedData struct {
	JumpID     uuid.UUID `json:"jump_id"`
	TargetPage int       `json:"target_page"`
}

// wsOutboundEvent is a pre-typed, externally-consumable frame.
type wsOutboundEvent struct {
	Type string
	Data any
	At   time.Time
}

// envelope is the wire format envelope for outbound WS messages.
type envelope struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

func marshalFrame(ev wsOutboundEvent) ([]byte, error) {
	ts := ev.At.UTC()
	if ev.At.IsZero() {
		ts = time.Now().UTC()
	}
	return json.Marshal(envelope{Type: ev.Type, Ts: &ts, Data: ev.Data})
}

// ============================================================================
// Hub
// ============================================================================

type Hub struct {
	logger *slog.Logger

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.Mutex
	clients map[*Client]struct{}

	sendBuf int
}

type HubConfig struct {
	// SendBuf is the per-client outbound queue size. Zero means 32.
	SendBuf int
	// BroadcastBuf is the hub inbound broadcast queue size. Zero means 128.
	BroadcastBuf int
}

// NewHub constructs a hub. Call Run(ctx) to start it.
func NewHub(logger *slog.Logger, cfg HubConfig) *Hub {
	sendBuf := cfg.SendBuf
	if sendBuf <= 0 {
		sendBuf = 32
	}
	bcastBuf := cfg.BroadcastBuf
	if bcastBuf <= 0 {
		bcastBuf = 128
	}

	return &Hub{
		logger:     logger,
		broadcast:  make(chan []byte, bcastBuf),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		clients:    make(map[*Client]struct{}),
		sendBuf:    sendBuf,
	}
}

// Run processes hub events until ctx is canceled and then drops all clients.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("ws hub starting")

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("ws hub stopping (context canceled)")
			h.closeAllClients()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws client registered", "remote_addr", c.remoteAddr, "clients", n)

		case c := <-h.unregister:
			h.removeClient(c, "unregister")

		case msg := <-h.broadcast:
			var slow []*Client

			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.Unlock()

			for _, c := range slow {
				h.removeClient(c, "slow_client")
			}
		}
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.conn != nil {
			_ = c.conn.Close()
		}
		safeCloseChan(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) removeClient(c *Client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	// Closing send tells writePump to exit.
	safeCloseChan(c.send)
	h.logger.Info("ws client disconnected", "remote_addr", c.remoteAddr, "reason", reason, "clients", n)
}

func safeCloseChan(ch chan []byte) {
	defer func() {
		_ = recover() // close of closed channel
	}()
	close(ch)
}

// BroadcastBytes enqueues a pre-serialized frame. It drops the frame rather
// than block when the hub queue is full.
func (h *Hub) BroadcastBytes(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("ws hub broadcast queue full, dropping message", "bytes", len(msg))
	}
}

// ============================================================================
// Client
// ============================================================================

type Client struct {
	hub *Hub

	conn *websocket.Conn
	send chan []byte

	// events receives decoded inbound frames. Nil makes the client read-only.
	events chan<- book.Event

	remoteAddr string
	logger     *slog.Logger
}

// NewClient creates a client with a buffered send channel.
func NewClient(hub *Hub, conn *websocket.Conn, events chan<- book.Event, remoteAddr string, logger *slog.Logger) *Client {
	sendBuf := 32
	if hub != nil && hub.sendBuf > 0 {
		sendBuf = hub.sendBuf
	}
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBuf),
		events:     events,
		remoteAddr: remoteAddr,
		logger:     logger,
	}
}

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second

	// maxInboundFrame bounds a single inbound event envelope.
	maxInboundFrame = 4096
)

func closeStatus(err error) (code int, text string, ok bool) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Text, true
	}
	return 0, "", false
}

func (c *Client) logExit(pump, kind string, err error) {
	if errors.Is(err, websocket.ErrCloseSent) {
		return
	}
	if code, text, ok := closeStatus(err); ok {
		c.logger.Info("ws "+pump+" exiting (close)", "remote_addr", c.remoteAddr, "code", code, "reason", text)
		return
	}
	c.logger.Info("ws "+pump+" exiting ("+kind+" error)", "remote_addr", c.remoteAddr, "error", err)
}

// writePump writes queued frames until send is closed or a write fails.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logExit("writePump", "write", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logExit("writePump", "ping", err)
				return
			}
		}
	}
}

// readPump decodes inbound event envelopes and forwards them to the daemon
// loop. It exits on read error, then unregisters the client.
func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxInboundFrame)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.logExit("readPump", "read", err)
			if c.hub != nil {
				c.hub.unregister <- c
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if !c.deliver(ctx, data) {
			return
		}
	}
}

// deliver decodes one inbound frame and hands it to the event loop.
// It returns false once ctx is canceled.
func (c *Client) deliver(ctx context.Context, data []byte) bool {
	if c.events == nil {
		return true
	}
	ev, err := book.UnmarshalEvent(data)
	if err != nil {
		c.logger.Warn("ws inbound frame rejected", "remote_addr", c.remoteAddr, "error", err)
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case c.events <- ev:
		return true
	}
}

// ============================================================================
// HTTP Handler
// ============================================================================

type StateServer struct {
	logger *slog.Logger
	hub    *Hub

	// events carries snapshot requests and inbound client frames into the
	// daemon loop.
	events chan<- book.Event

	// ctx bounds the lifetime of connection pumps.
	ctx context.Context
}

// NewStateServer constructs the websocket server. Start hub.Run(ctx) and
// RunBroadcaster separately.
func NewStateServer(ctx context.Context, logger *slog.Logger, events chan<- book.Event, cfg HubConfig) *StateServer {
	return &StateServer{
		logger: logger,
		hub:    NewHub(logger, cfg),
		events: events,
		ctx:    ctx,
	}
}

func (s *StateServer) Hub() *Hub { return s.hub }

// Register registers the WS handler on the provided mux.
func (s *StateServer) Register(mux *http.ServeMux, path string) {
	if mux == nil {
		return
	}
	mux.HandleFunc(path, s.handleStateWS)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStateWS upgrades and registers a client, then sends state_init.
func (s *StateServer) handleStateWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	client := NewClient(s.hub, conn, s.events, r.RemoteAddr, s.logger)
	s.hub.register <- client

	// Pumps outlive the request; net/http cancels r.Context() when this
	// handler returns.
	go client.writePump(s.ctx)
	go client.readPump(s.ctx)

	if s.events == nil {
		return
	}

	reply := make(chan book.Snapshot, 1)
	select {
	case <-r.Context().Done():
		return
	case s.events <- book.RequestStateSnapshot{Reply: reply}:
	}

	waitCtx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()

	select {
	case <-waitCtx.Done():
		if !errors.Is(waitCtx.Err(), context.Canceled) {
			s.logger.Warn("ws snapshot request failed", "error", waitCtx.Err())
		}
		return

	case snap := <-reply:
		initMsg, err := marshalFrame(wsOutboundEvent{Type: "state_init", Data: snap})
		if err != nil {
			s.logger.Warn("ws state_init marshal failed", "error", err)
			return
		}
		select {
		case client.send <- initMsg:
		default:
			s.hub.unregister <- client
		}
	}
}

// ============================================================================
// Broadcaster
// ============================================================================

// RunBroadcaster reads reducer broadcasts, marshals them and fans them out
// through the hub. Run it as a single goroutine.
//
// "state" frames are rate-limited: the latest pending snapshot is flushed at
// most once per window while updates keep arriving. Any other frame flushes
// the pending snapshot first so clients see state before the step it caused.
func RunBroadcaster(ctx context.Context, hub *Hub, src <-chan book.Broadcast, window time.Duration, logger *slog.Logger) {
	if hub == nil || src == nil {
		return
	}

	var pending *wsOutboundEvent
	var timer *time.Timer
	var timerCh <-chan time.Time

	emit := func(ev wsOutboundEvent) {
		msg, err := marshalFrame(ev)
		if err != nil {
			logger.Warn("ws broadcaster marshal failed", "error", err, "type", ev.Type)
			return
		}
		hub.BroadcastBytes(msg)
	}

	flushPending := func() {
		if pending == nil {
			return
		}
		emit(*pending)
		pending = nil
	}

	stopTimer := func() {
		if timer != nil && !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer = nil
		timerCh = nil
	}

	for {
		select {
		case <-ctx.Done():
			flushPending()
			stopTimer()
			return

		case <-timerCh:
			flushPending()
			stopTimer()

		case b, ok := <-src:
			if !ok {
				flushPending()
				stopTimer()
				logger.Info("ws broadcaster stopping (source ended)")
				return
			}

			ev, ok := convertBroadcast(b)
			if !ok {
				continue
			}

			if ev.Type == "state" && window > 0 {
				copyEv := ev
				pending = &copyEv
				if timer == nil {
					timer = time.NewTimer(window)
					timerCh = timer.C
				}
				continue
			}

			flushPending()
			stopTimer()
			emit(ev)
		}
	}
}

func convertBroadcast(b book.Broadcast) (wsOutboundEvent, bool) {
	switch ev := b.(type) {
	case book.BroadcastStateChanged:
		return wsOutboundEvent{Type: "state", Data: ev.Snapshot, At: ev.At}, true

	case book.BroadcastAnimationStep:
		return wsOutboundEvent{
			Type: "animation_step",
			Data: wsStepData{
				JumpID:       ev.JumpID,
				StepCount:    ev.StepCount,
				Index:        ev.Step.Index,
				Page:         ev.Step.Page,
				Direction:    ev.Step.Direction,
				DurationMS:   ev.Step.Duration.Milliseconds(),
				Easing:       ev.Step.Easing,
				Curl:         ev.Step.Curl,
				Final:        ev.Step.Final,
				ShowsContent: ev.Step.ShowsContent,
			},
			At: ev.At,
		}, true

	case book.BroadcastJumpForced:
		return wsOutboundEvent{
			Type: "jump_forced",
			Data: wsJumpForcedData{JumpID: ev.JumpID, TargetPage: ev.TargetPage},
			At:   ev.At,
		}, true

	default:
		return wsOutboundEvent{}, false
	}
}
