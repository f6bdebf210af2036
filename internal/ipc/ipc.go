// Package ipc implements the flipbook daemon's unix socket protocol.
//
// Protocol: line-delimited JSON.
//   - Client sends an event envelope: {"type": "event_name", "data": {...}}
//   - Server responds: {"status": "ok"} or {"status": "error", "error": "msg"}
//
// The pseudo-event {"type": "get_state"} asks for the current snapshot, which
// comes back in the response's "state" field.
package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"flipbook/internal/book"
)

const (
	StatusOK    = "ok"
	StatusError = "error"

	// TypeGetState is the envelope type of a snapshot query.
	TypeGetState = "get_state"

	dialTimeout = 2 * time.Second
	ioTimeout   = 5 * time.Second
)

// Response is sent back for every request line.
type Response struct {
	Status string         `json:"status"`
	Error  string         `json:"error,omitempty"`
	State  *book.Snapshot `json:"state,omitempty"`
}

// OK returns a success response.
func OK() Response { return Response{Status: StatusOK} }

// Errorf returns an error response.
func Errorf(format string, args ...any) Response {
	return Response{Status: StatusError, Error: fmt.Sprintf(format, args...)}
}

// Handler answers one request line.
type Handler func(ctx context.Context, line []byte) Response

// Serve listens on socketPath until ctx is canceled. Each connection is
// handled on its own goroutine; requests on one connection are answered in
// order.
func Serve(ctx context.Context, socketPath string, h Handler, logger *slog.Logger) error {
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	defer listener.Close()
	defer os.Remove(socketPath)

	if err := os.Chmod(socketPath, 0o660); err != nil {
		return fmt.Errorf("chmod socket: %w", err)
	}

	logger.Info("IPC listening", "socket", socketPath)

	// Closing the listener unblocks Accept.
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				logger.Debug("IPC listener closed")
				return nil
			}
			logger.Error("IPC accept error", "error", err)
			continue
		}
		go handleConn(ctx, conn, h, logger)
	}
}

func handleConn(ctx context.Context, conn net.Conn, h Handler, logger *slog.Logger) {
	defer conn.Close()

	logger.Debug("IPC connection", "remote_addr", conn.RemoteAddr())

	scanner := bufio.NewScanner(conn)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		logger.Debug("IPC received", "line", string(line))

		resp := h(ctx, line)
		if err := encoder.Encode(resp); err != nil {
			logger.Error("IPC failed to send response", "error", err)
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Debug("IPC connection read error", "error", err)
	}
}

// Request sends one raw envelope line and returns the daemon's response.
// A response with status "error" is returned as an error.
func Request(socketPath string, line []byte) (Response, error) {
	conn, err := net.DialTimeout("unix", socketPath, dialTimeout)
	if err != nil {
		return Response{}, fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(ioTimeout))

	if _, err := conn.Write(append(line, '\n')); err != nil {
		return Response{}, fmt.Errorf("send request: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.Status != StatusOK {
		return resp, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return resp, nil
}

// Send marshals ev and delivers it to the daemon.
func Send(socketPath string, ev book.Event) error {
	data, err := book.MarshalEvent(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = Request(socketPath, data)
	return err
}

// QueryState asks the daemon for its current snapshot.
func QueryState(socketPath string) (book.Snapshot, error) {
	data, err := json.Marshal(book.Envelope{Type: TypeGetState})
	if err != nil {
		return book.Snapshot{}, err
	}
	resp, err := Request(socketPath, data)
	if err != nil {
		return book.Snapshot{}, err
	}
	if resp.State == nil {
		return book.Snapshot{}, errors.New("daemon returned no state")
	}
	return *resp.State, nil
}
