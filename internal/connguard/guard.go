// Package connguard owns the lifecycle of a single lazily dialed connection.
//
// A Guard dials on first use, hands the same connection to every caller while
// it reports itself healthy, and re-dials after a reset or after the driver
// signals that the connection was lost. Dials are serialized, so a guard
// never holds more than one live connection.
package connguard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// State is the guard's connection state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Conn is a connection managed by a Guard.
type Conn interface {
	// Healthy reports whether the connection can still serve requests.
	Healthy() bool
	Disconnect(ctx context.Context) error
}

// DialFunc opens a new connection.
type DialFunc[C Conn] func(ctx context.Context) (C, error)

// ConnectionError reports a failed dial or disconnect.
type ConnectionError struct {
	Op  string // "dial" or "disconnect"
	Err error
}

func (e *ConnectionError) Error() string {
	return "connection " + e.Op + ": " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IsConnectionError reports whether err wraps a *ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// Guard serializes access to one connection of type C.
type Guard[C Conn] struct {
	dial DialFunc[C]
	log  *slog.Logger

	// mu serializes dials, resets and closes. It is held across the dial.
	mu   sync.Mutex
	conn C
	has  bool

	// state and live are readable without mu so State never waits on a dial.
	state atomic.Int32
	live  atomic.Pointer[C]
}

// New creates a Guard in the Disconnected state. Nothing is dialed until
// EnsureConnected is called.
func New[C Conn](dial DialFunc[C], log *slog.Logger) *Guard[C] {
	if log == nil {
		log = slog.Default()
	}
	return &Guard[C]{dial: dial, log: log}
}

// State returns the current state. A connected guard whose connection has
// become unhealthy reports Disconnected.
func (g *Guard[C]) State() State {
	st := State(g.state.Load())
	if st == Connected {
		if c := g.live.Load(); c == nil || !(*c).Healthy() {
			return Disconnected
		}
	}
	return st
}

// EnsureConnected returns the live connection, dialing when there is none or
// the current one is no longer healthy. A failed dial leaves the guard
// Disconnected and is not retried.
func (g *Guard[C]) EnsureConnected(ctx context.Context) (C, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ensureLocked(ctx)
}

func (g *Guard[C]) ensureLocked(ctx context.Context) (C, error) {
	if g.has {
		if g.conn.Healthy() {
			return g.conn, nil
		}
		g.log.Warn("database connection lost, redialing")
		if err := g.conn.Disconnect(ctx); err != nil {
			g.log.Debug("disconnect stale connection", "error", err)
		}
		g.dropLocked()
	}

	g.state.Store(int32(Connecting))
	conn, err := g.dial(ctx)
	if err != nil {
		g.state.Store(int32(Disconnected))
		var zero C
		return zero, &ConnectionError{Op: "dial", Err: err}
	}

	g.conn, g.has = conn, true
	g.live.Store(&conn)
	g.state.Store(int32(Connected))
	g.log.Info("database connected")
	return conn, nil
}

// Reset disconnects the current connection, if any, and dials a new one.
// A failing disconnect is returned as a *ConnectionError and the guard stays
// Disconnected without dialing.
func (g *Guard[C]) Reset(ctx context.Context) (C, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.has {
		err := g.conn.Disconnect(ctx)
		g.dropLocked()
		if err != nil {
			var zero C
			return zero, &ConnectionError{Op: "disconnect", Err: err}
		}
		g.log.Info("database disconnected for reset")
	}
	return g.ensureLocked(ctx)
}

// Close disconnects the current connection, if any.
func (g *Guard[C]) Close(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.has {
		return nil
	}
	err := g.conn.Disconnect(ctx)
	g.dropLocked()
	if err != nil {
		return &ConnectionError{Op: "disconnect", Err: err}
	}
	return nil
}

func (g *Guard[C]) dropLocked() {
	var zero C
	g.conn, g.has = zero, false
	g.live.Store(nil)
	g.state.Store(int32(Disconnected))
}
