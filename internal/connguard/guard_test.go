package connguard_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Strob0t/Karuna/internal/connguard"
)

// fakeConn records disconnects and lets tests flip its health.
type fakeConn struct {
	id            int
	healthy       atomic.Bool
	disconnects   atomic.Int32
	disconnectErr error
}

func (c *fakeConn) Healthy() bool { return c.healthy.Load() }

func (c *fakeConn) Disconnect(context.Context) error {
	c.disconnects.Add(1)
	c.healthy.Store(false)
	return c.disconnectErr
}

// dialer hands out fresh fakeConns and counts dials.
type dialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	err   error
}

func (d *dialer) dial(context.Context) (*fakeConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	c := &fakeConn{id: len(d.conns) + 1}
	c.healthy.Store(true)
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *dialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

func TestEnsureConnectedDialsOnce(t *testing.T) {
	d := &dialer{}
	g := connguard.New(d.dial, nil)
	ctx := context.Background()

	if g.State() != connguard.Disconnected {
		t.Fatalf("initial state = %s, want disconnected", g.State())
	}

	first, err := g.EnsureConnected(ctx)
	if err != nil {
		t.Fatal(err)
	}
	second, err := g.EnsureConnected(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if d.count() != 1 {
		t.Fatalf("dials = %d, want 1", d.count())
	}
	if first != second {
		t.Fatal("second call should return the same connection")
	}
	if g.State() != connguard.Connected {
		t.Fatalf("state = %s, want connected", g.State())
	}
}

func TestEnsureConnectedConcurrentCallersShareConnection(t *testing.T) {
	d := &dialer{}
	g := connguard.New(d.dial, nil)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := g.EnsureConnected(context.Background()); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if d.count() != 1 {
		t.Fatalf("dials = %d, want 1", d.count())
	}
}

func TestEnsureConnectedDialFailure(t *testing.T) {
	dialErr := errors.New("server selection timeout")
	d := &dialer{err: dialErr}
	g := connguard.New(d.dial, nil)

	_, err := g.EnsureConnected(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}

	var ce *connguard.ConnectionError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConnectionError, got %T", err)
	}
	if ce.Op != "dial" {
		t.Errorf("Op = %q, want dial", ce.Op)
	}
	if !errors.Is(err, dialErr) {
		t.Error("ConnectionError should unwrap to the dial error")
	}
	if g.State() != connguard.Disconnected {
		t.Errorf("state after failed dial = %s, want disconnected", g.State())
	}

	// The guard does not retry by itself; the next call dials again.
	d.mu.Lock()
	d.err = nil
	d.mu.Unlock()
	if _, err := g.EnsureConnected(context.Background()); err != nil {
		t.Fatalf("second attempt: %v", err)
	}
}

func TestEnsureConnectedRedialsUnhealthy(t *testing.T) {
	d := &dialer{}
	g := connguard.New(d.dial, nil)
	ctx := context.Background()

	first, _ := g.EnsureConnected(ctx)
	first.healthy.Store(false)

	if g.State() != connguard.Disconnected {
		t.Fatalf("state with lost connection = %s, want disconnected", g.State())
	}

	second, err := g.EnsureConnected(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if second == first {
		t.Fatal("expected a new connection after loss")
	}
	if first.disconnects.Load() != 1 {
		t.Errorf("stale connection disconnects = %d, want 1", first.disconnects.Load())
	}
	if d.count() != 2 {
		t.Errorf("dials = %d, want 2", d.count())
	}
}

func TestResetDisconnectsOnceAndDialsOnce(t *testing.T) {
	d := &dialer{}
	g := connguard.New(d.dial, nil)
	ctx := context.Background()

	first, _ := g.EnsureConnected(ctx)

	second, err := g.Reset(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if first.disconnects.Load() != 1 {
		t.Errorf("disconnects = %d, want 1", first.disconnects.Load())
	}
	if d.count() != 2 {
		t.Errorf("dials = %d, want 2", d.count())
	}
	if second == first {
		t.Error("Reset should return a new connection")
	}
	if g.State() != connguard.Connected {
		t.Errorf("state = %s, want connected", g.State())
	}
}

func TestResetWithoutConnection(t *testing.T) {
	d := &dialer{}
	g := connguard.New(d.dial, nil)

	if _, err := g.Reset(context.Background()); err != nil {
		t.Fatal(err)
	}
	if d.count() != 1 {
		t.Errorf("dials = %d, want 1", d.count())
	}
}

func TestResetDisconnectFailure(t *testing.T) {
	d := &dialer{}
	g := connguard.New(d.dial, nil)
	ctx := context.Background()

	first, _ := g.EnsureConnected(ctx)
	first.disconnectErr = errors.New("network unreachable")

	_, err := g.Reset(ctx)
	var ce *connguard.ConnectionError
	if !errors.As(err, &ce) || ce.Op != "disconnect" {
		t.Fatalf("expected disconnect ConnectionError, got %v", err)
	}
	if !connguard.IsConnectionError(err) {
		t.Error("IsConnectionError should match")
	}
	if g.State() != connguard.Disconnected {
		t.Errorf("state = %s, want disconnected", g.State())
	}
	if d.count() != 1 {
		t.Errorf("failed reset must not dial, dials = %d", d.count())
	}
}

func TestClose(t *testing.T) {
	d := &dialer{}
	g := connguard.New(d.dial, nil)
	ctx := context.Background()

	if err := g.Close(ctx); err != nil {
		t.Fatalf("Close without connection: %v", err)
	}

	c, _ := g.EnsureConnected(ctx)
	if err := g.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if c.disconnects.Load() != 1 {
		t.Errorf("disconnects = %d, want 1", c.disconnects.Load())
	}
	if g.State() != connguard.Disconnected {
		t.Errorf("state = %s, want disconnected", g.State())
	}
}

func TestStateDuringSlowDial(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	c := &fakeConn{id: 1}
	c.healthy.Store(true)
	g := connguard.New(func(context.Context) (*fakeConn, error) {
		close(started)
		<-release
		return c, nil
	}, nil)

	done := make(chan error, 1)
	go func() {
		_, err := g.EnsureConnected(context.Background())
		done <- err
	}()
	<-started

	got := make(chan connguard.State, 1)
	go func() { got <- g.State() }()
	select {
	case st := <-got:
		if st != connguard.Connecting {
			t.Errorf("state during dial = %s, want connecting", st)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("State blocked while a dial was in flight")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("EnsureConnected: %v", err)
	}
	if g.State() != connguard.Connected {
		t.Errorf("state after dial = %s, want connected", g.State())
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    connguard.State
		want string
	}{
		{connguard.Disconnected, "disconnected"},
		{connguard.Connecting, "connecting"},
		{connguard.Connected, "connected"},
		{connguard.State(9), "state(9)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", int(tt.s), got, tt.want)
		}
	}
}
