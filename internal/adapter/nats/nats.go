// Package nats broadcasts cache invalidations between instances over core
// NATS publish/subscribe.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Strob0t/Karuna/internal/port/cache"
)

// Applier receives invalidations published by other instances.
type Applier interface {
	ApplyRemote(inv cache.Invalidation)
}

// Bus implements cache.Publisher on a single NATS subject.
type Bus struct {
	nc      *nats.Conn
	subject string
}

var _ cache.Publisher = (*Bus)(nil)

// Connect establishes a connection to NATS. It keeps reconnecting in the
// background after the initial connection succeeds.
func Connect(url, subject, clientName string) (*Bus, error) {
	nc, err := nats.Connect(url,
		nats.Name(clientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	slog.Info("nats connected", "url", url, "subject", subject)
	return &Bus{nc: nc, subject: subject}, nil
}

// Publish sends inv to every subscribed instance.
func (b *Bus) Publish(_ context.Context, inv cache.Invalidation) error {
	data, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("marshal invalidation: %w", err)
	}
	if err := b.nc.Publish(b.subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", b.subject, err)
	}
	return nil
}

// Subscribe applies every invalidation received on the subject. The
// returned function stops the subscription.
func (b *Bus) Subscribe(a Applier) (func() error, error) {
	sub, err := b.nc.Subscribe(b.subject, func(msg *nats.Msg) {
		if err := handleMessage(a, msg.Data); err != nil {
			slog.Warn("dropping cache invalidation", "subject", msg.Subject, "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe %s: %w", b.subject, err)
	}
	return sub.Unsubscribe, nil
}

// Close drains pending messages and closes the connection.
func (b *Bus) Close() error {
	return b.nc.Drain()
}

var errUnknownOp = errors.New("unknown op")

func handleMessage(a Applier, data []byte) error {
	var inv cache.Invalidation
	if err := json.Unmarshal(data, &inv); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	switch inv.Op {
	case cache.OpDelete, cache.OpPattern:
		if inv.Key == "" {
			return fmt.Errorf("%s without key", inv.Op)
		}
	case cache.OpClear:
	default:
		return fmt.Errorf("%w %q", errUnknownOp, inv.Op)
	}
	a.ApplyRemote(inv)
	return nil
}
