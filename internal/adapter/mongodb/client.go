// Package mongodb implements the database store port on MongoDB.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/v2/event"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/Strob0t/Karuna/internal/config"
	"github.com/Strob0t/Karuna/internal/connguard"
)

// ErrNoURI is returned by the dialer when no connection string is configured.
var ErrNoURI = errors.New("mongo uri is not configured")

// Client is one connected driver client together with the health state
// reported by its pool monitor.
type Client struct {
	client  *mongo.Client
	healthy atomic.Bool
	log     *slog.Logger
}

// Dial returns the dial function used by the connection guard. The URI is
// read from cfg on every dial.
func Dial(cfg *config.Mongo, log *slog.Logger) connguard.DialFunc[*Client] {
	if log == nil {
		log = slog.Default()
	}
	return func(ctx context.Context) (*Client, error) {
		if cfg.URI == "" {
			return nil, ErrNoURI
		}

		c := &Client{log: log}
		opts := options.Client().
			ApplyURI(cfg.URI).
			SetAppName("karuna").
			SetMaxPoolSize(cfg.MaxPoolSize).
			SetConnectTimeout(cfg.ConnectTimeout).
			SetServerSelectionTimeout(cfg.ServerSelectionTimeout).
			SetTimeout(cfg.SocketTimeout).
			SetPoolMonitor(&event.PoolMonitor{Event: c.handlePoolEvent})

		client, err := mongo.Connect(opts)
		if err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}

		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			_ = client.Disconnect(context.WithoutCancel(ctx))
			return nil, fmt.Errorf("ping: %w", err)
		}

		c.client = client
		c.healthy.Store(true)
		return c, nil
	}
}

// handlePoolEvent tracks driver-level disconnections. The pool is cleared
// when the server becomes unreachable and marked ready again once a
// heartbeat succeeds.
func (c *Client) handlePoolEvent(ev *event.PoolEvent) {
	switch ev.Type {
	case event.ConnectionPoolCleared, event.ConnectionPoolClosed:
		if c.healthy.Swap(false) && c.log != nil {
			c.log.Warn("mongo pool lost", "event", ev.Type, "address", ev.Address)
		}
	case event.ConnectionPoolReady:
		c.healthy.Store(true)
	}
}

// Healthy reports whether the pool is usable.
func (c *Client) Healthy() bool {
	return c.healthy.Load()
}

// Disconnect closes the driver client.
func (c *Client) Disconnect(ctx context.Context) error {
	c.healthy.Store(false)
	if c.client == nil {
		return nil
	}
	return c.client.Disconnect(ctx)
}

// Database returns a handle to the named database.
func (c *Client) Database(name string) *mongo.Database {
	return c.client.Database(name)
}
