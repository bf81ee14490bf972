// Package pool manages named database connection pools with lazy
// connections and periodic health checks.
package pool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	zorm "github.com/satishbabariya/zorm"
	"github.com/satishbabariya/zorm/internal/debug"
)

// Pool wraps one database handle together with its availability state.
// Opening a pool performs no I/O; the first statement (or health check)
// establishes connections.
type Pool struct {
	config      *Config
	db          *sql.DB
	available   atomic.Bool
	lastChecked atomic.Int64
}

// Open creates the pool for the config without connecting. The pool starts
// available; the first failing health check flips it off.
func Open(c *Config) (*Pool, error) {
	db, err := sql.Open(c.DriverName(), c.DSN())
	if err != nil {
		return nil, fmt.Errorf("open pool %q: %w", c.Name, err)
	}
	db.SetMaxOpenConns(c.MaxConnections)
	db.SetMaxIdleConns(c.MinConnections)
	db.SetConnMaxLifetime(c.MaxLifetime)
	db.SetConnMaxIdleTime(c.IdleTimeout)
	p := &Pool{config: c, db: db}
	p.available.Store(true)
	p.lastChecked.Store(time.Now().UnixNano())
	return p, nil
}

// OpenDB wraps an already opened database handle. Useful when the caller
// builds its own DSN or injects a test double.
func OpenDB(c *Config, db *sql.DB) *Pool {
	p := &Pool{config: c, db: db}
	p.available.Store(true)
	p.lastChecked.Store(time.Now().UnixNano())
	return p
}

// acquireContext bounds ctx by the configured acquire timeout. A zero
// timeout leaves the context alone.
func (p *Pool) acquireContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.config.AcquireTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.config.AcquireTimeout)
}

// Name returns the pool name services look this pool up by.
func (p *Pool) Name() string { return p.config.Name }

// Config returns the pool configuration.
func (p *Pool) Config() *Config { return p.config }

// DB exposes the underlying handle for callers that manage their own
// connection lifecycle.
func (p *Pool) DB() *sql.DB { return p.db }

// Available reports the last observed health state. It never touches the
// database.
func (p *Pool) Available() bool { return p.available.Load() }

// CheckHealth pings the database and refreshes the availability flag. The
// pool counts as healthy only when the ping succeeds and at least one idle
// connection remains afterwards; a reachable server with a saturated pool
// is not a pool a caller can use.
func (p *Pool) CheckHealth(ctx context.Context) error {
	ctx, cancel := p.acquireContext(ctx)
	defer cancel()
	p.lastChecked.Store(time.Now().UnixNano())
	if err := p.db.PingContext(ctx); err != nil {
		p.available.Store(false)
		debug.Warn("pool health check failed", "pool", p.config.Name, "error", err)
		return fmt.Errorf("%w: pool %q: %v", zorm.ErrPoolUnavailable, p.config.Name, err)
	}
	p.available.Store(p.db.Stats().Idle >= 1)
	return nil
}

// checkHealthIfStale runs a health check when the last one is older than
// the configured interval. Errors are reflected in the availability flag
// rather than returned; acquisition decides what to do with an unavailable
// pool.
func (p *Pool) checkHealthIfStale(ctx context.Context) {
	interval := p.config.HealthCheckInterval
	if interval <= 0 || ctx.Err() != nil {
		return
	}
	last := p.lastChecked.Load()
	if time.Since(time.Unix(0, last)) < interval {
		return
	}
	// Swap the timestamp first so concurrent acquirers do not stampede
	// the server with pings.
	if !p.lastChecked.CompareAndSwap(last, time.Now().UnixNano()) {
		return
	}
	_ = p.CheckHealth(ctx)
}

// Acquire checks out one connection, running a health check first when the
// last one has gone stale. Hitting the pool's own acquire deadline while
// waiting for a free connection returns ErrAcquireTimeout, which is
// retryable. Cancellation of the caller's context is the caller's event;
// neither case says anything about the database, so neither touches the
// availability flag. Any other failure marks the pool unavailable.
func (p *Pool) Acquire(ctx context.Context) (*sql.Conn, error) {
	p.checkHealthIfStale(ctx)
	caller := ctx
	ctx, cancel := p.acquireContext(ctx)
	defer cancel()
	conn, err := p.db.Conn(ctx)
	if err != nil {
		if caller.Err() != nil {
			return nil, fmt.Errorf("acquire from pool %q: %w", p.config.Name, caller.Err())
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: pool %q after %s",
				zorm.ErrAcquireTimeout, p.config.Name, p.config.AcquireTimeout)
		}
		p.available.Store(false)
		return nil, fmt.Errorf("%w: pool %q: %v", zorm.ErrPoolUnavailable, p.config.Name, err)
	}
	return conn, nil
}

// Close shuts the pool down.
func (p *Pool) Close() error {
	p.available.Store(false)
	return p.db.Close()
}
