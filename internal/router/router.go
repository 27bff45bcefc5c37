// Package router selects a database connection from a primary plus an
// ordered list of replicas, tracking replica health and failing over to
// the primary on connect failure (spec.md §4.2).
//
// The round-robin cursor and health table are adapted from the
// teacher's connection-management shape in client/reconnect.go
// (ConnectionManager's mutex-guarded state and timed dial), simplified
// from an active exponential-backoff reconnect loop down to the
// passive, checked-on-next-acquire cooldown spec.md §4.2 requires.
package router

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	"go.uber.org/zap"

	"github.com/OmprakashShyamalan/querybench/internal/metrics"
	"github.com/OmprakashShyamalan/querybench/internal/models"
)

// Opener abstracts database/sql.Open plus a ping, so tests can fake
// connection failures without a live driver.
type Opener func(ctx context.Context, dsn string, connectTimeout time.Duration) (*sql.DB, error)

// DefaultOpener opens a *sql.DB via the "sqlserver" driver and pings it
// within the connect timeout.
func DefaultOpener(ctx context.Context, dsn string, connectTimeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Router selects a connection from {primary, replicas[]} per spec.md
// §4.2's algorithm, tracking replica health in-process.
type Router struct {
	primary  models.ConnectionSpec
	replicas []models.ConnectionSpec

	cooldown       time.Duration
	connectTimeout time.Duration
	open           Opener
	log            *zap.Logger
	met            *metrics.Metrics

	mu       sync.Mutex
	lastFail map[string]time.Time
	cursor   uint64
}

// New constructs a Router. replicas may be empty. met may be nil.
func New(primary models.ConnectionSpec, replicas []models.ConnectionSpec, cooldown, connectTimeout time.Duration, open Opener, log *zap.Logger, met *metrics.Metrics) *Router {
	if open == nil {
		open = DefaultOpener
	}
	return &Router{
		primary:        primary,
		replicas:       replicas,
		cooldown:       cooldown,
		connectTimeout: connectTimeout,
		open:           open,
		log:            log,
		met:            met,
		lastFail:       make(map[string]time.Time),
	}
}

// healthyReplicas returns the replicas whose last recorded failure (if
// any) is older than the cooldown window.
func (r *Router) healthyReplicas() []models.ConnectionSpec {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var healthy []models.ConnectionSpec
	for _, rep := range r.replicas {
		failedAt, failed := r.lastFail[rep.DSN]
		if !failed || now.Sub(failedAt) >= r.cooldown {
			healthy = append(healthy, rep)
		}
	}
	return healthy
}

func (r *Router) markUnhealthy(dsn string) {
	r.mu.Lock()
	r.lastFail[dsn] = time.Now()
	r.mu.Unlock()
}

// pick advances the shared round-robin cursor and returns its target
// index into a healthy-replica list of the given length.
func (r *Router) pick(healthyCount int) int {
	n := atomic.AddUint64(&r.cursor, 1)
	return int(n % uint64(healthyCount))
}

// Acquire selects and opens a connection, returning it along with the
// ConnectionSpec that was actually used. forcePrimary bypasses replica
// selection entirely.
func (r *Router) Acquire(ctx context.Context, forcePrimary bool) (*sql.DB, models.ConnectionSpec, error) {
	var attempts []models.ConnectionSpec

	if forcePrimary || len(r.replicas) == 0 {
		attempts = []models.ConnectionSpec{r.primary}
	} else {
		healthy := r.healthyReplicas()
		if len(healthy) > 0 {
			picked := healthy[r.pick(len(healthy))]
			attempts = []models.ConnectionSpec{picked, r.primary}
		} else {
			attempts = []models.ConnectionSpec{r.primary}
		}
	}

	var lastErr error
	for i, spec := range attempts {
		db, err := r.open(ctx, spec.DSN, r.connectTimeout)
		if err == nil {
			return db, spec, nil
		}
		lastErr = err
		isPrimary := spec.DSN == r.primary.DSN
		if !isPrimary {
			r.markUnhealthy(spec.DSN)
			if r.log != nil {
				r.log.Warn("replica connect failed, marked unhealthy",
					zap.String("replica", spec.Label), zap.Error(err))
			}
			if i < len(attempts)-1 && r.met != nil {
				r.met.ObserveRouterFailover()
			}
		}
		if i == len(attempts)-1 {
			break
		}
	}
	return nil, models.ConnectionSpec{}, fmt.Errorf("router: all connection attempts failed: %w", lastErr)
}
