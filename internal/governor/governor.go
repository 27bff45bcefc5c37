// Package governor enforces the two concurrency controls spec.md §4.3
// describes: a process-wide concurrent-query semaphore and a per-user
// rolling-window rate limiter. Both are fields of a long-lived Governor
// value constructed at startup (spec.md §9) rather than ambient state.
//
// The semaphore is shaped after the teacher's WorkerPool queue
// (server/worker_pool.go: a buffered channel used for admission
// control with guaranteed release via defer). The rate limiter keeps
// the teacher's single-mutex-guarded-map structure from
// server/rate_limiter.go's RateLimiter, but replaces its token-bucket
// algorithm with the sliding-window prune-then-append algorithm spec.md
// §4.3 mandates.
package governor

import (
	"sync"
	"time"
)

// Permit represents one held slot in the concurrency semaphore. Callers
// must call Release exactly once, on every exit path (success, error,
// or panic via defer).
type Permit struct {
	release func()
	once    sync.Once
}

// Release returns the permit to the semaphore. Safe to call more than
// once; only the first call has effect.
func (p *Permit) Release() {
	p.once.Do(p.release)
}

// window is one user's rolling submission-timestamp history.
type window struct {
	mu         sync.Mutex
	timestamps []time.Time
}

// Governor bundles the concurrency semaphore and the per-user rate
// limiter behind one injectable value.
type Governor struct {
	sem chan struct{}

	limit      int
	windowSize time.Duration

	mu      sync.Mutex
	windows map[string]*window
}

// New constructs a Governor with the given process-wide concurrency cap
// and per-user rate limit (admissions per rolling 60s window).
func New(maxConcurrent, runRateLimit int) *Governor {
	return &Governor{
		sem:        make(chan struct{}, maxConcurrent),
		limit:      runRateLimit,
		windowSize: 60 * time.Second,
		windows:    make(map[string]*window),
	}
}

// Acquire blocks until a concurrency permit is available (or the
// context is cancelled) and returns it. The caller must Release it.
func (g *Governor) Acquire() *Permit {
	g.sem <- struct{}{}
	return &Permit{release: func() { <-g.sem }}
}

// Admit implements spec.md §4.3's admit(userId) algorithm: atomically
// look up or create the user's window, prune entries older than 60s,
// and admit only if fewer than the configured limit remain.
func (g *Governor) Admit(userID string) bool {
	g.mu.Lock()
	w, ok := g.windows[userID]
	if !ok {
		w = &window{}
		g.windows[userID] = w
	}
	g.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := time.Now().Add(-g.windowSize)
	kept := w.timestamps[:0]
	for _, ts := range w.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.timestamps = kept

	if len(w.timestamps) >= g.limit {
		return false
	}
	w.timestamps = append(w.timestamps, time.Now())
	return true
}
