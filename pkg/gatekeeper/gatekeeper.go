// Package gatekeeper provides a per-key single-flight execution queue: at most
// one job may be pending or running for a given key at any time. A second job
// queued under a busy key is rejected outright, not buffered. Jobs for
// different keys run concurrently and independently.
//
// Typical usage, with the invoking user's id as the key:
//
//	gk := gatekeeper.New(time.Minute, nil)
//
//	res, err := gk.Queue(userID, func(ctx context.Context) (string, error) {
//	    return doSlowWork(ctx)
//	})
//	if errors.Is(err, gatekeeper.ErrBusy) {
//	    // tell the user to wait for their previous job
//	}
//	go func() { handle(<-res) }()
//
// The package is intentionally minimal: no retry logic, no persistence. Each
// job runs in its own goroutine and its slot is released on completion,
// failure, or timeout.
package gatekeeper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrBusy is returned by Queue when a job for the same key is still pending.
var ErrBusy = errors.New("a job for this key is already queued")

// Job is a unit of work producing a textual result. The context is cancelled
// when the job exceeds the configured timeout; well-behaved jobs honor it.
type Job func(ctx context.Context) (string, error)

// Result carries a finished job's return values.
type Result struct {
	Value string
	Err   error
}

// StatusReporter receives lifecycle events for jobs.
// Example messages:
//
//	running:108232034
//	error:108232034:context deadline exceeded
//	done:108232034
type StatusReporter func(string)

// Gatekeeper tracks at most one pending job per key. Safe for concurrent use.
type Gatekeeper struct {
	mu       sync.Mutex
	pending  map[string]struct{}
	timeout  time.Duration
	Reporter StatusReporter
}

// New creates a Gatekeeper. Jobs running longer than timeout are resolved as
// failed and their slot is released; a timeout of zero means no bound. The
// reporter callback may be nil.
func New(timeout time.Duration, reporter StatusReporter) *Gatekeeper {
	return &Gatekeeper{
		pending:  make(map[string]struct{}),
		timeout:  timeout,
		Reporter: reporter,
	}
}

// Queue schedules job under key and returns a channel that will receive
// exactly one Result. If a job for key is already pending, no work is
// scheduled and ErrBusy is returned. The caller never blocks on the job.
func (g *Gatekeeper) Queue(key string, job Job) (<-chan Result, error) {
	g.mu.Lock()
	if _, exists := g.pending[key]; exists {
		g.mu.Unlock()
		return nil, fmt.Errorf("queue %s: %w", key, ErrBusy)
	}
	g.pending[key] = struct{}{}
	g.mu.Unlock()

	out := make(chan Result, 1)

	go func() {
		g.report("running:" + key)

		ctx := context.Background()
		cancel := context.CancelFunc(func() {})
		if g.timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, g.timeout)
		}
		defer cancel()

		done := make(chan Result, 1)
		go func() {
			value, err := job(ctx)
			done <- Result{Value: value, Err: err}
		}()

		var res Result
		select {
		case res = <-done:
		case <-ctx.Done():
			// The job goroutine may still be running; the slot is
			// released regardless so the key is not wedged forever.
			res = Result{Err: fmt.Errorf("job for %s timed out after %v", key, g.timeout)}
		}

		g.mu.Lock()
		delete(g.pending, key)
		g.mu.Unlock()

		if res.Err != nil {
			g.report("error:" + key + ":" + res.Err.Error())
		} else {
			g.report("done:" + key)
		}
		out <- res
	}()

	return out, nil
}

// QueuedJobCount returns the number of pending jobs for key: 0 or 1.
func (g *Gatekeeper) QueuedJobCount(key string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.pending[key]; exists {
		return 1
	}
	return 0
}

// report delivers lifecycle messages to the reporter if present.
func (g *Gatekeeper) report(s string) {
	if g.Reporter != nil {
		g.Reporter(s)
	}
}
