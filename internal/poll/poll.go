// Package poll drives repeated fetches of a job until it reaches a terminal
// status.
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/profile-review/internal/model"
)

// DefaultInterval is the fixed delay between a non-terminal fetch and the next one.
const DefaultInterval = 3 * time.Second

// ErrAlreadyStarted is returned when Start is called twice on one Controller.
var ErrAlreadyStarted = eris.New("poll: controller already started")

// FetchFunc returns the current snapshot of the observed job.
type FetchFunc func(ctx context.Context) (*model.Job, error)

// Option configures a Controller.
type Option func(*Controller)

// WithInterval overrides the delay between fetches.
func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithTimer replaces time.After, letting tests drive the schedule without
// real timers.
func WithTimer(after func(time.Duration) <-chan time.Time) Option {
	return func(c *Controller) {
		c.after = after
	}
}

// WithOnSnapshot registers a callback for every successful fetch.
func WithOnSnapshot(fn func(*model.Job)) Option {
	return func(c *Controller) {
		c.onSnapshot = fn
	}
}

// WithOnError registers a callback for every failed fetch.
func WithOnError(fn func(error)) Option {
	return func(c *Controller) {
		c.onError = fn
	}
}

// Controller polls one job. Fetches are strictly sequential: fetch n+1 is
// never dispatched before fetch n has returned. Terminality is derived only
// from the fetched status; there is no deadline or attempt cap.
//
// Callbacks run on the polling goroutine and must not call Stop.
type Controller struct {
	fetch      FetchFunc
	interval   time.Duration
	after      func(time.Duration) <-chan time.Time
	onSnapshot func(*model.Job)
	onError    func(error)

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	fetches int
	last    *model.Job
}

// New creates a Controller that is not yet running.
func New(fetch FetchFunc, opts ...Option) *Controller {
	c := &Controller{
		fetch:    fetch,
		interval: DefaultInterval,
		after:    time.After,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start launches the poll loop. The first fetch happens immediately.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return ErrAlreadyStarted
	}
	c.started = true

	ctx, c.cancel = context.WithCancel(ctx)
	go c.run(ctx)
	return nil
}

// Stop cancels any in-flight fetch and waits for the loop to exit. Once Stop
// returns no callback will run again. Safe to call more than once, and
// before Start.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.started {
		c.started = true
		close(c.done)
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	<-c.done
}

// Done is closed when the loop exits: terminal status, unrecoverable first
// fetch, Stop, or parent context cancellation.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Fetches returns how many fetches have been dispatched.
func (c *Controller) Fetches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetches
}

// Last returns the most recent successfully fetched snapshot, or nil.
func (c *Controller) Last() *model.Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func (c *Controller) run(ctx context.Context) {
	defer close(c.done)

	for {
		c.mu.Lock()
		c.fetches++
		n := c.fetches
		c.mu.Unlock()

		job, err := c.fetch(ctx)
		if ctx.Err() != nil {
			return
		}
		if err == nil && job == nil {
			err = eris.New("poll: fetch returned no snapshot")
		}

		if err != nil {
			zap.L().Debug("poll: fetch failed", zap.Int("fetch", n), zap.Error(err))
			if c.onError != nil {
				c.onError(err)
			}
			// Keep the interval only while a non-terminal snapshot is known.
			if last := c.Last(); last == nil || last.Status.Terminal() {
				return
			}
		} else {
			c.mu.Lock()
			c.last = job
			c.mu.Unlock()

			if c.onSnapshot != nil {
				c.onSnapshot(job)
			}
			if job.Status.Terminal() {
				zap.L().Debug("poll: terminal status", zap.Int("fetch", n), zap.String("status", string(job.Status)))
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-c.after(c.interval):
		}
	}
}
