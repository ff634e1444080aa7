// Package review ties one observed job to its poll loop and override engine:
// it seeds the working copy from the first profile, submits overrides and
// exports the finished profile.
package review

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/profile-review/internal/model"
	"github.com/sells-group/profile-review/internal/override"
	"github.com/sells-group/profile-review/internal/poll"
	"github.com/sells-group/profile-review/internal/provenance"
	"github.com/sells-group/profile-review/internal/resilience"
	"github.com/sells-group/profile-review/pkg/jobs"
)

var (
	// ErrClosed is returned by every mutating call after Close.
	ErrClosed = eris.New("review: page closed")
	// ErrSaveInProgress is returned when Save is called while another save
	// is still waiting on the service.
	ErrSaveInProgress = eris.New("review: save already in progress")
	// ErrNoProfile is returned when the job has no profile to act on yet.
	ErrNoProfile = eris.New("review: job has no profile yet")
)

// Option configures a Page.
type Option func(*Page)

// WithInterval sets the poll interval.
func WithInterval(d time.Duration) Option {
	return func(p *Page) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithRetry sets the retry policy used for reads.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(p *Page) {
		p.retry = cfg
	}
}

// WithTimer replaces the poll timer source.
func WithTimer(after func(time.Duration) <-chan time.Time) Option {
	return func(p *Page) {
		p.after = after
	}
}

// Page is the client-side session for one job. All methods are safe for
// concurrent use.
type Page struct {
	id       string
	jobID    string
	client   jobs.Client
	retry    resilience.RetryConfig
	interval time.Duration
	after    func(time.Duration) <-chan time.Time
	log      *zap.Logger

	mu      sync.Mutex
	job     *model.Job
	gen     uint64
	engine  *override.Engine
	lastErr error
	saving  bool
	closed  bool
	poller  *poll.Controller
	created time.Time
}

// Open creates a page for jobID. Nothing is fetched until Start or Refresh.
func Open(client jobs.Client, jobID string, opts ...Option) (*Page, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, eris.New("review: job id is required")
	}

	p := &Page{
		id:       uuid.NewString(),
		jobID:    jobID,
		client:   client,
		retry:    resilience.DefaultRetryConfig(),
		interval: poll.DefaultInterval,
		engine:   override.New(),
		created:  time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = zap.L().With(zap.String("job_id", jobID), zap.String("session_id", p.id))
	return p, nil
}

// ID returns the session id of the page.
func (p *Page) ID() string { return p.id }

// JobID returns the observed job id.
func (p *Page) JobID() string { return p.jobID }

// Start begins polling the job until it reaches a terminal status.
func (p *Page) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.poller != nil {
		p.mu.Unlock()
		return poll.ErrAlreadyStarted
	}

	opts := []poll.Option{
		poll.WithInterval(p.interval),
		poll.WithOnError(func(err error) {
			p.log.Warn("review: poll fetch failed", zap.Error(err))
		}),
	}
	if p.after != nil {
		opts = append(opts, poll.WithTimer(p.after))
	}
	p.poller = poll.New(p.fetch, opts...)
	poller := p.poller
	p.mu.Unlock()

	p.log.Info("review: polling started", zap.Duration("interval", p.interval))
	return poller.Start(ctx)
}

// Close stops polling and waits for any in-flight fetch to be abandoned.
// After Close returns the page never changes again.
func (p *Page) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	poller := p.poller
	p.mu.Unlock()

	if poller != nil {
		poller.Stop()
	}
	p.log.Debug("review: page closed")
}

// Polling reports whether the poll loop is still running.
func (p *Page) Polling() bool {
	p.mu.Lock()
	poller := p.poller
	p.mu.Unlock()
	if poller == nil {
		return false
	}
	select {
	case <-poller.Done():
		return false
	default:
		return true
	}
}

// Done is closed once polling ends. It is nil before Start.
func (p *Page) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.poller == nil {
		return nil
	}
	return p.poller.Done()
}

// Refresh fetches the job once, outside the poll schedule, and applies it.
func (p *Page) Refresh(ctx context.Context) (*model.Job, error) {
	return p.fetch(ctx)
}

// Job returns the last applied snapshot, or nil.
func (p *Page) Job() *model.Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.job
}

// Sources returns a provenance view over the last applied snapshot.
func (p *Page) Sources() *provenance.View {
	return provenance.New(p.Job())
}

// read fetches the job with the bounded read retry policy.
func (p *Page) read(ctx context.Context) (*model.Job, error) {
	cfg := p.retry
	cfg.ShouldRetry = jobs.IsRetryable
	cfg.OnRetry = resilience.RetryLogger("jobs", "get")
	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (*model.Job, error) {
		return p.client.Get(ctx, p.jobID)
	})
}

// fetch reads a snapshot tagged with the generation current at dispatch
// and applies it. It returns the page's authoritative snapshot so the poll
// loop decides terminality from what the page actually holds.
func (p *Page) fetch(ctx context.Context) (*model.Job, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	gen := p.gen
	p.mu.Unlock()

	job, err := p.read(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		if !p.closed {
			p.lastErr = err
		}
		return nil, err
	}
	if p.closed {
		return job, nil
	}
	if gen != p.gen {
		p.log.Debug("review: discarded stale snapshot",
			zap.Uint64("dispatched_gen", gen),
			zap.Uint64("current_gen", p.gen),
		)
		if p.job != nil {
			return p.job, nil
		}
		return job, nil
	}
	p.applyLocked(job)
	return job, nil
}

// applyLocked replaces the snapshot and seeds the engine on the first
// profile. Caller holds p.mu.
func (p *Page) applyLocked(job *model.Job) {
	prev := p.job
	p.job = job
	p.lastErr = nil

	if prev == nil || prev.Status != job.Status {
		p.log.Info("review: job status", zap.String("status", string(job.Status)))
	}
	if job.Profile != nil && p.engine.Seed(job.Profile) {
		p.log.Info("review: working copy seeded", zap.Uint64("gen", p.gen))
	}
}
