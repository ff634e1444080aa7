package api

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/profile-review/internal/review"
	"github.com/sells-group/profile-review/pkg/jobs"
)

// ErrPageNotFound is returned when no review is open for a job.
var ErrPageNotFound = eris.New("api: no review open for job")

// Registry holds at most one open review page per job id.
type Registry struct {
	ctx    context.Context
	client jobs.Client
	opts   []review.Option

	mu    sync.Mutex
	pages map[string]*review.Page
}

// NewRegistry creates a registry whose pages poll until ctx is canceled or
// they are closed.
func NewRegistry(ctx context.Context, client jobs.Client, opts ...review.Option) *Registry {
	return &Registry{
		ctx:    ctx,
		client: client,
		opts:   opts,
		pages:  make(map[string]*review.Page),
	}
}

// Open returns the page for jobID, opening and starting one if needed. The
// boolean is true when a new page was created.
func (r *Registry) Open(jobID string) (*review.Page, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pages[jobID]; ok {
		return p, false, nil
	}

	p, err := review.Open(r.client, jobID, r.opts...)
	if err != nil {
		return nil, false, err
	}
	if err := p.Start(r.ctx); err != nil {
		p.Close()
		return nil, false, eris.Wrapf(err, "api: start review %s", jobID)
	}
	r.pages[p.JobID()] = p
	zap.L().Info("api: review opened", zap.String("job_id", p.JobID()), zap.String("session_id", p.ID()))
	return p, true, nil
}

// Get returns the open page for jobID.
func (r *Registry) Get(jobID string) (*review.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pages[jobID]
	if !ok {
		return nil, eris.Wrapf(ErrPageNotFound, "job %s", jobID)
	}
	return p, nil
}

// Close tears down the page for jobID.
func (r *Registry) Close(jobID string) error {
	r.mu.Lock()
	p, ok := r.pages[jobID]
	delete(r.pages, jobID)
	r.mu.Unlock()

	if !ok {
		return eris.Wrapf(ErrPageNotFound, "job %s", jobID)
	}
	p.Close()
	zap.L().Info("api: review closed", zap.String("job_id", jobID))
	return nil
}

// CloseAll tears down every open page.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	pages := r.pages
	r.pages = make(map[string]*review.Page)
	r.mu.Unlock()

	for _, p := range pages {
		p.Close()
	}
}

// Len returns the number of open pages.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pages)
}
