package review

import (
	"time"

	"github.com/sells-group/profile-review/internal/model"
	"github.com/sells-group/profile-review/internal/provenance"
)

// EditState is the field currently being edited.
type EditState struct {
	Field string `json:"field"`
	Draft string `json:"draft"`
}

// State is a point-in-time view of a page for rendering.
type State struct {
	SessionID     string                `json:"session_id"`
	JobID         string                `json:"job_id"`
	OpenedAt      time.Time             `json:"opened_at"`
	Status        model.JobStatus       `json:"status,omitempty"`
	Message       string                `json:"message,omitempty"`
	CompanyName   string                `json:"company_name,omitempty"`
	OfficialEmail string                `json:"official_email,omitempty"`
	JobError      string                `json:"job_error,omitempty"`
	LastError     string                `json:"last_error,omitempty"`
	Polling       bool                  `json:"polling"`
	Closed        bool                  `json:"closed"`
	Seeded        bool                  `json:"seeded"`
	Profile       *model.CompanyProfile `json:"profile,omitempty"`
	Baseline      *model.CompanyProfile `json:"baseline,omitempty"`
	Editing       *EditState            `json:"editing,omitempty"`
	Overrides     model.Overrides       `json:"overrides"`
	HasSources    bool                  `json:"has_sources"`
}

// Dirty reports whether there are unsaved overrides.
func (s State) Dirty() bool {
	return len(s.Overrides) > 0
}

// State returns a snapshot of the page.
func (p *Page) State() State {
	polling := p.Polling()

	p.mu.Lock()
	defer p.mu.Unlock()

	s := State{
		SessionID: p.id,
		JobID:     p.jobID,
		OpenedAt:  p.created,
		Polling:   polling,
		Closed:    p.closed,
		Seeded:    p.engine.Seeded(),
		Profile:   p.engine.Working(),
		Baseline:  p.engine.Baseline(),
		Overrides: p.engine.ComputeOverrides(),
	}
	if p.lastErr != nil {
		s.LastError = p.lastErr.Error()
	}
	if key, draft, ok := p.engine.Editing(); ok {
		s.Editing = &EditState{Field: key, Draft: draft}
	}
	if job := p.job; job != nil {
		s.Status = job.Status
		if !job.Status.Terminal() {
			s.Message = job.Status.Message()
		}
		s.CompanyName = job.CompanyName
		s.OfficialEmail = job.OfficialEmail
		if job.Status == model.JobStatusFailed {
			s.JobError = job.Error
		}
		s.HasSources = provenance.New(job).HasAny()
	}
	return s
}
