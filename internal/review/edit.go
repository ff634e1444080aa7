package review

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/profile-review/internal/model"
	"github.com/sells-group/profile-review/internal/resilience"
)

// SaveOutcome describes what Save did.
type SaveOutcome string

const (
	// SaveNoChanges means the working copy matched the baseline and nothing
	// was sent.
	SaveNoChanges SaveOutcome = "no_changes"
	// SaveApplied means the overrides were accepted by the service.
	SaveApplied SaveOutcome = "saved"
)

// SaveResult is returned by a successful Save.
type SaveResult struct {
	Outcome   SaveOutcome     `json:"outcome"`
	Overrides model.Overrides `json:"overrides,omitempty"`
	Job       *model.Job      `json:"job,omitempty"`
}

// BeginEdit opens the edit session on field and returns the initial draft.
func (p *Page) BeginEdit(field string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "", ErrClosed
	}
	return p.engine.BeginEdit(field)
}

// UpdateDraft replaces the draft of the open edit.
func (p *Page) UpdateDraft(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	return p.engine.UpdateDraft(text)
}

// CommitEdit writes the open draft into the working copy.
func (p *Page) CommitEdit() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "", ErrClosed
	}
	return p.engine.CommitEdit()
}

// CancelEdit discards the open draft.
func (p *Page) CancelEdit() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.engine.CancelEdit()
}

// SetField writes raw into field directly, bypassing the edit session.
func (p *Page) SetField(field, raw string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	return p.engine.SetField(field, raw)
}

// Overrides returns the current minimal diff against the baseline.
func (p *Page) Overrides() model.Overrides {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine.ComputeOverrides()
}

// Working returns a copy of the working profile, or nil before seeding.
func (p *Page) Working() *model.CompanyProfile {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine.Working()
}

// Save submits the overrides. With no changes it returns SaveNoChanges
// without a network call. Finalize is never retried. On success the working
// copy is dropped and the job is fetched again so the merged profile becomes
// the new baseline. On failure the working copy is left untouched.
func (p *Page) Save(ctx context.Context) (*SaveResult, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	if !p.engine.Seeded() {
		p.mu.Unlock()
		return nil, ErrNoProfile
	}
	if p.saving {
		p.mu.Unlock()
		return nil, ErrSaveInProgress
	}
	overrides := p.engine.ComputeOverrides()
	if len(overrides) == 0 {
		p.mu.Unlock()
		p.log.Info("review: no changes to save")
		return &SaveResult{Outcome: SaveNoChanges}, nil
	}
	p.saving = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.saving = false
		p.mu.Unlock()
	}()

	fields := make([]string, 0, len(overrides))
	for k := range overrides {
		fields = append(fields, k)
	}
	p.log.Info("review: saving overrides", zap.Strings("fields", fields))

	finalized, err := resilience.DoVal(ctx, resilience.NoRetry(), func(ctx context.Context) (*model.Job, error) {
		return p.client.Finalize(ctx, p.jobID, overrides)
	})
	if err != nil {
		p.log.Warn("review: save failed", zap.Error(err))
		return nil, eris.Wrap(err, "review: save")
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return &SaveResult{Outcome: SaveApplied, Overrides: overrides, Job: finalized}, nil
	}
	p.gen++
	p.engine.Clear()
	p.job = nil
	p.mu.Unlock()

	job, err := p.fetch(ctx)
	if err != nil {
		// The merge succeeded; fall back to the finalize response as the
		// new baseline.
		p.log.Warn("review: refetch after save failed", zap.Error(err))
		if finalized != nil {
			p.mu.Lock()
			if !p.closed && p.job == nil {
				p.applyLocked(finalized)
			}
			p.mu.Unlock()
		}
		job = finalized
	}

	return &SaveResult{Outcome: SaveApplied, Overrides: overrides, Job: job}, nil
}
