// Package override keeps a human-edited working copy of a company profile
// and computes the minimal set of field overrides against the profile it was
// seeded from.
package override

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/profile-review/internal/model"
)

var (
	// ErrUnknownField is returned for a key that is not a profile field.
	ErrUnknownField = eris.New("override: unknown field")
	// ErrReadOnlyField is returned for identity and derived fields.
	ErrReadOnlyField = eris.New("override: field is read-only")
	// ErrNotSeeded is returned when no working copy exists yet.
	ErrNotSeeded = eris.New("override: no working copy")
	// ErrNoEdit is returned when there is no edit in flight.
	ErrNoEdit = eris.New("override: no edit in progress")
)

type edit struct {
	key   string
	draft string
}

// Engine holds one working copy, the baseline it was seeded from and at
// most one in-flight edit. It is not safe for concurrent use; callers that
// share an Engine across goroutines must serialize access.
type Engine struct {
	working  *model.CompanyProfile
	baseline *model.CompanyProfile
	edit     *edit
}

// New returns an empty engine.
func New() *Engine {
	return &Engine{}
}

// Seeded reports whether a working copy exists.
func (e *Engine) Seeded() bool {
	return e.working != nil
}

// Seed initializes the working copy and baseline from p. It does nothing and
// returns false when a working copy already exists or p is nil, so repeated
// snapshots never overwrite local edits.
func (e *Engine) Seed(p *model.CompanyProfile) bool {
	if e.working != nil || p == nil {
		return false
	}
	e.working = p.Clone()
	e.baseline = p.Clone()
	return true
}

// Clear drops the working copy, the baseline and any in-flight edit. The
// next Seed starts over.
func (e *Engine) Clear() {
	e.working = nil
	e.baseline = nil
	e.edit = nil
}

// Working returns a copy of the working profile, or nil.
func (e *Engine) Working() *model.CompanyProfile {
	return e.working.Clone()
}

// Baseline returns a copy of the profile the working copy was seeded from.
func (e *Engine) Baseline() *model.CompanyProfile {
	return e.baseline.Clone()
}

// SetField coerces raw for the field at path and stores it in the working
// copy. Empty or unparseable input makes the field absent. Numbers must be
// whole integers: "1999.0" and "1999abc" are unparseable, not 1999.
func (e *Engine) SetField(path, raw string) error {
	f, err := e.resolve(path)
	if err != nil {
		return err
	}
	assign(e.working, f, coerce(f.Kind, raw))
	return nil
}

// Value returns the display text of the field at path in the working copy.
func (e *Engine) Value(path string) (string, error) {
	f, err := e.resolve(path)
	if err != nil {
		return "", err
	}
	return read(e.working, f), nil
}

// ComputeOverrides returns the fields where the working copy differs from
// the baseline. An empty result means there is nothing to submit.
func (e *Engine) ComputeOverrides() model.Overrides {
	if e.working == nil {
		return model.Overrides{}
	}
	return Diff(e.baseline, e.working)
}

// BeginEdit opens an edit session on path and returns the current display
// text as the initial draft. Any other pending draft is discarded.
func (e *Engine) BeginEdit(path string) (string, error) {
	f, err := e.resolve(path)
	if err != nil {
		return "", err
	}
	draft := read(e.working, f)
	e.edit = &edit{key: f.Key, draft: draft}
	return draft, nil
}

// UpdateDraft replaces the draft text of the open edit.
func (e *Engine) UpdateDraft(text string) error {
	if e.edit == nil {
		return ErrNoEdit
	}
	e.edit.draft = text
	return nil
}

// CommitEdit applies the open draft and closes the session. It returns the
// key that was written.
func (e *Engine) CommitEdit() (string, error) {
	if e.edit == nil {
		return "", ErrNoEdit
	}
	ed := e.edit
	if err := e.SetField(ed.key, ed.draft); err != nil {
		return "", err
	}
	e.edit = nil
	return ed.key, nil
}

// CancelEdit discards the open draft, if any.
func (e *Engine) CancelEdit() {
	e.edit = nil
}

// Editing returns the key and draft of the open edit.
func (e *Engine) Editing() (key, draft string, ok bool) {
	if e.edit == nil {
		return "", "", false
	}
	return e.edit.key, e.edit.draft, true
}

func (e *Engine) resolve(path string) (Field, error) {
	path = strings.TrimSpace(path)
	if IsReadOnly(path) {
		return Field{}, eris.Wrapf(ErrReadOnlyField, "field %q", path)
	}
	f, ok := Lookup(path)
	if !ok {
		return Field{}, eris.Wrapf(ErrUnknownField, "field %q", path)
	}
	if e.working == nil {
		return Field{}, ErrNotSeeded
	}
	return f, nil
}
