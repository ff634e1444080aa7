// Package provenance exposes, per profile field, the confidence score and the
// ranked evidence sources the service attached to a job.
package provenance

import (
	"sort"

	"github.com/sells-group/profile-review/internal/model"
	"github.com/sells-group/profile-review/internal/override"
)

// AllFields is the pseudo-key that selects every field with a sources entry.
const AllFields = "all"

// Evidence is the provenance of one field.
type Evidence struct {
	Key        string         `json:"key"`
	Label      string         `json:"label"`
	Confidence *float64       `json:"confidence,omitempty"`
	Sources    []model.Source `json:"sources"`
}

// HasSources reports whether any source backs the field.
func (e Evidence) HasSources() bool {
	return len(e.Sources) > 0
}

// Group is an ordered set of field evidence shown together.
type Group struct {
	Title  string     `json:"title"`
	Key    string     `json:"key"`
	Fields []Evidence `json:"fields"`
}

// Empty reports whether the group has nothing to show.
func (g Group) Empty() bool {
	return len(g.Fields) == 0
}

// View is a read-only projection over one job snapshot.
type View struct {
	sources    map[string][]model.Source
	confidence map[string]float64
}

// New builds a View over job. A nil job yields an empty view.
func New(job *model.Job) *View {
	v := &View{}
	if job == nil {
		return v
	}
	v.sources = job.Sources
	if job.Profile != nil {
		v.confidence = job.Profile.ConfidencePerField
	}
	return v
}

// Field returns the confidence and ordered sources for key. Confidence is nil
// when the field was never scored.
func (v *View) Field(key string) Evidence {
	ev := Evidence{
		Key:     key,
		Label:   Label(key),
		Sources: v.sources[key],
	}
	if score, ok := v.confidence[key]; ok {
		ev.Confidence = &score
	}
	return ev
}

// HasSources reports whether key has at least one source.
func (v *View) HasSources(key string) bool {
	return len(v.sources[key]) > 0
}

// HasAny reports whether any field has sources.
func (v *View) HasAny() bool {
	for _, s := range v.sources {
		if len(s) > 0 {
			return true
		}
	}
	return false
}

// Narrow returns the group for a single field. The group is empty when the
// field has no sources. Passing AllFields is the same as calling All.
func (v *View) Narrow(key string) Group {
	if key == AllFields {
		return v.All()
	}
	g := Group{Title: "Sources for " + Label(key), Key: key}
	if v.HasSources(key) {
		g.Fields = []Evidence{v.Field(key)}
	}
	return g
}

// All returns every key in the sources mapping, including keys whose source
// list is empty. Catalog fields come first in catalog order, then unknown
// keys alphabetically.
func (v *View) All() Group {
	keys := make([]string, 0, len(v.sources))
	for k := range v.sources {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		pi, pj := override.Position(keys[i]), override.Position(keys[j])
		switch {
		case pi >= 0 && pj >= 0:
			return pi < pj
		case pi >= 0:
			return true
		case pj >= 0:
			return false
		default:
			return keys[i] < keys[j]
		}
	})

	g := Group{Title: "Sources", Key: AllFields, Fields: make([]Evidence, 0, len(keys))}
	for _, k := range keys {
		g.Fields = append(g.Fields, v.Field(k))
	}
	return g
}
