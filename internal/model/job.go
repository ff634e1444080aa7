package model

import (
	"strings"
	"time"
)

// JobStatus represents the current state of a research job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether polling should stop once a job reaches s.
// Anything the service reports that is not completed or failed keeps the
// poll loop alive.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Message returns the progress line shown while a job is in flight.
func (s JobStatus) Message() string {
	switch s {
	case JobStatusQueued:
		return "Job is queued for processing..."
	case JobStatusRunning:
		return "Scraping and analyzing company data..."
	case JobStatusCompleted:
		return "Analysis complete."
	case JobStatusFailed:
		return "Analysis failed."
	default:
		return string(s)
	}
}

// Job is one company-research task as reported by the service. Every fetch
// returns a complete snapshot; the client never patches one in place.
type Job struct {
	ID            string                 `json:"id"`
	Status        JobStatus              `json:"status"`
	CompanyName   string                 `json:"company_name"`
	OfficialEmail string                 `json:"official_email"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
	Error         string                 `json:"error,omitempty"`
	Profile       *CompanyProfile        `json:"profile,omitempty"`
	Candidates    map[string][]Candidate `json:"candidates,omitempty"`
	Sources       map[string][]Source    `json:"sources,omitempty"`
}

// JobRequest is the body for POST /jobs.
type JobRequest struct {
	CompanyName       string   `json:"company_name"`
	OfficialEmail     string   `json:"official_email"`
	Domain            string   `json:"domain,omitempty"`
	CompetitorDomains []string `json:"competitor_domains,omitempty"`
	MainLocations     []string `json:"main_locations,omitempty"`
}

// Normalize trims every input and drops empty list entries. Lists that end
// up empty are set to nil so they are omitted from the request body.
func (r JobRequest) Normalize() JobRequest {
	return JobRequest{
		CompanyName:       strings.TrimSpace(r.CompanyName),
		OfficialEmail:     strings.TrimSpace(r.OfficialEmail),
		Domain:            strings.TrimSpace(r.Domain),
		CompetitorDomains: CleanList(r.CompetitorDomains),
		MainLocations:     CleanList(r.MainLocations),
	}
}

// ExportBundle is the response from GET /jobs/{id}/export.json.
type ExportBundle struct {
	Profile  CompanyProfile      `json:"profile"`
	Sources  map[string][]Source `json:"sources"`
	Metadata map[string]string   `json:"metadata"`
}

// SplitList splits raw on sep, trims each segment and drops empties.
// Returns nil when nothing is left.
func SplitList(raw, sep string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return CleanList(strings.Split(raw, sep))
}

// CleanList trims items and drops empty ones. Returns nil when nothing is left.
func CleanList(items []string) []string {
	var out []string
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Overrides maps a profile field key to the value a human set for it. A nil
// value clears the field.
type Overrides map[string]any
