package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/profile-review/internal/override"
	"github.com/sells-group/profile-review/internal/provenance"
	"github.com/sells-group/profile-review/internal/review"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok", "upstream": "ok"}
	if _, err := s.client.Health(r.Context()); err != nil {
		resp["upstream"] = "unreachable"
		resp["upstream_error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) fields(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sections": override.Sections(),
		"fields":   override.Fields(),
	})
}

func (s *Server) page(r *http.Request) (*review.Page, error) {
	return s.reg.Get(chi.URLParam(r, "id"))
}

func (s *Server) openReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JobID string `json:"job_id"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.JobID) == "" {
		writeError(w, &badRequest{msg: "job_id is required"})
		return
	}

	p, created, err := s.reg.Open(strings.TrimSpace(req.JobID))
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, p.State())
}

func (s *Server) getReview(w http.ResponseWriter, r *http.Request) {
	p, err := s.page(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p.State())
}

func (s *Server) closeReview(w http.ResponseWriter, r *http.Request) {
	if err := s.reg.Close(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) beginEdit(w http.ResponseWriter, r *http.Request) {
	p, err := s.page(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Field string `json:"field"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	draft, err := p.BeginEdit(req.Field)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, review.EditState{Field: req.Field, Draft: draft})
}

func (s *Server) updateDraft(w http.ResponseWriter, r *http.Request) {
	p, err := s.page(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Value string `json:"value"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := p.UpdateDraft(req.Value); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p.State().Editing)
}

func (s *Server) commitEdit(w http.ResponseWriter, r *http.Request) {
	p, err := s.page(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := p.CommitEdit(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p.State())
}

func (s *Server) cancelEdit(w http.ResponseWriter, r *http.Request) {
	p, err := s.page(r)
	if err != nil {
		writeError(w, err)
		return
	}
	p.CancelEdit()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) overrides(w http.ResponseWriter, r *http.Request) {
	p, err := s.page(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p.Overrides())
}

func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	p, err := s.page(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := p.Save(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) sources(w http.ResponseWriter, r *http.Request) {
	p, err := s.page(r)
	if err != nil {
		writeError(w, err)
		return
	}
	field := r.URL.Query().Get("field")
	if field == "" {
		field = provenance.AllFields
	}
	writeJSON(w, http.StatusOK, p.Sources().Narrow(field))
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	p, err := s.page(r)
	if err != nil {
		writeError(w, err)
		return
	}
	bundle, err := p.ExportBundle(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := review.MarshalBundle(bundle)
	if err != nil {
		writeError(w, err)
		return
	}

	company := bundle.Profile.CompanyName
	if company == "" {
		company = p.State().CompanyName
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", review.ExportFilename(company)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
