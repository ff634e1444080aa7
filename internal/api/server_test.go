package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/profile-review/internal/model"
	"github.com/sells-group/profile-review/internal/override"
	"github.com/sells-group/profile-review/internal/resilience"
	"github.com/sells-group/profile-review/internal/review"
	"github.com/sells-group/profile-review/pkg/jobs"
	"github.com/sells-group/profile-review/pkg/jobs/mocks"
)

func immediate(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func acmeJob() *model.Job {
	return &model.Job{
		ID:            "job-1",
		Status:        model.JobStatusCompleted,
		CompanyName:   "Acme",
		OfficialEmail: "a@acme.com",
		Profile: &model.CompanyProfile{
			CompanyName:   "Acme",
			OfficialEmail: "a@acme.com",
			Phone:         "555-0000",
		},
		Sources: map[string][]model.Source{
			"phone": {{URL: "https://acme.com/contact", Snippet: "Call 555-0000", Score: 0.9}},
		},
	}
}

func newTestAPI(t *testing.T, m *mocks.MockClient) (*httptest.Server, *Registry) {
	t.Helper()
	reg := NewRegistry(context.Background(), m,
		review.WithTimer(immediate),
		review.WithRetry(resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}),
	)
	t.Cleanup(reg.CloseAll)
	srv := httptest.NewServer(NewServer(reg, m, []string{"http://localhost:3000"}).Routes())
	t.Cleanup(srv.Close)
	return srv, reg
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func openSeeded(t *testing.T, srv *httptest.Server) {
	t.Helper()
	resp := do(t, http.MethodPost, srv.URL+"/reviews", map[string]string{"job_id": "job-1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.Eventually(t, func() bool {
		resp := do(t, http.MethodGet, srv.URL+"/reviews/job-1", nil)
		return decodeBody[review.State](t, resp).Seeded
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHealth(t *testing.T) {
	m := mocks.NewMockClient(t)
	m.On("Health", mock.Anything).Return(&jobs.HealthResponse{Status: "ok"}, nil).Once()
	m.On("Health", mock.Anything).Return(nil, &jobs.TransportError{Method: "GET", Path: "/health", Err: errors.New("connection refused")}).Once()
	srv, _ := newTestAPI(t, m)

	resp := do(t, http.MethodGet, srv.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decodeBody[map[string]string](t, resp)["upstream"])

	resp = do(t, http.MethodGet, srv.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "unreachable", decodeBody[map[string]string](t, resp)["upstream"])
}

func TestFields(t *testing.T) {
	srv, _ := newTestAPI(t, mocks.NewMockClient(t))

	resp := do(t, http.MethodGet, srv.URL+"/fields", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[struct {
		Sections []string         `json:"sections"`
		Fields   []override.Field `json:"fields"`
	}](t, resp)
	assert.Equal(t, override.Sections(), body.Sections)
	assert.Len(t, body.Fields, len(override.Fields()))
}

func TestOpenReview_Idempotent(t *testing.T) {
	m := mocks.NewMockClient(t)
	m.On("Get", mock.Anything, "job-1").Return(acmeJob(), nil)
	srv, reg := newTestAPI(t, m)

	resp := do(t, http.MethodPost, srv.URL+"/reviews", map[string]string{"job_id": "job-1"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	first := decodeBody[review.State](t, resp)

	resp = do(t, http.MethodPost, srv.URL+"/reviews", map[string]string{"job_id": "job-1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	second := decodeBody[review.State](t, resp)

	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, 1, reg.Len())
}

func TestOpenReview_BadRequest(t *testing.T) {
	srv, _ := newTestAPI(t, mocks.NewMockClient(t))

	resp := do(t, http.MethodPost, srv.URL+"/reviews", map[string]string{"job_id": " "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/reviews", strings.NewReader("{"))
	r, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer r.Body.Close()
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
}

func TestGetReview_NotFound(t *testing.T) {
	srv, _ := newTestAPI(t, mocks.NewMockClient(t))
	resp := do(t, http.MethodGet, srv.URL+"/reviews/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEditAndSave(t *testing.T) {
	m := mocks.NewMockClient(t)
	m.On("Get", mock.Anything, "job-1").Return(acmeJob(), nil)
	m.On("Finalize", mock.Anything, "job-1", model.Overrides{"phone": "555-1234"}).Return(acmeJob(), nil).Once()
	srv, _ := newTestAPI(t, m)
	openSeeded(t, srv)

	base := srv.URL + "/reviews/job-1"

	resp := do(t, http.MethodPost, base+"/edit", map[string]string{"field": "phone"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "555-0000", decodeBody[review.EditState](t, resp).Draft)

	resp = do(t, http.MethodPut, base+"/edit", map[string]string{"value": "555-1234"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "555-1234", decodeBody[review.EditState](t, resp).Draft)

	resp = do(t, http.MethodPost, base+"/edit/commit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decodeBody[review.State](t, resp)
	assert.Nil(t, state.Editing)
	assert.Equal(t, "555-1234", state.Profile.Phone)

	resp = do(t, http.MethodGet, base+"/overrides", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"phone": "555-1234"}, decodeBody[map[string]any](t, resp))

	resp = do(t, http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, review.SaveApplied, decodeBody[review.SaveResult](t, resp).Outcome)
}

func TestEditErrors(t *testing.T) {
	m := mocks.NewMockClient(t)
	m.On("Get", mock.Anything, "job-1").Return(acmeJob(), nil)
	srv, _ := newTestAPI(t, m)
	openSeeded(t, srv)

	base := srv.URL + "/reviews/job-1"

	resp := do(t, http.MethodPost, base+"/edit", map[string]string{"field": "company_name"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeBody[map[string]string](t, resp)["error"], "read-only")

	resp = do(t, http.MethodPost, base+"/edit/commit", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = do(t, http.MethodDelete, base+"/edit", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestSave_NoChanges(t *testing.T) {
	m := mocks.NewMockClient(t)
	m.On("Get", mock.Anything, "job-1").Return(acmeJob(), nil)
	srv, _ := newTestAPI(t, m)
	openSeeded(t, srv)

	resp := do(t, http.MethodPost, srv.URL+"/reviews/job-1/save", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, review.SaveNoChanges, decodeBody[review.SaveResult](t, resp).Outcome)
	m.AssertNotCalled(t, "Finalize", mock.Anything, mock.Anything, mock.Anything)
}

func TestSave_ServiceErrorStatus(t *testing.T) {
	m := mocks.NewMockClient(t)
	m.On("Get", mock.Anything, "job-1").Return(acmeJob(), nil)
	m.On("Finalize", mock.Anything, "job-1", mock.Anything).
		Return(nil, eris.Wrap(&jobs.ServiceError{StatusCode: http.StatusUnprocessableEntity, Message: "invalid phone"}, "jobs: finalize job-1")).Once()
	srv, _ := newTestAPI(t, m)
	openSeeded(t, srv)

	base := srv.URL + "/reviews/job-1"
	do(t, http.MethodPost, base+"/edit", map[string]string{"field": "phone"})
	do(t, http.MethodPut, base+"/edit", map[string]string{"value": "nope"})
	do(t, http.MethodPost, base+"/edit/commit", nil)

	resp := do(t, http.MethodPost, base+"/save", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, decodeBody[map[string]string](t, resp)["error"], "invalid phone")

	resp = do(t, http.MethodGet, base+"/overrides", nil)
	assert.Equal(t, map[string]any{"phone": "nope"}, decodeBody[map[string]any](t, resp))
}

func TestSources(t *testing.T) {
	m := mocks.NewMockClient(t)
	m.On("Get", mock.Anything, "job-1").Return(acmeJob(), nil)
	srv, _ := newTestAPI(t, m)
	openSeeded(t, srv)

	resp := do(t, http.MethodGet, srv.URL+"/reviews/job-1/sources?field=phone", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	g := decodeBody[struct {
		Title  string `json:"title"`
		Fields []struct {
			Key     string         `json:"key"`
			Sources []model.Source `json:"sources"`
		} `json:"fields"`
	}](t, resp)
	assert.Equal(t, "Sources for Phone", g.Title)
	require.Len(t, g.Fields, 1)
	assert.Len(t, g.Fields[0].Sources, 1)

	resp = do(t, http.MethodGet, srv.URL+"/reviews/job-1/sources", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Sources", decodeBody[map[string]any](t, resp)["title"])
}

func TestExport(t *testing.T) {
	m := mocks.NewMockClient(t)
	m.On("Get", mock.Anything, "job-1").Return(acmeJob(), nil)
	m.On("Export", mock.Anything, "job-1").Return(&model.ExportBundle{
		Profile:  model.CompanyProfile{CompanyName: "Acme", OfficialEmail: "a@acme.com"},
		Metadata: map[string]string{"exported_at": "2025-06-15T10:30:00Z"},
	}, nil).Once()
	srv, _ := newTestAPI(t, m)
	openSeeded(t, srv)

	resp := do(t, http.MethodGet, srv.URL+"/reviews/job-1/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="Acme-profile.json"`, resp.Header.Get("Content-Disposition"))
	bundle := decodeBody[model.ExportBundle](t, resp)
	assert.Equal(t, "Acme", bundle.Profile.CompanyName)
}

func TestCloseReview(t *testing.T) {
	m := mocks.NewMockClient(t)
	m.On("Get", mock.Anything, "job-1").Return(acmeJob(), nil)
	srv, reg := newTestAPI(t, m)
	openSeeded(t, srv)

	resp := do(t, http.MethodDelete, srv.URL+"/reviews/job-1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, reg.Len())

	resp = do(t, http.MethodGet, srv.URL+"/reviews/job-1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/reviews/job-1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestAPI(t, mocks.NewMockClient(t))

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/reviews", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"bad request", &badRequest{msg: "x"}, http.StatusBadRequest},
		{"validation", &jobs.ValidationError{Field: "company_name", Message: "is required"}, http.StatusBadRequest},
		{"no page", eris.Wrap(ErrPageNotFound, "job x"), http.StatusNotFound},
		{"unknown field", eris.Wrap(override.ErrUnknownField, "field"), http.StatusBadRequest},
		{"not seeded", override.ErrNotSeeded, http.StatusConflict},
		{"no edit", override.ErrNoEdit, http.StatusConflict},
		{"save in progress", review.ErrSaveInProgress, http.StatusConflict},
		{"closed", review.ErrClosed, http.StatusGone},
		{"service", eris.Wrap(&jobs.ServiceError{StatusCode: 404, Message: "Job not found"}, "get"), http.StatusNotFound},
		{"transport", &jobs.TransportError{Err: errors.New("refused")}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
