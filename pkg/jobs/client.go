// Package jobs provides a client for the company-research job service.
package jobs

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/profile-review/internal/model"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8080"

// Client defines the job service operations.
type Client interface {
	// Create submits a new research job.
	Create(ctx context.Context, req model.JobRequest) (*model.Job, error)
	// Get fetches the current snapshot of a job, including sources and candidates.
	Get(ctx context.Context, id string) (*model.Job, error)
	// Finalize submits human overrides for a job's profile.
	Finalize(ctx context.Context, id string, overrides model.Overrides) (*model.Job, error)
	// Export returns the profile, all sources and metadata for a job.
	Export(ctx context.Context, id string) (*model.ExportBundle, error)
	// Health checks that the service is reachable.
	Health(ctx context.Context) (*HealthResponse, error)
}

// HealthResponse is the response from GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit caps outbound requests to perSec with the given burst.
// A non-positive rate disables limiting.
func WithRateLimit(perSec float64, burst int) Option {
	return func(c *httpClient) {
		if perSec <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

// httpClient implements Client on top of resty.
type httpClient struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	limiter *rate.Limiter
	rc      *resty.Client
}

// NewClient creates a new job service client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: DefaultBaseURL,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	hc := c.http
	if hc == nil {
		hc = &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	c.rc = resty.NewWithClient(hc).
		SetBaseURL(strings.TrimRight(c.baseURL, "/")).
		SetTimeout(c.timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetLogger(zap.S())
	c.rc.OnBeforeRequest(c.beforeRequest)
	return c
}

func (c *httpClient) beforeRequest(_ *resty.Client, r *resty.Request) error {
	r.SetHeader("X-Request-ID", uuid.NewString())
	if c.limiter != nil {
		return c.limiter.Wait(r.Context())
	}
	return nil
}

func (c *httpClient) Create(ctx context.Context, req model.JobRequest) (*model.Job, error) {
	req = req.Normalize()
	if err := validate(req); err != nil {
		return nil, err
	}

	var job model.Job
	r := c.rc.R().SetBody(req)
	if err := c.do(ctx, r, http.MethodPost, "/jobs", &job); err != nil {
		return nil, eris.Wrap(err, "jobs: create")
	}
	return &job, nil
}

func (c *httpClient) Get(ctx context.Context, id string) (*model.Job, error) {
	var job model.Job
	r := c.rc.R().SetPathParam("id", id)
	if err := c.do(ctx, r, http.MethodGet, "/jobs/{id}", &job); err != nil {
		return nil, eris.Wrapf(err, "jobs: get %s", id)
	}
	return &job, nil
}

func (c *httpClient) Finalize(ctx context.Context, id string, overrides model.Overrides) (*model.Job, error) {
	if overrides == nil {
		overrides = model.Overrides{}
	}

	var job model.Job
	r := c.rc.R().SetPathParam("id", id).SetBody(overrides)
	if err := c.do(ctx, r, http.MethodPost, "/jobs/{id}/finalise", &job); err != nil {
		return nil, eris.Wrapf(err, "jobs: finalize %s", id)
	}
	return &job, nil
}

func (c *httpClient) Export(ctx context.Context, id string) (*model.ExportBundle, error) {
	var bundle model.ExportBundle
	r := c.rc.R().SetPathParam("id", id)
	if err := c.do(ctx, r, http.MethodGet, "/jobs/{id}/export.json", &bundle); err != nil {
		return nil, eris.Wrapf(err, "jobs: export %s", id)
	}
	return &bundle, nil
}

func (c *httpClient) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.do(ctx, c.rc.R(), http.MethodGet, "/health", &resp); err != nil {
		return nil, eris.Wrap(err, "jobs: health")
	}
	return &resp, nil
}

func (c *httpClient) do(ctx context.Context, r *resty.Request, method, path string, out any) error {
	resp, err := r.SetContext(ctx).Execute(method, path)
	if err != nil {
		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "request canceled")
		}
		return &TransportError{Method: method, Path: path, Err: err}
	}

	if !resp.IsSuccess() {
		return newServiceError(resp.StatusCode(), resp.Status(), resp.Body())
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}

func validate(req model.JobRequest) error {
	if req.CompanyName == "" {
		return &ValidationError{Field: "company_name", Message: "is required"}
	}
	if req.OfficialEmail == "" {
		return &ValidationError{Field: "official_email", Message: "is required"}
	}
	return nil
}
