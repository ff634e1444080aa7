package jobs

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/sells-group/profile-review/internal/resilience"
)

// ValidationError is returned before any network call when required input
// is missing.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("jobs: %s %s", e.Field, e.Message)
}

// ServiceError is returned when the service responds with a non-2xx status.
type ServiceError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("jobs: HTTP %d: %s", e.StatusCode, e.Message)
}

// HTTPStatus reports the response status for retry classification.
func (e *ServiceError) HTTPStatus() int {
	return e.StatusCode
}

// TransportError is returned when no response was received at all.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("jobs: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Transient marks transport failures as safe to retry for reads.
func (e *TransportError) Transient() bool {
	return true
}

// IsRetryable reports whether a failed read should be retried: transport
// failures and 5xx responses yes, 4xx responses and cancellation no.
func IsRetryable(err error) bool {
	return resilience.Retryable(err)
}

// newServiceError builds a ServiceError whose message is taken from a JSON
// "detail" or "message" field when present, then the raw body text, then
// the status line.
func newServiceError(code int, status string, body []byte) *ServiceError {
	return &ServiceError{
		StatusCode: code,
		Message:    errorMessage(code, status, body),
		Body:       string(body),
	}
}

func errorMessage(code int, status string, body []byte) string {
	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		for _, key := range []string{"detail", "message"} {
			if v := parsed.Get(key); v.Exists() && v.String() != "" {
				return v.String()
			}
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}

	if status != "" {
		return "HTTP " + status
	}
	return fmt.Sprintf("HTTP %d", code)
}
