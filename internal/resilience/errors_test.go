package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
)

type flaky struct{}

func (flaky) Error() string   { return "no response" }
func (flaky) Transient() bool { return true }

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"500", &statusErr{code: 500}, true},
		{"503 wrapped", fmt.Errorf("get job: %w", &statusErr{code: 503}), true},
		{"404", &statusErr{code: 404}, false},
		{"400", &statusErr{code: 400}, false},
		{"429", &statusErr{code: 429}, false},
		{"canceled", context.Canceled, false},
		{"deadline wrapped", fmt.Errorf("fetch: %w", context.DeadlineExceeded), false},
		{"declared transient", fmt.Errorf("get: %w", flaky{}), true},
		{"connection refused", fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED), true},
		{"plain error", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsTransient_NetworkTimeout(t *testing.T) {
	err := &net.DNSError{IsTimeout: true, Err: "timeout"}
	if !IsTransient(err) {
		t.Error("network timeout should be transient")
	}
}

func TestIsTransient_ConnectionReset(t *testing.T) {
	err := fmt.Errorf("write tcp: %w", syscall.ECONNRESET)
	if !IsTransient(err) {
		t.Error("ECONNRESET should be transient")
	}
}

func TestIsTransient_StringPatterns(t *testing.T) {
	for _, msg := range []string{
		"read tcp 10.0.0.1:443: connection reset by peer",
		"dial tcp: lookup api.example.com: no such host",
		"net/http: TLS handshake timeout",
		"Get \"http://localhost:8080/jobs/1\": unexpected EOF",
	} {
		if !IsTransient(errors.New(msg)) {
			t.Errorf("expected %q to be transient", msg)
		}
	}
}

func TestIsTransient_NilAndRegular(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil error should not be transient")
	}
	if IsTransient(errors.New("invalid input: missing field")) {
		t.Error("regular error should not be transient")
	}
}

func TestIsRetryableStatus(t *testing.T) {
	for code, want := range map[int]bool{400: false, 404: false, 429: false, 499: false, 500: true, 502: true, 503: true, 504: true} {
		if got := IsRetryableStatus(code); got != want {
			t.Errorf("IsRetryableStatus(%d) = %v, want %v", code, got, want)
		}
	}
}
