package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
)

// HTTPStatusError is implemented by errors that carry the HTTP status of a
// failed response.
type HTTPStatusError interface {
	error
	HTTPStatus() int
}

// transient is implemented by errors that know they are safe to retry, such
// as a request that never received a response.
type transient interface {
	Transient() bool
}

// Retryable reports whether a failed read is worth repeating. Client errors
// (4xx) and cancellation are final; server errors (5xx) and network failures
// are not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var se HTTPStatusError
	if errors.As(err, &se) {
		return IsRetryableStatus(se.HTTPStatus())
	}

	return IsTransient(err)
}

// IsRetryableStatus returns true for server-side failures. Every 4xx is a
// client error that retrying cannot fix.
func IsRetryableStatus(statusCode int) bool {
	return statusCode >= 500
}

// IsTransient returns true if the error (or any error in its chain) declares
// itself transient, or matches common network failure patterns (timeouts,
// connection resets, DNS failures).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var t transient
	if errors.As(err, &t) && t.Transient() {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"connection refused",
		"broken pipe",
		"no such host",
		"i/o timeout",
		"tls handshake timeout",
		"server closed idle connection",
		"unexpected eof",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
