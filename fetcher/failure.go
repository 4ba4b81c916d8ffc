package fetcher

import (
	"net/http"
	"time"
)

// Failure classifies why a fetch produced no body. It implements error so callers
// can wrap it and match it with errors.Is.
type Failure int

const (
	FailureNone Failure = iota
	// FailureAccessDenied is a 403. It is never retried.
	FailureAccessDenied
	// FailureNotFound is a 404. It is never retried.
	FailureNotFound
	// FailureExhausted means every attempt hit a transient error.
	FailureExhausted
	// FailureCanceled means the context ended before a body was received.
	FailureCanceled
)

func (f Failure) Error() string {
	switch f {
	case FailureNone:
		return "no failure"
	case FailureAccessDenied:
		return "access denied (403 Forbidden)"
	case FailureNotFound:
		return "not found (404 Not Found)"
	case FailureExhausted:
		return "retries exhausted"
	case FailureCanceled:
		return "request canceled"
	default:
		return "unknown failure"
	}
}

// maxBackoff caps the exponential retry delay.
const maxBackoff = 30 * time.Second

// Backoff returns the delay slept before retrying after attempt k (counted from 0): min(2^k, 30) seconds.
func Backoff(k int) time.Duration {
	if k < 0 {
		k = 0
	}
	if k >= 5 {
		return maxBackoff
	}
	return min(time.Duration(1<<k)*time.Second, maxBackoff)
}

// permanent maps statuses that must not be retried to their failure.
var permanent = map[int]Failure{
	http.StatusForbidden: FailureAccessDenied,
	http.StatusNotFound:  FailureNotFound,
}

// transient lists statuses that are expected to clear up by themselves.
// Other unexpected statuses are retried as well, but logged as errors.
var transient = map[int]struct{}{
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}
