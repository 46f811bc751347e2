package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrThrottled means the provider is rate limiting us. Retried with backoff.
	ErrThrottled = errors.New("upstream throttled")
	// ErrAuth means the provider rejected our credentials. Never retried.
	ErrAuth = errors.New("upstream authentication failed")
	// ErrTransient covers timeouts, network faults and server errors.
	ErrTransient = errors.New("upstream transient fault")
)

// StatusError is a non-2xx answer from a provider.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Provider, e.Code, e.Body)
}

// Unwrap maps the status code onto the error taxonomy.
func (e *StatusError) Unwrap() error {
	switch {
	case e.Code == http.StatusTooManyRequests:
		return ErrThrottled
	case e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden:
		return ErrAuth
	default:
		return ErrTransient
	}
}

// retryable reports whether another attempt may succeed. Client errors other
// than 429 will fail the same way again.
func retryable(err error) bool {
	if errors.Is(err, ErrThrottled) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	return errors.Is(err, ErrTransient)
}

// resultLabel names an error for metrics.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrThrottled):
		return "throttled"
	case errors.Is(err, ErrAuth):
		return "auth"
	default:
		return "transient"
	}
}
