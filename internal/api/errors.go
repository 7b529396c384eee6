package api

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBackendUnavailable indicates the backend could not be reached.
	ErrBackendUnavailable = errors.New("compliance backend unavailable")

	// ErrTimeout indicates a request exceeded the configured timeout.
	ErrTimeout = errors.New("compliance backend request timed out")

	// ErrRejected indicates the backend answered {success:false}.
	ErrRejected = errors.New("request rejected by backend")

	// ErrMalformedResponse indicates a 2xx body that could not be decoded.
	ErrMalformedResponse = errors.New("malformed backend response")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("backend returned status %d", e.Code)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Code, body)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.Code >= 500 || e.Code == 429
}
