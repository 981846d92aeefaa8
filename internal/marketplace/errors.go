package marketplace

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors returned by Client methods. Use errors.Is; the underlying
// *StatusError stays reachable through errors.As.
var (
	ErrNotFound      = errors.New("marketplace: not found")
	ErrUnauthorized  = errors.New("marketplace: unauthorized")
	ErrAlreadyExists = errors.New("marketplace: already exists")
	ErrInvalid       = errors.New("marketplace: invalid request")
	ErrUnavailable   = errors.New("marketplace: unavailable")
)

// StatusError is a non-2xx response from the marketplace API.
type StatusError struct {
	StatusCode int
	Method     string
	Endpoint   string
	Message    string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("marketplace: %s %s: %d %s", e.Method, e.Endpoint, e.StatusCode, msg)
}

// mapError translates transport and status errors into the package sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	// Context errors pass through unchanged.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		case se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden:
			return fmt.Errorf("%w: %w", ErrUnauthorized, err)
		case se.StatusCode == http.StatusConflict:
			return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
		case se.StatusCode >= 500:
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		case se.StatusCode >= 400:
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		return err
	}

	// Connection refused, DNS errors, etc.
	msg := err.Error()
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "dial tcp") {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
