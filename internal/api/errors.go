package api

import (
	"fmt"
	"strings"
)

const msgUnreachable = "Unable to reach the order service. Please try again."

// TransportError covers network failures, timeouts and 2xx bodies that are
// not a response envelope. The message is deliberately generic.
type TransportError struct {
	Msg string
	Err error
}

func (e *TransportError) Error() string { return e.Msg }
func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response. Body holds the raw text for diagnostics.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, body)
}

// Failure is a well-formed envelope with success=false.
type Failure struct {
	Message string
	Detail  string
}

func (e *Failure) Error() string { return e.Message }
