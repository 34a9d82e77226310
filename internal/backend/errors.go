package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidBody = errors.New("backend returned a non-json body")

// TransportError means the backend could not be reached at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: backend unreachable: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: backend status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: backend status %d: %s", e.Op, e.StatusCode, e.Detail)
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func IsStatus(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// extractDetail pulls the `detail` member out of an error body. FastAPI style
// backends send either a string or a list of validation objects there.
func extractDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return truncate(strings.TrimSpace(string(body)), 512)
	}
	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return text
	}
	return truncate(string(payload.Detail), 512)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
