package mesh

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors used to classify failures with errors.Is.
var (
	ErrNotFound = errors.New("mesh: not found")
	ErrUpstream = errors.New("mesh: upstream error")
)

// Error describes a failed call against the Mesh API.
type Error struct {
	Op     string
	Status int    // zero when no response was received
	Body   string // first 512 bytes of the response body
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := e.Op
	if e.Status != 0 {
		base += fmt.Sprintf(": HTTP %d", e.Status)
	}
	if e.Body != "" {
		base += ": " + e.Body
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports a 404 as ErrNotFound and everything else as ErrUpstream.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUpstream:
		return e.Status != http.StatusNotFound
	}
	return false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
