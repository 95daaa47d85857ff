package gitlab

import (
	"fmt"
	"strings"
)

// NotFoundError reports that the remote has no entity matching the request.
// Callers can usually fix this by adjusting the identifier.
type NotFoundError struct {
	Resource string // e.g. "work item", "project"
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// RequestError reports a request the remote (or our own validation)
// rejected: bad input shape, an unresolvable type name, a non-empty
// errors list from a mutation, or a mutation response missing its entity.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string { return e.Message }

// Requestf builds a RequestError with a formatted message.
func Requestf(format string, args ...any) *RequestError {
	return &RequestError{Message: fmt.Sprintf(format, args...)}
}

// PermissionError reports an authorization failure, including tier-gated
// features the instance's plan does not include.
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string { return e.Message }

// ServerError wraps an unexpected transport or decode failure. Op names
// the failing operation for diagnostics.
type ServerError struct {
	Op  string
	Err error
}

func (e *ServerError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *ServerError) Unwrap() error { return e.Err }

// tierMarkers are substrings GitLab uses when a feature is gated behind a
// paid plan. Remote error text containing any of them is classified as a
// permission problem rather than a bad request.
var tierMarkers = []string{
	"premium",
	"ultimate",
	"licensed feature",
	"upgrade your plan",
	"your subscription",
}

// classifyMessages turns a remote GraphQL errors list into a single error:
// PermissionError when any message carries a tier marker, RequestError
// otherwise, with all messages joined.
func classifyMessages(messages []string) error {
	joined := strings.Join(messages, "; ")
	lower := strings.ToLower(joined)
	for _, marker := range tierMarkers {
		if strings.Contains(lower, marker) {
			return &PermissionError{Message: joined}
		}
	}
	return &RequestError{Message: joined}
}
