package pathfinder

import (
	"time"

	"github.com/c360studio/modulator/export"
)

// ErrorKind classifies a failed request so callers can branch without
// parsing messages.
type ErrorKind string

const (
	ErrorInvalidRequest ErrorKind = "invalid_request"
	ErrorUnknownKey     ErrorKind = "unknown_key"
	ErrorUnreachable    ErrorKind = "unreachable"
	ErrorTimeout        ErrorKind = "timeout"
	ErrorInternal       ErrorKind = "internal"
)

// PathRequest asks for a modulation between two keys
type PathRequest struct {
	// RequestID is echoed in the response. Generated when empty.
	RequestID string `json:"request_id,omitempty"`

	// Start and Destination are key names such as "C major" or "a-:minor".
	Start       string `json:"start"`
	Destination string `json:"destination"`
}

// PathResponse answers a PathRequest
type PathResponse struct {
	// RequestID matches the original request
	RequestID string `json:"request_id"`

	// Success indicates if the query succeeded
	Success bool `json:"success"`

	// Error contains error details if success is false
	Error     string    `json:"error,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`

	// RecordID is the stored progression ID, when a store is configured
	RecordID string `json:"record_id,omitempty"`

	Progression *export.ProgressionDocument `json:"progression,omitempty"`

	// QueryTime is how long the query took
	QueryTime time.Duration `json:"query_time"`
}

// NewResponse creates a successful response
func NewResponse(requestID string) *PathResponse {
	return &PathResponse{
		RequestID: requestID,
		Success:   true,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(requestID string, kind ErrorKind, errMsg string) *PathResponse {
	return &PathResponse{
		RequestID: requestID,
		Success:   false,
		Error:     errMsg,
		ErrorKind: kind,
	}
}

// IssuedProgression is published for every successful request so that
// playback can schedule it.
type IssuedProgression struct {
	RequestID   string                      `json:"request_id"`
	RecordID    string                      `json:"record_id,omitempty"`
	Progression *export.ProgressionDocument `json:"progression"`
	IssuedAt    time.Time                   `json:"issued_at"`
}
