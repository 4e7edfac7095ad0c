package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// UpstreamOverloadedError is a transient model-overload response. Callers
// retry these with backoff up to a fixed attempt cap.
type UpstreamOverloadedError struct {
	StatusCode int
	Err        error
}

func (e *UpstreamOverloadedError) Error() string {
	return fmt.Sprintf("model overloaded (status %d): %v", e.StatusCode, e.Err)
}

func (e *UpstreamOverloadedError) Unwrap() error { return e.Err }

// UpstreamForbiddenError is a credential-level rejection. Never retried;
// surfaced distinctly so an operator can rotate keys.
type UpstreamForbiddenError struct {
	StatusCode int
	Err        error
}

func (e *UpstreamForbiddenError) Error() string {
	return fmt.Sprintf("model access forbidden (status %d): %v", e.StatusCode, e.Err)
}

func (e *UpstreamForbiddenError) Unwrap() error { return e.Err }

// TransportRejectedError means the endpoint rejected the inline payload
// itself. It triggers the signed-URL fallback strategy exactly once.
type TransportRejectedError struct {
	Err error
}

func (e *TransportRejectedError) Error() string {
	return fmt.Sprintf("inline payload rejected: %v", e.Err)
}

func (e *TransportRejectedError) Unwrap() error { return e.Err }

// MalformedResponseError means the model output held no parseable JSON
// object, or the model explicitly declared the input unreadable. Fatal for
// the call, never retried.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "malformed model response: " + e.Reason
}

// ErrUnreadableContent is the terminal failure for the model's explicit
// unreadable-content sentinel.
var ErrUnreadableContent = &MalformedResponseError{Reason: "model reported content as unreadable"}

// classifyGeminiError maps a raw Gemini transport error onto the taxonomy.
// Unclassified errors pass through unchanged.
func classifyGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusServiceUnavailable, http.StatusTooManyRequests:
			return &UpstreamOverloadedError{StatusCode: apiErr.Code, Err: err}
		case http.StatusUnauthorized, http.StatusForbidden:
			return &UpstreamForbiddenError{StatusCode: apiErr.Code, Err: err}
		case http.StatusBadRequest:
			if strings.Contains(apiErr.Message, "Unable to process input image") {
				return &TransportRejectedError{Err: err}
			}
		}
		return err
	}
	if strings.Contains(strings.ToLower(err.Error()), "overloaded") {
		return &UpstreamOverloadedError{StatusCode: http.StatusServiceUnavailable, Err: err}
	}
	return err
}
