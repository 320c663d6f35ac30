package apierr

import (
	"encoding/json"
	"fmt"
)

// Kind classifies a failed upstream call.
type Kind int

const (
	KindNetwork Kind = iota
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindServer
	KindUnclassified
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	default:
		return "unclassified"
	}
}

// Error is an upstream failure with a user-facing message.
type Error struct {
	Kind    Kind
	Status  int
	Message string

	// ForcedLogout is set when a 401 on an auth-critical path has
	// cleared the persisted session; callers should send the user
	// back to sign-in.
	ForcedLogout bool

	cause error
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("upstream %s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("upstream %s: %s", e.Kind, e.Message)
}

func genericMessage(k Kind) string {
	switch k {
	case KindNetwork:
		return "Network error. Please check your connection and try again."
	case KindBadRequest:
		return "Invalid request."
	case KindUnauthorized:
		return "You are not authorized to perform this action."
	case KindForbidden:
		return "You do not have permission to perform this action."
	case KindNotFound:
		return "The requested resource was not found."
	case KindServer:
		return "Server error. Please try again later."
	default:
		return "Something went wrong. Please try again."
	}
}

// Network wraps a transport-level failure (no response received).
func Network(err error) *Error {
	return &Error{Kind: KindNetwork, Message: genericMessage(KindNetwork), cause: err}
}

// Classify maps a non-2xx response to an Error. The message prefers
// server-supplied text over the per-kind generic one.
func Classify(status int, body []byte) *Error {
	var kind Kind
	switch status {
	case 400:
		kind = KindBadRequest
	case 401:
		kind = KindUnauthorized
	case 403:
		kind = KindForbidden
	case 404:
		kind = KindNotFound
	case 500:
		kind = KindServer
	default:
		kind = KindUnclassified
	}

	msg := serverMessage(body)
	if msg == "" {
		msg = genericMessage(kind)
	}
	return &Error{Kind: kind, Status: status, Message: msg}
}

// serverMessage extracts human-readable text from an error body,
// trying the keys the upstream is known to use.
func serverMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"error", "detail", "message"} {
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// KindOf returns the kind of err, or KindUnclassified for non-Error
// values.
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindUnclassified
}
