package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/flix/internal/shared"
)

// ErrorKind classifies every failure the client reports.
type ErrorKind int

const (
	KindNetwork ErrorKind = iota + 1
	KindUnauthorized
	KindNotFound
	KindServerError
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "Network"
	case KindUnauthorized:
		return "Unauthorized"
	case KindNotFound:
		return "NotFound"
	case KindServerError:
		return "ServerError"
	case KindValidation:
		return "Validation"
	default:
		return "Unknown"
	}
}

func (k ErrorKind) defaultMessage() string {
	switch k {
	case KindNetwork:
		return "Network error"
	case KindUnauthorized:
		return "Unauthorized"
	case KindNotFound:
		return "Not found"
	case KindValidation:
		return "Invalid input"
	default:
		return "Server error"
	}
}

// APIError is the single error shape returned by [MovieAPI].
type APIError struct {
	Kind    ErrorKind
	Status  int    // HTTP status, 0 when no response was received
	Message string // server-provided message or a generic one
	Err     error  // underlying cause, if any
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// KindOf returns the [ErrorKind] of the first [*APIError] in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// IsUnauthorized reports whether err carries [KindUnauthorized].
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}

// Message returns the user-facing text of err.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	default:
		return KindServerError
	}
}

const maxPlainMessage = 200

// newStatusError builds an [*APIError] from a non-2xx response body.
//
// JSON bodies contribute their `message` or `error` field; short plain-text bodies are used as is.
func newStatusError(status int, body []byte) *APIError {
	kind := kindForStatus(status)
	return &APIError{Kind: kind, Status: status, Message: extractMessage(body, kind)}
}

func extractMessage(body []byte, kind ErrorKind) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(payload.Error); msg != "" {
			return msg
		}
		return kind.defaultMessage()
	}

	text := strings.TrimSpace(string(body))
	if text == "" || strings.HasPrefix(text, "<") || !utf8.ValidString(text) || len(text) > maxPlainMessage {
		return kind.defaultMessage()
	}
	return text
}

func newNetworkError(err error) *APIError {
	return &APIError{Kind: KindNetwork, Message: KindNetwork.defaultMessage(), Err: err}
}

func newValidationError(format string, args ...any) *APIError {
	msg := fmt.Sprintf(format, args...)
	return &APIError{Kind: KindValidation, Message: msg, Err: fmt.Errorf("%w: %s", shared.ErrInvalidInput, msg)}
}
