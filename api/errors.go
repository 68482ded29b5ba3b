package api

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var (
	// ErrMalformedResponse is returned when a 2xx body does not have the expected shape.
	ErrMalformedResponse = errors.New("malformed backend response")
	// ErrAuthRequired is returned by endpoints that need a bearer token when none is stored.
	ErrAuthRequired = errors.New("authorization required")
	// ErrMissingBaseURL is returned by New when Config.BaseURL is empty.
	ErrMissingBaseURL = errors.New("api base url required")
)

// APIError is a non-2xx reply. Message is the server's "error" field when present,
// otherwise the operation's fallback text.
type APIError struct {
	Status  int
	Path    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// ServerMessage extracts the "error" field of a JSON body, or "" if absent.
func ServerMessage(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}
	return gjson.GetBytes(body, "error").String()
}

func newAPIError(status int, path string, body []byte, fallback string) *APIError {
	msg := ServerMessage(body)
	if msg == "" {
		msg = fallback
	}
	return &APIError{Status: status, Path: path, Message: msg}
}
