// ABOUTME: Maps non-success downstream HTTP responses to typed errors.
// ABOUTME: Isolates the fragile not-connected substring match in one place.

package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUserNotConnected indicates the downstream service reported that the
// user has not authorized the integration. Callers surface it as an
// actionable condition so an agent can prompt re-authorization instead of
// retrying blindly.
var ErrUserNotConnected = errors.New("user not connected")

// notConnectedMarker is the substring the upstream service emits when a
// user has not completed authorization. The match is textual because the
// upstream exposes no structured error code; keeping it here means a
// future structured code only changes this package.
const notConnectedMarker = "Integration not enabled for user."

// DownstreamError is any other non-success downstream response.
type DownstreamError struct {
	Status  int
	Message string
}

func (e *DownstreamError) Error() string {
	return fmt.Sprintf("HTTP error; status: %d; message: %s", e.Status, e.Message)
}

// Classifier turns a non-success downstream response into a typed error.
// The not-connected rule is a field so it can be replaced wholesale if the
// upstream ever grows a structured error code.
type Classifier struct {
	// NotConnected reports whether the extracted message means the user
	// has not authorized the integration.
	NotConnected func(message string) bool
}

// Default matches the upstream's current free-text marker.
var Default = Classifier{
	NotConnected: func(message string) bool {
		return strings.Contains(message, notConnectedMarker)
	},
}

// Response classifies a non-success downstream response body using the
// default classifier. The body is treated as text first: a JSON object with
// a string "message" field wins, any other JSON value is flattened back to
// a string, and unparseable bodies fall through as raw text.
func Response(status int, body []byte) error {
	return Default.Response(status, body)
}

// Response classifies a non-success downstream response body.
func (c Classifier) Response(status int, body []byte) error {
	message := determineMessage(body)

	if c.NotConnected != nil && c.NotConnected(message) {
		return fmt.Errorf("%w: %s", ErrUserNotConnected, message)
	}

	return &DownstreamError{Status: status, Message: message}
}

func determineMessage(body []byte) string {
	text := string(body)
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}

	var parsed any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return text
	}

	if obj, ok := parsed.(map[string]any); ok {
		if msg, ok := obj["message"].(string); ok {
			return msg
		}
	}

	// Decoded JSON values cannot contain cycles, so re-serialization is a
	// safe flattening step; if it fails anyway, fall back to the raw text.
	flat, err := json.Marshal(parsed)
	if err != nil {
		return text
	}
	return string(flat)
}
