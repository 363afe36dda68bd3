// ABOUTME: Tests for downstream response classification.
// ABOUTME: Covers message extraction, flattening, and the not-connected marker.

package classify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseUserNotConnected(t *testing.T) {
	err := Response(400, []byte(`{"message": "Integration not enabled for user."}`))
	assert.ErrorIs(t, err, ErrUserNotConnected)
}

func TestResponseDownstreamError(t *testing.T) {
	err := Response(400, []byte(`{"message": "rate limited"}`))

	var de *DownstreamError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 400, de.Status)
	assert.Equal(t, "rate limited", de.Message)
	assert.Equal(t, "HTTP error; status: 400; message: rate limited", de.Error())
}

func TestResponseMessageExtraction(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"object with message", `{"message": "nope"}`, "nope"},
		{"object without message flattens", `{"code": 7}`, `{"code":7}`},
		{"non-string message flattens", `{"message": 42}`, `{"message":42}`},
		{"array flattens", `[1,2]`, `[1,2]`},
		{"plain text passes through", "internal server error", "internal server error"},
		{"empty body", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Response(502, []byte(tt.body))

			var de *DownstreamError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, 502, de.Status)
			assert.Equal(t, tt.want, de.Message)
		})
	}
}

func TestResponseMarkerInsideLargerMessage(t *testing.T) {
	err := Response(400, []byte(`{"message": "call failed: Integration not enabled for user. (code 9)"}`))
	assert.ErrorIs(t, err, ErrUserNotConnected)
}

func TestClassifierCustomRule(t *testing.T) {
	c := Classifier{NotConnected: func(message string) bool {
		return message == "E_NOT_CONNECTED"
	}}

	assert.ErrorIs(t, c.Response(400, []byte(`{"message": "E_NOT_CONNECTED"}`)), ErrUserNotConnected)

	var de *DownstreamError
	require.True(t, errors.As(c.Response(400, []byte(`{"message": "Integration not enabled for user."}`)), &de))
}
