// ABOUTME: Tests for HTTP request authentication and the auth middleware.
// ABOUTME: Covers bearer credentials, dev-mode fallback, and rejection paths.

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateBearer(t *testing.T) {
	svc := NewService(testKey(t))
	authn := NewAuthenticator(svc, false)

	signed, err := svc.Sign(Claims{UserID: "user-1"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	ident, err := authn.Authenticate(req)
	require.NoError(t, err)
	assert.Equal(t, "user-1", ident.UserID)
}

func TestAuthenticateRejectsBadBearer(t *testing.T) {
	svc := NewService(testKey(t))
	authn := NewAuthenticator(svc, false)

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")

	_, err := authn.Authenticate(req)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestAuthenticateDevMode(t *testing.T) {
	svc := NewService(testKey(t))

	t.Run("accepts user param when enabled", func(t *testing.T) {
		authn := NewAuthenticator(svc, true)
		req := httptest.NewRequest(http.MethodPost, "/mcp?user=local-dev", nil)

		ident, err := authn.Authenticate(req)
		require.NoError(t, err)
		assert.Equal(t, "local-dev", ident.UserID)
		// The synthesized credential is a real one usable downstream
		assert.NotEmpty(t, ident.Token)
	})

	t.Run("ignores user param when disabled", func(t *testing.T) {
		authn := NewAuthenticator(svc, false)
		req := httptest.NewRequest(http.MethodPost, "/mcp?user=local-dev", nil)

		_, err := authn.Authenticate(req)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestAuthenticateNoCredential(t *testing.T) {
	svc := NewService(testKey(t))
	authn := NewAuthenticator(svc, true)

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	_, err := authn.Authenticate(req)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestMiddleware(t *testing.T) {
	svc := NewService(testKey(t))
	authn := NewAuthenticator(svc, false)

	var seen *Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := authn.Middleware(next)

	t.Run("attaches identity", func(t *testing.T) {
		signed, err := svc.Sign(Claims{UserID: "user-1"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "user-1", seen.UserID)
	})

	t.Run("rejects before the handler runs", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
		assert.Nil(t, seen)
	})
}
