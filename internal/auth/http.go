// ABOUTME: HTTP request authentication for the MCP endpoint
// ABOUTME: Extracts bearer credentials, with an explicit dev-mode query fallback

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnauthenticated indicates the request carried no usable credential.
var ErrUnauthenticated = errors.New("unauthenticated")

// Authenticator derives a verified end-user identity from inbound requests.
type Authenticator struct {
	service *Service
	devMode bool
}

// NewAuthenticator wraps a credential service. When devMode is true, a
// plain "user" query parameter is accepted in place of a bearer credential
// and a credential is synthesized for it. This bypass must never be enabled
// outside local development.
func NewAuthenticator(service *Service, devMode bool) *Authenticator {
	return &Authenticator{service: service, devMode: devMode}
}

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// Authenticate resolves the acting user for a request. A bearer credential
// always wins; in dev mode a bare "user" query parameter synthesizes one.
// Returns ErrUnauthenticated when neither path yields a usable credential.
func (a *Authenticator) Authenticate(r *http.Request) (*Identity, error) {
	token, errMsg := extractBearerToken(r.Header.Get("Authorization"))
	if errMsg == "" {
		ident, err := a.service.Verify(token)
		if err != nil {
			return nil, err
		}
		return ident, nil
	}

	if a.devMode {
		if user := r.URL.Query().Get("user"); user != "" {
			signed, err := a.service.Sign(Claims{UserID: user})
			if err != nil {
				return nil, fmt.Errorf("synthesizing dev credential: %w", err)
			}
			return a.service.Verify(signed)
		}
	}

	return nil, ErrUnauthenticated
}

// Middleware rejects requests without a verifiable credential and attaches
// the identity to the request context for downstream handlers.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := a.Authenticate(r)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident)))
	})
}
