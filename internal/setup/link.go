// ABOUTME: Setup link generation for the browser-based integration connect flow.
// ABOUTME: Mints a login token, wraps it in an outer credential, and shortens the URL.

package setup

import (
	"fmt"

	"github.com/2389/connect-gateway/internal/auth"
)

// Linker builds setup links that send a user to the hosted connect flow
// for an integration.
type Linker struct {
	credentials *auth.Service
	store       *TokenStore
	baseURL     string
	projectID   string
}

// NewLinker creates a setup link generator.
func NewLinker(credentials *auth.Service, store *TokenStore, baseURL, projectID string) *Linker {
	return &Linker{
		credentials: credentials,
		store:       store,
		baseURL:     baseURL,
		projectID:   projectID,
	}
}

// SetupLink returns a URL the user can open to authorize the named
// integration. The inner login token asserts only the user's identity;
// the outer credential carries the connect-flow context and is stored
// under an opaque id so the URL stays short.
func (l *Linker) SetupLink(userID, integrationName, integrationID string) (string, error) {
	loginToken, err := l.credentials.Sign(auth.Claims{UserID: userID})
	if err != nil {
		return "", fmt.Errorf("signing login token: %w", err)
	}

	token, err := l.credentials.Sign(auth.Claims{
		UserID:          userID,
		IntegrationName: integrationName,
		IntegrationID:   integrationID,
		ProjectID:       l.projectID,
		LoginToken:      loginToken,
	})
	if err != nil {
		return "", fmt.Errorf("signing setup token: %w", err)
	}

	id := l.store.Put(token)

	return fmt.Sprintf("%s/setup?token=%s", l.baseURL, id), nil
}
