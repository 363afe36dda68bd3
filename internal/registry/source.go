// ABOUTME: Adapter binding the registry client to a fixed credential.
// ABOUTME: Implements the catalog's ActionSource for startup catalog builds.

package registry

import (
	"context"

	"github.com/2389/connect-gateway/internal/catalog"
)

// CatalogSource binds a registry client to one credential so the catalog
// builder can fetch actions and integrations without knowing about auth.
type CatalogSource struct {
	client     *Client
	credential string
}

// NewCatalogSource creates a catalog source using the given credential for
// every registry call.
func NewCatalogSource(client *Client, credential string) *CatalogSource {
	return &CatalogSource{client: client, credential: credential}
}

// Actions implements catalog.ActionSource.
func (s *CatalogSource) Actions(ctx context.Context) (map[string][]catalog.Action, error) {
	return s.client.Actions(ctx, s.credential)
}

// Integrations implements catalog.ActionSource.
func (s *CatalogSource) Integrations(ctx context.Context) ([]catalog.Integration, error) {
	return s.client.Integrations(ctx, s.credential)
}
