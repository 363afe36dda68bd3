// ABOUTME: In-memory access token store mapping opaque ids to signed credentials.
// ABOUTME: Shortens the tokens embedded in setup link URLs; safe for concurrent use.

package setup

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// record holds a stored credential and when it was stored.
type record struct {
	token     string
	createdAt time.Time
}

// TokenStore maps opaque short ids to signed credentials so setup links
// carry an id instead of the full JWT. Records are never actively evicted:
// the underlying credential expires on its own, and verification at
// resolution time is what gates access. Losing the store on restart only
// invalidates in-flight setup links.
type TokenStore struct {
	mu      sync.RWMutex
	records map[string]record
}

// NewTokenStore creates an empty token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		records: make(map[string]record),
	}
}

// Put stores a signed credential under a fresh opaque id and returns the id.
func (s *TokenStore) Put(token string) string {
	id := uuid.New().String()

	s.mu.Lock()
	s.records[id] = record{token: token, createdAt: time.Now()}
	s.mu.Unlock()

	return id
}

// Get returns the credential stored under id. The record is not removed;
// a setup link may be opened more than once before the credential expires.
func (s *TokenStore) Get(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return "", false
	}
	return rec.token, true
}

// Len returns the number of stored records.
func (s *TokenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
