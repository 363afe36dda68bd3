// ABOUTME: JWT credential signing and verification for end-user identity
// ABOUTME: Uses RS256 with the deployment's RSA key pair and a 7-day expiry

package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrMissingClaim      = errors.New("missing required claim")
)

// TokenTTL is how long a signed credential stays valid.
const TokenTTL = 7 * 24 * time.Hour

// Claims carries the acting user ID and the optional context claims that
// end up in the token's nested payload. Optional fields are omitted from
// the payload entirely when empty, never encoded as empty strings.
type Claims struct {
	UserID          string
	PersonaID       string
	IntegrationID   string
	IntegrationName string
	ProjectID       string
	LoginToken      string
}

// Identity is the verified result of a credential. Token holds the raw
// compact JWT so it can be forwarded as a bearer credential downstream.
type Identity struct {
	UserID          string
	Token           string
	PersonaID       string
	IntegrationID   string
	IntegrationName string
	ProjectID       string
	LoginToken      string
}

// Service signs and verifies end-user credentials with the deployment's
// RSA key pair.
type Service struct {
	key *rsa.PrivateKey
	now func() time.Time
}

// NewService creates a credential service around the given private key.
func NewService(key *rsa.PrivateKey) *Service {
	return &Service{key: key, now: time.Now}
}

// Sign builds and signs a credential for the given claims.
// The payload sub-object includes only the non-empty optional fields.
func (s *Service) Sign(claims Claims) (string, error) {
	if claims.UserID == "" {
		return "", fmt.Errorf("%w: user id", ErrMissingClaim)
	}

	payload := map[string]any{}
	if claims.PersonaID != "" {
		payload["personaId"] = claims.PersonaID
	}
	if claims.IntegrationID != "" {
		payload["integrationId"] = claims.IntegrationID
	}
	if claims.IntegrationName != "" {
		payload["integrationName"] = claims.IntegrationName
	}
	if claims.ProjectID != "" {
		payload["projectId"] = claims.ProjectID
	}
	if claims.LoginToken != "" {
		payload["loginToken"] = claims.LoginToken
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"payload": payload,
		"sub":     claims.UserID,
		"iat":     now.Unix(),
		"exp":     now.Add(TokenTTL).Unix(),
	})

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("signing credential: %w", err)
	}
	return signed, nil
}

// Verify validates the token signature and expiry against the deployment's
// public key and returns the decoded identity. Any failure, including a
// malformed token or one signed with a different key, surfaces as
// ErrInvalidCredential.
func (s *Service) Verify(tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &s.key.PublicKey, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if !token.Valid {
		return nil, ErrInvalidCredential
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidCredential
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	ident := &Identity{
		UserID: sub,
		Token:  tokenString,
	}

	if payload, ok := claims["payload"].(map[string]any); ok {
		ident.PersonaID = stringField(payload, "personaId")
		ident.IntegrationID = stringField(payload, "integrationId")
		ident.IntegrationName = stringField(payload, "integrationName")
		ident.ProjectID = stringField(payload, "projectId")
		ident.LoginToken = stringField(payload, "loginToken")
	}

	return ident, nil
}

func stringField(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}
