// ABOUTME: Tests for signing key resolution from inline values and file paths.
// ABOUTME: Verifies newline normalization and failure modes for bad material.

package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/connect-gateway/internal/config"
)

func testKeyPEM(t *testing.T) (string, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating test key: %v", err)
	}
	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}
	return string(pem.EncodeToMemory(block)), key
}

func TestResolveSigningKeyInline(t *testing.T) {
	pemStr, key := testKeyPEM(t)

	resolved, err := ResolveSigningKey(config.SigningConfig{Key: pemStr})
	require.NoError(t, err)
	assert.True(t, key.Equal(resolved))
}

func TestResolveSigningKeyFromFile(t *testing.T) {
	pemStr, key := testKeyPEM(t)
	path := filepath.Join(t.TempDir(), "signing.pem")
	require.NoError(t, os.WriteFile(path, []byte(pemStr), 0o600))

	resolved, err := ResolveSigningKey(config.SigningConfig{KeyPath: path})
	require.NoError(t, err)
	assert.True(t, key.Equal(resolved))
}

func TestResolveSigningKeyNormalizesEscapedNewlines(t *testing.T) {
	pemStr, key := testKeyPEM(t)
	escaped := strings.ReplaceAll(pemStr, "\n", `\n`)

	resolved, err := ResolveSigningKey(config.SigningConfig{Key: escaped})
	require.NoError(t, err)
	assert.True(t, key.Equal(resolved))
}

func TestResolveSigningKeyFailures(t *testing.T) {
	t.Run("nothing configured", func(t *testing.T) {
		_, err := ResolveSigningKey(config.SigningConfig{})
		assert.ErrorIs(t, err, ErrSigningKey)
	})

	t.Run("unreadable path", func(t *testing.T) {
		_, err := ResolveSigningKey(config.SigningConfig{
			KeyPath: filepath.Join(t.TempDir(), "missing.pem"),
		})
		assert.ErrorIs(t, err, ErrSigningKey)
	})

	t.Run("not PEM", func(t *testing.T) {
		_, err := ResolveSigningKey(config.SigningConfig{Key: "not a key"})
		assert.ErrorIs(t, err, ErrSigningKey)
	})
}
