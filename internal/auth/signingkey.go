// ABOUTME: Signing key resolution from inline config value or file path
// ABOUTME: Normalizes escaped newlines and parses PEM into an RSA private key

package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/2389/connect-gateway/internal/config"
)

// ErrSigningKey indicates missing or unusable signing key material.
// This is fatal at startup.
var ErrSigningKey = errors.New("signing key")

// ResolveSigningKey obtains the deployment's RSA private key from the
// signing configuration: a file path takes precedence over an inline value.
// Escaped "\n" sequences are normalized to literal newlines so PEM material
// can be passed through single-line environment variables.
func ResolveSigningKey(cfg config.SigningConfig) (*rsa.PrivateKey, error) {
	var material string

	switch {
	case cfg.KeyPath != "":
		data, err := os.ReadFile(cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrSigningKey, cfg.KeyPath, err)
		}
		material = string(data)
	case cfg.Key != "":
		material = cfg.Key
	default:
		return nil, fmt.Errorf("%w: neither signing.key nor signing.key_path is set", ErrSigningKey)
	}

	material = strings.ReplaceAll(material, `\n`, "\n")

	return parsePrivateKey(material)
}

// parsePrivateKey decodes PEM material into an RSA private key, accepting
// both PKCS#1 and PKCS#8 encodings.
func parsePrivateKey(material string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(material))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrSigningKey)
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing PEM block: %v", ErrSigningKey, err)
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: key is %T, want RSA private key", ErrSigningKey, parsed)
	}
	return key, nil
}
