package token

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Error variables
var (
	ErrMissingAuthHeader = errors.New("authorization header missing")
	ErrInvalidAuthHeader = errors.New("invalid authorization header format")
)

const (
	derivationIterations = 4096
	derivedKeyLength     = 32
)

// Deriver produces auth tokens from passwords. The derivation is
// deterministic for a fixed salt: the same password always yields the
// same token, so login can re-derive and compare against the stored value.
type Deriver struct {
	Salt string // Keyed salt, fixed per deployment
}

// NewDeriver creates a new Deriver instance.
func NewDeriver(salt string) *Deriver {
	return &Deriver{Salt: salt}
}

// Derive returns the hex-encoded auth token for a password.
func (d *Deriver) Derive(password string) string {
	key := pbkdf2.Key([]byte(password), []byte(d.Salt), derivationIterations, derivedKeyLength, sha256.New)
	return hex.EncodeToString(key)
}

// FromAuthHeader extracts the bearer token from an Authorization header
// value. The scheme is matched case-insensitively.
func FromAuthHeader(header string) (string, error) {
	if header == "" {
		return "", ErrMissingAuthHeader
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", ErrInvalidAuthHeader
	}

	return parts[1], nil
}
