// ABOUTME: Random secret generation for JWT signing keys
// ABOUTME: Used by interactive setup to produce a config-ready secret string

package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateSecret returns a random base64-encoded secret suitable for JWT
// signing. The raw secret is 32 bytes.
func GenerateSecret() (string, error) {
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("generating secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(secretBytes), nil
}
