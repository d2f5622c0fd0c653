package grants

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const tokenBytes = 32

// NewToken returns an unguessable URL-safe grant token.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating grant token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
