package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const accessKeyBytes = 32

// GenerateAccessKey mints a customer access token. The plaintext is handed to
// the caller exactly once; only the hash is ever stored.
func GenerateAccessKey() (plaintext, hash string, err error) {
	buf := make([]byte, accessKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate access key: %w", err)
	}
	plaintext = hex.EncodeToString(buf)
	return plaintext, HashAccessKey(plaintext), nil
}

// HashAccessKey returns the stored form of a presented token.
func HashAccessKey(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
