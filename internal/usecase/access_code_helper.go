package usecase

import (
	"crypto/rand"
	"io"
)

// generateAccessCode creates a random 8-character alphanumeric token.
// Uniqueness is not guaranteed; the collision probability over a 36-char
// alphabet is accepted as negligible for 48-hour codes.
func generateAccessCode() (string, error) {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const codeLength = 8

	buffer := make([]byte, codeLength)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", err
	}

	for i := 0; i < codeLength; i++ {
		buffer[i] = chars[int(buffer[i])%len(chars)]
	}
	return string(buffer), nil
}
