package random

import (
	"crypto/rand"
	"fmt"
)

// Alphabet for generated ids. Entity files are named by these ids, so the
// set stays lowercase alphanumeric to be safe on case-insensitive filesystems.
const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// IDLength is the length of every generated entity and token id.
const IDLength = 20

// String returns a random string of length n drawn from the id alphabet.
func String(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("random: invalid length %d", n)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("random: %w", err)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf), nil
}

// ID returns a new 20-character entity id.
func ID() (string, error) {
	return String(IDLength)
}
