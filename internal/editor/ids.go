package editor

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

const accessCodeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewID returns a fresh scene, choice or story id.
func NewID() string {
	return uuid.NewString()
}

// NewAccessCode returns a short lowercase alphanumeric code players can type
// to open a story. It is a lookup key, not a secret.
func NewAccessCode(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = accessCodeAlphabet[rand.IntN(len(accessCodeAlphabet))]
	}
	return string(b)
}
