package crypto

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// IDGenerator produces the two kinds of opaque identifiers a token carries:
// a lookup id and a longer high-entropy bearer secret. They are never
// derived from each other.
type IDGenerator interface {
	NewID() (string, error)
	NewSecret(bytes int) (string, error)
}

type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	return uuid.NewString(), nil
}

func (g *UUIDGenerator) NewSecret(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
