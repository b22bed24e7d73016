package seed

import "github.com/google/uuid"

// TokenGenerator produces the value written to AuthenticationHeader of a
// seeded row.
type TokenGenerator interface {
	NewToken() (string, error)
}

// TokenFunc adapts a function to TokenGenerator.
type TokenFunc func() (string, error)

func (f TokenFunc) NewToken() (string, error) {
	return f()
}

// UUIDTokens generates random (version 4) UUIDs from crypto/rand.
type UUIDTokens struct{}

func (UUIDTokens) NewToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
