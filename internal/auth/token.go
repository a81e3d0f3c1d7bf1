package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// TokenBytes is the entropy of a generated token.
const TokenBytes = 32

var (
	ErrInvalidToken = errors.New("invalid API token")
	ErrTokenTooLong = errors.New("token exceeds maximum length of 72 bytes")
)

// GenerateAPIToken creates a random token. Returns the plaintext (to show
// once) and its bcrypt hash (to configure).
func GenerateAPIToken(cost int) (plaintext string, hash string, err error) {
	bytes := make([]byte, TokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", err
	}
	plaintext = hex.EncodeToString(bytes)
	hash, err = HashToken(plaintext, cost)
	if err != nil {
		return "", "", err
	}
	return plaintext, hash, nil
}

// HashToken creates a bcrypt hash of token.
func HashToken(token string, cost int) (string, error) {
	// bcrypt has a 72-byte limit
	if len(token) > 72 {
		return "", ErrTokenTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckToken compares a token with its hash.
func CheckToken(token, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidToken
		}
		return err
	}
	return nil
}
