package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt only reads the first 72 bytes; longer inputs are rejected rather than truncated
const maxPasswordBytes = 72

// returns a salted bcrypt hash of password
func HashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

// reports whether password matches hash; malformed hashes never match
func VerifyPassword(password, hash string) bool {
	if hash == "" || len(password) > maxPasswordBytes {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
