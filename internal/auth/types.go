package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// token type tags; a token is only accepted where its type is expected
const (
	TokenTypeAccess        = "access"
	TokenTypePasswordReset = "password_reset"
)

// represents JWT claims; sub carries the user id
type Claims struct {
	Type  string `json:"type,omitempty"`
	Email string `json:"email,omitempty"`
	// fingerprint of the password hash a reset token was issued against
	PasswordVersion string `json:"pwv,omitempty"`
	jwt.RegisteredClaims
}
