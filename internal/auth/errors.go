package auth

import "errors"

var (
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenExpired       = errors.New("token expired")
	ErrInvalidSignature   = errors.New("invalid token signature")
	ErrMalformedToken     = errors.New("malformed token")
	ErrTokenTypeMismatch  = errors.New("token type mismatch")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrTokenUsed          = errors.New("token already used")
	ErrForbidden          = errors.New("permission denied")
	ErrPasswordTooLong    = errors.New("password exceeds 72 bytes")
	ErrMissingSecret      = errors.New("jwt signing secret not set")
)
