package identity

import (
	"errors"
)

var (
	ErrUpstreamUnavailable = errors.New("identity provider unavailable")
	ErrInvalidSession      = errors.New("invalid external session")
)

// user data returned by the identity provider for a valid external session
type SessionData struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Picture      string `json:"picture"`
	SessionToken string `json:"session_token"`
}
