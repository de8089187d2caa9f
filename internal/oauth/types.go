package oauth

import (
	"context"
	"errors"

	"codeberg.org/avksport/server/internal/identity"
)

// provider tag stored on users materialised through the session exchange
const ProviderEmergent = "emergent"

var ErrAccountDisabled = errors.New("account is disabled")

// verified identity returned by an external provider
type ExternalIdentity struct {
	Provider     string
	ExternalID   string
	Email        string
	DisplayName  string
	Picture      string
	SessionToken string
}

// the upstream session-data endpoint
type IdentityProvider interface {
	SessionData(ctx context.Context, externalSessionID string) (*identity.SessionData, error)
}
