package oauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"codeberg.org/avksport/server/avk/sessions"
	"codeberg.org/avksport/server/avk/users"
)

const sessionTokenBytes = 32

// turns external identities into local users and cookie-backed sessions
type Broker struct {
	idp         IdentityProvider
	users       users.Store
	sessions    sessions.Store
	ttl         time.Duration
	linkByEmail bool
	now         func() time.Time
}

type Config struct {
	SessionTTL time.Duration
	// attach an external identity to an existing account with the same email instead of failing
	LinkByEmail bool
}

func NewBroker(idp IdentityProvider, userStore users.Store, sessionStore sessions.Store, cfg Config) *Broker {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = sessions.DefaultTTL
	}

	return &Broker{
		idp:         idp,
		users:       userStore,
		sessions:    sessionStore,
		ttl:         ttl,
		linkByEmail: cfg.LinkByEmail,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// asks the identity provider who owns the external session id
func (b *Broker) Exchange(ctx context.Context, externalSessionID string) (*ExternalIdentity, error) {
	data, err := b.idp.SessionData(ctx, externalSessionID)
	if err != nil {
		return nil, err
	}

	return &ExternalIdentity{
		Provider:     ProviderEmergent,
		ExternalID:   data.ID,
		Email:        data.Email,
		DisplayName:  data.Name,
		Picture:      data.Picture,
		SessionToken: data.SessionToken,
	}, nil
}

// exchanges the external session, materialises the user and opens a session
func (b *Broker) Login(ctx context.Context, externalSessionID string) (*users.User, *sessions.Session, error) {
	ext, err := b.Exchange(ctx, externalSessionID)
	if err != nil {
		return nil, nil, err
	}

	return b.LoginIdentity(ctx, ext)
}

// materialises the user for an already verified identity and opens a session.
// disabled accounts get no session and ErrAccountDisabled alongside the user.
func (b *Broker) LoginIdentity(ctx context.Context, ext *ExternalIdentity) (*users.User, *sessions.Session, error) {
	user, err := b.MaterializeUser(ctx, ext)
	if err != nil {
		return nil, nil, err
	}

	if user.Disabled() {
		return user, nil, ErrAccountDisabled
	}

	session, err := b.CreateSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	return user, session, nil
}

// finds the user linked to (provider, external id) or creates one.
// concurrent first-time calls converge on a single record through the unique identity index.
func (b *Broker) MaterializeUser(ctx context.Context, ext *ExternalIdentity) (*users.User, error) {
	existing, err := b.users.FindByIdentity(ctx, ext.Provider, ext.ExternalID)
	if err == nil {
		return existing, nil
	}

	if !errors.Is(err, users.ErrUserNotFound) {
		return nil, err
	}

	now := b.now()
	identity := users.Identity{Provider: ext.Provider, ProviderID: ext.ExternalID, LinkedAt: now}

	user := &users.User{
		ID:            uuid.NewString(),
		Email:         ext.Email,
		FullName:      ext.DisplayName,
		Picture:       ext.Picture,
		Identities:    []users.Identity{identity},
		Role:          users.RoleCustomer,
		IsActive:      true,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = b.users.Create(ctx, user)
	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, users.ErrIdentityTaken), errors.Is(err, users.ErrEmailTaken):
		return b.afterConflict(ctx, ext, identity)
	default:
		return nil, fmt.Errorf("failed to create oauth user: %w", err)
	}
}

// a concurrent exchange may have won the insert; otherwise the email belongs to another account
func (b *Broker) afterConflict(ctx context.Context, ext *ExternalIdentity, identity users.Identity) (*users.User, error) {
	winner, err := b.users.FindByIdentity(ctx, ext.Provider, ext.ExternalID)
	if err == nil {
		return winner, nil
	}

	if !errors.Is(err, users.ErrUserNotFound) {
		return nil, err
	}

	if !b.linkByEmail {
		return nil, users.ErrEmailTaken
	}

	owner, err := b.users.FindByEmail(ctx, ext.Email)
	if err != nil {
		return nil, err
	}

	linked, err := b.users.LinkIdentity(ctx, owner.ID, identity)
	if errors.Is(err, users.ErrIdentityTaken) {
		return b.users.FindByIdentity(ctx, ext.Provider, ext.ExternalID)
	}

	return linked, err
}

// stores a new session with a random opaque token
func (b *Broker) CreateSession(ctx context.Context, user *users.User) (*sessions.Session, error) {
	token, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	now := b.now()

	session := &sessions.Session{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		SessionToken: token,
		ExpiresAt:    now.Add(b.ttl),
		CreatedAt:    now,
	}

	if err := b.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// returns the session owner; expired sessions are deleted on sight
func (b *Broker) Resolve(ctx context.Context, sessionToken string) (*users.User, error) {
	if sessionToken == "" {
		return nil, sessions.ErrSessionNotFound
	}

	session, err := b.sessions.FindByToken(ctx, sessionToken)
	if err != nil {
		return nil, err
	}

	if session.Expired(b.now()) {
		if err := b.sessions.DeleteByToken(ctx, sessionToken); err != nil {
			return nil, err
		}

		return nil, sessions.ErrSessionExpired
	}

	user, err := b.users.FindByID(ctx, session.UserID)
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, sessions.ErrSessionNotFound
	}

	if err != nil {
		return nil, err
	}

	return user, nil
}

// deletes the session; unknown tokens are not an error
func (b *Broker) Revoke(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}

	return b.sessions.DeleteByToken(ctx, sessionToken)
}

// lifetime applied to new sessions
func (b *Broker) TTL() time.Duration {
	return b.ttl
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
