package sessions

import (
	"context"
	"errors"
	"time"
)

const CollectionName = "user_sessions"

// fixed lifetime of an oauth browser session
const DefaultTTL = 7 * 24 * time.Hour

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// persistence contract for oauth sessions; implemented by Repository (mongo) and MemoryStore
type Store interface {
	Create(ctx context.Context, session *Session) error
	FindByToken(ctx context.Context, token string) (*Session, error)
	// deleting a missing session is not an error
	DeleteByToken(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// represents one authenticated browser session
type Session struct {
	ID           string    `bson:"id" json:"id"`
	UserID       string    `bson:"user_id" json:"user_id"`
	SessionToken string    `bson:"session_token" json:"-"`
	ExpiresAt    time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// reports whether the session is past its expiry at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
