package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"codeberg.org/avksport/server/avk/sessions"
	"codeberg.org/avksport/server/avk/users"
	apierrors "codeberg.org/avksport/server/internal/errors"
	"codeberg.org/avksport/server/internal/logger"
)

const (
	contextUserKey   = "auth_user"
	contextClaimsKey = "auth_claims"
	contextUserIDKey = "user_id"
)

// resolves an opaque session cookie value to its user
type SessionResolver interface {
	Resolve(ctx context.Context, sessionToken string) (*users.User, error)
}

// resolves the current user from a bearer token or a session cookie and enforces roles
type Gate struct {
	issuer     *Issuer
	users      users.Store
	sessions   SessionResolver
	denyList   DenyList
	cookieName string
}

// denyList may be nil, in which case bearer tokens are never checked for revocation
func NewGate(issuer *Issuer, store users.Store, resolver SessionResolver, denyList DenyList, cookieName string) *Gate {
	return &Gate{
		issuer:     issuer,
		users:      store,
		sessions:   resolver,
		denyList:   denyList,
		cookieName: cookieName,
	}
}

// tries the Authorization header first, then the session cookie.
// claims is nil when the user was resolved from a cookie. When neither path
// succeeds the error wraps ErrUnauthenticated together with the first cause.
func (g *Gate) CurrentUser(c *gin.Context) (*users.User, *Claims, error) {
	var firstErr error

	if token, ok := BearerToken(c); ok {
		user, claims, err := g.fromBearer(c.Request.Context(), token)
		if err == nil {
			return user, claims, nil
		}

		firstErr = err
	}

	if cookie, err := c.Cookie(g.cookieName); err == nil && cookie != "" && g.sessions != nil {
		user, err := g.sessions.Resolve(c.Request.Context(), cookie)
		if err == nil {
			return user, nil, nil
		}

		if firstErr == nil {
			firstErr = err
		}
	}

	switch {
	case firstErr == nil:
		return nil, nil, ErrUnauthenticated
	case IsAuthFailure(firstErr):
		return nil, nil, fmt.Errorf("%w: %w", ErrUnauthenticated, firstErr)
	default:
		return nil, nil, firstErr
	}
}

func (g *Gate) fromBearer(ctx context.Context, token string) (*users.User, *Claims, error) {
	claims, err := g.issuer.VerifyAccess(token)
	if err != nil {
		return nil, nil, err
	}

	if g.denyList != nil {
		revoked, err := g.denyList.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, nil, err
		}

		if revoked {
			return nil, nil, ErrTokenRevoked
		}
	}

	user, err := g.users.FindByID(ctx, claims.Subject)
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, nil, ErrUnauthenticated
	}

	if err != nil {
		return nil, nil, err
	}

	return user, claims, nil
}

// requires an authenticated, active user holding one of roles (any role when empty)
func (g *Gate) RequireAuth(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, claims, err := g.CurrentUser(c)
		if err != nil {
			if IsAuthFailure(err) {
				apierrors.Unauthorized(c, "invalid or missing credentials")
			} else {
				apierrors.InternalError(c, "failed to authenticate request", err)
			}

			c.Abort()
			return
		}

		if err := RequireRole(user, roles...); err != nil {
			apierrors.Forbidden(c, forbiddenMessage(user))
			c.Abort()
			return
		}

		setCurrentUser(c, user, claims)
		c.Next()
	}
}

// resolves the user when credentials are present but never rejects the request
func (g *Gate) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, claims, err := g.CurrentUser(c)
		if err == nil && !user.Disabled() {
			setCurrentUser(c, user, claims)
		}

		c.Next()
	}
}

// stores the user for handlers and scopes the request logger to them
func setCurrentUser(c *gin.Context, user *users.User, claims *Claims) {
	c.Set(contextUserKey, user)
	c.Set(contextUserIDKey, user.ID)

	if claims != nil {
		c.Set(contextClaimsKey, claims)
	}

	ctx := c.Request.Context()
	c.Request = c.Request.WithContext(logger.WithContext(ctx, logger.FromContext(ctx).With("user_id", user.ID)))
}

// disabled accounts are forbidden even when the role matches
func RequireRole(user *users.User, roles ...string) error {
	if user == nil || user.Disabled() {
		return ErrForbidden
	}

	if len(roles) == 0 || slices.Contains(roles, user.Role) {
		return nil
	}

	return ErrForbidden
}

// extracts the token from an "Authorization: Bearer <token>" header
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}

	return strings.TrimSpace(parts[1]), true
}

// returns the user stored by RequireAuth
func GetUser(c *gin.Context) (*users.User, bool) {
	v, exists := c.Get(contextUserKey)
	if !exists {
		return nil, false
	}

	user, ok := v.(*users.User)
	return user, ok
}

// extracts user_id from context after RequireAuth
func GetUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(contextUserIDKey)
	return userID, userID != ""
}

// returns the bearer claims when the request was authenticated with a token
func GetClaims(c *gin.Context) (*Claims, bool) {
	v, exists := c.Get(contextClaimsKey)
	if !exists {
		return nil, false
	}

	claims, ok := v.(*Claims)
	return claims, ok
}

func forbiddenMessage(user *users.User) string {
	if user.Disabled() {
		return "account is disabled"
	}

	return "insufficient permissions"
}

// reports whether err means bad or missing credentials rather than an infrastructure failure
func IsAuthFailure(err error) bool {
	for _, target := range authFailures {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

var authFailures = []error{
	ErrUnauthenticated,
	ErrTokenExpired,
	ErrInvalidSignature,
	ErrMalformedToken,
	ErrTokenTypeMismatch,
	ErrTokenRevoked,
	ErrTokenUsed,
	sessions.ErrSessionNotFound,
	sessions.ErrSessionExpired,
}
