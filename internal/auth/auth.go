package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultAccessTTL = 7 * 24 * time.Hour
	DefaultResetTTL  = time.Hour
)

// signs and verifies HS256 bearer tokens
type Issuer struct {
	secret    []byte
	accessTTL time.Duration
	resetTTL  time.Duration
	now       func() time.Time
}

// creates an issuer; zero ttls fall back to the defaults
func NewIssuer(secret string, accessTTL, resetTTL time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}

	if resetTTL <= 0 {
		resetTTL = DefaultResetTTL
	}

	return &Issuer{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		resetTTL:  resetTTL,
		now:       time.Now,
	}, nil
}

// replaces the clock used for issuing and verifying
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	cp := *i
	cp.now = now
	return &cp
}

// encodes subject plus extra claims, expiring at now+ttl. ttl <= 0 uses the access ttl.
func (i *Issuer) Issue(subject string, extra Claims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = i.accessTTL
	}

	now := i.now()

	claims := extra
	claims.Subject = subject
	claims.ID = uuid.NewString()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// issues a login token for a user
func (i *Issuer) IssueAccess(userID, email string) (string, error) {
	return i.Issue(userID, Claims{Type: TokenTypeAccess, Email: email}, i.accessTTL)
}

// issues a short-lived password reset token bound to the password hash it replaces.
// Once that hash changes the token no longer matches.
func (i *Issuer) IssueReset(userID, passwordHash string) (string, error) {
	return i.Issue(userID, Claims{
		Type:            TokenTypePasswordReset,
		PasswordVersion: i.PasswordVersion(passwordHash),
	}, i.resetTTL)
}

// keyed fingerprint of a stored password hash; empty for accounts without a password
func (i *Issuer) PasswordVersion(passwordHash string) string {
	mac := hmac.New(sha256.New, i.secret)
	mac.Write([]byte("pwv:" + passwordHash))

	return hex.EncodeToString(mac.Sum(nil)[:12])
}

// validates signature and expiry and returns the claims
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)

	claims := &Claims{}

	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return i.secret, nil
	})

	if err != nil {
		return nil, classifyTokenError(err)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, ErrMalformedToken
	}

	return claims, nil
}

// verifies the token and requires its type tag to equal tokenType
func (i *Issuer) VerifyType(tokenString, tokenType string) (*Claims, error) {
	claims, err := i.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.Type != tokenType {
		return nil, ErrTokenTypeMismatch
	}

	return claims, nil
}

// verifies a login token
func (i *Issuer) VerifyAccess(tokenString string) (*Claims, error) {
	return i.VerifyType(tokenString, TokenTypeAccess)
}

// verifies a password reset token
func (i *Issuer) VerifyReset(tokenString string) (*Claims, error) {
	return i.VerifyType(tokenString, TokenTypePasswordReset)
}

// checks that a reset token was issued against passwordHash
func (i *Issuer) MatchesPassword(claims *Claims, passwordHash string) bool {
	want := i.PasswordVersion(passwordHash)
	return hmac.Equal([]byte(claims.PasswordVersion), []byte(want))
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSignature
	default:
		return ErrMalformedToken
	}
}
