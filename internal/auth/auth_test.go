package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-testing"

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()

	issuer, err := NewIssuer(testSecret, 0, 0)
	require.NoError(t, err)

	return issuer
}

func TestNewIssuer_MissingSecret(t *testing.T) {
	_, err := NewIssuer("", time.Hour, time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestIssueAccess_Success(t *testing.T) {
	issuer := newTestIssuer(t)

	token, err := issuer.IssueAccess("user-123", "test@example.com")

	require.NoError(t, err)
	assert.Equal(t, 3, len(strings.Split(token, ".")), "JWT should have 3 parts")

	claims, err := issuer.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.Equal(t, TokenTypeAccess, claims.Type)
	assert.NotEmpty(t, claims.ID)
}

func TestIssue_DefaultTTL(t *testing.T) {
	issuer := newTestIssuer(t)

	token, err := issuer.IssueAccess("user-123", "test@example.com")
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)

	expectedExpiry := time.Now().Add(DefaultAccessTTL)
	assert.Less(t, claims.ExpiresAt.Time.Sub(expectedExpiry).Abs(), 5*time.Second)
}

func TestVerify_Expired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := newTestIssuer(t).WithClock(func() time.Time { return now })

	token, err := issuer.Issue("user-123", Claims{Type: TokenTypeAccess}, time.Second)
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	require.NoError(t, err, "token should be valid immediately")

	later := issuer.WithClock(func() time.Time { return now.Add(2 * time.Second) })
	_, err = later.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_TamperedToken(t *testing.T) {
	issuer := newTestIssuer(t)

	token, err := issuer.IssueAccess("user-123", "test@example.com")
	require.NoError(t, err)

	tampered := token[:len(token)-5] + "XXXXX"

	_, err = issuer.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := newTestIssuer(t).IssueAccess("user-123", "test@example.com")
	require.NoError(t, err)

	other, err := NewIssuer("different-secret-key", 0, 0)
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_AlgorithmConfusionAttack(t *testing.T) {
	issuer := newTestIssuer(t)

	claims := Claims{
		Type: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "attacker",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	tokenString, _ := token.SignedString(jwt.UnsafeAllowNoneSignatureType) //nolint:errcheck // test code

	_, err := issuer.Verify(tokenString)
	assert.Error(t, err, "token with 'none' algorithm should be rejected")
}

func TestVerify_MissingExpiry(t *testing.T) {
	issuer := newTestIssuer(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Type:             TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-123"},
	})
	tokenString, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = issuer.Verify(tokenString)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestVerify_MalformedToken(t *testing.T) {
	issuer := newTestIssuer(t)

	malformedTokens := []string{
		"",
		"not.a.jwt",
		"only.two",
		"too.many.parts.in.this.token",
		"<script>alert('xss')</script>",
	}

	for _, token := range malformedTokens {
		_, err := issuer.Verify(token)
		assert.ErrorIs(t, err, ErrMalformedToken, "token %q", token)
	}
}

func TestVerifyType_Mismatch(t *testing.T) {
	issuer := newTestIssuer(t)

	access, err := issuer.IssueAccess("user-123", "test@example.com")
	require.NoError(t, err)

	reset, err := issuer.IssueReset("user-123", "hash")
	require.NoError(t, err)

	_, err = issuer.VerifyReset(access)
	assert.ErrorIs(t, err, ErrTokenTypeMismatch)

	_, err = issuer.VerifyAccess(reset)
	assert.ErrorIs(t, err, ErrTokenTypeMismatch)

	claims, err := issuer.VerifyReset(reset)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Less(t, time.Until(claims.ExpiresAt.Time), DefaultResetTTL+time.Second)
}

func TestReset_BoundToPasswordHash(t *testing.T) {
	issuer := newTestIssuer(t)

	reset, err := issuer.IssueReset("user-123", "$2a$10$before")
	require.NoError(t, err)

	claims, err := issuer.VerifyReset(reset)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.PasswordVersion)
	assert.True(t, issuer.MatchesPassword(claims, "$2a$10$before"))
	assert.False(t, issuer.MatchesPassword(claims, "$2a$10$after"))

	// another secret fingerprints the same hash differently
	other, err := NewIssuer("different-secret", 0, 0)
	require.NoError(t, err)
	assert.NotEqual(t, issuer.PasswordVersion("$2a$10$before"), other.PasswordVersion("$2a$10$before"))
}

func TestVerifyType_MissingType(t *testing.T) {
	issuer := newTestIssuer(t)

	token, err := issuer.Issue("user-123", Claims{}, time.Hour)
	require.NoError(t, err)

	_, err = issuer.VerifyReset(token)
	assert.ErrorIs(t, err, ErrTokenTypeMismatch)

	_, err = issuer.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrTokenTypeMismatch)
}

func TestIssue_UniqueTokenIDs(t *testing.T) {
	issuer := newTestIssuer(t)
	seen := map[string]bool{}

	for i := 0; i < 20; i++ {
		token, err := issuer.IssueAccess("user-123", "test@example.com")
		require.NoError(t, err)

		claims, err := issuer.Verify(token)
		require.NoError(t, err)

		assert.False(t, seen[claims.ID], "jti should be unique")
		seen[claims.ID] = true
	}
}
