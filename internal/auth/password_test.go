package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, VerifyPassword("correct horse", hash))
	assert.False(t, VerifyPassword("Correct horse", hash))
}

func TestHashPassword_Salted(t *testing.T) {
	a, err := HashPassword("same")
	require.NoError(t, err)

	b, err := HashPassword("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = HashPassword(strings.Repeat("a", 72))
	assert.NoError(t, err)
}

func TestVerifyPassword_BadHash(t *testing.T) {
	assert.False(t, VerifyPassword("anything", ""))
	assert.False(t, VerifyPassword("anything", "not-a-bcrypt-hash"))
}
