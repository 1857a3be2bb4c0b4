package authUtils

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("user-1", "secret", time.Hour)
	require.NoError(t, err)

	userID, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestParseTokenRejects(t *testing.T) {
	token, err := GenerateToken("user-1", "secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := GenerateToken("user-1", "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(expired, "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = ParseToken(noUser, "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken("garbage", "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = GenerateToken("user-1", "", time.Hour)
	assert.Error(t, err)
}
