package utils

import (
	"testing"
	"time"

	"community_forum/internal/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withSecret(t *testing.T, secret string, expire int64) {
	old := config.GlobalConfig.JWT
	config.GlobalConfig.JWT = config.JWTConfig{Secret: secret, Expire: expire}
	t.Cleanup(func() { config.GlobalConfig.JWT = old })
}

func TestGenerateAndParseToken(t *testing.T) {
	withSecret(t, "unit-test-secret-0123456789abcdef", 2)

	token, expire, err := GenerateToken("alice")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), *expire, time.Minute)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UserID)
	assert.Equal(t, "community-forum", claims.Issuer)
}

func TestParseTokenRejects(t *testing.T) {
	withSecret(t, "unit-test-secret-0123456789abcdef", 1)

	t.Run("wrong secret", func(t *testing.T) {
		token, _, err := GenerateToken("alice")
		require.NoError(t, err)
		config.GlobalConfig.JWT.Secret = "another-secret-0123456789abcdef00"
		_, err = ParseToken(token)
		assert.Error(t, err)
		config.GlobalConfig.JWT.Secret = "unit-test-secret-0123456789abcdef"
	})

	t.Run("expired", func(t *testing.T) {
		claims := Claims{
			UserID: "alice",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.GlobalConfig.JWT.Secret))
		require.NoError(t, err)
		_, err = ParseToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("unsigned", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "alice"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = ParseToken(token)
		assert.Error(t, err)
	})
}
