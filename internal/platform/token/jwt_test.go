package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "schoolbus/pkg/domain-errors"
)

func TestJWTService(t *testing.T) {
	svc := NewJWTService("unit-test-signing-key")

	t.Run("round trip", func(t *testing.T) {
		raw, err := svc.Generate("dispatcher-1", "dispatcher", time.Hour)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(raw)
		require.NoError(t, err)
		assert.Equal(t, "dispatcher-1", claims.ActorID)
		assert.Equal(t, "dispatcher", claims.Role)
		assert.NotEmpty(t, claims.ID, "each token carries a unique jti")
	})

	t.Run("expired token", func(t *testing.T) {
		raw, err := svc.Generate("dispatcher-1", "dispatcher", -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(raw)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := NewJWTService("a-different-key")
		raw, err := other.Generate("dispatcher-1", "dispatcher", time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(raw)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("rejects non-HMAC algorithms", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{ActorID: "x"})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateToken(raw)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("rejects a token without an actor", func(t *testing.T) {
		anonymous := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			Role: "dispatcher",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		raw, err := anonymous.SignedString([]byte("unit-test-signing-key"))
		require.NoError(t, err)

		_, err = svc.ValidateToken(raw)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no actor")
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.jwt")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
