package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewJWTServiceRejectsShortSecret(t *testing.T) {
	_, err := NewJWTService(Config{Secret: "short"})
	assert.ErrorIs(t, err, ErrInvalidSecretLength)
}

func TestGenerateAndValidate(t *testing.T) {
	svc, err := NewJWTService(Config{Secret: testSecret})
	require.NoError(t, err)

	tok, err := svc.GenerateToken("cli")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.ExpiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "cli", claims.Subject)
	assert.Equal(t, "artifactguard", claims.Issuer)
}

func TestValidateRejectsForeignTokens(t *testing.T) {
	svc, err := NewJWTService(Config{Secret: testSecret})
	require.NoError(t, err)

	t.Run("WrongSecret", func(t *testing.T) {
		other, err := NewJWTService(Config{Secret: "ffffffffffffffffffffffffffffffff"})
		require.NoError(t, err)
		tok, err := other.GenerateToken("cli")
		require.NoError(t, err)

		_, err = svc.ValidateToken(tok.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		other, err := NewJWTService(Config{Secret: testSecret, Issuer: "someone-else"})
		require.NoError(t, err)
		tok, err := other.GenerateToken("cli")
		require.NoError(t, err)

		_, err = svc.ValidateToken(tok.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "artifactguard",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = svc.ValidateToken(signed)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
