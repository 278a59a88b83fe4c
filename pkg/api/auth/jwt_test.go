package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewJWTService_ShortSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{Secret: "short"})
	assert.ErrorIs(t, err, ErrInvalidSecretLength)
}

func TestIssueAndValidate(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: testSecret})
	require.NoError(t, err)

	token, expiresAt, err := svc.IssueToken("admin")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, "dittoacl", claims.Issuer)
}

func TestIssueToken_EmptySubject(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: testSecret})
	require.NoError(t, err)

	_, _, err = svc.IssueToken("")
	assert.ErrorIs(t, err, ErrEmptySubject)
}

func TestValidateToken_Rejections(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: testSecret})
	require.NoError(t, err)

	other, err := NewJWTService(JWTConfig{Secret: testSecret + "x"})
	require.NoError(t, err)
	foreign, _, err := other.IssueToken("admin")
	require.NoError(t, err)

	wrongIssuer, err := NewJWTService(JWTConfig{Secret: testSecret, Issuer: "someone-else"})
	require.NoError(t, err)
	misissued, _, err := wrongIssuer.IssueToken("admin")
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "dittoacl",
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})
	expiredToken, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateToken(misissued)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateToken(expiredToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
