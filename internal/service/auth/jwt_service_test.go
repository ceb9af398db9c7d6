package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkpress/inkpress-api/internal/config"
	"github.com/inkpress/inkpress-api/internal/service"
	"github.com/inkpress/inkpress-api/internal/service/auth"
)

func newTestService(t *testing.T, expiryMinutes int) *auth.JWTService {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	return auth.NewJWTService(config.AuthConfig{
		JWTSecret:          "0123456789abcdef0123456789abcdef",
		AdminPasswordHash:  string(hash),
		TokenExpiryMinutes: expiryMinutes,
	})
}

func TestJWTService_LoginAndValidate(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, 60)

	token, err := svc.Login("correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestJWTService_LoginWrongPassword(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, 60)

	_, err := svc.Login("battery staple")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestJWTService_ValidateGarbageToken(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, 60)

	_, err := svc.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWTService_ValidateExpiredToken(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, -1)

	token, err := svc.GenerateToken()
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestJWTService_RejectsForeignSignature(t *testing.T) {
	t.Parallel()

	issuer := newTestService(t, 60)
	token, err := issuer.GenerateToken()
	require.NoError(t, err)

	verifier := auth.NewJWTService(config.AuthConfig{
		JWTSecret:          "ffffffffffffffffffffffffffffffff",
		AdminPasswordHash:  "unused",
		TokenExpiryMinutes: 60,
	})

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
