package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/repository"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	_, rdb := newTestRedis(t)
	return NewAuthService(&fakeAdminRepo{}, repository.NewAdminSessionRepository(rdb), "test-secret", time.Hour)
}

func parseClaims(t *testing.T, svc *AuthService, token string) *AdminClaims {
	t.Helper()
	claims := &AdminClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return svc.Secret(), nil
	})
	require.NoError(t, err)
	return claims
}

func TestAuthService_LoginAndLogout(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	admin, err := svc.CreateAdmin(ctx, " Owner@Example.com ", "Owner", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", admin.Email)
	assert.NotEqual(t, "correct horse", admin.PasswordHash)

	token, err := svc.Login(ctx, "OWNER@example.com", "correct horse")
	require.NoError(t, err)

	claims := parseClaims(t, svc, token)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "Owner", claims.Name)
	assert.Equal(t, "1", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	require.NoError(t, svc.Authorize(ctx, claims))

	require.NoError(t, svc.Logout(ctx, claims))
	assert.ErrorIs(t, svc.Authorize(ctx, claims), ErrSessionRevoked)
}

func TestAuthService_LoginRejects(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()
	_, err := svc.CreateAdmin(ctx, "owner@example.com", "Owner", "correct horse")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "owner@example.com", "wrong horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Authorize(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	customer := &AdminClaims{Role: "customer", RegisteredClaims: jwt.RegisteredClaims{ID: "abc"}}
	assert.ErrorIs(t, svc.Authorize(ctx, customer), ErrForbidden)

	noSession := &AdminClaims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{ID: "abc"}}
	assert.ErrorIs(t, svc.Authorize(ctx, noSession), ErrSessionRevoked)

	noID := &AdminClaims{Role: "admin"}
	assert.ErrorIs(t, svc.Authorize(ctx, noID), ErrSessionRevoked)
}

func TestAuthService_WeakPassword(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.CreateAdmin(context.Background(), "owner@example.com", "Owner", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}
