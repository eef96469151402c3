package security_test

import (
	"context"
	"testing"
	"time"

	"github.com/Gogfather/thegogfather.com/internal/auth/adapter/security"
	"github.com/Gogfather/thegogfather.com/internal/auth/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, ttl time.Duration) *security.JWTokenService {
	t.Helper()
	svc, err := security.NewJWTokenService(&config.Config{
		JWTSecretKey:   "test-secret-key-for-signing",
		JWTIssuer:      "thegogfather-auth",
		AccessTokenTTL: ttl,
	})
	require.NoError(t, err)
	return svc
}

func TestNewJWTokenService_RequiresSecret(t *testing.T) {
	_, err := security.NewJWTokenService(&config.Config{
		JWTIssuer:      "thegogfather-auth",
		AccessTokenTTL: time.Minute,
	})
	assert.Error(t, err)
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestService(t, 15*time.Minute)
	ctx := context.Background()

	token, err := svc.GenerateToken(ctx, "u1", "don@thegogfather.com", false)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "don@thegogfather.com", claims.Email)
	assert.False(t, claims.Anonymous)
	assert.Equal(t, "thegogfather-auth", claims.Issuer)
	assert.Equal(t, "u1", claims.Subject)
}

func TestGenerateToken_AnonymousClaim(t *testing.T) {
	svc := newTestService(t, 15*time.Minute)
	ctx := context.Background()

	token, err := svc.GenerateToken(ctx, "anon-1", "", true)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.True(t, claims.Anonymous)
	assert.Empty(t, claims.Email)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newTestService(t, 1*time.Nanosecond)
	ctx := context.Background()

	token, err := svc.GenerateToken(ctx, "u1", "don@thegogfather.com", false)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, security.ErrTokenExpired)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	svc := newTestService(t, 15*time.Minute)
	other, err := security.NewJWTokenService(&config.Config{
		JWTSecretKey:   "a-different-secret-entirely",
		JWTIssuer:      "thegogfather-auth",
		AccessTokenTTL: 15 * time.Minute,
	})
	require.NoError(t, err)

	token, err := other.GenerateToken(context.Background(), "u1", "", false)
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, security.ErrTokenSignatureInvalid)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := newTestService(t, 15*time.Minute)

	_, err := svc.ValidateToken(context.Background(), "not.a.jwt")
	assert.ErrorIs(t, err, security.ErrTokenInvalid)

	_, err = svc.ValidateToken(context.Background(), "")
	assert.ErrorIs(t, err, security.ErrTokenInvalid)
}
