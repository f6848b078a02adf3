package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(
		"test-secret-key-for-testing-purposes",
		15*time.Minute,
		7*24*time.Hour,
	)
}

func TestJWTService_GenerateAccessToken(t *testing.T) {
	service := newTestJWTService()

	token, expiresAt, err := service.GenerateAccessToken("user-123", "test@example.com", "customer")

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))
	assert.True(t, expiresAt.Before(time.Now().Add(16*time.Minute)))
}

func TestJWTService_ValidateAccessToken_RoundTrip(t *testing.T) {
	service := newTestJWTService()

	token, _, err := service.GenerateAccessToken("user-456", "test@example.com", "admin")
	require.NoError(t, err)

	claims, err := service.ValidateAccessToken(token)

	require.NoError(t, err)
	assert.Equal(t, "user-456", claims.UserID)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "user-456", claims.Subject)
}

func TestJWTService_ValidateAccessToken_Expired(t *testing.T) {
	service := NewJWTService("test-secret", 1*time.Millisecond, 7*24*time.Hour)

	token, _, err := service.GenerateAccessToken("user-123", "test@example.com", "customer")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	claims, err := service.ValidateAccessToken(token)

	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestJWTService_ValidateAccessToken_Invalid(t *testing.T) {
	service := newTestJWTService()

	for _, token := range []string{"", "not-a-valid-token", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature"} {
		claims, err := service.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Nil(t, claims)
	}
}

func TestJWTService_ValidateAccessToken_WrongSecret(t *testing.T) {
	service1 := NewJWTService("secret-key-1", 15*time.Minute, 7*24*time.Hour)
	service2 := NewJWTService("secret-key-2", 15*time.Minute, 7*24*time.Hour)

	token, _, err := service1.GenerateAccessToken("user-123", "test@example.com", "customer")
	require.NoError(t, err)

	claims, err := service2.ValidateAccessToken(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestJWTService_ValidateAccessToken_RejectsNoneAlgorithm(t *testing.T) {
	service := newTestJWTService()

	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID: "user-123",
		Email:  "test@example.com",
		Role:   "customer",
	})
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	claims, err := service.ValidateAccessToken(tokenString)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestJWTService_RefreshToken_RoundTrip(t *testing.T) {
	service := newTestJWTService()

	token, expiresAt, err := service.GenerateRefreshToken("user-789")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))
	assert.True(t, expiresAt.Before(time.Now().Add(8*24*time.Hour)))

	userID, err := service.ValidateRefreshToken(token)

	require.NoError(t, err)
	assert.Equal(t, "user-789", userID)
}

func TestJWTService_ValidateRefreshToken_Expired(t *testing.T) {
	service := NewJWTService("test-secret", 15*time.Minute, 1*time.Millisecond)

	token, _, err := service.GenerateRefreshToken("user-123")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	userID, err := service.ValidateRefreshToken(token)

	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Empty(t, userID)
}

func TestJWTService_ValidateRefreshToken_WrongSecret(t *testing.T) {
	service1 := NewJWTService("secret-key-1", 15*time.Minute, 7*24*time.Hour)
	service2 := NewJWTService("secret-key-2", 15*time.Minute, 7*24*time.Hour)

	token, _, err := service1.GenerateRefreshToken("user-123")
	require.NoError(t, err)

	userID, err := service2.ValidateRefreshToken(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Empty(t, userID)
}

func TestJWTService_GetExpiry(t *testing.T) {
	service := NewJWTService("secret", 30*time.Minute, 14*24*time.Hour)

	assert.Equal(t, 30*time.Minute, service.GetAccessTokenExpiry())
	assert.Equal(t, 14*24*time.Hour, service.GetRefreshTokenExpiry())
}
