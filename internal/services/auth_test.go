package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RoundTrip(t *testing.T) {
	auth := NewAuthService("test-secret")

	token, err := auth.GenerateJWT("user-1", "user1@example.com")
	require.NoError(t, err)

	identity, err := auth.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, "user1@example.com", identity.Email)
}

func TestAuthService_RejectsBadTokens(t *testing.T) {
	auth := NewAuthService("test-secret")

	sign := func(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}

	otherSecret, err := NewAuthService("other-secret").GenerateJWT("user-1", "")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{name: "garbage", token: func(t *testing.T) string { return "not-a-jwt" }},
		{name: "wrong secret", token: func(t *testing.T) string { return otherSecret }},
		{name: "expired", token: func(t *testing.T) string {
			return sign(t, jwt.SigningMethodHS256, []byte("test-secret"), jwt.MapClaims{
				"user_id": "user-1",
				"exp":     time.Now().Add(-time.Hour).Unix(),
			})
		}},
		{name: "missing user id", token: func(t *testing.T) string {
			return sign(t, jwt.SigningMethodHS256, []byte("test-secret"), jwt.MapClaims{
				"exp": time.Now().Add(time.Hour).Unix(),
			})
		}},
		{name: "unsigned", token: func(t *testing.T) string {
			return sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{
				"user_id": "user-1",
			})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := auth.ValidateJWT(tt.token(t))
			assert.Nil(t, identity)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
