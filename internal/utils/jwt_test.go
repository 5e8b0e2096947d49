package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	s := NewJWTService("secret", time.Hour)
	userID := uuid.New()

	token, err := s.GenerateToken(userID, "admin")
	require.NoError(t, err)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	id, err := s.ExtractUserID(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), id)
}

func TestJWTService_Expired(t *testing.T) {
	s := NewJWTService("secret", time.Hour)
	issued := time.Now().Add(-2 * time.Hour)
	s.now = func() time.Time { return issued }

	token, err := s.GenerateToken(uuid.New(), "user")
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_WrongSecret(t *testing.T) {
	token, err := NewJWTService("one", time.Hour).GenerateToken(uuid.New(), "user")
	require.NoError(t, err)

	_, err = NewJWTService("two", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{UserID: uuid.New().String(), Role: "admin"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewJWTService("secret", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
