package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-signing-key"

func signToken(t *testing.T, secret string, mutate func(*Claims)) string {
	t.Helper()
	claims := &Claims{
		Email: "dreamer@example.com",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	if mutate != nil {
		mutate(claims)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateToken_AcceptsValidToken(t *testing.T) {
	// Arrange
	validator, err := NewValidator(testSecret)
	require.NoError(t, err)
	signed := signToken(t, testSecret, nil)

	// Act
	claims, err := validator.ValidateToken(signed)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID())
	assert.Equal(t, "dreamer@example.com", claims.Email)
}

func TestValidateToken_StripsBearerPrefix(t *testing.T) {
	// Arrange
	validator, err := NewValidator(testSecret)
	require.NoError(t, err)
	signed := signToken(t, testSecret, nil)

	// Act
	claims, err := validator.ValidateToken("Bearer " + signed)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID())
}

func TestValidateToken_RejectsExpiredToken(t *testing.T) {
	// Arrange
	validator, err := NewValidator(testSecret)
	require.NoError(t, err)
	signed := signToken(t, testSecret, func(c *Claims) {
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	})

	// Act
	_, err = validator.ValidateToken(signed)

	// Assert
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_RejectsWrongSecret(t *testing.T) {
	// Arrange
	validator, err := NewValidator(testSecret)
	require.NoError(t, err)
	signed := signToken(t, "a-different-secret", nil)

	// Act
	_, err = validator.ValidateToken(signed)

	// Assert
	require.Error(t, err)
}

func TestValidateToken_RejectsWrongAudience(t *testing.T) {
	// Arrange
	validator, err := NewValidator(testSecret)
	require.NoError(t, err)
	signed := signToken(t, testSecret, func(c *Claims) {
		c.Audience = jwt.ClaimStrings{"anon"}
	})

	// Act
	_, err = validator.ValidateToken(signed)

	// Assert
	require.Error(t, err)
}

func TestValidateToken_RejectsMissingSubject(t *testing.T) {
	// Arrange
	validator, err := NewValidator(testSecret)
	require.NoError(t, err)
	signed := signToken(t, testSecret, func(c *Claims) {
		c.Subject = ""
	})

	// Act
	_, err = validator.ValidateToken(signed)

	// Assert
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestValidateToken_RejectsEmptyToken(t *testing.T) {
	// Arrange
	validator, err := NewValidator(testSecret)
	require.NoError(t, err)

	// Act
	_, err = validator.ValidateToken("")

	// Assert
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestNewValidator_RequiresSecret(t *testing.T) {
	// Act
	_, err := NewValidator("")

	// Assert
	require.Error(t, err)
}

func TestUserContext_RoundTrip(t *testing.T) {
	// Arrange
	user := &UserContext{UserID: "user-123", Email: "dreamer@example.com", Role: "authenticated"}

	// Act
	ctx := SetUserInContext(context.Background(), user)
	got, err := GetUserFromContext(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestGetUserFromContext_MissingUser(t *testing.T) {
	// Act
	_, err := GetUserFromContext(context.Background())

	// Assert
	require.Error(t, err)
}
