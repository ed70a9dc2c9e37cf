package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "taskmanager/pkg/domain"
	dErrors "taskmanager/pkg/domain-errors"
)

var userID = id.NewUserID()

func Test_GenerateToken_NoExpiryByDefault(t *testing.T) {
	svc := NewJWTService("test-signing-key")

	token, err := svc.GenerateToken(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Nil(t, claims.ExpiresAt)
	assert.NotEmpty(t, claims.ID)
}

func Test_GenerateToken_DistinctPerCall(t *testing.T) {
	svc := NewJWTService("test-signing-key")

	first, err := svc.GenerateToken(userID)
	require.NoError(t, err)
	second, err := svc.GenerateToken(userID)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func Test_GenerateToken_WithTTL(t *testing.T) {
	svc := NewJWTService("test-signing-key", WithTTL(time.Hour))

	token, err := svc.GenerateToken(userID)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	svc := NewJWTService("test-signing-key")
	_, err := svc.ValidateToken("invalid-token-string")
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_ValidateToken_WrongKey(t *testing.T) {
	token, err := NewJWTService("key-a").GenerateToken(userID)
	require.NoError(t, err)

	_, err = NewJWTService("key-b").ValidateToken(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	issuing := NewJWTService("test-signing-key", WithTTL(time.Hour), WithClock(func() time.Time { return past }))
	token, err := issuing.GenerateToken(userID)
	require.NoError(t, err)

	_, err = NewJWTService("test-signing-key").ValidateToken(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "token has expired"))
}

func Test_ValidateToken_RejectsNoneAlg(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String(), Issuer: issuer},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTService("test-signing-key").ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ExtractUserID(t *testing.T) {
	svc := NewJWTService("test-signing-key")
	token, err := svc.GenerateToken(userID)
	require.NoError(t, err)

	got, err := svc.ExtractUserID(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}
