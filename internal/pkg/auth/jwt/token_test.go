package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestVerifyRoundtrip(t *testing.T) {
	token, err := GenerateToken(Identity{UID: "u1", Role: RoleAdmin}, testSecret, time.Hour)
	require.NoError(t, err)

	v := NewHMACVerifier(testSecret)
	identity, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.UID)
	assert.Equal(t, RoleAdmin, identity.Role)
}

func TestVerifyExpiredToken(t *testing.T) {
	token, err := GenerateToken(Identity{UID: "u1", Role: RoleUser}, testSecret, -time.Minute)
	require.NoError(t, err)

	v := NewHMACVerifier(testSecret)
	_, err = v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyWrongSecret(t *testing.T) {
	token, err := GenerateToken(Identity{UID: "u1", Role: RoleUser}, "other-secret", time.Hour)
	require.NoError(t, err)

	v := NewHMACVerifier(testSecret)
	_, err = v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyGarbage(t *testing.T) {
	v := NewHMACVerifier(testSecret)
	_, err := v.Verify(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyNormalizesUnknownRole(t *testing.T) {
	token, err := GenerateToken(Identity{UID: "u1", Role: Role("superuser")}, testSecret, time.Hour)
	require.NoError(t, err)

	v := NewHMACVerifier(testSecret)
	identity, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, RoleUser, identity.Role)
}

func TestVerifyRoleCaseInsensitive(t *testing.T) {
	token, err := GenerateToken(Identity{UID: "u1", Role: Role("Admin")}, testSecret, time.Hour)
	require.NoError(t, err)

	v := NewHMACVerifier(testSecret)
	identity, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, identity.Role)
}

func TestVerifyMissingUID(t *testing.T) {
	token, err := GenerateToken(Identity{Role: RoleUser}, testSecret, time.Hour)
	require.NoError(t, err)

	v := NewHMACVerifier(testSecret)
	_, err = v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalid)
}
