package security

import (
	"Purng/internal/api/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	InitJWT(config.JWTConfig{Secret: "test-secret", Issuer: "purng-auth"})

	token, err := GenerateToken(&UserClaims{UserID: 9, Email: "a@example.com", Name: "Ada Lovelace", Roles: []string{"ADMIN"}}, time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), claims.UserID)
	assert.Equal(t, "Ada Lovelace", claims.Name)
	assert.Equal(t, []string{"ADMIN"}, claims.Roles)
}

func TestValidateTokenRejects(t *testing.T) {
	InitJWT(config.JWTConfig{Secret: "test-secret"})
	expired, err := GenerateToken(&UserClaims{UserID: 9}, -time.Minute)
	require.NoError(t, err)
	anonymous, err := GenerateToken(&UserClaims{}, time.Minute)
	require.NoError(t, err)

	InitJWT(config.JWTConfig{Secret: "other-secret"})
	foreign, err := GenerateToken(&UserClaims{UserID: 9}, time.Minute)
	require.NoError(t, err)
	InitJWT(config.JWTConfig{Secret: "test-secret"})

	for name, token := range map[string]string{
		"expired": expired,
		"no user": anonymous,
		"foreign": foreign,
		"garbage": "not.a.token",
		"empty":   "",
	} {
		_, err := ValidateToken(token)
		assert.Error(t, err, name)
	}
}
