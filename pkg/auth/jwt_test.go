package auth

import (
	"testing"

	"github.com/anvit/clubhub/pkg/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("alice", policy.RoleAdmin)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UserID)
	assert.Equal(t, policy.Actor{ID: "alice", Role: policy.RoleAdmin}, claims.Actor())
}

func TestValidateGarbage(t *testing.T) {
	_, err := ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestUnknownRoleNormalizesToMember(t *testing.T) {
	token, err := GenerateToken("bob", "superuser")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, policy.RoleMember, claims.Actor().Role)
}
