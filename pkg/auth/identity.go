package auth

import "github.com/anvit/clubhub/pkg/policy"

// Identity exposes the acting user to the client-side components.
type Identity interface {
	CurrentUserID() string
	CurrentRole() policy.Role
}

// TokenIdentity is an Identity backed by validated token claims.
type TokenIdentity struct {
	claims *Claims
}

func NewTokenIdentity(claims *Claims) *TokenIdentity {
	return &TokenIdentity{claims: claims}
}

func (t *TokenIdentity) CurrentUserID() string { return t.claims.UserID }

func (t *TokenIdentity) CurrentRole() policy.Role { return policy.Normalize(t.claims.Role) }

// StaticIdentity is a fixed identity, used by tests and the system paths.
type StaticIdentity struct {
	ID   string
	Role policy.Role
}

func (s StaticIdentity) CurrentUserID() string { return s.ID }

func (s StaticIdentity) CurrentRole() policy.Role { return s.Role }
