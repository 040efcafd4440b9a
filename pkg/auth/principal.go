// Package auth carries the authenticated principal through request contexts
// and adapts the external token issuer's JWTs into principals.
package auth

import (
	"context"
	"slices"
	"strings"
)

const (
	RoleUser     = "user"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

var Roles = []string{RoleUser, RoleProvider, RoleAdmin}

// Principal is an already verified identity and its role.
type Principal struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) HasRole(roles ...string) bool {
	return slices.Contains(roles, p.Role)
}

// NormalizeRole maps issuer role names onto ours. Unknown roles are returned
// empty so callers reject them.
func NormalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleUser, "client", "requester":
		return RoleUser
	case RoleProvider, "therapist":
		return RoleProvider
	case RoleAdmin:
		return RoleAdmin
	default:
		return ""
	}
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
