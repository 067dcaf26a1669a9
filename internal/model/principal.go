package model

import (
	"context"

	"github.com/google/uuid"
)

// Principal is the authenticated caller's identity for one request,
// materialized once from a signed token and immutable afterwards.
type Principal struct {
	ID         uuid.UUID
	Email      string
	Name       string
	Roles      []string
	SchemaName string
}

func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (p *Principal) IsRoot() bool  { return p.HasRole(RoleRoot) }
func (p *Principal) IsAdmin() bool { return p.HasRole(RoleAdmin) }

type principalKey struct{}

// WithPrincipal attaches the authenticated principal to the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the request principal, or nil for
// anonymous requests.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
