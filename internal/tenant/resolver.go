package tenant

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/optica/backend/internal/model"
)

// Resolver derives the effective schema for a request from the
// authenticated principal's claims, honoring an explicit override for
// Root principals. Resolution never blocks request completion: an
// authenticated principal without a usable claim falls back to the
// default schema with a logged warning.
type Resolver struct {
	defaultSchema string
	logger        zerolog.Logger
}

func NewResolver(defaultSchema string, logger zerolog.Logger) *Resolver {
	if defaultSchema == "" {
		defaultSchema = DefaultSchema
	}
	return &Resolver{
		defaultSchema: defaultSchema,
		logger:        logger.With().Str("component", "tenant_resolver").Logger(),
	}
}

// Resolve produces the effective schema for the request.
func (r *Resolver) Resolve(p *model.Principal, override string) string {
	if p == nil {
		return r.defaultSchema
	}

	if override = strings.TrimSpace(override); override != "" && p.IsRoot() {
		return override
	}

	if claim := strings.TrimSpace(p.SchemaName); claim != "" {
		return claim
	}

	r.logger.Warn().
		Str("user_id", p.ID.String()).
		Str("email", p.Email).
		Msg("authenticated principal has no schema claim, using default schema")
	return r.defaultSchema
}

// Capabilities is the authorization decision set for a principal,
// consolidating role checks that would otherwise be scattered across
// handlers.
type Capabilities struct {
	IsRoot            bool
	IsAdmin           bool
	CanOverrideTenant bool
	CanManageUsers    bool
}

func Caps(p *model.Principal) Capabilities {
	if p == nil {
		return Capabilities{}
	}
	isRoot := p.IsRoot()
	isAdmin := p.IsAdmin()
	return Capabilities{
		IsRoot:            isRoot,
		IsAdmin:           isAdmin,
		CanOverrideTenant: isRoot,
		CanManageUsers:    isRoot || isAdmin,
	}
}

// TargetSchema decides which schema a user-management operation applies
// to: Root may address any requested schema, everyone else is bound to
// their own.
func (r *Resolver) TargetSchema(caps Capabilities, requested, own string) string {
	if caps.IsRoot {
		if requested = strings.TrimSpace(requested); requested != "" {
			return requested
		}
		return r.defaultSchema
	}
	return own
}
