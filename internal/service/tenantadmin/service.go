// Package tenantadmin manages the tenant registry. Everything here is
// Root-only: listing every tenant is the one sanctioned cross-tenant
// read, and provisioning creates a new schema partition.
package tenantadmin

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/optica/backend/internal/model"
	"github.com/optica/backend/internal/repository"
	"github.com/optica/backend/internal/tenant"
	apperrors "github.com/optica/backend/pkg/errors"
)

type Service struct {
	tenants repository.TenantRepository
	logger  zerolog.Logger
}

func NewService(tenants repository.TenantRepository, logger zerolog.Logger) *Service {
	return &Service{
		tenants: tenants,
		logger:  logger.With().Str("component", "tenant_service").Logger(),
	}
}

func (s *Service) List(ctx context.Context, actor *model.Principal) ([]*model.Tenant, error) {
	if !tenant.Caps(actor).IsRoot {
		return nil, apperrors.Forbidden("only Root may list tenants", nil)
	}
	return s.tenants.List(ctx)
}

func (s *Service) Get(ctx context.Context, actor *model.Principal, schemaName string) (*model.Tenant, error) {
	if !tenant.Caps(actor).IsRoot {
		return nil, apperrors.Forbidden("only Root may inspect tenants", nil)
	}
	return s.tenants.Get(ctx, schemaName)
}

func (s *Service) Create(ctx context.Context, actor *model.Principal, req *model.CreateTenantRequest) (*model.Tenant, error) {
	if !tenant.Caps(actor).IsRoot {
		return nil, apperrors.Forbidden("only Root may provision tenants", nil)
	}

	schemaName := strings.TrimSpace(strings.ToLower(req.SchemaName))
	displayName := strings.TrimSpace(req.DisplayName)
	if schemaName == "" || displayName == "" {
		return nil, apperrors.BadRequest("schema_name and display_name are required", nil)
	}
	if schemaName == tenant.DefaultSchema {
		return nil, apperrors.BadRequest("the default schema is not a provisionable tenant", nil)
	}

	t := &model.Tenant{
		SchemaName:  schemaName,
		DisplayName: displayName,
		Active:      true,
	}
	if err := s.tenants.Create(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info().Str("schema", schemaName).Msg("tenant provisioned")
	return t, nil
}
