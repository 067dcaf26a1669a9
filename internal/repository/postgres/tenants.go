package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/optica/backend/internal/model"
	"github.com/optica/backend/internal/repository"
	apperrors "github.com/optica/backend/pkg/errors"
)

// tenantDDL is the table set every tenant schema carries; identical
// structure in every partition.
//
//go:embed schema/tenant.sql
var tenantDDL string

// tenantRepository manages the registry in the shared schema and
// provisions new tenant schemas. Listing every tenant is the explicit
// cross-tenant path reserved for Root.
type tenantRepository struct {
	gw *Gateway
}

func NewTenantRepository(gw *Gateway) repository.TenantRepository {
	return &tenantRepository{gw: gw}
}

func (r *tenantRepository) List(ctx context.Context) ([]*model.Tenant, error) {
	var tenants []*model.Tenant
	err := r.gw.System(ctx, func(q Querier) error {
		return q.SelectContext(ctx, &tenants, `
			SELECT schema_name, display_name, activo, created_at
			FROM tenants
			ORDER BY created_at`)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	if tenants == nil {
		tenants = []*model.Tenant{}
	}
	return tenants, nil
}

func (r *tenantRepository) Get(ctx context.Context, schemaName string) (*model.Tenant, error) {
	var t model.Tenant
	err := r.gw.System(ctx, func(q Querier) error {
		return q.GetContext(ctx, &t, `
			SELECT schema_name, display_name, activo, created_at
			FROM tenants
			WHERE schema_name = $1`, schemaName)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("tenant", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &t, nil
}

// Create provisions the schema, lays down the per-tenant tables and
// registers the tenant, all in one transaction.
func (r *tenantRepository) Create(ctx context.Context, t *model.Tenant) error {
	if !schemaNamePattern.MatchString(t.SchemaName) {
		return apperrors.BadRequest("invalid tenant schema name", nil)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	tx, err := r.gw.DB().BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	quoted := pq.QuoteIdentifier(t.SchemaName)
	steps := []string{
		"CREATE SCHEMA IF NOT EXISTS " + quoted,
		"SET LOCAL search_path TO " + quoted + ", public",
		tenantDDL,
	}
	for _, stmt := range steps {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to provision tenant schema: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO public.tenants (schema_name, display_name, activo, created_at)
		VALUES ($1, $2, $3, $4)`,
		t.SchemaName, t.DisplayName, t.Active, t.CreatedAt,
	); err != nil {
		_ = tx.Rollback()
		if isUniqueViolation(err) {
			return apperrors.Conflict("a tenant with this schema name already exists", err)
		}
		return fmt.Errorf("failed to register tenant: %w", err)
	}

	return tx.Commit()
}
