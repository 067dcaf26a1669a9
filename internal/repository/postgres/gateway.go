package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/optica/backend/internal/tenant"
	apperrors "github.com/optica/backend/pkg/errors"
)

// Querier is the narrow surface repositories run their SQL against.
// Both *sqlx.Conn and *sqlx.Tx satisfy it, so the same repository code
// serves single reads and capture transactions.
type Querier interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
}

var schemaNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

const (
	schemaCacheTTL     = 15 * time.Minute
	schemaCacheCleanup = 1 * time.Hour
)

// Gateway rewrites every data operation to target the schema named in
// the request's tenant binding, immediately before dispatch. Repositories
// never reference schemas themselves; they receive a Querier whose
// search_path is already set.
type Gateway struct {
	db            *sqlx.DB
	defaultSchema string
	schemas       *cache.Cache
	logger        zerolog.Logger
}

func NewGateway(db *sqlx.DB, defaultSchema string, logger zerolog.Logger) *Gateway {
	if defaultSchema == "" {
		defaultSchema = tenant.DefaultSchema
	}
	return &Gateway{
		db:            db,
		defaultSchema: defaultSchema,
		schemas:       cache.New(schemaCacheTTL, schemaCacheCleanup),
		logger:        logger.With().Str("component", "gateway").Logger(),
	}
}

// DB exposes the underlying handle for health checks and shutdown.
func (g *Gateway) DB() *sqlx.DB {
	return g.db
}

// Read runs fn on a connection bound to the request's schema.
func (g *Gateway) Read(ctx context.Context, fn func(q Querier) error) error {
	schema, err := g.activeSchema(ctx)
	if err != nil {
		return err
	}
	return g.onSchema(ctx, schema, fn)
}

// Transact runs fn inside a transaction bound to the request's schema.
// Any error rolls back the whole unit; no partial writes survive.
func (g *Gateway) Transact(ctx context.Context, fn func(q Querier) error) error {
	schema, err := g.activeSchema(ctx)
	if err != nil {
		return err
	}

	tx, err := g.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// SET LOCAL scopes the search_path to this transaction; commit or
	// rollback restores the session default.
	if _, err := tx.ExecContext(ctx, "SET LOCAL search_path TO "+pq.QuoteIdentifier(schema)+", public"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to set search_path: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			g.logger.Error().Err(rbErr).Str("schema", schema).Msg("rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// System runs fn against the shared default schema regardless of the
// request binding. Used for the user and tenant registries; cross-tenant
// access stays an explicit, separate path.
func (g *Gateway) System(ctx context.Context, fn func(q Querier) error) error {
	return g.onSchema(ctx, g.defaultSchema, fn)
}

func (g *Gateway) onSchema(ctx context.Context, schema string, fn func(q Querier) error) error {
	conn, err := g.db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SET search_path TO "+pq.QuoteIdentifier(schema)+", public"); err != nil {
		return fmt.Errorf("failed to set search_path: %w", err)
	}

	return fn(conn)
}

// activeSchema validates the bound schema and verifies it exists before
// any statement is dispatched, so a bad override or claim fails the
// request cleanly instead of writing into the wrong partition.
func (g *Gateway) activeSchema(ctx context.Context) (string, error) {
	schema := tenant.Schema(ctx)

	if !schemaNamePattern.MatchString(schema) {
		return "", apperrors.BadRequest("invalid tenant schema name", nil)
	}
	if schema == g.defaultSchema {
		return schema, nil
	}

	if _, found := g.schemas.Get(schema); found {
		return schema, nil
	}

	var exists bool
	err := g.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)`, schema)
	if err != nil {
		return "", fmt.Errorf("failed to check schema %s: %w", schema, err)
	}
	if !exists {
		return "", apperrors.NotFound(fmt.Sprintf("tenant schema %q", schema), nil)
	}

	g.schemas.Set(schema, true, cache.DefaultExpiration)
	return schema, nil
}

// isForeignKeyViolation detects blocked deletes and broken references so
// they surface as client-visible conflicts rather than raw driver errors.
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
