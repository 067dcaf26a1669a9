package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/optica/backend/internal/model"
	"github.com/optica/backend/internal/repository"
	apperrors "github.com/optica/backend/pkg/errors"
)

const userColumns = `id, email, nombre_completo, password_hash, nombre_esquema,
	roles, activo, created_at, updated_at`

// userRepository lives in the shared schema; every call goes through the
// gateway's system path, never the request's tenant binding.
type userRepository struct {
	gw *Gateway
}

func NewUserRepository(gw *Gateway) repository.UserRepository {
	return &userRepository{gw: gw}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	err := r.gw.System(ctx, func(q Querier) error {
		_, err := q.ExecContext(ctx, `
			INSERT INTO usuarios (`+userColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			user.ID,
			user.Email,
			user.FullName,
			user.PasswordHash,
			user.SchemaName,
			user.Roles,
			user.Active,
			user.CreatedAt,
			user.UpdatedAt,
		)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("a user with this email already exists", err)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.gw.System(ctx, func(q Querier) error {
		return q.GetContext(ctx, &user,
			`SELECT `+userColumns+` FROM usuarios WHERE id = $1`, id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.gw.System(ctx, func(q Querier) error {
		return q.GetContext(ctx, &user,
			`SELECT `+userColumns+` FROM usuarios WHERE LOWER(email) = LOWER($1)`, email)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()
	err := r.gw.System(ctx, func(q Querier) error {
		res, err := q.ExecContext(ctx, `
			UPDATE usuarios
			SET nombre_completo = $1, password_hash = $2, roles = $3, activo = $4, updated_at = $5
			WHERE id = $6`,
			user.FullName,
			user.PasswordHash,
			user.Roles,
			user.Active,
			user.UpdatedAt,
			user.ID,
		)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return apperrors.NotFound("user", nil)
		}
		return nil
	})
	if err != nil && !apperrors.IsNotFound(err) {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return err
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.gw.System(ctx, func(q Querier) error {
		res, err := q.ExecContext(ctx, `DELETE FROM usuarios WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return apperrors.NotFound("user", nil)
		}
		return nil
	})
	if err != nil && !apperrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return err
}

func (r *userRepository) List(ctx context.Context, schemaName string) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM usuarios ORDER BY created_at DESC`
	args := []interface{}{}
	if schemaName != "" {
		query = `SELECT ` + userColumns + ` FROM usuarios WHERE nombre_esquema = $1 ORDER BY created_at DESC`
		args = append(args, schemaName)
	}

	var users []*model.User
	err := r.gw.System(ctx, func(q Querier) error {
		return q.SelectContext(ctx, &users, query, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if users == nil {
		users = []*model.User{}
	}
	return users, nil
}
