// Package user implements staff-account management. Accounts live in
// the shared schema; which tenant an operation addresses is decided by
// the caller's capabilities, never by the raw request alone.
package user

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/optica/backend/internal/model"
	"github.com/optica/backend/internal/repository"
	"github.com/optica/backend/internal/service/auth"
	"github.com/optica/backend/internal/tenant"
	apperrors "github.com/optica/backend/pkg/errors"
)

type Service struct {
	users    repository.UserRepository
	tenants  repository.TenantRepository
	resolver *tenant.Resolver
	logger   zerolog.Logger
}

func NewService(
	users repository.UserRepository,
	tenants repository.TenantRepository,
	resolver *tenant.Resolver,
	logger zerolog.Logger,
) *Service {
	return &Service{
		users:    users,
		tenants:  tenants,
		resolver: resolver,
		logger:   logger.With().Str("component", "user_service").Logger(),
	}
}

// Create provisions a staff account. Root may place the account in any
// registered tenant schema; Admins always create within their own.
func (s *Service) Create(ctx context.Context, actor *model.Principal, req *model.CreateUserRequest) (*model.User, error) {
	caps := tenant.Caps(actor)
	if !caps.CanManageUsers {
		return nil, apperrors.Forbidden("not allowed to manage users", nil)
	}
	if !caps.IsRoot {
		for _, role := range req.Roles {
			if role == model.RoleRoot {
				return nil, apperrors.Forbidden("only Root may grant the Root role", nil)
			}
		}
	}

	schemaName := s.resolver.TargetSchema(caps, req.SchemaName, actor.SchemaName)
	if schemaName != tenant.DefaultSchema {
		if _, err := s.tenants.Get(ctx, schemaName); err != nil {
			if apperrors.IsNotFound(err) {
				return nil, apperrors.BadRequest("unknown tenant schema", err)
			}
			return nil, err
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	roles := req.Roles
	if len(roles) == 0 {
		roles = []string{model.RoleOperator}
	}

	user := &model.User{
		ID:           uuid.New(),
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: hash,
		SchemaName:   schemaName,
		Roles:        roles,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("user_id", user.ID.String()).
		Str("schema", schemaName).
		Msg("user created")
	return user, nil
}

func (s *Service) Get(ctx context.Context, actor *model.Principal, id uuid.UUID) (*model.User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) Update(ctx context.Context, actor *model.Principal, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, user); err != nil {
		return nil, err
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if req.Roles != nil {
		if !tenant.Caps(actor).IsRoot {
			for _, role := range req.Roles {
				if role == model.RoleRoot {
					return nil, apperrors.Forbidden("only Root may grant the Root role", nil)
				}
			}
		}
		user.Roles = req.Roles
	}
	if req.Active != nil {
		user.Active = *req.Active
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) Delete(ctx context.Context, actor *model.Principal, id uuid.UUID) error {
	if actor != nil && actor.ID == id {
		return apperrors.BadRequest("cannot delete your own account", nil)
	}
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(actor, user); err != nil {
		return err
	}
	return s.users.Delete(ctx, id)
}

// List returns accounts visible to the actor: Root sees any requested
// schema (or all when none is requested), Admins see their own.
func (s *Service) List(ctx context.Context, actor *model.Principal, requestedSchema string) ([]*model.User, error) {
	caps := tenant.Caps(actor)
	if !caps.CanManageUsers {
		return nil, apperrors.Forbidden("not allowed to manage users", nil)
	}
	if caps.IsRoot {
		return s.users.List(ctx, requestedSchema)
	}
	return s.users.List(ctx, actor.SchemaName)
}

// authorize checks that the actor may act on the target account: Root
// always, Admin within their own schema only.
func (s *Service) authorize(actor *model.Principal, target *model.User) error {
	caps := tenant.Caps(actor)
	if caps.IsRoot {
		return nil
	}
	if caps.IsAdmin && actor.SchemaName == target.SchemaName {
		return nil
	}
	return apperrors.Forbidden("not allowed to manage this user", nil)
}
