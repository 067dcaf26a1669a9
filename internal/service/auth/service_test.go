package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optica/backend/internal/config"
	"github.com/optica/backend/internal/model"
	apperrors "github.com/optica/backend/pkg/errors"
)

type fakeUserRepo struct {
	byEmail map[string]*model.User
	byID    map[uuid.UUID]*model.User
}

func (f *fakeUserRepo) Create(context.Context, *model.User) error { return nil }
func (f *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, apperrors.NotFound("user", nil)
}
func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, apperrors.NotFound("user", nil)
}
func (f *fakeUserRepo) Update(context.Context, *model.User) error { return nil }
func (f *fakeUserRepo) Delete(context.Context, uuid.UUID) error   { return nil }
func (f *fakeUserRepo) List(context.Context, string) ([]*model.User, error) {
	return nil, nil
}

type fakeTokenRepo struct {
	tokens map[string]uuid.UUID
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]uuid.UUID)}
}

func (f *fakeTokenRepo) StoreRefreshToken(_ context.Context, token string, userID uuid.UUID, _ time.Duration) error {
	f.tokens[token] = userID
	return nil
}
func (f *fakeTokenRepo) LookupRefreshToken(_ context.Context, token string) (uuid.UUID, error) {
	if id, ok := f.tokens[token]; ok {
		return id, nil
	}
	return uuid.Nil, apperrors.Unauthorized("invalid or expired refresh token", nil)
}
func (f *fakeTokenRepo) RevokeRefreshToken(_ context.Context, token string) error {
	delete(f.tokens, token)
	return nil
}

func newTestAuth(t *testing.T) (*Service, *model.User, *fakeTokenRepo) {
	t.Helper()

	hash, err := HashPassword("s3creto-fuerte")
	require.NoError(t, err)

	user := &model.User{
		ID:           uuid.New(),
		Email:        "root@optica.test",
		FullName:     "Root",
		PasswordHash: hash,
		SchemaName:   "optica_centro",
		Roles:        []string{model.RoleRoot},
		Active:       true,
	}
	users := &fakeUserRepo{
		byEmail: map[string]*model.User{user.Email: user},
		byID:    map[uuid.UUID]*model.User{user.ID: user},
	}
	tokens := newFakeTokenRepo()
	svc := NewService(users, tokens, config.JWTConfig{
		Secret:             "test-secret",
		ExpiryHours:        1,
		RefreshExpiryHours: 24,
	}, zerolog.Nop())
	return svc, user, tokens
}

func TestLoginAndValidateRoundtrip(t *testing.T) {
	svc, user, _ := newTestAuth(t)

	resp, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    user.Email,
		Password: "s3creto-fuerte",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)

	principal, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.ID)
	assert.Equal(t, user.Email, principal.Email)
	assert.Equal(t, "optica_centro", principal.SchemaName)
	assert.True(t, principal.IsRoot())
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, user, _ := newTestAuth(t)

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    user.Email,
		Password: "wrong",
	})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrUnauthorized, appErr.Code)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	svc, user, _ := newTestAuth(t)
	user.Active = false

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    user.Email,
		Password: "s3creto-fuerte",
	})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrUnauthorized, appErr.Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, user, tokens := newTestAuth(t)

	resp, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    user.Email,
		Password: "s3creto-fuerte",
	})
	require.NoError(t, err)

	renewed, err := svc.Refresh(context.Background(), &model.RefreshRequest{
		RefreshToken: resp.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, resp.RefreshToken, renewed.RefreshToken)

	// The old refresh token is burned.
	_, revoked := tokens.tokens[resp.RefreshToken]
	assert.False(t, revoked)
	_, err = svc.Refresh(context.Background(), &model.RefreshRequest{
		RefreshToken: resp.RefreshToken,
	})
	assert.Error(t, err)
}

func TestValidateTokenRejectsForgedToken(t *testing.T) {
	svc, user, _ := newTestAuth(t)

	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)

	// A token signed with another secret must not validate.
	resp, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    user.Email,
		Password: "s3creto-fuerte",
	})
	require.NoError(t, err)

	other := NewService(&fakeUserRepo{}, newFakeTokenRepo(), config.JWTConfig{
		Secret:      "different-secret",
		ExpiryHours: 1,
	}, zerolog.Nop())
	_, err = other.ValidateToken(resp.AccessToken)
	assert.Error(t, err)
}
