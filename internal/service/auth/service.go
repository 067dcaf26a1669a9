// Package auth issues and validates access tokens. The token carries
// the caller's schema claim so the tenant resolver can bind requests
// without a second lookup; refresh tokens are opaque values stored
// server-side and revocable.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/optica/backend/internal/config"
	"github.com/optica/backend/internal/model"
	"github.com/optica/backend/internal/repository"
	apperrors "github.com/optica/backend/pkg/errors"
)

// Claims is the signed token payload. SchemaName is the tenant claim
// the resolver reads.
type Claims struct {
	Email      string   `json:"email"`
	Name       string   `json:"name"`
	Roles      []string `json:"roles"`
	SchemaName string   `json:"schema_name"`
	jwt.RegisteredClaims
}

type Service struct {
	users      repository.UserRepository
	tokens     repository.TokenRepository
	secret     []byte
	expiry     time.Duration
	refreshTTL time.Duration
	logger     zerolog.Logger
}

func NewService(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	cfg config.JWTConfig,
	logger zerolog.Logger,
) *Service {
	return &Service{
		users:      users,
		tokens:     tokens,
		secret:     []byte(cfg.Secret),
		expiry:     time.Duration(cfg.ExpiryHours) * time.Hour,
		refreshTTL: time.Duration(cfg.RefreshExpiryHours) * time.Hour,
		logger:     logger.With().Str("component", "auth_service").Logger(),
	}
}

// Login verifies credentials and issues a token pair. Inactive accounts
// are rejected with the same message as bad credentials.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized("invalid credentials", err)
		}
		return nil, err
	}
	if !user.Active {
		return nil, apperrors.Unauthorized("invalid credentials", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.Unauthorized("invalid credentials", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user logged in")
	return s.issueTokens(ctx, user)
}

// Refresh rotates the refresh token and issues a new access token.
func (s *Service) Refresh(ctx context.Context, req *model.RefreshRequest) (*model.TokenResponse, error) {
	userID, err := s.tokens.LookupRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized("invalid or expired refresh token", err)
		}
		return nil, err
	}
	if !user.Active {
		return nil, apperrors.Unauthorized("account is disabled", nil)
	}
	if err := s.tokens.RevokeRefreshToken(ctx, req.RefreshToken); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

// Logout revokes the refresh token. Access tokens expire on their own.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.RevokeRefreshToken(ctx, refreshToken)
}

// ValidateToken parses and verifies an access token, returning the
// request principal.
func (s *Service) ValidateToken(tokenString string) (*model.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.Unauthorized("invalid or expired token", err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid token subject", err)
	}

	return &model.Principal{
		ID:         userID,
		Email:      claims.Email,
		Name:       claims.Name,
		Roles:      claims.Roles,
		SchemaName: claims.SchemaName,
	}, nil
}

func (s *Service) issueTokens(ctx context.Context, user *model.User) (*model.TokenResponse, error) {
	expiresAt := time.Now().Add(s.expiry)
	claims := &Claims{
		Email:      user.Email,
		Name:       user.FullName,
		Roles:      user.Roles,
		SchemaName: user.SchemaName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	refreshToken, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}
	if err := s.tokens.StoreRefreshToken(ctx, refreshToken, user.ID, s.refreshTTL); err != nil {
		return nil, err
	}

	return &model.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		User:         user,
	}, nil
}

func generateRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashPassword is the single bcrypt entry point so cost stays uniform.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
