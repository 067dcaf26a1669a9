package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/optica/backend/internal/config"
	"github.com/optica/backend/internal/repository"
	apperrors "github.com/optica/backend/pkg/errors"
)

const refreshPrefix = "refresh:"

// tokenRepository keeps refresh tokens in Redis keyed by the opaque
// token value. Tokens expire on their own through the key TTL, so a
// lost revoke is never permanent.
type tokenRepository struct {
	client *redis.Client
}

func NewTokenRepository(cfg config.RedisConfig) (repository.TokenRepository, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &tokenRepository{client: client}, nil
}

func NewTokenRepositoryWithClient(client *redis.Client) repository.TokenRepository {
	return &tokenRepository{client: client}
}

func (r *tokenRepository) StoreRefreshToken(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	if err := r.client.Set(ctx, refreshPrefix+token, userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (r *tokenRepository) LookupRefreshToken(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := r.client.Get(ctx, refreshPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, apperrors.Unauthorized("invalid or expired refresh token", err)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt refresh token entry: %w", err)
	}
	return id, nil
}

func (r *tokenRepository) RevokeRefreshToken(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, refreshPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}
