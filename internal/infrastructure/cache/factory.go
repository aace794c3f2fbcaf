package cache

import (
	"context"

	"go.uber.org/zap"

	"github.com/oneflow/backend/internal/domain/shared"
	"github.com/oneflow/backend/internal/infrastructure/config"
)

// NewIdempotencyStore returns a Redis store when Redis is enabled and
// reachable. An unreachable Redis falls back to process memory with a warning.
func NewIdempotencyStore(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) shared.IdempotencyStore {
	if !cfg.Enabled {
		logger.Info("using in-memory idempotency store")
		return NewInMemoryIdempotencyStore()
	}

	store, err := NewRedisIdempotencyStore(ctx, RedisOptions{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory idempotency store; "+
			"duplicate imports are only detected per instance",
			zap.String("addr", cfg.Addr()),
			zap.Error(err),
		)
		return NewInMemoryIdempotencyStore()
	}

	logger.Info("using Redis idempotency store", zap.String("addr", cfg.Addr()))
	return store
}
