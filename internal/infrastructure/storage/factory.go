package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	financeapp "github.com/oneflow/backend/internal/application/finance"
	"github.com/oneflow/backend/internal/infrastructure/config"
)

// New returns the object storage selected by cfg.Provider
func New(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (financeapp.ObjectStorage, error) {
	switch cfg.Provider {
	case "", "stub":
		logger.Info("using stub object storage", zap.String("base_url", cfg.StubBaseURL))
		return NewStubObjectStorage(cfg.StubBaseURL), nil
	case "s3":
		s, err := NewS3ObjectStorage(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		logger.Info("using S3 object storage", zap.String("bucket", s.Bucket()))
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.Provider)
	}
}
