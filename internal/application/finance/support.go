package finance

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oneflow/backend/internal/domain/finance"
	"github.com/oneflow/backend/internal/domain/shared"
)

// reportUnknownProject logs a reference to a project the directory does not know.
// The write still goes through; the integrity report lists it later.
func reportUnknownProject(ctx context.Context, projects finance.ProjectDirectory, logger *zap.Logger, family string, id uuid.UUID, project string) {
	ok, err := projects.Exists(ctx, project)
	if err != nil {
		logger.Warn("project lookup failed", zap.String("project", project), zap.Error(err))
		return
	}
	if !ok {
		logger.Warn("record references unknown project",
			zap.String("family", family),
			zap.String("record_id", id.String()),
			zap.String("project", project),
		)
	}
}

// publishEvents hands events to the publisher after the write has committed.
// Publishing failures are logged, not returned.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, events []shared.DomainEvent) {
	if len(events) == 0 || publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Error("failed to publish domain events", zap.Int("count", len(events)), zap.Error(err))
	}
}

// checkVersion rejects a write that does not name the stored version.
// A missing version is a validation error, never a blind overwrite.
func checkVersion(stored, requested int) error {
	if requested < 1 {
		return shared.NewDomainError(shared.ErrValidation.Code, "version is required")
	}
	if requested != stored {
		return shared.ErrConcurrencyConflict
	}
	return nil
}
