package finance

import (
	"context"

	"go.uber.org/zap"

	"github.com/oneflow/backend/internal/domain/finance"
	"github.com/oneflow/backend/internal/domain/shared"
)

// AuditLogHandler writes one structured log line per finance domain event
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates a handler logging under the "audit" name
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("audit")}
}

// EventTypes implements shared.EventHandler
func (h *AuditLogHandler) EventTypes() []string {
	return []string{
		finance.EventTypeDocumentCreated,
		finance.EventTypeDocumentStatusChanged,
		finance.EventTypeDocumentRequestCreated,
		finance.EventTypeDocumentRequestResolved,
	}
}

// Handle implements shared.EventHandler
func (h *AuditLogHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case *finance.DocumentCreatedEvent:
		fields = append(fields,
			zap.String("document_type", string(e.DocumentType)),
			zap.String("number", e.Number),
			zap.String("project", e.Project),
		)
	case *finance.DocumentStatusChangedEvent:
		fields = append(fields,
			zap.String("document_type", string(e.DocumentType)),
			zap.String("number", e.Number),
			zap.String("from", string(e.FromStatus)),
			zap.String("to", string(e.ToStatus)),
		)
	case *finance.DocumentRequestCreatedEvent:
		fields = append(fields,
			zap.String("request_number", e.RequestNumber),
			zap.String("requested_by", e.RequestedBy),
			zap.String("amount", e.Amount.StringFixed(2)),
		)
	case *finance.DocumentRequestResolvedEvent:
		fields = append(fields,
			zap.String("request_number", e.RequestNumber),
			zap.String("status", string(e.Status)),
			zap.String("resolved_by", e.ResolvedBy),
		)
		if e.Reason != "" {
			fields = append(fields, zap.String("reason", e.Reason))
		}
	}

	h.logger.Info("finance event", fields...)
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
