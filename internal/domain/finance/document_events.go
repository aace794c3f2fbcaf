package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oneflow/backend/internal/domain/shared"
)

// Aggregate type names used on events
const (
	AggregateTypeDocument        = "Document"
	AggregateTypeExpense         = "Expense"
	AggregateTypeDocumentRequest = "DocumentRequest"
)

// Event type names
const (
	EventTypeDocumentCreated         = "DocumentCreated"
	EventTypeDocumentStatusChanged   = "DocumentStatusChanged"
	EventTypeDocumentRequestCreated  = "DocumentRequestCreated"
	EventTypeDocumentRequestResolved = "DocumentRequestResolved"
)

// DocumentCreatedEvent is raised when a new document is created
type DocumentCreatedEvent struct {
	shared.BaseDomainEvent
	DocumentID   uuid.UUID       `json:"document_id"`
	DocumentType DocumentType    `json:"document_type"`
	Number       string          `json:"number"`
	Counterpart  string          `json:"counterpart"`
	Project      string          `json:"project"`
	Total        decimal.Decimal `json:"total"`
}

// NewDocumentCreatedEvent creates a new DocumentCreatedEvent
func NewDocumentCreatedEvent(doc *Document) *DocumentCreatedEvent {
	return &DocumentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentCreated, AggregateTypeDocument, doc.ID),
		DocumentID:      doc.ID,
		DocumentType:    doc.Type,
		Number:          doc.Number,
		Counterpart:     doc.Counterpart,
		Project:         doc.Project,
		Total:           doc.Total,
	}
}

// DocumentStatusChangedEvent is raised when a document moves between states
type DocumentStatusChangedEvent struct {
	shared.BaseDomainEvent
	DocumentID   uuid.UUID      `json:"document_id"`
	DocumentType DocumentType   `json:"document_type"`
	Number       string         `json:"number"`
	FromStatus   DocumentStatus `json:"from_status"`
	ToStatus     DocumentStatus `json:"to_status"`
}

// NewDocumentStatusChangedEvent creates a new DocumentStatusChangedEvent
func NewDocumentStatusChangedEvent(doc *Document, from, to DocumentStatus) *DocumentStatusChangedEvent {
	return &DocumentStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentStatusChanged, AggregateTypeDocument, doc.ID),
		DocumentID:      doc.ID,
		DocumentType:    doc.Type,
		Number:          doc.Number,
		FromStatus:      from,
		ToStatus:        to,
	}
}

// DocumentRequestCreatedEvent is raised when a request is submitted
type DocumentRequestCreatedEvent struct {
	shared.BaseDomainEvent
	RequestID     uuid.UUID           `json:"request_id"`
	RequestNumber string              `json:"request_number"`
	RequestedBy   string              `json:"requested_by"`
	DocumentType  RequestDocumentType `json:"document_type"`
	Amount        decimal.Decimal     `json:"amount"`
}

// NewDocumentRequestCreatedEvent creates a new DocumentRequestCreatedEvent
func NewDocumentRequestCreatedEvent(req *DocumentRequest) *DocumentRequestCreatedEvent {
	return &DocumentRequestCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentRequestCreated, AggregateTypeDocumentRequest, req.ID),
		RequestID:       req.ID,
		RequestNumber:   req.RequestNumber,
		RequestedBy:     req.RequestedBy,
		DocumentType:    req.DocumentType,
		Amount:          req.Amount,
	}
}

// DocumentRequestResolvedEvent is raised when a request is approved or rejected
type DocumentRequestResolvedEvent struct {
	shared.BaseDomainEvent
	RequestID     uuid.UUID     `json:"request_id"`
	RequestNumber string        `json:"request_number"`
	Status        RequestStatus `json:"status"`
	ResolvedBy    string        `json:"resolved_by"`
	ResolvedAt    time.Time     `json:"resolved_at"`
	Reason        string        `json:"reason,omitempty"`
}

// NewDocumentRequestResolvedEvent creates a new DocumentRequestResolvedEvent
func NewDocumentRequestResolvedEvent(req *DocumentRequest, resolvedBy string, at time.Time) *DocumentRequestResolvedEvent {
	return &DocumentRequestResolvedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentRequestResolved, AggregateTypeDocumentRequest, req.ID),
		RequestID:       req.ID,
		RequestNumber:   req.RequestNumber,
		Status:          req.Status,
		ResolvedBy:      resolvedBy,
		ResolvedAt:      at,
		Reason:          req.RejectionReason,
	}
}
