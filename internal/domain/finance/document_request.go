package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oneflow/backend/internal/domain/shared"
)

// RequestDocumentType is the kind of document being asked for
type RequestDocumentType string

const (
	RequestDocumentTypeInvoice       RequestDocumentType = "Invoice"
	RequestDocumentTypePurchaseOrder RequestDocumentType = "PurchaseOrder"
	RequestDocumentTypeReceipt       RequestDocumentType = "Receipt"
)

// IsValid checks if the type is a valid RequestDocumentType
func (t RequestDocumentType) IsValid() bool {
	switch t {
	case RequestDocumentTypeInvoice, RequestDocumentTypePurchaseOrder, RequestDocumentTypeReceipt:
		return true
	}
	return false
}

// String returns the string representation of RequestDocumentType
func (t RequestDocumentType) String() string {
	return string(t)
}

// Slug returns the path segment used in download references
func (t RequestDocumentType) Slug() string {
	switch t {
	case RequestDocumentTypeInvoice:
		return "invoice"
	case RequestDocumentTypePurchaseOrder:
		return "purchase-order"
	case RequestDocumentTypeReceipt:
		return "receipt"
	default:
		return strings.ToLower(string(t))
	}
}

// ParseRequestDocumentType matches raw loosely ("purchase_order", "purchase order", ...)
func ParseRequestDocumentType(raw string) (RequestDocumentType, bool) {
	key := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(raw)))
	for _, t := range []RequestDocumentType{RequestDocumentTypeInvoice, RequestDocumentTypePurchaseOrder, RequestDocumentTypeReceipt} {
		if key == strings.ToLower(string(t)) {
			return t, true
		}
	}
	return "", false
}

// RequestStatus represents the state of a document request
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "Pending"
	RequestStatusApproved RequestStatus = "Approved"
	RequestStatusRejected RequestStatus = "Rejected"
)

// IsValid checks if the status is a valid RequestStatus
func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of RequestStatus
func (s RequestStatus) String() string {
	return string(s)
}

// IsTerminal returns true once the request has been resolved
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected
}

// DocumentRequest is an ad-hoc ask for a financial document that an approver
// must sign off before it can be downloaded.
type DocumentRequest struct {
	shared.BaseAggregateRoot
	RequestNumber   string
	RequestedBy     string
	DocumentType    RequestDocumentType
	Project         string
	Amount          decimal.Decimal
	Description     string
	RequestDate     time.Time
	Status          RequestStatus
	ApprovedBy      string
	ApprovalDate    *time.Time
	RejectionReason string
	DownloadRef     string
}

// NewDocumentRequest creates a new request in Pending
func NewDocumentRequest(
	requestNumber, requestedBy string,
	docType RequestDocumentType,
	project string,
	amount decimal.Decimal,
	description string,
	now time.Time,
) (*DocumentRequest, error) {
	if strings.TrimSpace(requestNumber) == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Request number cannot be empty")
	}
	if strings.TrimSpace(requestedBy) == "" {
		return nil, shared.NewDomainError("INVALID_REQUESTER", "Requester cannot be empty")
	}
	if !docType.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_TYPE", fmt.Sprintf("Unknown document type: %s", docType))
	}
	if strings.TrimSpace(project) == "" {
		return nil, shared.NewDomainError("INVALID_PROJECT", "Project cannot be empty")
	}
	if strings.TrimSpace(description) == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot be empty")
	}

	req := &DocumentRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		RequestNumber:     strings.TrimSpace(requestNumber),
		RequestedBy:       strings.TrimSpace(requestedBy),
		DocumentType:      docType,
		Project:           strings.TrimSpace(project),
		Amount:            Round2(NormalizeNonNegative(amount)),
		Description:       strings.TrimSpace(description),
		RequestDate:       now,
		Status:            RequestStatusPending,
	}

	req.AddDomainEvent(NewDocumentRequestCreatedEvent(req))
	return req, nil
}

// DownloadRefFor returns the storage key of the produced document
func DownloadRefFor(docType RequestDocumentType, requestNumber string) string {
	return fmt.Sprintf("documents/%s/%s.pdf", docType.Slug(), requestNumber)
}

// Approve resolves the request as Approved.
// Only approver roles may call it and only while the request is Pending.
func (r *DocumentRequest) Approve(actor Actor, now time.Time) error {
	if err := r.checkResolvable(actor); err != nil {
		return err
	}

	r.Status = RequestStatusApproved
	r.ApprovedBy = actor.Username
	r.ApprovalDate = &now
	r.DownloadRef = DownloadRefFor(r.DocumentType, r.RequestNumber)
	r.Touch(now)

	r.AddDomainEvent(NewDocumentRequestResolvedEvent(r, actor.Username, now))
	return nil
}

// Reject resolves the request as Rejected with a reason
func (r *DocumentRequest) Reject(actor Actor, reason string, now time.Time) error {
	if err := r.checkResolvable(actor); err != nil {
		return err
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("INVALID_REASON", "Rejection reason cannot be empty")
	}

	r.Status = RequestStatusRejected
	r.RejectionReason = strings.TrimSpace(reason)
	r.Touch(now)

	r.AddDomainEvent(NewDocumentRequestResolvedEvent(r, actor.Username, now))
	return nil
}

func (r *DocumentRequest) checkResolvable(actor Actor) error {
	if !actor.IsApprover() {
		return shared.NewDomainError(shared.ErrForbidden.Code, "Only admins and project managers can resolve document requests")
	}
	if r.Status != RequestStatusPending {
		return shared.NewDomainError(shared.ErrInvalidState.Code,
			fmt.Sprintf("Request %s is already %s", r.RequestNumber, r.Status))
	}
	return nil
}

// VisibleTo reports whether the actor may see this request.
// Approvers see every request; everyone else only their own.
func (r *DocumentRequest) VisibleTo(actor Actor) bool {
	return actor.IsApprover() || r.RequestedBy == actor.Username
}

// CanDownload reports whether the actor may fetch the produced document
func (r *DocumentRequest) CanDownload(actor Actor) bool {
	return r.Status == RequestStatusApproved && r.DownloadRef != "" && r.VisibleTo(actor)
}

// Clone returns a copy without pending domain events
func (r *DocumentRequest) Clone() *DocumentRequest {
	c := *r
	if r.ApprovalDate != nil {
		at := *r.ApprovalDate
		c.ApprovalDate = &at
	}
	c.ClearDomainEvents()
	return &c
}
