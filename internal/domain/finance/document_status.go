package finance

import "strings"

// DocumentStatus is the lifecycle state of a document.
// Each DocumentType accepts only its own subset of values.
type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "Draft"
	DocumentStatusConfirmed DocumentStatus = "Confirmed"
	DocumentStatusDelivered DocumentStatus = "Delivered"
	DocumentStatusOrdered   DocumentStatus = "Ordered"
	DocumentStatusReceived  DocumentStatus = "Received"
	DocumentStatusSent      DocumentStatus = "Sent"
	DocumentStatusPending   DocumentStatus = "Pending"
	DocumentStatusPaid      DocumentStatus = "Paid"
)

// String returns the string representation of DocumentStatus
func (s DocumentStatus) String() string {
	return string(s)
}

// statusesByType holds each type's states in lifecycle order
var statusesByType = map[DocumentType][]DocumentStatus{
	DocumentTypeSalesOrder:    {DocumentStatusDraft, DocumentStatusConfirmed, DocumentStatusDelivered},
	DocumentTypePurchaseOrder: {DocumentStatusDraft, DocumentStatusOrdered, DocumentStatusReceived},
	DocumentTypeInvoice:       {DocumentStatusDraft, DocumentStatusSent, DocumentStatusPaid},
	DocumentTypeVendorBill:    {DocumentStatusDraft, DocumentStatusPending, DocumentStatusPaid},
}

// Statuses returns the type's states in lifecycle order
func (t DocumentType) Statuses() []DocumentStatus {
	states := statusesByType[t]
	out := make([]DocumentStatus, len(states))
	copy(out, states)
	return out
}

// AllowsStatus checks if s is a member of the type's status enum
func (t DocumentType) AllowsStatus(s DocumentStatus) bool {
	return t.statusRank(s) >= 0
}

// InitialStatus returns the state new documents start in
func (t DocumentType) InitialStatus() DocumentStatus {
	return DocumentStatusDraft
}

// ParseStatus matches raw case-insensitively against the type's enum
func (t DocumentType) ParseStatus(raw string) (DocumentStatus, bool) {
	raw = strings.TrimSpace(raw)
	for _, s := range statusesByType[t] {
		if strings.EqualFold(raw, string(s)) {
			return s, true
		}
	}
	return "", false
}

func (t DocumentType) statusRank(s DocumentStatus) int {
	for i, candidate := range statusesByType[t] {
		if candidate == s {
			return i
		}
	}
	return -1
}
