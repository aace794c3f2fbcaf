package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oneflow/backend/internal/domain/shared"
)

// Document is the aggregate root shared by sales orders, purchase orders,
// invoices and vendor bills. Type is the tag; Counterpart is the customer or
// vendor and RelevantDate the delivery or due date depending on it.
//
// Subtotal, Tax and Total are derived from Items and are rewritten by every
// item mutation. Number is a display label and is not unique.
type Document struct {
	shared.BaseAggregateRoot
	Type         DocumentType
	Number       string
	Counterpart  string
	Project      string
	Items        []LineItem
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
	RelevantDate *time.Time
	Status       DocumentStatus
	Notes        string
}

// NewDocument creates a new document in its initial status
func NewDocument(docType DocumentType, number, counterpart, project string) (*Document, error) {
	if !docType.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_TYPE", fmt.Sprintf("Unknown document type: %s", docType))
	}
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Document number cannot be empty")
	}
	if err := validateHeader(docType, counterpart, project); err != nil {
		return nil, err
	}

	doc := &Document{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Type:              docType,
		Number:            strings.TrimSpace(number),
		Counterpart:       strings.TrimSpace(counterpart),
		Project:           strings.TrimSpace(project),
		Items:             make([]LineItem, 0),
		Status:            docType.InitialStatus(),
	}
	doc.Recalculate()

	doc.AddDomainEvent(NewDocumentCreatedEvent(doc))
	return doc, nil
}

func validateHeader(docType DocumentType, counterpart, project string) error {
	if strings.TrimSpace(counterpart) == "" {
		if docType.CounterpartIsCustomer() {
			return shared.NewDomainError("INVALID_CUSTOMER", "Customer cannot be empty")
		}
		return shared.NewDomainError("INVALID_VENDOR", "Vendor cannot be empty")
	}
	if strings.TrimSpace(project) == "" {
		return shared.NewDomainError("INVALID_PROJECT", "Project cannot be empty")
	}
	return nil
}

// UpdateHeader replaces counterpart, project, relevant date and notes
func (d *Document) UpdateHeader(counterpart, project string, relevantDate *time.Time, notes string) error {
	if err := validateHeader(d.Type, counterpart, project); err != nil {
		return err
	}
	d.Counterpart = strings.TrimSpace(counterpart)
	d.Project = strings.TrimSpace(project)
	d.RelevantDate = relevantDate
	d.Notes = notes
	d.Touch(time.Now())
	return nil
}

// AddItem appends a line item and recomputes totals
func (d *Document) AddItem(item LineItem) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	d.Items = append(d.Items, item)
	d.Recalculate()
	d.Touch(time.Now())
}

// ReplaceItems swaps the whole item list and recomputes totals
func (d *Document) ReplaceItems(items []LineItem) {
	d.Items = make([]LineItem, 0, len(items))
	for _, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		d.Items = append(d.Items, item)
	}
	d.Recalculate()
	d.Touch(time.Now())
}

// UpdateItem changes the pricing inputs of one line
func (d *Document) UpdateItem(itemID uuid.UUID, quantity, unitPrice, taxRatePercent decimal.Decimal) error {
	for i := range d.Items {
		if d.Items[i].ID == itemID {
			d.Items[i].Update(quantity, unitPrice, taxRatePercent)
			d.Recalculate()
			d.Touch(time.Now())
			return nil
		}
	}
	return shared.NewDomainError("ITEM_NOT_FOUND", "Line item not found")
}

// RemoveItem deletes one line
func (d *Document) RemoveItem(itemID uuid.UUID) error {
	for i := range d.Items {
		if d.Items[i].ID == itemID {
			d.Items = append(d.Items[:i], d.Items[i+1:]...)
			d.Recalculate()
			d.Touch(time.Now())
			return nil
		}
	}
	return shared.NewDomainError("ITEM_NOT_FOUND", "Line item not found")
}

// Recalculate rewrites every line amount and the document totals
func (d *Document) Recalculate() {
	for i := range d.Items {
		d.Items[i].Recalculate()
	}
	totals := ComputeDocumentTotals(d.Items)
	d.Subtotal = totals.Subtotal
	d.Tax = totals.Tax
	d.Total = totals.Total
}

// Totals returns the current aggregates
func (d *Document) Totals() Totals {
	return Totals{Subtotal: d.Subtotal, Tax: d.Tax, Total: d.Total}
}

// ChangeStatus is the only way a document's status moves.
// The new status must belong to the document type; the policy then decides
// whether the move is allowed. Totals are not touched.
func (d *Document) ChangeStatus(to DocumentStatus, policy TransitionPolicy) error {
	if !d.Type.AllowsStatus(to) {
		return shared.NewDomainError(shared.ErrInvalidStatus.Code,
			fmt.Sprintf("%q is not a valid status for %s", to, d.Type.DisplayName()))
	}
	if policy == nil {
		policy = PermissiveTransitions{}
	}
	if err := policy.Allow(d.Type, d.Status, to); err != nil {
		return err
	}
	if d.Status == to {
		return nil
	}

	from := d.Status
	d.Status = to
	d.Touch(time.Now())

	d.AddDomainEvent(NewDocumentStatusChangedEvent(d, from, to))
	return nil
}

// CreatedDate returns the creation date
func (d *Document) CreatedDate() time.Time {
	return d.CreatedAt
}

// Clone returns a deep copy without pending domain events
func (d *Document) Clone() *Document {
	c := *d
	c.Items = make([]LineItem, len(d.Items))
	copy(c.Items, d.Items)
	if d.RelevantDate != nil {
		rd := *d.RelevantDate
		c.RelevantDate = &rd
	}
	c.ClearDomainEvents()
	return &c
}
