package finance

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oneflow/backend/internal/domain/finance"
)

// Number is a decimal that accepts JSON numbers or numeric strings.
// Text that does not parse, and negative values, read as 0.
type Number struct {
	decimal.Decimal
}

// NewNumber wraps d
func NewNumber(d decimal.Decimal) Number {
	return Number{Decimal: d}
}

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		n.Decimal = decimal.Zero
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	n.Decimal = finance.ParseNumber(s)
	return nil
}

// ==================== Line items ====================

// LineItemInput is one line of a create, update or calculate request
type LineItemInput struct {
	Product        string `json:"product" validate:"required,max=200"`
	Description    string `json:"description" validate:"max=500"`
	Quantity       Number `json:"quantity"`
	Unit           string `json:"unit" validate:"max=20"`
	UnitPrice      Number `json:"unit_price"`
	TaxRatePercent Number `json:"tax_rate_percent"`
}

// CalculateRequest previews totals for unsaved items
type CalculateRequest struct {
	Items []LineItemInput `json:"items"`
}

// LineItemResponse represents a line item in API responses
type LineItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	Product        string          `json:"product"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	TaxRatePercent decimal.Decimal `json:"tax_rate_percent"`
	Amount         decimal.Decimal `json:"amount"`
}

// TotalsResponse is the result of a totals preview
type TotalsResponse struct {
	Items    []LineItemResponse `json:"items"`
	Subtotal decimal.Decimal    `json:"subtotal"`
	Tax      decimal.Decimal    `json:"tax"`
	Total    decimal.Decimal    `json:"total"`
}

// ==================== Documents ====================

// CreateDocumentRequest creates a sales order, purchase order, invoice or vendor bill.
// Number is generated when empty; Status defaults to Draft.
type CreateDocumentRequest struct {
	Number       string          `json:"number" validate:"max=50"`
	Counterpart  string          `json:"counterpart" validate:"required,max=200"`
	Project      string          `json:"project" validate:"required,max=200"`
	RelevantDate *time.Time      `json:"relevant_date"`
	Status       string          `json:"status"`
	Notes        string          `json:"notes"`
	Items        []LineItemInput `json:"items" validate:"dive"`
}

// UpdateDocumentRequest replaces the header and, when Items is non-nil, the items.
// Version must match the stored version.
type UpdateDocumentRequest struct {
	Version      int              `json:"version" validate:"required,min=1"`
	Counterpart  string           `json:"counterpart" validate:"required,max=200"`
	Project      string           `json:"project" validate:"required,max=200"`
	RelevantDate *time.Time       `json:"relevant_date"`
	Notes        string           `json:"notes"`
	Items        *[]LineItemInput `json:"items" validate:"omitempty,dive"`
}

// ChangeStatusRequest moves a document to another state of its lifecycle
type ChangeStatusRequest struct {
	Status  string `json:"status" validate:"required"`
	Version int    `json:"version" validate:"required,min=1"`
}

// DocumentListFilter narrows a document listing
type DocumentListFilter struct {
	Status   string `form:"status"`
	Project  string `form:"project"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// DocumentResponse represents a document in API responses
type DocumentResponse struct {
	ID              uuid.UUID          `json:"id"`
	Type            string             `json:"type"`
	Number          string             `json:"number"`
	Counterpart     string             `json:"counterpart"`
	CounterpartRole string             `json:"counterpart_role"`
	Project         string             `json:"project"`
	Items           []LineItemResponse `json:"items"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	Tax             decimal.Decimal    `json:"tax"`
	Total           decimal.Decimal    `json:"total"`
	RelevantDate    *time.Time         `json:"relevant_date,omitempty"`
	Status          string             `json:"status"`
	Statuses        []string           `json:"statuses"`
	Notes           string             `json:"notes"`
	CreatedDate     time.Time          `json:"created_date"`
	UpdatedAt       time.Time          `json:"updated_at"`
	Version         int                `json:"version"`
}

// ==================== Expenses ====================

// ExpenseRequest creates or updates an expense.
// Version is ignored on create and required on update.
type ExpenseRequest struct {
	Version       int        `json:"version" validate:"min=0"`
	Title         string     `json:"title" validate:"required,max=200"`
	Amount        Number     `json:"amount"`
	Date          *time.Time `json:"date"`
	Category      string     `json:"category"`
	Project       string     `json:"project" validate:"required,max=200"`
	Vendor        string     `json:"vendor" validate:"max=200"`
	PaymentMethod string     `json:"payment_method" validate:"max=50"`
	Notes         string     `json:"notes"`
}

// ExpenseListFilter narrows an expense listing
type ExpenseListFilter struct {
	Category string `form:"category"`
	Project  string `form:"project"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID            uuid.UUID       `json:"id"`
	Title         string          `json:"title"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	Category      string          `json:"category"`
	Project       string          `json:"project"`
	Vendor        string          `json:"vendor"`
	PaymentMethod string          `json:"payment_method"`
	Notes         string          `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
	Version       int             `json:"version"`
}

// ==================== Document requests ====================

// CreateDocumentRequestInput asks for a document to be produced
type CreateDocumentRequestInput struct {
	DocumentType string `json:"document_type" validate:"required"`
	Project      string `json:"project" validate:"required,max=200"`
	Amount       Number `json:"amount"`
	Description  string `json:"description" validate:"required"`
}

// RejectDocumentRequestInput carries the rejection reason
type RejectDocumentRequestInput struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// RequestListFilter narrows a request listing
type RequestListFilter struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// DocumentRequestResponse represents a document request in API responses
type DocumentRequestResponse struct {
	ID              uuid.UUID       `json:"id"`
	RequestNumber   string          `json:"request_number"`
	RequestedBy     string          `json:"requested_by"`
	DocumentType    string          `json:"document_type"`
	Project         string          `json:"project"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	RequestDate     time.Time       `json:"request_date"`
	Status          string          `json:"status"`
	ApprovedBy      string          `json:"approved_by,omitempty"`
	ApprovalDate    *time.Time      `json:"approval_date,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	DownloadRef     string          `json:"download_ref,omitempty"`
	Version         int             `json:"version"`
}

// DownloadResponse is a time-limited link to an approved request's document
type DownloadResponse struct {
	URL       string    `json:"url"`
	Ref       string    `json:"ref"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ==================== Import ====================

// ImportResult summarizes a committed import
type ImportResult struct {
	Family   string      `json:"family"`
	Imported int         `json:"imported"`
	IDs      []uuid.UUID `json:"ids"`
}

// IntegrityReport lists records pointing at unknown projects
type IntegrityReport struct {
	Checked  int                 `json:"checked"`
	Dangling []DanglingReference `json:"dangling"`
}

// DanglingReference is one record whose project is unknown
type DanglingReference struct {
	Family   string `json:"family"`
	RecordID string `json:"record_id"`
	Number   string `json:"number"`
	Project  string `json:"project"`
}

// ==================== Converters ====================

// ToLineItemResponse converts a domain line item
func ToLineItemResponse(item finance.LineItem) LineItemResponse {
	return LineItemResponse{
		ID:             item.ID,
		Product:        item.Product,
		Description:    item.Description,
		Quantity:       item.Quantity,
		Unit:           item.Unit,
		UnitPrice:      item.UnitPrice,
		TaxRatePercent: item.TaxRatePercent,
		Amount:         item.Amount,
	}
}

// ToDocumentResponse converts a domain document
func ToDocumentResponse(doc *finance.Document) DocumentResponse {
	items := make([]LineItemResponse, len(doc.Items))
	for i, item := range doc.Items {
		items[i] = ToLineItemResponse(item)
	}
	statuses := doc.Type.Statuses()
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	role := "vendor"
	if doc.Type.CounterpartIsCustomer() {
		role = "customer"
	}
	return DocumentResponse{
		ID:              doc.ID,
		Type:            string(doc.Type),
		Number:          doc.Number,
		Counterpart:     doc.Counterpart,
		CounterpartRole: role,
		Project:         doc.Project,
		Items:           items,
		Subtotal:        doc.Subtotal,
		Tax:             doc.Tax,
		Total:           doc.Total,
		RelevantDate:    doc.RelevantDate,
		Status:          string(doc.Status),
		Statuses:        names,
		Notes:           doc.Notes,
		CreatedDate:     doc.CreatedDate(),
		UpdatedAt:       doc.UpdatedAt,
		Version:         doc.Version,
	}
}

// ToExpenseResponse converts a domain expense
func ToExpenseResponse(e *finance.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:            e.ID,
		Title:         e.Title,
		Amount:        e.Amount,
		Date:          e.Date,
		Category:      string(e.Category),
		Project:       e.Project,
		Vendor:        e.Vendor,
		PaymentMethod: e.PaymentMethod,
		Notes:         e.Notes,
		CreatedAt:     e.CreatedAt,
		Version:       e.Version,
	}
}

// ToDocumentRequestResponse converts a domain document request
func ToDocumentRequestResponse(r *finance.DocumentRequest) DocumentRequestResponse {
	return DocumentRequestResponse{
		ID:              r.ID,
		RequestNumber:   r.RequestNumber,
		RequestedBy:     r.RequestedBy,
		DocumentType:    string(r.DocumentType),
		Project:         r.Project,
		Amount:          r.Amount,
		Description:     r.Description,
		RequestDate:     r.RequestDate,
		Status:          string(r.Status),
		ApprovedBy:      r.ApprovedBy,
		ApprovalDate:    r.ApprovalDate,
		RejectionReason: r.RejectionReason,
		DownloadRef:     r.DownloadRef,
		Version:         r.Version,
	}
}

func (in LineItemInput) toDomain() (finance.LineItem, error) {
	item, err := finance.NewLineItem(in.Product, in.Description, in.Unit,
		in.Quantity.Decimal, in.UnitPrice.Decimal, in.TaxRatePercent.Decimal)
	if err != nil {
		return finance.LineItem{}, err
	}
	return *item, nil
}

func lineItemsFromInput(inputs []LineItemInput) ([]finance.LineItem, error) {
	items := make([]finance.LineItem, 0, len(inputs))
	for _, in := range inputs {
		item, err := in.toDomain()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
