package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oneflow/backend/internal/domain/finance"
)

// DocumentModel is the persistence model for the Document aggregate root.
type DocumentModel struct {
	AggregateModel
	DocumentType finance.DocumentType   `gorm:"type:varchar(20);not null;index"`
	Number       string                 `gorm:"type:varchar(50);not null;index"`
	Counterpart  string                 `gorm:"type:varchar(200);not null"`
	Project      string                 `gorm:"type:varchar(200);not null;index"`
	Items        []DocumentItemModel    `gorm:"foreignKey:DocumentID;references:ID"`
	Subtotal     decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	Tax          decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	Total        decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	RelevantDate *time.Time             `gorm:"type:date"`
	Status       finance.DocumentStatus `gorm:"type:varchar(20);not null;default:'Draft'"`
	Notes        string                 `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "finance_documents"
}

// ToDomain converts the persistence model to a domain Document.
// Totals are taken as stored; items keep their stored position order.
func (m *DocumentModel) ToDomain() *finance.Document {
	doc := &finance.Document{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Type:              m.DocumentType,
		Number:            m.Number,
		Counterpart:       m.Counterpart,
		Project:           m.Project,
		Items:             make([]finance.LineItem, len(m.Items)),
		Subtotal:          m.Subtotal,
		Tax:               m.Tax,
		Total:             m.Total,
		RelevantDate:      m.RelevantDate,
		Status:            m.Status,
		Notes:             m.Notes,
	}
	for i, item := range m.Items {
		doc.Items[i] = item.ToDomain()
	}
	return doc
}

// FromDomain populates the persistence model from a domain Document.
func (m *DocumentModel) FromDomain(d *finance.Document) {
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	m.DocumentType = d.Type
	m.Number = d.Number
	m.Counterpart = d.Counterpart
	m.Project = d.Project
	m.Subtotal = d.Subtotal
	m.Tax = d.Tax
	m.Total = d.Total
	m.RelevantDate = d.RelevantDate
	m.Status = d.Status
	m.Notes = d.Notes
	m.Items = make([]DocumentItemModel, len(d.Items))
	for i, item := range d.Items {
		m.Items[i] = DocumentItemModelFromDomain(d.ID, i, item)
	}
}

// DocumentModelFromDomain creates a new persistence model from a domain Document.
func DocumentModelFromDomain(d *finance.Document) *DocumentModel {
	m := &DocumentModel{}
	m.FromDomain(d)
	return m
}

// DocumentItemModel is the persistence model for a document line item.
type DocumentItemModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	DocumentID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position       int             `gorm:"not null;default:0"`
	Product        string          `gorm:"type:varchar(200);not null"`
	Description    string          `gorm:"type:varchar(500)"`
	Quantity       decimal.Decimal `gorm:"type:decimal(20,6);not null"`
	Unit           string          `gorm:"type:varchar(20);not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(20,6);not null"`
	TaxRatePercent decimal.Decimal `gorm:"type:decimal(30,20);not null;default:0"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (DocumentItemModel) TableName() string {
	return "finance_document_items"
}

// ToDomain converts the persistence model to a domain LineItem.
func (m *DocumentItemModel) ToDomain() finance.LineItem {
	return finance.LineItem{
		ID:             m.ID,
		Product:        m.Product,
		Description:    m.Description,
		Quantity:       m.Quantity,
		Unit:           m.Unit,
		UnitPrice:      m.UnitPrice,
		TaxRatePercent: m.TaxRatePercent,
		Amount:         m.Amount,
	}
}

// DocumentItemModelFromDomain creates an item model at the given position.
func DocumentItemModelFromDomain(documentID uuid.UUID, position int, item finance.LineItem) DocumentItemModel {
	return DocumentItemModel{
		ID:             item.ID,
		DocumentID:     documentID,
		Position:       position,
		Product:        item.Product,
		Description:    item.Description,
		Quantity:       item.Quantity,
		Unit:           item.Unit,
		UnitPrice:      item.UnitPrice,
		TaxRatePercent: item.TaxRatePercent,
		Amount:         item.Amount,
	}
}

// ExpenseModel is the persistence model for the Expense aggregate root.
type ExpenseModel struct {
	AggregateModel
	Title         string                  `gorm:"type:varchar(200);not null"`
	Amount        decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	Date          time.Time               `gorm:"type:date;not null"`
	Category      finance.ExpenseCategory `gorm:"type:varchar(20);not null;default:'Other'"`
	Project       string                  `gorm:"type:varchar(200);not null;index"`
	Vendor        string                  `gorm:"type:varchar(200)"`
	PaymentMethod string                  `gorm:"type:varchar(50)"`
	Notes         string                  `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "finance_expenses"
}

// ToDomain converts the persistence model to a domain Expense.
func (m *ExpenseModel) ToDomain() *finance.Expense {
	return &finance.Expense{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Title:             m.Title,
		Amount:            m.Amount,
		Date:              m.Date,
		Category:          m.Category,
		Project:           m.Project,
		Vendor:            m.Vendor,
		PaymentMethod:     m.PaymentMethod,
		Notes:             m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Expense.
func (m *ExpenseModel) FromDomain(e *finance.Expense) {
	m.FromDomainAggregateRoot(e.BaseAggregateRoot)
	m.Title = e.Title
	m.Amount = e.Amount
	m.Date = e.Date
	m.Category = e.Category
	m.Project = e.Project
	m.Vendor = e.Vendor
	m.PaymentMethod = e.PaymentMethod
	m.Notes = e.Notes
}

// ExpenseModelFromDomain creates a new persistence model from a domain Expense.
func ExpenseModelFromDomain(e *finance.Expense) *ExpenseModel {
	m := &ExpenseModel{}
	m.FromDomain(e)
	return m
}

// DocumentRequestModel is the persistence model for the DocumentRequest aggregate root.
type DocumentRequestModel struct {
	AggregateModel
	RequestNumber   string                      `gorm:"type:varchar(50);not null;index"`
	RequestedBy     string                      `gorm:"type:varchar(100);not null;index"`
	DocumentType    finance.RequestDocumentType `gorm:"type:varchar(20);not null"`
	Project         string                      `gorm:"type:varchar(200);not null;index"`
	Amount          decimal.Decimal             `gorm:"type:decimal(18,2);not null;default:0"`
	Description     string                      `gorm:"type:text;not null"`
	RequestDate     time.Time                   `gorm:"not null"`
	Status          finance.RequestStatus       `gorm:"type:varchar(20);not null;default:'Pending';index"`
	ApprovedBy      string                      `gorm:"type:varchar(100)"`
	ApprovalDate    *time.Time
	RejectionReason string `gorm:"type:varchar(500)"`
	DownloadRef     string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (DocumentRequestModel) TableName() string {
	return "finance_document_requests"
}

// ToDomain converts the persistence model to a domain DocumentRequest.
func (m *DocumentRequestModel) ToDomain() *finance.DocumentRequest {
	return &finance.DocumentRequest{
		BaseAggregateRoot: m.ToAggregateRoot(),
		RequestNumber:     m.RequestNumber,
		RequestedBy:       m.RequestedBy,
		DocumentType:      m.DocumentType,
		Project:           m.Project,
		Amount:            m.Amount,
		Description:       m.Description,
		RequestDate:       m.RequestDate,
		Status:            m.Status,
		ApprovedBy:        m.ApprovedBy,
		ApprovalDate:      m.ApprovalDate,
		RejectionReason:   m.RejectionReason,
		DownloadRef:       m.DownloadRef,
	}
}

// FromDomain populates the persistence model from a domain DocumentRequest.
func (m *DocumentRequestModel) FromDomain(r *finance.DocumentRequest) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.RequestNumber = r.RequestNumber
	m.RequestedBy = r.RequestedBy
	m.DocumentType = r.DocumentType
	m.Project = r.Project
	m.Amount = r.Amount
	m.Description = r.Description
	m.RequestDate = r.RequestDate
	m.Status = r.Status
	m.ApprovedBy = r.ApprovedBy
	m.ApprovalDate = r.ApprovalDate
	m.RejectionReason = r.RejectionReason
	m.DownloadRef = r.DownloadRef
}

// DocumentRequestModelFromDomain creates a new persistence model from a domain DocumentRequest.
func DocumentRequestModelFromDomain(r *finance.DocumentRequest) *DocumentRequestModel {
	m := &DocumentRequestModel{}
	m.FromDomain(r)
	return m
}

// AllModels lists the models managed by AutoMigrate on SQLite
func AllModels() []any {
	return []any{
		&DocumentModel{},
		&DocumentItemModel{},
		&ExpenseModel{},
		&DocumentRequestModel{},
	}
}
