package finance

import (
	"context"

	"github.com/google/uuid"
)

// DocumentRepository stores documents of every DocumentType.
//
// Replace performs an optimistic version check: the stored version must equal
// doc.Version, otherwise shared.ErrConcurrencyConflict is returned. On success
// the version is incremented on both the stored record and doc.
type DocumentRepository interface {
	Add(ctx context.Context, doc *Document) error
	// AddBatch stores all documents or none of them
	AddBatch(ctx context.Context, docs []*Document) error
	Replace(ctx context.Context, doc *Document) error
	Remove(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Document, error)
	// FindAll returns the documents of one type in insertion order
	FindAll(ctx context.Context, docType DocumentType) ([]*Document, error)
}

// ExpenseRepository stores expenses
type ExpenseRepository interface {
	Add(ctx context.Context, expense *Expense) error
	AddBatch(ctx context.Context, expenses []*Expense) error
	Replace(ctx context.Context, expense *Expense) error
	Remove(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Expense, error)
	FindAll(ctx context.Context) ([]*Expense, error)
}

// DocumentRequestRepository stores document requests
type DocumentRequestRepository interface {
	Add(ctx context.Context, req *DocumentRequest) error
	AddBatch(ctx context.Context, reqs []*DocumentRequest) error
	Replace(ctx context.Context, req *DocumentRequest) error
	Remove(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*DocumentRequest, error)
	FindAll(ctx context.Context) ([]*DocumentRequest, error)
}
