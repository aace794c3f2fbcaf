package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/oneflow/backend/internal/domain/finance"
)

// DocumentRepository is an in-memory finance.DocumentRepository
type DocumentRepository struct {
	docs *collection[*finance.Document]
}

// NewDocumentRepository creates an empty DocumentRepository
func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{docs: newCollection[*finance.Document]()}
}

// Add stores a new document
func (r *DocumentRepository) Add(ctx context.Context, doc *finance.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.docs.add(doc)
}

// AddBatch stores all documents or none
func (r *DocumentRepository) AddBatch(ctx context.Context, docs []*finance.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.docs.add(docs...)
}

// Replace overwrites a stored document after checking its version
func (r *DocumentRepository) Replace(ctx context.Context, doc *finance.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.docs.replace(doc)
}

// Remove deletes a document
func (r *DocumentRepository) Remove(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.docs.remove(id)
}

// FindByID returns a copy of the stored document
func (r *DocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.docs.get(id)
}

// FindAll returns the documents of one type in insertion order
func (r *DocumentRepository) FindAll(ctx context.Context, docType finance.DocumentType) ([]*finance.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.docs.list(func(d *finance.Document) bool { return d.Type == docType }), nil
}

var _ finance.DocumentRepository = (*DocumentRepository)(nil)
