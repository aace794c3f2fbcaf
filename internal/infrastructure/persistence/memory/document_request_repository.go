package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/oneflow/backend/internal/domain/finance"
)

// DocumentRequestRepository is an in-memory finance.DocumentRequestRepository
type DocumentRequestRepository struct {
	requests *collection[*finance.DocumentRequest]
}

// NewDocumentRequestRepository creates an empty DocumentRequestRepository
func NewDocumentRequestRepository() *DocumentRequestRepository {
	return &DocumentRequestRepository{requests: newCollection[*finance.DocumentRequest]()}
}

func (r *DocumentRequestRepository) Add(ctx context.Context, req *finance.DocumentRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.requests.add(req)
}

func (r *DocumentRequestRepository) AddBatch(ctx context.Context, reqs []*finance.DocumentRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.requests.add(reqs...)
}

func (r *DocumentRequestRepository) Replace(ctx context.Context, req *finance.DocumentRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.requests.replace(req)
}

func (r *DocumentRequestRepository) Remove(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.requests.remove(id)
}

func (r *DocumentRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.DocumentRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.requests.get(id)
}

func (r *DocumentRequestRepository) FindAll(ctx context.Context) ([]*finance.DocumentRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.requests.list(nil), nil
}

var _ finance.DocumentRequestRepository = (*DocumentRequestRepository)(nil)
