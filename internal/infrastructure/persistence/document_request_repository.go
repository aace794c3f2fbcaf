package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oneflow/backend/internal/domain/finance"
	"github.com/oneflow/backend/internal/domain/shared"
	"github.com/oneflow/backend/internal/infrastructure/persistence/models"
)

// GormDocumentRequestRepository implements finance.DocumentRequestRepository using GORM
type GormDocumentRequestRepository struct {
	db *gorm.DB
}

// NewGormDocumentRequestRepository creates a new GormDocumentRequestRepository
func NewGormDocumentRequestRepository(db *gorm.DB) *GormDocumentRequestRepository {
	return &GormDocumentRequestRepository{db: db}
}

// Add inserts a request
func (r *GormDocumentRequestRepository) Add(ctx context.Context, req *finance.DocumentRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.DocumentRequestModelFromDomain(req)
		if err := stampSeq(tx, &models.DocumentRequestModel{}, &model.Seq); err != nil {
			return err
		}
		return tx.Create(model).Error
	})
}

// AddBatch inserts all requests in one transaction
func (r *GormDocumentRequestRepository) AddBatch(ctx context.Context, reqs []*finance.DocumentRequest) error {
	if len(reqs) == 0 {
		return nil
	}
	rows := make([]*models.DocumentRequestModel, len(reqs))
	seqs := make([]*int64, len(reqs))
	for i, req := range reqs {
		rows[i] = models.DocumentRequestModelFromDomain(req)
		seqs[i] = &rows[i].Seq
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := stampSeq(tx, &models.DocumentRequestModel{}, seqs...); err != nil {
			return err
		}
		return tx.CreateInBatches(rows, 200).Error
	})
}

// Replace updates a request with optimistic locking
func (r *GormDocumentRequestRepository) Replace(ctx context.Context, req *finance.DocumentRequest) error {
	next := req.Version + 1
	now := time.Now()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.DocumentRequestModel{}).
			Where("id = ? AND version = ?", req.ID, req.Version).
			Updates(map[string]any{
				"project":          req.Project,
				"amount":           req.Amount,
				"description":      req.Description,
				"status":           req.Status,
				"approved_by":      req.ApprovedBy,
				"approval_date":    req.ApprovalDate,
				"rejection_reason": req.RejectionReason,
				"download_ref":     req.DownloadRef,
				"version":          next,
				"updated_at":       now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return missingOrStale(tx, &models.DocumentRequestModel{}, req.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	req.Version = next
	req.UpdatedAt = now
	return nil
}

// Remove deletes a request
func (r *GormDocumentRequestRepository) Remove(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.DocumentRequestModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a request by its ID
func (r *GormDocumentRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.DocumentRequest, error) {
	var model models.DocumentRequestModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns every request in insertion order
func (r *GormDocumentRequestRepository) FindAll(ctx context.Context) ([]*finance.DocumentRequest, error) {
	var rows []models.DocumentRequestModel
	if err := r.db.WithContext(ctx).Order("seq ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*finance.DocumentRequest, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ finance.DocumentRequestRepository = (*GormDocumentRequestRepository)(nil)
