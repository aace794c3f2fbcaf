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

// GormDocumentRepository implements finance.DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// Add inserts a document with its items
func (r *GormDocumentRepository) Add(ctx context.Context, doc *finance.Document) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.DocumentModelFromDomain(doc)
		if err := stampSeq(tx, &models.DocumentModel{}, &model.Seq); err != nil {
			return err
		}
		return tx.Create(model).Error
	})
}

// AddBatch inserts all documents in one transaction
func (r *GormDocumentRepository) AddBatch(ctx context.Context, docs []*finance.Document) error {
	if len(docs) == 0 {
		return nil
	}
	rows := make([]*models.DocumentModel, len(docs))
	seqs := make([]*int64, len(docs))
	for i, doc := range docs {
		rows[i] = models.DocumentModelFromDomain(doc)
		seqs[i] = &rows[i].Seq
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := stampSeq(tx, &models.DocumentModel{}, seqs...); err != nil {
			return err
		}
		for _, row := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Replace updates a document with optimistic locking (version check) and
// rewrites its items
func (r *GormDocumentRepository) Replace(ctx context.Context, doc *finance.Document) error {
	next := doc.Version + 1
	now := time.Now()
	model := models.DocumentModelFromDomain(doc)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.DocumentModel{}).
			Where("id = ? AND version = ?", doc.ID, doc.Version).
			Updates(map[string]any{
				"counterpart":   model.Counterpart,
				"project":       model.Project,
				"subtotal":      model.Subtotal,
				"tax":           model.Tax,
				"total":         model.Total,
				"relevant_date": model.RelevantDate,
				"status":        model.Status,
				"notes":         model.Notes,
				"version":       next,
				"updated_at":    now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return missingOrStale(tx, &models.DocumentModel{}, doc.ID)
		}

		if err := tx.Where("document_id = ?", doc.ID).Delete(&models.DocumentItemModel{}).Error; err != nil {
			return err
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	doc.Version = next
	doc.UpdatedAt = now
	return nil
}

// Remove deletes a document and its items
func (r *GormDocumentRepository) Remove(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&models.DocumentItemModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.DocumentModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// FindByID finds a document by its ID
func (r *GormDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Document, error) {
	var model models.DocumentModel
	if err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns the documents of one type in insertion order
func (r *GormDocumentRepository) FindAll(ctx context.Context, docType finance.DocumentType) ([]*finance.Document, error) {
	var rows []models.DocumentModel
	if err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("document_type = ?", docType).
		Order("seq ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	docs := make([]*finance.Document, len(rows))
	for i := range rows {
		docs[i] = rows[i].ToDomain()
	}
	return docs, nil
}

// missingOrStale tells a vanished row apart from a version mismatch after a
// guarded update touched nothing
func missingOrStale(tx *gorm.DB, model any, id uuid.UUID) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrConcurrencyConflict
}

var _ finance.DocumentRepository = (*GormDocumentRepository)(nil)
