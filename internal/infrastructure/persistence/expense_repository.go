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

// GormExpenseRepository implements finance.ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// Add inserts an expense
func (r *GormExpenseRepository) Add(ctx context.Context, e *finance.Expense) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.ExpenseModelFromDomain(e)
		if err := stampSeq(tx, &models.ExpenseModel{}, &model.Seq); err != nil {
			return err
		}
		return tx.Create(model).Error
	})
}

// AddBatch inserts all expenses in one transaction
func (r *GormExpenseRepository) AddBatch(ctx context.Context, es []*finance.Expense) error {
	if len(es) == 0 {
		return nil
	}
	rows := make([]*models.ExpenseModel, len(es))
	seqs := make([]*int64, len(es))
	for i, e := range es {
		rows[i] = models.ExpenseModelFromDomain(e)
		seqs[i] = &rows[i].Seq
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := stampSeq(tx, &models.ExpenseModel{}, seqs...); err != nil {
			return err
		}
		return tx.CreateInBatches(rows, 200).Error
	})
}

// Replace updates an expense with optimistic locking
func (r *GormExpenseRepository) Replace(ctx context.Context, e *finance.Expense) error {
	next := e.Version + 1
	now := time.Now()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ExpenseModel{}).
			Where("id = ? AND version = ?", e.ID, e.Version).
			Updates(map[string]any{
				"title":          e.Title,
				"amount":         e.Amount,
				"date":           e.Date,
				"category":       e.Category,
				"project":        e.Project,
				"vendor":         e.Vendor,
				"payment_method": e.PaymentMethod,
				"notes":          e.Notes,
				"version":        next,
				"updated_at":     now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return missingOrStale(tx, &models.ExpenseModel{}, e.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.Version = next
	e.UpdatedAt = now
	return nil
}

// Remove deletes an expense
func (r *GormExpenseRepository) Remove(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ExpenseModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds an expense by its ID
func (r *GormExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Expense, error) {
	var model models.ExpenseModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns every expense in insertion order
func (r *GormExpenseRepository) FindAll(ctx context.Context) ([]*finance.Expense, error) {
	var rows []models.ExpenseModel
	if err := r.db.WithContext(ctx).Order("seq ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*finance.Expense, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ finance.ExpenseRepository = (*GormExpenseRepository)(nil)
