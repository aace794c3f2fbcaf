package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/oneflow/backend/internal/domain/finance"
)

// ExpenseRepository is an in-memory finance.ExpenseRepository
type ExpenseRepository struct {
	expenses *collection[*finance.Expense]
}

// NewExpenseRepository creates an empty ExpenseRepository
func NewExpenseRepository() *ExpenseRepository {
	return &ExpenseRepository{expenses: newCollection[*finance.Expense]()}
}

func (r *ExpenseRepository) Add(ctx context.Context, e *finance.Expense) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.expenses.add(e)
}

func (r *ExpenseRepository) AddBatch(ctx context.Context, es []*finance.Expense) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.expenses.add(es...)
}

func (r *ExpenseRepository) Replace(ctx context.Context, e *finance.Expense) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.expenses.replace(e)
}

func (r *ExpenseRepository) Remove(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.expenses.remove(id)
}

func (r *ExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.expenses.get(id)
}

func (r *ExpenseRepository) FindAll(ctx context.Context) ([]*finance.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.expenses.list(nil), nil
}

var _ finance.ExpenseRepository = (*ExpenseRepository)(nil)
