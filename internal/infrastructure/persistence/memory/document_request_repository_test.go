package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneflow/backend/internal/domain/finance"
	"github.com/oneflow/backend/internal/domain/shared"
)

func TestDocumentRequestRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRequestRepository()

	req, err := finance.NewDocumentRequest("REQ-2026-001", "alice", finance.RequestDocumentTypeReceipt,
		"Website Revamp", decimal.NewFromInt(80), "Taxi receipts", time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Add(ctx, req))

	stored, err := repo.FindByID(ctx, req.ID)
	require.NoError(t, err)
	pm := finance.Actor{Username: "paula", Role: finance.RoleProjectManager}
	require.NoError(t, stored.Approve(pm, time.Now()))
	require.NoError(t, repo.Replace(ctx, stored))

	again, err := repo.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.RequestStatusApproved, again.Status)
	require.NotNil(t, again.ApprovalDate)

	// the stale copy taken before approval cannot overwrite it
	require.NoError(t, req.Reject(pm, "late", time.Now()))
	assert.True(t, errors.Is(repo.Replace(ctx, req), shared.ErrConcurrencyConflict))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestExpenseRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewExpenseRepository()

	e, err := finance.NewExpense(finance.ExpenseDetails{Title: "Laptop", Amount: decimal.NewFromInt(1500), Category: finance.ExpenseCategoryEquipment, Project: "P"})
	require.NoError(t, err)
	require.NoError(t, repo.AddBatch(ctx, []*finance.Expense{e}))

	found, err := repo.FindByID(ctx, e.ID)
	require.NoError(t, err)
	require.NoError(t, found.Update(finance.ExpenseDetails{Title: "Laptop 16in", Amount: decimal.NewFromInt(1700), Category: finance.ExpenseCategoryEquipment, Project: "P"}))
	require.NoError(t, repo.Replace(ctx, found))
	assert.Equal(t, 2, found.Version)

	require.NoError(t, repo.Remove(ctx, e.ID))
	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
