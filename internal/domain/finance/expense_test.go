package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpenseCategory(t *testing.T) {
	tests := []struct {
		raw      string
		expected ExpenseCategory
	}{
		{"Travel", ExpenseCategoryTravel},
		{"meals", ExpenseCategoryMeals},
		{" SOFTWARE ", ExpenseCategorySoftware},
		{"Rent", ExpenseCategoryRent},
		{"Entertainment", ExpenseCategoryOther},
		{"", ExpenseCategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseExpenseCategory(tt.raw))
		})
	}
}

func TestNewExpense(t *testing.T) {
	date := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)

	t.Run("creates expense", func(t *testing.T) {
		e, err := NewExpense(ExpenseDetails{
			Title:         "Flight to client",
			Amount:        dec("412.456"),
			Date:          date,
			Category:      ExpenseCategoryTravel,
			Project:       "Website Revamp",
			Vendor:        "SkyAir",
			PaymentMethod: "Card",
		})
		require.NoError(t, err)
		assert.Equal(t, 1, e.Version)
		assertMoney(t, "412.46", e.Amount)
		assert.Equal(t, date, e.Date)
		assert.Equal(t, ExpenseCategoryTravel, e.Category)
	})

	t.Run("normalizes category and amount", func(t *testing.T) {
		e, err := NewExpense(ExpenseDetails{Title: "Party", Amount: dec("-3"), Category: "Fun", Project: "P"})
		require.NoError(t, err)
		assert.Equal(t, ExpenseCategoryOther, e.Category)
		assert.True(t, e.Amount.IsZero())
		assert.False(t, e.Date.IsZero())
	})

	t.Run("fails without title", func(t *testing.T) {
		_, err := NewExpense(ExpenseDetails{Project: "P"})
		assert.Error(t, err)
	})

	t.Run("fails without project", func(t *testing.T) {
		_, err := NewExpense(ExpenseDetails{Title: "Lunch"})
		assert.Error(t, err)
	})
}

func TestExpense_Update(t *testing.T) {
	e, err := NewExpense(ExpenseDetails{Title: "Lunch", Amount: dec("20"), Category: ExpenseCategoryMeals, Project: "P"})
	require.NoError(t, err)

	require.NoError(t, e.Update(ExpenseDetails{Title: "Team lunch", Amount: dec("85.5"), Category: ExpenseCategoryMeals, Project: "P"}))
	assert.Equal(t, "Team lunch", e.Title)
	assertMoney(t, "85.50", e.Amount)

	assert.Error(t, e.Update(ExpenseDetails{Title: "", Project: "P"}))
	assert.Equal(t, "Team lunch", e.Title)
}
