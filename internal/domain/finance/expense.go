package finance

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oneflow/backend/internal/domain/shared"
)

// ExpenseCategory represents the category of an expense
type ExpenseCategory string

const (
	ExpenseCategoryTravel    ExpenseCategory = "Travel"
	ExpenseCategoryMeals     ExpenseCategory = "Meals"
	ExpenseCategorySupplies  ExpenseCategory = "Supplies"
	ExpenseCategoryEquipment ExpenseCategory = "Equipment"
	ExpenseCategorySoftware  ExpenseCategory = "Software"
	ExpenseCategoryUtilities ExpenseCategory = "Utilities"
	ExpenseCategoryRent      ExpenseCategory = "Rent"
	ExpenseCategoryOther     ExpenseCategory = "Other"
)

var expenseCategories = []ExpenseCategory{
	ExpenseCategoryTravel,
	ExpenseCategoryMeals,
	ExpenseCategorySupplies,
	ExpenseCategoryEquipment,
	ExpenseCategorySoftware,
	ExpenseCategoryUtilities,
	ExpenseCategoryRent,
	ExpenseCategoryOther,
}

// IsValid checks if the category is a valid ExpenseCategory
func (c ExpenseCategory) IsValid() bool {
	for _, candidate := range expenseCategories {
		if c == candidate {
			return true
		}
	}
	return false
}

// String returns the string representation of ExpenseCategory
func (c ExpenseCategory) String() string {
	return string(c)
}

// ParseExpenseCategory matches raw case-insensitively; anything unknown is Other
func ParseExpenseCategory(raw string) ExpenseCategory {
	raw = strings.TrimSpace(raw)
	for _, c := range expenseCategories {
		if strings.EqualFold(raw, string(c)) {
			return c
		}
	}
	return ExpenseCategoryOther
}

// Expense is a single-amount spend record tied to a project.
// It has no line items and no lifecycle.
type Expense struct {
	shared.BaseAggregateRoot
	Title         string
	Amount        decimal.Decimal
	Date          time.Time
	Category      ExpenseCategory
	Project       string
	Vendor        string
	PaymentMethod string
	Notes         string
}

// ExpenseDetails carries the mutable fields of an expense
type ExpenseDetails struct {
	Title         string
	Amount        decimal.Decimal
	Date          time.Time
	Category      ExpenseCategory
	Project       string
	Vendor        string
	PaymentMethod string
	Notes         string
}

// NewExpense creates a new expense
func NewExpense(details ExpenseDetails) (*Expense, error) {
	e := &Expense{BaseAggregateRoot: shared.NewBaseAggregateRoot()}
	if err := e.apply(details); err != nil {
		return nil, err
	}
	return e, nil
}

// Update replaces the expense fields
func (e *Expense) Update(details ExpenseDetails) error {
	if err := e.apply(details); err != nil {
		return err
	}
	e.Touch(time.Now())
	return nil
}

func (e *Expense) apply(details ExpenseDetails) error {
	if strings.TrimSpace(details.Title) == "" {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	if strings.TrimSpace(details.Project) == "" {
		return shared.NewDomainError("INVALID_PROJECT", "Project cannot be empty")
	}
	category := details.Category
	if !category.IsValid() {
		category = ParseExpenseCategory(string(category))
	}
	date := details.Date
	if date.IsZero() {
		date = time.Now()
	}

	e.Title = strings.TrimSpace(details.Title)
	e.Amount = Round2(NormalizeNonNegative(details.Amount))
	e.Date = date
	e.Category = category
	e.Project = strings.TrimSpace(details.Project)
	e.Vendor = strings.TrimSpace(details.Vendor)
	e.PaymentMethod = strings.TrimSpace(details.PaymentMethod)
	e.Notes = details.Notes
	return nil
}

// Clone returns a copy without pending domain events
func (e *Expense) Clone() *Expense {
	c := *e
	c.ClearDomainEvents()
	return &c
}
