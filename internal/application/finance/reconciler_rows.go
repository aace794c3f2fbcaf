package finance

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/oneflow/backend/internal/domain/finance"
)

// Import defaults for columns that are missing or blank
const (
	defaultCounterpart  = "Unknown"
	defaultProject      = "General"
	defaultExpenseTitle = "Imported Expense"
	importedItemProduct = "Imported Item"
	derivedRatePlaces   = 20
)

// importDateLayouts are tried in order when reading a date cell
var importDateLayouts = []string{
	dateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"Jan 2, 2006",
}

// rowReader looks cells up by alias: an exact header match first, then a
// case-insensitive one. Blank cells count as absent.
type rowReader struct {
	row    map[string]string
	folded map[string]string
}

func newRowReader(row map[string]string) *rowReader {
	// a Caser keeps state and must not be shared between goroutines
	fold := cases.Fold()
	folded := make(map[string]string, len(row))
	for header, value := range row {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		key := fold.String(strings.TrimSpace(header))
		if _, taken := folded[key]; !taken {
			folded[key] = value
		}
	}
	return &rowReader{row: row, folded: folded}
}

func (r *rowReader) empty() bool {
	return len(r.folded) == 0
}

// get returns the first non-blank cell among the aliases
func (r *rowReader) get(aliases []string) (string, bool) {
	for _, alias := range aliases {
		if v := strings.TrimSpace(r.row[alias]); v != "" {
			return v, true
		}
	}
	fold := cases.Fold()
	for _, alias := range aliases {
		if v, ok := r.folded[fold.String(alias)]; ok {
			return v, true
		}
	}
	return "", false
}

func (r *rowReader) text(aliases []string, fallback string) string {
	if v, ok := r.get(aliases); ok {
		return v
	}
	return fallback
}

func (r *rowReader) number(aliases []string) (decimal.Decimal, bool) {
	v, ok := r.get(aliases)
	if !ok {
		return decimal.Zero, false
	}
	return finance.ParseNumber(v), true
}

func (r *rowReader) date(aliases []string) (time.Time, bool) {
	v, ok := r.get(aliases)
	if !ok {
		return time.Time{}, false
	}
	return parseImportDate(v)
}

func parseImportDate(raw string) (time.Time, bool) {
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// documentFromRow builds a document with a single synthesized line item
// priced so that the document reproduces the row's subtotal and tax.
// A derived rate keeps derivedRatePlaces digits: the rounding error times the
// subtotal must stay far below a cent for any amount the schema can hold.
func (r *Reconciler) documentFromRow(t finance.DocumentType, fields documentFields, row *rowReader, now time.Time) (*finance.Document, error) {
	number := row.text(fields.number, "")
	if number == "" {
		number = r.numbers.ForDocument(t)
	}

	doc, err := finance.NewDocument(t,
		number,
		row.text(fields.counterpart, defaultCounterpart),
		row.text(fields.project, defaultProject),
	)
	if err != nil {
		return nil, err
	}

	price, hasSubtotal := row.number(fields.subtotal)
	if !hasSubtotal {
		var ok bool
		if price, ok = row.number(fields.amount); !ok {
			price, _ = row.number(fields.total)
		}
	}

	rate, ok := row.number(fields.taxRate)
	if !ok {
		rate = decimal.Zero
		if taxAmount, hasTax := row.number(fields.taxAmount); hasTax && hasSubtotal && price.IsPositive() {
			rate = taxAmount.Mul(decimal.NewFromInt(100)).DivRound(price, derivedRatePlaces)
		}
	}

	item, err := finance.NewLineItem(importedItemProduct, "", finance.DefaultUnit, decimal.NewFromInt(1), price, rate)
	if err != nil {
		return nil, err
	}
	doc.ReplaceItems([]finance.LineItem{*item})

	if raw, ok := row.get(fields.status); ok {
		if status, valid := t.ParseStatus(raw); valid {
			doc.Status = status
		}
	}
	if d, ok := row.date(fields.relevantDate); ok {
		doc.RelevantDate = &d
	}
	created := now
	if d, ok := row.date(fields.createdDate); ok {
		created = d
	}
	doc.CreatedAt = created
	doc.UpdatedAt = now
	doc.Notes = row.text(fields.notes, "")
	return doc, nil
}

func expenseFromRow(row *rowReader, now time.Time) (*finance.Expense, error) {
	amount, _ := row.number(expenseFields.amount)
	date, ok := row.date(expenseFields.date)
	if !ok {
		date = now
	}
	e, err := finance.NewExpense(finance.ExpenseDetails{
		Title:         row.text(expenseFields.title, defaultExpenseTitle),
		Amount:        amount,
		Date:          date,
		Category:      finance.ParseExpenseCategory(row.text(expenseFields.category, "")),
		Project:       row.text(expenseFields.project, defaultProject),
		Vendor:        row.text(expenseFields.vendor, ""),
		PaymentMethod: row.text(expenseFields.paymentMethod, ""),
		Notes:         row.text(expenseFields.notes, ""),
	})
	if err != nil {
		return nil, err
	}
	e.CreatedAt = now
	e.UpdatedAt = now
	return e, nil
}
