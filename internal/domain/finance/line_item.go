package finance

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oneflow/backend/internal/domain/shared"
)

// DefaultUnit is used when a line item is created without a unit of measure
const DefaultUnit = "unit"

var hundred = decimal.NewFromInt(100)

// maxNumberDigits bounds both the integer digits and the fractional digits a
// parsed number may carry. Exponent notation can otherwise describe values
// whose expansion costs unbounded time and memory.
const maxNumberDigits = 30

// Round2 rounds half away from zero to two decimal places
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// NormalizeNonNegative maps negative values to zero.
// Quantities, prices and tax rates are coerced rather than rejected so that
// totals stay computable for any input.
func NormalizeNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ParseNumber converts user-supplied numeric text into a non-negative decimal.
// Empty, malformed, negative and out-of-range input all yield zero; more than
// maxNumberDigits fractional digits are rounded away. Thousands separators,
// surrounding whitespace and a leading currency symbol are tolerated.
func ParseNumber(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}
	s = strings.TrimLeft(s, "$€£₹¥")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSuffix(s, "%")
	if len(s) > 4*maxNumberDigits {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return NormalizeNonNegative(boundDigits(d))
}

// boundDigits zeroes values with more than maxNumberDigits integer digits or a
// scale far beyond maxNumberDigits, and rounds the rest to maxNumberDigits places.
// Only the exponent and digit count are inspected before deciding, so the cost
// does not depend on the exponent's size.
func boundDigits(d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return decimal.Zero
	}
	exp := int64(d.Exponent())
	digits := int64(d.NumDigits())
	if digits+exp > maxNumberDigits || exp < -2*maxNumberDigits || digits > 2*maxNumberDigits {
		return decimal.Zero
	}
	if exp < -maxNumberDigits {
		return d.Round(maxNumberDigits)
	}
	return d
}

// ComputeLineAmount returns round2(quantity × unitPrice × (1 + taxRatePercent/100)).
// Inputs are normalized with NormalizeNonNegative first.
func ComputeLineAmount(quantity, unitPrice, taxRatePercent decimal.Decimal) decimal.Decimal {
	net := NormalizeNonNegative(quantity).Mul(NormalizeNonNegative(unitPrice))
	gross := net.Mul(hundred.Add(NormalizeNonNegative(taxRatePercent))).Div(hundred)
	return Round2(gross)
}

// LineItem represents one priced and taxed row of a document.
// Amount is derived and is rewritten by Recalculate on every change.
type LineItem struct {
	ID             uuid.UUID
	Product        string
	Description    string
	Quantity       decimal.Decimal
	Unit           string
	UnitPrice      decimal.Decimal
	TaxRatePercent decimal.Decimal
	Amount         decimal.Decimal
}

// NewLineItem creates a line item and computes its amount
func NewLineItem(product, description, unit string, quantity, unitPrice, taxRatePercent decimal.Decimal) (*LineItem, error) {
	product = strings.TrimSpace(product)
	if product == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product cannot be empty")
	}
	if strings.TrimSpace(unit) == "" {
		unit = DefaultUnit
	}

	item := &LineItem{
		ID:             uuid.New(),
		Product:        product,
		Description:    description,
		Unit:           unit,
		Quantity:       NormalizeNonNegative(quantity),
		UnitPrice:      NormalizeNonNegative(unitPrice),
		TaxRatePercent: NormalizeNonNegative(taxRatePercent),
	}
	item.Recalculate()
	return item, nil
}

// Update replaces the pricing inputs and recomputes the amount
func (i *LineItem) Update(quantity, unitPrice, taxRatePercent decimal.Decimal) {
	i.Quantity = NormalizeNonNegative(quantity)
	i.UnitPrice = NormalizeNonNegative(unitPrice)
	i.TaxRatePercent = NormalizeNonNegative(taxRatePercent)
	i.Recalculate()
}

// Recalculate rewrites Amount from quantity, unit price and tax rate
func (i *LineItem) Recalculate() {
	i.Quantity = NormalizeNonNegative(i.Quantity)
	i.UnitPrice = NormalizeNonNegative(i.UnitPrice)
	i.TaxRatePercent = NormalizeNonNegative(i.TaxRatePercent)
	i.Amount = ComputeLineAmount(i.Quantity, i.UnitPrice, i.TaxRatePercent)
}

// NetAmount returns quantity × unitPrice, unrounded
func (i LineItem) NetAmount() decimal.Decimal {
	return NormalizeNonNegative(i.Quantity).Mul(NormalizeNonNegative(i.UnitPrice))
}

// TaxAmount returns quantity × unitPrice × taxRatePercent / 100, unrounded
func (i LineItem) TaxAmount() decimal.Decimal {
	return i.NetAmount().Mul(NormalizeNonNegative(i.TaxRatePercent)).Div(hundred)
}
