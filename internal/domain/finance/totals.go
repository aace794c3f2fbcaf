package finance

import "github.com/shopspring/decimal"

// Totals holds the document-level aggregates
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeDocumentTotals aggregates line items.
//
// Rounding is applied once per aggregate, never per line: subtotal and tax
// are summed unrounded and rounded at the end, and total is the sum of the two
// rounded figures. Individually rounded line amounts may therefore not add up
// to Total exactly.
func ComputeDocumentTotals(items []LineItem) Totals {
	net := decimal.Zero
	tax := decimal.Zero
	for _, item := range items {
		net = net.Add(item.NetAmount())
		tax = tax.Add(item.TaxAmount())
	}

	subtotal := Round2(net)
	taxRounded := Round2(tax)
	return Totals{
		Subtotal: subtotal,
		Tax:      taxRounded,
		Total:    Round2(subtotal.Add(taxRounded)),
	}
}
