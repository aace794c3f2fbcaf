package finance

import (
	"fmt"
	"math/rand"
	"time"
)

// Display number prefixes
const (
	PrefixSalesOrder      = "SO"
	PrefixPurchaseOrder   = "PO"
	PrefixInvoice         = "INV"
	PrefixVendorBill      = "BILL"
	PrefixDocumentRequest = "REQ"
)

// NumberGenerator produces human-readable document numbers of the form
// "{PREFIX}-{YYYY}-{NNN}" where NNN is a random zero-padded 000-999.
//
// Numbers are display labels only. They are not checked for collisions and
// must never be used as keys; entities are keyed by UUID.
type NumberGenerator struct {
	now  func() time.Time
	intn func(n int) int
}

// NewNumberGenerator creates a generator backed by the wall clock and math/rand
func NewNumberGenerator() *NumberGenerator {
	return NewNumberGeneratorWith(time.Now, rand.Intn)
}

// NewNumberGeneratorWith creates a generator with injected clock and random source
func NewNumberGeneratorWith(now func() time.Time, intn func(n int) int) *NumberGenerator {
	if now == nil {
		now = time.Now
	}
	if intn == nil {
		intn = rand.Intn
	}
	return &NumberGenerator{now: now, intn: intn}
}

// Generate returns a new display number for the prefix
func (g *NumberGenerator) Generate(prefix string) string {
	return fmt.Sprintf("%s-%04d-%03d", prefix, g.now().Year(), g.intn(1000))
}

// ForDocument returns a display number for the document type
func (g *NumberGenerator) ForDocument(t DocumentType) string {
	return g.Generate(t.NumberPrefix())
}

// ForRequest returns a display number for a document request
func (g *NumberGenerator) ForRequest() string {
	return g.Generate(PrefixDocumentRequest)
}
