package finance

import "strings"

// DocumentType tags the commercial document variants sharing the Document shape
type DocumentType string

const (
	DocumentTypeSalesOrder    DocumentType = "SALES_ORDER"
	DocumentTypePurchaseOrder DocumentType = "PURCHASE_ORDER"
	DocumentTypeInvoice       DocumentType = "INVOICE"
	DocumentTypeVendorBill    DocumentType = "VENDOR_BILL"
)

// AllDocumentTypes lists the document types in display order
var AllDocumentTypes = []DocumentType{
	DocumentTypeSalesOrder,
	DocumentTypePurchaseOrder,
	DocumentTypeInvoice,
	DocumentTypeVendorBill,
}

// IsValid checks if the type is a valid DocumentType
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeSalesOrder, DocumentTypePurchaseOrder, DocumentTypeInvoice, DocumentTypeVendorBill:
		return true
	}
	return false
}

// String returns the string representation of DocumentType
func (t DocumentType) String() string {
	return string(t)
}

// NumberPrefix returns the display number prefix for the type
func (t DocumentType) NumberPrefix() string {
	switch t {
	case DocumentTypeSalesOrder:
		return PrefixSalesOrder
	case DocumentTypePurchaseOrder:
		return PrefixPurchaseOrder
	case DocumentTypeInvoice:
		return PrefixInvoice
	case DocumentTypeVendorBill:
		return PrefixVendorBill
	default:
		return "DOC"
	}
}

// DisplayName returns a human-readable name for the type
func (t DocumentType) DisplayName() string {
	switch t {
	case DocumentTypeSalesOrder:
		return "Sales Order"
	case DocumentTypePurchaseOrder:
		return "Purchase Order"
	case DocumentTypeInvoice:
		return "Invoice"
	case DocumentTypeVendorBill:
		return "Vendor Bill"
	default:
		return string(t)
	}
}

// Slug returns the plural URL form, e.g. "sales-orders"
func (t DocumentType) Slug() string {
	switch t {
	case DocumentTypeSalesOrder:
		return "sales-orders"
	case DocumentTypePurchaseOrder:
		return "purchase-orders"
	case DocumentTypeInvoice:
		return "invoices"
	case DocumentTypeVendorBill:
		return "vendor-bills"
	default:
		return strings.ToLower(string(t))
	}
}

// CounterpartIsCustomer reports whether the counterpart is a customer.
// Purchase orders and vendor bills are addressed to vendors.
func (t DocumentType) CounterpartIsCustomer() bool {
	return t == DocumentTypeSalesOrder || t == DocumentTypeInvoice
}

// RelevantDateIsDueDate reports whether RelevantDate is a due date rather
// than a delivery date
func (t DocumentType) RelevantDateIsDueDate() bool {
	return t == DocumentTypeInvoice || t == DocumentTypeVendorBill
}

// ParseDocumentType accepts the enum value, the slug, or a loose variant such
// as "sales_order", "salesOrder" or "invoice"
func ParseDocumentType(raw string) (DocumentType, bool) {
	key := normalizeTypeKey(raw)
	for _, t := range AllDocumentTypes {
		if key == normalizeTypeKey(string(t)) || key == normalizeTypeKey(t.Slug()) ||
			key == normalizeTypeKey(t.DisplayName()) || key == normalizeTypeKey(t.NumberPrefix()) {
			return t, true
		}
	}
	return "", false
}

func normalizeTypeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
	return strings.TrimSuffix(s, "s")
}
