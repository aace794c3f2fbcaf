package finance

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/oneflow/backend/internal/domain/finance"
)

// Export column sets. Names and order are a published contract.
var (
	invoiceColumns = []string{
		"Invoice Number", "Customer", "Subtotal", "Tax Amount", "Total", "Due Date", "Status", "Created Date",
	}
	salesOrderColumns = []string{
		"Order Number", "Customer", "Project", "Subtotal", "Tax Amount", "Total", "Delivery Date", "Status", "Created Date",
	}
	purchaseOrderColumns = []string{
		"Order Number", "Vendor", "Project", "Subtotal", "Tax Amount", "Total", "Delivery Date", "Status", "Created Date",
	}
	vendorBillColumns = []string{
		"Bill Number", "Vendor", "Project", "Subtotal", "Tax Amount", "Total", "Due Date", "Status", "Created Date",
	}
	expenseColumns = []string{
		"Title", "Amount", "Date", "Category", "Project", "Vendor", "Payment Method", "Notes",
	}
	requestColumns = []string{
		"Request Number", "Document Type", "Project", "Amount", "Requested By", "Request Date", "Status", "Approved By", "Approval Date",
	}
)

const dateLayout = "2006-01-02"

// documentColumns returns the export header of a document type
func documentColumns(t finance.DocumentType) []string {
	switch t {
	case finance.DocumentTypeInvoice:
		return invoiceColumns
	case finance.DocumentTypeSalesOrder:
		return salesOrderColumns
	case finance.DocumentTypePurchaseOrder:
		return purchaseOrderColumns
	default:
		return vendorBillColumns
	}
}

// documentRecord flattens a document in the order of documentColumns
func documentRecord(doc *finance.Document) []string {
	header := documentColumns(doc.Type)
	record := make([]string, len(header))
	for i, col := range header {
		switch col {
		case "Invoice Number", "Order Number", "Bill Number":
			record[i] = doc.Number
		case "Customer", "Vendor":
			record[i] = doc.Counterpart
		case "Project":
			record[i] = doc.Project
		case "Subtotal":
			record[i] = money(doc.Subtotal)
		case "Tax Amount":
			record[i] = money(doc.Tax)
		case "Total":
			record[i] = money(doc.Total)
		case "Due Date", "Delivery Date":
			record[i] = optionalDate(doc.RelevantDate)
		case "Status":
			record[i] = string(doc.Status)
		case "Created Date":
			record[i] = doc.CreatedDate().Format(dateLayout)
		}
	}
	return record
}

func expenseRecord(e *finance.Expense) []string {
	return []string{
		e.Title,
		money(e.Amount),
		e.Date.Format(dateLayout),
		string(e.Category),
		e.Project,
		e.Vendor,
		e.PaymentMethod,
		e.Notes,
	}
}

func requestRecord(r *finance.DocumentRequest) []string {
	return []string{
		r.RequestNumber,
		string(r.DocumentType),
		r.Project,
		money(r.Amount),
		r.RequestedBy,
		r.RequestDate.Format(dateLayout),
		string(r.Status),
		r.ApprovedBy,
		optionalDate(r.ApprovalDate),
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func optionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

// ==================== Import aliases ====================

// aliases expands each label into itself and its run-together, camelCase and
// snake_case spellings, keeping label order: "Invoice Number" gives
// "Invoice Number", "InvoiceNumber", "invoiceNumber", "invoice_number".
func aliases(labels ...string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(labels)*4)
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, label := range labels {
		words := strings.Fields(label)
		add(label)
		add(strings.Join(words, ""))
		add(lowerFirst(strings.Join(words, "")))
		add(strings.ToLower(strings.Join(words, "_")))
	}
	return out
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// documentFields are the import aliases of one document type
type documentFields struct {
	number       []string
	counterpart  []string
	project      []string
	subtotal     []string
	amount       []string
	total        []string
	taxRate      []string
	taxAmount    []string
	relevantDate []string
	status       []string
	createdDate  []string
	notes        []string
}

func documentFieldsFor(t finance.DocumentType) documentFields {
	f := documentFields{
		project:     aliases("Project", "Project Name"),
		subtotal:    aliases("Subtotal", "Sub Total"),
		amount:      aliases("Amount"),
		total:       aliases("Total", "Total Amount"),
		taxRate:     aliases("Tax Rate", "Tax Rate Percent"),
		taxAmount:   aliases("Tax Amount", "Tax"),
		status:      aliases("Status"),
		createdDate: aliases("Created Date", "Created At"),
		notes:       aliases("Notes"),
	}

	switch t {
	case finance.DocumentTypeInvoice:
		f.number = aliases("Invoice Number", "Number")
	case finance.DocumentTypeVendorBill:
		f.number = aliases("Bill Number", "Number")
	default:
		f.number = aliases("Order Number", "Number")
	}

	if t.CounterpartIsCustomer() {
		f.counterpart = aliases("Customer", "Customer Name", "Client")
	} else {
		f.counterpart = aliases("Vendor", "Vendor Name", "Supplier")
	}

	if t.RelevantDateIsDueDate() {
		f.relevantDate = aliases("Due Date")
	} else {
		f.relevantDate = aliases("Delivery Date")
	}
	return f
}

var expenseFields = struct {
	title, amount, date, category, project, vendor, paymentMethod, notes []string
}{
	title:         aliases("Title", "Name"),
	amount:        aliases("Amount", "Total"),
	date:          aliases("Date", "Expense Date"),
	category:      aliases("Category"),
	project:       aliases("Project", "Project Name"),
	vendor:        aliases("Vendor", "Merchant"),
	paymentMethod: aliases("Payment Method"),
	notes:         aliases("Notes"),
}
