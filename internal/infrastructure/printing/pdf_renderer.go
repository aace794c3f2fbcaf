// Package printing renders finance documents and document requests as PDF.
package printing

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	financeapp "github.com/oneflow/backend/internal/application/finance"
	"github.com/oneflow/backend/internal/domain/finance"
)

const displayDate = "02-Jan-2006"

var _ financeapp.DocumentRenderer = (*PDFRenderer)(nil)

// PDFRenderer lays documents out on A4 with the core Arial font
type PDFRenderer struct {
	// CompanyName is printed in the page header
	CompanyName string
	now         func() time.Time
}

// NewPDFRenderer creates a renderer printing companyName in the header
func NewPDFRenderer(companyName string) *PDFRenderer {
	return &PDFRenderer{CompanyName: companyName, now: time.Now}
}

// RenderDocument prints the header, the line item table and the totals
func (r *PDFRenderer) RenderDocument(doc *finance.Document) ([]byte, error) {
	pdf, tr := r.newPage(doc.Type.DisplayName())

	counterpartLabel := "Vendor"
	if doc.Type.CounterpartIsCustomer() {
		counterpartLabel = "Customer"
	}
	dateLabel := "Delivery Date"
	if doc.Type.RelevantDateIsDueDate() {
		dateLabel = "Due Date"
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(95, 6, tr(fmt.Sprintf("Number: %s", doc.Number)))
	pdf.Cell(95, 6, tr(fmt.Sprintf("Status: %s", doc.Status)))
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(95, 6, tr(fmt.Sprintf("%s: %s", counterpartLabel, doc.Counterpart)))
	pdf.Cell(95, 6, tr(fmt.Sprintf("Project: %s", doc.Project)))
	pdf.Ln(6)
	pdf.Cell(95, 6, fmt.Sprintf("Created: %s", doc.CreatedDate().Format(displayDate)))
	if doc.RelevantDate != nil {
		pdf.Cell(95, 6, fmt.Sprintf("%s: %s", dateLabel, doc.RelevantDate.Format(displayDate)))
	}
	pdf.Ln(10)

	widths := []float64{60, 20, 20, 30, 25, 35}
	headers := []string{"Item", "Qty", "Unit", "Unit Price", "Tax (%)", "Amount"}
	aligns := []string{"L", "R", "C", "R", "R", "R"}

	pdf.SetFont("Arial", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, item := range doc.Items {
		cells := []string{
			tr(item.Product),
			item.Quantity.String(),
			tr(item.Unit),
			money(item.UnitPrice),
			item.TaxRatePercent.String(),
			money(item.Amount),
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 7, c, "1", 0, aligns[i], false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	for _, row := range []struct {
		label string
		value decimal.Decimal
	}{
		{"Subtotal", doc.Subtotal},
		{"Tax", doc.Tax},
		{"Total", doc.Total},
	} {
		pdf.Cell(155, 8, row.label)
		pdf.CellFormat(35, 8, money(row.value), "1", 1, "R", false, 0, "")
	}

	if doc.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(190, 6, "Notes")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(190, 5, tr(doc.Notes), "", "L", false)
	}

	return output(pdf)
}

// RenderRequest prints a request and its approval as a one-page document
func (r *PDFRenderer) RenderRequest(req *finance.DocumentRequest) ([]byte, error) {
	pdf, tr := r.newPage(string(req.DocumentType))

	rows := [][2]string{
		{"Request Number", req.RequestNumber},
		{"Project", req.Project},
		{"Amount", money(req.Amount)},
		{"Requested By", req.RequestedBy},
		{"Request Date", req.RequestDate.Format(displayDate)},
		{"Status", string(req.Status)},
	}
	if req.ApprovalDate != nil {
		rows = append(rows,
			[2]string{"Approved By", req.ApprovedBy},
			[2]string{"Approval Date", req.ApprovalDate.Format(displayDate)},
		)
	}

	for _, row := range rows {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(50, 7, row[0], "1", 0, "L", true, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(140, 7, tr(row[1]), "1", 1, "L", false, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(190, 6, "Description")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(190, 5, tr(req.Description), "", "L", false)

	return output(pdf)
}

// newPage starts an A4 page with the company line and title.
// The returned translator maps UTF-8 text to the core font encoding.
func (r *PDFRenderer) newPage(title string) (*gofpdf.Fpdf, func(string) string) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(r.now())
	pdf.SetTitle(title, true)
	pdf.SetMargins(10, 10, 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if r.CompanyName != "" {
		pdf.SetFont("Arial", "", 9)
		pdf.Cell(190, 5, tr(r.CompanyName))
		pdf.Ln(6)
	}
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(190, 10, tr(title))
	pdf.Ln(14)
	return pdf, tr
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
