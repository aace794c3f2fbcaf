package finance

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oneflow/backend/internal/domain/finance"
	"github.com/oneflow/backend/internal/domain/shared"
	"github.com/oneflow/backend/internal/infrastructure/persistence/memory"
	"github.com/oneflow/backend/internal/infrastructure/tabular"
)

// keyStore is a minimal idempotency store without expiry
type keyStore struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newKeyStore() *keyStore { return &keyStore{keys: map[string]bool{}} }

func (s *keyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *keyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[key], nil
}

func (s *keyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

func (s *keyStore) Close() error { return nil }

type reconcilerFixture struct {
	rec       *Reconciler
	documents *memory.DocumentRepository
	expenses  *memory.ExpenseRepository
	requests  *memory.DocumentRequestRepository
	keys      *keyStore
}

func newReconciler(t *testing.T, maxRows int) reconcilerFixture {
	t.Helper()
	f := reconcilerFixture{
		documents: memory.NewDocumentRepository(),
		expenses:  memory.NewExpenseRepository(),
		requests:  memory.NewDocumentRequestRepository(),
		keys:      newKeyStore(),
	}
	f.rec = NewReconciler(f.documents, f.expenses, f.requests, fixedNumbers(), f.keys,
		ReconcilerConfig{MaxRows: maxRows}, zap.NewNop())
	f.rec.SetClock(func() time.Time { return fixedNow })
	return f
}

func TestParseFamily(t *testing.T) {
	tests := []struct {
		raw     string
		want    Family
		wantErr bool
	}{
		{"invoices", FamilyInvoices, false},
		{"SalesOrder", FamilySalesOrders, false},
		{"vendor_bill", FamilyVendorBills, false},
		{"expenses", FamilyExpenses, false},
		{"Expense", FamilyExpenses, false},
		{"requests", FamilyRequests, false},
		{"timesheets", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseFamily(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAliases(t *testing.T) {
	assert.Equal(t,
		[]string{"Invoice Number", "InvoiceNumber", "invoiceNumber", "invoice_number"},
		aliases("Invoice Number"))
	assert.Equal(t, []string{"Amount", "amount"}, aliases("Amount"))
}

func TestReconciler_ImportMinimalInvoiceRow(t *testing.T) {
	ctx := context.Background()
	f := newReconciler(t, 0)

	result, err := f.rec.Import(ctx, FamilyInvoices, []map[string]string{
		{"Customer": "Acme Corp", "Amount": "1,250.50"},
	}, "")
	require.NoError(t, err)
	require.Equal(t, 1, result.Imported)

	doc, err := f.documents.FindByID(ctx, result.IDs[0])
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-007", doc.Number)
	assert.Equal(t, "Acme Corp", doc.Counterpart)
	assert.Equal(t, "General", doc.Project)
	assert.Equal(t, finance.DocumentStatusDraft, doc.Status)
	require.Len(t, doc.Items, 1)
	item := doc.Items[0]
	assert.Equal(t, "Imported Item", item.Product)
	assert.True(t, item.Quantity.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "1250.50", item.UnitPrice.StringFixed(2))
	assert.True(t, item.TaxRatePercent.IsZero())
	assert.Equal(t, "1250.50", doc.Total.StringFixed(2))
}

func TestReconciler_ImportDefaultsAndFallbacks(t *testing.T) {
	ctx := context.Background()
	f := newReconciler(t, 0)

	result, err := f.rec.Import(ctx, FamilyVendorBills, []map[string]string{
		{},
		{"bill_number": "B-1", "SUPPLIER": "Steel", "Subtotal": "1000", "Tax Amount": "180", "Status": "pending", "Due Date": "2025-04-30"},
		{"Bill Number": "B-1", "Vendor": "   ", "Total": "99", "Status": "Shipped", "Created Date": "03/15/2025"},
	}, "")
	require.NoError(t, err)
	require.Equal(t, 2, result.Imported)

	first, err := f.documents.FindByID(ctx, result.IDs[0])
	require.NoError(t, err)
	assert.Equal(t, "B-1", first.Number)
	assert.Equal(t, "Steel", first.Counterpart)
	assert.Equal(t, finance.DocumentStatusPending, first.Status)
	assert.Equal(t, "18", first.Items[0].TaxRatePercent.String())
	assert.Equal(t, "1180.00", first.Total.StringFixed(2))
	require.NotNil(t, first.RelevantDate)
	assert.Equal(t, "2025-04-30", first.RelevantDate.Format(dateLayout))

	second, err := f.documents.FindByID(ctx, result.IDs[1])
	require.NoError(t, err)
	assert.Equal(t, "B-1", second.Number, "numbers are labels and may repeat")
	assert.Equal(t, "Unknown", second.Counterpart)
	assert.Equal(t, finance.DocumentStatusDraft, second.Status)
	assert.Equal(t, "99.00", second.Total.StringFixed(2))
	assert.Equal(t, "2025-03-15", second.CreatedDate().Format(dateLayout))
}

func TestReconciler_ExactAliasBeatsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	f := newReconciler(t, 0)

	result, err := f.rec.Import(ctx, FamilySalesOrders, []map[string]string{
		{"customer": "lower", "Customer": "Exact", "PROJECT NAME": "Plant"},
	}, "")
	require.NoError(t, err)

	doc, err := f.documents.FindByID(ctx, result.IDs[0])
	require.NoError(t, err)
	assert.Equal(t, "Exact", doc.Counterpart)
	assert.Equal(t, "Plant", doc.Project)
}

func TestReconciler_ImportExpenses(t *testing.T) {
	ctx := context.Background()
	f := newReconciler(t, 0)

	result, err := f.rec.Import(ctx, FamilyExpenses, []map[string]string{
		{"Title": "Taxi", "Amount": "23.456", "Date": "2025-02-01", "Category": "TRAVEL", "Merchant": "Cabs Ltd"},
		{"Amount": "10"},
	}, "")
	require.NoError(t, err)
	require.Equal(t, 2, result.Imported)

	all, err := f.expenses.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "23.46", all[0].Amount.StringFixed(2))
	assert.Equal(t, finance.ExpenseCategoryTravel, all[0].Category)
	assert.Equal(t, "Cabs Ltd", all[0].Vendor)
	assert.Equal(t, "Imported Expense", all[1].Title)
	assert.Equal(t, "General", all[1].Project)
	assert.True(t, all[1].Date.Equal(fixedNow))
}

func TestReconciler_IdempotencyKey(t *testing.T) {
	ctx := context.Background()
	f := newReconciler(t, 0)
	rows := []map[string]string{{"Customer": "Acme", "Amount": "10"}}

	_, err := f.rec.Import(ctx, FamilyInvoices, rows, "batch-1")
	require.NoError(t, err)

	_, err = f.rec.Import(ctx, FamilyInvoices, rows, "batch-1")
	assert.ErrorIs(t, err, shared.ErrDuplicateImport)

	_, err = f.rec.Import(ctx, FamilySalesOrders, rows, "batch-1")
	require.NoError(t, err, "keys are scoped per family")

	docs, err := f.documents.FindAll(ctx, finance.DocumentTypeInvoice)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestReconciler_FailedImportWritesNothingAndReleasesKey(t *testing.T) {
	ctx := context.Background()
	f := newReconciler(t, 2)
	rows := []map[string]string{
		{"Customer": "A"}, {"Customer": "B"}, {"Customer": "C"},
	}

	_, err := f.rec.Import(ctx, FamilyInvoices, rows, "batch-2")
	assert.ErrorIs(t, err, shared.ErrImportFailed)

	docs, err := f.documents.FindAll(ctx, finance.DocumentTypeInvoice)
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = f.rec.ImportFile(ctx, FamilyInvoices, tabular.FormatCSV,
		strings.NewReader("Customer\nA\nB\n"), "batch-2")
	require.NoError(t, err)
}

func TestReconciler_ImportFileRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	f := newReconciler(t, 0)

	_, err := f.rec.ImportFile(ctx, FamilyInvoices, tabular.FormatCSV, strings.NewReader(""), "")
	assert.ErrorIs(t, err, shared.ErrImportFailed)

	_, err = f.rec.ImportFile(ctx, FamilyRequests, tabular.FormatCSV, strings.NewReader("Project\nx\n"), "")
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "UNSUPPORTED_IMPORT", de.Code)
}

func TestReconciler_CancelledImport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := newReconciler(t, 0)

	_, err := f.rec.Import(ctx, FamilyInvoices, []map[string]string{{"Customer": "A"}}, "k")
	assert.ErrorIs(t, err, context.Canceled)

	processed, err := f.keys.IsProcessed(context.Background(), "import:invoices:k")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestReconciler_ExportColumns(t *testing.T) {
	ctx := context.Background()
	f := newReconciler(t, 0)
	svc := NewDocumentService(f.documents, fixedNumbers(), nil, nil, zap.NewNop())
	due := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Create(ctx, finance.DocumentTypeInvoice, CreateDocumentRequest{
		Counterpart:  "Acme, Inc.",
		Project:      "Website",
		RelevantDate: &due,
		Items:        []LineItemInput{{Product: "Design", Quantity: num("1"), UnitPrice: num("100"), TaxRatePercent: num("18")}},
	})
	require.NoError(t, err)

	header, records, err := f.rec.Table(ctx, admin, FamilyInvoices)
	require.NoError(t, err)
	assert.Equal(t, []string{"Invoice Number", "Customer", "Subtotal", "Tax Amount", "Total", "Due Date", "Status", "Created Date"}, header)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"Acme, Inc.", "100.00", "18.00", "118.00", "2025-04-01", "Draft"}, records[0][1:7])

	var buf bytes.Buffer
	require.NoError(t, f.rec.Export(ctx, admin, FamilyInvoices, tabular.FormatCSV, &buf))
	assert.True(t, strings.HasPrefix(buf.String(), "Invoice Number,Customer,Subtotal"))
	assert.Contains(t, buf.String(), `"Acme, Inc."`)

	assert.Equal(t, "invoices-2025-03-01.xlsx", f.rec.ExportFileName(FamilyInvoices, tabular.FormatXLSX))
}

func TestReconciler_ExportRequestsRespectsVisibility(t *testing.T) {
	ctx := context.Background()
	f := newReconciler(t, 0)
	requests := NewRequestService(f.requests, fixedNumbers(), nil, nil, zap.NewNop())
	for _, actor := range []finance.Actor{member, other} {
		_, err := requests.Create(ctx, actor, CreateDocumentRequestInput{
			DocumentType: "Receipt", Project: "Website", Amount: num("5"), Description: "taxi",
		})
		require.NoError(t, err)
	}

	header, records, err := f.rec.Table(ctx, member, FamilyRequests)
	require.NoError(t, err)
	assert.Equal(t, "Request Number", header[0])
	require.Len(t, records, 1)
	assert.Equal(t, "bob", records[0][4])

	_, records, err = f.rec.Table(ctx, manager, FamilyRequests)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestReconciler_ExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := newReconciler(t, 0)
	svc := NewDocumentService(source.documents, fixedNumbers(), nil, nil, zap.NewNop())

	inputs := []CreateDocumentRequest{
		{Counterpart: "Acme", Project: "Website", Status: "Sent", Items: []LineItemInput{
			{Product: "Design", Quantity: num("3"), UnitPrice: num("333.33"), TaxRatePercent: num("7.5")},
			{Product: "Hosting", Quantity: num("1"), UnitPrice: num("19.99"), TaxRatePercent: num("20")},
		}},
		{Counterpart: "Globex", Project: "Plant", Status: "Paid", Items: []LineItemInput{
			{Product: "Audit", Quantity: num("1"), UnitPrice: num("45000"), TaxRatePercent: num("18")},
			{Product: "Travel", Quantity: num("5"), UnitPrice: num("2000"), TaxRatePercent: num("18")},
		}},
		{Counterpart: "Umbrella", Project: "Plant", Items: []LineItemInput{
			{Product: "Turbine", Quantity: num("1"), UnitPrice: num("100000000"), TaxRatePercent: num("18")},
			{Product: "Bolt", Quantity: num("1"), UnitPrice: num("1"), TaxRatePercent: num("5")},
		}},
		{Counterpart: "Initech", Project: "Website"},
	}
	for _, in := range inputs {
		_, err := svc.Create(ctx, finance.DocumentTypeInvoice, in)
		require.NoError(t, err)
	}

	for _, format := range []tabular.Format{tabular.FormatCSV, tabular.FormatXLSX} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, source.rec.Export(ctx, admin, FamilyInvoices, format, &buf))

			target := newReconciler(t, 0)
			result, err := target.rec.ImportFile(ctx, FamilyInvoices, format, &buf, "")
			require.NoError(t, err)
			require.Equal(t, len(inputs), result.Imported)

			want, err := source.documents.FindAll(ctx, finance.DocumentTypeInvoice)
			require.NoError(t, err)
			got, err := target.documents.FindAll(ctx, finance.DocumentTypeInvoice)
			require.NoError(t, err)
			require.Len(t, got, len(want))

			tolerance := decimal.RequireFromString("0.01")
			for i := range want {
				assert.Equal(t, want[i].Number, got[i].Number)
				assert.Equal(t, want[i].Counterpart, got[i].Counterpart)
				assert.Equal(t, want[i].Status, got[i].Status)
				assert.True(t, want[i].Total.Sub(got[i].Total).Abs().LessThanOrEqual(tolerance),
					"total %s vs %s", want[i].Total, got[i].Total)
				assert.Equal(t, want[i].Subtotal.StringFixed(2), got[i].Subtotal.StringFixed(2))
				assert.Equal(t, want[i].Tax.StringFixed(2), got[i].Tax.StringFixed(2))
			}
		})
	}
}

func TestReconciler_ImportLogsUnknownProjects(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.WarnLevel)
	f := newReconciler(t, 0)
	f.rec.logger = zap.New(core)
	f.rec.SetProjectDirectory(finance.NewStaticProjectDirectory([]string{"Website"}))

	result, err := f.rec.Import(ctx, FamilySalesOrders, []map[string]string{
		{"Customer": "Acme", "Project": "Website", "Subtotal": "100"},
		{"Customer": "Globex", "Project": "Moonbase", "Subtotal": "200"},
	}, "")
	require.NoError(t, err)
	require.Equal(t, 2, result.Imported, "unknown projects are logged, not rejected")

	_, err = f.rec.Import(ctx, FamilyExpenses, []map[string]string{
		{"Title": "Taxi", "Amount": "12", "Project": "Atlantis"},
	}, "")
	require.NoError(t, err)

	entries := logs.FilterMessage("record references unknown project").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "sales-orders", entries[0].ContextMap()["family"])
	assert.Equal(t, result.IDs[1].String(), entries[0].ContextMap()["record_id"])
	assert.Equal(t, "Moonbase", entries[0].ContextMap()["project"])
	assert.Equal(t, "expenses", entries[1].ContextMap()["family"])
	assert.Equal(t, "Atlantis", entries[1].ContextMap()["project"])
}
