package finance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oneflow/backend/internal/domain/finance"
	"github.com/oneflow/backend/internal/domain/shared"
	"github.com/oneflow/backend/internal/infrastructure/tabular"
	"github.com/oneflow/backend/internal/infrastructure/telemetry"
)

// Family names one importable or exportable record collection
type Family string

const (
	FamilySalesOrders    Family = "sales-orders"
	FamilyPurchaseOrders Family = "purchase-orders"
	FamilyInvoices       Family = "invoices"
	FamilyVendorBills    Family = "vendor-bills"
	FamilyExpenses       Family = "expenses"
	FamilyRequests       Family = "requests"
)

// ErrUnknownFamily is returned for an unrecognized record family
var ErrUnknownFamily = shared.NewDomainError("INVALID_DOCUMENT_TYPE", "Unknown record type")

// ParseFamily accepts a document type in any spelling ParseDocumentType does,
// "expenses" or "requests"
func ParseFamily(raw string) (Family, error) {
	if t, ok := finance.ParseDocumentType(raw); ok {
		return Family(t.Slug()), nil
	}
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.TrimSuffix(strings.NewReplacer("_", "-", " ", "-").Replace(key), "s")
	switch key {
	case "expense":
		return FamilyExpenses, nil
	case "request", "document-request":
		return FamilyRequests, nil
	}
	return "", ErrUnknownFamily
}

// DocumentType returns the document type behind a document family
func (f Family) DocumentType() (finance.DocumentType, bool) {
	for _, t := range finance.AllDocumentTypes {
		if t.Slug() == string(f) {
			return t, true
		}
	}
	return "", false
}

// Importable reports whether rows of this family can be imported.
// Requests only move through the approval workflow.
func (f Family) Importable() bool {
	return f != FamilyRequests
}

// Reconciler maps records to and from header-keyed tables
type Reconciler struct {
	documents   finance.DocumentRepository
	expenses    finance.ExpenseRepository
	requests    finance.DocumentRequestRepository
	numbers     *finance.NumberGenerator
	projects    finance.ProjectDirectory
	idempotency shared.IdempotencyStore
	publisher   shared.EventPublisher
	keyTTL      time.Duration
	maxRows     int
	now         func() time.Time
	logger      *zap.Logger
}

// ReconcilerConfig holds the import limits
type ReconcilerConfig struct {
	MaxRows        int
	IdempotencyTTL time.Duration
}

// NewReconciler creates a new Reconciler. idempotency may be nil, which
// disables duplicate-import detection.
func NewReconciler(
	documents finance.DocumentRepository,
	expenses finance.ExpenseRepository,
	requests finance.DocumentRequestRepository,
	numbers *finance.NumberGenerator,
	idempotency shared.IdempotencyStore,
	cfg ReconcilerConfig,
	logger *zap.Logger,
) *Reconciler {
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = shared.DefaultIdempotencyConfig().TTL
	}
	return &Reconciler{
		documents:   documents,
		expenses:    expenses,
		requests:    requests,
		numbers:     numbers,
		projects:    finance.AllowAllProjects{},
		idempotency: idempotency,
		publisher:   shared.NoopEventPublisher{},
		keyTTL:      cfg.IdempotencyTTL,
		maxRows:     cfg.MaxRows,
		now:         time.Now,
		logger:      logger,
	}
}

// SetEventPublisher sets the publisher that receives creation events of imported documents
func (r *Reconciler) SetEventPublisher(publisher shared.EventPublisher) {
	r.publisher = publisher
}

// SetProjectDirectory sets the directory imported project references are
// checked against. Unknown projects are logged, never rejected.
func (r *Reconciler) SetProjectDirectory(projects finance.ProjectDirectory) {
	if projects != nil {
		r.projects = projects
	}
}

// SetClock replaces the time source used for defaulted dates
func (r *Reconciler) SetClock(now func() time.Time) {
	r.now = now
}

// ImportFile parses a CSV or XLSX file and imports its rows.
// Any parse failure is reported as IMPORT_FAILED and nothing is written.
func (r *Reconciler) ImportFile(ctx context.Context, family Family, format tabular.Format, src io.Reader, idempotencyKey string) (*ImportResult, error) {
	if !family.Importable() {
		return nil, unsupportedImport(family)
	}
	table, err := tabular.Read(format, src, tabular.WithMaxRows(r.maxRows))
	if err != nil {
		r.logger.Warn("import file rejected",
			zap.String("family", string(family)),
			zap.String("format", string(format)),
			zap.Error(err),
		)
		return nil, shared.ErrImportFailed
	}
	return r.Import(ctx, family, table.Maps(), idempotencyKey)
}

// Import turns each non-empty row into one record and stores them all in a
// single batch. Either every row is stored or none is.
func (r *Reconciler) Import(ctx context.Context, family Family, rows []map[string]string, idempotencyKey string) (*ImportResult, error) {
	if !family.Importable() {
		return nil, unsupportedImport(family)
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciler", "import",
		telemetry.SpanAttrFamily, string(family),
		telemetry.SpanAttrRows, len(rows),
	)
	defer span.End()

	key, err := r.claimKey(ctx, family, idempotencyKey)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result, err := r.importRows(ctx, family, rows)
	if err != nil {
		r.releaseKey(key)
		telemetry.RecordError(span, err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		r.logger.Error("import failed", zap.String("family", string(family)), zap.Error(err))
		return nil, shared.ErrImportFailed
	}

	r.logger.Info("import committed",
		zap.String("family", string(family)),
		zap.Int("imported", result.Imported),
	)
	return result, nil
}

func (r *Reconciler) importRows(ctx context.Context, family Family, rows []map[string]string) (*ImportResult, error) {
	if r.maxRows > 0 && len(rows) > r.maxRows {
		return nil, fmt.Errorf("%w: %d rows, limit is %d", tabular.ErrTooManyRows, len(rows), r.maxRows)
	}

	now := r.now()
	result := &ImportResult{Family: string(family), IDs: []uuid.UUID{}}

	if family == FamilyExpenses {
		batch := make([]*finance.Expense, 0, len(rows))
		for _, row := range rows {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rr := newRowReader(row)
			if rr.empty() {
				continue
			}
			e, err := expenseFromRow(rr, now)
			if err != nil {
				return nil, err
			}
			batch = append(batch, e)
		}
		if err := r.expenses.AddBatch(ctx, batch); err != nil {
			return nil, err
		}
		for _, e := range batch {
			result.IDs = append(result.IDs, e.ID)
			reportUnknownProject(ctx, r.projects, r.logger, string(family), e.ID, e.Project)
		}
		result.Imported = len(batch)
		return result, nil
	}

	docType, ok := family.DocumentType()
	if !ok {
		return nil, ErrUnknownFamily
	}

	fields := documentFieldsFor(docType)
	batch := make([]*finance.Document, 0, len(rows))
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rr := newRowReader(row)
		if rr.empty() {
			continue
		}
		doc, err := r.documentFromRow(docType, fields, rr, now)
		if err != nil {
			return nil, err
		}
		batch = append(batch, doc)
	}
	if err := r.documents.AddBatch(ctx, batch); err != nil {
		return nil, err
	}

	events := make([]shared.DomainEvent, 0, len(batch))
	for _, doc := range batch {
		result.IDs = append(result.IDs, doc.ID)
		events = append(events, doc.PullDomainEvents()...)
		reportUnknownProject(ctx, r.projects, r.logger, string(family), doc.ID, doc.Project)
	}
	result.Imported = len(batch)
	publishEvents(ctx, r.publisher, r.logger, events)
	return result, nil
}

// Table flattens a family into its export header and records.
// Requests are limited to those visible to the actor.
func (r *Reconciler) Table(ctx context.Context, actor finance.Actor, family Family) ([]string, [][]string, error) {
	switch family {
	case FamilyExpenses:
		all, err := r.expenses.FindAll(ctx)
		if err != nil {
			return nil, nil, err
		}
		records := make([][]string, len(all))
		for i, e := range all {
			records[i] = expenseRecord(e)
		}
		return expenseColumns, records, nil

	case FamilyRequests:
		all, err := r.requests.FindAll(ctx)
		if err != nil {
			return nil, nil, err
		}
		records := make([][]string, 0, len(all))
		for _, req := range all {
			if req.VisibleTo(actor) {
				records = append(records, requestRecord(req))
			}
		}
		return requestColumns, records, nil
	}

	docType, ok := family.DocumentType()
	if !ok {
		return nil, nil, ErrUnknownFamily
	}
	docs, err := r.documents.FindAll(ctx, docType)
	if err != nil {
		return nil, nil, err
	}
	records := make([][]string, len(docs))
	for i, doc := range docs {
		records[i] = documentRecord(doc)
	}
	return documentColumns(docType), records, nil
}

// Export writes a family as CSV or XLSX
func (r *Reconciler) Export(ctx context.Context, actor finance.Actor, family Family, format tabular.Format, w io.Writer) error {
	header, records, err := r.Table(ctx, actor, family)
	if err != nil {
		return err
	}
	return tabular.Write(format, w, sheetName(family), header, records)
}

// ExportFileName returns the download name of an export, e.g. invoices-2025-03-01.csv
func (r *Reconciler) ExportFileName(family Family, format tabular.Format) string {
	return fmt.Sprintf("%s-%s%s", family, r.now().Format(dateLayout), format.Extension())
}

func (r *Reconciler) claimKey(ctx context.Context, family Family, idempotencyKey string) (string, error) {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey == "" || r.idempotency == nil {
		return "", nil
	}
	key := fmt.Sprintf("import:%s:%s", family, idempotencyKey)
	fresh, err := r.idempotency.MarkProcessed(ctx, key, r.keyTTL)
	if err != nil {
		return "", fmt.Errorf("failed to record idempotency key: %w", err)
	}
	if !fresh {
		return "", shared.ErrDuplicateImport
	}
	return key, nil
}

// releaseKey forgets a claimed key so the same file can be retried after a failure
func (r *Reconciler) releaseKey(key string) {
	if key == "" {
		return
	}
	if err := r.idempotency.Release(context.Background(), key); err != nil {
		r.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(err))
	}
}

func sheetName(family Family) string {
	if t, ok := family.DocumentType(); ok {
		return t.DisplayName() + "s"
	}
	if family == FamilyRequests {
		return "Document Requests"
	}
	return "Expenses"
}

func unsupportedImport(family Family) error {
	return shared.NewDomainError("UNSUPPORTED_IMPORT", fmt.Sprintf("%s cannot be imported", family))
}
