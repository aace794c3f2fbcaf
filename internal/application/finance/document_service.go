package finance

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oneflow/backend/internal/domain/finance"
	"github.com/oneflow/backend/internal/domain/shared"
)

// DocumentService handles sales orders, purchase orders, invoices and vendor bills
type DocumentService struct {
	repo           finance.DocumentRepository
	numbers        *finance.NumberGenerator
	policy         finance.TransitionPolicy
	projects       finance.ProjectDirectory
	eventPublisher shared.EventPublisher
	renderer       DocumentRenderer
	logger         *zap.Logger
}

// NewDocumentService creates a new DocumentService.
// A nil policy means any status of the type may follow any other.
func NewDocumentService(
	repo finance.DocumentRepository,
	numbers *finance.NumberGenerator,
	policy finance.TransitionPolicy,
	projects finance.ProjectDirectory,
	logger *zap.Logger,
) *DocumentService {
	if policy == nil {
		policy = finance.PermissiveTransitions{}
	}
	if projects == nil {
		projects = finance.AllowAllProjects{}
	}
	return &DocumentService{
		repo:           repo,
		numbers:        numbers,
		policy:         policy,
		projects:       projects,
		eventPublisher: shared.NoopEventPublisher{},
		logger:         logger,
	}
}

// SetEventPublisher sets the publisher that receives document events
func (s *DocumentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetRenderer sets the PDF renderer used by RenderPDF
func (s *DocumentService) SetRenderer(renderer DocumentRenderer) {
	s.renderer = renderer
}

// Calculate previews item amounts and document totals without storing anything.
// Unlike Create it does not require a product on each line.
func (s *DocumentService) Calculate(req CalculateRequest) TotalsResponse {
	items := make([]finance.LineItem, len(req.Items))
	for i, in := range req.Items {
		items[i] = finance.LineItem{
			Product:        in.Product,
			Description:    in.Description,
			Quantity:       in.Quantity.Decimal,
			Unit:           in.Unit,
			UnitPrice:      in.UnitPrice.Decimal,
			TaxRatePercent: in.TaxRatePercent.Decimal,
		}
		items[i].Recalculate()
	}

	totals := finance.ComputeDocumentTotals(items)
	resp := TotalsResponse{
		Items:    make([]LineItemResponse, len(items)),
		Subtotal: totals.Subtotal,
		Tax:      totals.Tax,
		Total:    totals.Total,
	}
	for i, item := range items {
		resp.Items[i] = ToLineItemResponse(item)
	}
	return resp
}

// Create creates a document of the given type
func (s *DocumentService) Create(ctx context.Context, docType finance.DocumentType, req CreateDocumentRequest) (*DocumentResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	number := strings.TrimSpace(req.Number)
	if number == "" {
		number = s.numbers.ForDocument(docType)
	}

	doc, err := finance.NewDocument(docType, number, req.Counterpart, req.Project)
	if err != nil {
		return nil, err
	}
	if err := doc.UpdateHeader(req.Counterpart, req.Project, req.RelevantDate, req.Notes); err != nil {
		return nil, err
	}

	items, err := lineItemsFromInput(req.Items)
	if err != nil {
		return nil, err
	}
	doc.ReplaceItems(items)

	if req.Status != "" {
		if err := s.changeStatus(doc, req.Status); err != nil {
			return nil, err
		}
	}

	reportUnknownProject(ctx, s.projects, s.logger, docType.Slug(), doc.ID, doc.Project)

	if err := s.repo.Add(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}
	publishEvents(ctx, s.eventPublisher, s.logger, doc.PullDomainEvents())

	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// GetByID retrieves a document; a document of another type is reported as not found
func (s *DocumentService) GetByID(ctx context.Context, docType finance.DocumentType, id uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.load(ctx, docType, id)
	if err != nil {
		return nil, err
	}
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// List returns one page of documents of a type in insertion order
func (s *DocumentService) List(ctx context.Context, docType finance.DocumentType, filter DocumentListFilter) (shared.Paginated[DocumentResponse], error) {
	docs, err := s.repo.FindAll(ctx, docType)
	if err != nil {
		return shared.Paginated[DocumentResponse]{}, err
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		if filter.Status != "" && !strings.EqualFold(string(doc.Status), filter.Status) {
			continue
		}
		if filter.Project != "" && !strings.EqualFold(doc.Project, filter.Project) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(doc.Number), search) &&
			!strings.Contains(strings.ToLower(doc.Counterpart), search) {
			continue
		}
		out = append(out, ToDocumentResponse(doc))
	}

	return shared.Paginate(out, shared.Filter{Page: filter.Page, PageSize: filter.PageSize}), nil
}

// Update edits the header and optionally replaces all items
func (s *DocumentService) Update(ctx context.Context, docType finance.DocumentType, id uuid.UUID, req UpdateDocumentRequest) (*DocumentResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	doc, err := s.load(ctx, docType, id)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(doc.Version, req.Version); err != nil {
		return nil, err
	}

	if err := doc.UpdateHeader(req.Counterpart, req.Project, req.RelevantDate, req.Notes); err != nil {
		return nil, err
	}
	if req.Items != nil {
		items, err := lineItemsFromInput(*req.Items)
		if err != nil {
			return nil, err
		}
		doc.ReplaceItems(items)
	}

	reportUnknownProject(ctx, s.projects, s.logger, docType.Slug(), doc.ID, doc.Project)

	if err := s.repo.Replace(ctx, doc); err != nil {
		return nil, err
	}
	publishEvents(ctx, s.eventPublisher, s.logger, doc.PullDomainEvents())

	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// ChangeStatus moves a document to another status of its type
func (s *DocumentService) ChangeStatus(ctx context.Context, docType finance.DocumentType, id uuid.UUID, req ChangeStatusRequest) (*DocumentResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	doc, err := s.load(ctx, docType, id)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(doc.Version, req.Version); err != nil {
		return nil, err
	}
	if err := s.changeStatus(doc, req.Status); err != nil {
		return nil, err
	}

	if err := s.repo.Replace(ctx, doc); err != nil {
		return nil, err
	}
	publishEvents(ctx, s.eventPublisher, s.logger, doc.PullDomainEvents())

	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// Delete removes a document
func (s *DocumentService) Delete(ctx context.Context, docType finance.DocumentType, id uuid.UUID) error {
	if _, err := s.load(ctx, docType, id); err != nil {
		return err
	}
	return s.repo.Remove(ctx, id)
}

// RenderPDF renders a document and returns the bytes with a download file name
func (s *DocumentService) RenderPDF(ctx context.Context, docType finance.DocumentType, id uuid.UUID) ([]byte, string, error) {
	if s.renderer == nil {
		return nil, "", shared.NewDomainError("RENDERER_UNAVAILABLE", "PDF rendering is not configured")
	}
	doc, err := s.load(ctx, docType, id)
	if err != nil {
		return nil, "", err
	}
	pdf, err := s.renderer.RenderDocument(doc)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render %s: %w", doc.Number, err)
	}
	return pdf, doc.Number + ".pdf", nil
}

func (s *DocumentService) load(ctx context.Context, docType finance.DocumentType, id uuid.UUID) (*finance.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Type != docType {
		return nil, shared.ErrNotFound
	}
	return doc, nil
}

// changeStatus parses raw against the document's own enum before applying the policy
func (s *DocumentService) changeStatus(doc *finance.Document, raw string) error {
	status, ok := doc.Type.ParseStatus(raw)
	if !ok {
		return shared.NewDomainError(shared.ErrInvalidStatus.Code,
			fmt.Sprintf("%q is not a valid status for %s", raw, doc.Type.DisplayName()))
	}
	return doc.ChangeStatus(status, s.policy)
}
