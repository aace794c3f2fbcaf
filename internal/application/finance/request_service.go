package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oneflow/backend/internal/domain/finance"
	"github.com/oneflow/backend/internal/domain/shared"
	"github.com/oneflow/backend/internal/infrastructure/telemetry"
)

const defaultDownloadExpiry = 15 * time.Minute

// RequestService runs the document request approval workflow.
// Role checks happen inside the domain operations; the service adds
// visibility rules and the storage side of approved documents.
type RequestService struct {
	repo           finance.DocumentRequestRepository
	numbers        *finance.NumberGenerator
	projects       finance.ProjectDirectory
	storage        ObjectStorage
	renderer       DocumentRenderer
	eventPublisher shared.EventPublisher
	downloadExpiry time.Duration
	now            func() time.Time
	logger         *zap.Logger
}

// NewRequestService creates a new RequestService
func NewRequestService(
	repo finance.DocumentRequestRepository,
	numbers *finance.NumberGenerator,
	projects finance.ProjectDirectory,
	storage ObjectStorage,
	logger *zap.Logger,
) *RequestService {
	if projects == nil {
		projects = finance.AllowAllProjects{}
	}
	return &RequestService{
		repo:           repo,
		numbers:        numbers,
		projects:       projects,
		storage:        storage,
		eventPublisher: shared.NoopEventPublisher{},
		downloadExpiry: defaultDownloadExpiry,
		now:            time.Now,
		logger:         logger,
	}
}

// SetEventPublisher sets the publisher that receives request events
func (s *RequestService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetRenderer makes approval render and upload the requested document
func (s *RequestService) SetRenderer(renderer DocumentRenderer) {
	s.renderer = renderer
}

// SetDownloadExpiry sets how long download links stay valid
func (s *RequestService) SetDownloadExpiry(d time.Duration) {
	if d > 0 {
		s.downloadExpiry = d
	}
}

// SetClock replaces the time source
func (s *RequestService) SetClock(now func() time.Time) {
	s.now = now
}

// Create files a new Pending request on behalf of the actor
func (s *RequestService) Create(ctx context.Context, actor finance.Actor, in CreateDocumentRequestInput) (*DocumentRequestResponse, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	docType, ok := finance.ParseRequestDocumentType(in.DocumentType)
	if !ok {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_TYPE",
			fmt.Sprintf("Unknown document type: %s", in.DocumentType))
	}

	req, err := finance.NewDocumentRequest(s.numbers.ForRequest(), actor.Username, docType,
		in.Project, in.Amount.Decimal, in.Description, s.now())
	if err != nil {
		return nil, err
	}
	reportUnknownProject(ctx, s.projects, s.logger, "requests", req.ID, req.Project)

	if err := s.repo.Add(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to save document request: %w", err)
	}
	publishEvents(ctx, s.eventPublisher, s.logger, req.PullDomainEvents())

	resp := ToDocumentRequestResponse(req)
	return &resp, nil
}

// GetByID retrieves a request the actor is allowed to see
func (s *RequestService) GetByID(ctx context.Context, actor finance.Actor, id uuid.UUID) (*DocumentRequestResponse, error) {
	req, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := ToDocumentRequestResponse(req)
	return &resp, nil
}

// List returns the requests visible to the actor, optionally filtered by status
func (s *RequestService) List(ctx context.Context, actor finance.Actor, filter RequestListFilter) (shared.Paginated[DocumentRequestResponse], error) {
	reqs, err := s.Visible(ctx, actor)
	if err != nil {
		return shared.Paginated[DocumentRequestResponse]{}, err
	}

	out := make([]DocumentRequestResponse, 0, len(reqs))
	for _, req := range reqs {
		if filter.Status != "" && string(req.Status) != filter.Status {
			continue
		}
		out = append(out, ToDocumentRequestResponse(req))
	}
	return shared.Paginate(out, shared.Filter{Page: filter.Page, PageSize: filter.PageSize}), nil
}

// Visible returns every request the actor may see, oldest first
func (s *RequestService) Visible(ctx context.Context, actor finance.Actor) ([]*finance.DocumentRequest, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, req := range all {
		if req.VisibleTo(actor) {
			out = append(out, req)
		}
	}
	return out, nil
}

// Approve approves a Pending request. When a renderer is configured the
// document is rendered and stored under the request's download reference.
func (s *RequestService) Approve(ctx context.Context, actor finance.Actor, id uuid.UUID) (_ *DocumentRequestResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document_request", "approve")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrRequestNumber, req.RequestNumber)
	if err := req.Approve(actor, s.now()); err != nil {
		return nil, err
	}

	if s.renderer != nil && s.storage != nil {
		pdf, err := s.renderer.RenderRequest(req)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", req.RequestNumber, err)
		}
		if err := s.storage.PutObject(ctx, req.DownloadRef, "application/pdf", pdf); err != nil {
			return nil, fmt.Errorf("failed to store %s: %w", req.DownloadRef, err)
		}
	}

	if err := s.repo.Replace(ctx, req); err != nil {
		return nil, err
	}
	publishEvents(ctx, s.eventPublisher, s.logger, req.PullDomainEvents())

	s.logger.Info("document request approved",
		zap.String("request_number", req.RequestNumber),
		zap.String("approved_by", actor.Username),
	)
	resp := ToDocumentRequestResponse(req)
	return &resp, nil
}

// Reject rejects a Pending request with a reason
func (s *RequestService) Reject(ctx context.Context, actor finance.Actor, id uuid.UUID, in RejectDocumentRequestInput) (*DocumentRequestResponse, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.Reject(actor, in.Reason, s.now()); err != nil {
		return nil, err
	}

	if err := s.repo.Replace(ctx, req); err != nil {
		return nil, err
	}
	publishEvents(ctx, s.eventPublisher, s.logger, req.PullDomainEvents())

	resp := ToDocumentRequestResponse(req)
	return &resp, nil
}

// Download returns a time-limited link to an approved request's document.
// Only the requester and approvers may download.
func (s *RequestService) Download(ctx context.Context, actor finance.Actor, id uuid.UUID) (*DownloadResponse, error) {
	req, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.Status != finance.RequestStatusApproved {
		return nil, shared.NewDomainError(shared.ErrInvalidState.Code,
			fmt.Sprintf("Request %s is %s; only approved requests can be downloaded", req.RequestNumber, req.Status))
	}
	if !req.CanDownload(actor) {
		return nil, shared.ErrForbidden
	}
	if s.storage == nil {
		return nil, shared.NewDomainError("STORAGE_UNAVAILABLE", "Object storage is not configured")
	}

	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, req.DownloadRef, s.downloadExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign download link: %w", err)
	}
	return &DownloadResponse{URL: url, Ref: req.DownloadRef, ExpiresAt: expiresAt}, nil
}

func (s *RequestService) loadVisible(ctx context.Context, actor finance.Actor, id uuid.UUID) (*finance.DocumentRequest, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.VisibleTo(actor) {
		return nil, shared.ErrForbidden
	}
	return req, nil
}
