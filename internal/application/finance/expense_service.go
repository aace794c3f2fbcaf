package finance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oneflow/backend/internal/domain/finance"
	"github.com/oneflow/backend/internal/domain/shared"
)

// ExpenseService handles expense records
type ExpenseService struct {
	repo     finance.ExpenseRepository
	projects finance.ProjectDirectory
	logger   *zap.Logger
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(repo finance.ExpenseRepository, projects finance.ProjectDirectory, logger *zap.Logger) *ExpenseService {
	if projects == nil {
		projects = finance.AllowAllProjects{}
	}
	return &ExpenseService{repo: repo, projects: projects, logger: logger}
}

// Create records a new expense
func (s *ExpenseService) Create(ctx context.Context, req ExpenseRequest) (*ExpenseResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	e, err := finance.NewExpense(req.details())
	if err != nil {
		return nil, err
	}
	reportUnknownProject(ctx, s.projects, s.logger, "expenses", e.ID, e.Project)

	if err := s.repo.Add(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to save expense: %w", err)
	}
	resp := ToExpenseResponse(e)
	return &resp, nil
}

// GetByID retrieves an expense
func (s *ExpenseService) GetByID(ctx context.Context, id uuid.UUID) (*ExpenseResponse, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToExpenseResponse(e)
	return &resp, nil
}

// List returns one page of expenses in insertion order
func (s *ExpenseService) List(ctx context.Context, filter ExpenseListFilter) (shared.Paginated[ExpenseResponse], error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return shared.Paginated[ExpenseResponse]{}, err
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]ExpenseResponse, 0, len(all))
	for _, e := range all {
		if filter.Category != "" && !strings.EqualFold(string(e.Category), filter.Category) {
			continue
		}
		if filter.Project != "" && !strings.EqualFold(e.Project, filter.Project) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(e.Title), search) &&
			!strings.Contains(strings.ToLower(e.Vendor), search) {
			continue
		}
		out = append(out, ToExpenseResponse(e))
	}
	return shared.Paginate(out, shared.Filter{Page: filter.Page, PageSize: filter.PageSize}), nil
}

// Update replaces every field of an expense
func (s *ExpenseService) Update(ctx context.Context, id uuid.UUID, req ExpenseRequest) (*ExpenseResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(e.Version, req.Version); err != nil {
		return nil, err
	}

	details := req.details()
	if req.Date == nil {
		details.Date = e.Date
	}
	if err := e.Update(details); err != nil {
		return nil, err
	}
	reportUnknownProject(ctx, s.projects, s.logger, "expenses", e.ID, e.Project)

	if err := s.repo.Replace(ctx, e); err != nil {
		return nil, err
	}
	resp := ToExpenseResponse(e)
	return &resp, nil
}

// Delete removes an expense
func (s *ExpenseService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Remove(ctx, id)
}

func (req ExpenseRequest) details() finance.ExpenseDetails {
	var date time.Time
	if req.Date != nil {
		date = *req.Date
	}
	return finance.ExpenseDetails{
		Title:         req.Title,
		Amount:        req.Amount.Decimal,
		Date:          date,
		Category:      finance.ParseExpenseCategory(req.Category),
		Project:       req.Project,
		Vendor:        req.Vendor,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}
}
