package finance

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/oneflow/backend/internal/domain/finance"
)

// IntegrityService reports records that reference projects the project
// directory does not know
type IntegrityService struct {
	documents finance.DocumentRepository
	expenses  finance.ExpenseRepository
	requests  finance.DocumentRequestRepository
	projects  finance.ProjectDirectory
	logger    *zap.Logger
}

// NewIntegrityService creates a new IntegrityService
func NewIntegrityService(
	documents finance.DocumentRepository,
	expenses finance.ExpenseRepository,
	requests finance.DocumentRequestRepository,
	projects finance.ProjectDirectory,
	logger *zap.Logger,
) *IntegrityService {
	if projects == nil {
		projects = finance.AllowAllProjects{}
	}
	return &IntegrityService{
		documents: documents,
		expenses:  expenses,
		requests:  requests,
		projects:  projects,
		logger:    logger,
	}
}

// Check scans every document family, the expenses and the document requests
func (s *IntegrityService) Check(ctx context.Context) (*IntegrityReport, error) {
	report := &IntegrityReport{Dangling: []DanglingReference{}}
	known := map[string]bool{}

	exists := func(project string) (bool, error) {
		key := strings.ToLower(strings.TrimSpace(project))
		if ok, seen := known[key]; seen {
			return ok, nil
		}
		ok, err := s.projects.Exists(ctx, project)
		if err != nil {
			return false, err
		}
		known[key] = ok
		return ok, nil
	}

	flag := func(family, id, number, project string) error {
		report.Checked++
		ok, err := exists(project)
		if err != nil {
			return err
		}
		if !ok {
			report.Dangling = append(report.Dangling, DanglingReference{
				Family:   family,
				RecordID: id,
				Number:   number,
				Project:  project,
			})
		}
		return nil
	}

	for _, docType := range finance.AllDocumentTypes {
		docs, err := s.documents.FindAll(ctx, docType)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			if err := flag(docType.Slug(), doc.ID.String(), doc.Number, doc.Project); err != nil {
				return nil, err
			}
		}
	}

	expenses, err := s.expenses.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range expenses {
		if err := flag("expenses", e.ID.String(), e.Title, e.Project); err != nil {
			return nil, err
		}
	}

	if s.requests != nil {
		requests, err := s.requests.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		for _, req := range requests {
			if err := flag("requests", req.ID.String(), req.RequestNumber, req.Project); err != nil {
				return nil, err
			}
		}
	}

	if len(report.Dangling) > 0 {
		s.logger.Warn("records reference unknown projects", zap.Int("count", len(report.Dangling)))
	}
	return report, nil
}
