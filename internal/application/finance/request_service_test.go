package finance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oneflow/backend/internal/domain/finance"
	"github.com/oneflow/backend/internal/domain/shared"
	"github.com/oneflow/backend/internal/infrastructure/persistence/memory"
)

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (s *fakeStorage) PutObject(_ context.Context, key, _ string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = body
	return nil
}

func (s *fakeStorage) GenerateDownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	return "https://files.test/" + key, fixedNow.Add(expiresIn), nil
}

type fakeRenderer struct{}

func (fakeRenderer) RenderDocument(doc *finance.Document) ([]byte, error) {
	return []byte("%PDF " + doc.Number), nil
}

func (fakeRenderer) RenderRequest(req *finance.DocumentRequest) ([]byte, error) {
	return []byte("%PDF " + req.RequestNumber), nil
}

func newRequestService(t *testing.T, storage ObjectStorage) *RequestService {
	t.Helper()
	svc := NewRequestService(memory.NewDocumentRequestRepository(), fixedNumbers(), nil, storage, zap.NewNop())
	svc.SetClock(func() time.Time { return fixedNow })
	return svc
}

func fileRequest(t *testing.T, svc *RequestService, actor finance.Actor) *DocumentRequestResponse {
	t.Helper()
	req, err := svc.Create(context.Background(), actor, CreateDocumentRequestInput{
		DocumentType: "purchase_order",
		Project:      "Website",
		Amount:       num("1200.456"),
		Description:  "Laptops for the design team",
	})
	require.NoError(t, err)
	return req
}

func TestRequestService_Create(t *testing.T) {
	svc := newRequestService(t, nil)
	req := fileRequest(t, svc, member)

	assert.Equal(t, "REQ-2025-007", req.RequestNumber)
	assert.Equal(t, "bob", req.RequestedBy)
	assert.Equal(t, "PurchaseOrder", req.DocumentType)
	assert.Equal(t, "Pending", req.Status)
	assert.Equal(t, "1200.46", req.Amount.StringFixed(2))
	assert.True(t, req.RequestDate.Equal(fixedNow))

	_, err := svc.Create(context.Background(), member, CreateDocumentRequestInput{
		DocumentType: "Quote", Project: "Website", Description: "x",
	})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_DOCUMENT_TYPE", de.Code)
}

func TestRequestService_ApproveByManager(t *testing.T) {
	ctx := context.Background()
	storage := newFakeStorage()
	svc := newRequestService(t, storage)
	svc.SetRenderer(fakeRenderer{})

	req := fileRequest(t, svc, member)
	approved, err := svc.Approve(ctx, manager, req.ID)
	require.NoError(t, err)

	assert.Equal(t, "Approved", approved.Status)
	assert.Equal(t, "pat", approved.ApprovedBy)
	require.NotNil(t, approved.ApprovalDate)
	assert.Equal(t, "documents/purchase-order/REQ-2025-007.pdf", approved.DownloadRef)
	assert.Contains(t, storage.objects, approved.DownloadRef)

	mine, err := svc.List(ctx, member, RequestListFilter{})
	require.NoError(t, err)
	assert.Len(t, mine.Items, 1)

	theirs, err := svc.List(ctx, other, RequestListFilter{})
	require.NoError(t, err)
	assert.Empty(t, theirs.Items)

	_, err = svc.GetByID(ctx, other, req.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestRequestService_OnlyApproversResolve(t *testing.T) {
	ctx := context.Background()
	svc := newRequestService(t, nil)
	req := fileRequest(t, svc, member)

	_, err := svc.Approve(ctx, member, req.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.Reject(ctx, other, req.ID, RejectDocumentRequestInput{Reason: "no"})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	stored, err := svc.GetByID(ctx, member, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pending", stored.Status)
}

func TestRequestService_ResolvedRequestsAreFinal(t *testing.T) {
	ctx := context.Background()
	svc := newRequestService(t, nil)

	rejected := fileRequest(t, svc, member)
	resp, err := svc.Reject(ctx, admin, rejected.ID, RejectDocumentRequestInput{Reason: "Over budget"})
	require.NoError(t, err)
	assert.Equal(t, "Rejected", resp.Status)
	assert.Equal(t, "Over budget", resp.RejectionReason)
	assert.Empty(t, resp.DownloadRef)

	_, err = svc.Approve(ctx, admin, rejected.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	approved := fileRequest(t, svc, member)
	_, err = svc.Approve(ctx, admin, approved.ID)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, manager, approved.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = svc.Reject(ctx, admin, approved.ID, RejectDocumentRequestInput{})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestRequestService_Download(t *testing.T) {
	ctx := context.Background()

	t.Run("approved request yields signed link", func(t *testing.T) {
		svc := newRequestService(t, newFakeStorage())
		svc.SetDownloadExpiry(10 * time.Minute)
		req := fileRequest(t, svc, member)
		_, err := svc.Approve(ctx, manager, req.ID)
		require.NoError(t, err)

		link, err := svc.Download(ctx, member, req.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://files.test/documents/purchase-order/REQ-2025-007.pdf", link.URL)
		assert.True(t, link.ExpiresAt.Equal(fixedNow.Add(10*time.Minute)))

		_, err = svc.Download(ctx, other, req.ID)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("pending request", func(t *testing.T) {
		svc := newRequestService(t, newFakeStorage())
		req := fileRequest(t, svc, member)
		_, err := svc.Download(ctx, member, req.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("no storage", func(t *testing.T) {
		svc := newRequestService(t, nil)
		req := fileRequest(t, svc, member)
		_, err := svc.Approve(ctx, admin, req.ID)
		require.NoError(t, err)

		_, err = svc.Download(ctx, member, req.ID)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "STORAGE_UNAVAILABLE", de.Code)
	})
}

func TestRequestService_ConcurrentApprovalsResolveOnce(t *testing.T) {
	ctx := context.Background()
	svc := newRequestService(t, nil)
	req := fileRequest(t, svc, member)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			approver := finance.Actor{Username: fmt.Sprintf("pm-%d", i), Role: finance.RoleProjectManager}
			_, errs[i] = svc.Approve(ctx, approver, req.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errorsIsAny(err, shared.ErrInvalidState, shared.ErrConcurrencyConflict), err)
	}
	assert.Equal(t, 1, succeeded)
}

func errorsIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
