package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	financeapp "github.com/oneflow/backend/internal/application/finance"
	"github.com/oneflow/backend/internal/domain/finance"
	"github.com/oneflow/backend/internal/infrastructure/auth"
	"github.com/oneflow/backend/internal/infrastructure/config"
	"github.com/oneflow/backend/internal/infrastructure/persistence/memory"
	"github.com/oneflow/backend/internal/infrastructure/printing"
	"github.com/oneflow/backend/internal/infrastructure/storage"
	"github.com/oneflow/backend/internal/interfaces/http/handler"
	"github.com/oneflow/backend/internal/interfaces/http/middleware"
)

type financeAPI struct {
	t      *testing.T
	engine http.Handler
	jwt    *auth.JWTService
	system *handler.SystemHandler
}

var (
	apiAdmin   = finance.Actor{UserID: uuid.New(), Username: "alice", Role: finance.RoleAdmin}
	apiManager = finance.Actor{UserID: uuid.New(), Username: "pat", Role: finance.RoleProjectManager}
	apiMember  = finance.Actor{UserID: uuid.New(), Username: "bob", Role: finance.RoleTeamMember}
)

func newFinanceAPI(t *testing.T, opts ...func(*EngineConfig)) *financeAPI {
	t.Helper()
	log := zap.NewNop()

	documents := memory.NewDocumentRepository()
	expenses := memory.NewExpenseRepository()
	requests := memory.NewDocumentRequestRepository()
	numbers := finance.NewNumberGenerator()
	renderer := printing.NewPDFRenderer("OneFlow Test")
	objects := storage.NewStubObjectStorage("https://files.test")

	docSvc := financeapp.NewDocumentService(documents, numbers, nil, nil, log)
	docSvc.SetRenderer(renderer)
	reqSvc := financeapp.NewRequestService(requests, numbers, nil, objects, log)
	reqSvc.SetRenderer(renderer)
	reconciler := financeapp.NewReconciler(documents, expenses, requests, numbers, nil, financeapp.ReconcilerConfig{}, log)

	system := handler.NewSystemHandler("test")
	jwt := auth.NewJWTService(config.JWTConfig{
		Secret:                "router-test-secret-with-32-bytes!",
		AccessTokenExpiration: time.Hour,
		Issuer:                "oneflow",
	})

	cfg := EngineConfig{
		ServiceName:    "oneflow-test",
		ServiceVersion: "test",
		MaxBodySize:    1 << 20,
		CORS:           middleware.DefaultCORSConfig(),
		Authenticator:  jwt,
		Logger:         log,
		Swagger:        middleware.SwaggerConfig{Enabled: true},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	engine, err := NewEngine(cfg, Handlers{
		Documents: handler.NewDocumentHandler(docSvc),
		Expenses:  handler.NewExpenseHandler(financeapp.NewExpenseService(expenses, nil, log)),
		Requests:  handler.NewRequestHandler(reqSvc),
		Transfer:  handler.NewTransferHandler(reconciler, financeapp.NewIntegrityService(documents, expenses, requests, nil, log)),
		System:    system,
	})
	require.NoError(t, err)
	return &financeAPI{t: t, engine: engine, jwt: jwt, system: system}
}

func (a *financeAPI) token(actor finance.Actor) string {
	a.t.Helper()
	token, _, err := a.jwt.GenerateToken(actor)
	require.NoError(a.t, err)
	return token
}

func (a *financeAPI) do(actor *finance.Actor, method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set("Authorization", "Bearer "+a.token(*actor))
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

// envelope decodes the data member of a success response into out
func envelope(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.True(t, resp.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(resp.Data, out))
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp.Error.Code
}

func TestFinanceAPI_RequiresToken(t *testing.T) {
	api := newFinanceAPI(t)

	w := api.do(nil, http.MethodGet, "/api/v1/finance/expenses", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestFinanceAPI_Health(t *testing.T) {
	api := newFinanceAPI(t)

	w := api.do(nil, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	api.system.AddCheck("database", func(context.Context) error { return errors.New("connection refused") })
	w = api.do(nil, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
}

func TestFinanceAPI_Calculate(t *testing.T) {
	api := newFinanceAPI(t)

	w := api.do(&apiMember, http.MethodPost, "/api/v1/finance/calculate", map[string]any{
		"items": []map[string]any{
			{"product": "Consulting", "quantity": "10", "unit_price": "5000", "tax_rate_percent": "18"},
			{"product": "Licence", "quantity": 1, "unit_price": 5000, "tax_rate_percent": 18},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var totals financeapp.TotalsResponse
	envelope(t, w, &totals)
	assert.Equal(t, "55000.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "9900.00", totals.Tax.StringFixed(2))
	assert.Equal(t, "64900.00", totals.Total.StringFixed(2))
}

func TestFinanceAPI_CalculateCoercesOutOfRangeNumbers(t *testing.T) {
	api := newFinanceAPI(t)

	w := api.do(&apiMember, http.MethodPost, "/api/v1/finance/calculate", map[string]any{
		"items": []map[string]any{
			{"product": "Consulting", "quantity": "1e2000000000", "unit_price": "5000", "tax_rate_percent": "18"},
			{"product": "Licence", "quantity": 1, "unit_price": "100", "tax_rate_percent": "1e-2000000000"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var totals financeapp.TotalsResponse
	envelope(t, w, &totals)
	assert.Equal(t, "100.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "0.00", totals.Tax.StringFixed(2))
	assert.Equal(t, "100.00", totals.Total.StringFixed(2))
}

func TestFinanceAPI_DocumentLifecycle(t *testing.T) {
	api := newFinanceAPI(t)

	w := api.do(&apiAdmin, http.MethodPost, "/api/v1/finance/documents/invoices", map[string]any{
		"counterpart": "Acme Corp",
		"project":     "Website",
		"items": []map[string]any{
			{"product": "Design", "quantity": "2", "unit_price": "1000", "tax_rate_percent": "10"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var doc financeapp.DocumentResponse
	envelope(t, w, &doc)
	assert.True(t, strings.HasPrefix(doc.Number, finance.PrefixInvoice+"-"), doc.Number)
	assert.Equal(t, "Draft", doc.Status)
	assert.Equal(t, "2200.00", doc.Total.StringFixed(2))

	base := "/api/v1/finance/documents/invoices/" + doc.ID.String()

	w = api.do(&apiAdmin, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	t.Run("status outside the type's enum", func(t *testing.T) {
		w := api.do(&apiAdmin, http.MethodPatch, base+"/status", map[string]any{"status": "Delivered", "version": doc.Version})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_STATUS", errorCode(t, w))
	})

	t.Run("writes without a version are refused", func(t *testing.T) {
		w := api.do(&apiAdmin, http.MethodPatch, base+"/status", map[string]any{"status": "Sent"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

		w = api.do(&apiAdmin, http.MethodPut, base, map[string]any{"counterpart": "Someone Else", "project": "Website"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

		w = api.do(&apiAdmin, http.MethodGet, base, nil)
		var current financeapp.DocumentResponse
		envelope(t, w, &current)
		assert.Equal(t, "Acme Corp", current.Counterpart)
		assert.Equal(t, doc.Version, current.Version)
	})

	t.Run("stale version", func(t *testing.T) {
		w := api.do(&apiAdmin, http.MethodPut, base, map[string]any{
			"version": doc.Version, "counterpart": "Acme Holdings", "project": "Website",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = api.do(&apiAdmin, http.MethodPut, base, map[string]any{
			"version": doc.Version, "counterpart": "Acme Ltd", "project": "Website",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "CONCURRENCY_CONFLICT", errorCode(t, w))
	})

	t.Run("status change", func(t *testing.T) {
		w := api.do(&apiAdmin, http.MethodGet, base, nil)
		var current financeapp.DocumentResponse
		envelope(t, w, &current)

		w = api.do(&apiAdmin, http.MethodPatch, base+"/status", map[string]any{"status": "paid", "version": current.Version})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var changed financeapp.DocumentResponse
		envelope(t, w, &changed)
		assert.Equal(t, "Paid", changed.Status)
	})

	t.Run("pdf", func(t *testing.T) {
		w := api.do(&apiAdmin, http.MethodGet, base+"/pdf", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), doc.Number+".pdf")
	})

	t.Run("unknown type", func(t *testing.T) {
		w := api.do(&apiAdmin, http.MethodGet, "/api/v1/finance/documents/quotes", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_DOCUMENT_TYPE", errorCode(t, w))
	})

	t.Run("malformed id", func(t *testing.T) {
		w := api.do(&apiAdmin, http.MethodGet, "/api/v1/finance/documents/invoices/42", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := api.do(&apiAdmin, http.MethodDelete, base, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		w = api.do(&apiAdmin, http.MethodGet, base, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestFinanceAPI_RequestApproval(t *testing.T) {
	api := newFinanceAPI(t)

	w := api.do(&apiMember, http.MethodPost, "/api/v1/finance/requests", map[string]any{
		"document_type": "invoice",
		"project":       "Website",
		"amount":        "1500",
		"description":   "Phase one billing",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var req financeapp.DocumentRequestResponse
	envelope(t, w, &req)
	assert.Equal(t, "Pending", req.Status)

	base := "/api/v1/finance/requests/" + req.ID.String()

	w = api.do(&apiMember, http.MethodPost, base+"/approve", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(&apiMember, http.MethodGet, base+"/download", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = api.do(&apiManager, http.MethodPost, base+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var approved financeapp.DocumentRequestResponse
	envelope(t, w, &approved)
	assert.Equal(t, "Approved", approved.Status)
	assert.Equal(t, "pat", approved.ApprovedBy)
	assert.NotEmpty(t, approved.DownloadRef)

	w = api.do(&apiManager, http.MethodPost, base+"/reject", map[string]any{"reason": "too late"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = api.do(&apiMember, http.MethodGet, base+"/download", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var link financeapp.DownloadResponse
	envelope(t, w, &link)
	assert.True(t, strings.HasPrefix(link.URL, "https://files.test/"), link.URL)
}

func TestFinanceAPI_ImportExport(t *testing.T) {
	api := newFinanceAPI(t)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "expenses.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("Title,Amount,Date,Category,Project\nTaxi,23.456,2025-02-01,travel,Website\nLunch,12,2025-02-02,meals,Website\n"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/finance/import/expenses", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+api.token(apiAdmin))
	w := httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result financeapp.ImportResult
	envelope(t, w, &result)
	assert.Equal(t, 2, result.Imported)

	w = api.do(&apiAdmin, http.MethodGet, "/api/v1/finance/export/expenses", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Title,Amount,Date"), lines[0])
	assert.Contains(t, lines[1], "23.46")

	w = api.do(&apiAdmin, http.MethodPost, "/api/v1/finance/import/requests", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
