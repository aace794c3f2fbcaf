package handler

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	financeapp "github.com/oneflow/backend/internal/application/finance"
	"github.com/oneflow/backend/internal/infrastructure/tabular"
)

// IdempotencyKeyHeader lets clients make an import safe to retry
const IdempotencyKeyHeader = "Idempotency-Key"

// TransferHandler serves CSV/XLSX import and export plus the integrity report
type TransferHandler struct {
	BaseHandler
	reconciler *financeapp.Reconciler
	integrity  *financeapp.IntegrityService
}

// NewTransferHandler creates a new TransferHandler
func NewTransferHandler(reconciler *financeapp.Reconciler, integrity *financeapp.IntegrityService) *TransferHandler {
	return &TransferHandler{reconciler: reconciler, integrity: integrity}
}

// Import loads a CSV or XLSX upload into one family. The format query
// parameter overrides the file extension.
func (h *TransferHandler) Import(c *gin.Context) {
	family, err := financeapp.ParseFamily(c.Param("type"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Multipart field \"file\" is required")
		return
	}

	rawFormat := c.Query("format")
	if rawFormat == "" {
		rawFormat = strings.TrimPrefix(filepath.Ext(fileHeader.Filename), ".")
	}
	format, err := tabular.ParseFormat(rawFormat)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer file.Close()

	result, err := h.reconciler.ImportFile(c.Request.Context(), family, format, file, c.GetHeader(IdempotencyKeyHeader))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Export writes one family as CSV (default) or XLSX
func (h *TransferHandler) Export(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	family, err := financeapp.ParseFamily(c.Param("type"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	format, err := tabular.ParseFormat(c.DefaultQuery("format", string(tabular.FormatCSV)))
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	// Buffer so a failure can still produce a JSON error instead of a half-written file
	var buf bytes.Buffer
	if err := h.reconciler.Export(c.Request.Context(), actor, family, format, &buf); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+h.reconciler.ExportFileName(family, format)+`"`)
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// Integrity lists records whose project the directory does not know
func (h *TransferHandler) Integrity(c *gin.Context) {
	report, err := h.integrity.Check(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
