package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	financeapp "github.com/oneflow/backend/internal/application/finance"
)

// DocumentHandler serves sales orders, purchase orders, invoices and vendor
// bills under /documents/:type
type DocumentHandler struct {
	BaseHandler
	service *financeapp.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(service *financeapp.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// Calculate previews line amounts and totals without storing anything
func (h *DocumentHandler) Calculate(c *gin.Context) {
	var req financeapp.CalculateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.Success(c, h.service.Calculate(req))
}

// Create stores a new document of the path type
func (h *DocumentHandler) Create(c *gin.Context) {
	docType, ok := h.documentType(c)
	if !ok {
		return
	}
	var req financeapp.CreateDocumentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	doc, err := h.service.Create(c.Request.Context(), docType, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// GetByID returns one document
func (h *DocumentHandler) GetByID(c *gin.Context) {
	docType, ok := h.documentType(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docType, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// List returns every document of the path type
func (h *DocumentHandler) List(c *gin.Context) {
	docType, ok := h.documentType(c)
	if !ok {
		return
	}
	var filter financeapp.DocumentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	page, err := h.service.List(c.Request.Context(), docType, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Update replaces a document's header and optionally its items
func (h *DocumentHandler) Update(c *gin.Context) {
	docType, ok := h.documentType(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req financeapp.UpdateDocumentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	doc, err := h.service.Update(c.Request.Context(), docType, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// ChangeStatus moves a document to another status of its type
func (h *DocumentHandler) ChangeStatus(c *gin.Context) {
	docType, ok := h.documentType(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req financeapp.ChangeStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	doc, err := h.service.ChangeStatus(c.Request.Context(), docType, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Delete removes a document
func (h *DocumentHandler) Delete(c *gin.Context) {
	docType, ok := h.documentType(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), docType, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// PDF streams the rendered document
func (h *DocumentHandler) PDF(c *gin.Context) {
	docType, ok := h.documentType(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	pdf, fileName, err := h.service.RenderPDF(c.Request.Context(), docType, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+fileName+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
