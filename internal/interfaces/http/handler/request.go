package handler

import (
	"github.com/gin-gonic/gin"

	financeapp "github.com/oneflow/backend/internal/application/finance"
)

// RequestHandler serves the document request workflow under /requests.
// Role checks live in the workflow itself; the router adds RequireRole on
// approve and reject as a first gate.
type RequestHandler struct {
	BaseHandler
	service *financeapp.RequestService
}

// NewRequestHandler creates a new RequestHandler
func NewRequestHandler(service *financeapp.RequestService) *RequestHandler {
	return &RequestHandler{service: service}
}

// Create files a new Pending request for the caller
func (h *RequestHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var in financeapp.CreateDocumentRequestInput
	if !h.bindJSON(c, &in) {
		return
	}
	req, err := h.service.Create(c.Request.Context(), actor, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, req)
}

// GetByID returns a request the caller may see
func (h *RequestHandler) GetByID(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	req, err := h.service.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, req)
}

// List returns the requests visible to the caller
func (h *RequestHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var filter financeapp.RequestListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}
	page, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Approve approves a Pending request
func (h *RequestHandler) Approve(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	req, err := h.service.Approve(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, req)
}

// Reject rejects a Pending request with a reason
func (h *RequestHandler) Reject(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var in financeapp.RejectDocumentRequestInput
	if !h.bindJSON(c, &in) {
		return
	}
	req, err := h.service.Reject(c.Request.Context(), actor, id, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, req)
}

// Download returns a signed link to an approved request's document
func (h *RequestHandler) Download(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	link, err := h.service.Download(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, link)
}
