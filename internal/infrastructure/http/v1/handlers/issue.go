package handlers

import (
	"github.com/gin-gonic/gin"

	"lotkeeper/internal/core/entity"
	"lotkeeper/internal/domain/documents/issue"
	"lotkeeper/internal/infrastructure/http/v1/dto"
)

// IssueHandler serves issue documents.
type IssueHandler struct {
	*BaseHandler
	service *issue.Service
}

// NewIssueHandler creates an issue handler.
func NewIssueHandler(base *BaseHandler, service *issue.Service) *IssueHandler {
	return &IssueHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers issue routes.
func (h *IssueHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.POST("/:id/allocate", h.Allocate)
	rg.POST("/:id/post", h.Post)
	rg.POST("/:id/cancel", h.Cancel)
}

// Create handles POST /documents/issues
func (h *IssueHandler) Create(c *gin.Context) {
	var req dto.CreateIssueRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, doc)
}

// List handles GET /documents/issues
func (h *IssueHandler) List(c *gin.Context) {
	filter := issue.ListFilter{ListFilter: h.parseDocFilter(c)}

	warehouseID, ok := h.ParseOptionalIDQuery(c, "warehouseId")
	if !ok {
		return
	}
	filter.WarehouseID = warehouseID

	if status := c.Query("status"); status != "" {
		s := entity.Status(status)
		filter.Status = &s
	}
	if orderRef := c.Query("orderRef"); orderRef != "" {
		filter.OrderRef = &orderRef
	}
	if !h.parseDateRange(c, &filter.DateFrom, &filter.DateTo) {
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      result.Items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /documents/issues/:id
func (h *IssueHandler) Get(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Update handles PUT /documents/issues/:id
func (h *IssueHandler) Update(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateIssueRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(doc)
	if err := h.service.Update(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Allocate handles POST /documents/issues/:id/allocate
func (h *IssueHandler) Allocate(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	allocations, err := h.service.Allocate(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": allocations})
}

// Post handles POST /documents/issues/:id/post
func (h *IssueHandler) Post(c *gin.Context) {
	h.transition(c, h.service.Post)
}

// Cancel handles POST /documents/issues/:id/cancel
func (h *IssueHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

func (h *IssueHandler) transition(c *gin.Context, op docTransition) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := op(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}
