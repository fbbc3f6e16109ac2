package handlers

import (
	"github.com/gin-gonic/gin"

	"lotkeeper/internal/core/entity"
	"lotkeeper/internal/domain/documents/adjustment"
	"lotkeeper/internal/infrastructure/http/v1/dto"
)

// AdjustmentHandler serves adjustment documents.
type AdjustmentHandler struct {
	*BaseHandler
	service *adjustment.Service
}

// NewAdjustmentHandler creates an adjustment handler.
func NewAdjustmentHandler(base *BaseHandler, service *adjustment.Service) *AdjustmentHandler {
	return &AdjustmentHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers adjustment routes.
func (h *AdjustmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.POST("/:id/post", h.Post)
	rg.POST("/:id/cancel", h.Cancel)
}

// Create handles POST /documents/adjustments
func (h *AdjustmentHandler) Create(c *gin.Context) {
	var req dto.CreateAdjustmentRequest
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

// List handles GET /documents/adjustments
func (h *AdjustmentHandler) List(c *gin.Context) {
	filter := adjustment.ListFilter{ListFilter: h.parseDocFilter(c)}

	if reason := c.Query("reason"); reason != "" {
		filter.Reason = &reason
	}
	if status := c.Query("status"); status != "" {
		s := entity.Status(status)
		filter.Status = &s
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

// Get handles GET /documents/adjustments/:id
func (h *AdjustmentHandler) Get(c *gin.Context) {
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

// Update handles PUT /documents/adjustments/:id
func (h *AdjustmentHandler) Update(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateAdjustmentRequest
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

// Post handles POST /documents/adjustments/:id/post
func (h *AdjustmentHandler) Post(c *gin.Context) {
	h.transition(c, h.service.Post)
}

// Cancel handles POST /documents/adjustments/:id/cancel
func (h *AdjustmentHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

func (h *AdjustmentHandler) transition(c *gin.Context, op docTransition) {
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
