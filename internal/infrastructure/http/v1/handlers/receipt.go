package handlers

import (
	"github.com/gin-gonic/gin"

	"lotkeeper/internal/core/entity"
	"lotkeeper/internal/domain/documents/receipt"
	"lotkeeper/internal/infrastructure/http/v1/dto"
)

// ReceiptHandler serves receipt documents.
type ReceiptHandler struct {
	*BaseHandler
	service *receipt.Service
}

// NewReceiptHandler creates a receipt handler.
func NewReceiptHandler(base *BaseHandler, service *receipt.Service) *ReceiptHandler {
	return &ReceiptHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers receipt routes.
func (h *ReceiptHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.POST("/:id/receive", h.Receive)
	rg.POST("/:id/approve", h.Approve)
	rg.POST("/:id/cancel", h.Cancel)
}

// Create handles POST /documents/receipts
func (h *ReceiptHandler) Create(c *gin.Context) {
	var req dto.CreateReceiptRequest
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

// List handles GET /documents/receipts
func (h *ReceiptHandler) List(c *gin.Context) {
	filter := receipt.ListFilter{ListFilter: h.parseDocFilter(c)}

	warehouseID, ok := h.ParseOptionalIDQuery(c, "warehouseId")
	if !ok {
		return
	}
	filter.WarehouseID = warehouseID

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

// Get handles GET /documents/receipts/:id
func (h *ReceiptHandler) Get(c *gin.Context) {
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

// Update handles PUT /documents/receipts/:id
func (h *ReceiptHandler) Update(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateReceiptRequest
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

// Receive handles POST /documents/receipts/:id/receive
func (h *ReceiptHandler) Receive(c *gin.Context) {
	h.transition(c, h.service.Receive)
}

// Approve handles POST /documents/receipts/:id/approve
func (h *ReceiptHandler) Approve(c *gin.Context) {
	h.transition(c, h.service.Approve)
}

// Cancel handles POST /documents/receipts/:id/cancel
func (h *ReceiptHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

func (h *ReceiptHandler) transition(c *gin.Context, op docTransition) {
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
