package handlers

import (
	"github.com/gin-gonic/gin"

	"lotkeeper/internal/core/entity"
	"lotkeeper/internal/domain/documents/transfer"
	"lotkeeper/internal/infrastructure/http/v1/dto"
)

// TransferHandler serves transfer documents.
type TransferHandler struct {
	*BaseHandler
	service *transfer.Service
}

// NewTransferHandler creates a transfer handler.
func NewTransferHandler(base *BaseHandler, service *transfer.Service) *TransferHandler {
	return &TransferHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers transfer routes.
func (h *TransferHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.POST("/:id/ship", h.Ship)
	rg.POST("/:id/segments/:segmentId/receive", h.ReceiveSegment)
	rg.POST("/:id/cancel", h.Cancel)
}

// Create handles POST /documents/transfers
func (h *TransferHandler) Create(c *gin.Context) {
	var req dto.CreateTransferRequest
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

// List handles GET /documents/transfers
func (h *TransferHandler) List(c *gin.Context) {
	filter := transfer.ListFilter{ListFilter: h.parseDocFilter(c)}

	sourceID, ok := h.ParseOptionalIDQuery(c, "sourceWarehouseId")
	if !ok {
		return
	}
	filter.SourceWarehouseID = sourceID

	destID, ok := h.ParseOptionalIDQuery(c, "destWarehouseId")
	if !ok {
		return
	}
	filter.DestWarehouseID = destID

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

// Get handles GET /documents/transfers/:id
func (h *TransferHandler) Get(c *gin.Context) {
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

// Update handles PUT /documents/transfers/:id
func (h *TransferHandler) Update(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateTransferRequest
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

// Ship handles POST /documents/transfers/:id/ship
func (h *TransferHandler) Ship(c *gin.Context) {
	h.transition(c, h.service.Ship)
}

// ReceiveSegment handles POST /documents/transfers/:id/segments/:segmentId/receive
func (h *TransferHandler) ReceiveSegment(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	segmentID, ok := h.ParseID(c, "segmentId")
	if !ok {
		return
	}

	var req dto.ReceiveSegmentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.ReceiveSegment(c.Request.Context(), docID, segmentID, req.DestShelfID); err != nil {
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

// Cancel handles POST /documents/transfers/:id/cancel
func (h *TransferHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

func (h *TransferHandler) transition(c *gin.Context, op docTransition) {
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
