package handlers

import (
	"github.com/gin-gonic/gin"

	"lotkeeper/internal/domain/stock"
	"lotkeeper/internal/infrastructure/http/v1/dto"
)

// StockHandler serves stock record queries and the block/unblock commands.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers stock routes.
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/records/:id", h.GetRecord)
	rg.POST("/records/:id/block", h.Block)
	rg.POST("/records/:id/unblock", h.Unblock)
	rg.GET("/warehouses/:warehouseId", h.ListByWarehouse)
	rg.GET("/availability/:productId", h.Availability)
}

// GetRecord handles GET /stock/records/:id
func (h *StockHandler) GetRecord(c *gin.Context) {
	recordID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	rec, err := h.service.RecordByID(c.Request.Context(), recordID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, rec)
}

// Block handles POST /stock/records/:id/block
func (h *StockHandler) Block(c *gin.Context) {
	recordID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.BlockStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rec, err := h.service.BlockStock(c.Request.Context(), recordID, req.Quantity, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, rec)
}

// Unblock handles POST /stock/records/:id/unblock
func (h *StockHandler) Unblock(c *gin.Context) {
	recordID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UnblockStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rec, err := h.service.UnblockStock(c.Request.Context(), recordID, req.Quantity)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, rec)
}

// ListByWarehouse handles GET /stock/warehouses/:warehouseId
func (h *StockHandler) ListByWarehouse(c *gin.Context) {
	warehouseID, ok := h.ParseID(c, "warehouseId")
	if !ok {
		return
	}

	filter := stock.ListFilter{
		ExcludeZero: c.Query("excludeZero") == "true",
		Limit:       h.ParseIntQuery(c, "limit", 100),
		Offset:      h.ParseIntQuery(c, "offset", 0),
	}

	shelfID, ok := h.ParseOptionalIDQuery(c, "shelfId")
	if !ok {
		return
	}
	filter.ShelfID = shelfID

	records, err := h.service.WarehouseStock(c.Request.Context(), warehouseID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": records})
}

// Availability handles GET /stock/availability/:productId
func (h *StockHandler) Availability(c *gin.Context) {
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	warehouseID, ok := h.ParseOptionalIDQuery(c, "warehouseId")
	if !ok {
		return
	}

	qty, err := h.service.ProductAvailability(c.Request.Context(), productID, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.AvailabilityResponse{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Available:   qty,
	})
}
