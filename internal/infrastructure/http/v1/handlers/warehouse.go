package handlers

import (
	"github.com/gin-gonic/gin"

	"lotkeeper/internal/domain"
	"lotkeeper/internal/domain/catalogs/warehouse"
	"lotkeeper/internal/infrastructure/http/v1/dto"
)

// WarehouseHandler serves the warehouse and shelf catalogs.
type WarehouseHandler struct {
	*BaseHandler
	service *warehouse.Service
}

// NewWarehouseHandler creates a warehouse handler.
func NewWarehouseHandler(base *BaseHandler, service *warehouse.Service) *WarehouseHandler {
	return &WarehouseHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers warehouse and shelf routes.
func (h *WarehouseHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.GET("/:id/shelves", h.ListShelves)

	rg.POST("/shelves", h.CreateShelf)
	rg.GET("/shelves/:shelfId", h.GetShelf)
	rg.PUT("/shelves/:shelfId", h.UpdateShelf)
}

// Create handles POST /warehouses
func (h *WarehouseHandler) Create(c *gin.Context) {
	var req dto.CreateWarehouseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	wh := req.ToEntity()
	if err := h.service.CreateWarehouse(c.Request.Context(), wh); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, wh)
}

// List handles GET /warehouses
func (h *WarehouseHandler) List(c *gin.Context) {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "name")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	result, err := h.service.ListWarehouses(c.Request.Context(), filter)
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

// Get handles GET /warehouses/:id
func (h *WarehouseHandler) Get(c *gin.Context) {
	warehouseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	wh, err := h.service.GetWarehouse(c.Request.Context(), warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, wh)
}

// Update handles PUT /warehouses/:id
func (h *WarehouseHandler) Update(c *gin.Context) {
	warehouseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateWarehouseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	wh, err := h.service.GetWarehouse(c.Request.Context(), warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(wh)
	if err := h.service.UpdateWarehouse(c.Request.Context(), wh); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, wh)
}

// ListShelves handles GET /warehouses/:id/shelves
func (h *WarehouseHandler) ListShelves(c *gin.Context) {
	warehouseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	shelves, err := h.service.ListShelves(c.Request.Context(), warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": shelves})
}

// CreateShelf handles POST /warehouses/shelves
func (h *WarehouseHandler) CreateShelf(c *gin.Context) {
	var req dto.CreateShelfRequest
	if !h.BindJSON(c, &req) {
		return
	}

	shelf := req.ToEntity()
	if err := h.service.CreateShelf(c.Request.Context(), shelf); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, shelf)
}

// GetShelf handles GET /warehouses/shelves/:shelfId
func (h *WarehouseHandler) GetShelf(c *gin.Context) {
	shelfID, ok := h.ParseID(c, "shelfId")
	if !ok {
		return
	}

	shelf, err := h.service.GetShelf(c.Request.Context(), shelfID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, shelf)
}

// UpdateShelf handles PUT /warehouses/shelves/:shelfId
func (h *WarehouseHandler) UpdateShelf(c *gin.Context) {
	shelfID, ok := h.ParseID(c, "shelfId")
	if !ok {
		return
	}

	var req dto.UpdateShelfRequest
	if !h.BindJSON(c, &req) {
		return
	}

	shelf, err := h.service.GetShelf(c.Request.Context(), shelfID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(shelf)
	if err := h.service.UpdateShelf(c.Request.Context(), shelf); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, shelf)
}
