package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"lotkeeper/internal/domain/pricing"
	"lotkeeper/internal/infrastructure/http/v1/dto"
)

// PricingHandler serves the cost and price registry.
type PricingHandler struct {
	*BaseHandler
	service *pricing.Service
}

// NewPricingHandler creates a pricing handler.
func NewPricingHandler(base *BaseHandler, service *pricing.Service) *PricingHandler {
	return &PricingHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers pricing routes.
func (h *PricingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/records/:id/cost", h.GetCost)
	rg.PUT("/records/:id/cost", h.CorrectCost)
	rg.POST("/records/:id/prices", h.SetPrice)
	rg.GET("/records/:id/prices", h.PriceHistory)
	rg.GET("/records/:id/price", h.EffectivePrice)
	rg.GET("/quotes/cheapest-cost/:productId", h.CheapestCost)
	rg.GET("/quotes/display-price/:productId", h.DisplayPrice)
}

// GetCost handles GET /pricing/records/:id/cost
func (h *PricingHandler) GetCost(c *gin.Context) {
	recordID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	cost, err := h.service.CostOf(c.Request.Context(), recordID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, cost)
}

// CorrectCost handles PUT /pricing/records/:id/cost
func (h *PricingHandler) CorrectCost(c *gin.Context) {
	recordID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.CorrectCostRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.CorrectCost(c.Request.Context(), recordID, req.Amount); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "cost corrected")
}

// SetPrice handles POST /pricing/records/:id/prices
func (h *PricingHandler) SetPrice(c *gin.Context) {
	recordID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetPriceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	var from time.Time
	if req.EffectiveFrom != nil {
		from = *req.EffectiveFrom
	}

	price, err := h.service.SetPrice(c.Request.Context(), recordID, req.Amount, req.Currency, from, req.EffectiveTo)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, price)
}

// PriceHistory handles GET /pricing/records/:id/prices
func (h *PricingHandler) PriceHistory(c *gin.Context) {
	recordID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	prices, err := h.service.PriceHistory(c.Request.Context(), recordID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": prices})
}

// EffectivePrice handles GET /pricing/records/:id/price?at=...
func (h *PricingHandler) EffectivePrice(c *gin.Context) {
	recordID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	at, ok := h.ParseTimeQuery(c, "at")
	if !ok {
		return
	}
	var atTime time.Time
	if at != nil {
		atTime = *at
	}

	price, err := h.service.EffectivePrice(c.Request.Context(), recordID, atTime)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, price)
}

// CheapestCost handles GET /pricing/quotes/cheapest-cost/:productId
func (h *PricingHandler) CheapestCost(c *gin.Context) {
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	variantID, ok := h.ParseOptionalIDQuery(c, "variantId")
	if !ok {
		return
	}
	warehouseID, ok := h.ParseOptionalIDQuery(c, "warehouseId")
	if !ok {
		return
	}

	quote, err := h.service.CheapestCost(c.Request.Context(), productID, variantID, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, quote)
}

// DisplayPrice handles GET /pricing/quotes/display-price/:productId
func (h *PricingHandler) DisplayPrice(c *gin.Context) {
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	variantID, ok := h.ParseOptionalIDQuery(c, "variantId")
	if !ok {
		return
	}
	warehouseID, ok := h.ParseOptionalIDQuery(c, "warehouseId")
	if !ok {
		return
	}

	quote, err := h.service.DisplayPrice(c.Request.Context(), productID, variantID, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, quote)
}
