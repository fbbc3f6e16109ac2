package handlers

import (
	"github.com/gin-gonic/gin"

	"lotkeeper/internal/domain/movement"
	"lotkeeper/internal/infrastructure/http/v1/dto"
)

// MovementHandler serves shelf-to-shelf stock moves.
type MovementHandler struct {
	*BaseHandler
	engine *movement.Engine
}

// NewMovementHandler creates a movement handler.
func NewMovementHandler(base *BaseHandler, engine *movement.Engine) *MovementHandler {
	return &MovementHandler{BaseHandler: base, engine: engine}
}

// RegisterRoutes registers movement routes.
func (h *MovementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Move)
}

// Move handles POST /moves
func (h *MovementHandler) Move(c *gin.Context) {
	var req dto.MoveStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.engine.MoveStock(c.Request.Context(), req.SourceRecordID, req.TargetShelfID, req.Quantity, req.Note)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}
