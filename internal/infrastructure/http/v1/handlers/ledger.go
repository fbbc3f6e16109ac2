package handlers

import (
	"github.com/gin-gonic/gin"

	"lotkeeper/internal/domain/ledger"
)

// LedgerHandler serves the movement history read model.
type LedgerHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewLedgerHandler creates a ledger handler.
func NewLedgerHandler(base *BaseHandler, service *ledger.Service) *LedgerHandler {
	return &LedgerHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers ledger routes.
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/records/:id", h.ByRecord)
	rg.GET("/documents/:id", h.ByDocument)
}

// ByRecord handles GET /ledger/records/:id
func (h *LedgerHandler) ByRecord(c *gin.Context) {
	recordID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	filter := ledger.Filter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if mt := c.Query("movementType"); mt != "" {
		movementType := ledger.MovementType(mt)
		filter.MovementType = &movementType
	}

	from, ok := h.ParseTimeQuery(c, "from")
	if !ok {
		return
	}
	filter.FromDate = from

	to, ok := h.ParseTimeQuery(c, "to")
	if !ok {
		return
	}
	filter.ToDate = to

	entries, err := h.service.HistoryByRecord(c.Request.Context(), recordID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": entries})
}

// ByDocument handles GET /ledger/documents/:id
func (h *LedgerHandler) ByDocument(c *gin.Context) {
	documentID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	entries, err := h.service.EntriesByDocument(c.Request.Context(), documentID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": entries})
}
