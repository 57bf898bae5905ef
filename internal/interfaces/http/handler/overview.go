package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/mahallubank/backend/internal/application/view"
)

// OverviewHandler serves the live ledger projection
type OverviewHandler struct {
	BaseHandler
	ledgerView *view.LedgerView
}

// NewOverviewHandler creates a new OverviewHandler
func NewOverviewHandler(ledgerView *view.LedgerView) *OverviewHandler {
	return &OverviewHandler{ledgerView: ledgerView}
}

// Get handles GET /overview. The snapshot is served from memory; it is
// kept current by store subscriptions, not recomputed per request.
func (h *OverviewHandler) Get(c *gin.Context) {
	h.Success(c, h.ledgerView.Snapshot())
}
