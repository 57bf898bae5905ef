package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	ledgerapp "github.com/mahallubank/backend/internal/application/ledger"
	"github.com/mahallubank/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// TransactionHandler handles member-transaction and admin-fee endpoints
type TransactionHandler struct {
	BaseHandler
	transactions *ledgerapp.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactions *ledgerapp.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

// AddTransactionRequest is the request body for posting a transaction
type AddTransactionRequest struct {
	Type    string          `json:"type" binding:"required,txtype"`
	Amount  decimal.Decimal `json:"amount" binding:"required"`
	Date    time.Time       `json:"date"`
	Remarks string          `json:"remarks"`
}

// UpdateTransactionRequest is the request body for amending a transaction
type UpdateTransactionRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Date   time.Time       `json:"date" binding:"required"`
}

// Create handles POST /members/:id/transactions
func (h *TransactionHandler) Create(c *gin.Context) {
	var req AddTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.transactions.AddTransaction(c.Request.Context(), c.Param("id"), ledgerapp.AddTransactionInput{
		Type:    ledger.TransactionType(req.Type),
		Amount:  req.Amount,
		Date:    req.Date,
		Remarks: req.Remarks,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Update handles PUT /members/:id/transactions/:txId
func (h *TransactionHandler) Update(c *gin.Context) {
	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	err := h.transactions.UpdateTransaction(c.Request.Context(), c.Param("id"), c.Param("txId"), req.Amount, req.Date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ChargeRegistrationFee handles POST /members/:id/fees/registration
func (h *TransactionHandler) ChargeRegistrationFee(c *gin.Context) {
	if err := h.transactions.ChargeRegistrationFee(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ChargePassbookFee handles POST /members/:id/fees/passbook
func (h *TransactionHandler) ChargePassbookFee(c *gin.Context) {
	if err := h.transactions.ChargePassbookFee(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListAdminTransactions handles GET /admin-transactions
func (h *TransactionHandler) ListAdminTransactions(c *gin.Context) {
	fees, err := h.transactions.ListAdminTransactions(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, fees)
}

// DeleteAdminTransaction handles DELETE /admin-transactions/:id
func (h *TransactionHandler) DeleteAdminTransaction(c *gin.Context) {
	if err := h.transactions.DeleteAdminTransaction(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
