package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	ledgerapp "github.com/mahallubank/backend/internal/application/ledger"
	"github.com/mahallubank/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// BankHandler handles bank reconciliation endpoints
type BankHandler struct {
	BaseHandler
	bank *ledgerapp.BankService
}

// NewBankHandler creates a new BankHandler
func NewBankHandler(bank *ledgerapp.BankService) *BankHandler {
	return &BankHandler{bank: bank}
}

// BankTransactionRequest is the request body for creating or replacing a
// bank movement
type BankTransactionRequest struct {
	Date              time.Time       `json:"date"`
	Type              string          `json:"type" binding:"required,oneof=deposit withdrawal"`
	TransacterName    string          `json:"transacterName" binding:"required,min=1,max=200"`
	PhoneNumber       string          `json:"phoneNumber"`
	TransactionNumber string          `json:"transactionNumber"`
	Remarks           string          `json:"remarks"`
	Amount            decimal.Decimal `json:"amount" binding:"required"`
}

func (r *BankTransactionRequest) toInput() ledgerapp.BankTransactionInput {
	return ledgerapp.BankTransactionInput{
		Date:              r.Date,
		Type:              ledger.BankTransactionType(r.Type),
		TransacterName:    r.TransacterName,
		PhoneNumber:       r.PhoneNumber,
		TransactionNumber: r.TransactionNumber,
		Remarks:           r.Remarks,
		Amount:            r.Amount,
	}
}

// List handles GET /bank-transactions
func (h *BankHandler) List(c *gin.Context) {
	txs, err := h.bank.ListBankTransactions(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, txs)
}

// Create handles POST /bank-transactions
func (h *BankHandler) Create(c *gin.Context) {
	var req BankTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tx, err := h.bank.AddBankTransaction(c.Request.Context(), req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tx)
}

// Update handles PUT /bank-transactions/:id
func (h *BankHandler) Update(c *gin.Context) {
	var req BankTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.bank.UpdateBankTransaction(c.Request.Context(), c.Param("id"), req.toInput()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Delete handles DELETE /bank-transactions/:id
func (h *BankHandler) Delete(c *gin.Context) {
	if err := h.bank.DeleteBankTransaction(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
