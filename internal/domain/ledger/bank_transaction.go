package ledger

import (
	"time"

	"github.com/mahallubank/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BankTransactionType represents the direction of a real-world bank movement
type BankTransactionType string

const (
	BankTransactionDeposit    BankTransactionType = "deposit"
	BankTransactionWithdrawal BankTransactionType = "withdrawal"
)

// IsValid returns true if the bank transaction type is valid
func (t BankTransactionType) IsValid() bool {
	switch t {
	case BankTransactionDeposit, BankTransactionWithdrawal:
		return true
	}
	return false
}

// BankTransaction records a real-world bank deposit or withdrawal. It is
// not linked to members; it exists purely for reconciliation.
type BankTransaction struct {
	ID                string              `json:"id"`
	Date              time.Time           `json:"date"`
	Type              BankTransactionType `json:"type"`
	TransacterName    string              `json:"transacterName"`
	PhoneNumber       string              `json:"phoneNumber,omitempty"`
	TransactionNumber string              `json:"transactionNumber,omitempty"`
	Remarks           string              `json:"remarks,omitempty"`
	Amount            decimal.Decimal     `json:"amount"`
}

// Validate checks the invariants of a bank transaction before it is stored
func (t *BankTransaction) Validate() error {
	if !t.Type.IsValid() {
		return shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Bank transaction type must be 'deposit' or 'withdrawal'")
	}
	if t.TransacterName == "" {
		return shared.NewDomainError("INVALID_INPUT", "Transacter name cannot be empty")
	}
	if t.Amount.IsNegative() || t.Amount.IsZero() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if t.Date.IsZero() {
		t.Date = time.Now()
	}
	return nil
}
