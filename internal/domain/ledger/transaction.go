package ledger

import (
	"time"

	"github.com/mahallubank/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Collection names in the document store
const (
	CollectionMembers           = "members"
	CollectionTransactions      = "transactions"
	CollectionAdminTransactions = "adminTransactions"
	CollectionBankTransactions  = "bankTransactions"
)

// TransactionType represents the direction of a member transaction
type TransactionType string

const (
	// TransactionTypeIn represents a cash-in (deposit) against the member's balance
	TransactionTypeIn TransactionType = "in"
	// TransactionTypeOut represents a cash-out (withdrawal) against the member's balance
	TransactionTypeOut TransactionType = "out"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeIn, TransactionTypeOut:
		return true
	}
	return false
}

// Transaction is a cash-in or cash-out ledger entry against a member.
// Entries are immutable once posted except for amendment of amount and date.
type Transaction struct {
	ID        string          `json:"id"`
	MemberID  string          `json:"memberId"`
	Type      TransactionType `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Date      time.Time       `json:"date"`
	Remarks   string          `json:"remarks"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewTransaction creates a new transaction after validating its invariants
func NewTransaction(memberID string, txType TransactionType, amount decimal.Decimal, date time.Time, remarks string) (*Transaction, error) {
	if memberID == "" {
		return nil, shared.NewDomainError("INVALID_MEMBER", "Member ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Transaction type must be 'in' or 'out'")
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if date.IsZero() {
		date = time.Now()
	}
	return &Transaction{
		MemberID:  memberID,
		Type:      txType,
		Amount:    amount,
		Date:      date,
		Remarks:   remarks,
		CreatedAt: time.Now(),
	}, nil
}

// SignedAmount returns the amount with sign based on transaction type:
// positive for cash-in, negative for cash-out
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeOut {
		return t.Amount.Neg()
	}
	return t.Amount
}
