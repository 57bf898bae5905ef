package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Administrative fee amounts and the remarks written on the member-side
// out-transactions that accompany them
var (
	RegistrationFee = decimal.NewFromInt(50)
	PassbookFee     = decimal.NewFromInt(50)
)

const (
	RegistrationFeeRemarks = "One-Time Registration Fee"
	PassbookFeeRemarks     = "Passbook Renew Charge"
)

// AdminTransactionType represents the kind of administrative fee charged
type AdminTransactionType string

const (
	AdminTransactionRegistrationFee AdminTransactionType = "registration_fee"
	AdminTransactionPassbookFee     AdminTransactionType = "passbook_fee"
)

// IsValid returns true if the admin transaction type is valid
func (t AdminTransactionType) IsValid() bool {
	switch t {
	case AdminTransactionRegistrationFee, AdminTransactionPassbookFee:
		return true
	}
	return false
}

// AdminTransaction is an administrative-fee ledger entry, kept separate
// from member transactions. Append-only except for manual deletion, which
// does not reverse the member-side debit.
type AdminTransaction struct {
	ID       string               `json:"id"`
	MemberID string               `json:"memberId"`
	Type     AdminTransactionType `json:"type"`
	Amount   decimal.Decimal      `json:"amount"`
	Date     time.Time            `json:"date"`
}
