package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Member is a bank customer/account holder. Block and cluster are stored
// denormalized as both name and id; any mutation that changes the
// relationship must update both halves together.
type Member struct {
	ID                     string `json:"id"`
	AccountNumber          string `json:"accountNumber"`
	Name                   string `json:"name"`
	HouseNumber            string `json:"houseNumber"`
	HusbandName            string `json:"husbandName,omitempty"`
	Address                string `json:"address,omitempty"`
	Phone                  string `json:"phone"`
	Whatsapp               string `json:"whatsapp,omitempty"`
	Block                  string `json:"block"`
	BlockID                string `json:"blockId"`
	Cluster                string `json:"cluster"`
	ClusterID              string `json:"clusterId"`
	HasPaidRegistrationFee bool   `json:"hasPaidRegistrationFee"`
}

// GenerateAccountNumber produces an auto-assigned account number in the
// form MB<epoch-ms>
func GenerateAccountNumber() string {
	return fmt.Sprintf("MB%d", time.Now().UnixMilli())
}

// MemberView is a member together with balances derived from the stored
// (fee-adjusted) transaction amounts. Transactions are sorted newest-first.
type MemberView struct {
	Member
	TotalIn      decimal.Decimal `json:"totalIn"`
	TotalOut     decimal.Decimal `json:"totalOut"`
	Balance      decimal.Decimal `json:"balance"`
	Transactions []Transaction   `json:"transactions"`
}

// DeriveMemberView computes totals for one member from its transaction history
func DeriveMemberView(member Member, transactions []Transaction) MemberView {
	own := make([]Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if tx.MemberID == member.ID {
			own = append(own, tx)
		}
	}
	sort.SliceStable(own, func(i, j int) bool {
		return own[i].Date.After(own[j].Date)
	})

	totalIn := decimal.Zero
	totalOut := decimal.Zero
	for _, tx := range own {
		switch tx.Type {
		case TransactionTypeIn:
			totalIn = totalIn.Add(tx.Amount)
		case TransactionTypeOut:
			totalOut = totalOut.Add(tx.Amount)
		}
	}

	return MemberView{
		Member:       member,
		TotalIn:      totalIn,
		TotalOut:     totalOut,
		Balance:      totalIn.Sub(totalOut),
		Transactions: own,
	}
}
