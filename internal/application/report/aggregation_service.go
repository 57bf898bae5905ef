// Package report computes filtered roll-ups over the ledger: per-member
// totals under block/cluster/fee/search/date filters, administrative-fee
// summaries, and bank reconciliation totals.
package report

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/mahallubank/backend/internal/domain/ledger"
	"github.com/mahallubank/backend/internal/domain/membership"
	"github.com/mahallubank/backend/internal/infrastructure/docstore"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Filter narrows a report. Zero values mean "no constraint"; From and To
// are truncated to whole days and the range is inclusive on both ends.
type Filter struct {
	Block   string
	Cluster string
	FeePaid *bool
	Search  string
	From    time.Time
	To      time.Time
}

// MemberRow is one member's totals within the filtered window
type MemberRow struct {
	ledger.Member
	TotalIn  decimal.Decimal `json:"totalIn"`
	TotalOut decimal.Decimal `json:"totalOut"`
	Balance  decimal.Decimal `json:"balance"`
}

// MemberReport is the filtered member roll-up
type MemberReport struct {
	Members  []MemberRow     `json:"members"`
	TotalIn  decimal.Decimal `json:"totalIn"`
	TotalOut decimal.Decimal `json:"totalOut"`
	Balance  decimal.Decimal `json:"balance"`
}

// FeeReport summarizes administrative fees within a window
type FeeReport struct {
	RegistrationCount int             `json:"registrationCount"`
	RegistrationTotal decimal.Decimal `json:"registrationTotal"`
	PassbookCount     int             `json:"passbookCount"`
	PassbookTotal     decimal.Decimal `json:"passbookTotal"`
	Total             decimal.Decimal `json:"total"`
}

// BankReport summarizes bank movements within a window
type BankReport struct {
	DepositCount    int             `json:"depositCount"`
	DepositTotal    decimal.Decimal `json:"depositTotal"`
	WithdrawalCount int             `json:"withdrawalCount"`
	WithdrawalTotal decimal.Decimal `json:"withdrawalTotal"`
	Net             decimal.Decimal `json:"net"`
}

// AggregationService computes reports from the stored ledger
type AggregationService struct {
	store  docstore.Store
	logger *zap.Logger
}

// NewAggregationService creates a new AggregationService
func NewAggregationService(store docstore.Store, logger *zap.Logger) *AggregationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AggregationService{
		store:  store,
		logger: logger.Named("report"),
	}
}

// MemberReport computes per-member and aggregate totals for the members
// matching the filter, counting only transactions inside the date window.
// Members are sorted by name.
func (s *AggregationService) MemberReport(ctx context.Context, filter Filter) (*MemberReport, error) {
	members, err := docstore.GetAllAs[ledger.Member](ctx, s.store, ledger.CollectionMembers)
	if err != nil {
		return nil, err
	}
	transactions, err := docstore.GetAllAs[ledger.Transaction](ctx, s.store, ledger.CollectionTransactions)
	if err != nil {
		return nil, err
	}

	from, to := dayRange(filter.From, filter.To)

	txByMember := make(map[string][]ledger.Transaction)
	for _, tx := range transactions {
		if !inRange(tx.Date, from, to) {
			continue
		}
		txByMember[tx.MemberID] = append(txByMember[tx.MemberID], tx)
	}

	report := &MemberReport{
		TotalIn:  decimal.Zero,
		TotalOut: decimal.Zero,
		Balance:  decimal.Zero,
	}
	for _, member := range members {
		if !matchesMember(member, filter) {
			continue
		}
		row := MemberRow{
			Member:   member,
			TotalIn:  decimal.Zero,
			TotalOut: decimal.Zero,
		}
		for _, tx := range txByMember[member.ID] {
			switch tx.Type {
			case ledger.TransactionTypeIn:
				row.TotalIn = row.TotalIn.Add(tx.Amount)
			case ledger.TransactionTypeOut:
				row.TotalOut = row.TotalOut.Add(tx.Amount)
			}
		}
		row.Balance = row.TotalIn.Sub(row.TotalOut)

		report.Members = append(report.Members, row)
		report.TotalIn = report.TotalIn.Add(row.TotalIn)
		report.TotalOut = report.TotalOut.Add(row.TotalOut)
	}
	report.Balance = report.TotalIn.Sub(report.TotalOut)

	sort.Slice(report.Members, func(i, j int) bool {
		return report.Members[i].Name < report.Members[j].Name
	})
	return report, nil
}

// FeeReport summarizes administrative fees within the date window
func (s *AggregationService) FeeReport(ctx context.Context, from, to time.Time) (*FeeReport, error) {
	fees, err := docstore.GetAllAs[ledger.AdminTransaction](ctx, s.store, ledger.CollectionAdminTransactions)
	if err != nil {
		return nil, err
	}

	lo, hi := dayRange(from, to)
	report := &FeeReport{
		RegistrationTotal: decimal.Zero,
		PassbookTotal:     decimal.Zero,
		Total:             decimal.Zero,
	}
	for _, fee := range fees {
		if !inRange(fee.Date, lo, hi) {
			continue
		}
		switch fee.Type {
		case ledger.AdminTransactionRegistrationFee:
			report.RegistrationCount++
			report.RegistrationTotal = report.RegistrationTotal.Add(fee.Amount)
		case ledger.AdminTransactionPassbookFee:
			report.PassbookCount++
			report.PassbookTotal = report.PassbookTotal.Add(fee.Amount)
		}
	}
	report.Total = report.RegistrationTotal.Add(report.PassbookTotal)
	return report, nil
}

// BankReport summarizes bank movements within the date window
func (s *AggregationService) BankReport(ctx context.Context, from, to time.Time) (*BankReport, error) {
	txs, err := docstore.GetAllAs[ledger.BankTransaction](ctx, s.store, ledger.CollectionBankTransactions)
	if err != nil {
		return nil, err
	}

	lo, hi := dayRange(from, to)
	report := &BankReport{
		DepositTotal:    decimal.Zero,
		WithdrawalTotal: decimal.Zero,
		Net:             decimal.Zero,
	}
	for _, tx := range txs {
		if !inRange(tx.Date, lo, hi) {
			continue
		}
		switch tx.Type {
		case ledger.BankTransactionDeposit:
			report.DepositCount++
			report.DepositTotal = report.DepositTotal.Add(tx.Amount)
		case ledger.BankTransactionWithdrawal:
			report.WithdrawalCount++
			report.WithdrawalTotal = report.WithdrawalTotal.Add(tx.Amount)
		}
	}
	report.Net = report.DepositTotal.Sub(report.WithdrawalTotal)
	return report, nil
}

func matchesMember(m ledger.Member, filter Filter) bool {
	if filter.Block != "" && !membership.NamesEqual(m.Block, filter.Block) {
		return false
	}
	if filter.Cluster != "" && !membership.NamesEqual(m.Cluster, filter.Cluster) {
		return false
	}
	if filter.FeePaid != nil && m.HasPaidRegistrationFee != *filter.FeePaid {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(m.Name), needle) &&
			!strings.Contains(strings.ToLower(m.AccountNumber), needle) {
			return false
		}
	}
	return true
}

// dayRange truncates the bounds to whole days, with the upper bound
// extended to the end of its day so the range is inclusive
func dayRange(from, to time.Time) (time.Time, time.Time) {
	if !from.IsZero() {
		from = truncateDay(from)
	}
	if !to.IsZero() {
		to = truncateDay(to).AddDate(0, 0, 1)
	}
	return from, to
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}
