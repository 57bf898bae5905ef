package ledgerapp

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mahallubank/backend/internal/domain/ledger"
	"github.com/mahallubank/backend/internal/domain/shared"
	"github.com/mahallubank/backend/internal/infrastructure/docstore"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AddTransactionInput carries the fields for posting a member transaction
type AddTransactionInput struct {
	Type    ledger.TransactionType
	Amount  decimal.Decimal
	Date    time.Time
	Remarks string
}

// TransactionResult is returned from a successful post, for confirmation
// messaging
type TransactionResult struct {
	TransactionID string          `json:"transactionId"`
	NewBalance    decimal.Decimal `json:"newBalance"`
}

// TransactionService posts and amends member transactions and charges
// administrative fees
type TransactionService struct {
	store  docstore.Store
	logger *zap.Logger
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(store docstore.Store, logger *zap.Logger) *TransactionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionService{
		store:  store,
		logger: logger.Named("ledger.transaction"),
	}
}

// AddTransaction posts a cash-in or cash-out against a member.
//
// A first sufficiently large cash-in triggers the one-time registration
// fee: the stored transaction amount is reduced by the fee, an
// AdminTransaction records the fee, and the member's flag flips, all in
// the same unit of work. Cash-out may drive the balance negative; the
// overdraft confirmation step belongs to the caller.
func (s *TransactionService) AddTransaction(ctx context.Context, memberID string, input AddTransactionInput) (*TransactionResult, error) {
	member, balance, err := s.memberWithBalance(ctx, memberID)
	if err != nil {
		return nil, err
	}

	tx, err := ledger.NewTransaction(memberID, input.Type, input.Amount, input.Date, input.Remarks)
	if err != nil {
		return nil, err
	}

	chargeFee := tx.Type == ledger.TransactionTypeIn &&
		!member.HasPaidRegistrationFee &&
		tx.Amount.GreaterThanOrEqual(ledger.RegistrationFee)
	if chargeFee {
		// The member is credited amount-50; downstream totals only ever
		// see the stored, fee-adjusted amount
		tx.Amount = tx.Amount.Sub(ledger.RegistrationFee)
	}

	newBalance := balance.Add(tx.SignedAmount())

	var transactionID string
	err = s.runBatch(ctx, func(store docstore.Store) error {
		if chargeFee {
			if err := s.recordAdminTransaction(ctx, store, memberID, ledger.AdminTransactionRegistrationFee); err != nil {
				return err
			}
			if err := store.Update(ctx, ledger.CollectionMembers, memberID, docstore.Document{
				"hasPaidRegistrationFee": true,
			}); err != nil {
				return err
			}
		}

		doc, err := docstore.EncodeNew(tx)
		if err != nil {
			return err
		}
		transactionID, err = store.Add(ctx, ledger.CollectionTransactions, doc)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to post transaction for member %s: %w", member.AccountNumber, err)
	}

	s.logger.Info("transaction posted",
		zap.String("accountNumber", member.AccountNumber),
		zap.String("type", tx.Type.String()),
		zap.String("amount", tx.Amount.String()),
		zap.Bool("registrationFeeCharged", chargeFee),
	)
	return &TransactionResult{TransactionID: transactionID, NewBalance: newBalance}, nil
}

// UpdateTransaction amends the amount and date of an existing transaction.
// The registration-fee rule is not re-evaluated; an amendment across the
// fee threshold leaves the fee records as they were.
func (s *TransactionService) UpdateTransaction(ctx context.Context, memberID, transactionID string, newAmount decimal.Decimal, newDate time.Time) error {
	if newAmount.IsNegative() || newAmount.IsZero() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if _, _, err := s.memberWithBalance(ctx, memberID); err != nil {
		return err
	}
	return s.store.Update(ctx, ledger.CollectionTransactions, transactionID, docstore.Document{
		"amount": newAmount,
		"date":   newDate.Format(time.RFC3339Nano),
	})
}

// ChargeRegistrationFee charges the one-time registration fee explicitly.
// Unlike the implicit in-flow deduction this is hard-blocked: the member
// must not have paid already and must hold at least the fee amount.
func (s *TransactionService) ChargeRegistrationFee(ctx context.Context, memberID string) error {
	member, balance, err := s.memberWithBalance(ctx, memberID)
	if err != nil {
		return err
	}
	if member.HasPaidRegistrationFee {
		return shared.NewDomainError("ALREADY_PAID", "Member has already paid the registration fee")
	}
	if balance.LessThan(ledger.RegistrationFee) {
		return shared.NewDomainError("INSUFFICIENT_BALANCE",
			fmt.Sprintf("Insufficient balance. Member needs at least %s to pay the fee", ledger.RegistrationFee))
	}

	err = s.runBatch(ctx, func(store docstore.Store) error {
		if err := s.recordAdminTransaction(ctx, store, memberID, ledger.AdminTransactionRegistrationFee); err != nil {
			return err
		}
		if err := s.recordFeeDebit(ctx, store, memberID, ledger.RegistrationFee, ledger.RegistrationFeeRemarks); err != nil {
			return err
		}
		return store.Update(ctx, ledger.CollectionMembers, memberID, docstore.Document{
			"hasPaidRegistrationFee": true,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to charge registration fee for member %s: %w", member.AccountNumber, err)
	}

	s.logger.Info("registration fee charged", zap.String("accountNumber", member.AccountNumber))
	return nil
}

// ChargePassbookFee charges the flat passbook-renewal fee. No balance
// check: like cash-out, the debit may drive the balance negative.
func (s *TransactionService) ChargePassbookFee(ctx context.Context, memberID string) error {
	member, _, err := s.memberWithBalance(ctx, memberID)
	if err != nil {
		return err
	}

	err = s.runBatch(ctx, func(store docstore.Store) error {
		if err := s.recordAdminTransaction(ctx, store, memberID, ledger.AdminTransactionPassbookFee); err != nil {
			return err
		}
		return s.recordFeeDebit(ctx, store, memberID, ledger.PassbookFee, ledger.PassbookFeeRemarks)
	})
	if err != nil {
		return fmt.Errorf("failed to charge passbook fee for member %s: %w", member.AccountNumber, err)
	}

	s.logger.Info("passbook fee charged", zap.String("accountNumber", member.AccountNumber))
	return nil
}

// ListAdminTransactions returns the administrative-fee ledger, newest first
func (s *TransactionService) ListAdminTransactions(ctx context.Context) ([]ledger.AdminTransaction, error) {
	fees, err := docstore.GetAllAs[ledger.AdminTransaction](ctx, s.store, ledger.CollectionAdminTransactions)
	if err != nil {
		return nil, err
	}
	sort.Slice(fees, func(i, j int) bool { return fees[i].Date.After(fees[j].Date) })
	return fees, nil
}

// DeleteAdminTransaction removes a fee record. The member-side debit, if
// any, is not reversed.
func (s *TransactionService) DeleteAdminTransaction(ctx context.Context, id string) error {
	return s.store.Delete(ctx, ledger.CollectionAdminTransactions, id)
}

func (s *TransactionService) memberWithBalance(ctx context.Context, memberID string) (*ledger.Member, decimal.Decimal, error) {
	doc, err := s.store.GetOne(ctx, ledger.CollectionMembers, memberID)
	if err == shared.ErrNotFound {
		return nil, decimal.Zero, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Member %s not found", memberID))
	}
	if err != nil {
		return nil, decimal.Zero, err
	}
	var member ledger.Member
	if err := docstore.Decode(doc, &member); err != nil {
		return nil, decimal.Zero, err
	}

	transactions, err := docstore.GetAllAs[ledger.Transaction](ctx, s.store, ledger.CollectionTransactions)
	if err != nil {
		return nil, decimal.Zero, err
	}
	view := ledger.DeriveMemberView(member, transactions)
	return &member, view.Balance, nil
}

func (s *TransactionService) recordAdminTransaction(ctx context.Context, store docstore.Store, memberID string, feeType ledger.AdminTransactionType) error {
	amount := ledger.RegistrationFee
	if feeType == ledger.AdminTransactionPassbookFee {
		amount = ledger.PassbookFee
	}
	doc, err := docstore.EncodeNew(ledger.AdminTransaction{
		MemberID: memberID,
		Type:     feeType,
		Amount:   amount,
		Date:     time.Now(),
	})
	if err != nil {
		return err
	}
	_, err = store.Add(ctx, ledger.CollectionAdminTransactions, doc)
	return err
}

func (s *TransactionService) recordFeeDebit(ctx context.Context, store docstore.Store, memberID string, amount decimal.Decimal, remarks string) error {
	tx, err := ledger.NewTransaction(memberID, ledger.TransactionTypeOut, amount, time.Now(), remarks)
	if err != nil {
		return err
	}
	doc, err := docstore.EncodeNew(tx)
	if err != nil {
		return err
	}
	_, err = store.Add(ctx, ledger.CollectionTransactions, doc)
	return err
}

func (s *TransactionService) runBatch(ctx context.Context, fn func(docstore.Store) error) error {
	if batcher, ok := s.store.(docstore.Batcher); ok {
		return batcher.Batch(ctx, fn)
	}
	return fn(s.store)
}
