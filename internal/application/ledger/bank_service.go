package ledgerapp

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mahallubank/backend/internal/domain/ledger"
	"github.com/mahallubank/backend/internal/infrastructure/docstore"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BankTransactionInput carries the fields for recording a bank movement
type BankTransactionInput struct {
	Date              time.Time
	Type              ledger.BankTransactionType
	TransacterName    string
	PhoneNumber       string
	TransactionNumber string
	Remarks           string
	Amount            decimal.Decimal
}

// BankService manages the reconciliation ledger of real-world bank
// deposits and withdrawals
type BankService struct {
	store  docstore.Store
	logger *zap.Logger
}

// NewBankService creates a new BankService
func NewBankService(store docstore.Store, logger *zap.Logger) *BankService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BankService{
		store:  store,
		logger: logger.Named("ledger.bank"),
	}
}

// AddBankTransaction records a bank movement
func (s *BankService) AddBankTransaction(ctx context.Context, input BankTransactionInput) (*ledger.BankTransaction, error) {
	tx := ledger.BankTransaction{
		Date:              input.Date,
		Type:              input.Type,
		TransacterName:    input.TransacterName,
		PhoneNumber:       ledger.NormalizePhone(input.PhoneNumber),
		TransactionNumber: input.TransactionNumber,
		Remarks:           input.Remarks,
		Amount:            input.Amount,
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	doc, err := docstore.EncodeNew(tx)
	if err != nil {
		return nil, err
	}
	id, err := s.store.Add(ctx, ledger.CollectionBankTransactions, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to record bank transaction: %w", err)
	}
	tx.ID = id

	s.logger.Info("bank transaction recorded",
		zap.String("type", string(tx.Type)),
		zap.String("amount", tx.Amount.String()),
	)
	return &tx, nil
}

// UpdateBankTransaction replaces a bank movement's fields after re-validation
func (s *BankService) UpdateBankTransaction(ctx context.Context, id string, input BankTransactionInput) error {
	tx := ledger.BankTransaction{
		Date:              input.Date,
		Type:              input.Type,
		TransacterName:    input.TransacterName,
		PhoneNumber:       ledger.NormalizePhone(input.PhoneNumber),
		TransactionNumber: input.TransactionNumber,
		Remarks:           input.Remarks,
		Amount:            input.Amount,
	}
	if err := tx.Validate(); err != nil {
		return err
	}
	doc, err := docstore.EncodeNew(tx)
	if err != nil {
		return err
	}
	return s.store.Update(ctx, ledger.CollectionBankTransactions, id, doc)
}

// DeleteBankTransaction removes a bank movement
func (s *BankService) DeleteBankTransaction(ctx context.Context, id string) error {
	return s.store.Delete(ctx, ledger.CollectionBankTransactions, id)
}

// ListBankTransactions returns every bank movement, newest first
func (s *BankService) ListBankTransactions(ctx context.Context) ([]ledger.BankTransaction, error) {
	txs, err := docstore.GetAllAs[ledger.BankTransaction](ctx, s.store, ledger.CollectionBankTransactions)
	if err != nil {
		return nil, err
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].Date.After(txs[j].Date) })
	return txs, nil
}
