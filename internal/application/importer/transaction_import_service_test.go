package importer

import (
	"context"
	"testing"

	"github.com/mahallubank/backend/internal/domain/ledger"
	"github.com/mahallubank/backend/internal/domain/shared"
	"github.com/mahallubank/backend/internal/infrastructure/docstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMember(t *testing.T, store docstore.Store, accountNumber string) string {
	t.Helper()
	id, err := store.Add(context.Background(), ledger.CollectionMembers, docstore.Document{
		"accountNumber": accountNumber, "name": "Amina",
	})
	require.NoError(t, err)
	return id
}

func TestImportTransactions(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore(nil)
	svc := NewTransactionImportService(store, nil)
	memberID := seedMember(t, store, "MB42")

	csvData := "accountNumber,type,amount,date,remarks\n" +
		"MB42,IN,100,2026-01-15,weekly\n" +
		"MB42,out,30,,\n" +
		"MB99,in,10,,\n" +
		"MB42,transfer,10,,\n" +
		"MB42,in,-5,,\n"

	result, err := svc.ImportTransactions(ctx, csvData, false)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Success)
	assert.Equal(t, 3, result.Failed, "unknown account, bad type, bad amount")
	assert.Zero(t, result.Duplicates)

	transactions, err := docstore.GetAllAs[ledger.Transaction](ctx, store, ledger.CollectionTransactions)
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	for _, tx := range transactions {
		assert.Equal(t, memberID, tx.MemberID)
		assert.False(t, tx.Date.IsZero())
	}

	byType := map[ledger.TransactionType]ledger.Transaction{}
	for _, tx := range transactions {
		byType[tx.Type] = tx
	}
	in := byType[ledger.TransactionTypeIn]
	assert.True(t, in.Amount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "weekly", in.Remarks)
	assert.Equal(t, 2026, in.Date.Year(), "date column parsed")

	out := byType[ledger.TransactionTypeOut]
	assert.Equal(t, DefaultImportRemarks, out.Remarks, "empty remarks defaulted")
}

func TestImportTransactionsPreservesTransactionID(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore(nil)
	svc := NewTransactionImportService(store, nil)
	seedMember(t, store, "MB42")

	csvData := "accountNumber,type,amount,transactionId\nMB42,in,100,tx-7\n"
	result, err := svc.ImportTransactions(ctx, csvData, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)

	transactions, err := docstore.GetAllAs[ledger.Transaction](ctx, store, ledger.CollectionTransactions)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, "tx-7", transactions[0].ID, "caller-supplied id kept as record id")
}

func TestImportTransactionsDuplicateAnalysisPass(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore(nil)
	svc := NewTransactionImportService(store, nil)
	seedMember(t, store, "MB42")

	csvData := "accountNumber,type,amount,transactionId\nMB42,in,100,tx-7\n"
	_, err := svc.ImportTransactions(ctx, csvData, false)
	require.NoError(t, err)

	// Re-importing the same file without overwrite aborts before writing
	result, err := svc.ImportTransactions(ctx, csvData, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Duplicates)
	assert.Zero(t, result.Success)
	assert.Zero(t, result.Failed)

	transactions, err := docstore.GetAllAs[ledger.Transaction](ctx, store, ledger.CollectionTransactions)
	require.NoError(t, err)
	require.Len(t, transactions, 1, "analysis pass writes nothing")
	assert.True(t, transactions[0].Amount.Equal(decimal.NewFromInt(100)))
}

func TestImportTransactionsOverwriteByTransactionID(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore(nil)
	svc := NewTransactionImportService(store, nil)
	seedMember(t, store, "MB42")

	first := "accountNumber,type,amount,transactionId\nMB42,in,100,tx-7\n"
	result, err := svc.ImportTransactions(ctx, first, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)

	second := "accountNumber,type,amount,transactionId\nMB42,in,250,tx-7\n"
	result, err = svc.ImportTransactions(ctx, second, true)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	assert.Zero(t, result.Duplicates)

	transactions, err := docstore.GetAllAs[ledger.Transaction](ctx, store, ledger.CollectionTransactions)
	require.NoError(t, err)
	require.Len(t, transactions, 1, "overwrite replaces in place, not duplicates")
	assert.Equal(t, "tx-7", transactions[0].ID)
	assert.True(t, transactions[0].Amount.Equal(decimal.NewFromInt(250)))
}

func TestImportTransactionsMissingHeaders(t *testing.T) {
	svc := NewTransactionImportService(docstore.NewMemoryStore(nil), nil)

	_, err := svc.ImportTransactions(context.Background(), "accountNumber,amount\nMB42,10\n", false)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}
