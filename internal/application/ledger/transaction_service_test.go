package ledgerapp

import (
	"context"
	"testing"
	"time"

	"github.com/mahallubank/backend/internal/domain/ledger"
	"github.com/mahallubank/backend/internal/domain/shared"
	"github.com/mahallubank/backend/internal/infrastructure/docstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMember(t *testing.T, store docstore.Store, feePaid bool) string {
	t.Helper()
	id, err := store.Add(context.Background(), ledger.CollectionMembers, docstore.Document{
		"accountNumber":          "MB100",
		"name":                   "Amina",
		"hasPaidRegistrationFee": feePaid,
	})
	require.NoError(t, err)
	return id
}

func memberBalance(t *testing.T, store docstore.Store, memberID string) decimal.Decimal {
	t.Helper()
	ctx := context.Background()
	doc, err := store.GetOne(ctx, ledger.CollectionMembers, memberID)
	require.NoError(t, err)
	var member ledger.Member
	require.NoError(t, docstore.Decode(doc, &member))
	transactions, err := docstore.GetAllAs[ledger.Transaction](ctx, store, ledger.CollectionTransactions)
	require.NoError(t, err)
	return ledger.DeriveMemberView(member, transactions).Balance
}

func TestAddTransactionFirstLargeDepositChargesFee(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore(nil)
	svc := NewTransactionService(store, nil)
	memberID := setupMember(t, store, false)

	result, err := svc.AddTransaction(ctx, memberID, AddTransactionInput{
		Type:   ledger.TransactionTypeIn,
		Amount: decimal.NewFromInt(200),
	})
	require.NoError(t, err)

	// 200 in, 50 withheld as registration fee
	assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(150)), "balance = %s", result.NewBalance)
	assert.True(t, memberBalance(t, store, memberID).Equal(decimal.NewFromInt(150)))

	transactions, err := docstore.GetAllAs[ledger.Transaction](ctx, store, ledger.CollectionTransactions)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.True(t, transactions[0].Amount.Equal(decimal.NewFromInt(150)), "stored amount is fee-adjusted")

	fees, err := svc.ListAdminTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, fees, 1)
	assert.Equal(t, ledger.AdminTransactionRegistrationFee, fees[0].Type)
	assert.True(t, fees[0].Amount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, memberID, fees[0].MemberID)

	doc, err := store.GetOne(ctx, ledger.CollectionMembers, memberID)
	require.NoError(t, err)
	assert.Equal(t, true, doc["hasPaidRegistrationFee"])
}

func TestAddTransactionFeeChargedOnlyOnce(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore(nil)
	svc := NewTransactionService(store, nil)
	memberID := setupMember(t, store, false)

	_, err := svc.AddTransaction(ctx, memberID, AddTransactionInput{
		Type: ledger.TransactionTypeIn, Amount: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	result, err := svc.AddTransaction(ctx, memberID, AddTransactionInput{
		Type: ledger.TransactionTypeIn, Amount: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	// First deposit: 100-50=50. Second deposit credited in full.
	assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(150)), "balance = %s", result.NewBalance)

	fees, err := svc.ListAdminTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, fees, 1)
}

func TestAddTransactionSmallDepositDoesNotChargeFee(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore(nil)
	svc := NewTransactionService(store, nil)
	memberID := setupMember(t, store, false)

	result, err := svc.AddTransaction(ctx, memberID, AddTransactionInput{
		Type: ledger.TransactionTypeIn, Amount: decimal.NewFromInt(49),
	})
	require.NoError(t, err)
	assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(49)))

	fees, err := svc.ListAdminTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, fees)

	doc, err := store.GetOne(ctx, ledger.CollectionMembers, memberID)
	require.NoError(t, err)
	assert.Equal(t, false, doc["hasPaidRegistrationFee"])
}

func TestAddTransactionOutAllowsOverdraft(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore(nil)
	svc := NewTransactionService(store, nil)
	memberID := setupMember(t, store, true)

	result, err := svc.AddTransaction(ctx, memberID, AddTransactionInput{
		Type: ledger.TransactionTypeOut, Amount: decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(-50)), "balance = %s", result.NewBalance)
}

func TestAddTransactionUnknownMember(t *testing.T) {
	svc := NewTransactionService(docstore.NewMemoryStore(nil), nil)

	_, err := svc.AddTransaction(context.Background(), "ghost", AddTransactionInput{
		Type: ledger.TransactionTypeIn, Amount: decimal.NewFromInt(10),
	})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestUpdateTransaction(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore(nil)
	svc := NewTransactionService(store, nil)
	memberID := setupMember(t, store, true)

	result, err := svc.AddTransaction(ctx, memberID, AddTransactionInput{
		Type: ledger.TransactionTypeIn, Amount: decimal.NewFromInt(100), Remarks: "weekly",
	})
	require.NoError(t, err)

	newDate := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.UpdateTransaction(ctx, memberID, result.TransactionID, decimal.NewFromInt(120), newDate))

	transactions, err := docstore.GetAllAs[ledger.Transaction](ctx, store, ledger.CollectionTransactions)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.True(t, transactions[0].Amount.Equal(decimal.NewFromInt(120)))
	assert.True(t, transactions[0].Date.Equal(newDate))
	assert.Equal(t, "weekly", transactions[0].Remarks, "remarks untouched by amendment")

	// Crossing the fee threshold on amendment never charges the fee
	fees, err := svc.ListAdminTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, fees)
}

func TestUpdateTransactionRejectsNonPositiveAmount(t *testing.T) {
	store := docstore.NewMemoryStore(nil)
	svc := NewTransactionService(store, nil)
	memberID := setupMember(t, store, true)

	err := svc.UpdateTransaction(context.Background(), memberID, "t1", decimal.Zero, time.Now())
	assert.Error(t, err)
}

func TestChargeRegistrationFee(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore(nil)
	svc := NewTransactionService(store, nil)
	memberID := setupMember(t, store, true)

	// hasPaidRegistrationFee=true blocks the explicit charge
	err := svc.ChargeRegistrationFee(ctx, memberID)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ALREADY_PAID", domainErr.Code)
}

func TestChargeRegistrationFeeInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore(nil)
	svc := NewTransactionService(store, nil)
	memberID := setupMember(t, store, false)

	_, err := svc.AddTransaction(ctx, memberID, AddTransactionInput{
		Type: ledger.TransactionTypeIn, Amount: decimal.NewFromInt(30),
	})
	require.NoError(t, err)

	err = svc.ChargeRegistrationFee(ctx, memberID)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INSUFFICIENT_BALANCE", domainErr.Code)

	// Guard failed before any write
	fees, err := svc.ListAdminTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, fees)
	assert.True(t, memberBalance(t, store, memberID).Equal(decimal.NewFromInt(30)))
}

func TestChargeRegistrationFeeSuccess(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore(nil)
	svc := NewTransactionService(store, nil)
	memberID := setupMember(t, store, false)

	// 49 stays under the implicit fee threshold twice: balance 98, flag unset
	for i := 0; i < 2; i++ {
		_, err := svc.AddTransaction(ctx, memberID, AddTransactionInput{
			Type: ledger.TransactionTypeIn, Amount: decimal.NewFromInt(49),
		})
		require.NoError(t, err)
	}

	require.NoError(t, svc.ChargeRegistrationFee(ctx, memberID))

	assert.True(t, memberBalance(t, store, memberID).Equal(decimal.NewFromInt(48)))

	transactions, err := docstore.GetAllAs[ledger.Transaction](ctx, store, ledger.CollectionTransactions)
	require.NoError(t, err)
	require.Len(t, transactions, 3)
	var feeTx *ledger.Transaction
	for i := range transactions {
		if transactions[i].Remarks == ledger.RegistrationFeeRemarks {
			feeTx = &transactions[i]
		}
	}
	require.NotNil(t, feeTx, "member-side debit recorded")
	assert.Equal(t, ledger.TransactionTypeOut, feeTx.Type)

	doc, err := store.GetOne(ctx, ledger.CollectionMembers, memberID)
	require.NoError(t, err)
	assert.Equal(t, true, doc["hasPaidRegistrationFee"])

	// Second explicit charge is blocked
	err = svc.ChargeRegistrationFee(ctx, memberID)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ALREADY_PAID", domainErr.Code)
}

func TestChargePassbookFee(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore(nil)
	svc := NewTransactionService(store, nil)
	memberID := setupMember(t, store, true)

	// No balance check: the charge may overdraw
	require.NoError(t, svc.ChargePassbookFee(ctx, memberID))
	require.NoError(t, svc.ChargePassbookFee(ctx, memberID))

	assert.True(t, memberBalance(t, store, memberID).Equal(decimal.NewFromInt(-100)))

	fees, err := svc.ListAdminTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, fees, 2, "passbook fee is chargeable repeatedly")
	for _, fee := range fees {
		assert.Equal(t, ledger.AdminTransactionPassbookFee, fee.Type)
	}
}

func TestDeleteAdminTransactionKeepsDebit(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore(nil)
	svc := NewTransactionService(store, nil)
	memberID := setupMember(t, store, true)

	require.NoError(t, svc.ChargePassbookFee(ctx, memberID))

	fees, err := svc.ListAdminTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, fees, 1)

	require.NoError(t, svc.DeleteAdminTransaction(ctx, fees[0].ID))

	fees, err = svc.ListAdminTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, fees)

	// The member-side debit survives
	assert.True(t, memberBalance(t, store, memberID).Equal(decimal.NewFromInt(-50)))
}
