package ledgerapp

import (
	"context"
	"testing"

	"github.com/mahallubank/backend/internal/domain/ledger"
	"github.com/mahallubank/backend/internal/domain/membership"
	"github.com/mahallubank/backend/internal/domain/shared"
	"github.com/mahallubank/backend/internal/infrastructure/docstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHierarchy(t *testing.T, store docstore.Store) (blockID, clusterID string) {
	t.Helper()
	ctx := context.Background()
	blockID, err := store.Add(ctx, membership.CollectionBlocks, docstore.Document{"name": "North"})
	require.NoError(t, err)
	clusterID, err = store.Add(ctx, membership.CollectionClusters, docstore.Document{"name": "A", "blockId": blockID})
	require.NoError(t, err)
	return blockID, clusterID
}

func TestAddMember(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore(nil)
	svc := NewMemberService(store, nil)
	blockID, clusterID := setupHierarchy(t, store)

	member, err := svc.AddMember(ctx, AddMemberInput{
		Name:        "Amina",
		HouseNumber: "H-12",
		Phone:       "9876543210",
		Block:       "north",
		Cluster:     "a",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, member.ID)
	assert.Regexp(t, `^MB\d+$`, member.AccountNumber, "account number auto-assigned")
	assert.Equal(t, "919876543210", member.Phone)
	assert.Equal(t, "919876543210", member.Whatsapp, "whatsapp falls back to phone")
	assert.Equal(t, "North", member.Block, "block resolved case-insensitively")
	assert.Equal(t, blockID, member.BlockID)
	assert.Equal(t, clusterID, member.ClusterID)
	assert.False(t, member.HasPaidRegistrationFee)
}

func TestAddMemberGetOrReturnOnDuplicateAccountNumber(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore(nil)
	svc := NewMemberService(store, nil)
	setupHierarchy(t, store)

	first, err := svc.AddMember(ctx, AddMemberInput{
		AccountNumber: "MB42", Name: "Amina", Block: "North", Cluster: "A",
	})
	require.NoError(t, err)

	second, err := svc.AddMember(ctx, AddMemberInput{
		AccountNumber: "MB42", Name: "Someone Else", Block: "North", Cluster: "A",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "existing member returned, not recreated")
	assert.Equal(t, "Amina", second.Name)

	members, err := svc.ListMembers(ctx)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestAddMemberValidation(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore(nil)
	svc := NewMemberService(store, nil)
	setupHierarchy(t, store)

	_, err := svc.AddMember(ctx, AddMemberInput{Name: "   ", Block: "North", Cluster: "A"})
	assert.Error(t, err, "blank name rejected")

	_, err = svc.AddMember(ctx, AddMemberInput{Name: "Amina", Block: "Missing", Cluster: "A"})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)

	_, err = svc.AddMember(ctx, AddMemberInput{Name: "Amina", Block: "North", Cluster: "Z"})
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestUpdateMemberPartial(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore(nil)
	svc := NewMemberService(store, nil)
	setupHierarchy(t, store)

	member, err := svc.AddMember(ctx, AddMemberInput{
		Name: "Amina", HouseNumber: "H-12", Block: "North", Cluster: "A",
	})
	require.NoError(t, err)

	newName := "Amina K"
	require.NoError(t, svc.UpdateMember(ctx, member.ID, UpdateMemberInput{Name: &newName}))

	view, err := svc.GetMember(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, "Amina K", view.Name)
	assert.Equal(t, "H-12", view.HouseNumber, "unset fields untouched")
}

func TestUpdateMemberMovesBlockAndCluster(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore(nil)
	svc := NewMemberService(store, nil)
	setupHierarchy(t, store)

	southID, err := store.Add(ctx, membership.CollectionBlocks, docstore.Document{"name": "South"})
	require.NoError(t, err)
	southB, err := store.Add(ctx, membership.CollectionClusters, docstore.Document{"name": "B", "blockId": southID})
	require.NoError(t, err)

	member, err := svc.AddMember(ctx, AddMemberInput{Name: "Amina", Block: "North", Cluster: "A"})
	require.NoError(t, err)

	block, cluster := "South", "B"
	require.NoError(t, svc.UpdateMember(ctx, member.ID, UpdateMemberInput{Block: &block, Cluster: &cluster}))

	view, err := svc.GetMember(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, "South", view.Block)
	assert.Equal(t, southID, view.BlockID, "denormalized id updated with the name")
	assert.Equal(t, southB, view.ClusterID)
}

func TestDeleteMemberCascadesTransactions(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore(nil)
	svc := NewMemberService(store, nil)
	txSvc := NewTransactionService(store, nil)
	setupHierarchy(t, store)

	member, err := svc.AddMember(ctx, AddMemberInput{Name: "Amina", Block: "North", Cluster: "A"})
	require.NoError(t, err)
	other, err := svc.AddMember(ctx, AddMemberInput{Name: "Beevi", Block: "North", Cluster: "A"})
	require.NoError(t, err)

	_, err = txSvc.AddTransaction(ctx, member.ID, AddTransactionInput{Type: ledger.TransactionTypeIn, Amount: decimal.NewFromInt(30)})
	require.NoError(t, err)
	_, err = txSvc.AddTransaction(ctx, other.ID, AddTransactionInput{Type: ledger.TransactionTypeIn, Amount: decimal.NewFromInt(40)})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteMember(ctx, member.ID))

	_, err = svc.GetMember(ctx, member.ID)
	assert.Error(t, err)

	transactions, err := docstore.GetAllAs[ledger.Transaction](ctx, store, ledger.CollectionTransactions)
	require.NoError(t, err)
	require.Len(t, transactions, 1, "only the deleted member's transactions removed")
	assert.Equal(t, other.ID, transactions[0].MemberID)
}

func TestDeleteMemberMissingIsNoop(t *testing.T) {
	svc := NewMemberService(docstore.NewMemoryStore(nil), nil)
	assert.NoError(t, svc.DeleteMember(context.Background(), "ghost"))
}

func TestResetAllData(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore(nil)
	svc := NewMemberService(store, nil)
	setupHierarchy(t, store)

	_, err := svc.AddMember(ctx, AddMemberInput{Name: "Amina", Block: "North", Cluster: "A"})
	require.NoError(t, err)

	require.NoError(t, svc.ResetAllData(ctx))

	for _, collection := range []string{
		membership.CollectionBlocks,
		membership.CollectionClusters,
		ledger.CollectionMembers,
		ledger.CollectionTransactions,
		ledger.CollectionAdminTransactions,
		ledger.CollectionBankTransactions,
	} {
		docs, err := store.GetAll(ctx, collection)
		require.NoError(t, err)
		assert.Empty(t, docs, collection)
	}
}
