package membershipapp

import (
	"context"
	"testing"

	"github.com/mahallubank/backend/internal/domain/ledger"
	"github.com/mahallubank/backend/internal/domain/membership"
	"github.com/mahallubank/backend/internal/domain/shared"
	"github.com/mahallubank/backend/internal/infrastructure/docstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBlockWithDefaultClusters(t *testing.T) {
	ctx := context.Background()
	svc := NewHierarchyService(docstore.NewMemoryStore(nil), nil)

	view, err := svc.CreateBlock(ctx, "  North  ")
	require.NoError(t, err)
	assert.Equal(t, "North", view.Name, "name trimmed")

	names := make([]string, 0, len(view.Clusters))
	for _, c := range view.Clusters {
		names = append(names, c.Name)
		assert.Equal(t, view.ID, c.BlockID)
	}
	assert.Equal(t, []string{"A", "B", "C", "D"}, names)
}

func TestCreateBlockIdempotent(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore(nil)
	svc := NewHierarchyService(store, nil)

	first, err := svc.CreateBlock(ctx, "North")
	require.NoError(t, err)
	second, err := svc.CreateBlock(ctx, "NORTH")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "case-insensitive match returns the existing block")

	blocks, err := svc.ListBlocks(ctx)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Len(t, blocks[0].Clusters, 4, "defaults not duplicated")
}

func TestCreateBlockEmptyName(t *testing.T) {
	svc := NewHierarchyService(docstore.NewMemoryStore(nil), nil)
	_, err := svc.CreateBlock(context.Background(), "   ")
	assert.Error(t, err)
}

func TestCreateCluster(t *testing.T) {
	ctx := context.Background()
	svc := NewHierarchyService(docstore.NewMemoryStore(nil), nil)

	_, err := svc.CreateBlock(ctx, "North")
	require.NoError(t, err)

	cluster, err := svc.CreateCluster(ctx, "North", "e")
	require.NoError(t, err)
	assert.Equal(t, "E", cluster.Name, "cluster names stored upper-cased")

	_, err = svc.CreateCluster(ctx, "North", "E")
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)

	_, err = svc.CreateCluster(ctx, "Missing", "F")
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestDeleteBlockCascades(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore(nil)
	svc := NewHierarchyService(store, nil)

	north, err := svc.CreateBlock(ctx, "North")
	require.NoError(t, err)
	south, err := svc.CreateBlock(ctx, "South")
	require.NoError(t, err)

	memberID, err := store.Add(ctx, ledger.CollectionMembers, docstore.Document{
		"name": "Amina", "blockId": north.ID, "clusterId": north.Clusters[0].ID,
	})
	require.NoError(t, err)
	otherID, err := store.Add(ctx, ledger.CollectionMembers, docstore.Document{
		"name": "Beevi", "blockId": south.ID, "clusterId": south.Clusters[0].ID,
	})
	require.NoError(t, err)
	_, err = store.Add(ctx, ledger.CollectionTransactions, docstore.Document{"memberId": memberID, "type": "in", "amount": "10"})
	require.NoError(t, err)
	_, err = store.Add(ctx, ledger.CollectionTransactions, docstore.Document{"memberId": otherID, "type": "in", "amount": "20"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBlock(ctx, "north"))

	blocks, err := svc.ListBlocks(ctx)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "South", blocks[0].Name)

	clusters, err := docstore.GetAllAs[membership.Cluster](ctx, store, membership.CollectionClusters)
	require.NoError(t, err)
	for _, c := range clusters {
		assert.Equal(t, south.ID, c.BlockID, "only the deleted block's clusters removed")
	}

	members, err := docstore.GetAllAs[ledger.Member](ctx, store, ledger.CollectionMembers)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, otherID, members[0].ID)

	transactions, err := docstore.GetAllAs[ledger.Transaction](ctx, store, ledger.CollectionTransactions)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, otherID, transactions[0].MemberID)
}

func TestDeleteClusterCascades(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore(nil)
	svc := NewHierarchyService(store, nil)

	north, err := svc.CreateBlock(ctx, "North")
	require.NoError(t, err)
	clusterA := north.Clusters[0]

	memberID, err := store.Add(ctx, ledger.CollectionMembers, docstore.Document{
		"name": "Amina", "blockId": north.ID, "clusterId": clusterA.ID,
	})
	require.NoError(t, err)
	keptID, err := store.Add(ctx, ledger.CollectionMembers, docstore.Document{
		"name": "Beevi", "blockId": north.ID, "clusterId": north.Clusters[1].ID,
	})
	require.NoError(t, err)
	_, err = store.Add(ctx, ledger.CollectionTransactions, docstore.Document{"memberId": memberID, "type": "in", "amount": "10"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCluster(ctx, "North", "a"))

	blocks, err := svc.ListBlocks(ctx)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Len(t, blocks[0].Clusters, 3)

	members, err := docstore.GetAllAs[ledger.Member](ctx, store, ledger.CollectionMembers)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, keptID, members[0].ID)

	transactions, err := store.GetAll(ctx, ledger.CollectionTransactions)
	require.NoError(t, err)
	assert.Empty(t, transactions)
}

func TestDeleteBlockNotFound(t *testing.T) {
	svc := NewHierarchyService(docstore.NewMemoryStore(nil), nil)
	err := svc.DeleteBlock(context.Background(), "Missing")
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}
