// Package membershipapp manages the block/cluster hierarchy: creation with
// default clusters, and cascading deletion down to member transactions.
package membershipapp

import (
	"context"
	"fmt"
	"sort"

	"github.com/mahallubank/backend/internal/domain/ledger"
	"github.com/mahallubank/backend/internal/domain/membership"
	"github.com/mahallubank/backend/internal/domain/shared"
	"github.com/mahallubank/backend/internal/infrastructure/docstore"
	"go.uber.org/zap"
)

// HierarchyService manages blocks and clusters
type HierarchyService struct {
	store  docstore.Store
	logger *zap.Logger
}

// NewHierarchyService creates a new HierarchyService
func NewHierarchyService(store docstore.Store, logger *zap.Logger) *HierarchyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HierarchyService{
		store:  store,
		logger: logger.Named("membership"),
	}
}

// CreateBlock creates a block with the default clusters A-D. The lookup is
// case-insensitive; when a block with the same name already exists it is
// returned unchanged.
func (s *HierarchyService) CreateBlock(ctx context.Context, name string) (*membership.BlockView, error) {
	name = membership.NormalizeName(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Block name cannot be empty")
	}

	existing, err := s.FindBlockByName(ctx, name)
	if err != nil && err != shared.ErrNotFound {
		return nil, err
	}
	if existing != nil {
		return s.blockView(ctx, s.store, *existing)
	}

	blockID, err := s.store.Add(ctx, membership.CollectionBlocks, docstore.Document{"name": name})
	if err != nil {
		return nil, fmt.Errorf("failed to create block %q: %w", name, err)
	}

	view := &membership.BlockView{Block: membership.Block{ID: blockID, Name: name}}
	for _, clusterName := range membership.DefaultClusterNames {
		clusterDoc := docstore.Document{"name": clusterName, "blockId": blockID}
		clusterID, err := s.store.Add(ctx, membership.CollectionClusters, clusterDoc)
		if err != nil {
			return nil, fmt.Errorf("failed to create default cluster %s of block %q: %w", clusterName, name, err)
		}
		view.Clusters = append(view.Clusters, membership.Cluster{
			ID:      clusterID,
			BlockID: blockID,
			Name:    clusterName,
		})
	}

	s.logger.Info("block created",
		zap.String("block", name),
		zap.String("blockId", blockID),
	)
	return view, nil
}

// CreateCluster adds a cluster to an existing block. Cluster names are
// unique within their block, case-insensitively, and stored upper-cased.
func (s *HierarchyService) CreateCluster(ctx context.Context, blockName, clusterName string) (*membership.Cluster, error) {
	block, err := s.FindBlockByName(ctx, blockName)
	if err == shared.ErrNotFound {
		return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Block %q not found", blockName))
	}
	if err != nil {
		return nil, err
	}

	clusters, err := s.clustersOfBlock(ctx, s.store, block.ID)
	if err != nil {
		return nil, err
	}
	for _, c := range clusters {
		if membership.NamesEqual(c.Name, clusterName) {
			return nil, shared.NewDomainError("ALREADY_EXISTS",
				fmt.Sprintf("Cluster %q already exists in block %q", clusterName, block.Name))
		}
	}

	canonical := membership.CanonicalClusterName(clusterName)
	if canonical == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Cluster name cannot be empty")
	}
	id, err := s.store.Add(ctx, membership.CollectionClusters, docstore.Document{
		"name":    canonical,
		"blockId": block.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cluster %q: %w", canonical, err)
	}
	return &membership.Cluster{ID: id, BlockID: block.ID, Name: canonical}, nil
}

// DeleteBlock removes a block, cascading through its clusters, their
// members, and those members' transactions. The steps run as one batch
// when the store supports it.
func (s *HierarchyService) DeleteBlock(ctx context.Context, blockName string) error {
	block, err := s.FindBlockByName(ctx, blockName)
	if err == shared.ErrNotFound {
		return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Block %q not found", blockName))
	}
	if err != nil {
		return err
	}

	err = s.runBatch(ctx, func(store docstore.Store) error {
		if err := s.deleteMembersWhere(ctx, store, func(m ledger.Member) bool {
			return m.BlockID == block.ID
		}); err != nil {
			return err
		}

		clusters, err := s.clustersOfBlock(ctx, store, block.ID)
		if err != nil {
			return err
		}
		for _, cluster := range clusters {
			if err := store.Delete(ctx, membership.CollectionClusters, cluster.ID); err != nil {
				return err
			}
		}
		return store.Delete(ctx, membership.CollectionBlocks, block.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete block %q: %w", blockName, err)
	}

	s.logger.Info("block deleted", zap.String("block", block.Name))
	return nil
}

// DeleteCluster removes one cluster, cascading through its members and
// their transactions
func (s *HierarchyService) DeleteCluster(ctx context.Context, blockName, clusterName string) error {
	block, err := s.FindBlockByName(ctx, blockName)
	if err == shared.ErrNotFound {
		return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Block %q not found", blockName))
	}
	if err != nil {
		return err
	}

	clusters, err := s.clustersOfBlock(ctx, s.store, block.ID)
	if err != nil {
		return err
	}
	var target *membership.Cluster
	for i, c := range clusters {
		if membership.NamesEqual(c.Name, clusterName) {
			target = &clusters[i]
			break
		}
	}
	if target == nil {
		return shared.NewDomainError("NOT_FOUND",
			fmt.Sprintf("Cluster %q not found in block %q", clusterName, block.Name))
	}

	err = s.runBatch(ctx, func(store docstore.Store) error {
		if err := s.deleteMembersWhere(ctx, store, func(m ledger.Member) bool {
			return m.ClusterID == target.ID
		}); err != nil {
			return err
		}
		return store.Delete(ctx, membership.CollectionClusters, target.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete cluster %q: %w", clusterName, err)
	}

	s.logger.Info("cluster deleted",
		zap.String("block", block.Name),
		zap.String("cluster", target.Name),
	)
	return nil
}

// FindBlockByName resolves a block by case-insensitive name, or
// shared.ErrNotFound
func (s *HierarchyService) FindBlockByName(ctx context.Context, name string) (*membership.Block, error) {
	blocks, err := docstore.GetAllAs[membership.Block](ctx, s.store, membership.CollectionBlocks)
	if err != nil {
		return nil, err
	}
	for i, b := range blocks {
		if membership.NamesEqual(b.Name, name) {
			return &blocks[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

// ListBlocks returns all blocks with their clusters, clusters sorted by name
func (s *HierarchyService) ListBlocks(ctx context.Context) ([]membership.BlockView, error) {
	blocks, err := docstore.GetAllAs[membership.Block](ctx, s.store, membership.CollectionBlocks)
	if err != nil {
		return nil, err
	}
	clusters, err := docstore.GetAllAs[membership.Cluster](ctx, s.store, membership.CollectionClusters)
	if err != nil {
		return nil, err
	}

	views := make([]membership.BlockView, 0, len(blocks))
	for _, b := range blocks {
		view := membership.BlockView{Block: b}
		for _, c := range clusters {
			if c.BlockID == b.ID {
				view.Clusters = append(view.Clusters, c)
			}
		}
		sort.Slice(view.Clusters, func(i, j int) bool {
			return view.Clusters[i].Name < view.Clusters[j].Name
		})
		views = append(views, view)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	return views, nil
}

func (s *HierarchyService) blockView(ctx context.Context, store docstore.Store, block membership.Block) (*membership.BlockView, error) {
	clusters, err := s.clustersOfBlock(ctx, store, block.ID)
	if err != nil {
		return nil, err
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Name < clusters[j].Name })
	return &membership.BlockView{Block: block, Clusters: clusters}, nil
}

func (s *HierarchyService) clustersOfBlock(ctx context.Context, store docstore.Store, blockID string) ([]membership.Cluster, error) {
	clusters, err := docstore.GetAllAs[membership.Cluster](ctx, store, membership.CollectionClusters)
	if err != nil {
		return nil, err
	}
	own := clusters[:0]
	for _, c := range clusters {
		if c.BlockID == blockID {
			own = append(own, c)
		}
	}
	return own, nil
}

// deleteMembersWhere cascades deletion of every member matching the
// predicate, removing each member's transactions first
func (s *HierarchyService) deleteMembersWhere(ctx context.Context, store docstore.Store, match func(ledger.Member) bool) error {
	members, err := docstore.GetAllAs[ledger.Member](ctx, store, ledger.CollectionMembers)
	if err != nil {
		return err
	}
	transactions, err := docstore.GetAllAs[ledger.Transaction](ctx, store, ledger.CollectionTransactions)
	if err != nil {
		return err
	}

	for _, member := range members {
		if !match(member) {
			continue
		}
		for _, tx := range transactions {
			if tx.MemberID == member.ID {
				if err := store.Delete(ctx, ledger.CollectionTransactions, tx.ID); err != nil {
					return err
				}
			}
		}
		if err := store.Delete(ctx, ledger.CollectionMembers, member.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *HierarchyService) runBatch(ctx context.Context, fn func(docstore.Store) error) error {
	if batcher, ok := s.store.(docstore.Batcher); ok {
		return batcher.Batch(ctx, fn)
	}
	return fn(s.store)
}
