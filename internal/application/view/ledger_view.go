// Package view maintains a continuously updated in-memory projection of
// the ledger: every member with derived balances, and the block/cluster
// tree. It subscribes to the document store and recomputes on change, so
// reads never touch storage.
package view

import (
	"sort"
	"sync"

	"github.com/mahallubank/backend/internal/domain/ledger"
	"github.com/mahallubank/backend/internal/domain/membership"
	"github.com/mahallubank/backend/internal/infrastructure/docstore"
	"go.uber.org/zap"
)

// Snapshot is one consistent projection of the ledger
type Snapshot struct {
	Members []ledger.MemberView    `json:"members"`
	Blocks  []membership.BlockView `json:"blocks"`
}

// LedgerView projects the document store into ready-to-serve snapshots
type LedgerView struct {
	logger *zap.Logger

	mu           sync.RWMutex
	members      []ledger.Member
	transactions []ledger.Transaction
	blocks       []membership.Block
	clusters     []membership.Cluster

	unsubscribes []docstore.UnsubscribeFunc
}

// NewLedgerView creates a LedgerView and registers its subscriptions.
// The store delivers the current state immediately, so the view is
// populated on return. Call Close to detach.
func NewLedgerView(store docstore.Store, logger *zap.Logger) *LedgerView {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &LedgerView{
		logger: logger.Named("view"),
	}

	v.unsubscribes = append(v.unsubscribes,
		store.Subscribe(ledger.CollectionMembers, func(docs []docstore.Document) {
			members, err := docstore.DecodeAll[ledger.Member](docs)
			if err != nil {
				v.logger.Error("failed to project members", zap.Error(err))
				return
			}
			v.mu.Lock()
			v.members = members
			v.mu.Unlock()
		}),
		store.Subscribe(ledger.CollectionTransactions, func(docs []docstore.Document) {
			transactions, err := docstore.DecodeAll[ledger.Transaction](docs)
			if err != nil {
				v.logger.Error("failed to project transactions", zap.Error(err))
				return
			}
			v.mu.Lock()
			v.transactions = transactions
			v.mu.Unlock()
		}),
		store.Subscribe(membership.CollectionBlocks, func(docs []docstore.Document) {
			blocks, err := docstore.DecodeAll[membership.Block](docs)
			if err != nil {
				v.logger.Error("failed to project blocks", zap.Error(err))
				return
			}
			v.mu.Lock()
			v.blocks = blocks
			v.mu.Unlock()
		}),
		store.Subscribe(membership.CollectionClusters, func(docs []docstore.Document) {
			clusters, err := docstore.DecodeAll[membership.Cluster](docs)
			if err != nil {
				v.logger.Error("failed to project clusters", zap.Error(err))
				return
			}
			v.mu.Lock()
			v.clusters = clusters
			v.mu.Unlock()
		}),
	)
	return v
}

// Close detaches the view from the store
func (v *LedgerView) Close() {
	for _, unsubscribe := range v.unsubscribes {
		unsubscribe()
	}
	v.unsubscribes = nil
}

// Snapshot returns the current projection. Members are sorted by name,
// blocks and clusters by name.
func (v *LedgerView) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	memberViews := make([]ledger.MemberView, 0, len(v.members))
	for _, m := range v.members {
		memberViews = append(memberViews, ledger.DeriveMemberView(m, v.transactions))
	}
	sort.Slice(memberViews, func(i, j int) bool { return memberViews[i].Name < memberViews[j].Name })

	blockViews := make([]membership.BlockView, 0, len(v.blocks))
	for _, b := range v.blocks {
		bv := membership.BlockView{Block: b}
		for _, c := range v.clusters {
			if c.BlockID == b.ID {
				bv.Clusters = append(bv.Clusters, c)
			}
		}
		sort.Slice(bv.Clusters, func(i, j int) bool { return bv.Clusters[i].Name < bv.Clusters[j].Name })
		blockViews = append(blockViews, bv)
	}
	sort.Slice(blockViews, func(i, j int) bool { return blockViews[i].Name < blockViews[j].Name })

	return Snapshot{Members: memberViews, Blocks: blockViews}
}

// Member returns the projected view of one member, or false
func (v *LedgerView) Member(id string) (ledger.MemberView, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, m := range v.members {
		if m.ID == id {
			return ledger.DeriveMemberView(m, v.transactions), true
		}
	}
	return ledger.MemberView{}, false
}
