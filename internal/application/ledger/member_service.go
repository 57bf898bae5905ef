// Package ledgerapp implements the ledger engine: member lifecycle,
// transaction posting with the one-time registration-fee rule, flat
// administrative fees, and the bank-transaction ledger.
package ledgerapp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mahallubank/backend/internal/domain/ledger"
	"github.com/mahallubank/backend/internal/domain/membership"
	"github.com/mahallubank/backend/internal/domain/shared"
	"github.com/mahallubank/backend/internal/infrastructure/docstore"
	"go.uber.org/zap"
)

// AddMemberInput carries the fields for creating a member. Block and
// Cluster are names, resolved against the hierarchy.
type AddMemberInput struct {
	AccountNumber string
	Name          string
	HouseNumber   string
	HusbandName   string
	Address       string
	Phone         string
	Whatsapp      string
	Block         string
	Cluster       string
}

// UpdateMemberInput carries a partial member update; nil fields are left
// unchanged. When both Block and Cluster are present and resolve to an
// existing pair, blockId/clusterId are updated in the same write.
type UpdateMemberInput struct {
	AccountNumber *string
	Name          *string
	HouseNumber   *string
	HusbandName   *string
	Address       *string
	Phone         *string
	Whatsapp      *string
	Block         *string
	Cluster       *string
}

// MemberService manages member lifecycle against the document store
type MemberService struct {
	store  docstore.Store
	logger *zap.Logger
}

// NewMemberService creates a new MemberService
func NewMemberService(store docstore.Store, logger *zap.Logger) *MemberService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemberService{
		store:  store,
		logger: logger.Named("ledger.member"),
	}
}

// AddMember creates a member. A supplied account number that is already in
// use makes the call a no-op returning the existing member, so bulk
// retries stay idempotent.
func (s *MemberService) AddMember(ctx context.Context, input AddMemberInput) (*ledger.Member, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Member name cannot be empty")
	}

	if input.AccountNumber != "" {
		existing, err := s.FindByAccountNumber(ctx, input.AccountNumber)
		if err != nil && err != shared.ErrNotFound {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	block, cluster, err := s.resolveBlockCluster(ctx, input.Block, input.Cluster)
	if err != nil {
		return nil, err
	}

	accountNumber := input.AccountNumber
	if accountNumber == "" {
		accountNumber = ledger.GenerateAccountNumber()
	}
	whatsapp := input.Whatsapp
	if whatsapp == "" {
		whatsapp = input.Phone
	}

	member := ledger.Member{
		AccountNumber:          accountNumber,
		Name:                   input.Name,
		HouseNumber:            input.HouseNumber,
		HusbandName:            input.HusbandName,
		Address:                input.Address,
		Phone:                  ledger.NormalizePhone(input.Phone),
		Whatsapp:               ledger.NormalizePhone(whatsapp),
		Block:                  block.Name,
		BlockID:                block.ID,
		Cluster:                cluster.Name,
		ClusterID:              cluster.ID,
		HasPaidRegistrationFee: false,
	}

	doc, err := docstore.EncodeNew(member)
	if err != nil {
		return nil, err
	}
	id, err := s.store.Add(ctx, ledger.CollectionMembers, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create member %s: %w", accountNumber, err)
	}
	member.ID = id

	s.logger.Info("member created",
		zap.String("accountNumber", member.AccountNumber),
		zap.String("memberId", id),
	)
	return &member, nil
}

// UpdateMember merges a partial update into a member document
func (s *MemberService) UpdateMember(ctx context.Context, id string, input UpdateMemberInput) error {
	fields := docstore.Document{}
	setIf := func(key string, val *string) {
		if val != nil {
			fields[key] = *val
		}
	}
	setIf("accountNumber", input.AccountNumber)
	setIf("name", input.Name)
	setIf("houseNumber", input.HouseNumber)
	setIf("husbandName", input.HusbandName)
	setIf("address", input.Address)
	setIf("phone", input.Phone)
	setIf("whatsapp", input.Whatsapp)
	setIf("block", input.Block)
	setIf("cluster", input.Cluster)

	// Denormalized name+id pairs must change together
	if input.Block != nil && input.Cluster != nil {
		block, cluster, err := s.resolveBlockCluster(ctx, *input.Block, *input.Cluster)
		if err == nil {
			fields["block"] = block.Name
			fields["blockId"] = block.ID
			fields["cluster"] = cluster.Name
			fields["clusterId"] = cluster.ID
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return s.store.Update(ctx, ledger.CollectionMembers, id, fields)
}

// DeleteMember removes a member and all its transactions. Deleting a
// missing member is a no-op.
func (s *MemberService) DeleteMember(ctx context.Context, id string) error {
	_, err := s.store.GetOne(ctx, ledger.CollectionMembers, id)
	if err == shared.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	return s.runBatch(ctx, func(store docstore.Store) error {
		transactions, err := docstore.GetAllAs[ledger.Transaction](ctx, store, ledger.CollectionTransactions)
		if err != nil {
			return err
		}
		for _, tx := range transactions {
			if tx.MemberID == id {
				if err := store.Delete(ctx, ledger.CollectionTransactions, tx.ID); err != nil {
					return err
				}
			}
		}
		return store.Delete(ctx, ledger.CollectionMembers, id)
	})
}

// GetMember returns a member with derived balances, or NOT_FOUND
func (s *MemberService) GetMember(ctx context.Context, id string) (*ledger.MemberView, error) {
	doc, err := s.store.GetOne(ctx, ledger.CollectionMembers, id)
	if err == shared.ErrNotFound {
		return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Member %s not found", id))
	}
	if err != nil {
		return nil, err
	}
	var member ledger.Member
	if err := docstore.Decode(doc, &member); err != nil {
		return nil, err
	}

	transactions, err := docstore.GetAllAs[ledger.Transaction](ctx, s.store, ledger.CollectionTransactions)
	if err != nil {
		return nil, err
	}
	view := ledger.DeriveMemberView(member, transactions)
	return &view, nil
}

// ListMembers returns every member with derived balances, sorted by name
func (s *MemberService) ListMembers(ctx context.Context) ([]ledger.MemberView, error) {
	members, err := docstore.GetAllAs[ledger.Member](ctx, s.store, ledger.CollectionMembers)
	if err != nil {
		return nil, err
	}
	transactions, err := docstore.GetAllAs[ledger.Transaction](ctx, s.store, ledger.CollectionTransactions)
	if err != nil {
		return nil, err
	}

	views := make([]ledger.MemberView, 0, len(members))
	for _, m := range members {
		views = append(views, ledger.DeriveMemberView(m, transactions))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	return views, nil
}

// FindByAccountNumber resolves a member by account number, or
// shared.ErrNotFound
func (s *MemberService) FindByAccountNumber(ctx context.Context, accountNumber string) (*ledger.Member, error) {
	members, err := docstore.GetAllAs[ledger.Member](ctx, s.store, ledger.CollectionMembers)
	if err != nil {
		return nil, err
	}
	for i, m := range members {
		if m.AccountNumber == accountNumber {
			return &members[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

// ResetAllData clears every collection. Intended for the settings danger
// zone; there is no undo.
func (s *MemberService) ResetAllData(ctx context.Context) error {
	collections := []string{
		membership.CollectionBlocks,
		membership.CollectionClusters,
		ledger.CollectionMembers,
		ledger.CollectionTransactions,
		ledger.CollectionAdminTransactions,
		ledger.CollectionBankTransactions,
	}
	for _, collection := range collections {
		if err := s.store.Clear(ctx, collection); err != nil {
			return fmt.Errorf("failed to clear %s: %w", collection, err)
		}
	}
	s.logger.Warn("all data reset")
	return nil
}

func (s *MemberService) resolveBlockCluster(ctx context.Context, blockName, clusterName string) (*membership.Block, *membership.Cluster, error) {
	blocks, err := docstore.GetAllAs[membership.Block](ctx, s.store, membership.CollectionBlocks)
	if err != nil {
		return nil, nil, err
	}
	var block *membership.Block
	for i, b := range blocks {
		if membership.NamesEqual(b.Name, blockName) {
			block = &blocks[i]
			break
		}
	}
	if block == nil {
		return nil, nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Block %q not found", blockName))
	}

	clusters, err := docstore.GetAllAs[membership.Cluster](ctx, s.store, membership.CollectionClusters)
	if err != nil {
		return nil, nil, err
	}
	for i, c := range clusters {
		if c.BlockID == block.ID && membership.NamesEqual(c.Name, clusterName) {
			return block, &clusters[i], nil
		}
	}
	return nil, nil, shared.NewDomainError("NOT_FOUND",
		fmt.Sprintf("Cluster %q not found in block %q", clusterName, block.Name))
}

func (s *MemberService) runBatch(ctx context.Context, fn func(docstore.Store) error) error {
	if batcher, ok := s.store.(docstore.Batcher); ok {
		return batcher.Batch(ctx, fn)
	}
	return fn(s.store)
}
