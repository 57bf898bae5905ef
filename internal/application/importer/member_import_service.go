// Package importer implements the bulk CSV import pipelines for members
// and transactions. Member import is two-phase: an analysis pass reports
// account numbers that already exist, and a commit pass applies the rows
// once the caller has decided whether to overwrite.
package importer

import (
	"context"
	"fmt"
	"strings"

	membershipapp "github.com/mahallubank/backend/internal/application/membership"
	"github.com/mahallubank/backend/internal/domain/ledger"
	"github.com/mahallubank/backend/internal/domain/membership"
	"github.com/mahallubank/backend/internal/domain/shared"
	"github.com/mahallubank/backend/internal/infrastructure/csvimport"
	"github.com/mahallubank/backend/internal/infrastructure/docstore"
	"go.uber.org/zap"
)

// MemberImportResult reports the outcome of a member import. When
// Duplicates is non-zero the commit did not run; Overwrites lists the
// stored members the file would replace, so the caller can show who is
// affected before retrying with overwrite enabled.
type MemberImportResult struct {
	Success    int             `json:"success"`
	Failed     int             `json:"failed"`
	Duplicates int             `json:"duplicates"`
	Overwrites []ledger.Member `json:"membersToOverwrite,omitempty"`
}

// MemberImportService ingests member rows from CSV
type MemberImportService struct {
	store     docstore.Store
	hierarchy *membershipapp.HierarchyService
	logger    *zap.Logger
}

// NewMemberImportService creates a new MemberImportService
func NewMemberImportService(store docstore.Store, hierarchy *membershipapp.HierarchyService, logger *zap.Logger) *MemberImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemberImportService{
		store:     store,
		hierarchy: hierarchy,
		logger:    logger.Named("import.member"),
	}
}

// ImportMembers parses the CSV payload and imports its rows.
//
// Headers are matched fuzzily (case-insensitive prefix), so exports with
// headers like "Name of Member" or "Account No" work unmodified. When
// rows reference account numbers that already exist and overwrite is
// false, no writes happen and the duplicates are returned for
// confirmation. Blocks and clusters named by rows are created on demand.
func (s *MemberImportService) ImportMembers(ctx context.Context, csvData string, overwrite bool) (*MemberImportResult, error) {
	parser, err := csvimport.ParseString(csvData)
	if err != nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", err.Error())
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", err.Error())
	}

	headerMap := csvimport.MapMemberHeaders(parser.Headers())
	if missing := csvimport.MissingMemberHeaders(headerMap); len(missing) > 0 {
		return nil, shared.NewDomainError("VALIDATION_FAILED",
			fmt.Sprintf("CSV is missing required columns: %s", strings.Join(missing, ", ")))
	}

	rows, err := parser.ReadAllRows(headerMap)
	if err != nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", err.Error())
	}
	if len(rows) == 0 {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "CSV has no data rows")
	}

	existing, err := s.existingByAccountNumber(ctx)
	if err != nil {
		return nil, err
	}

	collisions := findDuplicates(rows, existing)
	if len(collisions) > 0 && !overwrite {
		return &MemberImportResult{Duplicates: len(collisions), Overwrites: collisions}, nil
	}

	result := &MemberImportResult{}
	seenAccounts := make(map[string]bool)
	for _, row := range rows {
		if err := s.importRow(ctx, row, existing, seenAccounts); err != nil {
			s.logger.Warn("member row skipped",
				zap.Int("line", row.LineNumber),
				zap.Error(err),
			)
			result.Failed++
			continue
		}
		result.Success++
	}

	s.logger.Info("member import finished",
		zap.Int("success", result.Success),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *MemberImportService) importRow(ctx context.Context, row *csvimport.Row, existing map[string]ledger.Member, seenAccounts map[string]bool) error {
	name := row.Get("name")
	if name == "" {
		return fmt.Errorf("row %d: member name is empty", row.LineNumber)
	}
	houseNumber := row.Get("houseNumber")
	if houseNumber == "" {
		return fmt.Errorf("row %d: house number is empty", row.LineNumber)
	}

	blockName := membership.NormalizeName(row.Get("block"))
	clusterName := membership.CanonicalClusterName(row.Get("cluster"))
	if blockName == "" || clusterName == "" {
		return fmt.Errorf("row %d: block and cluster are required", row.LineNumber)
	}
	block, cluster, err := s.ensureBlockCluster(ctx, blockName, clusterName)
	if err != nil {
		return fmt.Errorf("row %d: %w", row.LineNumber, err)
	}

	phone := ledger.NormalizeSpreadsheetPhone(row.Get("phone"))
	whatsapp := ledger.NormalizeSpreadsheetPhone(row.Get("whatsapp"))
	if whatsapp == "" {
		whatsapp = phone
	}
	if phone == "" {
		phone = whatsapp
	}
	if phone == "" {
		return fmt.Errorf("row %d: no usable phone or whatsapp number", row.LineNumber)
	}

	// An account number repeating within the file keeps only its first
	// row; later rows fail rather than overwrite it
	accountNumber := row.Get("accountNumber")
	if accountNumber != "" {
		if seenAccounts[accountNumber] {
			return fmt.Errorf("row %d: account number %q repeats within the file", row.LineNumber, accountNumber)
		}
		seenAccounts[accountNumber] = true
	} else {
		accountNumber = ledger.GenerateAccountNumber()
	}

	fields := docstore.Document{
		"accountNumber": accountNumber,
		"name":          name,
		"houseNumber":   houseNumber,
		"husbandName":   row.Get("husbandName"),
		"address":       row.Get("address"),
		"phone":         phone,
		"whatsapp":      whatsapp,
		"block":         block.Name,
		"blockId":       block.ID,
		"cluster":       cluster.Name,
		"clusterId":     cluster.ID,
	}

	// An account number already stored updates that member in place; a
	// fresh one inserts
	if m, ok := existing[accountNumber]; ok {
		return s.store.Update(ctx, ledger.CollectionMembers, m.ID, fields)
	}

	fields["hasPaidRegistrationFee"] = false
	_, err = s.store.Add(ctx, ledger.CollectionMembers, fields)
	return err
}

// ensureBlockCluster resolves block and cluster by name, creating either
// on demand. A freshly created block already carries the default clusters.
func (s *MemberImportService) ensureBlockCluster(ctx context.Context, blockName, clusterName string) (*membership.Block, *membership.Cluster, error) {
	view, err := s.blockWithClusters(ctx, blockName)
	if err != nil {
		return nil, nil, err
	}
	for i, c := range view.Clusters {
		if membership.NamesEqual(c.Name, clusterName) {
			return &view.Block, &view.Clusters[i], nil
		}
	}
	cluster, err := s.hierarchy.CreateCluster(ctx, view.Name, clusterName)
	if err != nil {
		return nil, nil, err
	}
	return &view.Block, cluster, nil
}

func (s *MemberImportService) blockWithClusters(ctx context.Context, blockName string) (*membership.BlockView, error) {
	views, err := s.hierarchy.ListBlocks(ctx)
	if err != nil {
		return nil, err
	}
	for i, v := range views {
		if membership.NamesEqual(v.Name, blockName) {
			return &views[i], nil
		}
	}
	return s.hierarchy.CreateBlock(ctx, blockName)
}

func (s *MemberImportService) existingByAccountNumber(ctx context.Context) (map[string]ledger.Member, error) {
	members, err := docstore.GetAllAs[ledger.Member](ctx, s.store, ledger.CollectionMembers)
	if err != nil {
		return nil, err
	}
	byAccount := make(map[string]ledger.Member, len(members))
	for _, m := range members {
		byAccount[m.AccountNumber] = m
	}
	return byAccount, nil
}

func findDuplicates(rows []*csvimport.Row, existing map[string]ledger.Member) []ledger.Member {
	var collisions []ledger.Member
	seen := make(map[string]bool)
	for _, row := range rows {
		accountNumber := row.Get("accountNumber")
		if accountNumber == "" || seen[accountNumber] {
			continue
		}
		if m, ok := existing[accountNumber]; ok {
			collisions = append(collisions, m)
			seen[accountNumber] = true
		}
	}
	return collisions
}
