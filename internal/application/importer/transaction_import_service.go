package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mahallubank/backend/internal/domain/ledger"
	"github.com/mahallubank/backend/internal/domain/shared"
	"github.com/mahallubank/backend/internal/infrastructure/csvimport"
	"github.com/mahallubank/backend/internal/infrastructure/docstore"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultImportRemarks is stamped on imported transactions that carry no
// remarks of their own
const DefaultImportRemarks = "Bulk Upload"

// TransactionImportResult reports the outcome of a transaction import.
// When Duplicates is non-zero the commit did not run; the caller must
// retry with overwrite enabled or clean the file.
type TransactionImportResult struct {
	Success    int `json:"success"`
	Failed     int `json:"failed"`
	Duplicates int `json:"duplicates"`
}

// TransactionImportService ingests historical transaction rows from CSV.
// Unlike interactive posting, imported rows are stored as-is: the
// registration-fee rule is not applied to historical data.
type TransactionImportService struct {
	store  docstore.Store
	logger *zap.Logger
}

// NewTransactionImportService creates a new TransactionImportService
func NewTransactionImportService(store docstore.Store, logger *zap.Logger) *TransactionImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionImportService{
		store:  store,
		logger: logger.Named("import.transaction"),
	}
}

// ImportTransactions parses the CSV payload and imports its rows.
//
// Headers match exactly: accountNumber, type and amount are required;
// date, remarks and transactionId are optional. A transactionId is
// preserved as the record id, so re-running an export corrects earlier
// rows instead of duplicating them. When rows carry transactionIds that
// already exist and overwrite is false, no writes happen and the
// duplicate count is returned for confirmation. Rows referencing unknown
// account numbers count as failed.
func (s *TransactionImportService) ImportTransactions(ctx context.Context, csvData string, overwrite bool) (*TransactionImportResult, error) {
	parser, err := csvimport.ParseString(csvData)
	if err != nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", err.Error())
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", err.Error())
	}

	var missing []string
	for _, required := range []string{"accountNumber", "type", "amount"} {
		if !parser.HasHeader(required) {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, shared.NewDomainError("VALIDATION_FAILED",
			fmt.Sprintf("CSV is missing required columns: %s", strings.Join(missing, ", ")))
	}

	rows, err := parser.ReadAllRows(csvimport.IdentityMap(parser.Headers()))
	if err != nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", err.Error())
	}
	if len(rows) == 0 {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "CSV has no data rows")
	}

	if !overwrite {
		duplicates, err := s.countDuplicates(ctx, rows)
		if err != nil {
			return nil, err
		}
		if duplicates > 0 {
			return &TransactionImportResult{Duplicates: duplicates}, nil
		}
	}

	memberByAccount, err := s.membersByAccountNumber(ctx)
	if err != nil {
		return nil, err
	}

	result := &TransactionImportResult{}
	for _, row := range rows {
		if err := s.importRow(ctx, row, memberByAccount); err != nil {
			s.logger.Warn("transaction row skipped",
				zap.Int("line", row.LineNumber),
				zap.Error(err),
			)
			result.Failed++
			continue
		}
		result.Success++
	}

	s.logger.Info("transaction import finished",
		zap.Int("success", result.Success),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// countDuplicates is the analysis pass: how many rows name a
// transactionId that is already stored
func (s *TransactionImportService) countDuplicates(ctx context.Context, rows []*csvimport.Row) (int, error) {
	transactions, err := docstore.GetAllAs[ledger.Transaction](ctx, s.store, ledger.CollectionTransactions)
	if err != nil {
		return 0, err
	}
	existing := make(map[string]bool, len(transactions))
	for _, tx := range transactions {
		existing[tx.ID] = true
	}

	duplicates := 0
	for _, row := range rows {
		if id := row.Get("transactionId"); id != "" && existing[id] {
			duplicates++
		}
	}
	return duplicates, nil
}

func (s *TransactionImportService) importRow(ctx context.Context, row *csvimport.Row, memberByAccount map[string]string) error {
	accountNumber := row.Get("accountNumber")
	memberID, ok := memberByAccount[accountNumber]
	if !ok {
		return fmt.Errorf("row %d: no member with account number %q", row.LineNumber, accountNumber)
	}

	txType := ledger.TransactionType(strings.ToLower(row.Get("type")))
	if !txType.IsValid() {
		return fmt.Errorf("row %d: invalid transaction type %q", row.LineNumber, row.Get("type"))
	}

	amount, err := decimal.NewFromString(row.Get("amount"))
	if err != nil || amount.IsNegative() || amount.IsZero() {
		return fmt.Errorf("row %d: invalid amount %q", row.LineNumber, row.Get("amount"))
	}

	date := parseImportDate(row.Get("date"))
	remarks := row.Get("remarks")
	if remarks == "" {
		remarks = DefaultImportRemarks
	}

	tx, err := ledger.NewTransaction(memberID, txType, amount, date, remarks)
	if err != nil {
		return fmt.Errorf("row %d: %w", row.LineNumber, err)
	}
	doc, err := docstore.EncodeNew(tx)
	if err != nil {
		return err
	}

	if txID := row.Get("transactionId"); txID != "" {
		return s.store.Set(ctx, ledger.CollectionTransactions, txID, doc)
	}
	_, err = s.store.Add(ctx, ledger.CollectionTransactions, doc)
	return err
}

func (s *TransactionImportService) membersByAccountNumber(ctx context.Context) (map[string]string, error) {
	members, err := docstore.GetAllAs[ledger.Member](ctx, s.store, ledger.CollectionMembers)
	if err != nil {
		return nil, err
	}
	byAccount := make(map[string]string, len(members))
	for _, m := range members {
		byAccount[m.AccountNumber] = m.ID
	}
	return byAccount, nil
}

// parseImportDate accepts the formats spreadsheets typically export and
// falls back to the current time
func parseImportDate(raw string) time.Time {
	if raw == "" {
		return time.Now()
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02", "02/01/2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Now()
}
