// Package service orchestrates statement imports: decode, parse, categorize,
// dedupe and persist, then return the owner's ledger.
package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cardledger/cardledger/internal/domain/categorization"
	"github.com/cardledger/cardledger/internal/domain/common"
	"github.com/cardledger/cardledger/internal/domain/import/parser"
	"github.com/cardledger/cardledger/internal/domain/transaction"
	"github.com/cardledger/cardledger/internal/domain/user"
	"github.com/cardledger/cardledger/pkg/metrics"
)

// DefaultAmbiguousMerchants lists payment aggregators whose names appear on
// many unrelated purchases. Their history is never trusted for
// categorization.
var DefaultAmbiguousMerchants = []string{
	"카카오페이",
	"네이버페이",
	"KAKAOPAY",
	"NAVERPAY",
	"SAMSUNG PAY",
	"TOSS",
	"PAYCO",
}

// Service runs the import pipeline.
type Service struct {
	transactions transaction.Store
	users        user.Store
	categorizer  *categorization.Categorizer
	parser       parser.TransactionParser
	ambiguous    map[string]struct{}
	metrics      *metrics.Import
	logger       *slog.Logger
	tracer       trace.Tracer
}

// New creates an import service using the default ambiguous-merchant set.
func New(
	transactions transaction.Store,
	users user.Store,
	categorizer *categorization.Categorizer,
	statementParser parser.TransactionParser,
	importMetrics *metrics.Import,
	logger *slog.Logger,
) *Service {
	ambiguous := make(map[string]struct{}, len(DefaultAmbiguousMerchants))
	for _, m := range DefaultAmbiguousMerchants {
		ambiguous[strings.ToUpper(m)] = struct{}{}
	}
	return &Service{
		transactions: transactions,
		users:        users,
		categorizer:  categorizer,
		parser:       statementParser,
		ambiguous:    ambiguous,
		metrics:      importMetrics,
		logger:       logger,
		tracer:       otel.Tracer("import"),
	}
}

// ImportFile ingests one xlsx statement for the given owner and returns the
// owner's full transaction list afterwards. Re-importing the same statement
// is a no-op thanks to the transaction-key dedup.
func (s *Service) ImportFile(ctx context.Context, ownerEmail string, fileData []byte) ([]transaction.DTO, error) {
	ctx, span := s.tracer.Start(ctx, "ImportFile")
	defer span.End()

	dtos, err := s.importFile(ctx, ownerEmail, fileData)
	if err != nil {
		s.metrics.Files.WithLabelValues("error").Inc()
		return nil, err
	}
	s.metrics.Files.WithLabelValues("ok").Inc()
	return dtos, nil
}

func (s *Service) importFile(ctx context.Context, ownerEmail string, fileData []byte) ([]transaction.DTO, error) {
	if len(fileData) == 0 {
		return nil, common.ErrEmptyFile
	}

	rows, err := readFirstSheet(fileData)
	if err != nil {
		return nil, err
	}

	parsed, err := s.parser.Parse(rows)
	if err != nil {
		return nil, err
	}

	if err := s.categorize(ctx, parsed); err != nil {
		return nil, err
	}

	owner, err := s.users.FindByEmail(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}

	inserted, duplicates, err := s.persist(ctx, owner.ID, parsed)
	if err != nil {
		return nil, fmt.Errorf("persist statement: %w", err)
	}

	s.metrics.Inserted.Add(float64(inserted))
	s.metrics.Duplicates.Add(float64(duplicates))
	s.logger.InfoContext(ctx, "statement imported",
		slog.String("owner", ownerEmail),
		slog.Int("parsed", len(parsed)),
		slog.Int64("inserted", inserted),
		slog.Int("duplicates", duplicates))

	txs, err := s.transactions.ListByUser(ctx, owner.ID, transaction.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("list after import: %w", err)
	}

	dtos := make([]transaction.DTO, 0, len(txs))
	for i := range txs {
		dtos = append(dtos, txs[i].ToDTO())
	}
	return dtos, nil
}

// readFirstSheet decodes the workbook and returns the cell grid of its first
// sheet. Decode failures surface as ParseError so the handler can tell a
// broken upload from a broken store.
func readFirstSheet(fileData []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(fileData))
	if err != nil {
		return nil, &parser.ParseError{Message: "file is not a readable xlsx workbook", RawData: err.Error()}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &parser.ParseError{Message: "workbook has no sheets"}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &parser.ParseError{Message: "cannot read first sheet", RawData: err.Error()}
	}
	return rows, nil
}

// categorize fills in Category for each parsed transaction. Merchant history
// wins over the keyword table; ambiguous aggregator merchants never consult
// history.
func (s *Service) categorize(ctx context.Context, parsed []*transaction.Transaction) error {
	ctx, span := s.tracer.Start(ctx, "categorize",
		trace.WithAttributes(attribute.Int("transactions", len(parsed))))
	defer span.End()

	merchants := s.distinctHistoryMerchants(parsed)

	history := map[string]string{}
	if len(merchants) > 0 {
		pairs, err := s.transactions.FindCategoriesByMerchants(ctx, merchants)
		if err != nil {
			return fmt.Errorf("load merchant history: %w", err)
		}
		// Rows arrive most-recent-first; keep the first category per merchant.
		for _, p := range pairs {
			if _, seen := history[p.Merchant]; !seen {
				history[p.Merchant] = p.Category
			}
		}
	}

	for _, t := range parsed {
		var historical *string
		if c, ok := history[t.Merchant]; ok {
			historical = &c
		}
		t.Category = s.categorizer.Categorize(t.Merchant, historical)
	}
	return nil
}

func (s *Service) distinctHistoryMerchants(parsed []*transaction.Transaction) []string {
	seen := make(map[string]struct{}, len(parsed))
	var merchants []string
	for _, t := range parsed {
		if _, ok := seen[t.Merchant]; ok {
			continue
		}
		seen[t.Merchant] = struct{}{}
		if _, ambiguous := s.ambiguous[strings.ToUpper(t.Merchant)]; ambiguous {
			continue
		}
		merchants = append(merchants, t.Merchant)
	}
	return merchants
}

// persist runs the dedup check and the batch insert in one database
// transaction and returns (inserted, duplicates). The existence check and
// the write share the pgx transaction, and ON CONFLICT DO NOTHING covers
// statements racing in from another session.
func (s *Service) persist(ctx context.Context, ownerID uuid.UUID, parsed []*transaction.Transaction) (int64, int, error) {
	ctx, span := s.tracer.Start(ctx, "persist")
	defer span.End()

	var inserted int64
	var duplicates int
	err := s.transactions.InTx(ctx, func(store transaction.Store) error {
		keys := make([]string, len(parsed))
		for i, t := range parsed {
			keys[i] = t.TransactionKey
		}

		existing, err := store.FindExistingKeys(ctx, keys)
		if err != nil {
			return err
		}

		fresh := make([]*transaction.Transaction, 0, len(parsed))
		for _, t := range parsed {
			if _, dup := existing[t.TransactionKey]; dup {
				continue
			}
			t.UserID = ownerID
			fresh = append(fresh, t)
		}
		duplicates = len(parsed) - len(fresh)

		inserted, err = store.SaveAll(ctx, fresh)
		return err
	})
	if err != nil {
		return 0, 0, err
	}
	return inserted, duplicates, nil
}
