package transaction

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cardledger/cardledger/internal/domain/common"
)

// ListFilter narrows ListByUser to one statement month. Zero values mean no
// filtering.
type ListFilter struct {
	Year  int
	Month int
}

// Store is the persistence surface the import and correction flows need.
type Store interface {
	// InTx runs fn against a transaction-scoped store. The existence check
	// and the batch insert of an import must share one such unit of work.
	InTx(ctx context.Context, fn func(Store) error) error

	FindExistingKeys(ctx context.Context, keys []string) (map[string]struct{}, error)
	FindCategoriesByMerchants(ctx context.Context, merchants []string) ([]MerchantCategory, error)
	SaveAll(ctx context.Context, txs []*Transaction) (int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]Transaction, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, category string) (*Transaction, error)
}

// DB is the subset of pgxpool.Pool the repository uses. pgx.Tx satisfies it
// as well, which is what makes InTx scoping work.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository is the Postgres implementation of Store.
type Repository struct {
	db DB
}

var _ Store = (*Repository)(nil)

// NewRepository creates a transaction repository on top of a pgx pool.
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

const transactionColumns = `id, transaction_key, date, merchant, amount, category, description, status, payment_method, user_id, created_at`

// InTx begins a database transaction and runs fn against a store scoped to
// it. The transaction commits when fn returns nil and rolls back otherwise.
func (r *Repository) InTx(ctx context.Context, fn func(Store) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Repository{db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// FindExistingKeys returns which of the given transaction keys are already
// present, as a set. One batched query regardless of candidate count.
func (r *Repository) FindExistingKeys(ctx context.Context, keys []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(keys))
	if len(keys) == 0 {
		return existing, nil
	}

	query, args, err := sq.Select("transaction_key").
		From("transactions").
		Where(sq.Eq{"transaction_key": keys}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		existing[key] = struct{}{}
	}
	return existing, rows.Err()
}

// FindCategoriesByMerchants returns (merchant, category) pairs for the given
// merchants ordered by statement date descending, so the first row seen per
// merchant is its most recent category.
func (r *Repository) FindCategoriesByMerchants(ctx context.Context, merchants []string) ([]MerchantCategory, error) {
	if len(merchants) == 0 {
		return nil, nil
	}

	query, args, err := sq.Select("merchant", "category").
		From("transactions").
		Where(sq.Eq{"merchant": merchants}).
		Where(sq.NotEq{"category": ""}).
		OrderBy("date DESC", "created_at DESC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []MerchantCategory
	for rows.Next() {
		var mc MerchantCategory
		if err := rows.Scan(&mc.Merchant, &mc.Category); err != nil {
			return nil, err
		}
		history = append(history, mc)
	}
	return history, rows.Err()
}

// SaveAll inserts the transactions as one multi-row statement and returns
// the number of rows written. The unique constraint on transaction_key backs
// the dedup check against racing imports of the same statement.
func (r *Repository) SaveAll(ctx context.Context, txs []*Transaction) (int64, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	builder := sq.Insert("transactions").
		Columns("transaction_key", "date", "merchant", "amount", "category", "description", "status", "payment_method", "user_id").
		Suffix("ON CONFLICT (transaction_key) DO NOTHING").
		PlaceholderFormat(sq.Dollar)

	for _, t := range txs {
		builder = builder.Values(
			t.TransactionKey,
			t.Date,
			t.Merchant,
			t.Amount,
			t.Category,
			t.Description,
			t.Status,
			t.PaymentMethod,
			t.UserID,
		)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListByUser returns the user's transactions, newest statement date first,
// optionally narrowed to one year/month. Statement dates keep their source
// formatting, so the month filter normalizes '.' and '/' separators before
// comparing the YYYY-MM prefix.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]Transaction, error) {
	builder := sq.Select(transactionColumns).
		From("transactions").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("date DESC", "created_at DESC").
		PlaceholderFormat(sq.Dollar)

	if filter.Year != 0 && filter.Month != 0 {
		prefix := fmt.Sprintf("%04d-%02d", filter.Year, filter.Month)
		builder = builder.Where(sq.Expr("translate(left(date, 7), './', '--') = ?", prefix))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

// UpdateCategory sets a new category on a transaction and returns the
// updated row. Returns common.ErrTransactionNotFound for unknown ids.
func (r *Repository) UpdateCategory(ctx context.Context, id uuid.UUID, category string) (*Transaction, error) {
	query := `
		UPDATE transactions
		SET category = $2
		WHERE id = $1
		RETURNING ` + transactionColumns

	t, err := scanTransaction(r.db.QueryRow(ctx, query, id, category))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*Transaction, error) {
	var t Transaction
	err := row.Scan(
		&t.ID,
		&t.TransactionKey,
		&t.Date,
		&t.Merchant,
		&t.Amount,
		&t.Category,
		&t.Description,
		&t.Status,
		&t.PaymentMethod,
		&t.UserID,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
