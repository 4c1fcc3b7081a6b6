package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cardledger/cardledger/internal/domain/categorization"
	"github.com/cardledger/cardledger/internal/domain/common"
	"github.com/cardledger/cardledger/internal/domain/import/parser"
	"github.com/cardledger/cardledger/internal/domain/transaction"
	"github.com/cardledger/cardledger/internal/domain/user"
	"github.com/cardledger/cardledger/pkg/metrics"
)

type memTransactionStore struct {
	existing        map[string]struct{}
	history         []transaction.MerchantCategory
	historyQueried  []string
	saved           []*transaction.Transaction
	inTxBegun       bool
	savedInsideInTx bool
}

func (m *memTransactionStore) InTx(_ context.Context, fn func(transaction.Store) error) error {
	m.inTxBegun = true
	return fn(m)
}

func (m *memTransactionStore) FindExistingKeys(_ context.Context, keys []string) (map[string]struct{}, error) {
	found := map[string]struct{}{}
	for _, k := range keys {
		if _, ok := m.existing[k]; ok {
			found[k] = struct{}{}
		}
	}
	return found, nil
}

func (m *memTransactionStore) FindCategoriesByMerchants(_ context.Context, merchants []string) ([]transaction.MerchantCategory, error) {
	m.historyQueried = merchants
	return m.history, nil
}

func (m *memTransactionStore) SaveAll(_ context.Context, txs []*transaction.Transaction) (int64, error) {
	m.savedInsideInTx = m.inTxBegun
	m.saved = append(m.saved, txs...)
	return int64(len(txs)), nil
}

func (m *memTransactionStore) ListByUser(_ context.Context, userID uuid.UUID, _ transaction.ListFilter) ([]transaction.Transaction, error) {
	var out []transaction.Transaction
	for _, t := range m.saved {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTransactionStore) UpdateCategory(context.Context, uuid.UUID, string) (*transaction.Transaction, error) {
	panic("not used")
}

type memUserStore struct {
	users map[string]*user.User
}

func (m *memUserStore) FindByEmail(_ context.Context, email string) (*user.User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	return u, nil
}

func (m *memUserStore) UpsertByEmail(context.Context, string, string, string) (*user.User, error) {
	panic("not used")
}

type staticKeywords []categorization.Keyword

func (s staticKeywords) LoadKeywords(context.Context) ([]categorization.Keyword, error) {
	return s, nil
}

func statementFile(t *testing.T, dataRows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := [][]any{
		{"이용내역"},
		{},
		{"조회기간", "2025-01-01 ~ 2025-01-31"},
		{"이용일", "이용시간", "이용하신곳", "이용카드", "출금액", "입금액", "잔액", "결제방법"},
	}
	rowIdx := 1
	for _, row := range append(header, dataRows...) {
		cell, err := excelize.CoordinatesToCellName(1, rowIdx)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
		rowIdx++
	}
	cell, err := excelize.CoordinatesToCellName(1, rowIdx)
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow(sheet, cell, &[]any{"합계", "", "", "", "16,500", "", "", ""}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func newTestService(t *testing.T, store *memTransactionStore, users *memUserStore, keywords []categorization.Keyword) *Service {
	t.Helper()
	provider, err := categorization.NewProvider(context.Background(), staticKeywords(keywords), slog.Default())
	require.NoError(t, err)

	return New(
		store,
		users,
		categorization.NewCategorizer(provider),
		parser.NewKookminParser(),
		metrics.NewImport(prometheus.NewRegistry()),
		slog.Default(),
	)
}

func TestImportFile(t *testing.T) {
	owner := &user.User{ID: uuid.New(), Email: "jane@example.com"}
	store := &memTransactionStore{}
	users := &memUserStore{users: map[string]*user.User{owner.Email: owner}}
	svc := newTestService(t, store, users, []categorization.Keyword{{Name: "GS25", Category: "Convenience"}})

	file := statementFile(t,
		[]any{"2025-01-02", "10:15", "GS25 SEOCHO", "1234", "4,500", "", "", "체크카드"},
		[]any{"2025-01-03", "18:40", "SOME PLACE", "1234", "12,000", "", "", "체크카드"},
	)

	dtos, err := svc.ImportFile(context.Background(), owner.Email, file)
	require.NoError(t, err)

	require.Len(t, store.saved, 2)
	assert.True(t, store.savedInsideInTx)
	assert.Equal(t, owner.ID, store.saved[0].UserID)
	assert.Equal(t, "Convenience", store.saved[0].Category)
	assert.Equal(t, categorization.CategoryDefault, store.saved[1].Category)
	assert.Len(t, dtos, 2)
}

func TestImportFileIdempotent(t *testing.T) {
	owner := &user.User{ID: uuid.New(), Email: "jane@example.com"}
	store := &memTransactionStore{existing: map[string]struct{}{
		"2025-01-02_4500_GS25SEOCHO": {},
	}}
	users := &memUserStore{users: map[string]*user.User{owner.Email: owner}}
	svc := newTestService(t, store, users, nil)

	file := statementFile(t,
		[]any{"2025-01-02", "10:15", "GS25 SEOCHO", "1234", "4,500", "", "", "체크카드"},
	)

	_, err := svc.ImportFile(context.Background(), owner.Email, file)
	require.NoError(t, err)
	assert.Empty(t, store.saved)
}

func TestImportFileMostRecentCategoryWins(t *testing.T) {
	owner := &user.User{ID: uuid.New(), Email: "jane@example.com"}
	store := &memTransactionStore{history: []transaction.MerchantCategory{
		{Merchant: "GS25 SEOCHO", Category: "Shopping"},
		{Merchant: "GS25 SEOCHO", Category: "Food"},
	}}
	users := &memUserStore{users: map[string]*user.User{owner.Email: owner}}
	svc := newTestService(t, store, users, []categorization.Keyword{{Name: "GS25", Category: "Convenience"}})

	file := statementFile(t,
		[]any{"2025-01-02", "10:15", "GS25 SEOCHO", "1234", "4,500", "", "", "체크카드"},
	)

	_, err := svc.ImportFile(context.Background(), owner.Email, file)
	require.NoError(t, err)

	require.Len(t, store.saved, 1)
	assert.Equal(t, "Shopping", store.saved[0].Category)
}

func TestImportFileSkipsAmbiguousMerchantHistory(t *testing.T) {
	owner := &user.User{ID: uuid.New(), Email: "jane@example.com"}
	store := &memTransactionStore{}
	users := &memUserStore{users: map[string]*user.User{owner.Email: owner}}
	svc := newTestService(t, store, users, nil)

	file := statementFile(t,
		[]any{"2025-01-02", "10:15", "카카오페이", "1234", "4,500", "", "", "체크카드"},
		[]any{"2025-01-03", "11:00", "GS25 SEOCHO", "1234", "2,000", "", "", "체크카드"},
	)

	_, err := svc.ImportFile(context.Background(), owner.Email, file)
	require.NoError(t, err)

	assert.Equal(t, []string{"GS25 SEOCHO"}, store.historyQueried)
}

func TestImportFileEmpty(t *testing.T) {
	svc := newTestService(t, &memTransactionStore{}, &memUserStore{}, nil)

	_, err := svc.ImportFile(context.Background(), "jane@example.com", nil)
	assert.ErrorIs(t, err, common.ErrEmptyFile)
}

func TestImportFileUnknownUser(t *testing.T) {
	store := &memTransactionStore{}
	svc := newTestService(t, store, &memUserStore{}, nil)

	file := statementFile(t,
		[]any{"2025-01-02", "10:15", "GS25 SEOCHO", "1234", "4,500", "", "", "체크카드"},
	)

	_, err := svc.ImportFile(context.Background(), "ghost@example.com", file)
	assert.ErrorIs(t, err, common.ErrUserNotFound)
	assert.Empty(t, store.saved)
}

func TestImportFileGarbageBytes(t *testing.T) {
	svc := newTestService(t, &memTransactionStore{}, &memUserStore{}, nil)

	_, err := svc.ImportFile(context.Background(), "jane@example.com", []byte("not an xlsx"))

	var perr *parser.ParseError
	assert.ErrorAs(t, err, &perr)
}
