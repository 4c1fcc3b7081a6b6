package transaction

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/cardledger/cardledger/internal/domain/common"
)

// Service exposes the read and correction flows over the store.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a transaction service.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// List returns the user's transactions as wire projections, optionally
// filtered to one statement month.
func (s *Service) List(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]DTO, error) {
	txs, err := s.store.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	dtos := make([]DTO, 0, len(txs))
	for i := range txs {
		dtos = append(dtos, txs[i].ToDTO())
	}
	return dtos, nil
}

// UpdateCategory applies a manual category correction. The new category must
// be non-empty after trimming.
func (s *Service) UpdateCategory(ctx context.Context, id uuid.UUID, category string) (DTO, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return DTO{}, fmt.Errorf("%w: category must not be empty", common.ErrInvalidInput)
	}

	t, err := s.store.UpdateCategory(ctx, id, category)
	if err != nil {
		return DTO{}, fmt.Errorf("update category: %w", err)
	}

	s.logger.InfoContext(ctx, "category corrected",
		slog.String("transaction_id", id.String()),
		slog.String("category", category))
	return t.ToDTO(), nil
}
