// Package handler serves the transaction list and category corrections.
package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/cardledger/cardledger/internal/domain/auth"
	"github.com/cardledger/cardledger/internal/domain/common"
	"github.com/cardledger/cardledger/internal/domain/transaction"
	"github.com/cardledger/cardledger/internal/domain/user"
)

// TransactionReader is the read/correct surface the handler drives.
type TransactionReader interface {
	List(ctx context.Context, userID uuid.UUID, filter transaction.ListFilter) ([]transaction.DTO, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, category string) (transaction.DTO, error)
}

// TransactionHandler serves the authenticated transaction endpoints.
type TransactionHandler struct {
	transactions TransactionReader
	users        user.Store
	logger       *slog.Logger
}

// NewTransactionHandler creates a transaction handler.
func NewTransactionHandler(transactions TransactionReader, users user.Store, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{transactions: transactions, users: users, logger: logger}
}

// List handles GET /api/transactions/get. Optional year and month query
// parameters narrow the result to one statement month.
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	owner, err := h.users.FindByEmail(c.UserContext(), auth.EmailFromCtx(c))
	if err != nil {
		return writeError(c, err)
	}

	filter := transaction.ListFilter{
		Year:  c.QueryInt("year", 0),
		Month: c.QueryInt("month", 0),
	}

	dtos, err := h.transactions.List(c.UserContext(), owner.ID, filter)
	if err != nil {
		h.logger.ErrorContext(c.UserContext(), "transaction list failed", slog.Any("error", err))
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"transactions": dtos})
}

// UpdateCategory handles PATCH /api/transactions/:id/category with a JSON
// body of {"category": "..."}.
func (h *TransactionHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid transaction id"})
	}

	var body struct {
		Category string `json:"category"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}

	dto, err := h.transactions.UpdateCategory(c.UserContext(), id, body.Category)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto)
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, common.ErrUserNotFound), errors.Is(err, common.ErrTransactionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal error"})
	}
}
