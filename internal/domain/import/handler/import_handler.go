// Package handler exposes statement upload over HTTP.
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/cardledger/cardledger/internal/domain/auth"
	"github.com/cardledger/cardledger/internal/domain/common"
	"github.com/cardledger/cardledger/internal/domain/import/parser"
	"github.com/cardledger/cardledger/internal/domain/transaction"
)

// Importer is the import flow the handler drives.
type Importer interface {
	ImportFile(ctx context.Context, ownerEmail string, fileData []byte) ([]transaction.DTO, error)
}

// ImportHandler accepts multipart statement uploads.
type ImportHandler struct {
	imports Importer
	logger  *slog.Logger
}

// NewImportHandler creates an upload handler.
func NewImportHandler(imports Importer, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{imports: imports, logger: logger}
}

// Upload handles POST /api/transactions/upload. The statement travels as
// the multipart field "file".
func (h *ImportHandler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return writeError(c, common.ErrEmptyFile)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return writeError(c, common.ErrEmptyFile)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return writeError(c, common.ErrEmptyFile)
	}

	dtos, err := h.imports.ImportFile(c.UserContext(), auth.EmailFromCtx(c), data)
	if err != nil {
		h.logger.ErrorContext(c.UserContext(), "statement upload failed",
			slog.String("file", fileHeader.Filename),
			slog.Any("error", err))
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{"transactions": dtos})
}

// writeError maps domain errors onto the JSON error contract.
func writeError(c *fiber.Ctx, err error) error {
	var perr *parser.ParseError

	switch {
	case errors.Is(err, common.ErrEmptyFile), errors.Is(err, common.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, common.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "user not found"})
	case errors.As(err, &perr):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": perr.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal error"})
	}
}
