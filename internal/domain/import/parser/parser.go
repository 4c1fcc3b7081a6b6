// Package parser turns bank statement sheets into transactions. Each bank
// layout gets its own parser behind the TransactionParser interface.
package parser

import (
	"fmt"

	"github.com/cardledger/cardledger/internal/domain/transaction"
)

// TransactionParser parses the rectangular cell grid of a statement sheet.
type TransactionParser interface {
	Parse(rows [][]string) ([]*transaction.Transaction, error)
}

// ParseError reports an unreadable statement cell. An import aborts on the
// first one rather than silently dropping rows.
type ParseError struct {
	Row     int
	Column  int
	Message string
	RawData string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse statement row %d col %d: %s (raw %q)", e.Row, e.Column, e.Message, e.RawData)
}
