// Package transaction defines the transaction model and its Postgres store.
package transaction

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// PaymentStatus is the settlement state of a transaction.
type PaymentStatus string

const (
	StatusCompleted PaymentStatus = "completed"
	StatusPending   PaymentStatus = "pending"
	StatusFailed    PaymentStatus = "failed"
)

// Transaction is one withdrawal parsed from a bank statement.
// The date keeps the source statement's formatting; Amount is in integer
// statement-currency units.
type Transaction struct {
	ID             uuid.UUID
	TransactionKey string
	Date           string
	Merchant       string
	Amount         int64
	Category       string
	Description    *string
	Status         PaymentStatus
	PaymentMethod  string
	UserID         uuid.UUID
	CreatedAt      time.Time
}

// MerchantCategory pairs a merchant with one historically assigned category.
// Rows are produced most-recent-first by the history query and are never
// persisted on their own.
type MerchantCategory struct {
	Merchant string
	Category string
}

// DTO is the wire projection of a Transaction served to the front end.
type DTO struct {
	ID            string        `json:"id"`
	Date          string        `json:"date"`
	Merchant      string        `json:"merchant"`
	Amount        int64         `json:"amount"`
	Category      string        `json:"category"`
	Description   string        `json:"description"`
	Status        PaymentStatus `json:"status"`
	PaymentMethod string        `json:"paymentMethod"`
}

// ToDTO converts a stored transaction to its wire projection.
func (t *Transaction) ToDTO() DTO {
	d := DTO{
		ID:            t.ID.String(),
		Date:          t.Date,
		Merchant:      t.Merchant,
		Amount:        t.Amount,
		Category:      t.Category,
		Status:        t.Status,
		PaymentMethod: t.PaymentMethod,
	}
	if t.Description != nil {
		d.Description = *t.Description
	}
	return d
}

// BuildKey derives the dedup key for a statement row. Two rows with the same
// key are the same real-world transaction. Whitespace is stripped from each
// component before joining, so reformatted statements produce identical keys.
func BuildKey(date string, amount int64, merchant string) string {
	return fmt.Sprintf("%s_%d_%s", stripSpace(date), amount, stripSpace(merchant))
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
