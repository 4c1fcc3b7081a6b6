package parser

import (
	"strconv"
	"strings"

	"github.com/cardledger/cardledger/internal/domain/transaction"
)

// Kookmin card statement layout. The sheet carries four header rows and a
// trailing summary row; only the rows in between are data.
const (
	kookminHeaderRows    = 4
	kookminColDate       = 0
	kookminColMerchant   = 2
	kookminColWithdrawal = 4
	kookminColMethod     = 7
)

// KookminParser parses Kookmin card xlsx statements.
type KookminParser struct{}

// NewKookminParser creates a Kookmin statement parser.
func NewKookminParser() *KookminParser {
	return &KookminParser{}
}

var _ TransactionParser = (*KookminParser)(nil)

// Parse extracts withdrawal transactions from the statement grid. Rows with
// an empty or zero withdrawal amount are deposits or memo lines and are
// skipped. A non-empty amount that does not read as an integer aborts the
// parse.
func (p *KookminParser) Parse(rows [][]string) ([]*transaction.Transaction, error) {
	if len(rows) <= kookminHeaderRows+1 {
		return nil, nil
	}

	var txs []*transaction.Transaction
	for i := kookminHeaderRows; i < len(rows)-1; i++ {
		row := rows[i]
		// Sheet readers trim trailing empty cells, so a row may end at the
		// withdrawal column. Cells past the end read as empty.
		if len(row) <= kookminColWithdrawal || isBlankRow(row) {
			continue
		}

		rawAmount := strings.ReplaceAll(row[kookminColWithdrawal], ",", "")
		rawAmount = strings.TrimSpace(rawAmount)
		if rawAmount == "" {
			continue
		}

		amount, err := strconv.ParseInt(rawAmount, 10, 64)
		if err != nil {
			return nil, &ParseError{
				Row:     i,
				Column:  kookminColWithdrawal,
				Message: "withdrawal amount is not an integer",
				RawData: row[kookminColWithdrawal],
			}
		}
		if amount == 0 {
			continue
		}

		date := strings.TrimSpace(row[kookminColDate])
		merchant := strings.TrimSpace(row[kookminColMerchant])

		txs = append(txs, &transaction.Transaction{
			TransactionKey: transaction.BuildKey(date, amount, merchant),
			Date:           date,
			Merchant:       merchant,
			Amount:         amount,
			Status:         transaction.StatusCompleted,
			PaymentMethod:  strings.TrimSpace(cellAt(row, kookminColMethod)),
		})
	}
	return txs, nil
}

func cellAt(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
