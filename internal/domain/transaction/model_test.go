package transaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildKey(t *testing.T) {
	key := BuildKey("2025-01-02", 4500, "STARBUCKS GANGNAM")
	assert.Equal(t, "2025-01-02_4500_STARBUCKSGANGNAM", key)
}

func TestBuildKeyIgnoresWhitespaceVariants(t *testing.T) {
	a := BuildKey("2025-01-02", 4500, "STARBUCKS GANGNAM")
	b := BuildKey("2025-01-02 ", 4500, " STARBUCKS\tGANGNAM")
	assert.Equal(t, a, b)
}

func TestToDTONilDescription(t *testing.T) {
	tx := Transaction{Merchant: "CAFE", Amount: 100, Status: StatusCompleted}
	dto := tx.ToDTO()
	assert.Equal(t, "", dto.Description)
	assert.Equal(t, StatusCompleted, dto.Status)
}
