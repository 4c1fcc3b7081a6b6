package categorization

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	keywords []Keyword
	err      error
}

func (s *staticSource) LoadKeywords(context.Context) ([]Keyword, error) {
	return s.keywords, s.err
}

func newTestCategorizer(t *testing.T, keywords []Keyword) *Categorizer {
	t.Helper()
	provider, err := NewProvider(context.Background(), &staticSource{keywords: keywords}, slog.Default())
	require.NoError(t, err)
	return NewCategorizer(provider)
}

func TestCategorizeByKeyword(t *testing.T) {
	c := newTestCategorizer(t, []Keyword{{Name: "GAS", Category: "Fuel"}})

	assert.Equal(t, "Fuel", c.Categorize("SHELL GAS STATION", nil))
}

func TestCategorizeDefault(t *testing.T) {
	c := newTestCategorizer(t, []Keyword{{Name: "GAS", Category: "Fuel"}})

	assert.Equal(t, CategoryDefault, c.Categorize("UNKNOWN MERCHANT", nil))
}

func TestCategorizeHistoryWins(t *testing.T) {
	c := newTestCategorizer(t, []Keyword{{Name: "GAS", Category: "Fuel"}})
	historical := "Travel"

	assert.Equal(t, "Travel", c.Categorize("SHELL GAS STATION", &historical))
}

func TestCategorizeEmptyHistoryFallsThrough(t *testing.T) {
	c := newTestCategorizer(t, []Keyword{{Name: "GAS", Category: "Fuel"}})
	historical := ""

	assert.Equal(t, "Fuel", c.Categorize("SHELL GAS STATION", &historical))
}

func TestCategorizeCaseInsensitive(t *testing.T) {
	c := newTestCategorizer(t, []Keyword{{Name: "starbucks", Category: "Food"}})

	assert.Equal(t, "Food", c.Categorize("STARBUCKS GANGNAM", nil))
}

func TestCategorizeLongestKeywordWins(t *testing.T) {
	c := newTestCategorizer(t, []Keyword{
		{Name: "GAS", Category: "Fuel"},
		{Name: "GAS STATION", Category: "Transport"},
	})

	assert.Equal(t, "Transport", c.Categorize("SHELL GAS STATION", nil))
}

func TestCategorizeTieBreaksLexicographically(t *testing.T) {
	c := newTestCategorizer(t, []Keyword{
		{Name: "CAB", Category: "Taxi"},
		{Name: "BAR", Category: "Drinks"},
	})

	assert.Equal(t, "Drinks", c.Categorize("BARCAB", nil))
}

func TestCategorizeEmptyTable(t *testing.T) {
	c := newTestCategorizer(t, nil)

	assert.Equal(t, CategoryDefault, c.Categorize("ANYTHING", nil))
}

func TestProviderReloadSwapsSnapshot(t *testing.T) {
	source := &staticSource{keywords: []Keyword{{Name: "GAS", Category: "Fuel"}}}
	provider, err := NewProvider(context.Background(), source, slog.Default())
	require.NoError(t, err)

	old := provider.Snapshot()
	source.keywords = []Keyword{
		{Name: "GAS", Category: "Fuel"},
		{Name: "CAFE", Category: "Food"},
	}
	require.NoError(t, provider.Reload(context.Background()))

	assert.Equal(t, 1, old.Size())
	assert.Equal(t, 2, provider.Snapshot().Size())

	category, ok := provider.Snapshot().Lookup("CAFE MOCHA")
	require.True(t, ok)
	assert.Equal(t, "Food", category)
}

func TestProviderReloadKeepsSnapshotOnError(t *testing.T) {
	source := &staticSource{keywords: []Keyword{{Name: "GAS", Category: "Fuel"}}}
	provider, err := NewProvider(context.Background(), source, slog.Default())
	require.NoError(t, err)

	source.err = errors.New("db down")
	assert.Error(t, provider.Reload(context.Background()))
	assert.Equal(t, 1, provider.Snapshot().Size())
}
