package categorization

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
)

// KeywordSource supplies the keyword table, usually the Postgres repository.
type KeywordSource interface {
	LoadKeywords(ctx context.Context) ([]Keyword, error)
}

// Snapshot is an immutable, matcher-ready view of the keyword table. Safe
// for concurrent use once built.
type Snapshot struct {
	matcher    *ahocorasick.Matcher
	categories []string
	size       int
}

// Lookup returns the category for the longest keyword contained in the
// merchant name. Matching is case-insensitive.
func (s *Snapshot) Lookup(merchant string) (string, bool) {
	if s.size == 0 {
		return "", false
	}

	hits := s.matcher.Match([]byte(strings.ToUpper(merchant)))
	if len(hits) == 0 {
		return "", false
	}

	// Patterns are ordered longest-first, lexicographic within a length,
	// so the smallest hit index is the winning keyword.
	best := hits[0]
	for _, h := range hits[1:] {
		if h < best {
			best = h
		}
	}
	return s.categories[best], true
}

// Size returns the number of keywords in the snapshot.
func (s *Snapshot) Size() int {
	return s.size
}

func buildSnapshot(keywords []Keyword) *Snapshot {
	sorted := make([]Keyword, len(keywords))
	copy(sorted, keywords)
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i].Name) != len(sorted[j].Name) {
			return len(sorted[i].Name) > len(sorted[j].Name)
		}
		return sorted[i].Name < sorted[j].Name
	})

	patterns := make([]string, len(sorted))
	categories := make([]string, len(sorted))
	for i, k := range sorted {
		patterns[i] = strings.ToUpper(k.Name)
		categories[i] = k.Category
	}

	return &Snapshot{
		matcher:    ahocorasick.NewStringMatcher(patterns),
		categories: categories,
		size:       len(patterns),
	}
}

// Provider holds the current keyword snapshot and rebuilds it on demand.
type Provider struct {
	source KeywordSource
	logger *slog.Logger

	mu       sync.RWMutex
	snapshot *Snapshot
}

// NewProvider loads the keyword table once and returns a ready provider.
func NewProvider(ctx context.Context, source KeywordSource, logger *slog.Logger) (*Provider, error) {
	p := &Provider{source: source, logger: logger}
	if err := p.Reload(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Snapshot returns the current keyword snapshot.
func (p *Provider) Snapshot() *Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// Reload rebuilds the snapshot from the source and swaps it in. The old
// snapshot stays valid for callers that already hold it.
func (p *Provider) Reload(ctx context.Context) error {
	keywords, err := p.source.LoadKeywords(ctx)
	if err != nil {
		return fmt.Errorf("reload keywords: %w", err)
	}

	snap := buildSnapshot(keywords)

	p.mu.Lock()
	p.snapshot = snap
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "keyword snapshot rebuilt", slog.Int("keywords", snap.Size()))
	return nil
}
