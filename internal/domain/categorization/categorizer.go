package categorization

// CategoryDefault labels transactions no history or keyword could place.
const CategoryDefault = "Uncategorized"

// Categorizer assigns a category to a merchant name.
type Categorizer struct {
	provider *Provider
}

// NewCategorizer creates a categorizer over the given keyword provider.
func NewCategorizer(provider *Provider) *Categorizer {
	return &Categorizer{provider: provider}
}

// Categorize picks the category for a merchant. A historical category, when
// known, always wins; otherwise the keyword table decides; otherwise the
// default label.
func (c *Categorizer) Categorize(merchant string, historical *string) string {
	if historical != nil && *historical != "" {
		return *historical
	}
	if category, ok := c.provider.Snapshot().Lookup(merchant); ok {
		return category
	}
	return CategoryDefault
}
