// Package sortmode enumerates the federated result orderings.
package sortmode

// Mode selects the federated result ordering.
type Mode string

// Sort modes.
const (
	// BestMatch orders by match quality (score bucket), recency, type, id.
	BestMatch Mode = "best_match"
	// MostRecent orders by recency, with a soft type-diversity pass when
	// several types are selected.
	MostRecent Mode = "most_recent"
)

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	return m == BestMatch || m == MostRecent
}
