// Package result holds the normalized federated search hit. Providers of
// every entity type produce this one shape; the orchestrator never looks
// inside entities.
package result

import "time"

// Result is a single federated search hit. Value object, no mutation
// after construction.
type Result struct {
	typeName     string
	recordID     int64
	title        string
	subtitle     string
	url          string
	matchTags    []string
	scoreBucket  int
	updatedAt    time.Time
	contextLabel string
	contextURL   string
}

// New creates a Result. scoreBucket is the provider-assigned match
// quality tier; lower is better, 0 means exact match.
func New(
	typeName string, recordID int64, title, subtitle, url string,
	matchTags []string, scoreBucket int, updatedAt time.Time,
) Result {
	return Result{
		typeName:    typeName,
		recordID:    recordID,
		title:       title,
		subtitle:    subtitle,
		url:         url,
		matchTags:   matchTags,
		scoreBucket: scoreBucket,
		updatedAt:   updatedAt,
	}
}

// WithContext returns a copy carrying a context breadcrumb (for example
// the owning project).
func (r Result) WithContext(label, url string) Result {
	r.contextLabel = label
	r.contextURL = url
	return r
}

// Type returns the entity type name.
func (r Result) Type() string { return r.typeName }

// RecordID returns the record identifier within its type.
func (r Result) RecordID() int64 { return r.recordID }

// Title returns the display title.
func (r Result) Title() string { return r.title }

// Subtitle returns the display subtitle.
func (r Result) Subtitle() string { return r.subtitle }

// URL returns the record URL.
func (r Result) URL() string { return r.url }

// MatchTags returns the matched source tags (identifier, name, metadata).
func (r Result) MatchTags() []string { return r.matchTags }

// ScoreBucket returns the match quality tier; lower is better.
func (r Result) ScoreBucket() int { return r.scoreBucket }

// UpdatedAt returns the last-modification timestamp.
func (r Result) UpdatedAt() time.Time { return r.updatedAt }

// ContextLabel returns the context breadcrumb label, if any.
func (r Result) ContextLabel() string { return r.contextLabel }

// ContextURL returns the context breadcrumb URL, if any.
func (r Result) ContextURL() string { return r.contextURL }
