// Package request normalizes raw federated search parameters. All inputs
// fall back to safe defaults; normalization never fails.
package request

import (
	"strings"
	"time"

	"github.com/tracebase/findex/internal/domain/federated/sortmode"
)

// Result caps. Suggest mode serves as-you-type dropdowns; browse mode
// serves the full search page. Both are clamped to the hard ceilings no
// matter what the caller asks for.
const (
	SuggestPerTypeLimit = 5
	SuggestLimit        = 20
	BrowsePerTypeLimit  = 20
	BrowseLimit         = 100
	MaxPerTypeLimit     = 50
	MaxLimit            = 200
)

// Match sources a provider may search.
const (
	SourceIdentifier = "identifier"
	SourceName       = "name"
	SourceMetadata   = "metadata"
)

// DateFormat is the ISO calendar date accepted by the date filters.
const DateFormat = "2006-01-02"

var canonicalSources = []string{SourceIdentifier, SourceName, SourceMetadata}

// Filters are the best-effort provider refinements. Unlike expression
// conditions these are not validated: an unparsable date means no filter.
type Filters struct {
	workflowState string
	createdFrom   *time.Time
	createdTo     *time.Time
}

// WorkflowState returns the workflow state filter, "" when unset.
func (f Filters) WorkflowState() string { return f.workflowState }

// CreatedFrom returns the inclusive lower creation-date bound.
func (f Filters) CreatedFrom() *time.Time { return f.createdFrom }

// CreatedTo returns the inclusive upper creation-date bound.
func (f Filters) CreatedTo() *time.Time { return f.createdTo }

// Request is a normalized federated search request.
type Request struct {
	query        string
	types        []string
	sources      []string
	mode         sortmode.Mode
	filters      Filters
	perTypeLimit int
	limit        int
	suggest      bool
}

// Params is the raw parameter bag as received from the transport.
type Params struct {
	Query         string
	Types         []string
	Sources       []string
	Sort          string
	WorkflowState string
	CreatedFrom   string
	CreatedTo     string
	PerTypeLimit  int
	Limit         int
	Suggest       bool
}

// New normalizes raw parameters against the known type allow-list:
// the query is trimmed, unknown types and sources are dropped (an empty
// or fully invalid selection falls back to the defaults), the sort mode
// defaults to best_match, limits get mode defaults and hard ceilings,
// and malformed dates are silently treated as "no filter".
func New(p Params, knownTypes []string) Request {
	r := Request{
		query:   strings.TrimSpace(p.Query),
		types:   intersect(p.Types, knownTypes),
		sources: intersect(p.Sources, canonicalSources),
		mode:    sortmode.Mode(p.Sort),
		suggest: p.Suggest,
	}
	if len(r.types) == 0 {
		r.types = append([]string(nil), knownTypes...)
	}
	if len(r.sources) == 0 {
		r.sources = []string{SourceIdentifier, SourceName}
	}
	if !r.mode.IsValid() {
		r.mode = sortmode.BestMatch
	}

	r.filters.workflowState = strings.TrimSpace(p.WorkflowState)
	r.filters.createdFrom = parseDate(p.CreatedFrom)
	r.filters.createdTo = parseDate(p.CreatedTo)

	defPerType, defLimit := BrowsePerTypeLimit, BrowseLimit
	if p.Suggest {
		defPerType, defLimit = SuggestPerTypeLimit, SuggestLimit
	}
	r.perTypeLimit = clamp(p.PerTypeLimit, defPerType, MaxPerTypeLimit)
	r.limit = clamp(p.Limit, defLimit, MaxLimit)

	return r
}

// Query returns the trimmed query string.
func (r Request) Query() string { return r.query }

// Types returns the selected entity types in allow-list order.
func (r Request) Types() []string { return r.types }

// Sources returns the selected match sources.
func (r Request) Sources() []string { return r.sources }

// Mode returns the sort mode.
func (r Request) Mode() sortmode.Mode { return r.mode }

// Filters returns the provider refinements.
func (r Request) Filters() Filters { return r.filters }

// PerTypeLimit returns the per-provider result cap.
func (r Request) PerTypeLimit() int { return r.perTypeLimit }

// Limit returns the overall result cap.
func (r Request) Limit() int { return r.limit }

// Suggest reports whether suggest-mode defaults were applied.
func (r Request) Suggest() bool { return r.suggest }

// intersect keeps the members of want that appear in allowed, in allowed
// order, without duplicates.
func intersect(want, allowed []string) []string {
	if len(want) == 0 {
		return nil
	}
	wanted := make(map[string]bool, len(want))
	for _, w := range want {
		wanted[strings.TrimSpace(w)] = true
	}
	var out []string
	for _, a := range allowed {
		if wanted[a] {
			out = append(out, a)
		}
	}
	return out
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		// Best-effort refinement: a bad date is no filter, not an error.
		return nil
	}
	return &t
}

func clamp(v, def, max int) int {
	if v <= 0 {
		v = def
	}
	if v > max {
		v = max
	}
	return v
}
