// Package predicate defines the abstract "field OP literal(s)" nodes the
// operator compiler emits and the store layer consumes. Values are kept
// raw here; binding and escaping happen where the concrete store query
// is built.
package predicate

import "strings"

// Op is a compiled predicate operator.
type Op string

// Predicate operators.
const (
	Eq          Op = "eq"
	NotEq       Op = "not_eq"
	Contains    Op = "contains"
	NotContains Op = "not_contains"
	Exists      Op = "exists"
	NotExists   Op = "not_exists"
	In          Op = "in"
	NotIn       Op = "not_in"
	Gte         Op = "gte"
	Lte         Op = "lte"
)

// Cast is the re-typing applied to a schemaless value before an ordered
// comparison. Typed columns compare directly and use CastNone.
type Cast string

// Cast kinds.
const (
	CastNone   Cast = ""
	CastDate   Cast = "date"
	CastNumber Cast = "number"
)

// Field addresses either a typed column or a metadata key.
type Field struct {
	// Column is the typed column name; empty for metadata fields.
	Column string
	// MetaKey is the canonical metadata key; empty for typed fields.
	MetaKey string
	// CastText marks a non-text typed column that must be cast to text
	// before substring matching.
	CastText bool
}

// IsMetadata reports whether the field addresses schemaless metadata.
func (f Field) IsMetadata() bool { return f.MetaKey != "" }

// Name returns the canonical key for debugging.
func (f Field) Name() string {
	if f.IsMetadata() {
		return "metadata." + f.MetaKey
	}
	return f.Column
}

// Predicate is one compiled condition.
type Predicate struct {
	Op     Op
	Field  Field
	Values []string
	// Fold requests case-insensitive comparison (metadata and name fields).
	Fold bool
	// Cast re-types metadata values for ordered comparisons.
	Cast Cast
}

// Value returns the first literal, or "" when none is bound.
func (p Predicate) Value() string {
	if len(p.Values) == 0 {
		return ""
	}
	return p.Values[0]
}

// Query is the assembled filter: predicates AND-ed within each group,
// groups OR-ed together. An empty query matches everything.
type Query struct {
	Groups [][]Predicate
}

// Empty reports whether no group produced a predicate.
func (q Query) Empty() bool {
	for _, g := range q.Groups {
		if len(g) > 0 {
			return false
		}
	}
	return true
}

// String returns a debug rendering of the query tree.
func (q Query) String() string {
	if q.Empty() {
		return "TRUE"
	}
	groups := make([]string, 0, len(q.Groups))
	for _, g := range q.Groups {
		parts := make([]string, 0, len(g))
		for _, p := range g {
			parts = append(parts, p.Field.Name()+" "+string(p.Op)+" "+strings.Join(p.Values, ","))
		}
		groups = append(groups, "("+strings.Join(parts, " AND ")+")")
	}
	return strings.Join(groups, " OR ")
}

// Sort is the independent ordering specification.
type Sort struct {
	Field Field
	Desc  bool
}
