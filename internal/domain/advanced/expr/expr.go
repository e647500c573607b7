// Package expr holds the advanced-search expression model: conditions
// AND-ed within a group, groups OR-ed within an expression. The model
// captures untrusted user input verbatim; validation and semantics live
// in the advanced usecase.
package expr

import "strings"

// Condition is a single (field, operator, value) clause.
type Condition struct {
	field    string
	operator Operator
	values   []string
}

// NewCondition creates a condition. No validation happens here: a fresh
// form submits blank placeholder conditions and the validator decides
// what is acceptable.
func NewCondition(field string, op Operator, values ...string) Condition {
	return Condition{field: field, operator: op, values: values}
}

// Field returns the user-facing field name.
func (c Condition) Field() string { return c.field }

// Operator returns the condition operator.
func (c Condition) Operator() Operator { return c.operator }

// Values returns the raw condition values.
func (c Condition) Values() []string { return c.values }

// CleanValues returns the values with blank entries removed.
func (c Condition) CleanValues() []string {
	out := make([]string, 0, len(c.values))
	for _, v := range c.values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

// Empty reports whether field, operator and value are all blank. Empty
// conditions are the no-op placeholders a fresh form starts with; they
// are valid and contribute nothing to the compiled query.
func (c Condition) Empty() bool {
	return strings.TrimSpace(c.field) == "" &&
		strings.TrimSpace(string(c.operator)) == "" &&
		len(c.CleanValues()) == 0
}

// Group is an ordered, conjunctive cluster of conditions.
type Group struct {
	conditions []Condition
}

// NewGroup creates a group from conditions in submission order.
func NewGroup(conds ...Condition) Group {
	return Group{conditions: conds}
}

// Conditions returns the conditions in order.
func (g Group) Conditions() []Condition { return g.conditions }

// Empty reports whether every contained condition is empty.
func (g Group) Empty() bool {
	for _, c := range g.conditions {
		if !c.Empty() {
			return false
		}
	}
	return true
}

// Expression is the whole user-authored search: groups OR-ed together
// plus the non-search attributes (sort, free-text fallback, scope).
type Expression struct {
	groups []Group
	sort   string
	term   string
	scope  []string
}

// New creates an expression. sort is the raw "column direction" pair,
// term the free-text fallback applied when the expression is not
// advanced, scope opaque identifiers forwarded to the store layer.
func New(groups []Group, sort, term string, scope ...string) Expression {
	return Expression{groups: groups, sort: sort, term: term, scope: scope}
}

// Groups returns the groups in order.
func (e Expression) Groups() []Group { return e.groups }

// RawSort returns the unparsed sort attribute.
func (e Expression) RawSort() string { return e.sort }

// Term returns the free-text fallback term.
func (e Expression) Term() string { return e.term }

// Scope returns the opaque scope identifiers.
func (e Expression) Scope() []string { return e.scope }

// Advanced reports whether any group carries a non-empty condition.
// A degenerate expression (all blanks) is indistinguishable from "no
// advanced search requested" and compiles to plain sorting/filtering.
func (e Expression) Advanced() bool {
	for _, g := range e.groups {
		if !g.Empty() {
			return true
		}
	}
	return false
}

// ParseSort splits a raw "column direction" pair on the last whitespace,
// so a metadata field name containing spaces still parses. Absent or
// malformed input falls back to the given defaults.
func ParseSort(raw, defaultColumn string, defaultDesc bool) (column string, desc bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultColumn, defaultDesc
	}
	i := strings.LastIndexAny(raw, " \t")
	if i < 0 {
		return defaultColumn, defaultDesc
	}
	column = strings.TrimSpace(raw[:i])
	dir := strings.ToLower(strings.TrimSpace(raw[i+1:]))
	if column == "" {
		return defaultColumn, defaultDesc
	}
	switch dir {
	case "asc":
		return column, false
	case "desc":
		return column, true
	default:
		return defaultColumn, defaultDesc
	}
}
