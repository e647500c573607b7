package advanced

import (
	"github.com/tracebase/findex/internal/domain/advanced/expr"
	"github.com/tracebase/findex/internal/domain/advanced/predicate"
	"github.com/tracebase/findex/internal/domain/schema"
)

// DefaultSortColumn orders results when no (or a malformed) sort is given.
const DefaultSortColumn = "updated_at"

// Assemble folds a validated expression into the store query: compiled
// predicates AND-ed within each group, groups OR-ed together. Empty
// groups are skipped entirely; if nothing compiles the filter is the
// identity and matches everything.
func Assemble(e expr.Expression, s *schema.Schema) predicate.Query {
	if !e.Advanced() {
		return predicate.Query{}
	}

	var groups [][]predicate.Predicate
	for _, g := range e.Groups() {
		if g.Empty() {
			continue
		}
		var preds []predicate.Predicate
		for _, c := range g.Conditions() {
			if c.Empty() {
				continue
			}
			cls, ok := s.Classify(c.Field())
			if !ok {
				// The validator rejects unknown fields before assembly.
				continue
			}
			preds = append(preds, compileCondition(c, cls))
		}
		if len(preds) > 0 {
			groups = append(groups, preds)
		}
	}
	return predicate.Query{Groups: groups}
}

// SortSpec resolves the expression's raw sort attribute into a store
// sort. Metadata columns sort on the JSON-embedded value; an unknown
// column falls back to the default.
func SortSpec(e expr.Expression, s *schema.Schema) predicate.Sort {
	column, desc := expr.ParseSort(e.RawSort(), DefaultSortColumn, true)

	cls, ok := s.Classify(column)
	if !ok {
		return predicate.Sort{Field: predicate.Field{Column: DefaultSortColumn}, Desc: true}
	}
	if cls.IsMetadata() {
		return predicate.Sort{Field: predicate.Field{MetaKey: cls.Key()}, Desc: desc}
	}
	return predicate.Sort{Field: predicate.Field{Column: cls.Key()}, Desc: desc}
}
