package advanced

import (
	"github.com/tracebase/findex/internal/domain/advanced/expr"
	"github.com/tracebase/findex/internal/domain/advanced/predicate"
	"github.com/tracebase/findex/internal/domain/schema"
)

// foldColumn is the one typed column compared case-insensitively; every
// metadata key folds as well. All other typed columns compare exactly.
const foldColumn = "name"

// textCastColumns are typed non-text columns that must be cast to text
// before substring matching.
var textCastColumns = map[string]bool{
	"id": true,
}

var operatorMap = map[expr.Operator]predicate.Op{
	expr.OpEq:          predicate.Eq,
	expr.OpNotEq:       predicate.NotEq,
	expr.OpContains:    predicate.Contains,
	expr.OpNotContains: predicate.NotContains,
	expr.OpExists:      predicate.Exists,
	expr.OpNotExists:   predicate.NotExists,
	expr.OpIn:          predicate.In,
	expr.OpNotIn:       predicate.NotIn,
	expr.OpGte:         predicate.Gte,
	expr.OpLte:         predicate.Lte,
}

// compileCondition turns one validated condition into a predicate node.
// The classification decides addressing (column vs metadata key), case
// folding and the cast applied to schemaless comparisons.
func compileCondition(c expr.Condition, cls schema.Classification) predicate.Predicate {
	p := predicate.Predicate{
		Op:   operatorMap[c.Operator()],
		Fold: cls.IsMetadata() || cls.Key() == foldColumn,
	}

	if cls.IsMetadata() {
		p.Field = predicate.Field{MetaKey: cls.Key()}
	} else {
		p.Field = predicate.Field{
			Column:   cls.Key(),
			CastText: textCastColumns[cls.Key()],
		}
	}

	switch {
	case c.Operator().IsExistence():
		// Value is ignored.
	default:
		p.Values = c.CleanValues()
	}

	// Schemaless values are stored as text and must be re-typed before
	// an ordered comparison; the store guards the cast with a shape
	// check so malformed rows are excluded rather than erroring.
	if c.Operator().IsComparison() && cls.IsMetadata() {
		if cls.IsDate() {
			p.Cast = predicate.CastDate
		} else {
			p.Cast = predicate.CastNumber
		}
	}

	return p
}
