package records

import (
	"strings"

	"github.com/tracebase/findex/internal/domain/advanced/predicate"
)

// Shape guards for ordered comparisons over schemaless metadata. A value
// that does not look like the expected type is excluded from the match
// instead of producing a bogus comparison.
const (
	datePattern   = `^\d{4}(-\d{2}){0,2}$`
	numberPattern = `^-?\d+(\.\d+)?$`
)

// buildWhere renders a compiled query as a parameterized SQL fragment.
// Predicates AND within a group, groups OR together. An empty query
// renders to "" (no constraint).
func buildWhere(q predicate.Query) (string, []any) {
	if q.Empty() {
		return "", nil
	}

	var groups []string
	var args []any
	for _, g := range q.Groups {
		if len(g) == 0 {
			continue
		}
		var parts []string
		for _, p := range g {
			sql, a := buildPredicate(p)
			parts = append(parts, sql)
			args = append(args, a...)
		}
		groups = append(groups, "("+strings.Join(parts, " AND ")+")")
	}
	return "(" + strings.Join(groups, " OR ") + ")", args
}

func buildPredicate(p predicate.Predicate) (string, []any) {
	col, colArgs := columnExpr(p.Field)
	if p.Fold {
		col = "lower(" + col + ")"
	}

	switch p.Op {
	case predicate.Eq:
		return col + " = ?", merge(colArgs, []any{fold(p, p.Value())})
	case predicate.NotEq:
		return "(" + col + " IS NULL OR " + col + " != ?)",
			merge(colArgs, colArgs, []any{fold(p, p.Value())})
	case predicate.Contains:
		return col + ` LIKE ? ESCAPE '\'`, merge(colArgs, []any{pattern(fold(p, p.Value()))})
	case predicate.NotContains:
		return "(" + col + " IS NULL OR " + col + ` NOT LIKE ? ESCAPE '\')`,
			merge(colArgs, colArgs, []any{pattern(fold(p, p.Value()))})
	case predicate.Exists:
		return col + " IS NOT NULL", colArgs
	case predicate.NotExists:
		return col + " IS NULL", colArgs
	case predicate.In:
		if len(p.Values) == 0 {
			return "1 = 0", nil
		}
		return col + " IN (" + placeholders(len(p.Values)) + ")", merge(colArgs, foldAll(p))
	case predicate.NotIn:
		if len(p.Values) == 0 {
			return "1 = 1", nil
		}
		return "(" + col + " IS NULL OR " + col + " NOT IN (" + placeholders(len(p.Values)) + "))",
			merge(colArgs, colArgs, foldAll(p))
	case predicate.Gte:
		return comparison(col, colArgs, ">=", p)
	case predicate.Lte:
		return comparison(col, colArgs, "<=", p)
	}
	return "1 = 0", nil
}

// comparison renders an ordered comparison. Metadata values carry a cast
// with a shape guard; typed columns compare directly.
func comparison(col string, colArgs []any, op string, p predicate.Predicate) (string, []any) {
	switch p.Cast {
	case predicate.CastDate:
		return "(" + col + " REGEXP ? AND " + col + " " + op + " ?)",
			merge(colArgs, []any{datePattern}, colArgs, []any{p.Value()})
	case predicate.CastNumber:
		return "(" + col + " REGEXP ? AND CAST(" + col + " AS REAL) " + op + " CAST(? AS REAL))",
			merge(colArgs, []any{numberPattern}, colArgs, []any{p.Value()})
	default:
		return col + " " + op + " ?", merge(colArgs, []any{p.Value()})
	}
}

// columnExpr renders the addressed field. Metadata keys are open-ended
// user input, so the JSON path is bound as a parameter; key text never
// reaches the SQL string.
func columnExpr(f predicate.Field) (string, []any) {
	if f.IsMetadata() {
		return "json_extract(metadata, ?)", []any{metaPath(f.MetaKey)}
	}
	if f.CastText {
		return "CAST(" + f.Column + " AS TEXT)", nil
	}
	return f.Column, nil
}

var pathEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// metaPath builds the quoted $."key" JSON path for a metadata key.
// Quotes and backslashes in the key are escaped so the label cannot
// terminate early.
func metaPath(key string) string {
	return `$."` + pathEscaper.Replace(key) + `"`
}

func merge(lists ...[]any) []any {
	var out []any
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

func fold(p predicate.Predicate, v string) string {
	if p.Fold {
		return strings.ToLower(v)
	}
	return v
}

func foldAll(p predicate.Predicate) []any {
	args := make([]any, len(p.Values))
	for i, v := range p.Values {
		args[i] = fold(p, v)
	}
	return args
}

// pattern wraps a literal for substring matching. LIKE wildcards inside
// the literal are escaped so user input always matches literally.
func pattern(v string) string {
	return "%" + escapeLike(v) + "%"
}

func escapeLike(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(v)
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// buildOrderBy renders the ORDER BY clause. The id tie-break keeps
// pagination stable across identical sort keys.
func buildOrderBy(s predicate.Sort) (string, []any) {
	dir := " ASC"
	if s.Desc {
		dir = " DESC"
	}
	col, args := columnExpr(s.Field)
	return "ORDER BY " + col + dir + ", id ASC", args
}
