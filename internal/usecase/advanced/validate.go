package advanced

import (
	"strconv"
	"strings"
	"time"

	"github.com/tracebase/findex/internal/domain/advanced/expr"
	"github.com/tracebase/findex/internal/domain/schema"
)

// dateFormat is the strict calendar date accepted by expression values.
const dateFormat = "2006-01-02"

// Validator checks an expression against one record type's schema.
// The same rules apply to every type; only the schema differs.
type Validator struct {
	schema *schema.Schema
}

// NewValidator creates a validator for the given schema.
func NewValidator(s *schema.Schema) *Validator {
	return &Validator{schema: s}
}

// Validate applies the validation rules to every non-empty condition and
// accumulates errors; it never rejects by exception. An expression whose
// groups are all empty is trivially valid and not advanced.
func (v *Validator) Validate(e expr.Expression) *Validation {
	res := newValidation()
	if !e.Advanced() {
		return res
	}

	for gi, g := range e.Groups() {
		seen := make(map[string][]expr.Operator)
		for ci, c := range g.Conditions() {
			if c.Empty() {
				continue
			}
			v.validateCondition(res, gi, ci, c, seen)
		}
	}
	return res
}

func (v *Validator) validateCondition(
	res *Validation, gi, ci int, c expr.Condition, seen map[string][]expr.Operator,
) {
	field := strings.TrimSpace(c.Field())
	op := c.Operator()
	values := c.CleanValues()

	if field == "" {
		res.add(gi, ci, AttrField, MsgBlank)
	} else if _, ok := v.schema.Classify(field); !ok {
		res.add(gi, ci, AttrField, MsgNotAllowed)
	}

	switch {
	case strings.TrimSpace(string(op)) == "":
		res.add(gi, ci, AttrOperator, MsgBlank)
	case !op.IsValid():
		res.add(gi, ci, AttrOperator, MsgInvalidOperator)
	}

	if op.IsValid() && !op.IsExistence() && len(values) == 0 {
		res.add(gi, ci, AttrValue, MsgBlank)
	}

	if field != "" && op.IsValid() {
		v.validateLiterals(res, gi, ci, field, op, values)
	}

	if field != "" {
		v.validateCardinality(res, gi, ci, v.cardinalityKey(field), op, seen)
	}
}

// cardinalityKey canonicalizes a field name for the per-group uniqueness
// rule, so an alias and its target (or a bare and aliased metadata key)
// count as the same field. Typed and metadata namespaces stay distinct.
func (v *Validator) cardinalityKey(field string) string {
	cls, ok := v.schema.Classify(field)
	if !ok {
		return field
	}
	if cls.IsMetadata() {
		return schema.MetadataPrefix + cls.Key()
	}
	return cls.Key()
}

// validateLiterals enforces the date- and number-format rules.
func (v *Validator) validateLiterals(
	res *Validation, gi, ci int, field string, op expr.Operator, values []string,
) {
	if v.schema.IsDateField(field) {
		// contains/in/not_in make no sense against a calendar date.
		if op.IsPattern() {
			res.add(gi, ci, AttrOperator, MsgNotDateOperator)
			return
		}
		if op.IsExistence() {
			return
		}
		for _, val := range values {
			if !validDate(val) {
				res.add(gi, ci, AttrValue, MsgNotDate)
				return
			}
		}
		return
	}

	if op.IsComparison() {
		for _, val := range values {
			if !validNumber(val) {
				res.add(gi, ci, AttrValue, MsgNotNumber)
				return
			}
		}
	}
}

// validateCardinality enforces the per-field uniqueness rule within a
// group: a field appears once, or exactly twice as a >=/<= range pair.
// Any other repetition marks the later condition's operator as taken.
func (v *Validator) validateCardinality(
	res *Validation, gi, ci int, field string, op expr.Operator, seen map[string][]expr.Operator,
) {
	prev := seen[field]
	seen[field] = append(prev, op)

	switch len(prev) {
	case 0:
		return
	case 1:
		first := prev[0]
		if (first == expr.OpGte && op == expr.OpLte) ||
			(first == expr.OpLte && op == expr.OpGte) {
			return
		}
	}
	res.add(gi, ci, AttrOperator, MsgTaken)
}

// validDate accepts strict YYYY-MM-DD calendar dates only.
func validDate(s string) bool {
	_, err := time.Parse(dateFormat, strings.TrimSpace(s))
	return err == nil
}

func validNumber(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}
