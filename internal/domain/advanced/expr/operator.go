package expr

// Operator is a condition operator as submitted by the user.
type Operator string

// Condition operators.
const (
	OpEq          Operator = "="
	OpNotEq       Operator = "!="
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpExists      Operator = "exists"
	OpNotExists   Operator = "not_exists"
	OpIn          Operator = "in"
	OpNotIn       Operator = "not_in"
	OpGte         Operator = ">="
	OpLte         Operator = "<="
)

// IsValid reports whether o is a known operator.
func (o Operator) IsValid() bool {
	switch o {
	case OpEq, OpNotEq, OpContains, OpNotContains, OpExists, OpNotExists,
		OpIn, OpNotIn, OpGte, OpLte:
		return true
	}
	return false
}

// IsExistence reports whether o ignores the condition value.
func (o Operator) IsExistence() bool {
	return o == OpExists || o == OpNotExists
}

// IsComparison reports whether o is an ordered comparison.
func (o Operator) IsComparison() bool {
	return o == OpGte || o == OpLte
}

// IsPattern reports whether o belongs to the substring/set-membership
// family, which is rejected for date-typed fields.
func (o Operator) IsPattern() bool {
	return o == OpContains || o == OpIn || o == OpNotIn
}
