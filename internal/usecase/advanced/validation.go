package advanced

import "sort"

// Validation error messages, keyed by condition attribute.
const (
	MsgNotAllowed      = "is not allowed"
	MsgBlank           = "can't be blank"
	MsgInvalidOperator = "is not a valid operator"
	MsgNotDateOperator = "is not a date operator"
	MsgNotDate         = "is not a date"
	MsgNotNumber       = "is not a number"
	MsgTaken           = "is already taken"
)

// Condition attributes an error can attach to.
const (
	AttrField    = "field"
	AttrOperator = "operator"
	AttrValue    = "value"
)

// FieldError is one validation error on one condition attribute.
type FieldError struct {
	Attr    string `json:"attr"`
	Message string `json:"message"`
}

// Issue is a FieldError located within the expression, for rendering.
type Issue struct {
	Group     int    `json:"group"`
	Condition int    `json:"condition"`
	Attr      string `json:"attr"`
	Message   string `json:"message"`
}

type conditionRef struct {
	group, cond int
}

// Validation accumulates per-condition errors. Invalid input is data,
// not an exception: the zero-error state means the expression is valid.
type Validation struct {
	errs map[conditionRef][]FieldError
}

func newValidation() *Validation {
	return &Validation{errs: make(map[conditionRef][]FieldError)}
}

func (v *Validation) add(group, cond int, attr, message string) {
	ref := conditionRef{group: group, cond: cond}
	v.errs[ref] = append(v.errs[ref], FieldError{Attr: attr, Message: message})
}

// Valid reports whether no condition carries an error.
func (v *Validation) Valid() bool { return len(v.errs) == 0 }

// Condition returns the errors for one condition, by position.
func (v *Validation) Condition(group, cond int) []FieldError {
	return v.errs[conditionRef{group: group, cond: cond}]
}

// GroupValid reports whether no condition of the group carries an error.
func (v *Validation) GroupValid(group int) bool {
	for ref := range v.errs {
		if ref.group == group {
			return false
		}
	}
	return true
}

// Issues returns every error in deterministic (group, condition) order.
func (v *Validation) Issues() []Issue {
	refs := make([]conditionRef, 0, len(v.errs))
	for ref := range v.errs {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].group != refs[j].group {
			return refs[i].group < refs[j].group
		}
		return refs[i].cond < refs[j].cond
	})

	var out []Issue
	for _, ref := range refs {
		for _, fe := range v.errs[ref] {
			out = append(out, Issue{
				Group:     ref.group,
				Condition: ref.cond,
				Attr:      fe.Attr,
				Message:   fe.Message,
			})
		}
	}
	return out
}
