package expr

import "testing"

func TestCondition_Empty(t *testing.T) {
	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"all blank", NewCondition("", ""), true},
		{"whitespace only", NewCondition("  ", "", "  "), true},
		{"field set", NewCondition("name", ""), false},
		{"operator set", NewCondition("", OpEq), false},
		{"value set", NewCondition("", "", "x"), false},
		{"array of blanks", NewCondition("", "", "", " "), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cond.Empty(); got != tt.want {
				t.Errorf("Empty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCondition_CleanValues(t *testing.T) {
	c := NewCondition("f", OpIn, "a", "", "  ", "b")
	got := c.CleanValues()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("CleanValues() = %v", got)
	}
}

func TestGroup_Empty(t *testing.T) {
	if !NewGroup(NewCondition("", "")).Empty() {
		t.Error("group of empty conditions must be empty")
	}
	if NewGroup(NewCondition("", ""), NewCondition("name", OpEq, "x")).Empty() {
		t.Error("group with one real condition is not empty")
	}
}

func TestExpression_Advanced(t *testing.T) {
	blank := New([]Group{NewGroup(NewCondition("", ""))}, "", "")
	if blank.Advanced() {
		t.Error("an all-blank expression is not advanced")
	}

	real := New([]Group{NewGroup(NewCondition("name", OpEq, "x"))}, "", "")
	if !real.Advanced() {
		t.Error("expected advanced expression")
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantCol string
		wantDsc bool
	}{
		{"empty", "", "updated_at", true},
		{"plain asc", "name asc", "name", false},
		{"plain desc", "created_at desc", "created_at", true},
		{"metadata key with spaces", "metadata.sample count desc", "metadata.sample count", true},
		{"no direction", "name", "updated_at", true},
		{"bad direction", "name sideways", "updated_at", true},
		{"case-insensitive direction", "name DESC", "name", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, desc := ParseSort(tt.raw, "updated_at", true)
			if col != tt.wantCol || desc != tt.wantDsc {
				t.Errorf("ParseSort(%q) = (%q, %v), want (%q, %v)",
					tt.raw, col, desc, tt.wantCol, tt.wantDsc)
			}
		})
	}
}
