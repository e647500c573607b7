package advanced

import (
	"testing"

	"github.com/tracebase/findex/internal/domain/advanced/expr"
	"github.com/tracebase/findex/internal/domain/advanced/predicate"
)

func compileOne(t *testing.T, c expr.Condition) predicate.Predicate {
	t.Helper()
	cls, ok := testSchema(t).Classify(c.Field())
	if !ok {
		t.Fatalf("field %q did not classify", c.Field())
	}
	return compileCondition(c, cls)
}

func TestCompile_TypedEquality(t *testing.T) {
	p := compileOne(t, expr.NewCondition("workflow_state", expr.OpEq, "running"))
	if p.Op != predicate.Eq {
		t.Errorf("op = %q", p.Op)
	}
	if p.Field.Column != "workflow_state" || p.Field.IsMetadata() {
		t.Errorf("field = %+v", p.Field)
	}
	if p.Fold {
		t.Error("plain typed columns compare case-sensitively")
	}
}

func TestCompile_NameFolds(t *testing.T) {
	p := compileOne(t, expr.NewCondition("name", expr.OpEq, "Sample A"))
	if !p.Fold {
		t.Error("the name field compares case-insensitively")
	}
}

func TestCompile_MetadataFolds(t *testing.T) {
	p := compileOne(t, expr.NewCondition("metadata.instrument", expr.OpIn, "NovaSeq", "MiSeq"))
	if !p.Fold {
		t.Error("metadata fields compare case-insensitively")
	}
	if p.Field.MetaKey != "instrument" {
		t.Errorf("meta key = %q", p.Field.MetaKey)
	}
	if len(p.Values) != 2 {
		t.Errorf("values = %v", p.Values)
	}
}

func TestCompile_InDropsBlankEntries(t *testing.T) {
	p := compileOne(t, expr.NewCondition("metadata.instrument", expr.OpIn, "a", "", " ", "b"))
	if len(p.Values) != 2 || p.Values[0] != "a" || p.Values[1] != "b" {
		t.Errorf("blank set entries must be dropped, got %v", p.Values)
	}
}

func TestCompile_ExistenceDropsValue(t *testing.T) {
	p := compileOne(t, expr.NewCondition("name", expr.OpExists, "ignored"))
	if p.Op != predicate.Exists || len(p.Values) != 0 {
		t.Errorf("existence predicate carries no values: %+v", p)
	}
}

func TestCompile_IDCastToText(t *testing.T) {
	p := compileOne(t, expr.NewCondition("id", expr.OpContains, "42"))
	if !p.Field.CastText {
		t.Error("non-text typed columns cast to text before substring match")
	}
}

func TestCompile_MetadataComparisonCasts(t *testing.T) {
	num := compileOne(t, expr.NewCondition("metadata.read_count", expr.OpGte, "10"))
	if num.Cast != predicate.CastNumber {
		t.Errorf("numeric metadata comparison cast = %q", num.Cast)
	}

	date := compileOne(t, expr.NewCondition("metadata.start_date", expr.OpLte, "2024-06-30"))
	if date.Cast != predicate.CastDate {
		t.Errorf("date metadata comparison cast = %q", date.Cast)
	}

	typed := compileOne(t, expr.NewCondition("created_at", expr.OpGte, "2024-01-01"))
	if typed.Cast != predicate.CastNone {
		t.Errorf("typed columns compare directly, cast = %q", typed.Cast)
	}
}

func TestCompile_AliasNeverLeaks(t *testing.T) {
	p := compileOne(t, expr.NewCondition("metadata.workflow", expr.OpEq, "qc"))
	if p.Field.MetaKey != "workflow_name" {
		t.Errorf("alias must be applied before compilation, got %q", p.Field.MetaKey)
	}
}
