package advanced

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tracebase/findex/internal/domain"
	"github.com/tracebase/findex/internal/domain/advanced/expr"
	"github.com/tracebase/findex/internal/domain/advanced/predicate"
	"github.com/tracebase/findex/internal/domain/record"
	"github.com/tracebase/findex/internal/domain/schema"
)

// --- Mocks ---

type mockRecords struct {
	results   []record.Record
	err       error
	called    bool
	lastQuery predicate.Query
	lastSort  predicate.Sort
	lastTerm  string
	lastScope []string
	lastPage  int
	lastLimit int
}

func (m *mockRecords) Search(
	_ context.Context, _ string,
	q predicate.Query, sort predicate.Sort,
	term string, scope []string, page, limit int,
) ([]record.Record, error) {
	m.called = true
	m.lastQuery = q
	m.lastSort = sort
	m.lastTerm = term
	m.lastScope = scope
	m.lastPage = page
	m.lastLimit = limit
	return m.results, m.err
}

func newService(t *testing.T, repo Records) *Service {
	t.Helper()
	return New(repo, map[string]*schema.Schema{"sample": testSchema(t)})
}

// --- Tests ---

func TestSearch_UnknownType(t *testing.T) {
	svc := newService(t, &mockRecords{})
	_, _, err := svc.Search(context.Background(), "gadget", expr.Expression{}, 1, 20)
	if !errors.Is(err, domain.ErrTypeNotFound) {
		t.Errorf("expected ErrTypeNotFound, got %v", err)
	}
}

func TestSearch_InvalidExpressionDoesNotHitStore(t *testing.T) {
	repo := &mockRecords{}
	svc := newService(t, repo)

	e := expr.New([]expr.Group{
		expr.NewGroup(expr.NewCondition("bogus", expr.OpEq, "x")),
	}, "", "")
	recs, val, err := svc.Search(context.Background(), "sample", e, 1, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val.Valid() {
		t.Fatal("expected validation errors")
	}
	if recs != nil || repo.called {
		t.Error("invalid expressions never reach the store")
	}
}

func TestSearch_ValidExpression(t *testing.T) {
	rec := record.Reconstruct(1, "sample", "S-1", "Sample A", "running",
		time.Now(), time.Now(), nil)
	repo := &mockRecords{results: []record.Record{rec}}
	svc := newService(t, repo)

	e := expr.New([]expr.Group{
		expr.NewGroup(expr.NewCondition("name", expr.OpEq, "Sample A")),
	}, "name asc", "")
	recs, val, err := svc.Search(context.Background(), "sample", e, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !val.Valid() {
		t.Fatalf("unexpected validation errors: %v", val.Issues())
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if repo.lastQuery.Empty() {
		t.Error("expected a compiled filter")
	}
	if repo.lastPage != 1 || repo.lastLimit != DefaultPageSize {
		t.Errorf("pagination defaults: page=%d limit=%d", repo.lastPage, repo.lastLimit)
	}
	if repo.lastSort.Field.Column != "name" || repo.lastSort.Desc {
		t.Errorf("sort = %+v", repo.lastSort)
	}
}

func TestSearch_LimitClamped(t *testing.T) {
	repo := &mockRecords{}
	svc := newService(t, repo)

	e := expr.New([]expr.Group{
		expr.NewGroup(expr.NewCondition("name", expr.OpEq, "a")),
	}, "", "")
	if _, _, err := svc.Search(context.Background(), "sample", e, 1, 10_000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastLimit != MaxPageSize {
		t.Errorf("limit not clamped: %d", repo.lastLimit)
	}
}

func TestSearch_DegenerateExpressionFallsBackToTerm(t *testing.T) {
	repo := &mockRecords{}
	svc := newService(t, repo)

	e := expr.New([]expr.Group{
		expr.NewGroup(expr.NewCondition("", "")),
	}, "", "plasmid")
	if _, _, err := svc.Search(context.Background(), "sample", e, 1, 20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !repo.lastQuery.Empty() {
		t.Error("degenerate expression compiles to identity")
	}
	if repo.lastTerm != "plasmid" {
		t.Errorf("free-text fallback not forwarded: %q", repo.lastTerm)
	}
}

func TestSearch_ScopeForwarded(t *testing.T) {
	repo := &mockRecords{}
	svc := newService(t, repo)

	e := expr.New([]expr.Group{
		expr.NewGroup(expr.NewCondition("name", expr.OpEq, "a")),
	}, "", "", "17", "23")
	if _, _, err := svc.Search(context.Background(), "sample", e, 1, 20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.lastScope) != 2 || repo.lastScope[0] != "17" {
		t.Errorf("scope = %v", repo.lastScope)
	}
}

func TestSearch_StoreError(t *testing.T) {
	repo := &mockRecords{err: errors.New("disk on fire")}
	svc := newService(t, repo)

	e := expr.New([]expr.Group{
		expr.NewGroup(expr.NewCondition("name", expr.OpEq, "a")),
	}, "", "")
	_, _, err := svc.Search(context.Background(), "sample", e, 1, 20)
	if err == nil {
		t.Fatal("expected store error to propagate")
	}
}
