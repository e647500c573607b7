package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/tracebase/findex/internal/db/sqlite"
	"github.com/tracebase/findex/internal/domain/advanced/predicate"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store.DB()
}

type seed struct {
	recordType    string
	identifier    string
	name          any // nil inserts NULL
	workflowState string
	createdAt     string
	updatedAt     string
	metadata      map[string]string
}

func insert(t *testing.T, db *sql.DB, s seed) int64 {
	t.Helper()
	meta, err := json.Marshal(s.metadata)
	if err != nil {
		t.Fatalf("marshal metadata: %v", err)
	}
	if s.createdAt == "" {
		s.createdAt = "2024-01-01T00:00:00Z"
	}
	if s.updatedAt == "" {
		s.updatedAt = s.createdAt
	}
	res, err := db.Exec(
		`INSERT INTO records (record_type, identifier, name, workflow_state, created_at, updated_at, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.recordType, s.identifier, s.name, s.workflowState, s.createdAt, s.updatedAt, string(meta),
	)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func defaultSort() predicate.Sort {
	return predicate.Sort{Field: predicate.Field{Column: "updated_at"}, Desc: true}
}

func searchIdents(t *testing.T, repo *Repo, q predicate.Query) []string {
	t.Helper()
	recs, err := repo.Search(context.Background(), "sample", q, defaultSort(), "", nil, 1, 50)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Identifier()
	}
	return out
}

func TestSearch_ContainsMatchesWildcardsLiterally(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	insert(t, db, seed{recordType: "sample", identifier: "S-1", name: "progress 50% done"})
	insert(t, db, seed{recordType: "sample", identifier: "S-2", name: "progress 500 done"})

	got := searchIdents(t, repo, one(predicate.Predicate{
		Op: predicate.Contains, Field: predicate.Field{Column: "name"},
		Values: []string{"50%"}, Fold: true,
	}))
	if len(got) != 1 || got[0] != "S-1" {
		t.Errorf("literal %%: got %v", got)
	}
}

func TestSearch_FoldIsCaseInsensitive(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	insert(t, db, seed{recordType: "sample", identifier: "S-1", name: "Plasmid Prep", workflowState: "running"})

	got := searchIdents(t, repo, one(predicate.Predicate{
		Op: predicate.Eq, Field: predicate.Field{Column: "name"},
		Values: []string{"PLASMID prep"}, Fold: true,
	}))
	if len(got) != 1 {
		t.Errorf("folded equality: got %v", got)
	}

	// Without folding the same literal misses.
	got = searchIdents(t, repo, one(predicate.Predicate{
		Op: predicate.Eq, Field: predicate.Field{Column: "workflow_state"},
		Values: []string{"RUNNING"},
	}))
	if len(got) != 0 {
		t.Errorf("unfolded equality must be case-sensitive: got %v", got)
	}
}

func TestSearch_HostileMetadataKeyCannotWidenFilter(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	insert(t, db, seed{recordType: "sample", identifier: "S-1", name: "alpha"})
	insert(t, db, seed{recordType: "sample", identifier: "S-2", name: "beta"})

	// A key crafted to break out of the JSON path and smuggle a
	// tautology into the WHERE clause must match nothing.
	got := searchIdents(t, repo, one(predicate.Predicate{
		Op: predicate.Eq, Field: predicate.Field{MetaKey: `x"')) OR 1=1 OR lower(('x`},
		Values: []string{"nope"}, Fold: true,
	}))
	if len(got) != 0 {
		t.Errorf("hostile key widened the filter: got %v", got)
	}
}

func TestSearch_MetadataKeyWithQuotes(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	insert(t, db, seed{recordType: "sample", identifier: "S-1",
		metadata: map[string]string{`size "big"`: "yes"}})
	insert(t, db, seed{recordType: "sample", identifier: "S-2",
		metadata: map[string]string{"size": "yes"}})

	got := searchIdents(t, repo, one(predicate.Predicate{
		Op: predicate.Eq, Field: predicate.Field{MetaKey: `size "big"`},
		Values: []string{"yes"}, Fold: true,
	}))
	if len(got) != 1 || got[0] != "S-1" {
		t.Errorf("quoted key must address its own entry: got %v", got)
	}
}

func TestSearch_ExistenceIsNullCheck(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	insert(t, db, seed{recordType: "sample", identifier: "S-1", name: nil})
	insert(t, db, seed{recordType: "sample", identifier: "S-2", name: ""})
	insert(t, db, seed{recordType: "sample", identifier: "S-3", name: "x"})

	got := searchIdents(t, repo, one(predicate.Predicate{
		Op: predicate.Exists, Field: predicate.Field{Column: "name"},
	}))
	// An empty string is a present value; only NULL is absent.
	if len(got) != 2 {
		t.Errorf("exists: got %v", got)
	}

	got = searchIdents(t, repo, one(predicate.Predicate{
		Op: predicate.NotExists, Field: predicate.Field{Column: "name"},
	}))
	if len(got) != 1 || got[0] != "S-1" {
		t.Errorf("not_exists: got %v", got)
	}
}

func TestSearch_NegativeOperatorsMatchAbsent(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	insert(t, db, seed{recordType: "sample", identifier: "S-1", name: "alpha"})
	insert(t, db, seed{recordType: "sample", identifier: "S-2", name: nil})

	got := searchIdents(t, repo, one(predicate.Predicate{
		Op: predicate.NotEq, Field: predicate.Field{Column: "name"},
		Values: []string{"alpha"}, Fold: true,
	}))
	if len(got) != 1 || got[0] != "S-2" {
		t.Errorf("not_eq must include NULL names: got %v", got)
	}
}

func TestSearch_MetadataComparisonSkipsMalformedValues(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	insert(t, db, seed{recordType: "sample", identifier: "S-1",
		metadata: map[string]string{"read_count": "1200"}})
	insert(t, db, seed{recordType: "sample", identifier: "S-2",
		metadata: map[string]string{"read_count": "a lot"}})
	insert(t, db, seed{recordType: "sample", identifier: "S-3",
		metadata: map[string]string{"read_count": "90"}})

	got := searchIdents(t, repo, one(predicate.Predicate{
		Op: predicate.Gte, Field: predicate.Field{MetaKey: "read_count"},
		Values: []string{"100"}, Cast: predicate.CastNumber,
	}))
	// Numeric comparison, not lexicographic: 90 < 100 < 1200, and the
	// malformed value is excluded by the shape guard.
	if len(got) != 1 || got[0] != "S-1" {
		t.Errorf("numeric gte: got %v", got)
	}
}

func TestSearch_MetadataDateComparison(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	insert(t, db, seed{recordType: "sample", identifier: "S-1",
		metadata: map[string]string{"start_date": "2024-05-01"}})
	insert(t, db, seed{recordType: "sample", identifier: "S-2",
		metadata: map[string]string{"start_date": "yesterday"}})
	insert(t, db, seed{recordType: "sample", identifier: "S-3",
		metadata: map[string]string{"start_date": "2024-07-15"}})

	got := searchIdents(t, repo, one(predicate.Predicate{
		Op: predicate.Lte, Field: predicate.Field{MetaKey: "start_date"},
		Values: []string{"2024-06-30"}, Cast: predicate.CastDate,
	}))
	if len(got) != 1 || got[0] != "S-1" {
		t.Errorf("date lte: got %v", got)
	}
}

func TestSearch_GroupsAreOrs(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	insert(t, db, seed{recordType: "sample", identifier: "S-1", workflowState: "running"})
	insert(t, db, seed{recordType: "sample", identifier: "S-2", workflowState: "failed"})
	insert(t, db, seed{recordType: "sample", identifier: "S-3", workflowState: "completed"})

	q := predicate.Query{Groups: [][]predicate.Predicate{
		{{Op: predicate.Eq, Field: predicate.Field{Column: "workflow_state"}, Values: []string{"running"}}},
		{{Op: predicate.Eq, Field: predicate.Field{Column: "workflow_state"}, Values: []string{"failed"}}},
	}}
	got := searchIdents(t, repo, q)
	if len(got) != 2 {
		t.Errorf("or across groups: got %v", got)
	}
}

func TestSearch_TypeIsolationAndPagination(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	for i := 0; i < 5; i++ {
		insert(t, db, seed{recordType: "sample", identifier: "S",
			updatedAt: time.Date(2024, 6, 1+i, 0, 0, 0, 0, time.UTC).Format(time.RFC3339)})
	}
	insert(t, db, seed{recordType: "project", identifier: "P-1"})

	recs, err := repo.Search(context.Background(), "sample",
		predicate.Query{}, defaultSort(), "", nil, 2, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("page 2 of 5 with limit 2: got %d records", len(recs))
	}
	// Descending by updated_at: page 2 holds the 3rd and 4th newest.
	if !recs[0].UpdatedAt().After(recs[1].UpdatedAt()) {
		t.Errorf("sort order broken: %v then %v", recs[0].UpdatedAt(), recs[1].UpdatedAt())
	}
}

func TestSearch_ScopeRestrictsProjects(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	for _, project := range []int{11, 11, 42} {
		id := insert(t, db, seed{recordType: "sample", identifier: "S"})
		if _, err := db.Exec(`UPDATE records SET project_id = ? WHERE id = ?`, project, id); err != nil {
			t.Fatalf("set project: %v", err)
		}
	}

	recs, err := repo.Search(context.Background(), "sample",
		predicate.Query{}, defaultSort(), "", []string{"11"}, 1, 50)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("scoped search: got %d records", len(recs))
	}
}

func TestSearch_TermFallback(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	insert(t, db, seed{recordType: "sample", identifier: "QC-9", name: "other"})
	insert(t, db, seed{recordType: "sample", identifier: "S-1", name: "Plasmid QC"})
	insert(t, db, seed{recordType: "sample", identifier: "S-2", name: "unrelated"})

	recs, err := repo.Search(context.Background(), "sample",
		predicate.Query{}, defaultSort(), "qc", nil, 1, 50)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("term matches name or identifier, case-insensitively: got %d", len(recs))
	}
}

func TestWorkflowStates(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	insert(t, db, seed{recordType: "sample", identifier: "S-1", workflowState: "running"})
	insert(t, db, seed{recordType: "sample", identifier: "S-2", workflowState: "failed"})
	insert(t, db, seed{recordType: "sample", identifier: "S-3", workflowState: "running"})
	insert(t, db, seed{recordType: "sample", identifier: "S-4"})
	insert(t, db, seed{recordType: "project", identifier: "P-1", workflowState: "archived"})

	states, err := repo.WorkflowStates(context.Background(), "sample")
	if err != nil {
		t.Fatalf("workflow states: %v", err)
	}
	if len(states) != 2 || states[0] != "failed" || states[1] != "running" {
		t.Errorf("states = %v", states)
	}
}
