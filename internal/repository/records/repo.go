// Package records is the SQLite adapter behind advanced search. It
// translates compiled filter queries into parameterized SQL.
package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tracebase/findex/internal/domain/advanced/predicate"
	"github.com/tracebase/findex/internal/domain/record"
)

const selectColumns = "id, record_type, identifier, name, workflow_state, created_at, updated_at, metadata"

// Repo queries the records table.
type Repo struct {
	db *sql.DB
}

// NewRepo creates a records repository over the given pool.
func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// Search returns one page of records of recordType matching the compiled
// query. When the query is empty and term is not, term falls back to a
// case-insensitive substring match on name and identifier. A non-empty
// scope restricts results to the named projects.
func (r *Repo) Search(
	ctx context.Context, recordType string,
	q predicate.Query, sort predicate.Sort,
	term string, scope []string, page, limit int,
) ([]record.Record, error) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(selectColumns)
	sb.WriteString(" FROM records WHERE record_type = ?")
	args := []any{recordType}

	if len(scope) > 0 {
		sb.WriteString(" AND project_id IN (")
		sb.WriteString(placeholders(len(scope)))
		sb.WriteString(")")
		for _, id := range scope {
			args = append(args, id)
		}
	}

	if where, whereArgs := buildWhere(q); where != "" {
		sb.WriteString(" AND ")
		sb.WriteString(where)
		args = append(args, whereArgs...)
	} else if term != "" {
		sb.WriteString(` AND (lower(name) LIKE ? ESCAPE '\' OR lower(identifier) LIKE ? ESCAPE '\')`)
		needle := pattern(strings.ToLower(term))
		args = append(args, needle, needle)
	}

	orderBy, orderArgs := buildOrderBy(sort)
	sb.WriteString(" ")
	sb.WriteString(orderBy)
	args = append(args, orderArgs...)

	sb.WriteString(" LIMIT ? OFFSET ?")
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search %s records: %w", recordType, err)
	}
	defer rows.Close()

	var out []record.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search %s records: %w", recordType, err)
	}
	return out, nil
}

// WorkflowStates returns the distinct workflow states present for
// recordType, for building the runtime enum catalog.
func (r *Repo) WorkflowStates(ctx context.Context, recordType string) ([]string, error) {
	const q = `SELECT DISTINCT workflow_state FROM records
		WHERE record_type = ? AND workflow_state IS NOT NULL AND workflow_state != ''
		ORDER BY workflow_state`
	rows, err := r.db.QueryContext(ctx, q, recordType)
	if err != nil {
		return nil, fmt.Errorf("list %s workflow states: %w", recordType, err)
	}
	defer rows.Close()

	var states []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan workflow state: %w", err)
		}
		states = append(states, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s workflow states: %w", recordType, err)
	}
	return states, nil
}

func scanRecord(rows *sql.Rows) (record.Record, error) {
	var (
		id                   int64
		recordType, ident    string
		name, workflowState  sql.NullString
		createdAt, updatedAt string
		rawMetadata          string
	)
	if err := rows.Scan(&id, &recordType, &ident, &name, &workflowState,
		&createdAt, &updatedAt, &rawMetadata); err != nil {
		return record.Record{}, fmt.Errorf("scan record: %w", err)
	}

	created, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return record.Record{}, fmt.Errorf("record %d created_at: %w", id, err)
	}
	updated, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return record.Record{}, fmt.Errorf("record %d updated_at: %w", id, err)
	}

	metadata := map[string]string{}
	if rawMetadata != "" {
		if err := json.Unmarshal([]byte(rawMetadata), &metadata); err != nil {
			return record.Record{}, fmt.Errorf("record %d metadata: %w", id, err)
		}
	}

	return record.Reconstruct(
		id, recordType, ident, name.String, workflowState.String,
		created, updated, metadata,
	), nil
}
