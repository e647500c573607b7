// Package provider implements the per-type federated search adapters
// over the records table. Each provider returns ranked, normalized hits;
// rank is a score bucket where lower is better.
package provider

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tracebase/findex/internal/domain/federated/request"
	"github.com/tracebase/findex/internal/domain/federated/result"
)

// Score buckets. Exact hits outrank prefix hits outrank substring hits,
// and identifier matches outrank name matches at the same tier.
const (
	bucketIdentifierExact  = 0
	bucketNameExact        = 1
	bucketIdentifierPrefix = 2
	bucketNamePrefix       = 3
	bucketNameSubstring    = 4
	bucketMetadata         = 5
)

// SQL searches one entity type in the records table.
type SQL struct {
	db       *sql.DB
	typeName string
	urlPath  string
}

// NewSQL creates a provider for typeName. urlPath is the path prefix
// record URLs are built from, for example "/samples".
func NewSQL(db *sql.DB, typeName, urlPath string) *SQL {
	return &SQL{db: db, typeName: typeName, urlPath: urlPath}
}

// Search returns up to limit records of this provider's type matching
// query through any of the enabled sources, best bucket first.
func (p *SQL) Search(
	ctx context.Context, query string, sources []string,
	filters request.Filters, limit int,
) ([]result.Result, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, nil
	}
	prefix := escapeLike(needle) + "%"
	substring := "%" + escapeLike(needle) + "%"

	enabled := map[string]bool{}
	for _, s := range sources {
		enabled[s] = true
	}

	// The bucket CASE and the match arms are built from the enabled
	// sources so a disabled source can neither admit nor rank a row.
	var caseArms []string
	var caseArgs []any
	var matchArms []string
	var matchArgs []any
	if enabled[request.SourceIdentifier] {
		caseArms = append(caseArms,
			fmt.Sprintf("WHEN lower(identifier) = ? THEN %d", bucketIdentifierExact))
		caseArgs = append(caseArgs, needle)
		matchArms = append(matchArms, `lower(identifier) LIKE ? ESCAPE '\'`)
		matchArgs = append(matchArgs, prefix)
	}
	if enabled[request.SourceName] {
		caseArms = append(caseArms,
			fmt.Sprintf("WHEN lower(name) = ? THEN %d", bucketNameExact))
		caseArgs = append(caseArgs, needle)
	}
	if enabled[request.SourceIdentifier] {
		caseArms = append(caseArms,
			fmt.Sprintf(`WHEN lower(identifier) LIKE ? ESCAPE '\' THEN %d`, bucketIdentifierPrefix))
		caseArgs = append(caseArgs, prefix)
	}
	if enabled[request.SourceName] {
		caseArms = append(caseArms,
			fmt.Sprintf(`WHEN lower(name) LIKE ? ESCAPE '\' THEN %d`, bucketNamePrefix),
			fmt.Sprintf(`WHEN lower(name) LIKE ? ESCAPE '\' THEN %d`, bucketNameSubstring))
		caseArgs = append(caseArgs, prefix, substring)
		matchArms = append(matchArms, `lower(name) LIKE ? ESCAPE '\'`)
		matchArgs = append(matchArgs, substring)
	}
	if enabled[request.SourceMetadata] {
		matchArms = append(matchArms, `lower(metadata) LIKE ? ESCAPE '\'`)
		matchArgs = append(matchArgs, substring)
	}
	if len(matchArms) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, identifier, name, updated_at, project_id, project_name,
		CASE `)
	sb.WriteString(strings.Join(caseArms, " "))
	if len(caseArms) == 0 {
		sb.WriteString(fmt.Sprintf("WHEN 1 THEN %d ", bucketMetadata))
	}
	sb.WriteString(fmt.Sprintf(" ELSE %d END AS bucket,", bucketMetadata))
	sb.WriteString(`
		lower(identifier) LIKE ? ESCAPE '\' AS m_identifier,
		lower(coalesce(name, '')) LIKE ? ESCAPE '\' AS m_name,
		lower(metadata) LIKE ? ESCAPE '\' AS m_metadata
		FROM records WHERE record_type = ? AND (`)
	sb.WriteString(strings.Join(matchArms, " OR "))
	sb.WriteString(")")

	args := append(caseArgs, prefix, substring, substring, p.typeName)
	args = append(args, matchArgs...)

	if ws := filters.WorkflowState(); ws != "" {
		sb.WriteString(" AND workflow_state = ?")
		args = append(args, ws)
	}
	if from := filters.CreatedFrom(); from != nil {
		sb.WriteString(" AND substr(created_at, 1, 10) >= ?")
		args = append(args, from.Format(request.DateFormat))
	}
	if to := filters.CreatedTo(); to != nil {
		sb.WriteString(" AND substr(created_at, 1, 10) <= ?")
		args = append(args, to.Format(request.DateFormat))
	}

	sb.WriteString(" ORDER BY bucket ASC, updated_at DESC, id ASC LIMIT ?")
	args = append(args, limit)

	rows, err := p.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%s provider: %w", p.typeName, err)
	}
	defer rows.Close()

	var out []result.Result
	for rows.Next() {
		r, err := p.scanHit(rows, enabled)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s provider: %w", p.typeName, err)
	}
	return out, nil
}

func (p *SQL) scanHit(rows *sql.Rows, enabled map[string]bool) (result.Result, error) {
	var (
		id                        int64
		identifier                string
		name, projectName         sql.NullString
		updatedAt                 string
		projectID                 sql.NullInt64
		bucket                    int
		mIdentifier, mName, mMeta bool
	)
	if err := rows.Scan(&id, &identifier, &name, &updatedAt, &projectID,
		&projectName, &bucket, &mIdentifier, &mName, &mMeta); err != nil {
		return result.Result{}, fmt.Errorf("%s provider scan: %w", p.typeName, err)
	}

	updated, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return result.Result{}, fmt.Errorf("%s provider record %d updated_at: %w", p.typeName, id, err)
	}

	var tags []string
	if mIdentifier && enabled[request.SourceIdentifier] {
		tags = append(tags, request.SourceIdentifier)
	}
	if mName && enabled[request.SourceName] {
		tags = append(tags, request.SourceName)
	}
	if mMeta && enabled[request.SourceMetadata] {
		tags = append(tags, request.SourceMetadata)
	}

	title := name.String
	if title == "" {
		title = identifier
	}
	r := result.New(
		p.typeName, id, title, identifier,
		fmt.Sprintf("%s/%d", p.urlPath, id),
		tags, bucket, updated,
	)
	if projectName.Valid && projectName.String != "" && projectID.Valid {
		r = r.WithContext(projectName.String, fmt.Sprintf("/projects/%d", projectID.Int64))
	}
	return r, nil
}

func escapeLike(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(v)
}
