// Package advanced implements the advanced-search engine: expression
// validation, operator compilation and query assembly against a per-type
// field schema.
package advanced

import (
	"context"
	"fmt"

	"github.com/tracebase/findex/internal/domain"
	"github.com/tracebase/findex/internal/domain/advanced/expr"
	"github.com/tracebase/findex/internal/domain/record"
	"github.com/tracebase/findex/internal/domain/schema"
)

// Pagination defaults.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Service validates and compiles advanced search expressions and runs
// them against the records store. Stateless between requests.
type Service struct {
	records         Records
	schemas         map[string]*schema.Schema
	defaultPageSize int
	maxPageSize     int
}

// New creates an advanced search service. schemas maps each record type
// to its field schema; searching an unlisted type is ErrTypeNotFound.
func New(records Records, schemas map[string]*schema.Schema) *Service {
	return &Service{
		records:         records,
		schemas:         schemas,
		defaultPageSize: DefaultPageSize,
		maxPageSize:     MaxPageSize,
	}
}

// WithPagination overrides the page size defaults.
func (s *Service) WithPagination(defaultSize, maxSize int) *Service {
	if defaultSize > 0 {
		s.defaultPageSize = defaultSize
	}
	if maxSize > 0 {
		s.maxPageSize = maxSize
	}
	return s
}

// Pagination returns the effective page and page size after defaults and
// clamping, for echoing back to the caller.
func (s *Service) Pagination(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}
	return page, limit
}

// Validate checks an expression against the record type's schema without
// executing anything.
func (s *Service) Validate(recordType string, e expr.Expression) (*Validation, error) {
	sch, ok := s.schemas[recordType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrTypeNotFound, recordType)
	}
	return NewValidator(sch).Validate(e), nil
}

// Search validates, compiles and executes an expression. When the
// expression is invalid the accumulated Validation is returned with no
// results and no error: invalid user input is expected, not exceptional.
func (s *Service) Search(
	ctx context.Context, recordType string, e expr.Expression, page, limit int,
) ([]record.Record, *Validation, error) {
	sch, ok := s.schemas[recordType]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", domain.ErrTypeNotFound, recordType)
	}

	val := NewValidator(sch).Validate(e)
	if !val.Valid() {
		return nil, val, nil
	}

	page, limit = s.Pagination(page, limit)

	q := Assemble(e, sch)
	sort := SortSpec(e, sch)

	// The free-text fallback only applies when no advanced filter
	// compiled; a degenerate expression behaves like plain filtering.
	term := ""
	if q.Empty() {
		term = e.Term()
	}

	recs, err := s.records.Search(ctx, recordType, q, sort, term, e.Scope(), page, limit)
	if err != nil {
		return nil, val, fmt.Errorf("search %s records: %w", recordType, err)
	}
	return recs, val, nil
}
