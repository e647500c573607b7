package advanced

import (
	"context"

	"github.com/tracebase/findex/internal/domain/advanced/predicate"
	"github.com/tracebase/findex/internal/domain/record"
)

// Records defines the storage contract for executing assembled queries.
// The store owns execution, pagination and metadata-JSON sort-key
// extraction; the usecase only hands it the predicate tree. scope
// restricts results to the given project identifiers; empty means no
// restriction.
type Records interface {
	Search(
		ctx context.Context, recordType string,
		q predicate.Query, sort predicate.Sort,
		term string, scope []string, page, limit int,
	) ([]record.Record, error)
}
