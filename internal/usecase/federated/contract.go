package federated

import (
	"context"
	"time"

	"github.com/tracebase/findex/internal/domain/federated/request"
	"github.com/tracebase/findex/internal/domain/federated/result"
)

// Provider is one entity type's search adapter. Providers are
// independent and permission-aware; the orchestrator only ever sees the
// normalized Result they return.
type Provider interface {
	Search(
		ctx context.Context, query string, sources []string,
		filters request.Filters, limit int,
	) ([]result.Result, error)
}

// Cache stores serialized responses for repeated queries.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
