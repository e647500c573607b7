package federated

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tracebase/findex/internal/domain/federated/request"
	"github.com/tracebase/findex/internal/domain/federated/result"
	"github.com/tracebase/findex/internal/logger"
	"github.com/tracebase/findex/internal/metrics"
)

// Service fans a federated search out to one provider per entity type,
// merges what comes back, and sorts the merged list. A provider failure
// degrades the response instead of failing it: the type is dropped from
// the results and reported in meta.degraded.
type Service struct {
	providers map[string]Provider
	typeOrder []string

	cache    Cache
	cacheTTL time.Duration
}

// New creates the orchestrator. typeOrder fixes the canonical type order
// used for defaulting, degraded reporting, and tie-breaks; every entry
// must have a provider.
func New(providers map[string]Provider, typeOrder []string) (*Service, error) {
	for _, t := range typeOrder {
		if _, ok := providers[t]; !ok {
			return nil, fmt.Errorf("no provider for type %q", t)
		}
	}
	return &Service{providers: providers, typeOrder: typeOrder}, nil
}

// WithCache enables response caching for suggest-mode requests.
func (s *Service) WithCache(c Cache, ttl time.Duration) *Service {
	s.cache = c
	s.cacheTTL = ttl
	return s
}

// KnownTypes returns the canonical type order for request normalization.
func (s *Service) KnownTypes() []string {
	return append([]string(nil), s.typeOrder...)
}

// Search runs the federated query described by req. The only error it
// returns is context cancellation; provider failures degrade the
// response instead.
func (s *Service) Search(ctx context.Context, req request.Request) (Response, error) {
	resp := Response{
		Query:   req.Query(),
		Meta:    buildMeta(req),
		Results: []Item{},
	}
	if req.Query() == "" {
		// Nothing to search for. No provider is consulted.
		return resp, nil
	}

	key := cacheKey(req)
	if cached, ok := s.cacheLookup(ctx, req, key); ok {
		return cached, nil
	}

	merged, degraded, err := s.fanOut(ctx, req)
	if err != nil {
		return Response{}, err
	}

	sorted := sortResults(merged, req.Mode(), len(req.Types()) > 1)
	if len(sorted) > req.Limit() {
		sorted = sorted[:req.Limit()]
	}
	for _, r := range sorted {
		resp.Results = append(resp.Results, itemFromResult(r))
	}
	resp.Meta.Degraded = degraded

	s.cacheStore(ctx, req, key, resp)
	return resp, nil
}

type providerReply struct {
	typeName string
	results  []result.Result
	err      error
}

// fanOut queries every selected provider in parallel and collects the
// replies. Failed types come back in degraded, sorted canonically.
func (s *Service) fanOut(ctx context.Context, req request.Request) ([]result.Result, []string, error) {
	replies := make(chan providerReply, len(req.Types()))
	for _, typeName := range req.Types() {
		go func(typeName string, p Provider) {
			start := time.Now()
			results, err := p.Search(
				ctx, req.Query(), req.Sources(), req.Filters(), req.PerTypeLimit(),
			)
			metrics.SearchProviderDuration.
				WithLabelValues(typeName).
				Observe(time.Since(start).Seconds())
			replies <- providerReply{typeName: typeName, results: results, err: err}
		}(typeName, s.providers[typeName])
	}

	var merged []result.Result
	var degraded []string
	for range req.Types() {
		rep := <-replies
		if rep.err != nil {
			if ctx.Err() != nil {
				// The caller went away; drop the partial work.
				return nil, nil, ctx.Err()
			}
			logger.FromContext(ctx).Warn("search provider failed",
				zap.String("type", rep.typeName),
				zap.Error(rep.err))
			metrics.SearchDegradedTotal.WithLabelValues(rep.typeName).Inc()
			degraded = append(degraded, rep.typeName)
			continue
		}
		merged = append(merged, rep.results...)
	}
	sort.Strings(degraded)
	return merged, degraded, nil
}

func (s *Service) cacheLookup(ctx context.Context, req request.Request, key string) (Response, bool) {
	if s.cache == nil || !req.Suggest() {
		return Response{}, false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil || len(raw) == 0 {
		metrics.SearchCacheTotal.WithLabelValues("miss").Inc()
		return Response{}, false
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		metrics.SearchCacheTotal.WithLabelValues("miss").Inc()
		return Response{}, false
	}
	metrics.SearchCacheTotal.WithLabelValues("hit").Inc()
	return resp, true
}

func (s *Service) cacheStore(ctx context.Context, req request.Request, key string, resp Response) {
	if s.cache == nil || !req.Suggest() || len(resp.Meta.Degraded) > 0 {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.cache.SetWithTTL(ctx, key, raw, s.cacheTTL); err != nil {
		logger.FromContext(ctx).Debug("search cache write failed", zap.Error(err))
	}
}

// cacheKey derives a stable key from the normalized request. Two raw
// requests normalizing to the same parameters share an entry.
func cacheKey(req request.Request) string {
	var b strings.Builder
	b.WriteString(req.Query())
	b.WriteByte('\n')
	b.WriteString(strings.Join(req.Types(), ","))
	b.WriteByte('\n')
	b.WriteString(strings.Join(req.Sources(), ","))
	b.WriteByte('\n')
	b.WriteString(string(req.Mode()))
	b.WriteByte('\n')
	b.WriteString(req.Filters().WorkflowState())
	b.WriteByte('\n')
	if f := req.Filters().CreatedFrom(); f != nil {
		b.WriteString(f.Format(request.DateFormat))
	}
	b.WriteByte('\n')
	if to := req.Filters().CreatedTo(); to != nil {
		b.WriteString(to.Format(request.DateFormat))
	}
	b.WriteByte('\n')
	b.WriteString(strconv.Itoa(req.PerTypeLimit()))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(req.Limit()))

	sum := sha256.Sum256([]byte(b.String()))
	return "search:" + hex.EncodeToString(sum[:16])
}
