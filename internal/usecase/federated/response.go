package federated

import (
	"time"

	"github.com/oapi-codegen/runtime/types"

	"github.com/tracebase/findex/internal/domain/federated/request"
	"github.com/tracebase/findex/internal/domain/federated/result"
)

// Response is the serializable federated search result.
type Response struct {
	Query   string `json:"query"`
	Meta    Meta   `json:"meta"`
	Results []Item `json:"results"`
}

// Meta echoes the effective parameters, computed defaults included, so a
// client can see exactly what was applied.
type Meta struct {
	Types         []string    `json:"types"`
	MatchSources  []string    `json:"match_sources"`
	Sort          string      `json:"sort"`
	WorkflowState string      `json:"workflow_state,omitempty"`
	CreatedFrom   *types.Date `json:"created_from,omitempty"`
	CreatedTo     *types.Date `json:"created_to,omitempty"`
	PerTypeLimit  int         `json:"per_type_limit"`
	Limit         int         `json:"limit"`
	Suggest       bool        `json:"suggest"`
	// Degraded lists types whose provider failed; their results are
	// missing from this response rather than the whole request failing.
	Degraded []string `json:"degraded,omitempty"`
}

// Item is one serialized hit.
type Item struct {
	Type         string    `json:"type"`
	RecordID     int64     `json:"record_id"`
	Title        string    `json:"title"`
	Subtitle     string    `json:"subtitle,omitempty"`
	URL          string    `json:"url"`
	MatchTags    []string  `json:"match_tags"`
	ScoreBucket  int       `json:"score_bucket"`
	UpdatedAt    time.Time `json:"updated_at"`
	ContextLabel string    `json:"context_label,omitempty"`
	ContextURL   string    `json:"context_url,omitempty"`
}

func buildMeta(req request.Request) Meta {
	m := Meta{
		Types:         req.Types(),
		MatchSources:  req.Sources(),
		Sort:          string(req.Mode()),
		WorkflowState: req.Filters().WorkflowState(),
		PerTypeLimit:  req.PerTypeLimit(),
		Limit:         req.Limit(),
		Suggest:       req.Suggest(),
	}
	if f := req.Filters().CreatedFrom(); f != nil {
		m.CreatedFrom = &types.Date{Time: *f}
	}
	if to := req.Filters().CreatedTo(); to != nil {
		m.CreatedTo = &types.Date{Time: *to}
	}
	return m
}

func itemFromResult(r result.Result) Item {
	return Item{
		Type:         r.Type(),
		RecordID:     r.RecordID(),
		Title:        r.Title(),
		Subtitle:     r.Subtitle(),
		URL:          r.URL(),
		MatchTags:    r.MatchTags(),
		ScoreBucket:  r.ScoreBucket(),
		UpdatedAt:    r.UpdatedAt(),
		ContextLabel: r.ContextLabel(),
		ContextURL:   r.ContextURL(),
	}
}
