// Package chi is the HTTP transport: routing, request decoding and the
// JSON error surface.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tracebase/findex/internal/domain"
	"github.com/tracebase/findex/internal/domain/advanced/expr"
	"github.com/tracebase/findex/internal/domain/federated/request"
	"github.com/tracebase/findex/internal/metrics"
	advanceduc "github.com/tracebase/findex/internal/usecase/advanced"
	federateduc "github.com/tracebase/findex/internal/usecase/federated"
)

// Error codes returned in the JSON error body.
const (
	codeBadRequest       = "bad_request"
	codeUnauthorized     = "unauthorized"
	codeTypeNotFound     = "type_not_found"
	codeValidationFailed = "validation_failed"
	codeInternalError    = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Pinger is a dependency the health endpoint probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the search services over HTTP.
type Server struct {
	advanced  *advanceduc.Service
	federated *federateduc.Service
	health    map[string]Pinger
	logger    *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(advanced *advanceduc.Service, federated *federateduc.Service, logger *zap.Logger) *Server {
	return &Server{
		advanced:  advanced,
		federated: federated,
		health:    map[string]Pinger{},
		logger:    logger,
	}
}

// WithHealthCheck registers a named dependency for the health endpoint.
func (s *Server) WithHealthCheck(name string, p Pinger) *Server {
	s.health[name] = p
	return s
}

// Routes mounts all endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.handleFederatedSearch)
		r.Post("/{type}/search", s.handleAdvancedSearch)
	})
}

// --- Advanced search ---

// conditionValue accepts either a JSON string or an array of strings.
type conditionValue []string

func (v *conditionValue) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "null" {
		*v = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var arr []string
		if err := json.Unmarshal(b, &arr); err != nil {
			return err
		}
		*v = arr
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*v = []string{s}
	return nil
}

type conditionBody struct {
	Field    string         `json:"field"`
	Operator string         `json:"operator"`
	Value    conditionValue `json:"value"`
}

type groupBody struct {
	Conditions []conditionBody `json:"conditions"`
}

type advancedSearchBody struct {
	SearchGroups []groupBody `json:"search_groups"`
	Sort         string      `json:"sort"`
	Query        string      `json:"query"`
	Scope        []string    `json:"scope"`
	Page         int         `json:"page"`
	PerPage      int         `json:"per_page"`
}

type issueBody struct {
	Group     int    `json:"group"`
	Condition int    `json:"condition"`
	Attribute string `json:"attribute"`
	Message   string `json:"message"`
}

type recordBody struct {
	ID            int64             `json:"id"`
	Identifier    string            `json:"identifier"`
	Name          string            `json:"name"`
	WorkflowState string            `json:"workflow_state,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type advancedSearchResponse struct {
	Records []recordBody `json:"records"`
	Page    int          `json:"page"`
	PerPage int          `json:"per_page"`
}

func (s *Server) handleAdvancedSearch(w http.ResponseWriter, r *http.Request) {
	recordType := chi.URLParam(r, "type")

	var body advancedSearchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	groups := make([]expr.Group, 0, len(body.SearchGroups))
	for _, g := range body.SearchGroups {
		conds := make([]expr.Condition, 0, len(g.Conditions))
		for _, c := range g.Conditions {
			conds = append(conds, expr.NewCondition(c.Field, expr.Operator(c.Operator), c.Value...))
		}
		groups = append(groups, expr.NewGroup(conds...))
	}
	e := expr.New(groups, body.Sort, body.Query, body.Scope...)

	records, validation, err := s.advanced.Search(r.Context(), recordType, e, body.Page, body.PerPage)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if !validation.Valid() {
		metrics.SearchValidationFailuresTotal.Inc()
		issues := validation.Issues()
		out := make([]issueBody, 0, len(issues))
		for _, i := range issues {
			out = append(out, issueBody{
				Group:     i.Group,
				Condition: i.Condition,
				Attribute: i.Attr,
				Message:   i.Message,
			})
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"code":   codeValidationFailed,
			"errors": out,
		})
		return
	}

	page, perPage := s.advanced.Pagination(body.Page, body.PerPage)
	resp := advancedSearchResponse{
		Records: make([]recordBody, 0, len(records)),
		Page:    page,
		PerPage: perPage,
	}
	for _, rec := range records {
		resp.Records = append(resp.Records, recordBody{
			ID:            rec.ID(),
			Identifier:    rec.Identifier(),
			Name:          rec.Name(),
			WorkflowState: rec.WorkflowState(),
			CreatedAt:     rec.CreatedAt(),
			UpdatedAt:     rec.UpdatedAt(),
			Metadata:      rec.Metadata(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Federated search ---

func (s *Server) handleFederatedSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := request.Params{
		Query:         q.Get("q"),
		Types:         splitParam(q["types"]),
		Sources:       splitParam(q["sources"]),
		Sort:          q.Get("sort"),
		WorkflowState: q.Get("workflow_state"),
		CreatedFrom:   q.Get("created_from"),
		CreatedTo:     q.Get("created_to"),
		PerTypeLimit:  intParam(q.Get("per_type_limit")),
		Limit:         intParam(q.Get("limit")),
		Suggest:       q.Get("suggest") == "true" || q.Get("suggest") == "1",
	}

	resp, err := s.federated.Search(r.Context(), request.New(params, s.federated.KnownTypes()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// splitParam accepts both repeated parameters and comma-separated lists.
func splitParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func intParam(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(s.health))
	for name, p := range s.health {
		if err := p.Ping(r.Context()); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	writeJSON(w, status, map[string]any{
		"status": http.StatusText(status),
		"checks": checks,
	})
}

// --- Helpers ---

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// Client went away; 499-style response, nobody reads it.
		writeError(w, http.StatusServiceUnavailable, codeInternalError, "request cancelled")
		return
	}
	if errors.Is(err, domain.ErrTypeNotFound) {
		writeError(w, http.StatusNotFound, codeTypeNotFound, domain.ErrTypeNotFound.Error())
		return
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}
