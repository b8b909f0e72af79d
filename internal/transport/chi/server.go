package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/chartbeat-labs/capitolwords/internal/domain"
	"github.com/chartbeat-labs/capitolwords/internal/domain/query"
	healthuc "github.com/chartbeat-labs/capitolwords/internal/usecase/health"
	monitoruc "github.com/chartbeat-labs/capitolwords/internal/usecase/monitor"
	searchuc "github.com/chartbeat-labs/capitolwords/internal/usecase/search"
)

// HealthChecker reports component health for the healthz endpoint.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Error codes returned in JSON error bodies.
const (
	CodeBadRequest       = "bad_request"
	CodeSpeakerNotFound  = "speaker_not_found"
	CodeDocumentNotFound = "document_not_found"
	CodeTopicNotFound    = "topic_not_found"
	CodeSearchFailed     = "search_failed"
	CodeScanInterrupted  = "scan_interrupted"
	CodeInternalError    = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes record search and topic monitoring over HTTP.
type Server struct {
	search        *searchuc.Service
	monitor       *monitoruc.Service
	health        HealthChecker
	maxLimit      int
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	monitor *monitoruc.Service,
	health HealthChecker,
	maxLimit int,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:   search,
		monitor:  monitor,
		health:   health,
		maxLimit: maxLimit,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrSpeakerNotFound, http.StatusNotFound, CodeSpeakerNotFound),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, CodeDocumentNotFound),
		sentinelHandler(domain.ErrTopicNotFound, http.StatusNotFound, CodeTopicNotFound),
		sentinelHandler(domain.ErrScanInterrupted, http.StatusBadGateway, CodeScanInterrupted),
		sentinelHandler(domain.ErrSearchFailed, http.StatusBadGateway, CodeSearchFailed),
	}
	return s
}

// Routes mounts all API handlers on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Get("/search/multi", s.SearchMulti)
	r.Get("/search/speaker/{name}", s.SearchSpeaker)
	r.Get("/search/title/{title}", s.SearchTitle)
	r.Get("/documents/{id}", s.GetDocument)

	r.Post("/topics/{name}/run", s.RunTopic)
	r.Get("/topics/{name}/results", s.TopicResults)
}

// hitResponse is one search hit in the JSON response.
type hitResponse struct {
	DocumentID string   `json:"document_id"`
	Title      string   `json:"title,omitempty"`
	DateIssued string   `json:"date_issued,omitempty"`
	Speakers   []string `json:"speakers,omitempty"`
	Score      float64  `json:"score"`
	Fragment   string   `json:"fragment,omitempty"`
}

// searchResponse is the JSON body for search endpoints.
type searchResponse struct {
	Total int           `json:"total"`
	Hits  []hitResponse `json:"hits"`
}

// SearchMulti handles GET /search/multi. Every recognized query parameter is
// optional; all supplied filters must match. The entity parameter repeats.
func (s *Server) SearchMulti(w http.ResponseWriter, r *http.Request) {
	req, err := searchRequestFromParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if req.Limit > s.maxLimit {
		req.Limit = s.maxLimit
	}

	rs, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resultSetToResponse(rs))
}

// SearchSpeaker handles GET /search/speaker/{name}.
func (s *Server) SearchSpeaker(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "speaker name is required")
		return
	}

	rs, err := s.search.SearchSpeaker(r.Context(), name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resultSetToResponse(rs))
}

// SearchTitle handles GET /search/title/{title}.
func (s *Server) SearchTitle(w http.ResponseWriter, r *http.Request) {
	title := chi.URLParam(r, "title")
	if title == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "title is required")
		return
	}

	rs, err := s.search.SearchTitle(r.Context(), title)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resultSetToResponse(rs))
}

// documentResponse is the JSON body for a direct document read.
type documentResponse struct {
	ID            string   `json:"id"`
	Title         string   `json:"title,omitempty"`
	Content       string   `json:"content,omitempty"`
	Speakers      []string `json:"speakers,omitempty"`
	NamedEntities []string `json:"named_entities,omitempty"`
	DateIssued    string   `json:"date_issued,omitempty"`
}

// GetDocument handles GET /documents/{id}: one stored document with its
// full content, not just the search-hit projection.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "document id is required")
		return
	}

	d, err := s.search.Document(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := documentResponse{
		ID:            d.ID,
		Title:         d.Title,
		Content:       d.Content,
		Speakers:      d.Speakers,
		NamedEntities: d.NamedEntities,
	}
	if !d.DateIssued.IsZero() {
		resp.DateIssued = d.DateIssued.UTC().Format("2006-01-02")
	}
	writeJSON(w, http.StatusOK, resp)
}

// runResponse is the JSON body for a topic run.
type runResponse struct {
	Topic      string `json:"topic"`
	Hits       int    `json:"hits"`
	Inserted   int    `json:"inserted"`
	Duplicates int    `json:"duplicates"`
	Unresolved int    `json:"unresolved_speakers"`
	NoSpeakers int    `json:"hits_without_speakers"`
}

// RunTopic handles POST /topics/{name}/run. The date parameter selects the
// window start (defaults to today), days its length in days forward.
func (s *Server) RunTopic(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	start := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "date must be YYYY-MM-DD")
			return
		}
		start = d
	}

	days := 1
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "days must be a positive integer")
			return
		}
		days = n
	}

	rep, err := s.monitor.RunByName(r.Context(), name, start, days)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, runResponse{
		Topic:      rep.Topic,
		Hits:       rep.Hits,
		Inserted:   rep.Inserted,
		Duplicates: rep.Duplicates,
		Unresolved: rep.Unresolved,
		NoSpeakers: rep.NoSpeakers,
	})
}

// foundResultResponse is one persisted result in the JSON response.
type foundResultResponse struct {
	TopicID       int64   `json:"topic_id"`
	SpeakerID     int64   `json:"speaker_id"`
	DocumentID    string  `json:"document_id"`
	DocumentDate  string  `json:"document_date"`
	DocumentTitle string  `json:"document_title,omitempty"`
	Fragment      string  `json:"fragment,omitempty"`
	Score         float64 `json:"score"`
}

// TopicResults handles GET /topics/{name}/results.
func (s *Server) TopicResults(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	frs, err := s.monitor.ResultsFor(r.Context(), name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]foundResultResponse, len(frs))
	for i, fr := range frs {
		items[i] = foundResultResponse{
			TopicID:       fr.TopicID,
			SpeakerID:     fr.SpeakerID,
			DocumentID:    fr.DocumentID,
			DocumentDate:  fr.DocumentDate.UTC().Format("2006-01-02"),
			DocumentTitle: fr.DocumentTitle,
			Fragment:      fr.Fragment,
			Score:         fr.Score,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": items})
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	rep := s.health.Check(r.Context())

	status := http.StatusOK
	if rep.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status": rep.Status,
		"checks": rep.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// searchRequestFromParams assembles the search request from URL query
// parameters. Filter order is stable: title, speaker, content, then each
// entity in the order supplied.
func searchRequestFromParams(r *http.Request) (searchuc.Request, error) {
	q := r.URL.Query()
	var req searchuc.Request

	if v := q.Get("title"); v != "" {
		req.Filters = append(req.Filters, query.Title(v))
	}
	if v := q.Get("speaker"); v != "" {
		req.Filters = append(req.Filters, query.Speaker(v))
	}
	if v := q.Get("content"); v != "" {
		req.Filters = append(req.Filters, query.Content(v))
	}
	for _, v := range q["entity"] {
		if v != "" {
			req.Filters = append(req.Filters, query.Entity(v))
		}
	}

	dr, err := dateRangeFromParams(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		return searchuc.Request{}, err
	}
	req.Range = dr

	if q.Get("highlight") == "true" {
		req.Highlight = &searchuc.HighlightOption{FragmentSize: q.Get("fragment_size")}
	}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return searchuc.Request{}, errors.New("limit must be a positive integer")
		}
		req.Limit = n
	}

	return req, nil
}

// dateRangeFromParams parses optional YYYY-MM-DD bounds. A start without an
// end means "until now"; an end without a start is rejected.
func dateRangeFromParams(startRaw, endRaw string) (*query.DateRange, error) {
	if startRaw == "" && endRaw == "" {
		return nil, nil
	}
	if startRaw == "" {
		return nil, errors.New("end_date requires start_date")
	}

	start, err := time.Parse("2006-01-02", startRaw)
	if err != nil {
		return nil, errors.New("start_date must be YYYY-MM-DD")
	}

	dr := &query.DateRange{Start: start}
	if endRaw != "" {
		end, err := time.Parse("2006-01-02", endRaw)
		if err != nil {
			return nil, errors.New("end_date must be YYYY-MM-DD")
		}
		if end.Before(start) {
			return nil, errors.New("end_date is before start_date")
		}
		dr.End = end
	}
	return dr, nil
}

func resultSetToResponse(rs domain.ResultSet) searchResponse {
	hits := make([]hitResponse, len(rs.Hits))
	for i, h := range rs.Hits {
		hits[i] = hitResponse{
			DocumentID: h.DocumentID,
			Title:      h.Title,
			DateIssued: h.DateIssued.UTC().Format("2006-01-02"),
			Speakers:   h.Speakers,
			Score:      h.Score,
			Fragment:   h.Fragment,
		}
	}
	return searchResponse{Total: rs.Total, Hits: hits}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrSpeakerNotFound,
		domain.ErrDocumentNotFound,
		domain.ErrTopicNotFound,
		domain.ErrScanInterrupted,
		domain.ErrSearchFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
