package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/chartbeat-labs/capitolwords/internal/domain"
	"github.com/chartbeat-labs/capitolwords/internal/domain/query"
	healthuc "github.com/chartbeat-labs/capitolwords/internal/usecase/health"
	monitoruc "github.com/chartbeat-labs/capitolwords/internal/usecase/monitor"
	searchuc "github.com/chartbeat-labs/capitolwords/internal/usecase/search"
)

// --- Mocks ---

type stubGateway struct {
	rs        domain.ResultSet
	err       error
	lastQuery query.Query
	lastLimit int
}

func (g *stubGateway) Execute(_ context.Context, q query.Query, limit int) (domain.ResultSet, error) {
	g.lastQuery = q
	g.lastLimit = limit
	return g.rs, g.err
}

type stubIndex struct{}

func (stubIndex) Scan(query.Query) monitoruc.Iterator { return emptyIterator{} }

type emptyIterator struct{}

func (emptyIterator) Next(context.Context) bool { return false }
func (emptyIterator) Hit() domain.Hit           { return domain.Hit{} }
func (emptyIterator) Err() error                { return nil }

type stubSpeakers struct{}

func (stubSpeakers) GetByFullName(_ context.Context, name string) (domain.CanonicalSpeaker, error) {
	return domain.CanonicalSpeaker{}, fmt.Errorf("%q: %w", name, domain.ErrSpeakerNotFound)
}

type stubResults struct{}

func (stubResults) Insert(context.Context, domain.FoundResult) (domain.InsertOutcome, error) {
	return domain.Inserted, nil
}

func (stubResults) ListByTopic(context.Context, int64) ([]domain.FoundResult, error) {
	return nil, nil
}

type stubTopics struct {
	topics []domain.Topic
}

func (s stubTopics) List(context.Context) ([]domain.Topic, error) { return s.topics, nil }

func (s stubTopics) GetByName(_ context.Context, name string) (domain.Topic, error) {
	for _, t := range s.topics {
		if t.Name == name {
			return t, nil
		}
	}
	return domain.Topic{}, fmt.Errorf("%q: %w", name, domain.ErrTopicNotFound)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubDocuments struct {
	docs map[string]domain.Document
}

func (s stubDocuments) GetDocument(_ context.Context, id string) (domain.Document, error) {
	d, ok := s.docs[id]
	if !ok {
		return domain.Document{}, fmt.Errorf("%s: %w", id, domain.ErrDocumentNotFound)
	}
	return d, nil
}

func newTestServer(gw searchuc.Gateway, topics monitoruc.Topics) (*Server, *chirouter.Mux) {
	return newTestServerDocs(gw, stubDocuments{}, topics)
}

func newTestServerDocs(gw searchuc.Gateway, docs searchuc.Documents, topics monitoruc.Topics) (*Server, *chirouter.Mux) {
	searchSvc := searchuc.New(gw, docs)
	monitorSvc := monitoruc.New(stubIndex{}, stubSpeakers{}, stubResults{}, topics, zap.NewNop())
	healthSvc := healthuc.New(stubPinger{}, stubPinger{})

	srv := NewServer(searchSvc, monitorSvc, healthSvc, 1000, zap.NewNop())
	r := chirouter.NewRouter()
	srv.Routes(r)
	return srv, r
}

// --- Tests ---

func TestSearchMulti_ParsesFilters(t *testing.T) {
	gw := &stubGateway{}
	_, r := newTestServer(gw, stubTopics{})

	url := "/search/multi?title=Budget+Act&entity=Medicare&entity=Social+Security" +
		"&speaker=Bernard+Sanders&start_date=2017-01-11&end_date=2017-01-12"
	req := httptest.NewRequest("GET", url, http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	// title + 2 entities + speaker + date range
	if got := len(gw.lastQuery.Must()); got != 5 {
		t.Errorf("must clauses = %d, want 5", got)
	}
}

func TestSearchMulti_NoParamsMatchesAll(t *testing.T) {
	gw := &stubGateway{}
	_, r := newTestServer(gw, stubTopics{})

	req := httptest.NewRequest("GET", "/search/multi", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if !gw.lastQuery.IsMatchAll() {
		t.Error("expected a match-all query for a bare request")
	}
}

func TestSearchMulti_BadDates(t *testing.T) {
	gw := &stubGateway{}
	_, r := newTestServer(gw, stubTopics{})

	for _, url := range []string{
		"/search/multi?start_date=11-01-2017",
		"/search/multi?end_date=2017-01-12",
		"/search/multi?start_date=2017-01-12&end_date=2017-01-11",
		"/search/multi?limit=-5",
	} {
		req := httptest.NewRequest("GET", url, http.NoBody)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", url, rr.Code, http.StatusBadRequest)
		}
	}
}

func TestSearchMulti_LimitClamped(t *testing.T) {
	gw := &stubGateway{}
	_, r := newTestServer(gw, stubTopics{})

	req := httptest.NewRequest("GET", "/search/multi?limit=999999", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if gw.lastLimit != 1000 {
		t.Errorf("limit = %d, want clamped to 1000", gw.lastLimit)
	}
}

func TestSearchMulti_HighlightParam(t *testing.T) {
	gw := &stubGateway{}
	_, r := newTestServer(gw, stubTopics{})

	url := "/search/multi?content=medicare&highlight=true&fragment_size=750"
	req := httptest.NewRequest("GET", url, http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	hl := gw.lastQuery.Highlight()
	if hl == nil || hl.FragmentSize != 750 {
		t.Errorf("highlight = %+v, want fragment size 750", hl)
	}
}

func TestSearchSpeaker_ReturnsHits(t *testing.T) {
	gw := &stubGateway{rs: domain.ResultSet{
		Total: 1,
		Hits: []domain.Hit{{
			DocumentID: "CREC-2017-01-11-pt1",
			Title:      "Morning Business",
			DateIssued: time.Date(2017, 1, 11, 0, 0, 0, 0, time.UTC),
			Speakers:   []string{"Bernard Sanders"},
			Score:      2.5,
		}},
	}}
	_, r := newTestServer(gw, stubTopics{})

	req := httptest.NewRequest("GET", "/search/speaker/Bernard%20Sanders", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	var resp searchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 1 || len(resp.Hits) != 1 {
		t.Fatalf("response = %+v, want one hit", resp)
	}
	if resp.Hits[0].DateIssued != "2017-01-11" {
		t.Errorf("date_issued = %q, want 2017-01-11", resp.Hits[0].DateIssued)
	}
}

func TestGetDocument_ReturnsFullContent(t *testing.T) {
	docs := stubDocuments{docs: map[string]domain.Document{
		"CREC-2017-01-11-pt1": {
			ID:         "CREC-2017-01-11-pt1",
			Title:      "Morning Business",
			Content:    "Mr. SANDERS. Social security is a promise.",
			Speakers:   []string{"Bernard Sanders"},
			DateIssued: time.Date(2017, 1, 11, 0, 0, 0, 0, time.UTC),
		},
	}}
	_, r := newTestServerDocs(&stubGateway{}, docs, stubTopics{})

	req := httptest.NewRequest("GET", "/documents/CREC-2017-01-11-pt1", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp documentResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "CREC-2017-01-11-pt1" {
		t.Errorf("id = %q, want CREC-2017-01-11-pt1", resp.ID)
	}
	if resp.Content == "" {
		t.Error("want full content in the document body")
	}
	if resp.DateIssued != "2017-01-11" {
		t.Errorf("date_issued = %q, want 2017-01-11", resp.DateIssued)
	}
}

func TestGetDocument_Unknown_404(t *testing.T) {
	_, r := newTestServer(&stubGateway{}, stubTopics{})

	req := httptest.NewRequest("GET", "/documents/CREC-1999-missing", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != CodeDocumentNotFound {
		t.Errorf("code = %q, want %q", errResp.Code, CodeDocumentNotFound)
	}
}

func TestSearch_IndexFailure_502(t *testing.T) {
	gw := &stubGateway{err: fmt.Errorf("%w: boom", domain.ErrSearchFailed)}
	_, r := newTestServer(gw, stubTopics{})

	req := httptest.NewRequest("GET", "/search/multi?content=medicare", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadGateway)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != CodeSearchFailed {
		t.Errorf("code = %q, want %q", errResp.Code, CodeSearchFailed)
	}
}

func TestRunTopic_UnknownTopic_404(t *testing.T) {
	_, r := newTestServer(&stubGateway{}, stubTopics{})

	req := httptest.NewRequest("POST", "/topics/nonesuch/run", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestRunTopic_BadDate_400(t *testing.T) {
	_, r := newTestServer(&stubGateway{}, stubTopics{})

	req := httptest.NewRequest("POST", "/topics/budget-watch/run?date=Jan-11", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestRunTopic_ReportsRun(t *testing.T) {
	topics := stubTopics{topics: []domain.Topic{
		{ID: 7, Name: "budget-watch", Entities: []string{"Federal Budget"}},
	}}
	_, r := newTestServer(&stubGateway{}, topics)

	req := httptest.NewRequest("POST", "/topics/budget-watch/run?date=2017-01-11&days=2", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp runResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Topic != "budget-watch" {
		t.Errorf("topic = %q, want budget-watch", resp.Topic)
	}
}

func TestTopicResults_UnknownTopic_404(t *testing.T) {
	_, r := newTestServer(&stubGateway{}, stubTopics{})

	req := httptest.NewRequest("GET", "/topics/nonesuch/results", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestHealthz_OK(t *testing.T) {
	_, r := newTestServer(&stubGateway{}, stubTopics{})

	req := httptest.NewRequest("GET", "/healthz", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
}
