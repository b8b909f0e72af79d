package record

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chartbeat-labs/capitolwords/internal/db"
	"github.com/chartbeat-labs/capitolwords/internal/domain"
	"github.com/chartbeat-labs/capitolwords/internal/domain/query"
)

// speakerSeparator joins speaker names in the indexed speakers field.
const speakerSeparator = "; "

// store is the consumer interface for record operations (ISP).
type store interface {
	Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResult, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// Repo is the gateway to the Congressional Record index.
type Repo struct {
	store     store
	indexName string
	docPrefix string
	scanBatch int
}

// New creates a record repository. keyPrefix namespaces all Redis keys.
func New(s store, keyPrefix string) *Repo {
	return &Repo{
		store:     s,
		indexName: keyPrefix + "crec:idx",
		docPrefix: keyPrefix + "crec:",
		scanBatch: 100,
	}
}

// WithScanBatch overrides the page size used by Scan.
func (r *Repo) WithScanBatch(n int) *Repo {
	if n > 0 {
		r.scanBatch = n
	}
	return r
}

// Execute runs the query once, bounded to limit hits, newest documents first.
// A non-success execution surfaces as ErrSearchFailed so callers can render
// an empty outcome instead of crashing.
func (r *Repo) Execute(ctx context.Context, q query.Query, limit int) (domain.ResultSet, error) {
	sr, err := r.store.Search(ctx, &db.SearchRequest{
		IndexName: r.indexName,
		Query:     q,
		SortBy:    query.FieldNameDateIssued,
		SortDesc:  true,
		Limit:     limit,
	})
	if err != nil {
		return domain.ResultSet{}, fmt.Errorf("%w: %w", domain.ErrSearchFailed, err)
	}

	rs := domain.ResultSet{Total: sr.Total, Hits: make([]domain.Hit, 0, len(sr.Entries))}
	for _, e := range sr.Entries {
		rs.Hits = append(rs.Hits, r.toHit(e, q.Highlight() != nil))
	}
	return rs, nil
}

// Scan starts an unbounded, lazily-fetched iteration over every document
// matching the query. Nothing is fetched until the caller drives iteration
// with Next.
func (r *Repo) Scan(q query.Query) *Scanner {
	return &Scanner{repo: r, query: q}
}

// Scanner pages through an unbounded result set one batch at a time.
type Scanner struct {
	repo    *Repo
	query   query.Query
	buf     []domain.Hit
	offset  int
	yielded int
	total   int
	started bool
	done    bool
	hit     domain.Hit
	err     error
}

// Next fetches the next hit, loading a new batch from the index when the
// buffer runs dry. It returns false when the scan is exhausted or broken;
// check Err to tell the two apart.
func (s *Scanner) Next(ctx context.Context) bool {
	if s.done || s.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		s.err = domain.NewScanInterrupted(s.yielded, err)
		return false
	}

	if len(s.buf) == 0 {
		if s.started && s.offset >= s.total {
			s.done = true
			return false
		}
		if !s.fetch(ctx) {
			return false
		}
	}

	s.hit = s.buf[0]
	s.buf = s.buf[1:]
	s.yielded++
	return true
}

// Hit returns the hit produced by the last successful Next.
func (s *Scanner) Hit() domain.Hit { return s.hit }

// Err returns the error that interrupted the scan, or nil after a clean
// exhaustion.
func (s *Scanner) Err() error { return s.err }

func (s *Scanner) fetch(ctx context.Context) bool {
	sr, err := s.repo.store.Search(ctx, &db.SearchRequest{
		IndexName: s.repo.indexName,
		Query:     s.query,
		Offset:    s.offset,
		Limit:     s.repo.scanBatch,
	})
	if err != nil {
		s.err = domain.NewScanInterrupted(s.yielded, err)
		return false
	}

	s.started = true
	s.total = sr.Total
	s.offset += len(sr.Entries)

	if len(sr.Entries) == 0 {
		s.done = true
		return false
	}

	highlighted := s.query.Highlight() != nil
	s.buf = s.buf[:0]
	for _, e := range sr.Entries {
		s.buf = append(s.buf, s.repo.toHit(e, highlighted))
	}
	return true
}

// EnsureIndex creates the record FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName)
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.indexName, err)
	}
	if exists {
		return nil
	}

	if err := r.store.CreateIndex(ctx, r.indexDefinition()); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", r.indexName, err)
	}
	return nil
}

// RebuildIndex drops the record FT index and recreates it from the current
// schema. Stored documents are untouched; RediSearch reindexes them from the
// key prefix in the background.
func (r *Repo) RebuildIndex(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.indexName); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", r.indexName, err)
	}
	if err := r.store.CreateIndex(ctx, r.indexDefinition()); err != nil {
		return fmt.Errorf("create index %s: %w", r.indexName, err)
	}
	return nil
}

func (r *Repo) indexDefinition() *db.IndexDefinition {
	return db.NewIndex(r.indexName).
		Prefix(r.docPrefix).
		Text(query.FieldNameTitle).
		Text(query.FieldNameContent).
		Text(query.FieldNameSpeakers).
		Text(query.FieldNameEntities).
		NumericSortable(query.FieldNameDateIssued).
		MustBuild()
}

// IndexDocuments stores a batch of parsed documents under the index prefix.
func (r *Repo) IndexDocuments(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, 0, len(docs))
	for _, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("document without ID (title %q)", d.Title)
		}
		items = append(items, db.HashSetItem{
			Key: r.docPrefix + d.ID,
			Fields: map[string]string{
				query.FieldNameTitle:      d.Title,
				query.FieldNameContent:    d.Content,
				query.FieldNameSpeakers:   strings.Join(d.Speakers, speakerSeparator),
				query.FieldNameEntities:   strings.Join(d.NamedEntities, speakerSeparator),
				query.FieldNameDateIssued: strconv.FormatInt(dayStart(d.DateIssued).Unix(), 10),
			},
		})
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("index %d documents: %w", len(items), err)
	}
	return nil
}

// GetDocument fetches a single stored document by ID, including its full
// content. Unknown IDs surface as ErrDocumentNotFound.
func (r *Repo) GetDocument(ctx context.Context, id string) (domain.Document, error) {
	key := r.docPrefix + id

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return domain.Document{}, fmt.Errorf("check document %s: %w", id, err)
	}
	if !exists {
		return domain.Document{}, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
	}

	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domain.Document{}, fmt.Errorf("get document %s: %w", id, err)
	}

	d := domain.Document{
		ID:            id,
		Title:         fields[query.FieldNameTitle],
		Content:       fields[query.FieldNameContent],
		Speakers:      splitNames(fields[query.FieldNameSpeakers]),
		NamedEntities: splitNames(fields[query.FieldNameEntities]),
	}
	if raw := fields[query.FieldNameDateIssued]; raw != "" {
		if sec, err := strconv.ParseInt(raw, 10, 64); err == nil {
			d.DateIssued = time.Unix(sec, 0).UTC()
		}
	}
	return d, nil
}

func splitNames(raw string) []string {
	if raw == "" {
		return nil
	}
	var names []string
	for _, name := range strings.Split(raw, ";") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// toHit converts an index entry into a domain hit. With highlighting on, the
// index returns the content field already reduced to the fragment.
func (r *Repo) toHit(e db.SearchEntry, highlighted bool) domain.Hit {
	h := domain.Hit{
		DocumentID: strings.TrimPrefix(e.Key, r.docPrefix),
		Title:      e.Fields[query.FieldNameTitle],
		Score:      e.Score,
	}

	if raw := e.Fields[query.FieldNameDateIssued]; raw != "" {
		if sec, err := strconv.ParseInt(raw, 10, 64); err == nil {
			h.DateIssued = time.Unix(sec, 0).UTC()
		}
	}

	h.Speakers = splitNames(e.Fields[query.FieldNameSpeakers])

	if highlighted {
		h.Fragment = e.Fields[query.FieldNameContent]
	}

	return h
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
