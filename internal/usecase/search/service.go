package search

import (
	"context"
	"fmt"

	"github.com/chartbeat-labs/capitolwords/internal/domain"
	"github.com/chartbeat-labs/capitolwords/internal/domain/query"
)

// DefaultLimit is the page size used when a request does not say otherwise.
const DefaultLimit = 100

// HighlightOption carries the caller's raw highlight request. FragmentSize
// is the unparsed parameter value; bad sizes fall back to the default.
type HighlightOption struct {
	FragmentSize string
}

// Request is one ad-hoc search: any combination of filters, an optional
// date range, optional highlighting. All fields are optional; an empty
// request matches every document.
type Request struct {
	Filters   []query.Filter
	Range     *query.DateRange
	Highlight *HighlightOption
	Limit     int
}

// Service composes and runs ad-hoc record searches.
type Service struct {
	index        Gateway
	docs         Documents
	defaultLimit int
}

// New creates a search service.
func New(index Gateway, docs Documents) *Service {
	return &Service{index: index, docs: docs, defaultLimit: DefaultLimit}
}

// WithDefaultLimit overrides the page size used when a request carries none.
func (s *Service) WithDefaultLimit(n int) *Service {
	if n > 0 {
		s.defaultLimit = n
	}
	return s
}

// Search builds a conjunctive query from the request and executes it. Every
// filter must match; highlighting applies only when content is searched.
func (s *Service) Search(ctx context.Context, req Request) (domain.ResultSet, error) {
	var hl *query.Highlight
	if req.Highlight != nil {
		hl = &query.Highlight{
			Field:        query.FieldNameContent,
			FragmentSize: query.ParseFragmentSize(req.Highlight.FragmentSize),
		}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}

	q := query.Conjunctive(req.Filters, req.Range, hl)

	rs, err := s.index.Execute(ctx, q, limit)
	if err != nil {
		return domain.ResultSet{}, fmt.Errorf("search: %w", err)
	}
	return rs, nil
}

// SearchSpeaker finds everything a named speaker said.
func (s *Service) SearchSpeaker(ctx context.Context, name string) (domain.ResultSet, error) {
	return s.Search(ctx, Request{Filters: []query.Filter{query.Speaker(name)}})
}

// SearchTitle finds documents whose title contains the given phrase.
func (s *Service) SearchTitle(ctx context.Context, title string) (domain.ResultSet, error) {
	return s.Search(ctx, Request{Filters: []query.Filter{query.Title(title)}})
}

// Document fetches one stored document with its full content.
func (s *Service) Document(ctx context.Context, id string) (domain.Document, error) {
	d, err := s.docs.GetDocument(ctx, id)
	if err != nil {
		return domain.Document{}, fmt.Errorf("document: %w", err)
	}
	return d, nil
}
