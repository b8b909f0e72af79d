package db

import "github.com/chartbeat-labs/capitolwords/internal/domain/query"

// SearchRequest is one bounded FT.SEARCH execution. Unbounded scans are the
// caller's concern: they issue successive requests with advancing Offset.
type SearchRequest struct {
	IndexName    string
	Query        query.Query
	SortBy       string // field to sort on; empty keeps index score order
	SortDesc     bool
	Offset       int
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search execution.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
