package domain

import "time"

// Document is a parsed Congressional Record document as stored in the index.
type Document struct {
	ID            string
	Title         string
	Content       string
	Speakers      []string
	NamedEntities []string
	DateIssued    time.Time
}

// Hit is a single matched document returned by the index. Hits are ephemeral:
// produced per search or scan, discarded after processing.
type Hit struct {
	DocumentID string
	Title      string
	DateIssued time.Time
	Speakers   []string
	Score      float64
	Fragment   string // highlighted content fragment, empty when highlighting was off
}

// ResultSet is the bounded outcome of a single search execution.
type ResultSet struct {
	Total int
	Hits  []Hit
}

// Empty reports whether the search legitimately matched nothing.
func (rs ResultSet) Empty() bool { return rs.Total == 0 }
