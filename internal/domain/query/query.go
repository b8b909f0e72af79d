package query

import (
	"strconv"
	"time"
)

// DefaultFragmentSize is the highlight fragment size used when the caller
// asked for highlighting without a usable size.
const DefaultFragmentSize = 200

// Highlight asks the index to return a highlighted content fragment with
// each hit.
type Highlight struct {
	Field        string
	FragmentSize int
}

// ParseFragmentSize resolves a raw fragment-size parameter. Non-numeric or
// non-positive input silently falls back to the default; a bad size is never
// a request error.
func ParseFragmentSize(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return DefaultFragmentSize
	}
	return n
}

// Query is an immutable boolean expression tree: must clauses are ANDed,
// should clauses are ORed with a minimum match count. Built once per request
// or run, never mutated after construction.
type Query struct {
	must               []Clause
	should             []Clause
	minimumShouldMatch int
	highlight          *Highlight
}

// Must returns the AND clause list.
func (q Query) Must() []Clause { return q.must }

// Should returns the OR clause list.
func (q Query) Should() []Clause { return q.should }

// MinimumShouldMatch returns how many should clauses a document must satisfy.
func (q Query) MinimumShouldMatch() int { return q.minimumShouldMatch }

// Highlight returns the attached highlight request, or nil.
func (q Query) Highlight() *Highlight { return q.highlight }

// IsMatchAll reports whether the query carries no constraints at all.
func (q Query) IsMatchAll() bool { return len(q.must) == 0 && len(q.should) == 0 }

// Conjunctive composes the ad-hoc search query: every supplied filter
// becomes a must clause, so repeated filters on the same field each
// independently constrain the result. A date range, if present, is appended
// to must. Highlighting is attached only when a content filter is present
// and hl is non-nil.
func Conjunctive(filters []Filter, dateRange *DateRange, hl *Highlight) Query {
	q := Query{}
	hasContent := false
	for _, f := range filters {
		if f.Field() == FieldContent {
			hasContent = true
		}
		q.must = append(q.must, f.Clause())
	}
	if dateRange != nil {
		q.must = append(q.must, dateRange.Clause())
	}
	if hl != nil && hasContent {
		h := *hl
		q.highlight = &h
	}
	return q
}

// DisjunctiveEntities composes the topic-monitoring query: the day window
// [start, start+daysForward) is required, and a document must mention at
// least one of the tracked entities.
func DisjunctiveEntities(entities []string, start time.Time, daysForward int, hl *Highlight) Query {
	if daysForward < 1 {
		daysForward = 1
	}
	q := Query{
		must: []Clause{
			NewDateWindow(FieldNameDateIssued, start, day(start).AddDate(0, 0, daysForward)),
		},
		minimumShouldMatch: 1,
	}
	for _, e := range entities {
		q.should = append(q.should, NewMatch(FieldNameContent, e))
	}
	if hl != nil {
		h := *hl
		q.highlight = &h
	}
	return q
}
