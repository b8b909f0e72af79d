package query

import "time"

// ClauseKind enumerates the atomic clause shapes.
type ClauseKind int

const (
	// KindMatch requires every token of the text to appear in the field.
	KindMatch ClauseKind = iota
	// KindPhrase requires the tokens to appear contiguously, in order.
	KindPhrase
	// KindRange restricts a date field to [From, Until).
	KindRange
)

// Clause is one atomic condition contributed to a boolean query.
type Clause struct {
	kind  ClauseKind
	field string
	text  string
	from  time.Time
	until time.Time
}

// NewMatch creates an all-tokens match clause on a field.
func NewMatch(field, text string) Clause {
	return Clause{kind: KindMatch, field: field, text: text}
}

// NewPhrase creates a contiguous phrase match clause on a field.
func NewPhrase(field, text string) Clause {
	return Clause{kind: KindPhrase, field: field, text: text}
}

// NewDateWindow creates a range clause over [from, until) at day granularity.
func NewDateWindow(field string, from, until time.Time) Clause {
	return Clause{kind: KindRange, field: field, from: day(from), until: day(until)}
}

// Kind returns the clause shape.
func (c Clause) Kind() ClauseKind { return c.kind }

// Field returns the index field name.
func (c Clause) Field() string { return c.field }

// Text returns the match or phrase text.
func (c Clause) Text() string { return c.text }

// From returns the inclusive lower bound of a range clause.
func (c Clause) From() time.Time { return c.from }

// Until returns the exclusive upper bound of a range clause.
func (c Clause) Until() time.Time { return c.until }

// DateRange restricts documents to date_issued within [Start, End],
// inclusive at day granularity. A zero End means "through today".
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Clause builds the range clause. The inclusive End becomes an exclusive
// bound one day later, so the whole End day is covered.
func (r DateRange) Clause() Clause {
	end := r.End
	if end.IsZero() {
		end = time.Now().UTC()
	}
	return NewDateWindow(FieldNameDateIssued, r.Start, day(end).AddDate(0, 0, 1))
}

// day truncates a timestamp to UTC midnight.
func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
