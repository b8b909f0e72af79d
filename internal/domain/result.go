package domain

import "time"

// FoundResult is the durable fact that a speaker was associated with a
// document for a topic. Uniquely keyed by (TopicID, SpeakerID, DocumentID);
// rows are append-only and never mutated.
type FoundResult struct {
	TopicID       int64
	SpeakerID     int64
	DocumentID    string
	DocumentDate  time.Time
	DocumentTitle string
	Fragment      string
	Score         float64
}

// InsertOutcome is the result of an atomic insert-if-absent.
type InsertOutcome int

const (
	// Inserted means a new row was created.
	Inserted InsertOutcome = iota
	// AlreadyExists means the fact was recorded by an earlier run; the
	// insert was a no-op, not an error.
	AlreadyExists
)

// String returns the outcome label used in logs and metrics.
func (o InsertOutcome) String() string {
	if o == AlreadyExists {
		return "duplicate"
	}
	return "inserted"
}
