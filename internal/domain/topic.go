package domain

// Topic is a saved, reusable query definition: a named set of tracked
// entities periodically re-run against the index. Topics are created and
// edited out-of-band; the monitor only reads them.
type Topic struct {
	ID          int64
	Name        string
	Entities    []string
	SearchTerms []string
}
