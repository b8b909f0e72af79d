package monitor

import (
	"context"

	"github.com/chartbeat-labs/capitolwords/internal/domain"
	"github.com/chartbeat-labs/capitolwords/internal/domain/query"
)

// Iterator walks index hits one at a time, fetching lazily.
type Iterator interface {
	Next(ctx context.Context) bool
	Hit() domain.Hit
	Err() error
}

// Index scans the record index for documents matching a query.
type Index interface {
	Scan(q query.Query) Iterator
}

// Speakers resolves hit speaker names to canonical members of Congress.
type Speakers interface {
	GetByFullName(ctx context.Context, name string) (domain.CanonicalSpeaker, error)
}

// Results persists found results exactly once and reads them back per topic.
type Results interface {
	Insert(ctx context.Context, fr domain.FoundResult) (domain.InsertOutcome, error)
	ListByTopic(ctx context.Context, topicID int64) ([]domain.FoundResult, error)
}

// Topics reads saved topic definitions.
type Topics interface {
	List(ctx context.Context) ([]domain.Topic, error)
	GetByName(ctx context.Context, name string) (domain.Topic, error)
}
