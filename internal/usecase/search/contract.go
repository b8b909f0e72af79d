package search

import (
	"context"

	"github.com/chartbeat-labs/capitolwords/internal/domain"
	"github.com/chartbeat-labs/capitolwords/internal/domain/query"
)

// Gateway executes composed queries against the record index.
type Gateway interface {
	Execute(ctx context.Context, q query.Query, limit int) (domain.ResultSet, error)
}

// Documents reads stored documents by ID.
type Documents interface {
	GetDocument(ctx context.Context, id string) (domain.Document, error)
}
