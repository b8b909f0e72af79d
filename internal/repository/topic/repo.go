package topic

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chartbeat-labs/capitolwords/internal/domain"
)

// Repo reads saved topics. Topics are administered out-of-band; this
// repository never writes them.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a topic repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// GetByName loads a topic and its tracked entities and search terms.
func (r *Repo) GetByName(ctx context.Context, name string) (domain.Topic, error) {
	const q = `SELECT id, name FROM topics WHERE name = $1`

	var t domain.Topic
	err := r.pool.QueryRow(ctx, q, name).Scan(&t.ID, &t.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Topic{}, fmt.Errorf("%q: %w", name, domain.ErrTopicNotFound)
	}
	if err != nil {
		return domain.Topic{}, fmt.Errorf("get topic %q: %w", name, err)
	}

	if err := r.loadTerms(ctx, &t); err != nil {
		return domain.Topic{}, err
	}
	return t, nil
}

// List loads every saved topic with its tracked entities and search terms.
func (r *Repo) List(ctx context.Context) ([]domain.Topic, error) {
	const q = `SELECT id, name FROM topics ORDER BY name`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var topics []domain.Topic
	for rows.Next() {
		var t domain.Topic
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}

	for i := range topics {
		if err := r.loadTerms(ctx, &topics[i]); err != nil {
			return nil, err
		}
	}
	return topics, nil
}

func (r *Repo) loadTerms(ctx context.Context, t *domain.Topic) error {
	entities, err := r.stringColumn(ctx,
		`SELECT entity FROM topic_entities WHERE topic_id = $1 ORDER BY entity`, t.ID)
	if err != nil {
		return fmt.Errorf("load entities for topic %q: %w", t.Name, err)
	}
	t.Entities = entities

	terms, err := r.stringColumn(ctx,
		`SELECT term FROM topic_terms WHERE topic_id = $1 ORDER BY term`, t.ID)
	if err != nil {
		return fmt.Errorf("load terms for topic %q: %w", t.Name, err)
	}
	t.SearchTerms = terms

	return nil
}

func (r *Repo) stringColumn(ctx context.Context, q string, topicID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, q, topicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
