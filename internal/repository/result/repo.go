package result

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chartbeat-labs/capitolwords/internal/domain"
)

// Repo persists found results under the (topic, speaker, document) key.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a result repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Insert records a found result if it is not already present. The insert and
// the duplicate check are one atomic statement: concurrent runs racing on
// the same fact both succeed, with exactly one row surviving.
func (r *Repo) Insert(ctx context.Context, fr domain.FoundResult) (domain.InsertOutcome, error) {
	const q = `
		INSERT INTO found_results
			(topic_id, speaker_id, document_id, document_date, document_title, fragment, score)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (topic_id, speaker_id, document_id) DO NOTHING`

	tag, err := r.pool.Exec(ctx, q,
		fr.TopicID, fr.SpeakerID, fr.DocumentID,
		fr.DocumentDate, fr.DocumentTitle, fr.Fragment, fr.Score,
	)
	if err != nil {
		return domain.AlreadyExists, fmt.Errorf("insert result %s/%d/%d: %w",
			fr.DocumentID, fr.TopicID, fr.SpeakerID, err)
	}

	if tag.RowsAffected() == 0 {
		return domain.AlreadyExists, nil
	}
	return domain.Inserted, nil
}

// ListByTopic returns the recorded facts for a topic, newest documents first.
func (r *Repo) ListByTopic(ctx context.Context, topicID int64) ([]domain.FoundResult, error) {
	const q = `
		SELECT topic_id, speaker_id, document_id, document_date, document_title, fragment, score
		FROM found_results
		WHERE topic_id = $1
		ORDER BY document_date DESC, document_id, speaker_id`

	rows, err := r.pool.Query(ctx, q, topicID)
	if err != nil {
		return nil, fmt.Errorf("list results for topic %d: %w", topicID, err)
	}
	defer rows.Close()

	var out []domain.FoundResult
	for rows.Next() {
		var fr domain.FoundResult
		if err := rows.Scan(
			&fr.TopicID, &fr.SpeakerID, &fr.DocumentID,
			&fr.DocumentDate, &fr.DocumentTitle, &fr.Fragment, &fr.Score,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list results for topic %d: %w", topicID, err)
	}
	return out, nil
}
