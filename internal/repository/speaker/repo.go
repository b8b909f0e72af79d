package speaker

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chartbeat-labs/capitolwords/internal/domain"
)

// Repo resolves raw speaker names against the canonical speaker table.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a speaker repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// GetByFullName looks up a speaker by exact official full name. No fuzzy or
// partial matching: a name either matches the canonical record verbatim or
// resolves to ErrSpeakerNotFound.
func (r *Repo) GetByFullName(ctx context.Context, name string) (domain.CanonicalSpeaker, error) {
	const q = `SELECT id, bioguide_id, official_full FROM congress_people WHERE official_full = $1`

	var s domain.CanonicalSpeaker
	err := r.pool.QueryRow(ctx, q, name).Scan(&s.ID, &s.BioguideID, &s.OfficialFull)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CanonicalSpeaker{}, fmt.Errorf("%q: %w", name, domain.ErrSpeakerNotFound)
	}
	if err != nil {
		return domain.CanonicalSpeaker{}, fmt.Errorf("lookup speaker %q: %w", name, err)
	}
	return s, nil
}
