package identity

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// User is one row of the local users mirror.
type User struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"externalId"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"createdAt"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}

// Store upserts verified principals into the users mirror.
type Store interface {
	Upsert(ctx context.Context, externalID, email string) (User, error)
}

// PG implements Store against the users table.
type PG struct {
	Pool *pgxpool.Pool
}

// Upsert inserts the user on first sight and refreshes email and
// last_seen_at on every subsequent sync.
func (p *PG) Upsert(ctx context.Context, externalID, email string) (User, error) {
	var u User
	err := p.Pool.QueryRow(ctx, `
		INSERT INTO users (id, external_id, email, created_at, last_seen_at)
		VALUES (gen_random_uuid(), $1, $2, now(), now())
		ON CONFLICT (external_id)
		DO UPDATE SET email = EXCLUDED.email, last_seen_at = now()
		RETURNING id, external_id, email, created_at, last_seen_at`,
		externalID, email).
		Scan(&u.ID, &u.ExternalID, &u.Email, &u.CreatedAt, &u.LastSeenAt)
	return u, err
}
