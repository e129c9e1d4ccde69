package lead

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pkgerrors "github.com/pkg/errors"

	"freightquote/internal/rate"
)

const schema = `
CREATE TABLE IF NOT EXISTS leads (
    id          uuid PRIMARY KEY,
    name        text,
    email       text,
    phone       text,
    origin      text,
    destination text,
    mode        text,
    weight_kg   double precision,
    created_at  timestamptz NOT NULL
)`

// PGStore stores leads in Postgres.
type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

// EnsureSchema creates the leads table when missing.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schema)
	return pkgerrors.Wrap(err, "create leads table")
}

// Save inserts l. A duplicate id is treated as already saved.
func (s *PGStore) Save(ctx context.Context, l Lead) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO leads (id, name, email, phone, origin, destination, mode, weight_kg, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `,
		l.ID,
		nullIfEmpty(l.Name),
		nullIfEmpty(l.Email),
		nullIfEmpty(l.Phone),
		nullIfEmpty(l.Origin),
		nullIfEmpty(l.Destination),
		nullIfEmpty(string(l.Mode)),
		l.WeightKg,
		l.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return nil
		}
		return pkgerrors.Wrap(err, "insert lead")
	}
	return nil
}

// Get loads a lead by id.
func (s *PGStore) Get(ctx context.Context, id string) (Lead, error) {
	key, err := uuid.Parse(id)
	if err != nil {
		return Lead{}, ErrNotFound
	}
	var (
		l                                         Lead
		name, email, phone, origin, dest, modeStr *string
	)
	err = s.db.QueryRow(ctx, `
        SELECT id, name, email, phone, origin, destination, mode, weight_kg, created_at
        FROM leads WHERE id = $1
    `, key).Scan(&l.ID, &name, &email, &phone, &origin, &dest, &modeStr, &l.WeightKg, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, pkgerrors.Wrap(err, "select lead")
	}
	l.Name, l.Email, l.Phone = deref(name), deref(email), deref(phone)
	l.Origin, l.Destination = deref(origin), deref(dest)
	l.Mode = rate.Mode(deref(modeStr))
	return l, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
