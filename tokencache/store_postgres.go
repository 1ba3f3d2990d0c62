package tokencache

import (
	"context"
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"

	"agentgate/internal/db"
)

// PostgresStore persists token cache blobs in a single token_cache table.
// The blob column is written in one UPSERT, so readers see either the old
// or the new blob, never a mix.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Store backed by the provided pool. The schema
// is managed by the migrations in internal/db.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Put(ctx context.Context, userKey string, blob []byte) error {
	if userKey == "" {
		return errors.New("userKey is required")
	}

	_, err := db.Exec(ctx, s.pool, `
		INSERT INTO token_cache (user_key, blob, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_key) DO UPDATE SET blob = EXCLUDED.blob, updated_at = EXCLUDED.updated_at`,
		userKey, blob, time.Now().UTC())
	return err
}

func (s *PostgresStore) Get(ctx context.Context, userKey string) ([]byte, error) {
	if userKey == "" {
		return nil, errors.New("userKey is required")
	}

	var blob []byte
	err := db.Get(ctx, s.pool, &blob, `SELECT blob FROM token_cache WHERE user_key = $1`, userKey)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return blob, nil
}

func (s *PostgresStore) Delete(ctx context.Context, userKey string) error {
	if userKey == "" {
		return errors.New("userKey is required")
	}

	_, err := db.Exec(ctx, s.pool, `DELETE FROM token_cache WHERE user_key = $1`, userKey)
	return err
}
