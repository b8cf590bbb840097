package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS matches (
  id          UUID PRIMARY KEY,
  seed        BIGINT NOT NULL,
  player_a    TEXT NOT NULL,
  player_b    TEXT NOT NULL,
  score_a     INTEGER NOT NULL,
  score_b     INTEGER NOT NULL,
  winner      SMALLINT NOT NULL,
  rounds      JSONB NOT NULL,
  started_at  TIMESTAMPTZ NOT NULL,
  finished_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS matches_finished_at ON matches (finished_at DESC);
`

// uniqueViolation is the Postgres SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// PostgresStore keeps match results in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a pool to url and applies the schema.
func OpenPostgres(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// SaveMatch inserts one finished match.
func (s *PostgresStore) SaveMatch(ctx context.Context, rec MatchRecord) error {
	if err := validate(rec); err != nil {
		return err
	}
	normalizeTimes(&rec)
	rounds, err := json.Marshal(rec.Rounds)
	if err != nil {
		return fmt.Errorf("encode rounds: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO matches (
		   id, seed, player_a, player_b, score_a, score_b,
		   winner, rounds, started_at, finished_at
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ID, int64(rec.Seed), rec.Players[0], rec.Players[1],
		rec.Scores[0], rec.Scores[1], rec.Winner, rounds,
		rec.StartedAt, rec.FinishedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyExists
		}
		return fmt.Errorf("save match: %w", err)
	}
	return nil
}

// ListMatches returns up to limit matches, newest first.
func (s *PostgresStore) ListMatches(ctx context.Context, limit int) ([]MatchRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, seed, player_a, player_b, score_a, score_b,
		        winner, rounds, started_at, finished_at
		   FROM matches
		  ORDER BY finished_at DESC, id ASC
		  LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	out := make([]MatchRecord, 0, limit)
	for rows.Next() {
		var (
			rec    MatchRecord
			seed   int64
			winner int16
			rounds []byte
		)
		if err := rows.Scan(
			&rec.ID, &seed, &rec.Players[0], &rec.Players[1],
			&rec.Scores[0], &rec.Scores[1], &winner, &rounds,
			&rec.StartedAt, &rec.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("list matches: %w", err)
		}
		if err := json.Unmarshal(rounds, &rec.Rounds); err != nil {
			return nil, fmt.Errorf("list matches: decode rounds: %w", err)
		}
		rec.Seed = uint64(seed)
		rec.Winner = int(winner)
		rec.StartedAt = rec.StartedAt.UTC()
		rec.FinishedAt = rec.FinishedAt.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return out, nil
}

var _ Store = (*PostgresStore)(nil)
