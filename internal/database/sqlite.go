package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS matches (
  id          TEXT PRIMARY KEY,
  seed        INTEGER NOT NULL,
  player_a    TEXT NOT NULL,
  player_b    TEXT NOT NULL,
  score_a     INTEGER NOT NULL,
  score_b     INTEGER NOT NULL,
  winner      INTEGER NOT NULL,
  rounds      TEXT NOT NULL,
  started_at  INTEGER NOT NULL,
  finished_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS matches_finished_at ON matches (finished_at DESC);
`

// SQLiteStore keeps match results in a local SQLite file.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
// ":memory:" opens a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveMatch inserts one finished match.
func (s *SQLiteStore) SaveMatch(ctx context.Context, rec MatchRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if err := validate(rec); err != nil {
		return err
	}
	normalizeTimes(&rec)
	rounds, err := json.Marshal(rec.Rounds)
	if err != nil {
		return fmt.Errorf("encode rounds: %w", err)
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO matches (
		   id, seed, player_a, player_b, score_a, score_b,
		   winner, rounds, started_at, finished_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(),
		int64(rec.Seed),
		rec.Players[0],
		rec.Players[1],
		rec.Scores[0],
		rec.Scores[1],
		rec.Winner,
		string(rounds),
		toMillis(rec.StartedAt),
		toMillis(rec.FinishedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("save match: %w", err)
	}
	return nil
}

// ListMatches returns up to limit matches, newest first.
func (s *SQLiteStore) ListMatches(ctx context.Context, limit int) ([]MatchRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, seed, player_a, player_b, score_a, score_b,
		        winner, rounds, started_at, finished_at
		   FROM matches
		  ORDER BY finished_at DESC, id ASC
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	out := make([]MatchRecord, 0, limit)
	for rows.Next() {
		var (
			rec        MatchRecord
			id         string
			seed       int64
			rounds     string
			startedAt  int64
			finishedAt int64
		)
		if err := rows.Scan(
			&id,
			&seed,
			&rec.Players[0],
			&rec.Players[1],
			&rec.Scores[0],
			&rec.Scores[1],
			&rec.Winner,
			&rounds,
			&startedAt,
			&finishedAt,
		); err != nil {
			return nil, fmt.Errorf("list matches: %w", err)
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("list matches: bad id %q: %w", id, err)
		}
		if err := json.Unmarshal([]byte(rounds), &rec.Rounds); err != nil {
			return nil, fmt.Errorf("list matches: decode rounds: %w", err)
		}
		rec.Seed = uint64(seed)
		rec.StartedAt = fromMillis(startedAt)
		rec.FinishedAt = fromMillis(finishedAt)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ Store = (*SQLiteStore)(nil)
