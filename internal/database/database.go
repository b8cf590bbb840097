// Package database stores finished match results.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrAlreadyExists is returned when a match ID is saved twice.
var ErrAlreadyExists = errors.New("match already stored")

// RoundRecord is the stored outcome of one round.
type RoundRecord struct {
	Round         int      `json:"round"`
	Winner        int      `json:"winner"`
	Draw          bool     `json:"draw,omitempty"`
	BasePoints    int      `json:"basePoints"`
	Points        int      `json:"points"`
	KoikoiDoubled bool     `json:"koikoiDoubled,omitempty"`
	HighDoubled   bool     `json:"highDoubled,omitempty"`
	Yaku          []string `json:"yaku,omitempty"`
}

// MatchRecord is one finished match. Winner is a seat index, or -1 on a tie.
type MatchRecord struct {
	ID         uuid.UUID     `json:"id"`
	Seed       uint64        `json:"seed"`
	Players    [2]string     `json:"players"`
	Scores     [2]int        `json:"scores"`
	Winner     int           `json:"winner"`
	Rounds     []RoundRecord `json:"rounds"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
}

// Store persists match results.
type Store interface {
	SaveMatch(ctx context.Context, rec MatchRecord) error
	ListMatches(ctx context.Context, limit int) ([]MatchRecord, error)
	Close() error
}

// Open picks a backend: Postgres when databaseURL is set, otherwise SQLite
// at sqlitePath.
func Open(ctx context.Context, databaseURL, sqlitePath string) (Store, error) {
	if strings.TrimSpace(databaseURL) != "" {
		pg, err := OpenPostgres(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
	lite, err := OpenSQLite(sqlitePath)
	if err != nil {
		return nil, err
	}
	return lite, nil
}

func validate(rec MatchRecord) error {
	if rec.ID == uuid.Nil {
		return fmt.Errorf("match id is required")
	}
	if rec.Winner < -1 || rec.Winner > 1 {
		return fmt.Errorf("winner seat %d out of range", rec.Winner)
	}
	return nil
}

func normalizeTimes(rec *MatchRecord) {
	rec.StartedAt = rec.StartedAt.UTC()
	rec.FinishedAt = rec.FinishedAt.UTC()
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now().UTC()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = rec.FinishedAt
	}
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
