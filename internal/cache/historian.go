// Package cache publishes per-action match history to Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// actionTTL bounds how long a finished match's action log is kept.
const actionTTL = 7 * 24 * time.Hour

// GameActionRecord is one logged step of a match. ActorUserID is uuid.Nil for
// actions taken by the game itself (deals, round ends, CPU turns report the
// CPU seat's ID).
type GameActionRecord struct {
	GameID        uuid.UUID              `json:"game_id"`
	ActionIndex   int                    `json:"action_index"`
	ActorUserID   uuid.UUID              `json:"actor_user_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}

// ActionsKey is the Redis list holding a match's action log.
func ActionsKey(gameID uuid.UUID) string {
	return "koikoi:actions:" + gameID.String()
}

// Historian appends action records to per-match Redis lists.
type Historian struct {
	rdb *redis.Client
	ttl time.Duration
}

// Connect dials Redis at addr and verifies the connection.
func Connect(ctx context.Context, addr string) (*Historian, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return NewHistorian(rdb), nil
}

// NewHistorian wraps an existing client.
func NewHistorian(rdb *redis.Client) *Historian {
	return &Historian{rdb: rdb, ttl: actionTTL}
}

// PublishGameAction appends rec to its match list and refreshes the list TTL.
func (h *Historian) PublishGameAction(ctx context.Context, rec GameActionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal action %d: %w", rec.ActionIndex, err)
	}
	key := ActionsKey(rec.GameID)
	pipe := h.rdb.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, h.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish action %d for game %s: %w", rec.ActionIndex, rec.GameID, err)
	}
	return nil
}

// GameActions returns a match's action log in publish order.
func (h *Historian) GameActions(ctx context.Context, gameID uuid.UUID) ([]GameActionRecord, error) {
	raw, err := h.rdb.LRange(ctx, ActionsKey(gameID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read actions for game %s: %w", gameID, err)
	}
	out := make([]GameActionRecord, 0, len(raw))
	for i, s := range raw {
		var rec GameActionRecord
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("decode action %d for game %s: %w", i, gameID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Close releases the Redis client.
func (h *Historian) Close() error {
	if h == nil || h.rdb == nil {
		return nil
	}
	return h.rdb.Close()
}
