// Package game runs one live Koi-Koi match for connected clients. It wraps
// the rules engine with identities, event fan-out, action logging and
// result persistence.
package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/koikoi/engine"
	"github.com/jason-s-yu/koikoi/internal/cache"
	"github.com/jason-s-yu/koikoi/internal/database"
	"github.com/sirupsen/logrus"
)

// OnGameEndFunc is called once when a match finishes, with the record that
// is being persisted.
type OnGameEndFunc func(gameID uuid.UUID, rec database.MatchRecord)

// ActionPublisher receives the per-action log. *cache.Historian satisfies it.
type ActionPublisher interface {
	PublishGameAction(ctx context.Context, rec cache.GameActionRecord) error
}

// Player is a seat's identity at the session layer.
type Player struct {
	ID        uuid.UUID
	Username  string
	Connected bool
	CPU       bool
}

// turnMark remembers which parts of a turn record were already announced.
type turnMark struct {
	round, turn int
	played      bool
	drawn       bool
	yaku        bool
	decision    bool
}

// KoikoiGame is one match between a human and a CPU seat.
type KoikoiGame struct {
	ID        uuid.UUID
	Seed      uint64
	Players   [engine.NumPlayers]*Player
	Engine    *engine.Game
	StartedAt time.Time

	Started  bool
	GameOver bool

	actionIndex    int
	mark           turnMark
	announcedRound int
	settledRound   int
	lastSeen       map[uuid.UUID]time.Time

	Mu sync.Mutex

	BroadcastFn         func(ev GameEvent)
	BroadcastToPlayerFn func(playerID uuid.UUID, ev GameEvent)
	OnGameEnd           OnGameEndFunc

	Historian ActionPublisher // optional
	Store     database.Store  // optional
	SaveWG    *sync.WaitGroup // optional; tracks in-flight saves

	log logrus.FieldLogger
}

// NewKoikoiGame seats humanName at seat 0 against cpu at seat 1.
func NewKoikoiGame(seed uint64, rules engine.Rules, humanName string, cpu engine.Policy, log logrus.FieldLogger) (*KoikoiGame, error) {
	if cpu == nil {
		cpu = engine.FirstMatchPolicy{}
	}
	eng, err := engine.NewGame(seed, rules, [engine.NumPlayers]engine.Seat{
		{Name: humanName},
		{Name: "CPU", Policy: cpu},
	})
	if err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	id := uuid.New()
	g := &KoikoiGame{
		ID:     id,
		Seed:   seed,
		Engine: eng,
		Players: [engine.NumPlayers]*Player{
			{ID: uuid.New(), Username: eng.Player(0).Name()},
			{ID: uuid.New(), Username: eng.Player(1).Name(), CPU: true, Connected: true},
		},
		lastSeen: make(map[uuid.UUID]time.Time),
		log:      log.WithField("game_id", id),
	}
	return g, nil
}

// HumanID returns the ID of the human seat.
func (g *KoikoiGame) HumanID() uuid.UUID { return g.Players[0].ID }

// Start deals round one and runs the CPU until the human must act.
func (g *KoikoiGame) Start() error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Started || g.GameOver {
		return fmt.Errorf("game %s already started", g.ID)
	}
	if err := g.Engine.StartGame(); err != nil {
		return fmt.Errorf("start game: %w", err)
	}
	g.Started = true
	g.StartedAt = time.Now()
	g.log.WithFields(logrus.Fields{"seed": g.Seed, "parent": g.Engine.Parent()}).Info("game started")
	g.logAction(uuid.Nil, string(EventGameStart), map[string]interface{}{
		"seed":   g.Seed,
		"parent": g.Engine.Parent(),
	})
	g.fireEvent(GameEvent{
		Type: EventGameStart,
		Payload: map[string]interface{}{
			"rounds":  g.Engine.Rules().Rounds,
			"players": g.playerNames(),
		},
	})
	g.advance()
	return nil
}

// HandleDisconnect marks a player as gone. The match waits for them.
// Assumes lock is held by caller.
func (g *KoikoiGame) HandleDisconnect(playerID uuid.UUID) {
	p := g.getPlayerByID(playerID)
	if p == nil {
		g.log.WithField("player_id", playerID).Warn("disconnect for unknown player")
		return
	}
	if !p.Connected {
		return
	}
	p.Connected = false
	g.lastSeen[playerID] = time.Now()
	g.log.WithField("player_id", playerID).Info("player disconnected")
	g.logAction(playerID, "player_disconnect", nil)
}

// HandleReconnect marks a player as present and resends their view.
// Assumes lock is held by caller.
func (g *KoikoiGame) HandleReconnect(playerID uuid.UUID) bool {
	p := g.getPlayerByID(playerID)
	if p == nil {
		g.log.WithField("player_id", playerID).Warn("reconnect for unknown player")
		g.logAction(playerID, "player_reconnect_fail", map[string]interface{}{"reason": "player not found"})
		return false
	}
	p.Connected = true
	g.lastSeen[playerID] = time.Now()
	g.log.WithField("player_id", playerID).Info("player reconnected")
	g.logAction(playerID, "player_reconnect", map[string]interface{}{"username": p.Username})
	g.sendSyncState(playerID)
	if g.Started && !g.GameOver {
		g.promptCurrent()
	}
	return true
}

// EndGame records the final standings, persists the match and notifies
// listeners. Assumes lock is held by caller.
func (g *KoikoiGame) EndGame() {
	if g.GameOver {
		return
	}
	g.GameOver = true
	rec := g.matchRecord()

	g.log.WithFields(logrus.Fields{
		"winner": rec.Winner,
		"scores": rec.Scores,
	}).Info("game ended")
	g.logAction(uuid.Nil, string(EventGameEnd), map[string]interface{}{
		"scores": rec.Scores,
		"winner": rec.Winner,
	})

	payload := map[string]interface{}{
		"scores": map[string]int{
			g.Players[0].ID.String(): rec.Scores[0],
			g.Players[1].ID.String(): rec.Scores[1],
		},
		"winner": "",
	}
	if rec.Winner >= 0 {
		payload["winner"] = g.Players[rec.Winner].ID.String()
	}
	g.fireEvent(GameEvent{Type: EventGameEnd, Payload: payload})

	g.persistMatch(rec)
	if g.OnGameEnd != nil {
		g.OnGameEnd(g.ID, rec)
	}
}

// matchRecord flattens the engine history. Assumes lock is held by caller.
func (g *KoikoiGame) matchRecord() database.MatchRecord {
	rec := database.MatchRecord{
		ID:         g.ID,
		Seed:       g.Seed,
		Winner:     -1,
		StartedAt:  g.StartedAt,
		FinishedAt: time.Now(),
	}
	for i, p := range g.Players {
		rec.Players[i] = p.Username
		rec.Scores[i] = g.Engine.Player(i).TotalScore()
	}
	if w, ok := g.Engine.Winner(); ok {
		rec.Winner = w
	}
	for _, r := range g.Engine.History() {
		rr := database.RoundRecord{
			Round:         r.Round,
			Winner:        r.Winner,
			Draw:          r.Draw,
			BasePoints:    r.BasePoints,
			Points:        r.Points,
			KoikoiDoubled: r.KoikoiDoubled,
			HighDoubled:   r.HighDoubled,
		}
		for _, y := range r.Yaku {
			rr.Yaku = append(rr.Yaku, y.Yaku.String())
		}
		rec.Rounds = append(rec.Rounds, rr)
	}
	return rec
}

// persistMatch saves rec without holding up the caller.
func (g *KoikoiGame) persistMatch(rec database.MatchRecord) {
	if g.Store == nil {
		return
	}
	store, log, wg := g.Store, g.log, g.SaveWG
	if wg != nil {
		wg.Add(1)
	}
	go func() {
		if wg != nil {
			defer wg.Done()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.SaveMatch(ctx, rec); err != nil {
			log.WithError(err).Error("failed to persist match")
			return
		}
		log.Debug("match persisted")
	}()
}

func (g *KoikoiGame) getPlayerByID(id uuid.UUID) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (g *KoikoiGame) seatOf(id uuid.UUID) int {
	for i, p := range g.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (g *KoikoiGame) playerNames() []string {
	out := make([]string, len(g.Players))
	for i, p := range g.Players {
		out[i] = p.Username
	}
	return out
}

func (g *KoikoiGame) eventUser(seat int) *EventUser {
	return &EventUser{ID: g.Players[seat].ID, Seat: seat}
}

// fireEvent broadcasts ev to every seat. Assumes lock is held by caller.
func (g *KoikoiGame) fireEvent(ev GameEvent) {
	if g.BroadcastFn != nil {
		g.BroadcastFn(ev)
	}
}

// fireEventToPlayer sends ev to one seat. Assumes lock is held by caller.
func (g *KoikoiGame) fireEventToPlayer(playerID uuid.UUID, ev GameEvent) {
	if g.BroadcastToPlayerFn == nil {
		g.log.WithField("event", ev.Type).Warn("no private broadcaster set")
		return
	}
	g.BroadcastToPlayerFn(playerID, ev)
}

// sendSyncState sends one player their obfuscated view.
// Assumes lock is held by caller.
func (g *KoikoiGame) sendSyncState(playerID uuid.UUID) {
	state := g.GetCurrentObfuscatedGameState(playerID)
	g.fireEventToPlayer(playerID, GameEvent{Type: EventPrivateSyncState, State: &state})
}

// broadcastSyncStateToAll sends every connected human their own view.
// Assumes lock is held by caller.
func (g *KoikoiGame) broadcastSyncStateToAll() {
	for _, p := range g.Players {
		if p.CPU || !p.Connected {
			continue
		}
		g.sendSyncState(p.ID)
	}
}

// logAction hands a record to the historian in the background.
// Assumes lock is held by caller.
func (g *KoikoiGame) logAction(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	g.actionIndex++
	if g.Historian == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.GameActionRecord{
		GameID:        g.ID,
		ActionIndex:   g.actionIndex,
		ActorUserID:   actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	hist, log := g.Historian, g.log
	go func(rec cache.GameActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := hist.PublishGameAction(ctx, rec); err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"action_index": rec.ActionIndex,
				"action_type":  rec.ActionType,
			}).Error("failed publishing action")
		}
	}(record)
}
