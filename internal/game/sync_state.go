package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/koikoi/engine"
)

// ObfPlayerState is one seat as seen by a particular observer. Hand is only
// filled in for the observer's own seat.
type ObfPlayerState struct {
	PlayerID      uuid.UUID   `json:"playerId"`
	Username      string      `json:"username"`
	Seat          int         `json:"seat"`
	CPU           bool        `json:"cpu"`
	Connected     bool        `json:"connected"`
	IsParent      bool        `json:"isParent"`
	IsCurrentTurn bool        `json:"isCurrentTurn"`
	HandSize      int         `json:"handSize"`
	Hand          []EventCard `json:"hand,omitempty"`
	Captured      []EventCard `json:"captured,omitempty"`
	ActiveYaku    []YakuView  `json:"activeYaku,omitempty"`
	RoundScore    int         `json:"roundScore"`
	TotalScore    int         `json:"totalScore"`
	CalledKoikoi  bool        `json:"calledKoikoi"`
}

// ObfPending describes a capture choice waiting on the observer.
type ObfPending struct {
	Card       EventCard   `json:"card"`
	Candidates []EventCard `json:"candidates"`
}

// ObfRoundResult is the settled result of the round on the table.
type ObfRoundResult struct {
	Round         int        `json:"round"`
	WinnerID      uuid.UUID  `json:"winnerId"`
	Draw          bool       `json:"draw"`
	BasePoints    int        `json:"basePoints"`
	Points        int        `json:"points"`
	KoikoiDoubled bool       `json:"koikoiDoubled"`
	HighDoubled   bool       `json:"highDoubled"`
	Yaku          []YakuView `json:"yaku,omitempty"`
}

// ObfGameState is the full table for one observer. The deck order and the
// opponent's hand never leave the server.
type ObfGameState struct {
	GameID          uuid.UUID        `json:"gameId"`
	Started         bool             `json:"started"`
	GameOver        bool             `json:"gameOver"`
	Phase           string           `json:"phase"`
	Round           int              `json:"round"`
	Rounds          int              `json:"rounds"`
	CurrentPlayerID uuid.UUID        `json:"currentPlayerId"`
	DeckSize        int              `json:"deckSize"`
	Field           []EventCard      `json:"field"`
	Players         []ObfPlayerState `json:"players"`
	Pending         *ObfPending      `json:"pending,omitempty"`
	Result          *ObfRoundResult  `json:"result,omitempty"`
	Rules           engine.Rules     `json:"rules"`
}

// GetCurrentObfuscatedGameState builds the table as forUser may see it.
// Assumes lock is held by caller.
func (g *KoikoiGame) GetCurrentObfuscatedGameState(forUser uuid.UUID) ObfGameState {
	e := g.Engine
	obf := ObfGameState{
		GameID:   g.ID,
		Started:  g.Started,
		GameOver: g.GameOver,
		Phase:    e.Phase().String(),
		Round:    e.RoundNumber(),
		Rounds:   e.Rules().Rounds,
		DeckSize: e.DeckRemaining(),
		Field:    toEventCards(e.FieldCards()),
		Rules:    e.Rules(),
	}
	if obf.Field == nil {
		obf.Field = []EventCard{}
	}

	current := e.CurrentPlayer()
	if current >= 0 && !g.GameOver {
		obf.CurrentPlayerID = g.Players[current].ID
	}

	obf.Players = make([]ObfPlayerState, len(g.Players))
	for seat, pl := range g.Players {
		ep := e.Player(seat)
		ps := ObfPlayerState{
			PlayerID:      pl.ID,
			Username:      pl.Username,
			Seat:          seat,
			CPU:           pl.CPU,
			Connected:     pl.Connected,
			IsParent:      ep.IsParent(),
			IsCurrentTurn: seat == current && g.Started && !g.GameOver,
			HandSize:      ep.HandLen(),
			Captured:      toEventCards(ep.Captured()),
			ActiveYaku:    toYakuViews(ep.ActiveYaku()),
			RoundScore:    ep.RoundScore(),
			TotalScore:    ep.TotalScore(),
			CalledKoikoi:  ep.HasCalledKoikoi(),
		}
		if pl.ID == forUser {
			ps.Hand = toEventCards(ep.Hand())
		}
		obf.Players[seat] = ps
	}

	// The pending card may still be in the actor's hand, so only the actor
	// sees it.
	if played, cands, ok := e.PendingCapture(); ok && current >= 0 && g.Players[current].ID == forUser {
		obf.Pending = &ObfPending{Card: toEventCard(played), Candidates: toEventCards(cands)}
	}

	if res, ok := e.RoundResult(); ok {
		obf.Result = &ObfRoundResult{
			Round:         res.Round,
			WinnerID:      g.Players[res.Winner].ID,
			Draw:          res.Draw,
			BasePoints:    res.BasePoints,
			Points:        res.Points,
			KoikoiDoubled: res.KoikoiDoubled,
			HighDoubled:   res.HighDoubled,
			Yaku:          toYakuViews(res.Yaku),
		}
	}
	return obf
}
