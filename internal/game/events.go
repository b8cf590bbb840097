package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/koikoi/engine"
)

// GameEventType names an event sent to the browser.
type GameEventType string

const (
	EventGameStart        GameEventType = "game_start"
	EventRoundStart       GameEventType = "round_start"
	EventGamePlayerTurn   GameEventType = "game_player_turn"
	EventPlayerPlayCard   GameEventType = "player_play_card"      // Public: hand card met the field.
	EventPlayerDrawCard   GameEventType = "player_draw_card"      // Public: deck card met the field.
	EventPlayerChoice     GameEventType = "player_capture_choice" // Public: a multi-match awaits a pick.
	EventPlayerYaku       GameEventType = "player_yaku"           // Public: a player's yaku total went up.
	EventPlayerKoikoi     GameEventType = "player_koikoi"
	EventPlayerShobu      GameEventType = "player_shobu"
	EventRoundEnd         GameEventType = "round_end"
	EventGameEnd          GameEventType = "game_end"
	EventPrivateDecision  GameEventType = "private_decision"   // Private: choose koikoi or shobu.
	EventPrivateSyncState GameEventType = "private_sync_state" // Private: full obfuscated state.
	EventPrivateError     GameEventType = "private_error"      // Private: the last action was rejected.
	EventPrivateSession   GameEventType = "private_session"    // Private: resume token for this seat.
)

// Client action types.
const (
	ActionPlayCard      = "play_card"
	ActionChooseCapture = "choose_capture"
	ActionKoikoi        = "koikoi"
	ActionShobu         = "shobu"
	ActionNextRound     = "next_round"
	ActionSync          = "sync"
)

// GameAction is one client intent. Card-bearing actions carry the card id
// under Payload["card"].
type GameAction struct {
	ActionType string                 `json:"type"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// EventUser identifies a player in an event.
type EventUser struct {
	ID   uuid.UUID `json:"id"`
	Seat int       `json:"seat"`
}

// EventCard is a card as the browser sees it.
type EventCard struct {
	ID       int    `json:"id"`
	Month    int    `json:"month"`
	Category string `json:"category"`
	Name     string `json:"name"`
	Points   int    `json:"points"`
}

// GameEvent is the envelope for everything pushed to a client.
type GameEvent struct {
	Type    GameEventType          `json:"type"`
	User    *EventUser             `json:"user,omitempty"`
	Card    *EventCard             `json:"card,omitempty"`
	Cards   []EventCard            `json:"cards,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	State   *ObfGameState          `json:"state,omitempty"`
}

// YakuView is a scored combination for display.
type YakuView struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
}

func toEventCard(c engine.Card) EventCard {
	return EventCard{
		ID:       int(c),
		Month:    c.Month(),
		Category: c.Category().String(),
		Name:     c.Name(),
		Points:   c.Points(),
	}
}

func toEventCards(cards []engine.Card) []EventCard {
	if len(cards) == 0 {
		return nil
	}
	out := make([]EventCard, len(cards))
	for i, c := range cards {
		out[i] = toEventCard(c)
	}
	return out
}

func toYakuViews(yaku []engine.YakuScore) []YakuView {
	if len(yaku) == 0 {
		return nil
	}
	out := make([]YakuView, len(yaku))
	for i, y := range yaku {
		out[i] = YakuView{Name: y.Yaku.String(), Points: y.Points}
	}
	return out
}
