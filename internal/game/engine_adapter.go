package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
	"github.com/jason-s-yu/koikoi/engine"
	"github.com/sirupsen/logrus"
)

// ErrBadPayload is returned when an action's payload cannot be read.
var ErrBadPayload = errors.New("bad action payload")

// HandlePlayerAction applies one client action from playerID.
// Assumes lock is held by caller.
func (g *KoikoiGame) HandlePlayerAction(playerID uuid.UUID, action GameAction) {
	seat := g.seatOf(playerID)
	if seat < 0 || g.Players[seat].CPU {
		g.log.WithField("player_id", playerID).Warn("action from unknown player")
		return
	}
	log := g.log.WithFields(logrus.Fields{"player_id": playerID, "action": action.ActionType})

	if action.ActionType == ActionSync {
		g.sendSyncState(playerID)
		return
	}
	if !g.Started || g.GameOver {
		g.rejectAction(playerID, action, errors.New("game is not running"))
		return
	}
	if err := g.applyAction(seat, action); err != nil {
		log.WithError(err).Debug("action rejected")
		g.rejectAction(playerID, action, err)
		return
	}
	log.Debug("action applied")
	g.advance()
}

// applyAction forwards a validated seat's action to the engine.
func (g *KoikoiGame) applyAction(seat int, action GameAction) error {
	e := g.Engine
	if action.ActionType != ActionNextRound && e.CurrentPlayer() != seat {
		return engine.ErrNotYourTurn
	}
	actor := g.Players[seat].ID

	switch action.ActionType {
	case ActionPlayCard:
		c, err := payloadCard(action.Payload)
		if err != nil {
			return err
		}
		if err := e.PlayCard(c); err != nil {
			return err
		}
		g.logAction(actor, ActionPlayCard, map[string]interface{}{"card": int(c)})
	case ActionChooseCapture:
		c, err := payloadCard(action.Payload)
		if err != nil {
			return err
		}
		if err := e.ChooseCapture(c); err != nil {
			return err
		}
		g.logAction(actor, ActionChooseCapture, map[string]interface{}{"card": int(c)})
	case ActionKoikoi:
		if err := e.Koikoi(); err != nil {
			return err
		}
		g.logAction(actor, ActionKoikoi, nil)
	case ActionShobu:
		if err := e.Shobu(); err != nil {
			return err
		}
		g.logAction(actor, ActionShobu, nil)
	case ActionNextRound:
		if err := e.NextRound(); err != nil {
			return err
		}
		g.logAction(actor, ActionNextRound, map[string]interface{}{"round": e.RoundNumber()})
	default:
		return fmt.Errorf("unknown action %q", action.ActionType)
	}
	return nil
}

func (g *KoikoiGame) rejectAction(playerID uuid.UUID, action GameAction, err error) {
	g.fireEventToPlayer(playerID, GameEvent{
		Type: EventPrivateError,
		Payload: map[string]interface{}{
			"action":  action.ActionType,
			"message": err.Error(),
		},
	})
}

// advance announces what the last step did, lets the CPU act until a human
// is needed, then prompts them. Assumes lock is held by caller.
func (g *KoikoiGame) advance() {
	e := g.Engine
	g.announceRound()
	g.emitTurnEvents()

	for e.Phase() == engine.PhaseCPUTurn {
		if err := e.CPUTakeTurn(); err != nil {
			g.log.WithError(err).Error("cpu turn failed")
			break
		}
		g.logCPUTurn()
		g.emitTurnEvents()
	}
	if err := e.Audit(); err != nil {
		g.log.WithError(err).Error("card audit failed")
	}

	switch e.Phase() {
	case engine.PhaseRoundEnd:
		g.announceRoundEnd()
	case engine.PhaseGameEnd:
		g.EndGame()
	}
	g.broadcastSyncStateToAll()
	g.promptCurrent()
}

// promptCurrent tells the acting human what the engine is waiting for.
// Assumes lock is held by caller.
func (g *KoikoiGame) promptCurrent() {
	e := g.Engine
	seat := e.CurrentPlayer()
	if seat < 0 || g.GameOver {
		return
	}
	p := g.Players[seat]
	switch e.Phase() {
	case engine.PhasePlayerTurn:
		g.fireEvent(GameEvent{Type: EventGamePlayerTurn, User: g.eventUser(seat)})
	case engine.PhaseChooseCapture:
		played, cands, ok := e.PendingCapture()
		if !ok {
			return
		}
		card := toEventCard(played)
		g.fireEvent(GameEvent{
			Type:  EventPlayerChoice,
			User:  g.eventUser(seat),
			Card:  &card,
			Cards: toEventCards(cands),
		})
	case engine.PhaseDecision:
		g.fireEventToPlayer(p.ID, GameEvent{
			Type: EventPrivateDecision,
			User: g.eventUser(seat),
			Payload: map[string]interface{}{
				"roundScore": e.Player(seat).RoundScore(),
				"yaku":       toYakuViews(e.Player(seat).ActiveYaku()),
			},
		})
	}
}

// announceRound fires round_start once per dealt round.
func (g *KoikoiGame) announceRound() {
	e := g.Engine
	n := e.RoundNumber()
	if n == g.announcedRound || e.IsOver() || e.CurrentPlayer() < 0 {
		return
	}
	g.announcedRound = n
	g.log.WithFields(logrus.Fields{"round": n, "parent": e.Parent()}).Info("round started")
	g.logAction(uuid.Nil, string(EventRoundStart), map[string]interface{}{
		"round":  n,
		"parent": e.Parent(),
	})
	g.fireEvent(GameEvent{
		Type:  EventRoundStart,
		User:  g.eventUser(e.Parent()),
		Cards: toEventCards(e.FieldCards()),
		Payload: map[string]interface{}{
			"round":    n,
			"deckSize": e.DeckRemaining(),
		},
	})
}

// announceRoundEnd fires round_end once per settled round.
func (g *KoikoiGame) announceRoundEnd() {
	res, ok := g.Engine.RoundResult()
	if !ok || res.Round == g.settledRound {
		return
	}
	g.settledRound = res.Round
	payload := map[string]interface{}{
		"round":         res.Round,
		"draw":          res.Draw,
		"basePoints":    res.BasePoints,
		"points":        res.Points,
		"koikoiDoubled": res.KoikoiDoubled,
		"highDoubled":   res.HighDoubled,
		"yaku":          toYakuViews(res.Yaku),
		"totals":        []int{g.Engine.Player(0).TotalScore(), g.Engine.Player(1).TotalScore()},
	}
	g.log.WithFields(logrus.Fields{
		"round":  res.Round,
		"winner": res.Winner,
		"points": res.Points,
		"draw":   res.Draw,
	}).Info("round ended")
	g.logAction(uuid.Nil, string(EventRoundEnd), payload)
	g.fireEvent(GameEvent{Type: EventRoundEnd, User: g.eventUser(res.Winner), Payload: payload})
}

// emitTurnEvents broadcasts the parts of the latest turn record that have
// not been sent yet. Unresolved multi-matches wait for the pick.
func (g *KoikoiGame) emitTurnEvents() {
	t := g.Engine.LastTurn()
	if t.Turn == 0 {
		return
	}
	if t.Round != g.mark.round || t.Turn != g.mark.turn {
		g.mark = turnMark{round: t.Round, turn: t.Turn}
	}
	user := g.eventUser(t.Player)

	if !g.mark.played && t.Played.Kind != engine.ResolutionNeedsChoice && t.Played.Card.Valid() {
		g.mark.played = true
		g.fireEvent(resolutionEvent(EventPlayerPlayCard, user, t.Played))
	}
	if !g.mark.drawn && t.Drawn != nil && t.Drawn.Kind != engine.ResolutionNeedsChoice {
		g.mark.drawn = true
		g.fireEvent(resolutionEvent(EventPlayerDrawCard, user, *t.Drawn))
	}
	if !g.mark.yaku && len(t.Yaku) > 0 {
		g.mark.yaku = true
		g.fireEvent(GameEvent{
			Type: EventPlayerYaku,
			User: user,
			Payload: map[string]interface{}{
				"yaku":   toYakuViews(t.Yaku),
				"points": engine.TotalPoints(t.Yaku),
			},
		})
	}
	if !g.mark.decision && t.Decision != engine.DecisionNone {
		g.mark.decision = true
		typ := EventPlayerKoikoi
		if t.Decision == engine.DecisionShobu {
			typ = EventPlayerShobu
		}
		g.fireEvent(GameEvent{Type: typ, User: user})
	}
}

func resolutionEvent(typ GameEventType, user *EventUser, res engine.Resolution) GameEvent {
	card := toEventCard(res.Card)
	ev := GameEvent{
		Type:    typ,
		User:    user,
		Card:    &card,
		Payload: map[string]interface{}{"result": res.Kind.String()},
	}
	if res.Kind == engine.ResolutionCaptured {
		ev.Cards = toEventCards(res.Captured[1:])
	}
	return ev
}

// logCPUTurn records the CPU seat's last turn in the action log.
func (g *KoikoiGame) logCPUTurn() {
	t := g.Engine.LastTurn()
	payload := map[string]interface{}{
		"round":  t.Round,
		"turn":   t.Turn,
		"played": int(t.Played.Card),
	}
	if t.Drawn != nil {
		payload["drawn"] = int(t.Drawn.Card)
	}
	if t.Decision != engine.DecisionNone {
		payload["decision"] = t.Decision.String()
	}
	g.logAction(g.Players[t.Player].ID, "cpu_turn", payload)
}

// payloadCard reads the card id under payload["card"]. JSON numbers arrive
// as float64 from a generic decode.
func payloadCard(payload map[string]interface{}) (engine.Card, error) {
	raw, ok := payload["card"]
	if !ok {
		return engine.EmptyCard, fmt.Errorf("%w: missing card", ErrBadPayload)
	}
	var id int64
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return engine.EmptyCard, fmt.Errorf("%w: card %v is not an integer", ErrBadPayload, v)
		}
		id = int64(v)
	case int:
		id = int64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return engine.EmptyCard, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		id = n
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return engine.EmptyCard, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		id = n
	default:
		return engine.EmptyCard, fmt.Errorf("%w: card has type %T", ErrBadPayload, raw)
	}
	if id < 0 || id >= engine.DeckSize {
		return engine.EmptyCard, fmt.Errorf("%w: card %d out of range", ErrBadPayload, id)
	}
	return engine.Card(id), nil
}
