// Package engine implements the Hanafuda Koi-Koi rules.
//
// The engine is single-threaded and synchronous: every entry point runs to
// completion and either applies a full state transition or returns an error
// and leaves the game untouched. Randomness comes only from the seed passed
// to NewGame, so a seed fully determines a match for a fixed input sequence.
package engine

import (
	"fmt"
	"math/rand/v2"
)

// NumPlayers is fixed; Koi-Koi is a two-player game.
const NumPlayers = 2

// Seat configures one participant. A nil Policy makes the seat human-driven.
type Seat struct {
	Name   string
	Policy Policy
}

// DefaultSeats is one human against the baseline CPU.
func DefaultSeats() [NumPlayers]Seat {
	return [NumPlayers]Seat{
		{Name: "You"},
		{Name: "CPU", Policy: FirstMatchPolicy{}},
	}
}

// Game runs a multi-round match. It owns the players and the round counter;
// each Round owns its deck and field.
type Game struct {
	rules   Rules
	seed    uint64
	rng     *rand.Rand
	players [NumPlayers]*Player

	started  bool
	over     bool
	roundNum int
	parent   int
	round    *Round
	history  []RoundResult
}

// NewGame creates a match. Call StartGame to pick a parent and deal.
func NewGame(seed uint64, rules Rules, seats [NumPlayers]Seat) (*Game, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	g := &Game{rules: rules, seed: seed, rng: newRNG(seed)}
	for i, s := range seats {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("Player %d", i+1)
		}
		g.players[i] = NewPlayer(name, s.Policy)
	}
	return g, nil
}

// StartGame resets totals, picks the first parent and deals round one.
func (g *Game) StartGame() error {
	for _, p := range g.players {
		p.resetMatch()
	}
	g.started = true
	g.over = false
	g.history = nil
	g.roundNum = 1
	g.parent = g.pickParent()
	return g.StartRound()
}

// pickParent turns one card for each player from a fresh deck; the earlier
// month deals first. Ties are redrawn.
func (g *Game) pickParent() int {
	for {
		d := NewDeck(g.rng)
		pair := d.Deal(2)
		a, b := pair[0], pair[1]
		if a.Month() < b.Month() {
			return 0
		}
		if b.Month() < a.Month() {
			return 1
		}
	}
}

// StartRound deals the current round from a freshly shuffled deck.
func (g *Game) StartRound() error {
	if !g.started {
		return ErrGameNotStarted
	}
	if g.over {
		return ErrGameOver
	}
	for i, p := range g.players {
		p.isParent = i == g.parent
	}
	r := newRound(g.rules, &g.players, g.roundNum, g.parent)
	if err := r.deal(NewDeck(g.rng)); err != nil {
		return err
	}
	g.round = r
	return nil
}

// NextRound moves past a settled round. The round winner, or the parent on
// a draw, deals next. After the last round the match ends.
func (g *Game) NextRound() error {
	if g.over {
		return ErrGameOver
	}
	if g.round == nil || g.round.phase != PhaseRoundEnd {
		return ErrRoundNotOver
	}
	res := g.round.result.clone()
	g.history = append(g.history, res)
	g.parent = res.Winner
	g.roundNum++
	if g.roundNum > g.rules.Rounds {
		g.over = true
		return nil
	}
	return g.StartRound()
}

// PlayCard plays c for the human whose turn it is.
func (g *Game) PlayCard(c Card) error {
	if err := g.expect(PhasePlayerTurn); err != nil {
		return err
	}
	return g.round.executeTurn(c)
}

// CPUTakeTurn lets the automated current player act.
func (g *Game) CPUTakeTurn() error {
	if err := g.expect(PhaseCPUTurn); err != nil {
		return err
	}
	p := g.players[g.round.current]
	c, ok := p.policy.ChooseCard(p, g.round.field.Cards())
	if !ok {
		return ErrEmptyHand
	}
	if !p.HasCard(c) {
		// A policy may not invent cards.
		c, _ = p.ChooseCard(g.round.field.Cards())
	}
	return g.round.executeTurn(c)
}

// ChooseCapture settles a pending multi-match with one of its candidates.
func (g *Game) ChooseCapture(c Card) error {
	if err := g.active(); err != nil {
		return err
	}
	return g.round.chooseCapture(c)
}

// Koikoi resolves a pending decision by continuing the round.
func (g *Game) Koikoi() error {
	if err := g.active(); err != nil {
		return err
	}
	return g.round.koikoi()
}

// Shobu resolves a pending decision by claiming the round.
func (g *Game) Shobu() error {
	if err := g.active(); err != nil {
		return err
	}
	return g.round.shobu()
}

func (g *Game) active() error {
	switch {
	case !g.started || g.round == nil:
		return ErrGameNotStarted
	case g.over:
		return ErrGameOver
	}
	return nil
}

func (g *Game) expect(phase Phase) error {
	if err := g.active(); err != nil {
		return err
	}
	if g.round.phase != phase {
		return fmt.Errorf("%w (phase %s)", ErrNotYourTurn, g.round.phase)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Query methods
// ---------------------------------------------------------------------------

// Phase returns the state machine's current phase.
func (g *Game) Phase() Phase {
	switch {
	case g.over:
		return PhaseGameEnd
	case g.round == nil:
		return PhaseIdle
	}
	return g.round.phase
}

func (g *Game) Rules() Rules         { return g.rules }
func (g *Game) Seed() uint64         { return g.seed }
func (g *Game) RoundNumber() int     { return g.roundNum }
func (g *Game) IsOver() bool         { return g.over }
func (g *Game) Player(i int) *Player { return g.players[i] }

// CurrentPlayer returns the seat index of the acting player, or -1.
func (g *Game) CurrentPlayer() int {
	if g.round == nil || g.over {
		return -1
	}
	return g.round.current
}

// Parent returns the seat index of the current parent.
func (g *Game) Parent() int { return g.parent }

// FieldCards returns the table cards in table order.
func (g *Game) FieldCards() []Card {
	if g.round == nil {
		return nil
	}
	return g.round.field.Cards()
}

// DeckRemaining returns the size of the draw pile.
func (g *Game) DeckRemaining() int {
	if g.round == nil || g.round.deck == nil {
		return 0
	}
	return g.round.deck.Len()
}

// PendingCapture returns the card awaiting a capture choice and its
// candidates. ok is false when no choice is pending.
func (g *Game) PendingCapture() (played Card, candidates []Card, ok bool) {
	if g.round == nil || g.round.pending == nil {
		return EmptyCard, nil, false
	}
	res := g.round.pending.res
	return res.Card, cloneCards(res.Candidates), true
}

// RoundResult returns the settled result of the current round.
func (g *Game) RoundResult() (RoundResult, bool) {
	if g.round == nil || g.round.result == nil {
		return RoundResult{}, false
	}
	return g.round.result.clone(), true
}

// RoundWinner returns the seat index that won the current round.
func (g *Game) RoundWinner() (int, bool) {
	res, ok := g.RoundResult()
	return res.Winner, ok
}

// History returns the results of every round already passed with NextRound.
func (g *Game) History() []RoundResult {
	out := make([]RoundResult, len(g.history))
	for i, r := range g.history {
		out[i] = r.clone()
	}
	return out
}

// LastTurn returns the record of the most recent turn in this round.
func (g *Game) LastTurn() TurnRecord {
	if g.round == nil {
		return TurnRecord{}
	}
	return g.round.turn.clone()
}

// Winner returns the seat with the higher total once the match is over.
// ok is false while the match runs or when totals are tied.
func (g *Game) Winner() (int, bool) {
	if !g.over {
		return -1, false
	}
	a, b := g.players[0].totalScore, g.players[1].totalScore
	switch {
	case a > b:
		return 0, true
	case b > a:
		return 1, true
	}
	return -1, false
}

// Audit checks that every catalog card is in exactly one container.
func (g *Game) Audit() error {
	if g.round == nil {
		return nil
	}
	var seen [DeckSize]int
	mark := func(cards []Card) {
		for _, c := range cards {
			if c.Valid() {
				seen[c]++
			}
		}
	}
	mark(g.round.field.cards)
	if g.round.deck != nil {
		mark(g.round.deck.cards)
	}
	for _, p := range g.players {
		mark(p.hand)
		mark(p.captured)
	}
	if n := g.round.inPlay(); n != DeckSize {
		return fmt.Errorf("%w: %d cards in play, want %d", ErrInvariant, n, DeckSize)
	}
	for c, n := range seen {
		if n != 1 {
			return fmt.Errorf("%w: %s appears %d times", ErrInvariant, Card(c), n)
		}
	}
	return nil
}
