package engine

import "fmt"

// Player holds one participant's state. The engine mutates it through the
// Game entry points; UIs should treat it as read-only.
type Player struct {
	name     string
	policy   Policy // nil for a human-driven seat
	isParent bool

	hand     []Card
	captured []Card

	activeYaku   []YakuScore
	roundScore   int
	totalScore   int
	calledKoikoi bool
}

// NewPlayer creates a player. A nil policy marks the seat as human-driven.
func NewPlayer(name string, policy Policy) *Player {
	return &Player{name: name, policy: policy}
}

func (p *Player) Name() string          { return p.name }
func (p *Player) IsCPU() bool           { return p.policy != nil }
func (p *Player) IsParent() bool        { return p.isParent }
func (p *Player) Hand() []Card          { return cloneCards(p.hand) }
func (p *Player) Captured() []Card      { return cloneCards(p.captured) }
func (p *Player) RoundScore() int       { return p.roundScore }
func (p *Player) TotalScore() int       { return p.totalScore }
func (p *Player) HasCalledKoikoi() bool { return p.calledKoikoi }
func (p *Player) HandLen() int          { return len(p.hand) }

// ActiveYaku returns the combinations currently backing RoundScore.
func (p *Player) ActiveYaku() []YakuScore { return cloneYaku(p.activeYaku) }

// HasCard reports whether c is in the player's hand.
func (p *Player) HasCard(c Card) bool { return containsCard(p.hand, c) }

// AddToHand gives cards to the player.
func (p *Player) AddToHand(cards ...Card) {
	p.hand = append(p.hand, cards...)
}

// PlayFromHand removes c from the hand and returns it.
func (p *Player) PlayFromHand(c Card) (Card, error) {
	var ok bool
	p.hand, ok = removeCard(p.hand, c)
	if !ok {
		return EmptyCard, fmt.Errorf("%w: %s", ErrCardNotInHand, c)
	}
	return c, nil
}

// Capture moves cards into the captured pile.
func (p *Player) Capture(cards ...Card) {
	p.captured = append(p.captured, cards...)
}

// ChooseCard is the automated pick: the first hand card whose month appears
// on the field, else the first hand card. It reports false on an empty hand.
func (p *Player) ChooseCard(field []Card) (Card, bool) {
	for _, h := range p.hand {
		for _, f := range field {
			if h.Month() == f.Month() {
				return h, true
			}
		}
	}
	if len(p.hand) == 0 {
		return EmptyCard, false
	}
	return p.hand[0], true
}

// resetRound clears everything scoped to a single round.
func (p *Player) resetRound() {
	p.hand = nil
	p.captured = nil
	p.activeYaku = nil
	p.roundScore = 0
	p.calledKoikoi = false
}

// resetMatch clears the running total as well.
func (p *Player) resetMatch() {
	p.resetRound()
	p.totalScore = 0
	p.isParent = false
}
