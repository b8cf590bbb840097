package engine

// Decision is a player's answer after forming a new yaku.
type Decision uint8

const (
	DecisionNone   Decision = iota
	DecisionKoikoi          // keep playing
	DecisionShobu           // stop and claim the round
)

var decisionNames = [...]string{
	DecisionNone:   "none",
	DecisionKoikoi: "koikoi",
	DecisionShobu:  "shobu",
}

func (d Decision) String() string {
	if int(d) < len(decisionNames) {
		return decisionNames[d]
	}
	return "unknown"
}

// Policy drives an automated seat. Implementations must only read the
// players they are given.
type Policy interface {
	// ChooseCard picks the hand card to play. It reports false only when
	// the hand is empty.
	ChooseCard(self *Player, field []Card) (Card, bool)
	// ChooseCapture picks which of several same-month field cards to take.
	ChooseCapture(self *Player, played Card, candidates []Card) Card
	// DecideKoikoi is asked after self improves its yaku total.
	DecideKoikoi(self, opponent *Player) Decision
}

// FirstMatchPolicy is the baseline CPU: play the first matching card, take
// the first candidate, call koi-koi once per round and then stop.
type FirstMatchPolicy struct{}

func (FirstMatchPolicy) ChooseCard(self *Player, field []Card) (Card, bool) {
	return self.ChooseCard(field)
}

func (FirstMatchPolicy) ChooseCapture(_ *Player, _ Card, candidates []Card) Card {
	if len(candidates) == 0 {
		return EmptyCard
	}
	return candidates[0]
}

func (FirstMatchPolicy) DecideKoikoi(self, _ *Player) Decision {
	if self.HasCalledKoikoi() {
		return DecisionShobu
	}
	return DecisionKoikoi
}

// GreedyPolicy prefers captures that complete or extend yaku and stops as
// soon as it has anything to bank.
type GreedyPolicy struct{}

func (GreedyPolicy) ChooseCard(self *Player, field []Card) (Card, bool) {
	if len(self.hand) == 0 {
		return EmptyCard, false
	}
	best, bestGain := self.hand[0], -1
	for _, h := range self.hand {
		for _, f := range field {
			if h.Month() != f.Month() {
				continue
			}
			if gain := captureGain(self.captured, h, f); gain > bestGain {
				best, bestGain = h, gain
			}
		}
	}
	if bestGain >= 0 {
		return best, true
	}
	// Nothing matches: give away the least valuable card.
	for _, h := range self.hand {
		if h.Points() < best.Points() {
			best = h
		}
	}
	return best, true
}

func (GreedyPolicy) ChooseCapture(self *Player, played Card, candidates []Card) Card {
	if len(candidates) == 0 {
		return EmptyCard
	}
	best, bestGain := candidates[0], -1
	for _, c := range candidates {
		if gain := captureGain(self.captured, played, c); gain > bestGain {
			best, bestGain = c, gain
		}
	}
	return best
}

func (GreedyPolicy) DecideKoikoi(_, _ *Player) Decision { return DecisionShobu }

// captureGain scores a prospective capture by the yaku points it adds,
// breaking ties on face value.
func captureGain(captured []Card, cards ...Card) int {
	before := TotalPoints(EvaluateYaku(captured))
	next := append(cloneCards(captured), cards...)
	after := TotalPoints(EvaluateYaku(next))
	face := 0
	for _, c := range cards {
		face += c.Points()
	}
	return (after-before)*100 + face
}
