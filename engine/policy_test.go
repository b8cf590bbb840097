package engine

import "testing"

func TestFirstMatchDecideKoikoi(t *testing.T) {
	p := NewPlayer("CPU", FirstMatchPolicy{})
	opp := NewPlayer("You", nil)
	if d := (FirstMatchPolicy{}).DecideKoikoi(p, opp); d != DecisionKoikoi {
		t.Errorf("first decision = %s, want koikoi", d)
	}
	p.calledKoikoi = true
	if d := (FirstMatchPolicy{}).DecideKoikoi(p, opp); d != DecisionShobu {
		t.Errorf("second decision = %s, want shobu", d)
	}
}

// TestGreedyChooseCard verifies the greedy pick prefers the capture that
// completes a yaku.
func TestGreedyChooseCard(t *testing.T) {
	p := NewPlayer("CPU", GreedyPolicy{})
	p.Capture(CardDeer, CardButterfly)
	p.AddToHand(Card(46), CardBoar, Card(14))

	field := []Card{Card(47), Card(26), Card(15)}
	if c, ok := (GreedyPolicy{}).ChooseCard(p, field); !ok || c != CardBoar {
		t.Errorf("ChooseCard = %s, %v; want %s", c, ok, CardBoar)
	}
}

// TestGreedyDiscardsCheapest verifies the fallback when nothing matches.
func TestGreedyDiscardsCheapest(t *testing.T) {
	p := NewPlayer("CPU", GreedyPolicy{})
	p.AddToHand(CardCrane, CardBoar, Card(46))
	if c, _ := (GreedyPolicy{}).ChooseCard(p, []Card{Card(14)}); c != Card(46) {
		t.Errorf("ChooseCard = %s, want %s", c, Card(46))
	}
	empty := NewPlayer("CPU", GreedyPolicy{})
	if _, ok := (GreedyPolicy{}).ChooseCard(empty, nil); ok {
		t.Error("ChooseCard on empty hand reported ok")
	}
}

func TestGreedyChooseCapture(t *testing.T) {
	p := NewPlayer("CPU", GreedyPolicy{})
	p.Capture(CardCrane, CardPhoenix)
	got := (GreedyPolicy{}).ChooseCapture(p, Card(10), []Card{Card(11), CardCurtain})
	if got != CardCurtain {
		t.Errorf("ChooseCapture = %s, want %s", got, CardCurtain)
	}
	if d := (GreedyPolicy{}).DecideKoikoi(p, nil); d != DecisionShobu {
		t.Errorf("DecideKoikoi = %s, want shobu", d)
	}
}

// TestCPUFallsBackOnInventedCard verifies a policy cannot play a card it
// does not hold.
func TestCPUFallsBackOnInventedCard(t *testing.T) {
	g := stage(t, [NumPlayers]Seat{{Name: "A"}, {Name: "Cheat", Policy: cheatPolicy{}}}, 1, layout{
		hands: [NumPlayers][]Card{{Card(46)}, {Card(14), Card(47)}},
		field: []Card{Card(45)},
		deck:  []Card{Card(18)},
	})
	if err := g.CPUTakeTurn(); err != nil {
		t.Fatal(err)
	}
	mustAudit(t, g)
	if g.LastTurn().Played.Card != Card(47) {
		t.Errorf("played %s, want fallback %s", g.LastTurn().Played.Card, Card(47))
	}
}

type cheatPolicy struct{ FirstMatchPolicy }

func (cheatPolicy) ChooseCard(*Player, []Card) (Card, bool) { return CardPhoenix, true }
