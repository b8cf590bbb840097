package engine

import "fmt"

// Phase is the current state of the round state machine.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseDealing
	PhasePlayerTurn
	PhaseCPUTurn
	PhaseChooseCapture
	PhaseYakuCheck
	PhaseDecision
	PhaseRoundEnd
	PhaseGameEnd
)

var phaseNames = map[Phase]string{
	PhaseIdle:          "IDLE",
	PhaseDealing:       "DEALING",
	PhasePlayerTurn:    "PLAYER_TURN",
	PhaseCPUTurn:       "CPU_TURN",
	PhaseChooseCapture: "CHOOSE_CAPTURE",
	PhaseYakuCheck:     "YAKU_CHECK",
	PhaseDecision:      "CONTINUE_DECISION",
	PhaseRoundEnd:      "ROUND_END",
	PhaseGameEnd:       "GAME_END",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", uint8(p))
}

// ResolutionKind tags how a played or drawn card met the field.
type ResolutionKind uint8

const (
	ResolutionAdded       ResolutionKind = iota // no match, card joined the field
	ResolutionCaptured                          // card and its match(es) were taken
	ResolutionNeedsChoice                       // several matches, a pick is pending
)

func (k ResolutionKind) String() string {
	switch k {
	case ResolutionAdded:
		return "added"
	case ResolutionCaptured:
		return "captured"
	case ResolutionNeedsChoice:
		return "needs_choice"
	}
	return "unknown"
}

// Resolution is the outcome of putting one card against the field.
type Resolution struct {
	Kind       ResolutionKind
	Card       Card
	Captured   []Card // Card first, then the field cards taken
	Candidates []Card // field matches, in table order
}

func (r Resolution) clone() Resolution {
	r.Captured = cloneCards(r.Captured)
	r.Candidates = cloneCards(r.Candidates)
	return r
}

// TurnRecord describes the most recent turn.
type TurnRecord struct {
	Round    int
	Turn     int
	Player   int
	Played   Resolution
	Drawn    *Resolution
	Yaku     []YakuScore // set only when the turn improved the player's total
	Decision Decision
}

func (t TurnRecord) clone() TurnRecord {
	t.Played = t.Played.clone()
	if t.Drawn != nil {
		d := t.Drawn.clone()
		t.Drawn = &d
	}
	t.Yaku = cloneYaku(t.Yaku)
	return t
}

// RoundResult is the settled outcome of one round.
type RoundResult struct {
	Round         int
	Winner        int // seat index; on a draw, the parent
	Draw          bool
	BasePoints    int
	Points        int // after doublings, added to the winner's total
	KoikoiDoubled bool
	HighDoubled   bool
	Yaku          []YakuScore
}

func (r RoundResult) clone() RoundResult {
	r.Yaku = cloneYaku(r.Yaku)
	return r
}

type turnStage uint8

const (
	stageHand turnStage = iota
	stageDraw
)

type pendingCapture struct {
	stage turnStage
	res   Resolution
}

// Round runs one deal from DEALING to ROUND_END. It owns the deck and field.
type Round struct {
	rules   Rules
	players *[2]*Player
	deck    *Deck
	field   Field

	number  int
	parent  int
	current int
	phase   Phase
	turns   int

	pending *pendingCapture
	turn    TurnRecord
	result  *RoundResult
}

func newRound(rules Rules, players *[2]*Player, number, parent int) *Round {
	return &Round{
		rules:   rules,
		players: players,
		number:  number,
		parent:  parent,
		current: parent,
		phase:   PhaseDealing,
	}
}

// deal resets both players and the table and hands out a fresh deck.
func (r *Round) deal(deck *Deck) error {
	if need := 2*r.rules.HandSize + r.rules.FieldSize; deck.Len() < need {
		return fmt.Errorf("%w: need %d cards, deck has %d", ErrDeckUnderflow, need, deck.Len())
	}
	r.phase = PhaseDealing
	r.deck = deck
	r.field.Clear()
	for _, p := range r.players {
		p.resetRound()
	}
	r.players[r.parent].AddToHand(deck.Deal(r.rules.HandSize)...)
	r.players[1-r.parent].AddToHand(deck.Deal(r.rules.HandSize)...)
	r.field.Add(deck.Deal(r.rules.FieldSize)...)
	r.current = r.parent
	r.phase = r.turnPhase()
	return nil
}

func (r *Round) turnPhase() Phase {
	if r.players[r.current].IsCPU() {
		return PhaseCPUTurn
	}
	return PhasePlayerTurn
}

// classify works out how c would resolve without touching any container.
func (r *Round) classify(c Card) Resolution {
	matches := r.field.FindMatches(c)
	res := Resolution{Card: c, Candidates: matches}
	switch {
	case len(matches) == 0:
		res.Kind = ResolutionAdded
	case len(matches) == 1, len(matches) == 3 && r.rules.CaptureAllFour:
		res.Kind = ResolutionCaptured
		res.Captured = append([]Card{c}, matches...)
	default:
		res.Kind = ResolutionNeedsChoice
	}
	return res
}

// pick turns a NeedsChoice resolution into a two-card capture.
func pick(res Resolution, choice Card) Resolution {
	res.Kind = ResolutionCaptured
	res.Captured = []Card{res.Card, choice}
	return res
}

// commit applies res once its card has left the hand or deck.
func (r *Round) commit(p *Player, res Resolution) {
	switch res.Kind {
	case ResolutionAdded:
		r.field.Add(res.Card)
	case ResolutionCaptured:
		for _, m := range res.Captured[1:] {
			r.field.Remove(m)
		}
		p.Capture(res.Captured...)
	}
}

// autoPick asks a policy to settle a multi-match. An answer outside the
// candidates falls back to the first one.
func autoPick(p *Player, res Resolution) Resolution {
	choice := p.policy.ChooseCapture(p, res.Card, cloneCards(res.Candidates))
	if !containsCard(res.Candidates, choice) {
		choice = res.Candidates[0]
	}
	return pick(res, choice)
}

// executeTurn plays c from the acting player's hand, then draws.
func (r *Round) executeTurn(c Card) error {
	p := r.players[r.current]
	if !p.HasCard(c) {
		return fmt.Errorf("%w: %s", ErrCardNotInHand, c)
	}
	r.turns++
	r.turn = TurnRecord{Round: r.number, Turn: r.turns, Player: r.current}

	res := r.classify(c)
	if res.Kind == ResolutionNeedsChoice {
		if !p.IsCPU() {
			r.pending = &pendingCapture{stage: stageHand, res: res}
			r.turn.Played = res
			r.phase = PhaseChooseCapture
			return nil
		}
		res = autoPick(p, res)
	}
	if _, err := p.PlayFromHand(c); err != nil {
		return err
	}
	r.commit(p, res)
	r.turn.Played = res
	r.drawStep()
	return nil
}

// drawStep turns over the top of the deck for the acting player.
func (r *Round) drawStep() {
	p := r.players[r.current]
	c, ok := r.deck.Peek()
	if !ok {
		r.checkYaku()
		return
	}
	res := r.classify(c)
	if res.Kind == ResolutionNeedsChoice {
		if !p.IsCPU() {
			r.pending = &pendingCapture{stage: stageDraw, res: res}
			r.turn.Drawn = &res
			r.phase = PhaseChooseCapture
			return
		}
		res = autoPick(p, res)
	}
	r.deck.Draw()
	r.commit(p, res)
	r.turn.Drawn = &res
	r.checkYaku()
}

// chooseCapture settles a pending multi-match for a human player.
func (r *Round) chooseCapture(choice Card) error {
	if r.phase != PhaseChooseCapture || r.pending == nil {
		return ErrNoPendingChoice
	}
	pc := r.pending
	if !containsCard(pc.res.Candidates, choice) {
		return fmt.Errorf("%w: %s", ErrInvalidCapture, choice)
	}
	p := r.players[r.current]
	res := pick(pc.res, choice)
	r.pending = nil

	switch pc.stage {
	case stageHand:
		if _, err := p.PlayFromHand(res.Card); err != nil {
			return err
		}
		r.commit(p, res)
		r.turn.Played = res
		r.phase = r.turnPhase()
		r.drawStep()
	case stageDraw:
		r.deck.Draw()
		r.commit(p, res)
		r.turn.Drawn = &res
		r.phase = r.turnPhase()
		r.checkYaku()
	}
	return nil
}

// checkYaku re-scores the acting player. Active yaku are replaced only on
// a strictly higher total, so an equal-valued different set is ignored.
func (r *Round) checkYaku() {
	r.phase = PhaseYakuCheck
	p := r.players[r.current]
	found := EvaluateYaku(p.captured)
	total := TotalPoints(found)
	if total <= p.roundScore {
		r.switchTurn()
		return
	}
	p.activeYaku = found
	p.roundScore = total
	r.turn.Yaku = cloneYaku(found)
	r.phase = PhaseDecision

	if p.IsCPU() {
		switch p.policy.DecideKoikoi(p, r.players[1-r.current]) {
		case DecisionShobu:
			r.shobu()
		default:
			r.koikoi()
		}
	}
}

func (r *Round) koikoi() error {
	if r.phase != PhaseDecision {
		return ErrNoDecision
	}
	r.players[r.current].calledKoikoi = true
	r.turn.Decision = DecisionKoikoi
	r.switchTurn()
	return nil
}

func (r *Round) shobu() error {
	if r.phase != PhaseDecision {
		return ErrNoDecision
	}
	r.turn.Decision = DecisionShobu
	r.settle(r.current)
	return nil
}

// switchTurn passes play to the opponent, or ends the round as a draw once
// both hands are empty.
func (r *Round) switchTurn() {
	if r.players[0].HandLen() == 0 && r.players[1].HandLen() == 0 {
		r.settleDraw()
		return
	}
	r.current = 1 - r.current
	r.phase = r.turnPhase()
}

// settle scores a claimed round. Both doublings are independent.
func (r *Round) settle(winner int) {
	p, opp := r.players[winner], r.players[1-winner]
	res := RoundResult{
		Round:      r.number,
		Winner:     winner,
		BasePoints: p.roundScore,
		Points:     p.roundScore,
		Yaku:       cloneYaku(p.activeYaku),
	}
	if r.rules.KoikoiDoubles && opp.calledKoikoi {
		res.Points *= 2
		res.KoikoiDoubled = true
	}
	if r.rules.DoubleThreshold > 0 && p.roundScore >= r.rules.DoubleThreshold {
		res.Points *= 2
		res.HighDoubled = true
	}
	p.totalScore += res.Points
	r.result = &res
	r.phase = PhaseRoundEnd
}

func (r *Round) settleDraw() {
	res := RoundResult{
		Round:      r.number,
		Winner:     r.parent,
		Draw:       true,
		BasePoints: r.rules.DrawPoints,
		Points:     r.rules.DrawPoints,
	}
	r.players[r.parent].totalScore += res.Points
	r.result = &res
	r.phase = PhaseRoundEnd
}

// inPlay counts the cards held by the round's containers.
func (r *Round) inPlay() int {
	n := r.field.Len()
	if r.deck != nil {
		n += r.deck.Len()
	}
	for _, p := range r.players {
		n += len(p.hand) + len(p.captured)
	}
	return n
}
