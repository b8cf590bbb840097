package engine

import "fmt"

// Rules holds configurable match settings.
type Rules struct {
	Rounds          int  `json:"rounds"`          // rounds per match, one per month
	HandSize        int  `json:"handSize"`        // cards dealt to each player
	FieldSize       int  `json:"fieldSize"`       // cards dealt face up to the table
	DrawPoints      int  `json:"drawPoints"`      // credited to the parent when both hands run out
	DoubleThreshold int  `json:"doubleThreshold"` // round scores at or above this are doubled; 0 disables
	KoikoiDoubles   bool `json:"koikoiDoubles"`   // winner's score doubles if the loser called koi-koi
	CaptureAllFour  bool `json:"captureAllFour"`  // a card matching three field cards takes all of them
}

// DefaultRules returns the standard twelve-month rules.
func DefaultRules() Rules {
	return Rules{
		Rounds:          12,
		HandSize:        8,
		FieldSize:       8,
		DrawPoints:      6,
		DoubleThreshold: 7,
		KoikoiDoubles:   true,
		CaptureAllFour:  true,
	}
}

// Validate rejects rule sets that cannot be dealt from one deck.
func (r Rules) Validate() error {
	if r.Rounds < 1 {
		return fmt.Errorf("rounds must be at least 1, got %d", r.Rounds)
	}
	if r.HandSize < 1 || r.FieldSize < 0 {
		return fmt.Errorf("hand size %d / field size %d out of range", r.HandSize, r.FieldSize)
	}
	if need := 2*r.HandSize + r.FieldSize; need > DeckSize {
		return fmt.Errorf("%w: deal needs %d cards, deck has %d", ErrDeckUnderflow, need, DeckSize)
	}
	if r.DrawPoints < 0 || r.DoubleThreshold < 0 {
		return fmt.Errorf("draw points and double threshold must be non-negative")
	}
	return nil
}
