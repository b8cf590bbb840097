package engine

import (
	"errors"
	"fmt"
)

// Rejections. A call that returns one of these leaves the game unchanged.
var (
	ErrIllegalMove     = errors.New("illegal move")
	ErrIllegalDecision = errors.New("illegal decision")
	ErrDeckUnderflow   = errors.New("deck underflow")
)

var (
	ErrCardNotInHand   = fmt.Errorf("%w: card not in hand", ErrIllegalMove)
	ErrNotYourTurn     = fmt.Errorf("%w: not this player's turn", ErrIllegalMove)
	ErrEmptyHand       = fmt.Errorf("%w: hand is empty", ErrIllegalMove)
	ErrInvalidCapture  = fmt.Errorf("%w: card is not a capture candidate", ErrIllegalMove)
	ErrNoPendingChoice = fmt.Errorf("%w: no capture choice pending", ErrIllegalDecision)
	ErrNoDecision      = fmt.Errorf("%w: no koi-koi decision pending", ErrIllegalDecision)
	ErrRoundNotOver    = fmt.Errorf("%w: round is still in progress", ErrIllegalDecision)
	ErrGameNotStarted  = fmt.Errorf("%w: game has not started", ErrIllegalDecision)
	ErrGameOver        = fmt.Errorf("%w: game is over", ErrIllegalDecision)
)

// ErrInvariant is returned by Audit when card conservation is broken.
var ErrInvariant = errors.New("card invariant violated")
