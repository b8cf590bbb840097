package engine

import "math/rand/v2"

// seedStream is the fixed PCG stream selector; the seed alone decides the game.
const seedStream uint64 = 0x9E3779B97F4A7C15

// newRNG is the single source of randomness for a match.
func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^seedStream))
}

// Deck is the draw pile. Cards leave from the front and never return.
type Deck struct {
	cards []Card
}

// NewDeck builds the full catalog and shuffles it with rng.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{cards: Catalog()}
	d.Shuffle(rng)
	return d
}

// Shuffle applies a uniform random permutation to the remaining cards.
func (d *Deck) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Deal removes and returns the first n cards. If fewer remain, it returns
// all of them and empties the deck.
func (d *Deck) Deal(n int) []Card {
	if n <= 0 {
		return nil
	}
	if n > len(d.cards) {
		n = len(d.cards)
	}
	out := make([]Card, n)
	copy(out, d.cards[:n])
	d.cards = d.cards[n:]
	return out
}

// Peek returns the next card without removing it.
func (d *Deck) Peek() (Card, bool) {
	if len(d.cards) == 0 {
		return EmptyCard, false
	}
	return d.cards[0], true
}

// Draw removes and returns the next card.
func (d *Deck) Draw() (Card, bool) {
	c, ok := d.Peek()
	if ok {
		d.cards = d.cards[1:]
	}
	return c, ok
}

// IsEmpty reports whether no cards remain.
func (d *Deck) IsEmpty() bool { return len(d.cards) == 0 }

// Len returns the number of remaining cards.
func (d *Deck) Len() int { return len(d.cards) }

// Cards returns a copy of the remaining cards in draw order.
func (d *Deck) Cards() []Card { return cloneCards(d.cards) }
