package engine

// Field is the set of face-up table cards, kept in the order they arrived.
type Field struct {
	cards []Card
}

// Add appends cards to the table.
func (f *Field) Add(cards ...Card) {
	f.cards = append(f.cards, cards...)
}

// Remove takes one instance of c off the table. Absent cards are ignored.
func (f *Field) Remove(c Card) bool {
	var ok bool
	f.cards, ok = removeCard(f.cards, c)
	return ok
}

// FindMatches returns the table cards sharing c's month, in table order.
func (f *Field) FindMatches(c Card) []Card {
	var out []Card
	for _, x := range f.cards {
		if x.Month() == c.Month() {
			out = append(out, x)
		}
	}
	return out
}

// Clear empties the table.
func (f *Field) Clear() { f.cards = nil }

// Len returns the number of table cards.
func (f *Field) Len() int { return len(f.cards) }

// Cards returns a copy of the table cards.
func (f *Field) Cards() []Card { return cloneCards(f.cards) }
