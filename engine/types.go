package engine

import "fmt"

// Category is one of the four hanafuda card classes.
type Category uint8

const (
	Hikari Category = iota // brights
	Tane                   // animals
	Tan                    // ribbons
	Kasu                   // chaff
)

var categoryNames = [...]string{
	Hikari: "hikari",
	Tane:   "tane",
	Tan:    "tan",
	Kasu:   "kasu",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("CATEGORY_%d", uint8(c))
}

// Card is an index into the fixed 48-entry catalog. Two Cards are the same
// physical card iff they are equal.
type Card uint8

// EmptyCard represents the absence of a card.
const EmptyCard Card = 0xFF

// DeckSize is the number of cards in a hanafuda deck.
const DeckSize = 48

// Named cards that take part in specific yaku.
const (
	CardCrane        Card = 0  // 1 Matsu ni Tsuru
	CardPinePoetry   Card = 1  // 1 red poetry ribbon
	CardWarbler      Card = 4  // 2 Uguisu
	CardPlumPoetry   Card = 5  // 2 red poetry ribbon
	CardCurtain      Card = 8  // 3 Sakura ni Maku
	CardCherryPoetry Card = 9  // 3 red poetry ribbon
	CardCuckoo       Card = 12 // 4 Hototogisu
	CardBridge       Card = 16 // 5 Yatsuhashi
	CardButterfly    Card = 20 // 6 Chou
	CardPeonyBlue    Card = 21 // 6 blue ribbon
	CardBoar         Card = 24 // 7 Inoshishi
	CardMoon         Card = 28 // 8 Tsuki
	CardGeese        Card = 29 // 8 Gan
	CardSakeCup      Card = 32 // 9 Sakazuki, fixed 10-point tane
	CardChrysBlue    Card = 33 // 9 blue ribbon
	CardDeer         Card = 36 // 10 Shika
	CardMapleBlue    Card = 37 // 10 blue ribbon
	CardRainMan      Card = 40 // 11 Ono no Michikaze
	CardSwallow      Card = 41 // 11 Tsubame
	CardPhoenix      Card = 44 // 12 Ho-oh
)

type cardInfo struct {
	month    uint8
	category Category
	name     string
	points   uint8
}

// catalog is the process-wide card table. It is never mutated; every Card
// refers into it.
var catalog = [DeckSize]cardInfo{
	{1, Hikari, "Tsuru", 20},
	{1, Tan, "Akatan", 5},
	{1, Kasu, "Kasu", 1},
	{1, Kasu, "Kasu", 1},

	{2, Tane, "Uguisu", 10},
	{2, Tan, "Akatan", 5},
	{2, Kasu, "Kasu", 1},
	{2, Kasu, "Kasu", 1},

	{3, Hikari, "Maku", 20},
	{3, Tan, "Akatan", 5},
	{3, Kasu, "Kasu", 1},
	{3, Kasu, "Kasu", 1},

	{4, Tane, "Hototogisu", 10},
	{4, Tan, "Tan", 5},
	{4, Kasu, "Kasu", 1},
	{4, Kasu, "Kasu", 1},

	{5, Tane, "Yatsuhashi", 10},
	{5, Tan, "Tan", 5},
	{5, Kasu, "Kasu", 1},
	{5, Kasu, "Kasu", 1},

	{6, Tane, "Chou", 10},
	{6, Tan, "Aotan", 5},
	{6, Kasu, "Kasu", 1},
	{6, Kasu, "Kasu", 1},

	{7, Tane, "Inoshishi", 10},
	{7, Tan, "Tan", 5},
	{7, Kasu, "Kasu", 1},
	{7, Kasu, "Kasu", 1},

	{8, Hikari, "Tsuki", 20},
	{8, Tane, "Gan", 10},
	{8, Kasu, "Kasu", 1},
	{8, Kasu, "Kasu", 1},

	{9, Tane, "Sakazuki", 10},
	{9, Tan, "Aotan", 5},
	{9, Kasu, "Kasu", 1},
	{9, Kasu, "Kasu", 1},

	{10, Tane, "Shika", 10},
	{10, Tan, "Aotan", 5},
	{10, Kasu, "Kasu", 1},
	{10, Kasu, "Kasu", 1},

	{11, Hikari, "Ono no Michikaze", 20},
	{11, Tane, "Tsubame", 10},
	{11, Tan, "Tan", 5},
	{11, Kasu, "Kasu", 1},

	{12, Hikari, "Ho-oh", 20},
	{12, Kasu, "Kasu", 1},
	{12, Kasu, "Kasu", 1},
	{12, Kasu, "Kasu", 1},
}

// Valid reports whether c refers to a catalog entry.
func (c Card) Valid() bool { return int(c) < DeckSize }

// Month returns the card's month in [1,12], or 0 for an invalid card.
func (c Card) Month() int {
	if !c.Valid() {
		return 0
	}
	return int(catalog[c].month)
}

// Category returns the card's class. Invalid cards report Kasu.
func (c Card) Category() Category {
	if !c.Valid() {
		return Kasu
	}
	return catalog[c].category
}

// Name returns the display name. Names repeat across months.
func (c Card) Name() string {
	if !c.Valid() {
		return ""
	}
	return catalog[c].name
}

// Points returns the face value. It is informational only; scoring is
// driven entirely by yaku.
func (c Card) Points() int {
	if !c.Valid() {
		return 0
	}
	return int(catalog[c].points)
}

func (c Card) String() string {
	if !c.Valid() {
		return "Card(empty)"
	}
	return fmt.Sprintf("%02d-%s-%s", c.Month(), c.Category(), c.Name())
}

// Catalog returns every card in canonical order.
func Catalog() []Card {
	out := make([]Card, DeckSize)
	for i := range out {
		out[i] = Card(i)
	}
	return out
}

func containsCard(cards []Card, c Card) bool {
	for _, x := range cards {
		if x == c {
			return true
		}
	}
	return false
}

// removeCard removes the first instance of c and reports whether it was found.
func removeCard(cards []Card, c Card) ([]Card, bool) {
	for i, x := range cards {
		if x == c {
			return append(cards[:i], cards[i+1:]...), true
		}
	}
	return cards, false
}

func cloneCards(cards []Card) []Card {
	if cards == nil {
		return nil
	}
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}
