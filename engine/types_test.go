package engine

import "testing"

// TestCatalogCategories verifies the category totals of the 48-card deck.
func TestCatalogCategories(t *testing.T) {
	counts := make(map[Category]int)
	for _, c := range Catalog() {
		counts[c.Category()]++
	}
	want := map[Category]int{Hikari: 5, Tane: 9, Tan: 10, Kasu: 24}
	for cat, n := range want {
		if counts[cat] != n {
			t.Errorf("%s count = %d, want %d", cat, counts[cat], n)
		}
	}
}

// TestCatalogMonths verifies every month has exactly four cards.
func TestCatalogMonths(t *testing.T) {
	var perMonth [13]int
	for _, c := range Catalog() {
		m := c.Month()
		if m < 1 || m > 12 {
			t.Fatalf("card %d has month %d", c, m)
		}
		perMonth[m]++
	}
	for m := 1; m <= 12; m++ {
		if perMonth[m] != 4 {
			t.Errorf("month %d has %d cards, want 4", m, perMonth[m])
		}
	}
}

// TestNamedCards pins the cards that yaku depend on.
func TestNamedCards(t *testing.T) {
	tests := []struct {
		card  Card
		month int
		cat   Category
	}{
		{CardCrane, 1, Hikari},
		{CardCurtain, 3, Hikari},
		{CardMoon, 8, Hikari},
		{CardRainMan, 11, Hikari},
		{CardPhoenix, 12, Hikari},
		{CardBoar, 7, Tane},
		{CardDeer, 10, Tane},
		{CardButterfly, 6, Tane},
		{CardSakeCup, 9, Tane},
		{CardPinePoetry, 1, Tan},
		{CardPlumPoetry, 2, Tan},
		{CardCherryPoetry, 3, Tan},
		{CardPeonyBlue, 6, Tan},
		{CardChrysBlue, 9, Tan},
		{CardMapleBlue, 10, Tan},
	}
	for _, tt := range tests {
		if got := tt.card.Month(); got != tt.month {
			t.Errorf("%s month = %d, want %d", tt.card, got, tt.month)
		}
		if got := tt.card.Category(); got != tt.cat {
			t.Errorf("%s category = %s, want %s", tt.card, got, tt.cat)
		}
	}
}

func TestEmptyCard(t *testing.T) {
	if EmptyCard.Valid() {
		t.Error("EmptyCard.Valid() = true")
	}
	if EmptyCard.Month() != 0 {
		t.Errorf("EmptyCard.Month() = %d, want 0", EmptyCard.Month())
	}
	if got := EmptyCard.String(); got != "Card(empty)" {
		t.Errorf("EmptyCard.String() = %q", got)
	}
}

func TestCardString(t *testing.T) {
	if got, want := CardCrane.String(), "01-hikari-Tsuru"; got != want {
		t.Errorf("CardCrane.String() = %q, want %q", got, want)
	}
	if got, want := CardSakeCup.String(), "09-tane-Sakazuki"; got != want {
		t.Errorf("CardSakeCup.String() = %q, want %q", got, want)
	}
}

// TestCatalogIsolation verifies Catalog returns a fresh slice each call.
func TestCatalogIsolation(t *testing.T) {
	a := Catalog()
	a[0] = EmptyCard
	if b := Catalog(); b[0] != CardCrane {
		t.Errorf("Catalog()[0] = %v after caller mutation", b[0])
	}
}
