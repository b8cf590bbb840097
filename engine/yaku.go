package engine

import "fmt"

// Yaku identifies a scoring combination.
type Yaku uint8

const (
	YakuGoko Yaku = iota
	YakuShiko
	YakuAmeShiko
	YakuSanko
	YakuInoShikaCho
	YakuAkatan
	YakuAotan
	YakuHanami
	YakuTsukimi
	YakuTane
	YakuTan
	YakuKasu
)

var yakuNames = [...]string{
	YakuGoko:        "Goko",
	YakuShiko:       "Shiko",
	YakuAmeShiko:    "Ame-Shiko",
	YakuSanko:       "Sanko",
	YakuInoShikaCho: "Ino-Shika-Cho",
	YakuAkatan:      "Akatan",
	YakuAotan:       "Aotan",
	YakuHanami:      "Hanami-de-Ippai",
	YakuTsukimi:     "Tsukimi-de-Ippai",
	YakuTane:        "Tane",
	YakuTan:         "Tan",
	YakuKasu:        "Kasu",
}

func (y Yaku) String() string {
	if int(y) < len(yakuNames) {
		return yakuNames[y]
	}
	return fmt.Sprintf("YAKU_%d", uint8(y))
}

// YakuScore is one achieved combination and its value.
type YakuScore struct {
	Yaku   Yaku
	Points int
}

// Fixed yaku values.
const (
	pointsGoko     = 10
	pointsShiko    = 8
	pointsAmeShiko = 7
	pointsSanko    = 5
	pointsSet      = 5 // Ino-Shika-Cho, Akatan, Aotan, Hanami, Tsukimi

	countTane = 5
	countTan  = 5
	countKasu = 10
)

var (
	inoShikaCho = [...]Card{CardBoar, CardDeer, CardButterfly}
	akatan      = [...]Card{CardPinePoetry, CardPlumPoetry, CardCherryPoetry}
	aotan       = [...]Card{CardPeonyBlue, CardChrysBlue, CardMapleBlue}
	hanami      = [...]Card{CardCurtain, CardSakeCup}
	tsukimi     = [...]Card{CardMoon, CardSakeCup}
)

// EvaluateYaku scores a full captured pile from scratch. Bright yaku are
// mutually exclusive; everything else stacks. The result is not summed.
func EvaluateYaku(captured []Card) []YakuScore {
	var (
		has                     [DeckSize]bool
		hikari, tane, tan, kasu int
		rain                    bool
	)
	for _, c := range captured {
		if !c.Valid() {
			continue
		}
		has[c] = true
		switch c.Category() {
		case Hikari:
			hikari++
			if c == CardRainMan {
				rain = true
			}
		case Tane:
			tane++
		case Tan:
			tan++
		case Kasu:
			kasu++
		}
	}

	all := func(cards []Card) bool {
		for _, c := range cards {
			if !has[c] {
				return false
			}
		}
		return true
	}

	var out []YakuScore
	switch {
	case hikari >= 5:
		out = append(out, YakuScore{YakuGoko, pointsGoko})
	case hikari == 4 && rain:
		out = append(out, YakuScore{YakuAmeShiko, pointsAmeShiko})
	case hikari == 4:
		out = append(out, YakuScore{YakuShiko, pointsShiko})
	case hikari == 3 && !rain:
		out = append(out, YakuScore{YakuSanko, pointsSanko})
	}

	if all(inoShikaCho[:]) {
		out = append(out, YakuScore{YakuInoShikaCho, pointsSet})
	}
	if all(akatan[:]) {
		out = append(out, YakuScore{YakuAkatan, pointsSet})
	}
	if all(aotan[:]) {
		out = append(out, YakuScore{YakuAotan, pointsSet})
	}
	if all(hanami[:]) {
		out = append(out, YakuScore{YakuHanami, pointsSet})
	}
	if all(tsukimi[:]) {
		out = append(out, YakuScore{YakuTsukimi, pointsSet})
	}

	if tane >= countTane {
		out = append(out, YakuScore{YakuTane, 1 + tane - countTane})
	}
	if tan >= countTan {
		out = append(out, YakuScore{YakuTan, 1 + tan - countTan})
	}
	if kasu >= countKasu {
		out = append(out, YakuScore{YakuKasu, 1 + kasu - countKasu})
	}
	return out
}

// TotalPoints sums a yaku list.
func TotalPoints(yaku []YakuScore) int {
	total := 0
	for _, y := range yaku {
		total += y.Points
	}
	return total
}

func cloneYaku(y []YakuScore) []YakuScore {
	if y == nil {
		return nil
	}
	out := make([]YakuScore, len(y))
	copy(out, y)
	return out
}
