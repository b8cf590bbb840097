// Command simulate plays CPU-against-CPU matches and reports the tally.
// Every step is audited for card conservation.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jason-s-yu/koikoi/engine"
	"github.com/jason-s-yu/koikoi/internal/config"
	"github.com/sirupsen/logrus"
)

func main() {
	matches := flag.Int("matches", 100, "number of matches to play")
	seed := flag.Uint64("seed", 1, "seed of the first match; later matches count up")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log, err := cfg.NewLogger()
	if err != nil {
		logrus.WithError(err).Fatal("build logger")
	}
	rules, err := cfg.Rules()
	if err != nil {
		log.WithError(err).Fatal("rules")
	}

	seats := [engine.NumPlayers]engine.Seat{
		{Name: "Greedy", Policy: engine.GreedyPolicy{}},
		{Name: "FirstMatch", Policy: engine.FirstMatchPolicy{}},
	}
	var wins [engine.NumPlayers + 1]int
	var points [engine.NumPlayers]int
	for i := 0; i < *matches; i++ {
		s := *seed + uint64(i)
		res, err := playMatch(s, rules, seats)
		if err != nil {
			log.WithError(err).WithField("seed", s).Error("match failed")
			os.Exit(1)
		}
		log.WithFields(logrus.Fields{
			"seed":   s,
			"scores": res.scores,
			"winner": res.winner,
		}).Debug("match done")
		if res.winner < 0 {
			wins[engine.NumPlayers]++
		} else {
			wins[res.winner]++
		}
		for p := range points {
			points[p] += res.scores[p]
		}
	}

	log.WithFields(logrus.Fields{
		"matches": *matches,
		"rounds":  rules.Rounds,
	}).Info("simulation finished")
	for p, seat := range seats {
		fmt.Printf("%-10s wins %4d  points %6d\n", seat.Name, wins[p], points[p])
	}
	fmt.Printf("%-10s      %4d\n", "ties", wins[engine.NumPlayers])
}

type matchResult struct {
	scores [engine.NumPlayers]int
	winner int
}

func playMatch(seed uint64, rules engine.Rules, seats [engine.NumPlayers]engine.Seat) (matchResult, error) {
	g, err := engine.NewGame(seed, rules, seats)
	if err != nil {
		return matchResult{}, err
	}
	if err := g.StartGame(); err != nil {
		return matchResult{}, err
	}
	for !g.IsOver() {
		switch g.Phase() {
		case engine.PhaseCPUTurn:
			err = g.CPUTakeTurn()
		case engine.PhaseRoundEnd:
			err = g.NextRound()
		default:
			return matchResult{}, fmt.Errorf("stuck in phase %s", g.Phase())
		}
		if err != nil {
			return matchResult{}, err
		}
		if err := g.Audit(); err != nil {
			return matchResult{}, err
		}
	}

	res := matchResult{winner: -1}
	for p := range res.scores {
		res.scores[p] = g.Player(p).TotalScore()
	}
	if w, ok := g.Winner(); ok {
		res.winner = w
	}
	return res, nil
}
