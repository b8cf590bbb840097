package main

import (
	"testing"

	"github.com/jason-s-yu/koikoi/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayMatchIsDeterministic(t *testing.T) {
	seats := [engine.NumPlayers]engine.Seat{
		{Name: "Greedy", Policy: engine.GreedyPolicy{}},
		{Name: "FirstMatch", Policy: engine.FirstMatchPolicy{}},
	}
	for seed := uint64(1); seed <= 5; seed++ {
		a, err := playMatch(seed, engine.DefaultRules(), seats)
		require.NoError(t, err)
		b, err := playMatch(seed, engine.DefaultRules(), seats)
		require.NoError(t, err)
		assert.Equal(t, a, b, "seed %d", seed)
		assert.Positive(t, a.scores[0]+a.scores[1], "every round credits someone")
	}
}

func TestPlayMatchRejectsHumanSeats(t *testing.T) {
	_, err := playMatch(1, engine.DefaultRules(), engine.DefaultSeats())
	// Seat 0 is human, so the first human turn stalls the loop.
	assert.Error(t, err)
}
