package rps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestureflow/client/internal/domain/gesture"
)

// syncScheduler runs delayed callbacks immediately, making the state
// machine fully synchronous for tests.
func syncScheduler(d time.Duration, f func()) { f() }

// fixedChooser always throws the given choice.
func fixedChooser(c Choice) func() Choice {
	return func() Choice { return c }
}

func newTestGame(computer Choice) *Game {
	return New(WithScheduler(syncScheduler), WithChooser(fixedChooser(computer)))
}

func TestStartEntersWaiting(t *testing.T) {
	g := newTestGame(Rock)
	assert.Equal(t, PhaseIdle, g.Snapshot().Phase)
	g.Start()
	snap := g.Snapshot()
	assert.Equal(t, PhaseWaiting, snap.Phase)
	assert.Equal(t, 1, snap.Round)
}

func TestRoundOutcomes(t *testing.T) {
	cases := []struct {
		name     string
		player   gesture.Symbol
		computer Choice
		want     Outcome
	}{
		{"rock beats scissors", gesture.Fist, Scissors, OutcomeWin},
		{"paper beats rock", gesture.OpenPalm, Rock, OutcomeWin},
		{"scissors beats paper", gesture.TwoFingersUp, Paper, OutcomeWin},
		{"rock loses to paper", gesture.Fist, Paper, OutcomeLose},
		{"tie on same throw", gesture.OpenPalm, Paper, OutcomeTie},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := newTestGame(tc.computer)
			g.Start()
			g.HandleGesture(tc.player)
			snap := g.Snapshot()
			require.Len(t, snap.History, 1)
			assert.Equal(t, tc.want, snap.History[0].Outcome)
		})
	}
}

func TestHeldGestureThrowsOnce(t *testing.T) {
	g := newTestGame(Rock)
	g.Start()
	g.HandleGesture(gesture.OpenPalm)
	g.HandleGesture(gesture.OpenPalm)
	g.HandleGesture(gesture.OpenPalm)

	snap := g.Snapshot()
	assert.Len(t, snap.History, 1, "a held pose must throw exactly once")
	assert.Equal(t, 2, snap.Round)

	// Still holding into the next round: no new throw until released.
	g.HandleGesture(gesture.OpenPalm)
	assert.Len(t, g.Snapshot().History, 1)

	// Release then re-throw.
	g.HandleGesture(gesture.Unknown)
	g.HandleGesture(gesture.OpenPalm)
	assert.Len(t, g.Snapshot().History, 2)
}

func TestUnmappedGestureIgnored(t *testing.T) {
	g := newTestGame(Rock)
	g.Start()
	g.HandleGesture(gesture.ThumbsUp)
	g.HandleGesture(gesture.ThreeFingersUp)
	assert.Empty(t, g.Snapshot().History)
	assert.Equal(t, PhaseWaiting, g.Snapshot().Phase)
}

func playMatch(g *Game, throws []gesture.Symbol) {
	for _, s := range throws {
		g.HandleGesture(s)
		g.HandleGesture(gesture.Unknown) // release between rounds
	}
}

func TestFullMatchPlayerWins(t *testing.T) {
	g := newTestGame(Scissors) // fist always wins
	g.Start()
	playMatch(g, []gesture.Symbol{
		gesture.Fist, gesture.Fist, gesture.Fist, gesture.Fist, gesture.Fist,
	})

	snap := g.Snapshot()
	assert.Equal(t, PhaseMatchOver, snap.Phase)
	assert.Equal(t, 5, snap.PlayerScore)
	assert.Equal(t, OutcomeWin, snap.MatchOutcome)
}

func TestTwoTwoWithTieIsDraw(t *testing.T) {
	// Computer cycles so the match lands 2-2 with one tie.
	script := []Choice{Scissors, Scissors, Paper, Paper, Rock}
	i := 0
	g := New(WithScheduler(syncScheduler), WithChooser(func() Choice {
		c := script[i]
		i++
		return c
	}))
	g.Start()
	// fist vs scissors: win; fist vs scissors: win; fist vs paper:
	// lose; fist vs paper: lose; fist vs rock: tie.
	playMatch(g, []gesture.Symbol{
		gesture.Fist, gesture.Fist, gesture.Fist, gesture.Fist, gesture.Fist,
	})

	snap := g.Snapshot()
	require.Equal(t, PhaseMatchOver, snap.Phase)
	assert.Equal(t, 2, snap.PlayerScore)
	assert.Equal(t, 2, snap.ComputerScore)
	assert.Equal(t, 1, snap.Ties)
	assert.Equal(t, OutcomeDraw, snap.MatchOutcome)
}

func TestThumbsUpRestartsAtMatchOver(t *testing.T) {
	g := newTestGame(Scissors)
	g.Start()
	playMatch(g, []gesture.Symbol{
		gesture.Fist, gesture.Fist, gesture.Fist, gesture.Fist, gesture.Fist,
	})
	require.Equal(t, PhaseMatchOver, g.Snapshot().Phase)

	g.HandleGesture(gesture.Unknown)
	g.HandleGesture(gesture.ThumbsUp)
	snap := g.Snapshot()
	assert.Equal(t, PhaseWaiting, snap.Phase)
	assert.Equal(t, 1, snap.Round)
	assert.Zero(t, snap.PlayerScore)
	assert.Empty(t, snap.History)
}

func TestThrowIgnoredWhileRoundLocked(t *testing.T) {
	// A scheduler that defers callbacks lets us observe the locked
	// window between throw and reveal.
	var pending []func()
	g := New(
		WithScheduler(func(d time.Duration, f func()) { pending = append(pending, f) }),
		WithChooser(fixedChooser(Rock)),
	)
	g.Start()

	g.HandleGesture(gesture.OpenPalm)
	g.HandleGesture(gesture.Unknown)
	g.HandleGesture(gesture.TwoFingersUp) // locked, must be dropped

	for len(pending) > 0 {
		f := pending[0]
		pending = pending[1:]
		f()
	}

	snap := g.Snapshot()
	require.Len(t, snap.History, 1)
	assert.Equal(t, Paper, snap.History[0].Player)
}

func TestResetReturnsToIdle(t *testing.T) {
	g := newTestGame(Rock)
	g.Start()
	g.HandleGesture(gesture.Fist)
	g.Reset()
	snap := g.Snapshot()
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Zero(t, snap.Round)
	assert.Empty(t, snap.History)
}
