// Package rps implements the rock-paper-scissors match: five rounds
// against a computer opponent, thrown by holding a hand pose.
package rps

import (
	"math/rand"
	"sync"
	"time"

	"github.com/gestureflow/client/internal/domain/gesture"
)

// Phase is the match state.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseWaiting     Phase = "waiting_for_gesture"
	PhaseRoundResult Phase = "round_result"
	PhaseMatchOver   Phase = "match_over"
)

// Choice is one throw.
type Choice string

const (
	Rock     Choice = "rock"
	Paper    Choice = "paper"
	Scissors Choice = "scissors"
)

// Outcome of a round or a match from the player's perspective.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
	OutcomeTie  Outcome = "tie"
	OutcomeDraw Outcome = "draw"
)

// TotalRounds per match.
const TotalRounds = 5

var symbolChoices = map[gesture.Symbol]Choice{
	gesture.Fist:         Rock,
	gesture.OpenPalm:     Paper,
	gesture.TwoFingersUp: Scissors,
}

// RoundResult records one completed round.
type RoundResult struct {
	Round    int     `json:"round"`
	Player   Choice  `json:"player"`
	Computer Choice  `json:"computer"`
	Outcome  Outcome `json:"outcome"`
}

// Snapshot is the match view pushed to the bridge.
type Snapshot struct {
	Phase         Phase         `json:"phase"`
	Round         int           `json:"round"`
	PlayerScore   int           `json:"player_score"`
	ComputerScore int           `json:"computer_score"`
	Ties          int           `json:"ties"`
	History       []RoundResult `json:"history,omitempty"`
	MatchOutcome  Outcome       `json:"match_outcome,omitempty"`
}

// Scheduler delays a callback. The real implementation is
// time.AfterFunc; tests substitute a synchronous one.
type Scheduler func(d time.Duration, f func())

// Option customizes a Game.
type Option func(*Game)

// WithScheduler replaces the delay scheduler.
func WithScheduler(s Scheduler) Option {
	return func(g *Game) { g.schedule = s }
}

// WithChooser replaces the computer's choice function.
func WithChooser(pick func() Choice) Option {
	return func(g *Game) { g.pick = pick }
}

// WithDelays overrides the reveal and inter-round delays.
func WithDelays(reveal, interRound time.Duration) Option {
	return func(g *Game) {
		g.revealDelay = reveal
		g.interRoundDelay = interRound
	}
}

// Game is one match. Safe for concurrent use.
type Game struct {
	mu sync.Mutex

	phase         Phase
	round         int
	playerScore   int
	computerScore int
	ties          int
	history       []RoundResult
	matchOutcome  Outcome

	// roundLocked blocks further throws while a round resolves.
	roundLocked bool
	trigger     *gesture.Trigger

	pick            func() Choice
	schedule        Scheduler
	revealDelay     time.Duration
	interRoundDelay time.Duration
}

// New creates an idle game.
func New(opts ...Option) *Game {
	choices := []Choice{Rock, Paper, Scissors}
	g := &Game{
		phase:           PhaseIdle,
		trigger:         gesture.NewTrigger(0),
		pick:            func() Choice { return choices[rand.Intn(len(choices))] },
		schedule:        func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		revealDelay:     800 * time.Millisecond,
		interRoundDelay: 1500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Start begins a fresh match.
func (g *Game) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked()
	g.phase = PhaseWaiting
	g.round = 1
}

// Restart is Start for a finished or abandoned match.
func (g *Game) Restart() { g.Start() }

// Reset returns the game to idle.
func (g *Game) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked()
}

func (g *Game) resetLocked() {
	g.phase = PhaseIdle
	g.round = 0
	g.playerScore = 0
	g.computerScore = 0
	g.ties = 0
	g.history = nil
	g.matchOutcome = ""
	g.roundLocked = false
	g.trigger.Reset()
}

// HandleGesture feeds one sample into the match. During a round it
// accepts the first recognized throw; at match over, thumbs up restarts.
func (g *Game) HandleGesture(symbol gesture.Symbol) {
	g.mu.Lock()

	if g.phase == PhaseMatchOver {
		g.mu.Unlock()
		if symbol == gesture.ThumbsUp && g.trigger.Accept(symbol) {
			g.Restart()
		}
		return
	}

	if g.phase != PhaseWaiting || g.roundLocked {
		g.mu.Unlock()
		return
	}
	choice, ok := symbolChoices[symbol]
	if !ok {
		g.mu.Unlock()
		// Keep edge state in sync so a re-held throw counts next round.
		g.trigger.Accept(symbol)
		return
	}
	if !g.trigger.Accept(symbol) {
		g.mu.Unlock()
		return
	}

	g.roundLocked = true
	g.mu.Unlock()

	g.schedule(g.revealDelay, func() { g.resolveRound(choice) })
}

func (g *Game) resolveRound(player Choice) {
	computer := g.pick()
	outcome := judge(player, computer)

	g.mu.Lock()
	if g.phase != PhaseWaiting {
		g.mu.Unlock()
		return
	}
	switch outcome {
	case OutcomeWin:
		g.playerScore++
	case OutcomeLose:
		g.computerScore++
	case OutcomeTie:
		g.ties++
	}
	g.history = append(g.history, RoundResult{
		Round:    g.round,
		Player:   player,
		Computer: computer,
		Outcome:  outcome,
	})
	g.phase = PhaseRoundResult
	g.mu.Unlock()

	g.schedule(g.interRoundDelay, g.advance)
}

func (g *Game) advance() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseRoundResult {
		return
	}
	// The trigger is deliberately not reset here: a throw held across
	// the round boundary must not count again until the hand changes.
	g.roundLocked = false
	if g.round >= TotalRounds {
		g.phase = PhaseMatchOver
		switch {
		case g.playerScore > g.computerScore:
			g.matchOutcome = OutcomeWin
		case g.playerScore < g.computerScore:
			g.matchOutcome = OutcomeLose
		default:
			g.matchOutcome = OutcomeDraw
		}
		return
	}
	g.round++
	g.phase = PhaseWaiting
}

// Snapshot returns the current match view.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	history := make([]RoundResult, len(g.history))
	copy(history, g.history)
	return Snapshot{
		Phase:         g.phase,
		Round:         g.round,
		PlayerScore:   g.playerScore,
		ComputerScore: g.computerScore,
		Ties:          g.ties,
		History:       history,
		MatchOutcome:  g.matchOutcome,
	}
}

func judge(player, computer Choice) Outcome {
	if player == computer {
		return OutcomeTie
	}
	wins := map[Choice]Choice{Rock: Scissors, Paper: Rock, Scissors: Paper}
	if wins[player] == computer {
		return OutcomeWin
	}
	return OutcomeLose
}
