// Package basketball implements the shot game: the player aims by
// moving a hand with the palm open, then raises one finger to shoot at
// the hoop. A shot scores when the aim lines up within tolerance.
package basketball

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/gestureflow/client/internal/backend"
	"github.com/gestureflow/client/internal/domain/gesture"
	"github.com/gestureflow/client/internal/domain/registry"
)

// AimTolerance is the normalized horizontal distance within which a
// shot counts.
const AimTolerance = 0.08

// HandTracker is the slice of the backend client the game needs.
type HandTracker interface {
	HandPositionNow(ctx context.Context) (*backend.HandPosition, error)
}

// Scheduler delays a callback; tests substitute a synchronous one.
type Scheduler func(d time.Duration, f func())

// Snapshot is the game view pushed to the bridge.
type Snapshot struct {
	AimX           float64 `json:"aim_x"`
	HoopX          float64 `json:"hoop_x"`
	Score          int     `json:"score"`
	Attempts       int     `json:"attempts"`
	ShotInProgress bool    `json:"shot_in_progress"`
	MoveEnabled    bool    `json:"move_enabled"`
}

// Option customizes a Game.
type Option func(*Game)

// WithScheduler replaces the shot-flight scheduler.
func WithScheduler(s Scheduler) Option {
	return func(g *Game) { g.schedule = s }
}

// WithHoopPlacer replaces the post-shot hoop placement function.
func WithHoopPlacer(place func() float64) Option {
	return func(g *Game) { g.placeHoop = place }
}

// WithShotCooldown overrides the minimum time between shots.
func WithShotCooldown(d time.Duration) Option {
	return func(g *Game) { g.cooldown = d }
}

// WithClock injects the trigger clock for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Game) { g.clock = now }
}

// Game is one basketball session. Safe for concurrent use.
type Game struct {
	mu sync.Mutex

	aimX        float64
	hoopX       float64
	score       int
	attempts    int
	moveEnabled bool
	shotLocked  bool

	tracker   HandTracker
	registry  *registry.Registry
	trigger   *gesture.Trigger
	cooldown  time.Duration
	clock     func() time.Time
	schedule  Scheduler
	placeHoop func() float64
	flight    time.Duration
}

// New creates a game with a centered hoop.
func New(tracker HandTracker, reg *registry.Registry, opts ...Option) *Game {
	g := &Game{
		aimX:      0.5,
		hoopX:     0.5,
		tracker:   tracker,
		registry:  reg,
		cooldown:  900 * time.Millisecond,
		clock:     time.Now,
		schedule:  func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		placeHoop: func() float64 { return 0.15 + rand.Float64()*0.7 },
		flight:    600 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.trigger = gesture.NewTrigger(g.cooldown, gesture.WithClock(g.clock))
	return g
}

// StartAimPolling begins the 100 ms hand-position poll under the given
// owner. The aim only follows the hand while movement is enabled.
func (g *Game) StartAimPolling(owner string, interval time.Duration) registry.Handle {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return g.registry.StartPoller(owner, registry.KindGamePoll, interval,
		func(ctx context.Context, seq uint64) error {
			pos, err := g.tracker.HandPositionNow(ctx)
			if err != nil {
				return err
			}
			if g.registry.Latest(owner, registry.KindGamePoll) != seq {
				return nil
			}
			g.mu.Lock()
			if g.moveEnabled && pos.Visible {
				g.aimX = pos.X
			}
			g.mu.Unlock()
			return nil
		})
}

// HandleGesture feeds one sample: open palm enables aiming, one finger
// up shoots, anything else disables aiming.
func (g *Game) HandleGesture(symbol gesture.Symbol) {
	g.mu.Lock()
	g.moveEnabled = symbol == gesture.OpenPalm
	g.mu.Unlock()

	if symbol != gesture.OneFingerUp {
		return
	}
	if !g.trigger.AcceptRepeat(symbol) {
		return
	}
	g.Shoot()
}

// Shoot fires at the hoop. Ignored while a previous shot is in flight.
func (g *Game) Shoot() {
	g.mu.Lock()
	if g.shotLocked {
		g.mu.Unlock()
		return
	}
	g.shotLocked = true
	aim, hoop := g.aimX, g.hoopX
	g.mu.Unlock()

	g.schedule(g.flight, func() { g.resolveShot(aim, hoop) })
}

func (g *Game) resolveShot(aim, hoop float64) {
	scored := aim-hoop <= AimTolerance && hoop-aim <= AimTolerance

	g.mu.Lock()
	g.attempts++
	if scored {
		g.score++
		g.hoopX = g.placeHoop()
	}
	g.shotLocked = false
	g.mu.Unlock()
}

// Reset zeroes the score and recenters.
func (g *Game) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.aimX = 0.5
	g.hoopX = 0.5
	g.score = 0
	g.attempts = 0
	g.moveEnabled = false
	g.shotLocked = false
	g.trigger.Reset()
}

// Snapshot returns the current game view.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Snapshot{
		AimX:           g.aimX,
		HoopX:          g.hoopX,
		Score:          g.score,
		Attempts:       g.attempts,
		ShotInProgress: g.shotLocked,
		MoveEnabled:    g.moveEnabled,
	}
}
