// Package arcade drives the backend-rendered games (snake, fruit
// ninja, dino run, pong). The backend runs the game loop and draws the
// frames; this side binds the MJPEG feed, polls the score state, and
// issues resets.
package arcade

import (
	"context"
	"sync"
	"time"

	"github.com/gestureflow/client/internal/backend"
	"github.com/gestureflow/client/internal/domain/registry"
	"github.com/gestureflow/client/internal/shared/types"
)

// Games is the slice of the backend client the controller needs.
type Games interface {
	ArcadeState(ctx context.Context, game types.GameID) (*backend.GameState, error)
	ResetArcade(ctx context.Context, game types.GameID) error
	StreamURL(game types.GameID) string
}

// StreamFactory builds a registrable stream for a feed URL. The real
// implementation wraps media.NewStream; tests substitute fakes.
type StreamFactory func(url string) registry.Stream

// CameraCheck reports whether the camera is live. Arcade games need it;
// without it the controller shows a notice instead of a dead feed.
type CameraCheck func() bool

// Snapshot is the arcade view pushed to the bridge.
type Snapshot struct {
	Game     types.GameID  `json:"game,omitempty"`
	Score    int           `json:"score"`
	Lives    *int          `json:"lives,omitempty"`
	Length   *int          `json:"length,omitempty"`
	GameOver bool          `json:"game_over"`
	FeedURL  string        `json:"feed_url,omitempty"`
	Notice   *types.Notice `json:"notice,omitempty"`
}

// Options configures a Controller.
type Options struct {
	Games         Games
	Registry      *registry.Registry
	Streams       StreamFactory
	CameraActive  CameraCheck
	StateInterval time.Duration
	FruitInterval time.Duration
}

// Controller manages at most one selected arcade game.
type Controller struct {
	games        Games
	registry     *registry.Registry
	streams      StreamFactory
	cameraActive CameraCheck

	stateInterval time.Duration
	fruitInterval time.Duration

	mu       sync.Mutex
	selected types.GameID
	state    backend.GameState
	notice   *types.Notice
}

// New creates a controller with no game selected.
func New(opts Options) *Controller {
	if opts.StateInterval <= 0 {
		opts.StateInterval = 500 * time.Millisecond
	}
	if opts.FruitInterval <= 0 {
		opts.FruitInterval = 400 * time.Millisecond
	}
	return &Controller{
		games:         opts.Games,
		registry:      opts.Registry,
		streams:       opts.Streams,
		cameraActive:  opts.CameraActive,
		stateInterval: opts.StateInterval,
		fruitInterval: opts.FruitInterval,
	}
}

// Select switches to a game: the previous game's stream and poller are
// torn down, the new feed is bound, and the state poll starts. Without
// an active camera the selection stands but only a notice is shown.
func (c *Controller) Select(owner string, game types.GameID) {
	c.registry.ClearOwner(owner)

	c.mu.Lock()
	c.selected = game
	c.state = backend.GameState{}
	c.notice = nil
	c.mu.Unlock()

	if !game.BackendRendered() {
		return
	}
	if c.cameraActive != nil && !c.cameraActive() {
		c.mu.Lock()
		c.notice = &types.Notice{Level: "info", Message: "Start the camera to play this game"}
		c.mu.Unlock()
		return
	}

	if c.streams != nil {
		c.registry.BindStream(owner, registry.KindStream, c.streams(c.games.StreamURL(game)))
	}

	interval := c.stateInterval
	if game == types.GameFruit {
		interval = c.fruitInterval
	}
	c.registry.StartPoller(owner, registry.KindGamePoll, interval,
		func(ctx context.Context, seq uint64) error {
			st, err := c.games.ArcadeState(ctx, game)
			if err != nil {
				return err
			}
			if c.registry.Latest(owner, registry.KindGamePoll) != seq {
				return nil
			}
			c.mu.Lock()
			if c.selected == game {
				c.state = *st
			}
			c.mu.Unlock()
			return nil
		})
}

// Deselect tears down the current game.
func (c *Controller) Deselect(owner string) {
	c.registry.ClearOwner(owner)
	c.mu.Lock()
	c.selected = ""
	c.state = backend.GameState{}
	c.notice = nil
	c.mu.Unlock()
}

// Reset restarts the selected game on the backend.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	game := c.selected
	c.mu.Unlock()
	if game == "" {
		return nil
	}
	if err := c.games.ResetArcade(ctx, game); err != nil {
		return err
	}
	c.mu.Lock()
	c.state = backend.GameState{}
	c.mu.Unlock()
	return nil
}

// Selected returns the current game, if any.
func (c *Controller) Selected() (types.GameID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected, c.selected != ""
}

// Snapshot returns the arcade view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{
		Game:     c.selected,
		Score:    c.state.Score,
		Lives:    c.state.Lives,
		Length:   c.state.Length,
		GameOver: c.state.GameOver,
		Notice:   c.notice,
	}
	if c.selected != "" && c.selected.BackendRendered() && c.notice == nil {
		snap.FeedURL = c.games.StreamURL(c.selected)
	}
	return snap
}
