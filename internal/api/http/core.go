// Package http serves the local UI bridge: a small REST surface the
// attached front end uses to drive navigation, auth, camera, games,
// and presentations, plus the aggregate state snapshot it renders from.
package http

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gestureflow/client/internal/backend/dataconnect"
	"github.com/gestureflow/client/internal/domain/camera"
	"github.com/gestureflow/client/internal/domain/features/arcade"
	"github.com/gestureflow/client/internal/domain/features/basketball"
	"github.com/gestureflow/client/internal/domain/features/presentation"
	"github.com/gestureflow/client/internal/domain/features/rps"
	"github.com/gestureflow/client/internal/domain/features/whiteboard"
	"github.com/gestureflow/client/internal/domain/gesture"
	"github.com/gestureflow/client/internal/domain/profile"
	"github.com/gestureflow/client/internal/domain/registry"
	"github.com/gestureflow/client/internal/domain/router"
	"github.com/gestureflow/client/internal/domain/session"
	"github.com/gestureflow/client/internal/shared/types"
)

// StrokeSync mirrors local stroke-size changes to the backend so its
// rendered overlay matches the local canvas.
type StrokeSync interface {
	SetStrokeSize(ctx context.Context, size int) error
}

// AuthProbe asks the backend whether the current token is still
// honored.
type AuthProbe interface {
	CheckAuth(ctx context.Context) (bool, error)
}

// GameSync tells the backend a game restarted so its tracker state
// does not bleed into the new round.
type GameSync interface {
	RestartGame(ctx context.Context, game types.GameID) error
}

// Core aggregates the domain components behind the bridge. Both the
// REST handlers and the WebSocket hub operate through it, so the two
// surfaces cannot drift apart.
type Core struct {
	Router       *router.Router
	Registry     *registry.Registry
	Camera       *camera.Manager
	Session      *session.Guard
	Profile      *profile.Tracker
	Presentation *presentation.Viewer
	Arcade       *arcade.Controller
	RPS          *rps.Game
	Basketball   *basketball.Game
	Whiteboard   *whiteboard.Board

	// DataConnect is optional; without it the community endpoints
	// report unavailable.
	DataConnect *dataconnect.Service

	// Optional backend hooks; nil skips the corresponding sync.
	StrokeSync StrokeSync
	AuthProbe  AuthProbe
	GameSync   GameSync

	// AimInterval paces the basketball hand-position poll.
	AimInterval time.Duration

	mu         sync.Mutex
	activeGame types.GameID
	aimHandle  registry.Handle
}

// arcadeOwner namespaces the arcade controller's registry entries so
// its per-selection teardown cannot clear the games screen's status or
// gesture polls.
const arcadeOwner = "arcade"

// Snapshot assembles the aggregate UI state. Feature snapshots are
// attached only for the active screen; an inactive feature holds no
// interesting state anyway since its pollers are down.
func (c *Core) Snapshot() types.StateSnapshot {
	screen := c.Router.Active()
	camStatus := c.Camera.Status()

	identity, authed := c.Session.CurrentIdentity()
	sess := types.SessionSnapshot{Authenticated: authed, Identity: identity}
	if elapsed, ok := c.Session.SessionElapsed(); ok {
		sess.Elapsed = elapsed
	}

	snap := types.StateSnapshot{
		Screen:      screen,
		Camera:      camStatus,
		LastGesture: string(c.Camera.LastGesture()),
		Session:     sess,
		Profile:     c.Profile.Snapshot(camStatus.Active, c.Camera.GesturePolling()),
	}
	if n := c.Camera.Notice(); n != nil {
		snap.Notices = append(snap.Notices, *n)
	}

	features := make(map[string]any)
	switch screen {
	case types.ScreenWhiteboard:
		features["whiteboard"] = c.Whiteboard.Snapshot()
	case types.ScreenGames:
		if game, ok := c.ActiveGame(); ok {
			features["active_game"] = game
		}
		features["rps"] = c.RPS.Snapshot()
		features["basketball"] = c.Basketball.Snapshot()
		arc := c.Arcade.Snapshot()
		features["arcade"] = arc
		if arc.Notice != nil {
			snap.Notices = append(snap.Notices, *arc.Notice)
		}
	case types.ScreenPresentation:
		features["presentation"] = c.Presentation.Snapshot()
	}
	if len(features) > 0 {
		snap.Features = features
	}
	return snap
}

// ActiveGame reports the selected game on the games screen.
func (c *Core) ActiveGame() (types.GameID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeGame, c.activeGame != ""
}

// SelectGame switches the games screen to the named game. Selecting a
// backend-rendered game binds its feed and state poll through the
// arcade controller; local games reset in place. The previous game's
// resources are torn down either way.
func (c *Core) SelectGame(game types.GameID) error {
	if !game.Valid() {
		return fmt.Errorf("unknown game %q", game)
	}

	c.mu.Lock()
	c.activeGame = game
	aim := c.aimHandle
	c.aimHandle = registry.Handle{}
	c.mu.Unlock()
	if c.Registry != nil && aim.ID != "" {
		c.Registry.Clear(aim)
	}

	if game.BackendRendered() {
		c.Arcade.Select(arcadeOwner, game)
	} else {
		c.Arcade.Deselect(arcadeOwner)
		switch game {
		case types.GameRPS:
			c.RPS.Start()
		case types.GameBasketball:
			c.Basketball.Reset()
			c.startAimPolling()
		}
	}
	c.Profile.GamePlayed()
	return nil
}

func (c *Core) startAimPolling() {
	h := c.Basketball.StartAimPolling(string(types.ScreenGames), c.AimInterval)
	c.mu.Lock()
	c.aimHandle = h
	c.mu.Unlock()
}

// ProvisionGames reapplies the current game selection. The games screen
// calls it on provision so a camera recovery or re-navigation restores
// the selected game's pollers.
func (c *Core) ProvisionGames() {
	c.mu.Lock()
	game := c.activeGame
	c.mu.Unlock()
	if game == "" {
		return
	}
	if game.BackendRendered() {
		c.Arcade.Select(arcadeOwner, game)
	} else if game == types.GameBasketball {
		c.startAimPolling()
	}
}

// HandleGameGesture routes a gesture to the selected local game.
// Backend-rendered games consume gestures server-side.
func (c *Core) HandleGameGesture(symbol gesture.Symbol) {
	c.mu.Lock()
	game := c.activeGame
	c.mu.Unlock()
	switch game {
	case types.GameRPS:
		c.RPS.HandleGesture(symbol)
	case types.GameBasketball:
		c.Basketball.HandleGesture(symbol)
	}
}

// Navigate switches screens.
func (c *Core) Navigate(screen types.ScreenID) error {
	if !screen.Valid() {
		return fmt.Errorf("unknown screen %q", screen)
	}
	return c.Router.Navigate(screen)
}

// StartCamera asks the backend to open the capture device.
func (c *Core) StartCamera(ctx context.Context) error {
	return c.Camera.StartCamera(ctx)
}

// StopCamera asks the backend to release the capture device.
func (c *Core) StopCamera(ctx context.Context) error {
	return c.Camera.StopCamera(ctx)
}

// RestartCamera power-cycles the capture device.
func (c *Core) RestartCamera(ctx context.Context) error {
	return c.Camera.RestartCamera(ctx)
}

// SetStrokeSize sets the whiteboard pen width and mirrors it to the
// backend renderer when one is wired.
func (c *Core) SetStrokeSize(ctx context.Context, size int) error {
	if size < 1 || size > 40 {
		return fmt.Errorf("stroke size %d out of range", size)
	}
	c.Whiteboard.SetStrokeSize(size)
	if c.StrokeSync != nil {
		return c.StrokeSync.SetStrokeSize(ctx, size)
	}
	return nil
}

// CheckAuth reports whether the session is still valid. Signed-out is
// answered locally; a signed-in session is verified against the
// backend when a probe is wired.
func (c *Core) CheckAuth(ctx context.Context) (bool, error) {
	if _, ok := c.Session.CurrentIdentity(); !ok {
		return false, nil
	}
	if c.AuthProbe == nil {
		return true, nil
	}
	return c.AuthProbe.CheckAuth(ctx)
}

// ResetGame restarts the named game. Local games reset in place;
// backend-rendered games go through the arcade controller.
func (c *Core) ResetGame(ctx context.Context, game types.GameID) error {
	switch game {
	case types.GameRPS:
		c.RPS.Restart()
		c.notifyRestart(ctx, game)
		return nil
	case types.GameBasketball:
		c.Basketball.Reset()
		c.notifyRestart(ctx, game)
		return nil
	}
	if !game.Valid() {
		return fmt.Errorf("unknown game %q", game)
	}
	if selected, ok := c.Arcade.Selected(); !ok || selected != game {
		return fmt.Errorf("game %q is not selected", game)
	}
	return c.Arcade.Reset(ctx)
}

// notifyRestart is best effort: the local reset already took effect,
// the backend just clears any tracker state it kept for the round.
func (c *Core) notifyRestart(ctx context.Context, game types.GameID) {
	if c.GameSync != nil {
		_ = c.GameSync.RestartGame(ctx, game)
	}
}

// UploadDeck sends a slide deck to the backend and returns the
// resulting viewer state.
func (c *Core) UploadDeck(ctx context.Context, filename string, data []byte) (presentation.Snapshot, error) {
	if err := c.Presentation.Upload(ctx, filename, data); err != nil {
		return presentation.Snapshot{}, err
	}
	c.Profile.PresentationLoaded()
	return c.Presentation.Snapshot(), nil
}

// PresentationAction applies a viewer verb: next, prev, toggle_pause,
// close, or sync.
func (c *Core) PresentationAction(ctx context.Context, action string) error {
	switch action {
	case "next":
		c.Presentation.Next()
	case "prev":
		c.Presentation.Prev()
	case "toggle_pause":
		return c.Presentation.TogglePause(ctx)
	case "close":
		c.Presentation.Close()
	case "sync":
		return c.Presentation.Sync(ctx)
	default:
		return fmt.Errorf("unknown presentation action %q", action)
	}
	return nil
}

// ErrCommunityUnavailable is returned when no data-connect service is
// configured.
var ErrCommunityUnavailable = fmt.Errorf("community service not configured")

// CommunityGames lists recent public match results.
func (c *Core) CommunityGames(ctx context.Context, limit int) ([]dataconnect.PublicGame, error) {
	if c.DataConnect == nil {
		return nil, ErrCommunityUnavailable
	}
	return c.DataConnect.ListPublicGames(ctx, limit)
}

// PublishScore shares the selected game's current score publicly.
func (c *Core) PublishScore(ctx context.Context) (*dataconnect.PublicGame, error) {
	if c.DataConnect == nil {
		return nil, ErrCommunityUnavailable
	}
	identity, ok := c.Session.CurrentIdentity()
	if !ok {
		return nil, fmt.Errorf("not signed in")
	}
	game, ok := c.ActiveGame()
	if !ok {
		return nil, fmt.Errorf("no game selected")
	}

	entry := dataconnect.PublicGame{Game: string(game), Player: identity, PlayedAt: time.Now()}
	switch game {
	case types.GameRPS:
		snap := c.RPS.Snapshot()
		entry.Score = snap.PlayerScore
		entry.Won = snap.MatchOutcome == rps.OutcomeWin
	case types.GameBasketball:
		entry.Score = c.Basketball.Snapshot().Score
		entry.Won = entry.Score > 0
	default:
		snap := c.Arcade.Snapshot()
		entry.Score = snap.Score
		entry.Won = !snap.GameOver
	}
	return c.DataConnect.CreatePublicGame(ctx, entry)
}

// SignIn authenticates and records the session for profile counters.
func (c *Core) SignIn(ctx context.Context, email, password string) error {
	if err := c.Session.SignIn(ctx, email, password); err != nil {
		return err
	}
	if identity, ok := c.Session.CurrentIdentity(); ok {
		c.Profile.SessionStarted(identity)
	}
	return nil
}

// SignUp registers a new account and signs it in.
func (c *Core) SignUp(ctx context.Context, email, password string) error {
	if err := c.Session.SignUp(ctx, email, password); err != nil {
		return err
	}
	if identity, ok := c.Session.CurrentIdentity(); ok {
		c.Profile.SessionStarted(identity)
	}
	return nil
}

// SignOut ends the session.
func (c *Core) SignOut(ctx context.Context) {
	c.Session.SignOut(ctx)
}
