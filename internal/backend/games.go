package backend

import (
	"context"
	"fmt"

	"github.com/gestureflow/client/internal/shared/types"
)

// ArcadeState polls the state endpoint for one backend-rendered game
// (snake, fruit, dino, pong).
func (c *Client) ArcadeState(ctx context.Context, game types.GameID) (*GameState, error) {
	if !game.BackendRendered() {
		return nil, fmt.Errorf("backend: %q has no state endpoint", game)
	}
	var out GameState
	if err := c.getJSON(ctx, fmt.Sprintf("/%s_state", game), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetArcade resets one backend-rendered game to its initial state.
func (c *Client) ResetArcade(ctx context.Context, game types.GameID) error {
	if !game.BackendRendered() {
		return fmt.Errorf("backend: %q has no reset endpoint", game)
	}
	var out ActionResult
	if err := c.postJSON(ctx, fmt.Sprintf("/%s_reset", game), nil, &out); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("backend: reset %s: %s", game, out.Error)
	}
	return nil
}

// RestartGame restarts any game by name, including ones without a
// dedicated reset endpoint.
func (c *Client) RestartGame(ctx context.Context, game types.GameID) error {
	var out ActionResult
	if err := c.postJSON(ctx, fmt.Sprintf("/restart_game/%s", game), nil, &out); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("backend: restart %s: %s", game, out.Error)
	}
	return nil
}

// StreamURL returns the MJPEG feed URL for a backend-rendered game, or
// the raw camera feed when game is empty.
func (c *Client) StreamURL(game types.GameID) string {
	if game == "" {
		return c.baseURL + "/video_feed"
	}
	return fmt.Sprintf("%s/%s_feed", c.baseURL, game)
}
