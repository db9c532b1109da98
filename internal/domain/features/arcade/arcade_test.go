package arcade

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestureflow/client/internal/backend"
	"github.com/gestureflow/client/internal/domain/registry"
	"github.com/gestureflow/client/internal/shared/types"
)

type fakeGames struct {
	mu     sync.Mutex
	states map[types.GameID]backend.GameState
	resets []types.GameID
}

func (f *fakeGames) ArcadeState(ctx context.Context, game types.GameID) (*backend.GameState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.states[game]
	return &st, nil
}

func (f *fakeGames) ResetArcade(ctx context.Context, game types.GameID) error {
	f.mu.Lock()
	f.resets = append(f.resets, game)
	f.mu.Unlock()
	return nil
}

func (f *fakeGames) StreamURL(game types.GameID) string {
	return "http://vision/" + string(game) + "_feed"
}

type fakeStream struct {
	url     string
	blanked atomic.Int32
}

func (f *fakeStream) Blank() error {
	f.blanked.Add(1)
	return nil
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func newTestController(games *fakeGames, cameraActive bool) (*Controller, *registry.Registry, *[]*fakeStream) {
	reg := registry.New(nil, nil)
	var streams []*fakeStream
	c := New(Options{
		Games:    games,
		Registry: reg,
		Streams: func(url string) registry.Stream {
			s := &fakeStream{url: url}
			streams = append(streams, s)
			return s
		},
		CameraActive:  func() bool { return cameraActive },
		StateInterval: 10 * time.Millisecond,
		FruitInterval: 10 * time.Millisecond,
	})
	return c, reg, &streams
}

func TestSelectBindsFeedAndPollsState(t *testing.T) {
	games := &fakeGames{states: map[types.GameID]backend.GameState{
		types.GameSnake: {Score: 40},
	}}
	c, reg, streams := newTestController(games, true)
	defer reg.ClearAll()

	c.Select("games", types.GameSnake)

	require.Len(t, *streams, 1)
	assert.Equal(t, "http://vision/snake_feed", (*streams)[0].url)
	assert.Len(t, reg.Handles(), 2, "one stream binding and one state poller")

	waitFor(t, func() bool { return c.Snapshot().Score == 40 }, "state never polled")
	assert.Equal(t, "http://vision/snake_feed", c.Snapshot().FeedURL)
}

func TestSwitchingGamesBlanksPreviousFeed(t *testing.T) {
	games := &fakeGames{states: map[types.GameID]backend.GameState{}}
	c, reg, streams := newTestController(games, true)
	defer reg.ClearAll()

	c.Select("games", types.GameSnake)
	c.Select("games", types.GamePong)

	require.Len(t, *streams, 2)
	assert.Equal(t, int32(1), (*streams)[0].blanked.Load(), "previous feed must be blanked")
	assert.Equal(t, int32(0), (*streams)[1].blanked.Load())
	assert.Len(t, reg.Handles(), 2)

	game, ok := c.Selected()
	require.True(t, ok)
	assert.Equal(t, types.GamePong, game)
}

func TestSelectWithoutCameraShowsNotice(t *testing.T) {
	games := &fakeGames{states: map[types.GameID]backend.GameState{}}
	c, reg, streams := newTestController(games, false)
	defer reg.ClearAll()

	c.Select("games", types.GameDino)

	assert.Empty(t, *streams, "no feed without camera")
	assert.Empty(t, reg.Handles())
	snap := c.Snapshot()
	require.NotNil(t, snap.Notice)
	assert.Contains(t, snap.Notice.Message, "Start the camera")
	assert.Empty(t, snap.FeedURL)
}

func TestResetHitsBackendAndZeroesState(t *testing.T) {
	games := &fakeGames{states: map[types.GameID]backend.GameState{
		types.GameFruit: {Score: 12, GameOver: true},
	}}
	c, reg, _ := newTestController(games, true)
	defer reg.ClearAll()

	c.Select("games", types.GameFruit)
	waitFor(t, func() bool { return c.Snapshot().Score == 12 }, "state never polled")

	games.mu.Lock()
	games.states[types.GameFruit] = backend.GameState{}
	games.mu.Unlock()

	require.NoError(t, c.Reset(context.Background()))
	assert.Equal(t, []types.GameID{types.GameFruit}, games.resets)
	assert.Zero(t, c.Snapshot().Score)
}

func TestResetWithoutSelectionIsNoop(t *testing.T) {
	games := &fakeGames{states: map[types.GameID]backend.GameState{}}
	c, reg, _ := newTestController(games, true)
	defer reg.ClearAll()

	require.NoError(t, c.Reset(context.Background()))
	assert.Empty(t, games.resets)
}

func TestDeselectClearsEverything(t *testing.T) {
	games := &fakeGames{states: map[types.GameID]backend.GameState{}}
	c, reg, streams := newTestController(games, true)

	c.Select("games", types.GameSnake)
	c.Deselect("games")

	assert.Empty(t, reg.Handles())
	assert.Equal(t, int32(1), (*streams)[0].blanked.Load())
	_, ok := c.Selected()
	assert.False(t, ok)
}
