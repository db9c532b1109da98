package whiteboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestureflow/client/internal/domain/registry"
	"github.com/gestureflow/client/internal/shared/types"
)

func syncScheduler(d time.Duration, f func()) { f() }

func newTestBoard(opts ...Option) (*Board, *func(time.Duration)) {
	now := time.Unix(0, 0)
	advance := func(d time.Duration) { now = now.Add(d) }
	base := []Option{
		WithClock(func() time.Time { return now }),
	}
	b := New(nil, registry.New(nil, nil), append(base, opts...)...)
	return b, &advance
}

func drawState(x, y float64, penDown bool) *types.WhiteboardState {
	return &types.WhiteboardState{
		Action: ActionDraw,
		Pen:    types.PenState{X: x, Y: y, PenDown: penDown},
	}
}

func TestPenDownAccumulatesOneStroke(t *testing.T) {
	b, _ := newTestBoard()

	b.Apply(drawState(0.1, 0.1, true))
	b.Apply(drawState(0.2, 0.2, true))
	b.Apply(drawState(0.3, 0.3, true))

	strokes := b.Strokes()
	require.Len(t, strokes, 1)
	assert.Len(t, strokes[0].Path, 3)
	assert.True(t, b.Snapshot().PenDown)
}

func TestPenUpStartsNewStroke(t *testing.T) {
	b, _ := newTestBoard()

	b.Apply(drawState(0.1, 0.1, true))
	b.Apply(drawState(0.2, 0.2, false))
	b.Apply(drawState(0.3, 0.3, true))

	assert.Len(t, b.Strokes(), 2)
}

func TestStrokeCapturesCurrentPen(t *testing.T) {
	b, _ := newTestBoard()
	b.SetStrokeSize(9)
	b.CycleColor()

	b.Apply(drawState(0.1, 0.1, true))
	strokes := b.Strokes()
	require.Len(t, strokes, 1)
	assert.Equal(t, Palette[1], strokes[0].Color)
	assert.Equal(t, 9, strokes[0].Size)
}

func TestColorCycleDebounced(t *testing.T) {
	b, advance := newTestBoard()

	b.Apply(&types.WhiteboardState{Action: ActionColorChange})
	assert.Equal(t, 1, b.Snapshot().ColorIndex)

	// Held gesture within the window: no step.
	(*advance)(100 * time.Millisecond)
	b.Apply(&types.WhiteboardState{Action: ActionColorChange})
	assert.Equal(t, 1, b.Snapshot().ColorIndex)

	(*advance)(500 * time.Millisecond)
	b.Apply(&types.WhiteboardState{Action: ActionColorChange})
	assert.Equal(t, 2, b.Snapshot().ColorIndex)
}

func TestColorWrapsAroundPalette(t *testing.T) {
	b, advance := newTestBoard()
	for i := 0; i < len(Palette); i++ {
		b.CycleColor()
		(*advance)(time.Second)
	}
	assert.Equal(t, 0, b.Snapshot().ColorIndex)
}

func TestClearWipesAndLocks(t *testing.T) {
	var release func()
	b, _ := newTestBoard(WithScheduler(func(d time.Duration, f func()) { release = f }))

	b.Apply(drawState(0.1, 0.1, true))
	require.Len(t, b.Strokes(), 1)

	b.Apply(&types.WhiteboardState{Action: ActionClearCanvas})
	assert.Empty(t, b.Strokes())
	assert.True(t, b.Snapshot().Clearing)

	// Trailing pen samples during the lock leave no mark.
	b.Apply(drawState(0.5, 0.5, true))
	assert.Empty(t, b.Strokes())

	require.NotNil(t, release)
	release()
	assert.False(t, b.Snapshot().Clearing)

	b.Apply(drawState(0.6, 0.6, true))
	assert.Len(t, b.Strokes(), 1)
}

func TestClearReleaseWithSyncScheduler(t *testing.T) {
	b, _ := newTestBoard(WithScheduler(syncScheduler))
	b.Apply(&types.WhiteboardState{Action: ActionClearCanvas})
	assert.False(t, b.Snapshot().Clearing)
}

func TestUndoRemovesLastStroke(t *testing.T) {
	b, _ := newTestBoard()
	b.Apply(drawState(0.1, 0.1, true))
	b.Apply(drawState(0.2, 0.2, false))
	b.Apply(drawState(0.3, 0.3, true))
	require.Len(t, b.Strokes(), 2)

	b.Undo()
	strokes := b.Strokes()
	require.Len(t, strokes, 1)
	assert.Equal(t, 0.1, strokes[0].Path[0].X)

	b.Undo()
	b.Undo() // empty board, no panic
	assert.Empty(t, b.Strokes())
}

func TestSetStrokeSizeBounds(t *testing.T) {
	b, _ := newTestBoard()
	b.SetStrokeSize(0)
	assert.Equal(t, 4, b.Snapshot().StrokeSize)
	b.SetStrokeSize(41)
	assert.Equal(t, 4, b.Snapshot().StrokeSize)
	b.SetStrokeSize(12)
	assert.Equal(t, 12, b.Snapshot().StrokeSize)
}

func TestReset(t *testing.T) {
	b, _ := newTestBoard(WithScheduler(syncScheduler))
	b.Apply(drawState(0.1, 0.1, true))
	b.CycleColor()
	b.Reset()

	snap := b.Snapshot()
	assert.Zero(t, snap.Strokes)
	assert.Equal(t, 0, snap.ColorIndex)
	assert.False(t, snap.PenDown)
	assert.False(t, snap.Clearing)
}
