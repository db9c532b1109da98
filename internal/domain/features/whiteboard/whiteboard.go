// Package whiteboard implements gesture drawing: an 80 ms poll of the
// backend drawing state accumulates pen-down strokes, with color
// cycling, canvas clearing, and undo.
package whiteboard

import (
	"context"
	"sync"
	"time"

	"github.com/gestureflow/client/internal/backend"
	"github.com/gestureflow/client/internal/domain/gesture"
	"github.com/gestureflow/client/internal/domain/registry"
	"github.com/gestureflow/client/internal/shared/types"
)

// Palette is the fixed color cycle.
var Palette = []string{
	"#000000", "#ff0000", "#00aa00", "#0000ff",
	"#ff8800", "#aa00aa", "#00aaaa", "#aaaa00",
}

// Drawing actions reported by the backend state.
const (
	ActionDraw        = "draw"
	ActionErase       = "erase"
	ActionColorChange = "color_change"
	ActionClearCanvas = "clear_canvas"
	ActionIdle        = "idle"
)

// DrawingSource is the slice of the backend client the board needs.
type DrawingSource interface {
	WhiteboardStateNow(ctx context.Context) (*backend.WhiteboardState, error)
}

// Point is one pen sample in normalized coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is a contiguous pen-down path.
type Stroke struct {
	Color string  `json:"color"`
	Size  int     `json:"size"`
	Path  []Point `json:"path"`
}

// Scheduler delays a callback; tests substitute a synchronous one.
type Scheduler func(d time.Duration, f func())

// Snapshot is the board view pushed to the bridge.
type Snapshot struct {
	Strokes    int    `json:"strokes"`
	Color      string `json:"color"`
	ColorIndex int    `json:"color_index"`
	StrokeSize int    `json:"stroke_size"`
	PenDown    bool   `json:"pen_down"`
	Clearing   bool   `json:"clearing"`
}

// Option customizes a Board.
type Option func(*Board)

// WithScheduler replaces the clear-release scheduler.
func WithScheduler(s Scheduler) Option {
	return func(b *Board) { b.schedule = s }
}

// WithClock injects the color-cycle trigger clock.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.clock = now }
}

// WithCooldowns overrides the color-change debounce and the clearing
// lock release delay.
func WithCooldowns(colorChange, clearRelease time.Duration) Option {
	return func(b *Board) {
		b.colorCooldown = colorChange
		b.clearRelease = clearRelease
	}
}

// Board is one whiteboard session. Safe for concurrent use.
type Board struct {
	mu sync.Mutex

	strokes    []Stroke
	colorIdx   int
	strokeSize int
	penDown    bool
	clearing   bool

	source       DrawingSource
	registry     *registry.Registry
	colorTrigger *gesture.Trigger
	clock        func() time.Time
	schedule     Scheduler

	colorCooldown time.Duration
	clearRelease  time.Duration
}

// New creates an empty board with the default pen.
func New(source DrawingSource, reg *registry.Registry, opts ...Option) *Board {
	b := &Board{
		strokeSize:    4,
		source:        source,
		registry:      reg,
		clock:         time.Now,
		schedule:      func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		colorCooldown: 500 * time.Millisecond,
		clearRelease:  200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.colorTrigger = gesture.NewTrigger(b.colorCooldown, gesture.WithClock(b.clock))
	return b
}

// StartDrawingPolling begins the 80 ms state poll under the given owner.
func (b *Board) StartDrawingPolling(owner string, interval time.Duration) registry.Handle {
	if interval <= 0 {
		interval = 80 * time.Millisecond
	}
	return b.registry.StartPoller(owner, registry.KindDrawingPoll, interval,
		func(ctx context.Context, seq uint64) error {
			st, err := b.source.WhiteboardStateNow(ctx)
			if err != nil {
				return err
			}
			if b.registry.Latest(owner, registry.KindDrawingPoll) != seq {
				return nil
			}
			b.Apply(st)
			return nil
		})
}

// Apply folds one backend drawing state into the board.
func (b *Board) Apply(st *types.WhiteboardState) {
	switch st.Action {
	case ActionClearCanvas:
		b.Clear()
		return
	case ActionColorChange:
		b.CycleColor()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.clearing {
		// Pen input is ignored until the clearing lock releases, so
		// the clearing swipe itself does not leave a mark.
		return
	}

	switch {
	case st.Action == ActionDraw && st.Pen.PenDown:
		p := Point{X: st.Pen.X, Y: st.Pen.Y}
		if !b.penDown {
			b.strokes = append(b.strokes, Stroke{
				Color: Palette[b.colorIdx],
				Size:  b.strokeSize,
				Path:  []Point{p},
			})
		} else if n := len(b.strokes); n > 0 {
			b.strokes[n-1].Path = append(b.strokes[n-1].Path, p)
		}
		b.penDown = true
	default:
		b.penDown = false
	}
}

// CycleColor advances the pen color, debounced so a held color gesture
// steps one color per cooldown window.
func (b *Board) CycleColor() {
	if !b.colorTrigger.AcceptRepeat(gesture.ThreeFingersUp) {
		return
	}
	b.mu.Lock()
	b.colorIdx = (b.colorIdx + 1) % len(Palette)
	b.mu.Unlock()
}

// SetStrokeSize selects the local pen width.
func (b *Board) SetStrokeSize(size int) {
	if size < 1 || size > 40 {
		return
	}
	b.mu.Lock()
	b.strokeSize = size
	b.mu.Unlock()
}

// Clear wipes the canvas and holds a short lock so the clear gesture's
// trailing samples do not immediately start a stroke.
func (b *Board) Clear() {
	b.mu.Lock()
	if b.clearing {
		b.mu.Unlock()
		return
	}
	b.strokes = nil
	b.penDown = false
	b.clearing = true
	b.mu.Unlock()

	b.schedule(b.clearRelease, func() {
		b.mu.Lock()
		b.clearing = false
		b.mu.Unlock()
	})
}

// Undo removes the most recent stroke.
func (b *Board) Undo() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n := len(b.strokes); n > 0 {
		b.strokes = b.strokes[:n-1]
	}
	b.penDown = false
}

// Strokes returns a copy of the accumulated strokes.
func (b *Board) Strokes() []Stroke {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Stroke, len(b.strokes))
	copy(out, b.strokes)
	return out
}

// Snapshot returns the board view.
func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		Strokes:    len(b.strokes),
		Color:      Palette[b.colorIdx],
		ColorIndex: b.colorIdx,
		StrokeSize: b.strokeSize,
		PenDown:    b.penDown,
		Clearing:   b.clearing,
	}
}

// Reset empties the board immediately, without the clearing lock.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.strokes = nil
	b.penDown = false
	b.clearing = false
	b.colorIdx = 0
	b.colorTrigger.Reset()
}
