// Package presentation implements the slide viewer: deck upload,
// gesture navigation with a long edge-trigger cooldown, and a pause
// toggle that also resumes while the pose is held.
package presentation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gestureflow/client/internal/backend"
	"github.com/gestureflow/client/internal/domain/gesture"
)

// Deck is the slice of the backend client the viewer needs.
type Deck interface {
	UploadDeck(ctx context.Context, filename string, data []byte) (*backend.UploadResult, error)
	DeckAction(ctx context.Context, action string) (*backend.PresentationState, error)
	DeckState(ctx context.Context) (*backend.PresentationState, error)
	SlideURL(sessionID string, slide int) string
}

// Scheduler and clock injection mirror the other features.
type Scheduler func(d time.Duration, f func())

// Snapshot is the viewer state pushed to the bridge.
type Snapshot struct {
	Loaded       bool   `json:"loaded"`
	SessionID    string `json:"session_id,omitempty"`
	CurrentSlide int    `json:"current_slide"`
	TotalSlides  int    `json:"total_slides"`
	Paused       bool   `json:"paused"`
	SlideURL     string `json:"slide_url,omitempty"`
	Warning      string `json:"warning,omitempty"`
}

// Option customizes a Viewer.
type Option func(*Viewer)

// WithClock injects the navigation trigger clock.
func WithClock(now func() time.Time) Option {
	return func(v *Viewer) { v.clock = now }
}

// WithNavCooldown overrides the gesture navigation cooldown.
func WithNavCooldown(d time.Duration) Option {
	return func(v *Viewer) { v.navCooldown = d }
}

// Viewer is one presentation session. Safe for concurrent use.
type Viewer struct {
	mu sync.Mutex

	loaded       bool
	sessionID    string
	currentSlide int
	totalSlides  int
	paused       bool
	warning      string

	deck        Deck
	navTrigger  *gesture.Trigger
	clock       func() time.Time
	navCooldown time.Duration
}

// New creates an empty viewer.
func New(deck Deck, opts ...Option) *Viewer {
	v := &Viewer{
		deck:        deck,
		clock:       time.Now,
		navCooldown: 1200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.navTrigger = gesture.NewTrigger(v.navCooldown, gesture.WithClock(v.clock))
	return v
}

// Upload sends a deck for rendering and resets the viewer onto slide 1.
func (v *Viewer) Upload(ctx context.Context, filename string, data []byte) error {
	res, err := v.deck.UploadDeck(ctx, filename, data)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.loaded = true
	v.sessionID = res.SessionID
	if v.sessionID == "" {
		// The backend normally assigns the session; keep a local one so
		// slide URLs stay well formed if it did not.
		v.sessionID = uuid.NewString()
	}
	v.totalSlides = res.TotalSlides
	v.currentSlide = 1
	v.paused = false
	v.warning = ""
	if res.TotalSlides == 0 {
		v.warning = "Deck rendered no slides"
	}
	return nil
}

// Sync refreshes the local position from the backend. Used when the
// bridge reconnects and the viewer may have drifted from the rendered
// deck.
func (v *Viewer) Sync(ctx context.Context) error {
	st, err := v.deck.DeckState(ctx)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if !st.Loaded {
		v.loaded = false
		v.sessionID = ""
		v.currentSlide = 0
		v.totalSlides = 0
		v.paused = false
		return nil
	}
	v.loaded = true
	if st.SessionID != "" {
		v.sessionID = st.SessionID
	}
	v.totalSlides = st.TotalSlides
	v.currentSlide = min(max(st.CurrentSlide, 1), st.TotalSlides)
	return nil
}

// Next advances one slide, clamped at the last.
func (v *Viewer) Next() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.loaded && v.currentSlide < v.totalSlides {
		v.currentSlide++
	}
}

// Prev steps back one slide, clamped at the first.
func (v *Viewer) Prev() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.loaded && v.currentSlide > 1 {
		v.currentSlide--
	}
}

// TogglePause flips the paused flag and informs the backend.
func (v *Viewer) TogglePause(ctx context.Context) error {
	v.mu.Lock()
	v.paused = !v.paused
	action := "pause"
	if !v.paused {
		action = "resume"
	}
	v.mu.Unlock()

	_, err := v.deck.DeckAction(ctx, action)
	return err
}

// HandleGesture drives navigation: one finger next, two fingers prev,
// open palm toggles pause. All run through the long edge trigger; the
// toggle additionally re-fires on a held palm so pause then resume
// works without releasing. While paused, only the palm is accepted.
func (v *Viewer) HandleGesture(ctx context.Context, symbol gesture.Symbol) {
	v.mu.Lock()
	loaded, paused := v.loaded, v.paused
	v.mu.Unlock()
	if !loaded {
		return
	}

	if symbol == gesture.OpenPalm {
		if v.navTrigger.AcceptRepeat(symbol) {
			// Toggle failures leave the local flag flipped; the next
			// successful action resynchronizes the backend.
			_ = v.TogglePause(ctx)
		}
		return
	}
	if paused {
		v.navTrigger.Accept(symbol) // keep edge state moving
		return
	}

	switch symbol {
	case gesture.OneFingerUp:
		if v.navTrigger.Accept(symbol) {
			v.Next()
		}
	case gesture.TwoFingersUp:
		if v.navTrigger.Accept(symbol) {
			v.Prev()
		}
	default:
		v.navTrigger.Accept(symbol)
	}
}

// CurrentSlideURL builds the image URL for the current slide with a
// cache-busting timestamp.
func (v *Viewer) CurrentSlideURL() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.loaded || v.totalSlides == 0 {
		return ""
	}
	base := v.deck.SlideURL(v.sessionID, v.currentSlide)
	return fmt.Sprintf("%s?t=%d", base, v.clock().UnixMilli())
}

// Close resets the viewer to empty.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loaded = false
	v.sessionID = ""
	v.currentSlide = 0
	v.totalSlides = 0
	v.paused = false
	v.warning = ""
	v.navTrigger.Reset()
}

// Snapshot returns the viewer state.
func (v *Viewer) Snapshot() Snapshot {
	v.mu.Lock()
	loaded := v.loaded
	snap := Snapshot{
		Loaded:       v.loaded,
		SessionID:    v.sessionID,
		CurrentSlide: v.currentSlide,
		TotalSlides:  v.totalSlides,
		Paused:       v.paused,
		Warning:      v.warning,
	}
	v.mu.Unlock()
	if loaded {
		snap.SlideURL = v.CurrentSlideURL()
	}
	return snap
}
