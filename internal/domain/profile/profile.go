// Package profile tracks per-identity usage counters shown on the
// profile screen.
package profile

import (
	"sync"

	"github.com/gestureflow/client/internal/shared/types"
)

// Tracker accumulates usage counts for the signed-in identity. Counters
// reset when a different identity signs in.
type Tracker struct {
	mu       sync.Mutex
	identity string

	sessions      int
	whiteboards   int
	gamesPlayed   int
	presentations int
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker { return &Tracker{} }

// SessionStarted records a sign-in. A change of identity resets the
// counters first.
func (t *Tracker) SessionStarted(identity string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if identity != t.identity {
		t.identity = identity
		t.sessions = 0
		t.whiteboards = 0
		t.gamesPlayed = 0
		t.presentations = 0
	}
	t.sessions++
}

// WhiteboardUsed increments the whiteboard counter.
func (t *Tracker) WhiteboardUsed() {
	t.mu.Lock()
	t.whiteboards++
	t.mu.Unlock()
}

// GamePlayed increments the games counter.
func (t *Tracker) GamePlayed() {
	t.mu.Lock()
	t.gamesPlayed++
	t.mu.Unlock()
}

// PresentationLoaded increments the presentations counter.
func (t *Tracker) PresentationLoaded() {
	t.mu.Lock()
	t.presentations++
	t.mu.Unlock()
}

// Snapshot returns the current counters with the live camera and
// gesture flags merged in.
func (t *Tracker) Snapshot(cameraActive, gestureActive bool) types.ProfileSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return types.ProfileSnapshot{
		Identity:            t.identity,
		Sessions:            t.sessions,
		WhiteboardUses:      t.whiteboards,
		GamesPlayed:         t.gamesPlayed,
		PresentationsLoaded: t.presentations,
		CameraActive:        cameraActive,
		GestureActive:       gestureActive,
	}
}
