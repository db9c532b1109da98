// Package gesture defines the hand-pose vocabulary emitted by the vision
// backend and the debounced edge-trigger every feature uses to consume it.
//
// The backend reports the same pose on every sampling tick for as long as
// the hand holds it. Features must react to changes, not presence, and
// continuous-gesture actions (slide navigation, color cycling) need a
// cooldown on top of edge detection because the pose legitimately persists
// across ticks. One Trigger implementation serves both cases so cooldown
// logic is not re-derived per feature.
package gesture

import (
	"sync"
	"time"
)

// Symbol is a discrete hand-pose classification.
type Symbol string

const (
	OneFingerUp    Symbol = "one_finger_up"
	TwoFingersUp   Symbol = "two_fingers_up"
	ThreeFingersUp Symbol = "three_fingers_up"
	FourFingersUp  Symbol = "four_fingers_up"
	ThumbsUp       Symbol = "thumbs_up"
	Fist           Symbol = "fist"
	OpenPalm       Symbol = "open_palm"
	Unknown        Symbol = "unknown"
)

var displayNames = map[Symbol]string{
	OneFingerUp:    "One Finger Up",
	TwoFingersUp:   "Two Fingers Up",
	ThreeFingersUp: "Three Fingers Up",
	FourFingersUp:  "Four Fingers Up",
	ThumbsUp:       "Thumbs Up",
	Fist:           "Fist",
	OpenPalm:       "Open Palm",
	Unknown:        "None",
}

// DisplayName returns the human-readable name for the symbol; unknown
// symbols render as "None".
func (s Symbol) DisplayName() string {
	if name, ok := displayNames[s]; ok {
		return name
	}
	return "None"
}

// Known reports whether s is a recognized, non-unknown pose.
func (s Symbol) Known() bool {
	if s == Unknown || s == "" {
		return false
	}
	_, ok := displayNames[s]
	return ok
}

// Parse normalizes a backend gesture string to a Symbol.
func Parse(raw string) Symbol {
	s := Symbol(raw)
	if !s.Known() {
		return Unknown
	}
	return s
}

// Trigger is a debounced edge trigger. Accept fires only when the symbol
// differs from the last accepted one and the cooldown has elapsed. A zero
// cooldown gives pure edge semantics.
type Trigger struct {
	mu       sync.Mutex
	cooldown time.Duration
	equal    func(a, b Symbol) bool

	last     Symbol
	lastAt   time.Time
	hasLast  bool
	nowFunc  func() time.Time
}

// TriggerOption customizes a Trigger.
type TriggerOption func(*Trigger)

// WithEquality overrides the symbol equality test, e.g. to treat a group
// of symbols as one action.
func WithEquality(eq func(a, b Symbol) bool) TriggerOption {
	return func(t *Trigger) { t.equal = eq }
}

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) TriggerOption {
	return func(t *Trigger) { t.nowFunc = now }
}

// NewTrigger creates a trigger with the given cooldown.
func NewTrigger(cooldown time.Duration, opts ...TriggerOption) *Trigger {
	t := &Trigger{
		cooldown: cooldown,
		equal:    func(a, b Symbol) bool { return a == b },
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Accept reports whether the symbol should fire. Unknown symbols never
// fire and reset the edge state so the next real pose is a fresh edge.
func (t *Trigger) Accept(s Symbol) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !s.Known() {
		t.hasLast = false
		return false
	}

	now := t.nowFunc()
	if t.hasLast && t.equal(t.last, s) {
		return false
	}
	if t.cooldown > 0 && !t.lastAt.IsZero() && now.Sub(t.lastAt) < t.cooldown {
		return false
	}

	t.last = s
	t.lastAt = now
	t.hasLast = true
	return true
}

// AcceptRepeat is Accept for actions where holding the same pose may
// legitimately re-fire once the cooldown elapses (e.g. toggle-resume).
func (t *Trigger) AcceptRepeat(s Symbol) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !s.Known() {
		t.hasLast = false
		return false
	}

	now := t.nowFunc()
	changed := !t.hasLast || !t.equal(t.last, s)
	if !changed && t.cooldown > 0 && now.Sub(t.lastAt) < t.cooldown {
		return false
	}
	if changed && t.cooldown > 0 && !t.lastAt.IsZero() && now.Sub(t.lastAt) < t.cooldown {
		return false
	}

	t.last = s
	t.lastAt = now
	t.hasLast = true
	return true
}

// Reset clears the edge state without touching the cooldown timestamp.
func (t *Trigger) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hasLast = false
}

// Last returns the last accepted symbol, if any.
func (t *Trigger) Last() (Symbol, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last, t.hasLast
}
