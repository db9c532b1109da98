package types

import "time"

// Notice is an inline, non-fatal message surfaced to the UI, e.g. "start
// the camera to play this game" or a camera permission failure.
type Notice struct {
	Level   string `json:"level"` // "info", "warn", "error"
	Message string `json:"message"`
}

// SessionSnapshot is the auth state pushed to the bridge.
type SessionSnapshot struct {
	Authenticated bool          `json:"authenticated"`
	Identity      string        `json:"identity,omitempty"`
	Elapsed       time.Duration `json:"elapsed,omitempty"`
}

// ProfileSnapshot is the usage-counter view for the profile screen.
type ProfileSnapshot struct {
	Identity            string `json:"identity,omitempty"`
	Sessions            int    `json:"sessions"`
	WhiteboardUses      int    `json:"whiteboard_uses"`
	GamesPlayed         int    `json:"games_played"`
	PresentationsLoaded int    `json:"presentations_loaded"`
	CameraActive        bool   `json:"camera_active"`
	GestureActive       bool   `json:"gesture_active"`
}

// StateSnapshot is the aggregate view served by GET /state and pushed
// over the bridge WebSocket on every change.
type StateSnapshot struct {
	Screen      ScreenID        `json:"screen"`
	Camera      CameraStatus    `json:"camera"`
	LastGesture string          `json:"last_gesture"`
	Session     SessionSnapshot `json:"session"`
	Profile     ProfileSnapshot `json:"profile"`
	Notices     []Notice        `json:"notices,omitempty"`

	// Feature snapshots, present only while their screen is active.
	Features map[string]any `json:"features,omitempty"`
}
