package types

import "time"

// CameraStatus mirrors the backend /camera_status payload.
type CameraStatus struct {
	Active       bool   `json:"active"`
	Requested    bool   `json:"requested"`
	Initializing bool   `json:"initializing"`
	Error        string `json:"error,omitempty"`
}

// HandPosition mirrors the backend /get_hand_position payload.
// Coordinates are normalized to [0, 1].
type HandPosition struct {
	Visible bool    `json:"visible"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// PenState is the pen portion of the whiteboard state.
type PenState struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	PenDown bool    `json:"pen_down"`
}

// WhiteboardState mirrors the backend /get_whiteboard_state payload.
type WhiteboardState struct {
	Action       string       `json:"action"`
	StrokeSize   int          `json:"stroke_size"`
	Pen          PenState     `json:"pen"`
	HandPosition HandPosition `json:"hand_position"`
}

// GestureSample is one decoded gesture observation.
type GestureSample struct {
	Symbol string    `json:"symbol"`
	At     time.Time `json:"at"`
}
