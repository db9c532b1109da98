package backend

import "github.com/gestureflow/client/internal/shared/types"

// AuthResult is the response of the login and register endpoints.
type AuthResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// GestureResult is the response of the gesture endpoint.
type GestureResult struct {
	Gesture string `json:"gesture"`
}

// FrameResult is the response of the frame-processing endpoint.
type FrameResult struct {
	Gesture      string `json:"gesture"`
	HandDetected bool   `json:"hand_detected"`
	Error        string `json:"error,omitempty"`
}

// GameState is the polled state of an arcade game. Lives is only
// populated by games that track it.
type GameState struct {
	Score    int    `json:"score"`
	GameOver bool   `json:"game_over"`
	Lives    *int   `json:"lives,omitempty"`
	Length   *int   `json:"snake_length,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ActionResult is the generic success/error envelope used by mutation
// endpoints.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StrokeResult is the response of the stroke-size endpoint.
type StrokeResult struct {
	Success    bool   `json:"success"`
	StrokeSize int    `json:"stroke_size"`
	Error      string `json:"error,omitempty"`
}

// UploadResult is the response of the presentation upload endpoint.
type UploadResult struct {
	Success     bool     `json:"success"`
	TotalSlides int      `json:"total_slides"`
	SessionID   string   `json:"session_id"`
	SlideURLs   []string `json:"slide_urls"`
	Error       string   `json:"error,omitempty"`
}

// PresentationState is the polled presentation position.
type PresentationState struct {
	Loaded       bool   `json:"loaded"`
	CurrentSlide int    `json:"current_slide"`
	TotalSlides  int    `json:"total_slides"`
	SessionID    string `json:"session_id"`
}

// PresentationActionResult wraps the state returned after a navigation
// action.
type PresentationActionResult struct {
	Success bool              `json:"success"`
	State   PresentationState `json:"state"`
	Error   string            `json:"error,omitempty"`
}

// CameraStatus re-exports the shared camera status shape.
type CameraStatus = types.CameraStatus

// WhiteboardState re-exports the shared whiteboard state shape.
type WhiteboardState = types.WhiteboardState

// HandPosition re-exports the shared hand position shape.
type HandPosition = types.HandPosition
