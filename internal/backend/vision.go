package backend

import (
	"context"
	"fmt"

	"github.com/gestureflow/client/internal/shared/types"
)

// CameraStatusNow reads the camera lifecycle flags.
func (c *Client) CameraStatusNow(ctx context.Context) (*CameraStatus, error) {
	var out types.CameraStatus
	if err := c.getJSON(ctx, "/camera_status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartCamera asks the backend to open its capture device. The call is
// idempotent; a camera that is already running reports success.
func (c *Client) StartCamera(ctx context.Context) error {
	var out ActionResult
	return c.postJSON(ctx, "/start_camera", nil, &out)
}

// StopCamera releases the backend capture device.
func (c *Client) StopCamera(ctx context.Context) error {
	var out ActionResult
	return c.postJSON(ctx, "/stop_camera", nil, &out)
}

// RestartCamera cycles the capture device.
func (c *Client) RestartCamera(ctx context.Context) error {
	var out ActionResult
	return c.postJSON(ctx, "/restart_camera", nil, &out)
}

// Gesture reads the most recent classified hand pose.
func (c *Client) Gesture(ctx context.Context) (*GestureResult, error) {
	var out GestureResult
	if err := c.getJSON(ctx, "/get_gesture", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// HandPositionNow reads the normalized hand coordinates.
func (c *Client) HandPositionNow(ctx context.Context) (*HandPosition, error) {
	var out types.HandPosition
	if err := c.getJSON(ctx, "/get_hand_position", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WhiteboardStateNow reads the combined drawing state.
func (c *Client) WhiteboardStateNow(ctx context.Context) (*WhiteboardState, error) {
	var out types.WhiteboardState
	if err := c.getJSON(ctx, "/get_whiteboard_state", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetStrokeSize updates the whiteboard stroke width.
func (c *Client) SetStrokeSize(ctx context.Context, size int) error {
	var out StrokeResult
	if err := c.postJSON(ctx, fmt.Sprintf("/set_stroke_size/%d", size), nil, &out); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("backend: set stroke size: %s", out.Error)
	}
	return nil
}

// ProcessFrame submits a base64 data-URL encoded frame for gesture
// detection. Used when capture happens on this side instead of the
// backend camera.
func (c *Client) ProcessFrame(ctx context.Context, frameDataURL string) (*FrameResult, error) {
	var out FrameResult
	body := map[string]string{"frame": frameDataURL}
	if err := c.postJSON(ctx, "/process-frame", body, &out); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, fmt.Errorf("backend: process frame: %s", out.Error)
	}
	return &out, nil
}
