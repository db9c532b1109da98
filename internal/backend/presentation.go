package backend

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
)

var allowedDeckTypes = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"application/vnd.ms-powerpoint":                                             true,
}

// ValidateDeck sniffs the file content and rejects anything that is not
// a PDF or PowerPoint deck. Extension checks alone are not trusted.
func ValidateDeck(data []byte) error {
	mt := mimetype.Detect(data)
	for allowed := range allowedDeckTypes {
		if mt.Is(allowed) {
			return nil
		}
	}
	return fmt.Errorf("backend: unsupported deck type %s", mt.String())
}

// UploadDeck sends a presentation file for server-side slide rendering.
func (c *Client) UploadDeck(ctx context.Context, filename string, data []byte) (*UploadResult, error) {
	if err := ValidateDeck(data); err != nil {
		return nil, err
	}

	var out UploadResult
	resp, err := c.call(ctx, http.MethodPost, "/upload_presentation", true, func(r *resty.Request) *resty.Request {
		return r.
			SetFileReader("file", filename, bytes.NewReader(data)).
			SetResult(&out).
			SetError(&out)
	})
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, "/upload_presentation"); err != nil {
		if out.Error != "" {
			return nil, fmt.Errorf("backend: upload deck: %s", out.Error)
		}
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("backend: upload deck: %s", out.Error)
	}
	return &out, nil
}

// DeckState reads the current presentation position.
func (c *Client) DeckState(ctx context.Context) (*PresentationState, error) {
	var out PresentationState
	if err := c.getJSON(ctx, "/presentation_state", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeckAction sends a navigation action ("next", "prev", "first", "last")
// and returns the resulting state.
func (c *Client) DeckAction(ctx context.Context, action string) (*PresentationState, error) {
	var out PresentationActionResult
	body := map[string]string{"action": action}
	if err := c.postJSON(ctx, "/presentation_action", body, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("backend: deck action %q: %s", action, out.Error)
	}
	return &out.State, nil
}

// SlideURL builds the image URL for one rendered slide.
func (c *Client) SlideURL(sessionID string, slide int) string {
	return fmt.Sprintf("%s/presentation_slide/%s/%d", c.baseURL, sessionID, slide)
}
