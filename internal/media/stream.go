// Package media consumes MJPEG feeds. The backend publishes camera and
// game video as multipart/x-mixed-replace bodies; Stream splits the
// parts and hands each JPEG frame to a sink until stopped.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/gestureflow/client/internal/infrastructure/logging"
)

// FrameSink receives decoded JPEG frames. Implementations must not
// retain data past the call; the buffer is reused.
type FrameSink interface {
	Frame(data []byte) error
}

// FrameFunc adapts a function to FrameSink.
type FrameFunc func(data []byte) error

func (f FrameFunc) Frame(data []byte) error { return f(data) }

// ErrNotStreaming is returned by Blank when no stream is active.
var ErrNotStreaming = errors.New("media: not streaming")

// Stream is one MJPEG subscription. A stream runs until its context is
// canceled, the server closes the body, or Blank is called. A blanked
// stream stays blanked; reconnecting means creating a new Stream.
type Stream struct {
	url    string
	client *resty.Client
	logger *logging.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	body   io.ReadCloser
	active bool
}

// NewStream prepares a subscription to the given feed URL.
func NewStream(url string, logger *logging.Logger) *Stream {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stream{
		url: url,
		client: resty.New().
			SetDoNotParseResponse(true).
			SetTimeout(0),
		logger: logger.Named("media"),
	}
}

// URL returns the feed URL.
func (s *Stream) URL() string { return s.url }

// Active reports whether frames are currently flowing.
func (s *Stream) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Run connects and pumps frames to the sink until ctx is canceled or the
// connection drops. It returns nil on a clean shutdown.
func (s *Stream) Run(ctx context.Context, sink FrameSink) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resp, err := s.client.R().SetContext(ctx).Get(s.url)
	if err != nil {
		return fmt.Errorf("media: connect %s: %w", s.url, err)
	}
	raw := resp.RawBody()
	if resp.StatusCode() != http.StatusOK {
		raw.Close()
		return fmt.Errorf("media: %s returned %s", s.url, resp.Status())
	}

	boundary, err := streamBoundary(resp.Header().Get("Content-Type"))
	if err != nil {
		raw.Close()
		return err
	}

	s.mu.Lock()
	s.cancel = cancel
	s.body = raw
	s.active = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.active = false
		s.cancel = nil
		s.body = nil
		s.mu.Unlock()
		raw.Close()
	}()

	s.logger.Debug("stream connected", zap.String("url", s.url))

	reader := multipart.NewReader(raw, boundary)
	started := time.Now()
	frames := 0
	for {
		part, err := reader.NextPart()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				s.logger.Debug("stream closed",
					zap.String("url", s.url),
					zap.Int("frames", frames),
					zap.Duration("elapsed", time.Since(started)))
				return nil
			}
			return fmt.Errorf("media: read part: %w", err)
		}
		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("media: read frame: %w", err)
		}
		frames++
		if err := sink.Frame(data); err != nil {
			return fmt.Errorf("media: sink: %w", err)
		}
	}
}

// Blank tears down the connection. The sink sees no further frames.
func (s *Stream) Blank() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ErrNotStreaming
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.body != nil {
		s.body.Close()
	}
	s.active = false
	return nil
}

func streamBoundary(contentType string) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("media: parse content type: %w", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return "", fmt.Errorf("media: unexpected content type %s", mediaType)
	}
	boundary, ok := params["boundary"]
	if !ok || boundary == "" {
		return "", errors.New("media: missing boundary")
	}
	return strings.TrimPrefix(boundary, "--"), nil
}
