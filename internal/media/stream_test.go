package media

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mjpegHandler(frames [][]byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
		flusher := w.(http.Flusher)
		for _, f := range frames {
			fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(f))
			w.Write(f)
			fmt.Fprint(w, "\r\n")
			flusher.Flush()
		}
		fmt.Fprint(w, "--frame--\r\n")
	}
}

func TestStreamDeliversFrames(t *testing.T) {
	want := [][]byte{[]byte("jpeg-one"), []byte("jpeg-two"), []byte("jpeg-three")}
	srv := httptest.NewServer(mjpegHandler(want))
	defer srv.Close()

	var got [][]byte
	s := NewStream(srv.URL, nil)
	err := s.Run(context.Background(), FrameFunc(func(data []byte) error {
		cp := make([]byte, len(data))
		copy(cp, data)
		got = append(got, cp)
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.False(t, s.Active())
}

func TestStreamBlankStopsDelivery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
		flusher := w.(http.Flusher)
		for i := 0; ; i++ {
			frame := []byte(fmt.Sprintf("frame-%d", i))
			fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(frame))
			if _, err := w.Write(frame); err != nil {
				return
			}
			fmt.Fprint(w, "\r\n")
			flusher.Flush()
			select {
			case <-r.Context().Done():
				return
			case <-time.After(5 * time.Millisecond):
			}
		}
	}))
	defer srv.Close()

	s := NewStream(srv.URL, nil)
	received := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.Run(context.Background(), FrameFunc(func(data []byte) error {
			select {
			case received <- struct{}{}:
			default:
			}
			return nil
		}))
	}()

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("no frame arrived")
	}

	require.NoError(t, s.Blank())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after blank")
	}
	assert.False(t, s.Active())
	assert.ErrorIs(t, s.Blank(), ErrNotStreaming)
}

func TestStreamRejectsNonMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "nope")
	}))
	defer srv.Close()

	s := NewStream(srv.URL, nil)
	err := s.Run(context.Background(), FrameFunc(func([]byte) error { return nil }))
	require.Error(t, err)
}
