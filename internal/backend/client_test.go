package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestureflow/client/internal/shared/types"
)

type staticTokens struct {
	token atomic.Value
}

func newStaticTokens(t string) *staticTokens {
	s := &staticTokens{}
	s.token.Store(t)
	return s
}

func (s *staticTokens) Token(ctx context.Context) (string, error) {
	return s.token.Load().(string), nil
}

type countingRefresher struct {
	tokens *staticTokens
	next   string
	calls  atomic.Int32
}

func (r *countingRefresher) Refresh(ctx context.Context) error {
	r.calls.Add(1)
	r.tokens.token.Store(r.next)
	return nil
}

func newTestClient(t *testing.T, handler http.Handler, tokens TokenSource, refresher Refresher) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(Options{
		BaseURL:   srv.URL,
		Tokens:    tokens,
		Refresher: refresher,
	})
	return c, srv
}

func TestGestureInjectsBearer(t *testing.T) {
	var got string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(GestureResult{Gesture: "thumbs_up"})
	})
	c, _ := newTestClient(t, handler, newStaticTokens("tok-1"), nil)

	res, err := c.Gesture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "thumbs_up", res.Gesture)
	assert.Equal(t, "Bearer tok-1", got)
}

func TestUnauthorizedRefreshesExactlyOnce(t *testing.T) {
	tokens := newStaticTokens("stale")
	refresher := &countingRefresher{tokens: tokens, next: "fresh"}

	var hits atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(GestureResult{Gesture: "fist"})
	})
	c, _ := newTestClient(t, handler, tokens, refresher)

	res, err := c.Gesture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fist", res.Gesture)
	assert.Equal(t, int32(1), refresher.calls.Load(), "refresh must run once")
	assert.Equal(t, int32(2), hits.Load(), "original request retried once")
}

func TestUnauthorizedAfterRefreshSurfaces(t *testing.T) {
	tokens := newStaticTokens("stale")
	refresher := &countingRefresher{tokens: tokens, next: "still-stale"}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	c, _ := newTestClient(t, handler, tokens, refresher)

	_, err := c.Gesture(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), refresher.calls.Load(), "no second refresh attempt")
}

func TestLoginSkipsBearer(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Password != "hunter22" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(AuthResult{Success: false, Message: "Invalid credentials"})
			return
		}
		json.NewEncoder(w).Encode(AuthResult{Success: true, Message: "Login successful", Token: "tok"})
	})
	c, _ := newTestClient(t, handler, newStaticTokens("should-not-send"), nil)

	res, err := c.Login(context.Background(), Credentials{Email: "a@b.c", Password: "hunter22"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "tok", res.Token)

	res, err = c.Login(context.Background(), Credentials{Email: "a@b.c", Password: "wrong"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid credentials", res.Message)
}

func TestCameraStatusNow(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/camera_status", r.URL.Path)
		json.NewEncoder(w).Encode(types.CameraStatus{Active: true, Requested: true})
	})
	c, _ := newTestClient(t, handler, newStaticTokens("tok"), nil)

	st, err := c.CameraStatusNow(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Active)
}

func TestArcadeStateRejectsNonArcadeGame(t *testing.T) {
	c := New(Options{BaseURL: "http://localhost:0"})
	_, err := c.ArcadeState(context.Background(), types.GameRPS)
	require.Error(t, err)
}

func TestArcadeStateAndReset(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/snake_state":
			length := 4
			json.NewEncoder(w).Encode(GameState{Score: 30, Length: &length})
		case "/snake_reset":
			assert.Equal(t, http.MethodPost, r.Method)
			json.NewEncoder(w).Encode(ActionResult{Success: true})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	c, _ := newTestClient(t, handler, newStaticTokens("tok"), nil)

	st, err := c.ArcadeState(context.Background(), types.GameSnake)
	require.NoError(t, err)
	assert.Equal(t, 30, st.Score)
	require.NotNil(t, st.Length)
	assert.Equal(t, 4, *st.Length)

	require.NoError(t, c.ResetArcade(context.Background(), types.GameSnake))
}

func TestStreamURL(t *testing.T) {
	c := New(Options{BaseURL: "http://vision:5000/"})
	assert.Equal(t, "http://vision:5000/video_feed", c.StreamURL(""))
	assert.Equal(t, "http://vision:5000/snake_feed", c.StreamURL(types.GameSnake))
}

func TestSlideURL(t *testing.T) {
	c := New(Options{BaseURL: "http://vision:5000"})
	assert.Equal(t, "http://vision:5000/presentation_slide/sess-1/3", c.SlideURL("sess-1", 3))
}

func TestDeckAction(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/presentation_action", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "next", body["action"])
		json.NewEncoder(w).Encode(PresentationActionResult{
			Success: true,
			State:   PresentationState{Loaded: true, CurrentSlide: 2, TotalSlides: 9},
		})
	})
	c, _ := newTestClient(t, handler, newStaticTokens("tok"), nil)

	st, err := c.DeckAction(context.Background(), "next")
	require.NoError(t, err)
	assert.Equal(t, 2, st.CurrentSlide)
}

func TestValidateDeckRejectsJunk(t *testing.T) {
	err := ValidateDeck([]byte("definitely not a pdf"))
	require.Error(t, err)
}

func TestValidateDeckAcceptsPDF(t *testing.T) {
	pdf := append([]byte("%PDF-1.4\n"), make([]byte, 64)...)
	require.NoError(t, ValidateDeck(pdf))
}
