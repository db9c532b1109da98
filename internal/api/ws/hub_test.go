package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apihttp "github.com/gestureflow/client/internal/api/http"
	"github.com/gestureflow/client/internal/backend"
	"github.com/gestureflow/client/internal/domain/camera"
	"github.com/gestureflow/client/internal/domain/features/arcade"
	"github.com/gestureflow/client/internal/domain/features/basketball"
	"github.com/gestureflow/client/internal/domain/features/presentation"
	"github.com/gestureflow/client/internal/domain/features/rps"
	"github.com/gestureflow/client/internal/domain/features/whiteboard"
	"github.com/gestureflow/client/internal/domain/profile"
	"github.com/gestureflow/client/internal/domain/registry"
	"github.com/gestureflow/client/internal/domain/router"
	"github.com/gestureflow/client/internal/domain/session"
	"github.com/gestureflow/client/internal/shared/types"
)

type fakeBackend struct{}

func (fakeBackend) CameraStatusNow(ctx context.Context) (*backend.CameraStatus, error) {
	return &backend.CameraStatus{}, nil
}
func (fakeBackend) StartCamera(ctx context.Context) error { return nil }
func (fakeBackend) StopCamera(ctx context.Context) error { return nil }
func (fakeBackend) RestartCamera(ctx context.Context) error { return nil }
func (fakeBackend) Gesture(ctx context.Context) (*backend.GestureResult, error) {
	return &backend.GestureResult{}, nil
}
func (fakeBackend) ProcessFrame(ctx context.Context, frame string) (*backend.FrameResult, error) {
	return &backend.FrameResult{}, nil
}
func (fakeBackend) WhiteboardStateNow(ctx context.Context) (*backend.WhiteboardState, error) {
	return &backend.WhiteboardState{}, nil
}
func (fakeBackend) HandPositionNow(ctx context.Context) (*backend.HandPosition, error) {
	return &backend.HandPosition{}, nil
}
func (fakeBackend) ArcadeState(ctx context.Context, game types.GameID) (*backend.GameState, error) {
	return &backend.GameState{}, nil
}
func (fakeBackend) ResetArcade(ctx context.Context, game types.GameID) error { return nil }
func (fakeBackend) StreamURL(game types.GameID) string { return "http://b.test/feed" }
func (fakeBackend) UploadDeck(ctx context.Context, filename string, data []byte) (*backend.UploadResult, error) {
	return &backend.UploadResult{Success: true, TotalSlides: 1, SessionID: "s"}, nil
}
func (fakeBackend) DeckAction(ctx context.Context, action string) (*backend.PresentationState, error) {
	return &backend.PresentationState{}, nil
}
func (fakeBackend) DeckState(ctx context.Context) (*backend.PresentationState, error) {
	return &backend.PresentationState{}, nil
}
func (fakeBackend) SlideURL(sessionID string, slide int) string { return "http://b.test/slide" }

type fakeAuth struct{}

func (fakeAuth) Login(ctx context.Context, email, password string) (string, string, error) {
	return email, "tok", nil
}
func (fakeAuth) Register(ctx context.Context, email, password string) (string, string, error) {
	return email, "tok", nil
}
func (fakeAuth) Refresh(ctx context.Context, token string) (string, error) { return token, nil }
func (fakeAuth) Logout(ctx context.Context) error { return nil }

type stubScreen struct{ id types.ScreenID }

func (s stubScreen) ID() types.ScreenID                { return s.id }
func (s stubScreen) RequiresAuth() bool                { return false }
func (s stubScreen) Provision(context.Context)         {}
func (s stubScreen) HandleGesture(types.GestureSample) {}

func newTestHub(t *testing.T) (*Hub, *apihttp.Core) {
	t.Helper()
	be := fakeBackend{}
	reg := registry.New(nil, nil)
	t.Cleanup(reg.ClearAll)

	cam := camera.New(camera.Options{Vision: be, Registry: reg, StatusInterval: time.Hour})
	guard := session.New(session.Options{Authenticator: fakeAuth{}})
	rt := router.New(router.Options{Registry: reg, Camera: cam, Session: guard})
	for _, id := range types.AllScreens() {
		rt.Register(stubScreen{id: id})
	}
	require.NoError(t, rt.Navigate(types.ScreenLogin))

	core := &apihttp.Core{
		Router:       rt,
		Registry:     reg,
		Camera:       cam,
		Session:      guard,
		Profile:      profile.NewTracker(),
		Presentation: presentation.New(be),
		Arcade: arcade.New(arcade.Options{
			Games:        be,
			Registry:     reg,
			CameraActive: func() bool { return false },
		}),
		RPS:        rps.New(),
		Basketball: basketball.New(be, reg),
		Whiteboard: whiteboard.New(be, reg),
	}
	return NewHub(core, nil, nil), core
}

func dial(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/ws", hub.Handle)
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestInitialStatePush(t *testing.T) {
	hub, _ := newTestHub(t)
	conn := dial(t, hub)

	msg := readMessage(t, conn)
	assert.Equal(t, "state", msg.Type)
	require.NotNil(t, msg.State)
	assert.Equal(t, types.ScreenLogin, msg.State.Screen)
}

func TestPingPong(t *testing.T) {
	hub, _ := newTestHub(t)
	conn := dial(t, hub)
	readMessage(t, conn) // initial state

	require.NoError(t, conn.WriteJSON(Message{Type: "ping"}))
	msg := readMessage(t, conn)
	assert.Equal(t, "pong", msg.Type)
}

func TestNavigateCommandPushesState(t *testing.T) {
	hub, core := newTestHub(t)
	conn := dial(t, hub)
	readMessage(t, conn) // initial state

	require.NoError(t, conn.WriteJSON(Message{Type: "navigate", Screen: "help"}))
	msg := readMessage(t, conn)
	require.Equal(t, "state", msg.Type)
	assert.Equal(t, types.ScreenHelp, msg.State.Screen)
	assert.Equal(t, types.ScreenHelp, core.Router.Active())
}

func TestUnknownCommandReturnsError(t *testing.T) {
	hub, _ := newTestHub(t)
	conn := dial(t, hub)
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(Message{Type: "teleport"}))
	msg := readMessage(t, conn)
	assert.Equal(t, "error", msg.Type)
}

func TestGameSelectCommand(t *testing.T) {
	hub, core := newTestHub(t)
	conn := dial(t, hub)
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(Message{Type: "game_select", Game: "rps"}))
	msg := readMessage(t, conn)
	require.Equal(t, "state", msg.Type)

	game, ok := core.ActiveGame()
	require.True(t, ok)
	assert.Equal(t, types.GameRPS, game)
}
