// Package ws pushes UI state over the bridge WebSocket and accepts the
// same command verbs as the REST surface. The hub snapshots the core on
// a short interval and broadcasts only when the encoded state changed,
// which covers camera transitions, gesture updates, and score changes
// without wiring into every component separately.
package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	apihttp "github.com/gestureflow/client/internal/api/http"
	"github.com/gestureflow/client/internal/infrastructure/logging"
	"github.com/gestureflow/client/internal/infrastructure/monitoring"
	"github.com/gestureflow/client/internal/shared/id"
	"github.com/gestureflow/client/internal/shared/types"
)

const (
	writeWait      = 10 * time.Second
	sendBuffer     = 16
	pushInterval   = 250 * time.Millisecond
	commandTimeout = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	// The bridge binds to loopback; origin enforcement happens in the
	// CORS middleware for the REST surface.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the bridge wire envelope, both directions.
type Message struct {
	Type   string               `json:"type"`
	Screen string               `json:"screen,omitempty"`
	Game   string               `json:"game,omitempty"`
	Action string               `json:"action,omitempty"`
	State  *types.StateSnapshot `json:"state,omitempty"`
	Error  string               `json:"error,omitempty"`
}

type client struct {
	id   id.ConnID
	conn *websocket.Conn
	send chan []byte
}

// Hub fans UI state out to connected front ends.
type Hub struct {
	core    *apihttp.Core
	logger  *logging.Logger
	metrics *monitoring.Metrics

	mu      sync.Mutex
	clients map[id.ConnID]*client
	last    []byte
}

// NewHub creates a hub over the bridge core.
func NewHub(core *apihttp.Core, logger *logging.Logger, metrics *monitoring.Metrics) *Hub {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Hub{
		core:    core,
		logger:  logger.Named("ws"),
		metrics: metrics,
		clients: make(map[id.ConnID]*client),
	}
}

// Run pushes state snapshots until the context ends. Router and session
// changes land within one push interval; an immediate push also fires
// whenever Broadcast is called.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(pushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Broadcast()
		}
	}
}

// Broadcast pushes the current snapshot to every client if it changed
// since the last push.
func (h *Hub) Broadcast() {
	snap := h.core.Snapshot()
	payload, err := json.Marshal(Message{Type: "state", State: &snap})
	if err != nil {
		h.logger.Error("encode state push", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if bytes.Equal(payload, h.last) {
		return
	}
	h.last = payload
	for _, c := range h.clients {
		h.sendLocked(c, payload)
	}
}

// sendLocked queues a payload for one client. A full buffer means a
// slow consumer; the connection is dropped rather than stalling the
// hub. Caller holds h.mu.
func (h *Hub) sendLocked(cl *client, payload []byte) {
	select {
	case cl.send <- payload:
		if h.metrics != nil {
			h.metrics.WSMessages.WithLabelValues("out").Inc()
		}
	default:
		h.dropLocked(cl)
	}
}

// Handle upgrades the request and serves the connection.
func (h *Hub) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{id: id.NewConnID(), conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[cl.id] = cl
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
	}
	h.logger.Info("client connected", zap.String("conn", string(cl.id)))

	go h.writePump(cl)
	h.readPump(cl)
}

func (h *Hub) writePump(cl *client) {
	for payload := range cl.send {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.drop(cl)
			return
		}
	}
}

func (h *Hub) readPump(cl *client) {
	defer h.drop(cl)

	// First message is always the full state so the UI can render
	// without a separate GET /state.
	snap := h.core.Snapshot()
	if welcome, err := json.Marshal(Message{Type: "state", State: &snap}); err == nil {
		h.mu.Lock()
		h.sendLocked(cl, welcome)
		h.mu.Unlock()
	}

	for {
		var msg Message
		if err := cl.conn.ReadJSON(&msg); err != nil {
			return
		}
		if h.metrics != nil {
			h.metrics.WSMessages.WithLabelValues("in").Inc()
		}
		h.dispatch(cl, msg)
	}
}

func (h *Hub) dispatch(cl *client, msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var err error
	switch msg.Type {
	case "ping":
		h.reply(cl, Message{Type: "pong"})
		return
	case "navigate":
		err = h.core.Navigate(types.ScreenID(msg.Screen))
	case "camera_start":
		err = h.core.StartCamera(ctx)
	case "camera_stop":
		err = h.core.StopCamera(ctx)
	case "camera_restart":
		err = h.core.RestartCamera(ctx)
	case "game_select":
		err = h.core.SelectGame(types.GameID(msg.Game))
	case "game_reset":
		err = h.core.ResetGame(ctx, types.GameID(msg.Game))
	case "presentation_action":
		err = h.core.PresentationAction(ctx, msg.Action)
	default:
		h.reply(cl, Message{Type: "error", Error: "unknown message type"})
		return
	}

	if err != nil {
		h.reply(cl, Message{Type: "error", Error: err.Error()})
		return
	}
	h.Broadcast()
}

func (h *Hub) reply(cl *client, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.Lock()
	if _, open := h.clients[cl.id]; open {
		h.sendLocked(cl, payload)
	}
	h.mu.Unlock()
}

func (h *Hub) drop(cl *client) {
	h.mu.Lock()
	h.dropLocked(cl)
	h.mu.Unlock()
}

// dropLocked removes a client and releases its resources. Closing the
// send channel is safe here because every send happens under h.mu.
// Caller holds h.mu.
func (h *Hub) dropLocked(cl *client) {
	if _, open := h.clients[cl.id]; !open {
		return
	}
	delete(h.clients, cl.id)
	close(cl.send)
	_ = cl.conn.Close()
	if h.metrics != nil {
		h.metrics.WSConnections.Dec()
	}
	h.logger.Info("client disconnected", zap.String("conn", string(cl.id)))
}
