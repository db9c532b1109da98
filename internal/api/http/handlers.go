package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gestureflow/client/internal/infrastructure/logging"
	"github.com/gestureflow/client/internal/shared/types"
)

// maxDeckBytes bounds presentation uploads. The backend enforces its
// own limit; this one just keeps the bridge from buffering monsters.
const maxDeckBytes = 64 << 20

// Handlers exposes the bridge REST surface over a Core.
type Handlers struct {
	core   *Core
	logger *logging.Logger
}

// NewHandlers creates the REST handlers.
func NewHandlers(core *Core, logger *logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{core: core, logger: logger.Named("bridge")}
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// State serves the aggregate UI snapshot.
func (h *Handlers) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.core.Snapshot())
}

type navigateRequest struct {
	Screen string `json:"screen" binding:"required"`
}

// Navigate switches the active screen.
func (h *Handlers) Navigate(c *gin.Context) {
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "screen is required"})
		return
	}
	if err := h.core.Navigate(types.ScreenID(req.Screen)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"screen": h.core.Router.Active()})
}

// StartCamera opens the capture device.
func (h *Handlers) StartCamera(c *gin.Context) {
	if err := h.core.StartCamera(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"camera": h.core.Camera.Status()})
}

// StopCamera releases the capture device.
func (h *Handlers) StopCamera(c *gin.Context) {
	if err := h.core.StopCamera(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"camera": h.core.Camera.Status()})
}

// RestartCamera power-cycles the capture device.
func (h *Handlers) RestartCamera(c *gin.Context) {
	if err := h.core.RestartCamera(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"camera": h.core.Camera.Status()})
}

type strokeSizeRequest struct {
	Size int `json:"size" binding:"required"`
}

// SetStrokeSize adjusts the whiteboard pen width.
func (h *Handlers) SetStrokeSize(c *gin.Context) {
	var req strokeSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "size is required"})
		return
	}
	if err := h.core.SetStrokeSize(c.Request.Context(), req.Size); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"size": req.Size})
}

// SelectGame switches the games screen to the named game.
func (h *Handlers) SelectGame(c *gin.Context) {
	game := types.GameID(c.Param("game"))
	if err := h.core.SelectGame(game); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": game, "selected": true})
}

// ResetGame restarts the named game.
func (h *Handlers) ResetGame(c *gin.Context) {
	game := types.GameID(c.Param("game"))
	if err := h.core.ResetGame(c.Request.Context(), game); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": game, "reset": true})
}

// UploadPresentation accepts a multipart deck upload under "file".
func (h *Handlers) UploadPresentation(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxDeckBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}
	if len(data) > maxDeckBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "deck too large"})
		return
	}

	snap, err := h.core.UploadDeck(c.Request.Context(), header.Filename, data)
	if err != nil {
		h.logger.Warn("deck upload rejected", zap.String("filename", header.Filename), zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

type presentationActionRequest struct {
	Action string `json:"action" binding:"required"`
}

// PresentationAction applies a viewer verb.
func (h *Handlers) PresentationAction(c *gin.Context) {
	var req presentationActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action is required"})
		return
	}
	if err := h.core.PresentationAction(c.Request.Context(), req.Action); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.core.Presentation.Snapshot())
}

// CommunityGames lists recent public match results.
func (h *Handlers) CommunityGames(c *gin.Context) {
	limit := 20
	games, err := h.core.CommunityGames(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}

// PublishScore shares the selected game's score publicly.
func (h *Handlers) PublishScore(c *gin.Context) {
	entry, err := h.core.PublishScore(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entry)
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login signs a user in. Failures come back with the mapped
// user-facing message, never the raw backend error.
func (h *Handlers) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	if err := h.core.SignIn(c.Request.Context(), req.Email, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.core.Snapshot().Session)
}

// Register creates an account and signs it in.
func (h *Handlers) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	if err := h.core.SignUp(c.Request.Context(), req.Email, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.core.Snapshot().Session)
}

// CheckAuth reports whether the current session is still honored.
func (h *Handlers) CheckAuth(c *gin.Context) {
	ok, err := h.core.CheckAuth(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": ok})
}

// Logout ends the session.
func (h *Handlers) Logout(c *gin.Context) {
	h.core.SignOut(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"authenticated": false})
}
