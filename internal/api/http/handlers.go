package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/cardspace/internal/api/middleware"
	"github.com/GriffinCanCode/cardspace/internal/domain/card"
	"github.com/GriffinCanCode/cardspace/internal/domain/workspace"
	"github.com/GriffinCanCode/cardspace/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/cardspace/internal/shared/types"
	"github.com/GriffinCanCode/cardspace/internal/shared/utils"
)

// Version is reported by the root endpoint
const Version = "0.3.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	hub     *workspace.Hub
	metrics *monitoring.Metrics
	logger  *zap.Logger
	started time.Time
}

// NewHandlers creates a new handler set. metrics may be nil.
func NewHandlers(hub *workspace.Hub, metrics *monitoring.Metrics, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		hub:     hub,
		metrics: metrics,
		logger:  logger,
		started: time.Now(),
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "cardspace",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	resp := gin.H{
		"status":     "healthy",
		"uptime":     time.Since(h.started).Round(time.Second).String(),
		"workspaces": h.hub.Stats(),
		"storage":    h.hub.Records().Name(),
		"catalog":    len(h.hub.Catalog().All()),
	}
	if h.metrics != nil {
		h.metrics.UpdateUptime()
		resp["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

// Catalog lists the card types with their effective specs
func (h *Handlers) Catalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"types": h.hub.Catalog().All()})
}

// workspace opens the caller's workspace. It writes the error response itself.
func (h *Handlers) workspace(c *gin.Context) (*workspace.Workspace, bool) {
	user, device := middleware.GetIdentity(c)
	ws, err := h.hub.Open(c.Request.Context(), user, device, types.Bounds{})
	if err != nil {
		badRequest(c, err)
		return nil, false
	}
	return ws, true
}

// GetWorkspace returns the caller's snapshot with sync and mobile state
func (h *Handlers) GetWorkspace(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"workspace": ws.Store.Snapshot(),
		"sync":      ws.Saver.Stats(),
		"mobile": gin.H{
			"active_index": ws.Mobile.ActiveIndex(),
			"count":        ws.Mobile.Count(),
		},
	})
}

// SetBounds resizes the viewport
func (h *Handlers) SetBounds(c *gin.Context) {
	var req types.SizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	if err := ws.Store.SetBounds(types.Bounds{Width: req.Width, Height: req.Height}); err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"bounds":  ws.Store.Bounds(),
	})
}

// SetMode switches the layout strategy
func (h *Handlers) SetMode(c *gin.Context) {
	var req types.ModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	mode, err := types.ParseLayoutMode(req.Mode)
	if err != nil {
		badRequest(c, err)
		return
	}
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	if err := ws.Store.SetLayoutMode(mode); err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"mode":       ws.Store.Mode(),
		"placements": ws.Store.Placements(),
	})
}

// Minimized lists the docked cards
func (h *Handlers) Minimized(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": ws.Store.Minimized()})
}

// ListCards lists cards, optionally filtered by ?type=
func (h *Handlers) ListCards(c *gin.Context) {
	typeStr := c.Query("type")

	var (
		t      types.CardType
		filter bool
	)
	if typeStr != "" {
		parsed, err := types.ParseCardType(typeStr)
		if err != nil {
			badRequest(c, err)
			return
		}
		t, filter = parsed, true
	}

	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	cards := ws.Store.Cards()
	if filter {
		cards = ws.Store.OfType(t)
	}
	c.JSON(http.StatusOK, gin.H{
		"cards": cards,
		"count": len(cards),
	})
}

// Sync pulls the user's record, as a client does when it becomes visible again
func (h *Handlers) Sync(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	res, err := ws.Sync(c.Request.Context())
	if err != nil {
		h.logger.Warn("Sync failed",
			zap.String("user_id", ws.UserID),
			zap.String("device_id", ws.DeviceID),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": res.Applied(),
		"pull":    res,
	})
}

// Flush saves pending changes now
func (h *Handlers) Flush(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	if err := ws.Saver.Flush(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"sync":    ws.Saver.Stats(),
	})
}

// CloseWorkspace flushes and forgets the caller's workspace
func (h *Handlers) CloseWorkspace(c *gin.Context) {
	user, device := middleware.GetIdentity(c)

	closed, err := h.hub.Close(c.Request.Context(), user, device)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": closed})
}

// cardID reads and validates the :id path parameter
func cardID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if err := utils.ValidateID(id, "card_id", true); err != nil {
		badRequest(c, err)
		return "", false
	}
	return id, true
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// stateConflict answers errors raised by the current workspace state,
// such as dragging during another drag or shuffling outside stack mode
func stateConflict(c *gin.Context, err error) {
	if errors.Is(err, card.ErrUnknownCard) {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
}
