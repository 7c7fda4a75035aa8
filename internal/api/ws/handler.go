package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/cardspace/internal/api/middleware"
	"github.com/GriffinCanCode/cardspace/internal/domain/card"
	"github.com/GriffinCanCode/cardspace/internal/domain/workspace"
	"github.com/GriffinCanCode/cardspace/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/cardspace/internal/shared/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 64 * 1024
	outboxSize     = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin policy is enforced by the CORS middleware
	},
}

// Handler manages WebSocket connections
type Handler struct {
	hub     *workspace.Hub
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// NewHandler creates a new WebSocket handler. metrics may be nil.
func NewHandler(hub *workspace.Hub, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		hub:     hub,
		metrics: metrics,
		logger:  logger,
	}
}

// session is one open connection bound to a workspace
type session struct {
	id      string
	conn    *websocket.Conn
	ws      *workspace.Workspace
	outbox  chan interface{}
	changed chan struct{} // Coalesces store changes into one pending snapshot
	done    chan struct{}
	once    sync.Once
}

func (s *session) close() {
	s.once.Do(func() { close(s.done) })
}

// abort closes the socket so a blocked read returns
func (s *session) abort() {
	_ = s.conn.Close()
	s.close()
}

// HandleConnection upgrades the request and streams workspace snapshots
// until the client disconnects. Must run behind middleware.Identity.
func (h *Handler) HandleConnection(c *gin.Context) {
	user, device := middleware.GetIdentity(c)
	ws, err := h.hub.Open(c.Request.Context(), user, device, types.Bounds{})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	s := &session{
		id:      uuid.NewString(),
		conn:    conn,
		ws:      ws,
		outbox:  make(chan interface{}, outboxSize),
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	logger := h.logger.With(
		zap.String("conn_id", s.id),
		zap.String("user_id", user),
		zap.String("device_id", device))

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}
	logger.Info("WebSocket connected")
	defer logger.Info("WebSocket disconnected")

	unsubscribe := ws.Store.Subscribe(func(card.Change) {
		select {
		case s.changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	// Detached from the request so a pull started by "visible" is not cut
	// short by the upgrade handler's context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.writeLoop(s, logger)
	}()

	h.enqueue(s, map[string]interface{}{
		"type":          "system",
		"message":       "Connected to cardspace",
		"connection_id": s.id,
		"timestamp":     time.Now().Unix(),
	})
	h.enqueue(s, snapshotMessage(ws))

	h.readLoop(ctx, s, logger)
	s.close()
	wg.Wait()
}

func (h *Handler) readLoop(ctx context.Context, s *session, logger *zap.Logger) {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg types.WSMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
		if h.metrics != nil {
			h.metrics.RecordWSMessage("in", msg.Type)
		}

		switch msg.Type {
		case "visible":
			h.handleVisible(ctx, s, logger)
		case "snapshot":
			h.enqueue(s, snapshotMessage(s.ws))
		case "ping":
			h.enqueue(s, map[string]interface{}{"type": "pong"})
		default:
			h.sendError(s, "unknown message type")
		}
	}
}

// handleVisible pulls the user's record, as the client regained visibility.
// An applied pull also triggers a snapshot through the store subscription.
func (h *Handler) handleVisible(ctx context.Context, s *session, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := s.ws.Sync(ctx)
	if err != nil {
		logger.Warn("Sync on visibility failed", zap.Error(err))
		h.sendError(s, err.Error())
		return
	}
	h.enqueue(s, map[string]interface{}{
		"type":      "sync",
		"pull":      res,
		"timestamp": time.Now().Unix(),
	})
}

func (h *Handler) writeLoop(s *session, logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return

		case msg := <-s.outbox:
			if err := h.write(s, msg); err != nil {
				logger.Debug("WebSocket write failed", zap.Error(err))
				s.abort()
				return
			}

		case <-s.changed:
			if err := h.write(s, snapshotMessage(s.ws)); err != nil {
				logger.Debug("WebSocket write failed", zap.Error(err))
				s.abort()
				return
			}

		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.abort()
				return
			}
		}
	}
}

func (h *Handler) write(s *session, msg interface{}) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(msg); err != nil {
		return err
	}
	if h.metrics != nil {
		if m, ok := msg.(map[string]interface{}); ok {
			if t, ok := m["type"].(string); ok {
				h.metrics.RecordWSMessage("out", t)
			}
		}
	}
	return nil
}

// enqueue hands a message to the writer, dropping it if the connection is gone
func (h *Handler) enqueue(s *session, msg interface{}) {
	select {
	case s.outbox <- msg:
	case <-s.done:
	}
}

func (h *Handler) sendError(s *session, msg string) {
	h.enqueue(s, map[string]interface{}{
		"type":      "error",
		"message":   msg,
		"timestamp": time.Now().Unix(),
	})
}

func snapshotMessage(ws *workspace.Workspace) map[string]interface{} {
	return map[string]interface{}{
		"type":         "snapshot",
		"workspace":    ws.Store.Snapshot(),
		"active_index": ws.Mobile.ActiveIndex(),
		"timestamp":    time.Now().Unix(),
	}
}
