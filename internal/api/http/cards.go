package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/cardspace/internal/domain/card"
	"github.com/GriffinCanCode/cardspace/internal/shared/types"
	"github.com/GriffinCanCode/cardspace/internal/shared/utils"
)

// AddCard opens a card. Singleton types return the existing card.
func (h *Handlers) AddCard(c *gin.Context) {
	var req types.AddCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := types.ParseCardType(req.Type)
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateTitle(req.Title); err != nil {
		badRequest(c, err)
		return
	}
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	id, err := ws.Store.AddCard(c.Request.Context(), t, card.Payload{
		Title:   req.Title,
		DataRef: req.DataRef,
		Meta:    req.Meta,
	})
	if err != nil {
		badRequest(c, err)
		return
	}

	created, _ := ws.Store.Get(id)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"card_id": id,
		"card":    created,
	})
}

// RemoveCard closes a card
func (h *Handlers) RemoveCard(c *gin.Context) {
	id, ok := cardID(c)
	if !ok {
		return
	}
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	success := ws.Store.RemoveCard(c.Request.Context(), id)

	c.JSON(http.StatusOK, gin.H{
		"success": success,
		"card_id": id,
	})
}

// cardAction wraps a mutator that only needs the card id
func (h *Handlers) cardAction(fn func(s *card.Store, id string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := cardID(c)
		if !ok {
			return
		}
		ws, ok := h.workspace(c)
		if !ok {
			return
		}

		success := fn(ws.Store, id)

		c.JSON(http.StatusOK, gin.H{
			"success": success,
			"card_id": id,
		})
	}
}

// FocusCard brings a card to the front
func (h *Handlers) FocusCard(c *gin.Context) {
	h.cardAction((*card.Store).FocusCard)(c)
}

// MinimizeCard docks a card
func (h *Handlers) MinimizeCard(c *gin.Context) {
	h.cardAction((*card.Store).MinimizeCard)(c)
}

// RestoreCard undocks a card
func (h *Handlers) RestoreCard(c *gin.Context) {
	h.cardAction((*card.Store).RestoreCard)(c)
}

// MaximizeCard fills the viewport with a card
func (h *Handlers) MaximizeCard(c *gin.Context) {
	h.cardAction((*card.Store).MaximizeCard)(c)
}

// UnmaximizeCard returns a card to its saved geometry
func (h *Handlers) UnmaximizeCard(c *gin.Context) {
	h.cardAction((*card.Store).UnmaximizeCard)(c)
}

// ToggleMaximize flips the maximized state
func (h *Handlers) ToggleMaximize(c *gin.Context) {
	h.cardAction((*card.Store).ToggleMaximize)(c)
}

// MoveCard positions a card; the position is clamped into the viewport
func (h *Handlers) MoveCard(c *gin.Context) {
	var req types.PointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.cardAction(func(s *card.Store, id string) bool {
		return s.MoveCard(id, req.X, req.Y)
	})(c)
}

// ResizeCard sizes a card within its type's limits
func (h *Handlers) ResizeCard(c *gin.Context) {
	var req types.SizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.cardAction(func(s *card.Store, id string) bool {
		return s.ResizeCard(id, req.Width, req.Height)
	})(c)
}

// SetTitle renames a card
func (h *Handlers) SetTitle(c *gin.Context) {
	var req types.TitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateTitle(req.Title); err != nil {
		badRequest(c, err)
		return
	}
	h.cardAction(func(s *card.Store, id string) bool {
		return s.SetCardTitle(id, req.Title)
	})(c)
}

// SetMeta merges metadata into a card
func (h *Handlers) SetMeta(c *gin.Context) {
	var req types.MetaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateMeta(req.Meta); err != nil {
		badRequest(c, err)
		return
	}
	h.cardAction(func(s *card.Store, id string) bool {
		return s.SetCardMeta(id, req.Meta)
	})(c)
}

// ReorderCard moves a card to a collection index
func (h *Handlers) ReorderCard(c *gin.Context) {
	var req types.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.cardAction(func(s *card.Store, id string) bool {
		return s.ReorderCard(id, req.Index)
	})(c)
}

// ShuffleCard promotes a stack preview to the primary slot
func (h *Handlers) ShuffleCard(c *gin.Context) {
	id, ok := cardID(c)
	if !ok {
		return
	}
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	transitions, err := ws.Store.Shuffle(id)
	if err != nil {
		stateConflict(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"card_id":     id,
		"transitions": transitions,
	})
}

// FocusNext cycles focus forward
func (h *Handlers) FocusNext(c *gin.Context) {
	h.cycle(c, (*card.Store).FocusNext)
}

// FocusPrev cycles focus backward
func (h *Handlers) FocusPrev(c *gin.Context) {
	h.cycle(c, (*card.Store).FocusPrev)
}

func (h *Handlers) cycle(c *gin.Context, fn func(s *card.Store) (string, bool)) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	id, success := fn(ws.Store)

	c.JSON(http.StatusOK, gin.H{
		"success": success,
		"card_id": id,
	})
}

// DragBegin starts a pointer drag
func (h *Handlers) DragBegin(c *gin.Context) {
	var req types.DragBeginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateID(req.CardID, "card_id", true); err != nil {
		badRequest(c, err)
		return
	}
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	if err := ws.Store.BeginDrag(req.CardID, float64(req.X), float64(req.Y)); err != nil {
		stateConflict(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"card_id": req.CardID,
	})
}

// DragMove feeds a pointer position to the active drag
func (h *Handlers) DragMove(c *gin.Context) {
	var req types.PointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	moved := ws.Store.DragMove(float64(req.X), float64(req.Y))

	c.JSON(http.StatusOK, gin.H{
		"success":  moved,
		"dragging": ws.Store.Dragging(),
	})
}

// DragEnd finishes the active drag
func (h *Handlers) DragEnd(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	res, success := ws.Store.EndDrag()

	c.JSON(http.StatusOK, gin.H{
		"success": success,
		"result":  res,
	})
}

// DragCancel abandons the active drag and restores the original geometry
func (h *Handlers) DragCancel(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	success := ws.Store.CancelDrag()
	if success {
		h.logger.Debug("Drag cancelled", zap.String("user_id", ws.UserID))
	}

	c.JSON(http.StatusOK, gin.H{"success": success})
}
