package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/cardspace/internal/domain/workspace"
	"github.com/GriffinCanCode/cardspace/internal/shared/types"
)

// TouchStart begins a swipe on the mobile carousel
func (h *Handlers) TouchStart(c *gin.Context) {
	var req types.TouchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	ws.Mobile.TouchStart(req.X, req.T)

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"active_index": ws.Mobile.ActiveIndex(),
	})
}

// TouchMove returns the offset to render, with edge resistance applied
func (h *Handlers) TouchMove(c *gin.Context) {
	var req types.TouchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	offset := ws.Mobile.TouchMove(req.X, req.T)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"offset":  offset,
	})
}

// TouchEnd releases the swipe and reports whether it committed
func (h *Handlers) TouchEnd(c *gin.Context) {
	var req types.TouchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	out := ws.Mobile.TouchEnd(req.X, req.T)

	c.JSON(http.StatusOK, gin.H{
		"success": out.Committed,
		"outcome": out,
		"card_id": activeCard(ws, out.ActiveIndex),
	})
}

// Jump selects a mobile index directly; out-of-range indices clamp
func (h *Handlers) Jump(c *gin.Context) {
	var req types.JumpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	index := ws.Mobile.JumpTo(req.Index)

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"active_index": index,
		"card_id":      activeCard(ws, index),
	})
}

// activeCard returns the id of the card at the mobile index, if any
func activeCard(ws *workspace.Workspace, index int) string {
	cards := ws.Store.Cards()
	if index < 0 || index >= len(cards) {
		return ""
	}
	return cards[index].ID
}
