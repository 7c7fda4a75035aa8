package server

import (
	"github.com/gin-gonic/gin"

	apihttp "github.com/GriffinCanCode/cardspace/internal/api/http"
	"github.com/GriffinCanCode/cardspace/internal/api/middleware"
	"github.com/GriffinCanCode/cardspace/internal/api/ws"
	"github.com/GriffinCanCode/cardspace/internal/infrastructure/monitoring"
)

func registerRoutes(router *gin.Engine, h *apihttp.Handlers, wsHandler *ws.Handler, metrics *monitoring.Metrics) {
	// Ops
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	promHandler := metrics.Handler()
	router.GET("/metrics", func(c *gin.Context) {
		metrics.UpdateUptime()
		promHandler.ServeHTTP(c.Writer, c.Request)
	})
	router.GET("/catalog", h.Catalog)

	// Record endpoints used by remote storage on other servers
	router.GET("/records/:user", h.GetRecord)
	router.PUT("/records/:user", h.PutRecord)

	// WebSocket
	router.GET("/stream", middleware.Identity(), wsHandler.HandleConnection)

	w := router.Group("/workspace", middleware.Identity())
	w.GET("", h.GetWorkspace)
	w.DELETE("", h.CloseWorkspace)
	w.PUT("/bounds", h.SetBounds)
	w.PUT("/mode", h.SetMode)
	w.POST("/sync", h.Sync)
	w.POST("/flush", h.Flush)

	// Views
	w.GET("/minimized", h.Minimized)
	w.GET("/cards", h.ListCards)

	// Card lifecycle
	w.POST("/cards", h.AddCard)
	w.DELETE("/cards/:id", h.RemoveCard)
	w.POST("/cards/:id/focus", h.FocusCard)
	w.POST("/cards/:id/move", h.MoveCard)
	w.POST("/cards/:id/resize", h.ResizeCard)
	w.POST("/cards/:id/minimize", h.MinimizeCard)
	w.POST("/cards/:id/restore", h.RestoreCard)
	w.POST("/cards/:id/maximize", h.MaximizeCard)
	w.POST("/cards/:id/unmaximize", h.UnmaximizeCard)
	w.POST("/cards/:id/toggle-maximize", h.ToggleMaximize)
	w.POST("/cards/:id/title", h.SetTitle)
	w.POST("/cards/:id/meta", h.SetMeta)
	w.POST("/cards/:id/reorder", h.ReorderCard)
	w.POST("/cards/:id/shuffle", h.ShuffleCard)

	// Focus cycling
	w.POST("/focus/next", h.FocusNext)
	w.POST("/focus/prev", h.FocusPrev)

	// Pointer drag
	w.POST("/drag/begin", h.DragBegin)
	w.POST("/drag/move", h.DragMove)
	w.POST("/drag/end", h.DragEnd)
	w.POST("/drag/cancel", h.DragCancel)

	// Mobile carousel
	w.POST("/mobile/touch-start", h.TouchStart)
	w.POST("/mobile/touch-move", h.TouchMove)
	w.POST("/mobile/touch-end", h.TouchEnd)
	w.POST("/mobile/jump", h.Jump)
}
