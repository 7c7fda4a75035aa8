package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/cardspace/internal/infrastructure/storage"
	"github.com/GriffinCanCode/cardspace/internal/shared/types"
	"github.com/GriffinCanCode/cardspace/internal/shared/utils"
)

// GetRecord serves a user's stored layout record
func (h *Handlers) GetRecord(c *gin.Context) {
	user := c.Param("user")
	if err := utils.ValidateID(user, "user_id", true); err != nil {
		badRequest(c, err)
		return
	}

	rec, err := h.hub.Records().Load(c.Request.Context(), user)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("Failed to load record", zap.String("user_id", user), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rec)
}

// PutRecord stores a layout record written by another server and tells
// the user's open workspaces about it
func (h *Handlers) PutRecord(c *gin.Context) {
	user := c.Param("user")
	if err := utils.ValidateID(user, "user_id", true); err != nil {
		badRequest(c, err)
		return
	}

	var rec types.LayoutRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		badRequest(c, err)
		return
	}
	if rec.UserID == "" {
		rec.UserID = user
	}
	if rec.UserID != user {
		badRequest(c, errors.New("user_id does not match path"))
		return
	}
	if rec.Hash == "" {
		hash, err := utils.DefaultHasher().HashRecord(&rec)
		if err != nil {
			badRequest(c, err)
			return
		}
		rec.Hash = hash
	}

	if err := h.hub.Records().Save(c.Request.Context(), &rec); err != nil {
		if errors.Is(err, storage.ErrInvalidRecord) {
			badRequest(c, err)
			return
		}
		h.logger.Error("Failed to save record", zap.String("user_id", user), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	pulled := h.hub.Notify(c.Request.Context(), storage.Notice{
		UserID:   rec.UserID,
		DeviceID: rec.DeviceID,
		Hash:     rec.Hash,
		Version:  rec.Version,
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"hash":    rec.Hash,
		"pulled":  pulled,
	})
}
