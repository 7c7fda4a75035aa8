package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/cardspace/internal/shared/utils"
)

const (
	userIDKey   = "user_id"
	deviceIDKey = "device_id"
)

// Identity requires the user and device headers and stores them on the context.
// For websocket upgrades, where browsers cannot set headers, the query
// parameters user and device are accepted instead.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.GetHeader(HeaderUserID)
		if user == "" {
			user = c.Query("user")
		}
		device := c.GetHeader(HeaderDeviceID)
		if device == "" {
			device = c.Query("device")
		}

		if err := utils.ValidateID(user, "user_id", true); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := utils.ValidateID(device, "device_id", true); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.Set(userIDKey, user)
		c.Set(deviceIDKey, device)
		c.Next()
	}
}

// GetIdentity returns the user and device set by Identity
func GetIdentity(c *gin.Context) (user, device string) {
	return c.GetString(userIDKey), c.GetString(deviceIDKey)
}
