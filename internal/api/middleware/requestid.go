package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/cardspace/internal/shared/id"
	"github.com/GriffinCanCode/cardspace/internal/shared/utils"
)

// Header names shared with clients
const (
	HeaderUserID    = "X-User-ID"
	HeaderDeviceID  = "X-Device-ID"
	HeaderRequestID = "X-Request-ID"
)

const requestIDKey = "request_id"

// RequestID tags every request with an id, reusing a well-formed one from the client.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if rid == "" || utils.ValidateID(rid, "request_id", true) != nil {
			rid = id.NewRequestID().String()
		}
		c.Set(requestIDKey, rid)
		c.Header(HeaderRequestID, rid)
		c.Next()
	}
}

// GetRequestID returns the id assigned by RequestID
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
