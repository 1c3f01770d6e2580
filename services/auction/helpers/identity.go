package helpers

import (
	"github.com/gin-gonic/gin"
)

// CallerIDKey is the gin context key the auth middleware stores the
// authenticated user id under
const CallerIDKey = "caller_id"

// CallerID returns the authenticated user id for the current request, or ""
// if the request never passed the auth middleware
func CallerID(c *gin.Context) string {
	return c.GetString(CallerIDKey)
}
