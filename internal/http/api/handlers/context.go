package handlers

import "github.com/gin-gonic/gin"

// ContextUserID is the gin context key holding the authenticated user ID.
const ContextUserID = "userID"

// UserIDFromContext returns the authenticated user ID, or 0 when absent.
func UserIDFromContext(c *gin.Context) uint64 {
	value, ok := c.Get(ContextUserID)
	if !ok {
		return 0
	}
	userID, ok := value.(uint64)
	if !ok {
		return 0
	}
	return userID
}
