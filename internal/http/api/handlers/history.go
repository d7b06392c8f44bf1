package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/smb02/outreach-engine/internal/memory"
)

// HistoryHandler serves conversation history endpoints.
type HistoryHandler struct {
	memory *memory.Store
}

// NewHistoryHandler constructs a HistoryHandler.
func NewHistoryHandler(memoryStore *memory.Store) *HistoryHandler {
	return &HistoryHandler{memory: memoryStore}
}

// ListChats returns summaries of the user's chats, newest first.
func (h *HistoryHandler) ListChats(c *gin.Context) {
	chats, errList := h.memory.ListChats(UserIDFromContext(c))
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list chats failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// GetChat returns a full chat record.
func (h *HistoryHandler) GetChat(c *gin.Context) {
	chatID := strings.TrimSpace(c.Param("id"))
	chat, errGet := h.memory.GetChat(UserIDFromContext(c), chatID)
	if errGet != nil {
		if errors.Is(errGet, memory.ErrChatNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load chat failed"})
		return
	}
	c.JSON(http.StatusOK, chat)
}

// DeleteChat removes a chat record.
func (h *HistoryHandler) DeleteChat(c *gin.Context) {
	chatID := strings.TrimSpace(c.Param("id"))
	if errDelete := h.memory.DeleteChat(UserIDFromContext(c), chatID); errDelete != nil {
		if errors.Is(errDelete, memory.ErrChatNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete chat failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
