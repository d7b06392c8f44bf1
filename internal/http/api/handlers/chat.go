package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/smb02/outreach-engine/internal/generator"
	"github.com/smb02/outreach-engine/internal/mail"
	"github.com/smb02/outreach-engine/internal/memory"
	"github.com/smb02/outreach-engine/internal/quota"
)

// ChatHandler serves the quota-gated chat and generation endpoints.
type ChatHandler struct {
	mgr    *quota.Manager
	memory *memory.Store
	mail   *mail.Generator
	model  *generator.Loader
}

// NewChatHandler constructs a ChatHandler.
func NewChatHandler(mgr *quota.Manager, memoryStore *memory.Store, mailGen *mail.Generator, model *generator.Loader) *ChatHandler {
	return &ChatHandler{mgr: mgr, memory: memoryStore, mail: mailGen, model: model}
}

// messageRequest defines the request body for sending a chat message.
type messageRequest struct {
	ChatID        string `json:"chat_id"`
	Content       string `json:"content"`
	RecipientName string `json:"recipient_name"`
	Company       string `json:"company"`
	JobTitle      string `json:"job_title"`
}

// Message appends a prompt to the chat and returns a generated outreach mail.
func (h *ChatHandler) Message(c *gin.Context) {
	var body messageRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing content"})
		return
	}

	userID := UserIDFromContext(c)

	chatID := strings.TrimSpace(body.ChatID)
	if chatID == "" {
		created, errCreate := h.memory.CreateChat(userID)
		if errCreate != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create chat failed"})
			return
		}
		chatID = created
	}

	if errAdd := h.memory.AddMessage(userID, chatID, "user", body.Content); errAdd != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store message failed"})
		return
	}

	coldMail := h.mail.GenerateColdMail(body.RecipientName, body.Company, body.JobTitle, body.Content, "")

	// The transcript feeds the model; with the mock backend the reply is a
	// fixed template.
	if _, errContext := h.memory.Context(userID, chatID); errContext != nil {
		log.WithError(errContext).Warn("chat: load context failed")
	}
	if _, errGenerate := h.model.Generate(body.Content); errGenerate != nil {
		log.WithError(errGenerate).Warn("chat: model generation failed")
	}
	responseText := fmt.Sprintf("Generated outreach for %s at %s", body.RecipientName, body.Company)

	if errAdd := h.memory.AddMessage(userID, chatID, "assistant", responseText); errAdd != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store message failed"})
		return
	}

	status, errStatus := h.mgr.Status(c.Request.Context(), userID)
	if errStatus != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "quota status unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"chat_id":         chatID,
		"message":         responseText,
		"generated_mail":  coldMail,
		"quota_remaining": status.Remaining,
	})
}

// CreateChat starts a new chat session.
func (h *ChatHandler) CreateChat(c *gin.Context) {
	chatID, errCreate := h.memory.CreateChat(UserIDFromContext(c))
	if errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create chat failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"chat_id": chatID})
}
