package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/smb02/outreach-engine/internal/profile"
)

// LinkedInHandler serves the profile-analysis endpoints.
type LinkedInHandler struct {
	analyzer *profile.Analyzer
}

// NewLinkedInHandler constructs a LinkedInHandler.
func NewLinkedInHandler(analyzer *profile.Analyzer) *LinkedInHandler {
	return &LinkedInHandler{analyzer: analyzer}
}

// analyzeRequest defines the request body for profile analysis.
type analyzeRequest struct {
	ProfileURL string `json:"profile_url"`
}

// Analyze returns the analysis for a LinkedIn profile URL.
func (h *LinkedInHandler) Analyze(c *gin.Context) {
	var body analyzeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.ProfileURL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing profile_url"})
		return
	}
	c.JSON(http.StatusOK, h.analyzer.AnalyzeProfile(body.ProfileURL))
}

// Insights returns canned outreach insights.
func (h *LinkedInHandler) Insights(c *gin.Context) {
	c.JSON(http.StatusOK, h.analyzer.ProfileInsights())
}
