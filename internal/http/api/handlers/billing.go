package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/smb02/outreach-engine/internal/models"
	"github.com/smb02/outreach-engine/internal/quota"
)

// BillingHandler serves plan catalog and quota endpoints.
type BillingHandler struct {
	db  *gorm.DB
	mgr *quota.Manager
}

// NewBillingHandler constructs a BillingHandler.
func NewBillingHandler(db *gorm.DB, mgr *quota.Manager) *BillingHandler {
	return &BillingHandler{db: db, mgr: mgr}
}

// Quota returns the authenticated user's quota standing.
func (h *BillingHandler) Quota(c *gin.Context) {
	status, errStatus := h.mgr.Status(c.Request.Context(), UserIDFromContext(c))
	if errStatus != nil {
		if errors.Is(errStatus, quota.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "quota status unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"plan":           status.Plan,
		"daily_limit":    status.DailyLimit,
		"daily_requests": status.DailyRequests,
		"remaining":      status.Remaining,
		"quota_exceeded": status.QuotaExceeded(),
	})
}

// Plans returns the enabled plan catalog.
func (h *BillingHandler) Plans(c *gin.Context) {
	var plans []models.Plan
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("is_enabled = ?", true).
		Order("sort_order ASC, created_at DESC").
		Find(&plans).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list plans failed"})
		return
	}

	out := make([]gin.H, 0, len(plans))
	for _, plan := range plans {
		var features []string
		_ = json.Unmarshal(plan.Features, &features)

		// Negative price marks contact-us tiers.
		var price any = plan.MonthPrice
		if plan.MonthPrice < 0 {
			price = "contact"
		}
		out = append(out, gin.H{
			"name":        plan.Name,
			"daily_limit": plan.DailyLimit,
			"price":       price,
			"features":    features,
		})
	}
	c.JSON(http.StatusOK, gin.H{"plans": out})
}

// upgradeRequest defines the request body for plan upgrades.
type upgradeRequest struct {
	NewPlan string `json:"new_plan"`
}

// Upgrade switches the authenticated user to a new plan.
func (h *BillingHandler) Upgrade(c *gin.Context) {
	var body upgradeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	changed, errUpgrade := h.mgr.UpgradePlan(c.Request.Context(), UserIDFromContext(c), body.NewPlan)
	if errUpgrade != nil {
		switch {
		case errors.Is(errUpgrade, quota.ErrInvalidPlan):
			c.JSON(http.StatusBadRequest, gin.H{"error": "plan upgrade failed"})
		case errors.Is(errUpgrade, quota.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "plan upgrade unavailable"})
		}
		return
	}

	newPlan := quota.NormalizePlan(body.NewPlan)
	c.JSON(http.StatusOK, gin.H{
		"status":   "upgraded",
		"new_plan": newPlan,
		"changed":  changed,
		"message":  fmt.Sprintf("Successfully upgraded to %s plan", newPlan),
	})
}
