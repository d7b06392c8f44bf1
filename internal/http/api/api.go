package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/smb02/outreach-engine/internal/config"
	"github.com/smb02/outreach-engine/internal/generator"
	handlers "github.com/smb02/outreach-engine/internal/http/api/handlers"
	"github.com/smb02/outreach-engine/internal/mail"
	"github.com/smb02/outreach-engine/internal/memory"
	"github.com/smb02/outreach-engine/internal/profile"
	"github.com/smb02/outreach-engine/internal/quota"
	"github.com/smb02/outreach-engine/internal/ratelimit"
	"github.com/smb02/outreach-engine/internal/security"
)

// Services bundles the dependencies injected into the HTTP layer.
type Services struct {
	DB      *gorm.DB
	JWT     config.JWTConfig
	Quota   *quota.Manager
	Limiter *ratelimit.Manager
	Memory  *memory.Store
	Mail    *mail.Generator
	Profile *profile.Analyzer
	Model   *generator.Loader
}

// RegisterRoutes registers all API routes, middleware, and handlers.
func RegisterRoutes(r *gin.Engine, svc Services) {
	if r == nil || svc.DB == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(svc.DB)
	r.GET("/healthz", healthHandler.Healthz)

	apiGroup := r.Group("/api")

	authHandler := handlers.NewAuthHandler(svc.DB, svc.JWT)
	apiGroup.POST("/auth/register", authHandler.Register)
	apiGroup.POST("/auth/login", authHandler.Login)

	authed := apiGroup.Group("")
	authed.Use(userAuthMiddleware(svc.JWT))
	authed.GET("/auth/me", authHandler.Me)

	billingHandler := handlers.NewBillingHandler(svc.DB, svc.Quota)
	apiGroup.GET("/billing/plans", billingHandler.Plans)
	authed.GET("/billing/quota", billingHandler.Quota)
	authed.POST("/billing/upgrade", billingHandler.Upgrade)

	historyHandler := handlers.NewHistoryHandler(svc.Memory)
	authed.GET("/history/chats", historyHandler.ListChats)
	authed.GET("/history/chat/:id", historyHandler.GetChat)
	authed.DELETE("/history/chat/:id", historyHandler.DeleteChat)

	// Generation endpoints pass the request gate: burst limiter, then the
	// quota admission check, then usage recording.
	gated := authed.Group("")
	gated.Use(quotaGateMiddleware(svc.Quota, svc.Limiter))

	chatHandler := handlers.NewChatHandler(svc.Quota, svc.Memory, svc.Mail, svc.Model)
	gated.POST("/chat/message", chatHandler.Message)
	gated.POST("/chat/create-chat", chatHandler.CreateChat)

	linkedinHandler := handlers.NewLinkedInHandler(svc.Profile)
	gated.POST("/linkedin/analyze", linkedinHandler.Analyze)
	gated.GET("/linkedin/insights", linkedinHandler.Insights)
}

// CORSMiddleware applies the configured allowed origins.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, origin := range origins {
		allowed[strings.TrimSpace(origin)] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (len(allowed) == 0 || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// userAuthMiddleware validates user JWTs and stores the user ID in context.
func userAuthMiddleware(jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(handlers.ContextUserID, claims.UserID)
		c.Next()
	}
}

// quotaGateMiddleware is the admission checkpoint for quota-gated work. It
// applies the per-second burst limit, asks the subscription manager whether
// the request may proceed, and on admission charges the usage immediately.
// Usage is charged regardless of downstream handler outcome, matching the
// product's billing semantics.
func quotaGateMiddleware(mgr *quota.Manager, limiter *ratelimit.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := handlers.UserIDFromContext(c)
		if userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing user"})
			return
		}

		ctx := c.Request.Context()

		if limiter != nil {
			result, errAllow := limiter.Allow(ctx, ratelimit.KeyForUser(userID))
			if errAllow == nil && !result.Allowed {
				c.Header("Retry-After", "1")
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
				return
			}
		}

		status, errCheck := mgr.CheckAndAdmit(ctx, userID)
		if errCheck != nil {
			if errors.Is(errCheck, quota.ErrAccountNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "user not found"})
				return
			}
			// Store trouble fails closed but is retryable, unlike a quota
			// denial.
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "quota check unavailable, try again"})
			return
		}
		if !status.Admitted {
			c.Header("X-Quota-Exceeded", "true")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":       fmt.Sprintf("Daily quota exceeded for %s plan. Please upgrade or try again tomorrow.", status.Plan),
				"plan":        status.Plan,
				"daily_limit": status.DailyLimit,
			})
			return
		}

		if errRecord := mgr.RecordUsage(ctx, userID); errRecord != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "quota check unavailable, try again"})
			return
		}
		c.Next()
	}
}
