package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Limiter provides per-second rate limit checks.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, now time.Time) (Result, error)
}

// Settings configures the burst limiter in front of the daily quota.
type Settings struct {
	PerSecond     int    // Requests per second per user; 0 disables the limiter.
	RedisAddr     string // Redis backend address; empty keeps the in-memory backend.
	RedisPassword string
	RedisPrefix   string
	RedisDB       int
}

// KeyForUser builds the limiter key for a user account.
func KeyForUser(userID uint64) string {
	if userID == 0 {
		return ""
	}
	return fmt.Sprintf("u:%d", userID)
}
