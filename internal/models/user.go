package models

import "time"

// Plan tier names accepted for a user account.
const (
	PlanFree     = "FREE"
	PlanPro      = "PRO"
	PlanUltra    = "ULTRA"
	PlanBusiness = "BUSINESS"
)

// User represents an end-user account stored in the database.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Email    string `gorm:"type:text;not null;uniqueIndex"` // Email address, stored lowercase.
	Password string `gorm:"type:text;not null"`             // Hashed password.

	Plan string `gorm:"type:varchar(32);not null;default:'FREE'"` // Active plan tier.

	DailyRequests   int64   `gorm:"not null;default:0"` // Requests counted against today's quota.
	LastRequestDate *string `gorm:"type:varchar(10)"`   // ISO calendar date of the counter, nil for never-used accounts.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
