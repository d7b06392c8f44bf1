package models

import (
	"time"

	"gorm.io/datatypes"
)

// Plan represents a subscription plan row of the public catalog.
type Plan struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name        string         `gorm:"type:varchar(32);not null;uniqueIndex"` // Tier name (FREE, PRO, ...).
	MonthPrice  float64        `gorm:"type:decimal(10,2);not null;default:0"` // Monthly price; 0 for FREE, negative for contact-us.
	Description string         `gorm:"type:text"`                             // Plan description.
	Features    datatypes.JSON `gorm:"not null;default:'[]'"`                 // Feature bullet list.

	DailyLimit int64 `gorm:"not null;default:0"` // Daily request ceiling advertised for the tier.
	SortOrder  int   `gorm:"not null;default:0"` // Display ordering weight.

	IsEnabled bool `gorm:"not null;default:true"` // Whether the plan is offered.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
