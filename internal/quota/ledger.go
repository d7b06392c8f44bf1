package quota

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/smb02/outreach-engine/internal/models"
)

// DateLayout is the calendar-date format stored in last_request_date.
const DateLayout = "2006-01-02"

// Today returns the UTC calendar date for the given instant. Day boundaries
// are evaluated in UTC so rollover is unambiguous across worker processes.
func Today(now time.Time) string {
	return now.UTC().Format(DateLayout)
}

// Ledger owns the atomic reads and writes of per-account daily counters.
// Every mutation is a single conditional UPDATE executed by the store, never
// a read-modify-write at the application layer, so concurrent requests for
// the same account cannot lose or double-apply an update.
type Ledger struct {
	db *gorm.DB
}

// NewLedger constructs a Ledger backed by GORM.
func NewLedger(db *gorm.DB) *Ledger { return &Ledger{db: db} }

// ResetIfNewDay zeroes the counter and stamps today's date when the stored
// date differs from today (or was never set). The comparison and both writes
// happen in one UPDATE keyed on the prior date, so the reset fires at most
// once per day regardless of how many requests race across the boundary.
func (l *Ledger) ResetIfNewDay(ctx context.Context, userID uint64, today string) error {
	res := l.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND (last_request_date IS NULL OR last_request_date <> ?)", userID, today).
		UpdateColumns(map[string]any{
			"daily_requests":    0,
			"last_request_date": today,
		})
	if res.Error != nil {
		return fmt.Errorf("%w: reset counter: %v", ErrStoreUnavailable, res.Error)
	}
	return nil
}

// Increment adds one to the account's daily counter as a store-side atomic
// update.
func (l *Ledger) Increment(ctx context.Context, userID uint64) error {
	res := l.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("daily_requests", gorm.Expr("daily_requests + 1"))
	if res.Error != nil {
		return fmt.Errorf("%w: increment counter: %v", ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// TryConsume checks and increments in a single conditional UPDATE: the
// counter advances only when the plan still has headroom (BUSINESS always
// does). It reports whether a slot was consumed. This is the strict
// alternative to the two-phase CheckAndAdmit/RecordUsage pair: it cannot
// overshoot the limit even under concurrent bursts.
func (l *Ledger) TryConsume(ctx context.Context, userID uint64, limits Limits, today string) (bool, error) {
	if errReset := l.ResetIfNewDay(ctx, userID, today); errReset != nil {
		return false, errReset
	}

	var row struct{ Plan string }
	errFind := l.db.WithContext(ctx).Model(&models.User{}).
		Select("plan").
		Where("id = ?", userID).
		Take(&row).Error
	if errFind != nil {
		if isNotFound(errFind) {
			return false, ErrAccountNotFound
		}
		return false, fmt.Errorf("%w: load plan: %v", ErrStoreUnavailable, errFind)
	}

	res := l.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND (plan = ? OR daily_requests < ?)",
			userID, models.PlanBusiness, limits.LimitFor(row.Plan)).
		UpdateColumn("daily_requests", gorm.Expr("daily_requests + 1"))
	if res.Error != nil {
		return false, fmt.Errorf("%w: consume slot: %v", ErrStoreUnavailable, res.Error)
	}
	return res.RowsAffected == 1, nil
}
