package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/smb02/outreach-engine/internal/models"
)

// Status reports the outcome of an admission check or a quota query.
type Status struct {
	Admitted      bool   `json:"admitted"`
	Plan          string `json:"plan"`
	DailyLimit    int64  `json:"daily_limit"`
	DailyRequests int64  `json:"daily_requests"`
	Remaining     int64  `json:"remaining"`
}

// QuotaExceeded reports whether the account is out of quota for today.
func (s Status) QuotaExceeded() bool { return !s.Admitted }

// Manager orchestrates the ledger and the limit policy behind the three
// subscription operations: admit, record, upgrade. The store handle is an
// explicit dependency injected at construction; the manager holds no global
// state.
type Manager struct {
	db     *gorm.DB
	ledger *Ledger
	limits Limits
	now    func() time.Time
}

// NewManager constructs a Manager. A nil nowFn defaults to time.Now.
func NewManager(db *gorm.DB, limits Limits, nowFn func() time.Time) *Manager {
	if limits == nil {
		limits = DefaultLimits()
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Manager{
		db:     db,
		ledger: NewLedger(db),
		limits: limits,
		now:    nowFn,
	}
}

// Ledger exposes the underlying usage ledger.
func (m *Manager) Ledger() *Ledger { return m.ledger }

// Limits exposes the active tier table.
func (m *Manager) Limits() Limits { return m.limits }

// CheckAndAdmit loads the account, applies the daily reset if the calendar
// date rolled over, and evaluates the admission policy. Denials carry the
// plan name and limit so the edge can render a precise message; the counter
// is never incremented here.
func (m *Manager) CheckAndAdmit(ctx context.Context, userID uint64) (Status, error) {
	today := Today(m.now())
	if errReset := m.ledger.ResetIfNewDay(ctx, userID, today); errReset != nil {
		return Status{}, errReset
	}

	user, errLoad := m.loadUser(ctx, userID)
	if errLoad != nil {
		return Status{}, errLoad
	}
	return m.statusFor(user), nil
}

// RecordUsage charges one request against the account's daily counter. By
// contract of the request gate it is called only after CheckAndAdmit
// admitted the request; the admission decision is not re-validated here.
func (m *Manager) RecordUsage(ctx context.Context, userID uint64) error {
	return m.ledger.Increment(ctx, userID)
}

// TryConsume admits and charges in one atomic step. Unlike the two-phase
// pair it never exceeds the limit, at the cost of charging before the
// downstream work runs.
func (m *Manager) TryConsume(ctx context.Context, userID uint64) (bool, error) {
	return m.ledger.TryConsume(ctx, userID, m.limits, Today(m.now()))
}

// Status returns the account's quota standing without mutating anything.
func (m *Manager) Status(ctx context.Context, userID uint64) (Status, error) {
	user, errLoad := m.loadUser(ctx, userID)
	if errLoad != nil {
		return Status{}, errLoad
	}

	// A stale counter from a previous day reads as zero usage; the actual
	// reset is deferred to the next admission check.
	if user.LastRequestDate == nil || *user.LastRequestDate != Today(m.now()) {
		user.DailyRequests = 0
	}
	return m.statusFor(user), nil
}

// UpgradePlan switches the account to a new tier. Invalid plan names are
// rejected without touching stored state. It returns true iff the stored
// value actually changed.
func (m *Manager) UpgradePlan(ctx context.Context, userID uint64, newPlan string) (bool, error) {
	plan := NormalizePlan(newPlan)
	if !m.limits.Valid(plan) {
		return false, ErrInvalidPlan
	}

	res := m.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND plan <> ?", userID, plan).
		Update("plan", plan)
	if res.Error != nil {
		return false, fmt.Errorf("%w: update plan: %v", ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	// No row changed: either the plan was already set, or the account does
	// not exist. Distinguish the two for the caller.
	if _, errLoad := m.loadUser(ctx, userID); errLoad != nil {
		return false, errLoad
	}
	return false, nil
}

// loadUser fetches the account row, mapping missing rows and store failures
// to the manager's sentinel errors.
func (m *Manager) loadUser(ctx context.Context, userID uint64) (*models.User, error) {
	var user models.User
	errFind := m.db.WithContext(ctx).First(&user, userID).Error
	if errFind != nil {
		if isNotFound(errFind) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: load account: %v", ErrStoreUnavailable, errFind)
	}
	return &user, nil
}

// statusFor evaluates the pure policy against the loaded account state.
func (m *Manager) statusFor(user *models.User) Status {
	return Status{
		Admitted:      m.limits.IsAdmitted(user.Plan, user.DailyRequests),
		Plan:          NormalizePlan(user.Plan),
		DailyLimit:    m.limits.LimitFor(user.Plan),
		DailyRequests: user.DailyRequests,
		Remaining:     m.limits.Remaining(user.Plan, user.DailyRequests),
	}
}

// isNotFound reports whether the error is a missing-row lookup result.
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
