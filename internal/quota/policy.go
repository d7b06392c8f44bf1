package quota

import (
	"strings"

	"github.com/smb02/outreach-engine/internal/models"
)

// fallbackLimit applies to unrecognized plan names so that a corrupt or
// stale plan value degrades to the most restrictive tier instead of failing.
const fallbackLimit int64 = 3

// Limits maps plan tier names to daily request ceilings. The table is data,
// not code: deployments may override entries through configuration without
// touching the policy functions.
type Limits map[string]int64

// DefaultLimits returns the built-in tier table.
func DefaultLimits() Limits {
	return Limits{
		models.PlanFree:     3,
		models.PlanPro:      200,
		models.PlanUltra:    1000,
		models.PlanBusiness: 999999,
	}
}

// LimitsFromConfig merges configured overrides on top of the defaults.
// Overrides for unknown tier names are ignored.
func LimitsFromConfig(overrides map[string]int64) Limits {
	limits := DefaultLimits()
	for name, limit := range overrides {
		name = NormalizePlan(name)
		if _, ok := limits[name]; ok && limit > 0 {
			limits[name] = limit
		}
	}
	return limits
}

// NormalizePlan canonicalizes a plan name for table lookups.
func NormalizePlan(plan string) string {
	return strings.ToUpper(strings.TrimSpace(plan))
}

// Valid reports whether the plan is a member of the enumerated tier set.
func (l Limits) Valid(plan string) bool {
	_, ok := l[NormalizePlan(plan)]
	return ok
}

// LimitFor returns the daily request ceiling for a plan. Unknown plans get
// the most restrictive limit.
func (l Limits) LimitFor(plan string) int64 {
	if limit, ok := l[NormalizePlan(plan)]; ok {
		return limit
	}
	return fallbackLimit
}

// IsAdmitted decides whether a request may proceed given today's usage.
// BUSINESS is exempt from the numeric check entirely.
func (l Limits) IsAdmitted(plan string, dailyRequests int64) bool {
	if NormalizePlan(plan) == models.PlanBusiness {
		return true
	}
	return dailyRequests < l.LimitFor(plan)
}

// Remaining returns the unused portion of today's quota. BUSINESS reports
// the nominal ceiling rather than a meaningless subtraction.
func (l Limits) Remaining(plan string, dailyRequests int64) int64 {
	if NormalizePlan(plan) == models.PlanBusiness {
		return l.LimitFor(plan)
	}
	remaining := l.LimitFor(plan) - dailyRequests
	if remaining < 0 {
		return 0
	}
	return remaining
}
