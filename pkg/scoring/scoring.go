// Package scoring implements C8: per-domain and weighted overall compliance
// scores (spec.md §4.8). The scorer is pure: identical count inputs always
// yield identical scores.
package scoring // import "github.com/propplyai/propply-ai/pkg/scoring"

import (
	"math"

	"github.com/propplyai/propply-ai/pkg/model"
)

// HPDScore buckets the count of active HPD violations per spec.md §4.8.
func HPDScore(active int) float64 {
	switch {
	case active == 0:
		return 100
	case active <= 5:
		return 85
	case active <= 15:
		return 70
	case active <= 30:
		return 50
	default:
		return 25
	}
}

// DOBScore buckets the count of active DOB violations per spec.md §4.8.
func DOBScore(active int) float64 {
	switch {
	case active == 0:
		return 100
	case active <= 3:
		return 85
	case active <= 10:
		return 70
	case active <= 20:
		return 50
	default:
		return 25
	}
}

// ElevatorScore scores the fraction of devices whose latest status is
// ACTIVE. t=0 (no devices) scores 100.
func ElevatorScore(total, activeDevices int) float64 {
	if total == 0 {
		return 100
	}
	return math.Round(100 * float64(activeDevices) / float64(total))
}

// ActiveFilingStatuses are the electrical-permit statuses counted as "active".
var ActiveFilingStatuses = map[string]bool{
	"Approved":       true,
	"Job in Process": true,
	"Active":         true,
	"Permit Issued":  true,
}

// ElectricalScore applies the top-down rule set of spec.md §4.8: n total
// permits, r permits filed in the current calendar year or the two before
// it (see IsRecentFilingYear), a permits in an active filing status.
func ElectricalScore(totalPermits, recentPermits, activePermits int) float64 {
	switch {
	case totalPermits == 0:
		return 85
	case recentPermits == 0:
		return 70
	case activePermits > 0:
		return 90
	default:
		return 100
	}
}

const (
	hpdWeight        = 0.30
	dobWeight        = 0.30
	elevatorWeight   = 0.20
	electricalWeight = 0.20
)

// OverallScore computes the weighted overall compliance score, rounded to
// one decimal (spec.md §4.8). The four weights sum to 1.0.
func OverallScore(hpd, dob, elevator, electrical float64) float64 {
	overall := hpdWeight*hpd + dobWeight*dob + elevatorWeight*elevator + electricalWeight*electrical
	return math.Round(overall*10) / 10
}

// RiskLevelFor derives the coarse risk bucket from the overall score.
func RiskLevelFor(overall float64) model.RiskLevel {
	switch {
	case overall >= 90:
		return model.RiskLow
	case overall >= 75:
		return model.RiskMedium
	case overall >= 50:
		return model.RiskHigh
	default:
		return model.RiskCritical
	}
}

// RecentYearsWindow is the calendar-year lookback electrical permits count
// as "recent" (spec.md §4.8 / Design Note 2: calendar-year, not rolling).
const RecentYearsWindow = 2

// IsRecentFilingYear reports whether filingYear falls within the
// calendar-year recency window relative to currentYear.
func IsRecentFilingYear(filingYear, currentYear int) bool {
	return filingYear >= currentYear-RecentYearsWindow
}
