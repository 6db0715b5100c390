package family

import (
	"time"

	"famledger/internal/model"
)

// PeriodStart returns the beginning of the current budget period in now's
// location: WEEKLY is the most recent Sunday at 00:00, MONTHLY the 1st of
// the month, YEARLY January 1st. Unknown periods fall back to MONTHLY.
func PeriodStart(period string, now time.Time) time.Time {
	switch period {
	case model.PeriodWeekly:
		sunday := now.AddDate(0, 0, -int(now.Weekday()))
		return time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 0, 0, 0, 0, now.Location())
	case model.PeriodYearly:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	default:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	}
}

func validPeriod(period string) bool {
	switch period {
	case model.PeriodWeekly, model.PeriodMonthly, model.PeriodYearly:
		return true
	}
	return false
}

func validPermissions(permissions string) bool {
	switch permissions {
	case model.PermissionViewOnly, model.PermissionViewEdit:
		return true
	}
	return false
}
