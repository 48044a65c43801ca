package stage

import (
	"time"

	apperrors "github.com/momcare/mealplan/backend/internal/errors"
	"github.com/momcare/mealplan/backend/internal/types"
)

const (
	// GestationDays is the span between conception and the estimated due date
	GestationDays = 280
	// DefaultGraceDays is the post-term window still tracked after the due date
	DefaultGraceDays = 14
)

// Calculator derives the pregnancy stage for a reference date
type Calculator struct {
	GraceDays int
}

// NewCalculator creates a Calculator; a negative grace period falls back to the default
func NewCalculator(graceDays int) *Calculator {
	if graceDays < 0 {
		graceDays = DefaultGraceDays
	}
	return &Calculator{GraceDays: graceDays}
}

// Calculate returns {day, week, trimester} for ref. Exactly one of conception and due is
// required; when both are given they must describe the same pregnancy.
func (c *Calculator) Calculate(ref time.Time, conception, due *time.Time) (types.PregnancyStage, error) {
	if ref.IsZero() {
		return types.PregnancyStage{}, &apperrors.InvalidDateError{Reason: "reference date is required"}
	}
	ref = types.Day(ref)

	var start, end time.Time
	switch {
	case conception != nil && !conception.IsZero():
		start = types.Day(*conception)
		end = start.AddDate(0, 0, GestationDays)
		if due != nil && !due.IsZero() && !types.Day(*due).Equal(end) {
			return types.PregnancyStage{}, &apperrors.InvalidDateError{
				Reason:    "due date does not match conception date + 280 days",
				Reference: ref,
			}
		}
	case due != nil && !due.IsZero():
		end = types.Day(*due)
		start = end.AddDate(0, 0, -GestationDays)
	default:
		return types.PregnancyStage{}, &apperrors.InvalidDateError{
			Reason:    "either a conception date or a due date is required",
			Reference: ref,
		}
	}

	if ref.Before(start) {
		return types.PregnancyStage{}, &apperrors.InvalidDateError{Reason: "reference date precedes conception", Reference: ref}
	}
	if ref.After(end.AddDate(0, 0, c.GraceDays)) {
		return types.PregnancyStage{}, &apperrors.InvalidDateError{Reason: "reference date is past the post-term window", Reference: ref}
	}

	day := int(ref.Sub(start).Hours() / 24)
	week := day/7 + 1
	return types.PregnancyStage{
		Day:       day,
		Week:      week,
		Trimester: TrimesterForWeek(week),
	}, nil
}

// TrimesterForWeek maps weeks 1–13 to 1, 14–27 to 2 and 28+ to 3
func TrimesterForWeek(week int) int {
	switch {
	case week <= 13:
		return 1
	case week <= 27:
		return 2
	default:
		return 3
	}
}
