package schedule

import (
	"time"

	"github.com/brandlens/scan-engine/internal/domain/entity"
)

// NextRun computes the next timestamp at or after fromTime at which the
// configured wall-clock hour occurs in the configured timezone, respecting
// the frequency's day constraint. It is a pure function: same inputs, same
// output.
//
// Rules:
//   - daily: next occurrence of hour:00 local time, today if still ahead
//   - weekly: next occurrence of dayOfWeek at hour:00; if today matches but
//     the hour has passed, advance a full week
//   - monthly: next occurrence of dayOfMonth (1-28, so it exists in every
//     month) at hour:00; if this month's date has passed, advance a month
//
// Returns ErrInvalidConfig for out-of-range parameters.
func NextRun(config entity.ScheduleConfig, fromTime time.Time) (time.Time, error) {
	if err := config.Validate(); err != nil {
		return time.Time{}, err
	}

	loc, err := config.Location()
	if err != nil {
		return time.Time{}, err
	}
	local := fromTime.In(loc)

	switch config.Frequency {
	case entity.FrequencyDaily:
		return nextDaily(local, config.Hour), nil
	case entity.FrequencyWeekly:
		return nextWeekly(local, config.DayOfWeek, config.Hour), nil
	default:
		return nextMonthly(local, config.DayOfMonth, config.Hour), nil
	}
}

func nextDaily(from time.Time, hour int) time.Time {
	candidate := atHour(from, from.Day(), hour)
	if candidate.After(from) {
		return candidate
	}
	return candidate.AddDate(0, 0, 1)
}

func nextWeekly(from time.Time, dayOfWeek, hour int) time.Time {
	daysAhead := (dayOfWeek - int(from.Weekday()) + 7) % 7
	candidate := atHour(from, from.Day(), hour).AddDate(0, 0, daysAhead)
	if candidate.After(from) {
		return candidate
	}
	return candidate.AddDate(0, 0, 7)
}

func nextMonthly(from time.Time, dayOfMonth, hour int) time.Time {
	candidate := time.Date(from.Year(), from.Month(), dayOfMonth, hour, 0, 0, 0, from.Location())
	if candidate.After(from) {
		return candidate
	}
	// dayOfMonth <= 28 keeps AddDate from normalizing into the month after next
	return candidate.AddDate(0, 1, 0)
}

// atHour returns day-of-current-month at hour:00 in from's location
func atHour(from time.Time, day, hour int) time.Time {
	return time.Date(from.Year(), from.Month(), day, hour, 0, 0, 0, from.Location())
}
