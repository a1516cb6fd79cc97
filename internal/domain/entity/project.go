package entity

import (
	"time"

	errs "github.com/brandlens/scan-engine/internal/domain/error"
)

// Frequency is the recurrence interval of a scheduled scan
type Frequency string

// Schedule frequencies
const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ScheduleConfig holds a project's recurrence configuration. Hour is the
// local wall-clock hour in Timezone. DayOfWeek applies to weekly schedules
// (0 = Sunday), DayOfMonth to monthly ones. DayOfMonth is restricted to
// 1-28 so the configured date exists in every month.
type ScheduleConfig struct {
	Enabled    bool
	Frequency  Frequency
	Hour       int
	DayOfWeek  int
	DayOfMonth int
	Timezone   string
	NextRunAt  *time.Time
	LastRunAt  *time.Time
}

// Validate rejects out-of-range schedule parameters
func (c *ScheduleConfig) Validate() error {
	switch c.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return errs.NewConfigError("frequency", string(c.Frequency), "must be daily, weekly or monthly")
	}
	if c.Hour < 0 || c.Hour > 23 {
		return errs.NewConfigError("hour", c.Hour, "must be between 0 and 23")
	}
	if c.Frequency == FrequencyWeekly && (c.DayOfWeek < 0 || c.DayOfWeek > 6) {
		return errs.NewConfigError("dayOfWeek", c.DayOfWeek, "must be between 0 and 6")
	}
	if c.Frequency == FrequencyMonthly && (c.DayOfMonth < 1 || c.DayOfMonth > 28) {
		return errs.NewConfigError("dayOfMonth", c.DayOfMonth, "must be between 1 and 28")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return errs.NewConfigError("timezone", c.Timezone, "unknown timezone")
	}
	return nil
}

// Location resolves the configured timezone, falling back to UTC when unset
func (c *ScheduleConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Project is the scannable unit: a brand with its query list and the models
// each query runs against. The schedule config is embedded, matching the
// persisted layout.
type Project struct {
	ID            string
	UserID        string
	Name          string
	BrandDomain   string
	BrandVariants []string
	Queries       []string
	Models        []ModelRef
	Schedule      ScheduleConfig
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ModelRef identifies one provider/model pair a project scans against
type ModelRef struct {
	Provider string
	Model    string
}

// CallCount returns the size of the query x model matrix for one scan
func (p *Project) CallCount() int {
	return len(p.Queries) * len(p.Models)
}

// DueAt reports whether the project's schedule is enabled and due at now
func (p *Project) DueAt(now time.Time) bool {
	return p.Schedule.Enabled && p.Schedule.NextRunAt != nil && !p.Schedule.NextRunAt.After(now)
}
