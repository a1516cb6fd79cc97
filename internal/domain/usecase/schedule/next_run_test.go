package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/brandlens/scan-engine/internal/domain/entity"
	errs "github.com/brandlens/scan-engine/internal/domain/error"
)

func TestNextRun_Daily(t *testing.T) {
	config := entity.ScheduleConfig{
		Frequency: entity.FrequencyDaily,
		Hour:      9,
		Timezone:  "UTC",
	}

	t.Run("should pick today when hour still ahead", func(t *testing.T) {
		from := time.Date(2025, 3, 10, 7, 30, 0, 0, time.UTC)

		next, err := NextRun(config, from)

		assert.NoError(t, err)
		assert.Equal(t, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), next)
	})

	t.Run("should pick tomorrow when hour already passed", func(t *testing.T) {
		from := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

		next, err := NextRun(config, from)

		assert.NoError(t, err)
		assert.Equal(t, time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC), next)
	})

	t.Run("should pick tomorrow when exactly at the hour", func(t *testing.T) {
		from := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

		next, err := NextRun(config, from)

		assert.NoError(t, err)
		assert.Equal(t, time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC), next)
	})

	t.Run("should compute the hour in the configured timezone", func(t *testing.T) {
		tokyo := entity.ScheduleConfig{
			Frequency: entity.FrequencyDaily,
			Hour:      9,
			Timezone:  "Asia/Tokyo",
		}
		// 01:30 UTC is 10:30 in Tokyo, so today's 09:00 JST already passed.
		from := time.Date(2025, 3, 10, 1, 30, 0, 0, time.UTC)

		next, err := NextRun(tokyo, from)

		assert.NoError(t, err)
		loc, _ := time.LoadLocation("Asia/Tokyo")
		assert.Equal(t, time.Date(2025, 3, 11, 9, 0, 0, 0, loc).UTC(), next.UTC())
	})
}

func TestNextRun_Weekly(t *testing.T) {
	config := entity.ScheduleConfig{
		Frequency: entity.FrequencyWeekly,
		Hour:      6,
		DayOfWeek: 1, // Monday
		Timezone:  "UTC",
	}

	t.Run("should pick the next matching weekday", func(t *testing.T) {
		// 2025-03-08 is a Saturday.
		from := time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC)

		next, err := NextRun(config, from)

		assert.NoError(t, err)
		assert.Equal(t, time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC), next)
		assert.Equal(t, time.Monday, next.Weekday())
	})

	t.Run("should pick today when weekday matches and hour ahead", func(t *testing.T) {
		// 2025-03-10 is a Monday, 04:00 is before 06:00.
		from := time.Date(2025, 3, 10, 4, 0, 0, 0, time.UTC)

		next, err := NextRun(config, from)

		assert.NoError(t, err)
		assert.Equal(t, time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC), next)
	})

	t.Run("should advance a full week when today's hour passed", func(t *testing.T) {
		from := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

		next, err := NextRun(config, from)

		assert.NoError(t, err)
		assert.Equal(t, time.Date(2025, 3, 17, 6, 0, 0, 0, time.UTC), next)
	})
}

func TestNextRun_Monthly(t *testing.T) {
	config := entity.ScheduleConfig{
		Frequency:  entity.FrequencyMonthly,
		Hour:       0,
		DayOfMonth: 15,
		Timezone:   "UTC",
	}

	t.Run("should pick this month when date still ahead", func(t *testing.T) {
		from := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

		next, err := NextRun(config, from)

		assert.NoError(t, err)
		assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), next)
	})

	t.Run("should advance a month when date passed", func(t *testing.T) {
		from := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)

		next, err := NextRun(config, from)

		assert.NoError(t, err)
		assert.Equal(t, time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC), next)
	})

	t.Run("should roll over a year boundary", func(t *testing.T) {
		from := time.Date(2025, 12, 20, 12, 0, 0, 0, time.UTC)

		next, err := NextRun(config, from)

		assert.NoError(t, err)
		assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), next)
	})

	t.Run("should handle day 28 in February", func(t *testing.T) {
		feb := entity.ScheduleConfig{
			Frequency:  entity.FrequencyMonthly,
			Hour:       12,
			DayOfMonth: 28,
			Timezone:   "UTC",
		}
		from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

		next, err := NextRun(feb, from)

		assert.NoError(t, err)
		assert.Equal(t, time.Date(2025, 2, 28, 12, 0, 0, 0, time.UTC), next)
	})
}

func TestNextRun_InvalidConfig(t *testing.T) {
	from := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		config entity.ScheduleConfig
	}{
		{
			name:   "unknown frequency",
			config: entity.ScheduleConfig{Frequency: "hourly", Hour: 9},
		},
		{
			name:   "hour out of range",
			config: entity.ScheduleConfig{Frequency: entity.FrequencyDaily, Hour: 24},
		},
		{
			name:   "negative hour",
			config: entity.ScheduleConfig{Frequency: entity.FrequencyDaily, Hour: -1},
		},
		{
			name:   "weekly day out of range",
			config: entity.ScheduleConfig{Frequency: entity.FrequencyWeekly, Hour: 9, DayOfWeek: 7},
		},
		{
			name:   "monthly day 29 rejected",
			config: entity.ScheduleConfig{Frequency: entity.FrequencyMonthly, Hour: 9, DayOfMonth: 29},
		},
		{
			name:   "monthly day zero rejected",
			config: entity.ScheduleConfig{Frequency: entity.FrequencyMonthly, Hour: 9, DayOfMonth: 0},
		},
		{
			name:   "unknown timezone",
			config: entity.ScheduleConfig{Frequency: entity.FrequencyDaily, Hour: 9, Timezone: "Mars/Olympus"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NextRun(tt.config, from)

			assert.Error(t, err)
			assert.ErrorIs(t, err, errs.ErrInvalidConfig)
		})
	}
}

func TestNextRun_IsDeterministic(t *testing.T) {
	config := entity.ScheduleConfig{
		Frequency: entity.FrequencyDaily,
		Hour:      9,
		Timezone:  "America/New_York",
	}
	from := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	first, err1 := NextRun(config, from)
	second, err2 := NextRun(config, from)

	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.Equal(t, first, second)
}
