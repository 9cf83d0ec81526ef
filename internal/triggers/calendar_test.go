package triggers

import (
	"errors"
	"testing"
	"time"

	"github.com/dhima/feishu-notifier/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wednesday10 is Wednesday 2025-01-08 10:00:00 UTC.
func wednesday10() time.Time { return time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC) }

func mask(t *testing.T, days ...int) models.DayMask {
	t.Helper()
	m, err := models.NewDayMask(days...)
	require.NoError(t, err)
	return m
}

func TestNextRun_PastTimeNoMask_ReturnsTomorrow(t *testing.T) {
	// Arrange
	now := wednesday10()
	require.Equal(t, time.Wednesday, now.Weekday())

	// Act
	next := NextRun(now, models.TimeOfDay{Hour: 9}, 0)

	// Assert
	assert.Equal(t, time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC), next)
}

func TestNextRun_TodayMaskedButPassed_ReturnsNextWeek(t *testing.T) {
	// Act
	next := NextRun(wednesday10(), models.TimeOfDay{Hour: 9}, mask(t, 3))

	// Assert
	assert.Equal(t, time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC), next)
	assert.Equal(t, time.Wednesday, next.Weekday())
}

func TestNextRun_TodayMaskedStillAhead_ReturnsToday(t *testing.T) {
	next := NextRun(wednesday10(), models.TimeOfDay{Hour: 11}, mask(t, 3))

	assert.Equal(t, time.Date(2025, 1, 8, 11, 0, 0, 0, time.UTC), next)
}

func TestNextRun_ExactlyNowIsNotChosen(t *testing.T) {
	next := NextRun(wednesday10(), models.TimeOfDay{Hour: 10}, 0)

	assert.Equal(t, time.Date(2025, 1, 9, 10, 0, 0, 0, time.UTC), next)
}

func TestNextRun_WrapsAcrossWeekend(t *testing.T) {
	// Saturday 2025-01-11 12:00, mask Monday and Tuesday.
	now := time.Date(2025, 1, 11, 12, 0, 0, 0, time.UTC)

	next := NextRun(now, models.TimeOfDay{Hour: 8, Minute: 30}, mask(t, 1, 2))

	assert.Equal(t, time.Date(2025, 1, 13, 8, 30, 0, 0, time.UTC), next)
}

func TestNextRun_SundayIsDayZero(t *testing.T) {
	next := NextRun(wednesday10(), models.TimeOfDay{Hour: 7}, mask(t, 0))

	assert.Equal(t, time.Sunday, next.Weekday())
	assert.Equal(t, time.Date(2025, 1, 12, 7, 0, 0, 0, time.UTC), next)
}

func TestNextRun_KeepsLocation(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	now := time.Date(2025, 1, 8, 23, 0, 0, 0, loc)

	next := NextRun(now, models.TimeOfDay{Hour: 9}, 0)

	assert.Equal(t, time.Date(2025, 1, 9, 9, 0, 0, 0, loc), next)
	assert.Equal(t, loc, next.Location())
}

func TestEarliestNextRun_TakesMinimumOverEnabledCalendarTasks(t *testing.T) {
	// Arrange
	tasks := []models.Task{
		{ID: "a", Kind: models.TaskKindStatic, Enabled: true, TriggerTime: "09:00:00"},
		{ID: "b", Kind: models.TaskKindStatic, Enabled: true, TriggerTime: "11:00:00", DaysOfWeek: mask(t, 3)},
		{ID: "c", Kind: models.TaskKindStatic, Enabled: false, TriggerTime: "10:30:00"},
		{ID: "d", Kind: models.TaskKindStatic, Enabled: true, TriggerTime: "bogus"},
		{ID: "e", Kind: models.TaskKindRepoEvent, Enabled: true},
	}

	// Act
	next, ok := EarliestNextRun(wednesday10(), tasks)

	// Assert
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 8, 11, 0, 0, 0, time.UTC), next)
}

func TestEarliestNextRun_NoneEnabled(t *testing.T) {
	_, ok := EarliestNextRun(wednesday10(), []models.Task{{Kind: models.TaskKindStatic, TriggerTime: "09:00:00"}})

	assert.False(t, ok)
}

func TestCalendarFor_RejectsMalformedTrigger(t *testing.T) {
	tests := []struct {
		name string
		task models.Task
	}{
		{name: "bad time", task: models.Task{ID: "1", Kind: models.TaskKindStatic, TriggerTime: "25:00:00"}},
		{name: "missing time", task: models.Task{ID: "2", Kind: models.TaskKindNewsDigest}},
		{name: "bad mask", task: models.Task{ID: "3", Kind: models.TaskKindStatic, TriggerTime: "09:00:00", DaysOfWeek: 0xFF}},
		{name: "event kind", task: models.Task{ID: "4", Kind: models.TaskKindRepoEvent, TriggerTime: "09:00:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalendarFor(tt.task)

			var cfgErr ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.task.ID, cfgErr.TaskID)
		})
	}
}

func TestCalendar_SpecAndSchedule(t *testing.T) {
	// Arrange
	cal := Calendar{At: models.TimeOfDay{Hour: 9, Minute: 30, Second: 15}, Days: mask(t, 1, 3)}

	// Act
	schedule, err := cal.Schedule()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "15 30 9 * * 1,3", cal.Spec())
	assert.Equal(t, time.Date(2025, 1, 13, 9, 30, 15, 0, time.UTC), schedule.Next(wednesday10()))
}

func TestCalendar_SpecEveryDay(t *testing.T) {
	cal := Calendar{At: models.TimeOfDay{Hour: 9}}

	schedule, err := cal.Schedule()

	require.NoError(t, err)
	assert.Equal(t, "0 0 9 * * *", cal.Spec())
	assert.Equal(t, time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC), schedule.Next(wednesday10()))
}

func TestCalendar_Decide(t *testing.T) {
	cal := Calendar{At: models.TimeOfDay{Hour: 10}, Days: mask(t, 3)}

	scheduled, reason := cal.Decide(wednesday10().Add(2 * time.Second))
	assert.Equal(t, SkipNone, reason)
	assert.Equal(t, wednesday10(), scheduled)

	_, reason = cal.Decide(wednesday10().Add(4*time.Minute + 59*time.Second))
	assert.Equal(t, SkipNone, reason, "delays inside the grace window still fire")

	_, reason = cal.Decide(wednesday10().Add(6 * time.Minute))
	assert.Equal(t, SkipMissed, reason)

	thursday := Calendar{At: models.TimeOfDay{Hour: 10}, Days: mask(t, 4)}
	_, reason = thursday.Decide(wednesday10())
	assert.Equal(t, SkipDayMask, reason)
}

func TestCalendar_DecideAcrossMidnightUsesScheduledDay(t *testing.T) {
	// Due Wednesday 23:58, observed Thursday 00:01.
	cal := Calendar{At: models.TimeOfDay{Hour: 23, Minute: 58}, Days: mask(t, 3)}
	now := time.Date(2025, 1, 9, 0, 1, 0, 0, time.UTC)

	scheduled, reason := cal.Decide(now)

	assert.Equal(t, SkipNone, reason)
	assert.Equal(t, time.Wednesday, scheduled.Weekday())
}
