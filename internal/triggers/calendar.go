package triggers

import (
	"fmt"
	"time"

	"github.com/dhima/feishu-notifier/internal/models"
	"github.com/robfig/cron/v3"
)

// GraceWindow is how late a calendar fire may run and still count as on time.
const GraceWindow = 5 * time.Minute

// Parser accepts the six-field specs produced by Calendar.Spec.
var Parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// SkipReason explains why a fire did not proceed to resolution.
type SkipReason string

const (
	SkipNone     SkipReason = ""
	SkipDisabled SkipReason = "disabled"
	SkipDayMask  SkipReason = "day_mask"
	SkipMissed   SkipReason = "missed"
)

// Calendar is a validated time-of-day trigger restricted to a weekday mask.
type Calendar struct {
	At   models.TimeOfDay
	Days models.DayMask
}

// CalendarFor validates the calendar trigger of a task.
func CalendarFor(task models.Task) (Calendar, error) {
	if !task.Kind.Calendar() {
		return Calendar{}, NewConfigurationError(task.ID, "kind %q has no calendar trigger", task.Kind)
	}
	at, err := models.ParseTimeOfDay(task.TriggerTime)
	if err != nil {
		return Calendar{}, NewConfigurationError(task.ID, "%v", err)
	}
	if !task.DaysOfWeek.Valid() {
		return Calendar{}, NewConfigurationError(task.ID, "day mask %#x has bits beyond Saturday", uint8(task.DaysOfWeek))
	}
	return Calendar{At: at, Days: task.DaysOfWeek}, nil
}

// Spec renders the calendar as a cron spec with a leading seconds field.
func (c Calendar) Spec() string {
	dow := "*"
	if !c.Days.Empty() {
		dow = c.Days.String()
	}
	return fmt.Sprintf("%d %d %d * * %s", c.At.Second, c.At.Minute, c.At.Hour, dow)
}

// Schedule parses Spec into a cron schedule.
func (c Calendar) Schedule() (cron.Schedule, error) {
	schedule, err := Parser.Parse(c.Spec())
	if err != nil {
		return nil, fmt.Errorf("parse calendar spec %q: %w", c.Spec(), err)
	}
	return schedule, nil
}

// Last returns the most recent instant at or before now matching the time of day.
func (c Calendar) Last(now time.Time) time.Time {
	last := c.At.On(now)
	if last.After(now) {
		last = c.At.On(now.AddDate(0, 0, -1))
	}
	return last
}

// Decide reports whether a fire observed at now may proceed. The weekday check uses the
// scheduled instant so a fire delayed past midnight is judged against the day it was due.
func (c Calendar) Decide(now time.Time) (time.Time, SkipReason) {
	scheduled := c.Last(now)
	if now.Sub(scheduled) > GraceWindow {
		return scheduled, SkipMissed
	}
	if !c.Days.Has(scheduled.Weekday()) {
		return scheduled, SkipDayMask
	}
	return scheduled, SkipNone
}

// Next returns the soonest instant strictly after now that satisfies the calendar.
func (c Calendar) Next(now time.Time) time.Time {
	return NextRun(now, c.At, c.Days)
}

// NextRun computes the next firing instant. Today's instant counts only if strictly after now,
// otherwise the search starts tomorrow; from there the first day allowed by the mask is taken,
// wrapping from Saturday back to Sunday.
func NextRun(now time.Time, at models.TimeOfDay, days models.DayMask) time.Time {
	candidate := at.On(now)
	if !candidate.After(now) {
		candidate = at.On(now.AddDate(0, 0, 1))
	}
	if days.Empty() {
		return candidate
	}

	for i := 0; i < 7; i++ {
		day := at.On(candidate.AddDate(0, 0, i))
		if days.Has(day.Weekday()) {
			return day
		}
	}
	return candidate
}

// EarliestNextRun returns the minimum next run over the enabled calendar tasks.
// Tasks with malformed triggers are ignored.
func EarliestNextRun(now time.Time, tasks []models.Task) (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, task := range tasks {
		if !task.Enabled {
			continue
		}
		cal, err := CalendarFor(task)
		if err != nil {
			continue
		}
		next := cal.Next(now)
		if !found || next.Before(earliest) {
			earliest = next
			found = true
		}
	}
	return earliest, found
}
