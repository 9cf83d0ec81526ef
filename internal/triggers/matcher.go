package triggers

import (
	"time"

	"github.com/dhima/feishu-notifier/internal/logging"
	"github.com/dhima/feishu-notifier/internal/models"
	"github.com/dhima/feishu-notifier/pkg/clock"
	"go.uber.org/zap"
)

// Exclusion names the first check a task failed against an event.
type Exclusion string

const (
	Included           Exclusion = ""
	ExcludedDisabled   Exclusion = "disabled"
	ExcludedRepository Exclusion = "repository"
	ExcludedSignature  Exclusion = "signature"
	ExcludedEventType  Exclusion = "event_type"
	ExcludedDayOfWeek  Exclusion = "day_of_week"
)

// Check applies the match rules to one task in order, stopping at the first failure:
// repository filter, signature, accepted event types, then the weekday of now.
func Check(task models.Task, event models.InboundEvent, now time.Time) Exclusion {
	if !task.Enabled {
		return ExcludedDisabled
	}
	if task.Repository != "" && task.Repository != event.Repository {
		return ExcludedRepository
	}
	if task.Secret != "" && !Verify(task.Secret, event.Body, event.Signature) {
		return ExcludedSignature
	}
	if !task.AcceptsEvent(event.Type) {
		return ExcludedEventType
	}
	if !task.DaysOfWeek.Has(now.Weekday()) {
		return ExcludedDayOfWeek
	}
	return Included
}

// Matcher selects the repo-event tasks an inbound event applies to.
type Matcher struct {
	clock  clock.Clock
	logger logging.Logger
}

// NewMatcher creates a matcher evaluating weekdays against clk.
func NewMatcher(clk clock.Clock, logger logging.Logger) *Matcher {
	return &Matcher{
		clock:  clk,
		logger: logger.With(zap.String("component", "matcher")),
	}
}

// Match returns the tasks eligible to fire for event, preserving input order.
func (m *Matcher) Match(tasks []models.Task, event models.InboundEvent) []models.Task {
	now := m.clock.Now()
	matched := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		reason := Check(task, event, now)
		if reason != Included {
			m.logger.Debug("task excluded from event",
				zap.String("task_id", task.ID),
				zap.String("event_type", event.Type),
				zap.String("repository", event.Repository),
				zap.String("reason", string(reason)),
			)
			continue
		}
		matched = append(matched, task)
	}
	return matched
}
