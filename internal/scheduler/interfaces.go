package scheduler

import (
	"context"

	"github.com/dhima/feishu-notifier/internal/models"
)

// CalendarTaskStore lists the tasks the registry installs timers for.
type CalendarTaskStore interface {
	ListEnabledCalendarTasks(ctx context.Context) ([]models.Task, error)
}

// Firer receives calendar fires. Implementations must not block the cron goroutine for long.
type Firer interface {
	FireScheduled(task models.Task)
}
