package tasks

import (
	"context"

	"github.com/dhima/feishu-notifier/internal/models"
)

// TaskStore defines the storage methods required by the task service.
type TaskStore interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, taskID string) (*models.Task, error)
	ListTasks(ctx context.Context) ([]models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, taskID string) error
	CountTasks(ctx context.Context) (total, active int64, err error)
	ListEnabledCalendarTasks(ctx context.Context) ([]models.Task, error)
}

// Rebuilder reinstalls calendar timers after the task table changes.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
	Remove(taskID string) bool
}

// Executor runs a task asynchronously outside its calendar.
type Executor interface {
	Execute(task models.Task)
}
