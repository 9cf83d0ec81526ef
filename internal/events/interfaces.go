package events

import (
	"context"

	"github.com/dhima/feishu-notifier/internal/models"
	platformEvents "github.com/dhima/feishu-notifier/platform/events"
)

// LogStore defines persistence required by the Recorder.
type LogStore interface {
	AppendLog(ctx context.Context, log *models.ExecutionLog) error
	ListRecentLogs(ctx context.Context, limit int) ([]models.ExecutionLogView, error)
	ClearLogs(ctx context.Context) (int64, error)
}

// EventPublisher abstracts the Kafka publisher for testability.
type EventPublisher interface {
	Publish(ctx context.Context, event platformEvents.ExecutionLogEvent) error
}
