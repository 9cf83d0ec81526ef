package events

import (
	"context"
	"fmt"

	"github.com/dhima/feishu-notifier/internal/logging"
	"github.com/dhima/feishu-notifier/internal/models"
	"github.com/dhima/feishu-notifier/pkg/clock"
	platformEvents "github.com/dhima/feishu-notifier/platform/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultLogLimit = 100
	MaxLogLimit     = 1000
)

// Outcome is the result of one dispatch, ready to be logged.
type Outcome struct {
	Task      *models.Task
	Origin    models.Origin
	EventType string
	Status    models.LogStatus
	Message   string
}

// Recorder appends execution logs and mirrors them to the event stream.
type Recorder struct {
	store     LogStore
	publisher EventPublisher
	logger    logging.Logger
	clock     clock.Clock
}

// NewRecorder creates a recorder. publisher may be nil when streaming is disabled.
func NewRecorder(store LogStore, publisher EventPublisher, logger logging.Logger, clk clock.Clock) *Recorder {
	return &Recorder{
		store:     store,
		publisher: publisher,
		logger:    logger.With(zap.String("component", "recorder")),
		clock:     clk,
	}
}

// Record writes exactly one log row for o. The log is the source of truth:
// a failed publish is reported but never rewrites the stored row.
func (r *Recorder) Record(ctx context.Context, o Outcome) (*models.ExecutionLog, error) {
	entry := &models.ExecutionLog{
		ID:        uuid.New().String(),
		Status:    o.Status,
		Message:   o.Message,
		CreatedAt: r.clock.Now(),
	}
	taskName := ""
	if o.Task != nil && o.Task.ID != "" {
		id := o.Task.ID
		entry.TaskID = &id
		taskName = o.Task.Name
	}

	if err := r.store.AppendLog(ctx, entry); err != nil {
		r.logger.Error("failed to append execution log",
			zap.String("log_id", entry.ID),
			zap.String("task_name", taskName),
			zap.Error(err),
		)
		return nil, fmt.Errorf("append execution log: %w", err)
	}

	r.logger.Info("execution logged",
		zap.String("log_id", entry.ID),
		zap.String("task_name", taskName),
		zap.String("origin", string(o.Origin)),
		zap.String("status", string(o.Status)),
	)

	if r.publisher == nil {
		return entry, nil
	}

	event := platformEvents.ExecutionLogEvent{
		LogID:     entry.ID,
		TaskName:  taskName,
		Origin:    string(o.Origin),
		Status:    string(o.Status),
		Message:   o.Message,
		LoggedAt:  entry.CreatedAt,
		EventType: o.EventType,
	}
	if entry.TaskID != nil {
		event.TaskID = *entry.TaskID
	}
	if err := r.publisher.Publish(ctx, event); err != nil {
		r.logger.Warn("failed to stream execution log",
			zap.String("log_id", entry.ID),
			zap.Error(err),
		)
	}

	return entry, nil
}

// Recent returns the newest logs first. limit is clamped to [1, MaxLogLimit], defaulting to DefaultLogLimit.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]models.ExecutionLogView, error) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	if limit > MaxLogLimit {
		limit = MaxLogLimit
	}

	logs, err := r.store.ListRecentLogs(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent logs: %w", err)
	}
	return logs, nil
}

// Clear deletes every stored log and returns how many were removed.
func (r *Recorder) Clear(ctx context.Context) (int64, error) {
	removed, err := r.store.ClearLogs(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear logs: %w", err)
	}
	r.logger.Info("execution logs cleared", zap.Int64("removed", removed))
	return removed, nil
}
