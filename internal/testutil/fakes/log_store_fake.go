package fakes

import (
	"context"
	"sync"

	"github.com/dhima/feishu-notifier/internal/models"
)

// FakeLogStore is an in-memory append-only execution log.
type FakeLogStore struct {
	mu   sync.Mutex
	logs []models.ExecutionLog

	// Names resolves task names for ListRecentLogs, keyed by task ID.
	Names     map[string]string
	AppendErr error
}

func NewFakeLogStore() *FakeLogStore {
	return &FakeLogStore{Names: make(map[string]string)}
}

func (f *FakeLogStore) AppendLog(_ context.Context, log *models.ExecutionLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AppendErr != nil {
		return f.AppendErr
	}
	f.logs = append(f.logs, *log)
	return nil
}

func (f *FakeLogStore) ListRecentLogs(_ context.Context, limit int) ([]models.ExecutionLogView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.ExecutionLogView, 0, limit)
	for i := len(f.logs) - 1; i >= 0 && len(out) < limit; i-- {
		l := f.logs[i]
		view := models.ExecutionLogView{
			ID:        l.ID,
			TaskID:    l.TaskID,
			Status:    l.Status,
			Message:   l.Message,
			CreatedAt: l.CreatedAt,
		}
		if l.TaskID != nil {
			view.TaskName = f.Names[*l.TaskID]
		}
		out = append(out, view)
	}
	return out, nil
}

func (f *FakeLogStore) ClearLogs(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.logs))
	f.logs = nil
	return n, nil
}

// Logs returns a copy of every appended log in insertion order.
func (f *FakeLogStore) Logs() []models.ExecutionLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ExecutionLog(nil), f.logs...)
}

// LogsFor returns the logs written for taskID.
func (f *FakeLogStore) LogsFor(taskID string) []models.ExecutionLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ExecutionLog
	for _, l := range f.logs {
		if l.TaskID != nil && *l.TaskID == taskID {
			out = append(out, l)
		}
	}
	return out
}
