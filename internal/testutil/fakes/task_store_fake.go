package fakes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dhima/feishu-notifier/internal/models"
	"github.com/dhima/feishu-notifier/internal/storage"
)

// FakeTaskStore is an in-memory task table.
type FakeTaskStore struct {
	mu    sync.Mutex
	tasks map[string]models.Task

	// ListErr, when set, is returned by every list query.
	ListErr error
}

func NewFakeTaskStore(tasks ...models.Task) *FakeTaskStore {
	f := &FakeTaskStore{tasks: make(map[string]models.Task)}
	for _, t := range tasks {
		f.tasks[t.ID] = t
	}
	return f
}

func (f *FakeTaskStore) CreateTask(_ context.Context, task *models.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := *task
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	f.tasks[t.ID] = t
	return nil
}

func (f *FakeTaskStore) GetTask(_ context.Context, taskID string) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[taskID]
	if !ok {
		return nil, storage.ErrTaskNotFound
	}
	return &t, nil
}

func (f *FakeTaskStore) ListTasks(_ context.Context) ([]models.Task, error) {
	return f.filter(func(models.Task) bool { return true })
}

func (f *FakeTaskStore) UpdateTask(_ context.Context, task *models.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.tasks[task.ID]
	if !ok {
		return storage.ErrTaskNotFound
	}
	t := *task
	t.CreatedAt = current.CreatedAt
	f.tasks[t.ID] = t
	return nil
}

func (f *FakeTaskStore) DeleteTask(_ context.Context, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[taskID]; !ok {
		return storage.ErrTaskNotFound
	}
	delete(f.tasks, taskID)
	return nil
}

func (f *FakeTaskStore) CountTasks(_ context.Context) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListErr != nil {
		return 0, 0, f.ListErr
	}
	var active int64
	for _, t := range f.tasks {
		if t.Enabled {
			active++
		}
	}
	return int64(len(f.tasks)), active, nil
}

func (f *FakeTaskStore) ListEnabledCalendarTasks(_ context.Context) ([]models.Task, error) {
	return f.filter(func(t models.Task) bool { return t.Enabled && t.Kind.Calendar() })
}

func (f *FakeTaskStore) ListEnabledEventTasks(_ context.Context, source models.EventSource) ([]models.Task, error) {
	return f.filter(func(t models.Task) bool {
		return t.Enabled && t.Kind == models.TaskKindRepoEvent && t.Source == source
	})
}

func (f *FakeTaskStore) filter(keep func(models.Task) bool) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	out := make([]models.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
