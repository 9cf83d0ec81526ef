package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dhima/feishu-notifier/internal/logging"
	"github.com/dhima/feishu-notifier/internal/metrics"
	"github.com/dhima/feishu-notifier/internal/models"
	"github.com/dhima/feishu-notifier/internal/triggers"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Registry owns the calendar timers. Every Rebuild replaces the whole timer set atomically:
// the new set is built off to the side and swapped in under the lock, so a fire never sees
// a half-built schedule. Jobs capture a snapshot of their task, so a fire already in flight
// finishes with the configuration it started with.
type Registry struct {
	mu       sync.Mutex
	store    CalendarTaskStore
	firer    Firer
	location *time.Location
	metrics  *metrics.Metrics
	logger   logging.Logger

	cron    *cron.Cron
	entries map[string]cron.EntryID
	started bool
}

// NewRegistry creates an empty registry evaluating calendars in loc (nil means Local).
func NewRegistry(store CalendarTaskStore, firer Firer, loc *time.Location, m *metrics.Metrics, logger logging.Logger) *Registry {
	if loc == nil {
		loc = time.Local
	}
	logger = logger.With(zap.String("component", "scheduler"))
	r := &Registry{
		store:    store,
		firer:    firer,
		location: loc,
		metrics:  m,
		logger:   logger,
		entries:  map[string]cron.EntryID{},
	}
	r.cron = r.newCron()
	return r
}

func (r *Registry) newCron() *cron.Cron {
	return cron.New(
		cron.WithParser(triggers.Parser),
		cron.WithLocation(r.location),
		cron.WithChain(cron.Recover(cronLogger{logger: r.logger})),
	)
}

// Start installs the current timers and begins firing.
func (r *Registry) Start(ctx context.Context) error {
	if err := r.Rebuild(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		r.started = true
		r.cron.Start()
		r.logger.Info("scheduler started", zap.String("tz", r.location.String()), zap.Int("entries", len(r.entries)))
	}
	return nil
}

// Stop halts the timers. The returned context is done when running cron jobs return;
// dispatch workers they spawned are tracked by the dispatcher.
func (r *Registry) Stop() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = false
	r.logger.Info("scheduler stopping")
	return r.cron.Stop()
}

// Rebuild reloads enabled calendar tasks and swaps in a fresh timer set. Malformed tasks
// are logged and skipped; if listing fails the previous set stays installed.
func (r *Registry) Rebuild(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks, err := r.store.ListEnabledCalendarTasks(ctx)
	if err != nil {
		r.logger.Error("scheduler rebuild failed, keeping previous timers", zap.Error(err))
		return fmt.Errorf("list calendar tasks: %w", err)
	}

	next := r.newCron()
	entries := make(map[string]cron.EntryID, len(tasks))
	for _, task := range tasks {
		if !task.Enabled {
			continue
		}
		id, err := r.install(next, task)
		if err != nil {
			var cfgErr triggers.ConfigurationError
			if errors.As(err, &cfgErr) {
				r.logger.Warn("skipping task with malformed trigger",
					zap.String("task_id", task.ID),
					zap.String("task_name", task.Name),
					zap.String("reason", cfgErr.Reason),
				)
			} else {
				r.logger.Warn("skipping task", zap.String("task_id", task.ID), zap.Error(err))
			}
			continue
		}
		entries[task.ID] = id
	}

	previous := r.cron
	r.cron = next
	r.entries = entries
	if r.started {
		next.Start()
		previous.Stop()
	}

	r.metrics.SchedulerEntries(len(entries))
	r.logger.Info("scheduler rebuilt", zap.Int("entries", len(entries)), zap.Int("candidates", len(tasks)))
	return nil
}

func (r *Registry) install(c *cron.Cron, task models.Task) (cron.EntryID, error) {
	cal, err := triggers.CalendarFor(task)
	if err != nil {
		return 0, err
	}
	schedule, err := cal.Schedule()
	if err != nil {
		return 0, triggers.NewConfigurationError(task.ID, "%v", err)
	}

	snapshot := task
	firer := r.firer
	return c.Schedule(schedule, cron.FuncJob(func() {
		firer.FireScheduled(snapshot)
	})), nil
}

// Remove drops taskID's timer without consulting the store, so a deleted or disabled task
// stops firing even when the following Rebuild cannot list tasks.
func (r *Registry) Remove(taskID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.entries[taskID]
	if !ok {
		return false
	}
	r.cron.Remove(id)
	delete(r.entries, taskID)
	r.metrics.SchedulerEntries(len(r.entries))
	r.logger.Info("timer removed", zap.String("task_id", taskID))
	return true
}

// Scheduled reports whether taskID currently has a timer.
func (r *Registry) Scheduled(taskID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[taskID]
	return ok
}

// Len returns the number of installed timers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// NextFire returns when taskID's timer fires next, computed in the registry's zone.
func (r *Registry) NextFire(taskID string, now time.Time) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.entries[taskID]
	if !ok {
		return time.Time{}, false
	}
	return r.cron.Entry(id).Schedule.Next(now.In(r.location)), true
}

// job returns the installed job of taskID.
func (r *Registry) job(taskID string) cron.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.entries[taskID]
	if !ok {
		return nil
	}
	return r.cron.Entry(id).WrappedJob
}

// cronLogger adapts the service logger to cron.Logger for the Recover wrapper.
type cronLogger struct {
	logger logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, zap.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, zap.Error(err), zap.Any("details", keysAndValues))
}
