package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dhima/feishu-notifier/internal/actions"
	"github.com/dhima/feishu-notifier/internal/dispatch"
	"github.com/dhima/feishu-notifier/internal/events"
	"github.com/dhima/feishu-notifier/internal/logging"
	"github.com/dhima/feishu-notifier/internal/metrics"
	"github.com/dhima/feishu-notifier/internal/models"
	"github.com/dhima/feishu-notifier/internal/testutil/fakes"
	"github.com/dhima/feishu-notifier/pkg/clock"
	"github.com/dhima/feishu-notifier/platform/llm"
	"github.com/dhima/feishu-notifier/platform/news"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wednesday0900 = time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC)

// staticStore returns its tasks as-is, including disabled ones, so the registry's own filter is exercised.
type staticStore struct {
	tasks []models.Task
	err   error
}

func (s *staticStore) ListEnabledCalendarTasks(context.Context) ([]models.Task, error) {
	return s.tasks, s.err
}

type recordingFirer struct {
	mu    sync.Mutex
	fired []models.Task
}

func (f *recordingFirer) FireScheduled(task models.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fired = append(f.fired, task)
}

func calendarTask(id, at string, enabled bool) models.Task {
	return models.Task{
		ID:          id,
		Name:        "任务 " + id,
		Kind:        models.TaskKindStatic,
		WebhookURL:  "https://open.feishu.cn/hook/" + id,
		Enabled:     enabled,
		TriggerTime: at,
		Content:     "hello",
	}
}

func TestRebuild_DisabledTaskHasNoTimer(t *testing.T) {
	// Arrange
	store := &staticStore{tasks: []models.Task{
		calendarTask("on", "09:00:00", true),
		calendarTask("off", "09:00:00", false),
	}}
	r := NewRegistry(store, &recordingFirer{}, time.UTC, nil, logging.NewNoOpLogger())

	// Act
	err := r.Rebuild(context.Background())

	// Assert
	require.NoError(t, err)
	assert.True(t, r.Scheduled("on"))
	assert.False(t, r.Scheduled("off"))
	assert.Equal(t, 1, r.Len())
}

func TestRebuild_MalformedTaskIsSkipped(t *testing.T) {
	store := &staticStore{tasks: []models.Task{
		calendarTask("good", "18:30:00", true),
		calendarTask("bad-time", "25:00:00", true),
		calendarTask("empty-time", "", true),
	}}
	r := NewRegistry(store, &recordingFirer{}, time.UTC, nil, logging.NewNoOpLogger())

	require.NoError(t, r.Rebuild(context.Background()))

	assert.True(t, r.Scheduled("good"))
	assert.False(t, r.Scheduled("bad-time"))
	assert.False(t, r.Scheduled("empty-time"))
}

func TestRebuild_ListFailureKeepsPreviousTimers(t *testing.T) {
	store := &staticStore{tasks: []models.Task{calendarTask("a", "08:00:00", true)}}
	r := NewRegistry(store, &recordingFirer{}, time.UTC, nil, logging.NewNoOpLogger())
	require.NoError(t, r.Rebuild(context.Background()))

	store.err = errors.New("database is locked")
	err := r.Rebuild(context.Background())

	assert.Error(t, err)
	assert.True(t, r.Scheduled("a"))
}

func TestRemove_DropsTimerEvenWhenListingFails(t *testing.T) {
	// Arrange
	store := &staticStore{tasks: []models.Task{
		calendarTask("doomed", "08:00:00", true),
		calendarTask("kept", "09:00:00", true),
	}}
	r := NewRegistry(store, &recordingFirer{}, time.UTC, nil, logging.NewNoOpLogger())
	require.NoError(t, r.Rebuild(context.Background()))
	store.err = errors.New("database is locked")

	// Act
	removed := r.Remove("doomed")
	rebuildErr := r.Rebuild(context.Background())

	// Assert
	assert.True(t, removed)
	assert.Error(t, rebuildErr)
	assert.False(t, r.Scheduled("doomed"))
	assert.True(t, r.Scheduled("kept"))
	assert.Equal(t, 1, r.Len())
	assert.Nil(t, r.job("doomed"))
	assert.False(t, r.Remove("doomed"))
}

func TestRebuild_ReplacesWholeSet(t *testing.T) {
	store := &staticStore{tasks: []models.Task{calendarTask("a", "08:00:00", true)}}
	r := NewRegistry(store, &recordingFirer{}, time.UTC, nil, logging.NewNoOpLogger())
	require.NoError(t, r.Rebuild(context.Background()))

	store.tasks = []models.Task{calendarTask("b", "20:00:00", true)}
	require.NoError(t, r.Rebuild(context.Background()))

	assert.False(t, r.Scheduled("a"))
	assert.True(t, r.Scheduled("b"))
}

func TestRebuild_ReportsEntryGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)
	store := &staticStore{tasks: []models.Task{
		calendarTask("a", "08:00:00", true),
		calendarTask("b", "09:00:00", true),
	}}
	r := NewRegistry(store, &recordingFirer{}, time.UTC, m, logging.NewNoOpLogger())

	require.NoError(t, r.Rebuild(context.Background()))

	const want = `
# HELP notifier_scheduler_entries Calendar timers installed by the last registry rebuild.
# TYPE notifier_scheduler_entries gauge
notifier_scheduler_entries 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(want), "notifier_scheduler_entries"))
}

func TestNextFire_HonoursDayMask(t *testing.T) {
	task := calendarTask("weekly", "10:00:00", true)
	task.DaysOfWeek, _ = models.NewDayMask(1) // Monday
	r := NewRegistry(&staticStore{tasks: []models.Task{task}}, &recordingFirer{}, time.UTC, nil, logging.NewNoOpLogger())
	require.NoError(t, r.Rebuild(context.Background()))

	next, ok := r.NextFire("weekly", wednesday0900)

	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 13, 10, 0, 0, 0, time.UTC), next)
}

func TestJob_FiresTaskSnapshot(t *testing.T) {
	firer := &recordingFirer{}
	r := NewRegistry(&staticStore{tasks: []models.Task{calendarTask("a", "08:00:00", true)}}, firer, time.UTC, nil, logging.NewNoOpLogger())
	require.NoError(t, r.Rebuild(context.Background()))

	job := r.job("a")
	require.NotNil(t, job)
	job.Run()

	require.Len(t, firer.fired, 1)
	assert.Equal(t, "a", firer.fired[0].ID)
}

func TestDelete_InFlightFireLogsExactlyOnce(t *testing.T) {
	// Arrange
	clk := clock.NewFixed(wednesday0900)
	logger := logging.NewNoOpLogger()
	newsClient, err := news.NewClient(time.Second, "")
	require.NoError(t, err)

	task := calendarTask("doomed", "09:00:00", true)
	tasks := fakes.NewFakeTaskStore(task)
	logs := fakes.NewFakeLogStore()
	sender := &fakes.FakeSender{Gate: make(chan struct{}), Started: make(chan struct{}, 1)}
	dispatcher := dispatch.New(dispatch.Config{
		Resolver: actions.NewResolver(newsClient, llm.NewClient(time.Second, ""), events.NewRenderer(clk), clk, logger),
		Sender:   sender,
		Recorder: events.NewRecorder(logs, nil, logger, clk),
		Tasks:    tasks,
		Clock:    clk,
		Logger:   logger,
	})
	r := NewRegistry(tasks, dispatcher, time.UTC, nil, logger)
	require.NoError(t, r.Rebuild(context.Background()))
	job := r.job("doomed")
	require.NotNil(t, job)

	// Act
	job.Run()
	select {
	case <-sender.Started:
	case <-time.After(5 * time.Second):
		t.Fatal("delivery never started")
	}
	require.NoError(t, tasks.DeleteTask(context.Background(), "doomed"))
	require.NoError(t, r.Rebuild(context.Background()))
	scheduledAfterDelete := r.Scheduled("doomed")
	close(sender.Gate)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, dispatcher.Wait(ctx))

	// Assert
	assert.False(t, scheduledAfterDelete)
	assert.Len(t, sender.Messages(), 1)
	entries := logs.LogsFor("doomed")
	require.Len(t, entries, 1)
	assert.Equal(t, models.LogStatusSuccess, entries[0].Status)
}
