package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dhima/feishu-notifier/internal/events"
	"github.com/dhima/feishu-notifier/internal/logging"
	"github.com/dhima/feishu-notifier/internal/metrics"
	"github.com/dhima/feishu-notifier/internal/models"
	"github.com/dhima/feishu-notifier/internal/triggers"
	"github.com/dhima/feishu-notifier/pkg/clock"
	"github.com/dhima/feishu-notifier/platform/feishu"
	"go.uber.org/zap"
)

// State is a step of the per-task dispatch lifecycle.
type State string

const (
	StatePending    State = "pending"
	StateResolving  State = "resolving"
	StateDelivering State = "delivering"
	StateSkipped    State = "skipped"
	StateLogged     State = "logged"
)

// Sender delivers text to a chat webhook.
type Sender interface {
	Send(ctx context.Context, webhookURL, text string) (string, error)
}

// Resolver produces the text of a task.
type Resolver interface {
	Resolve(ctx context.Context, task models.Task, event *models.InboundEvent) (string, error)
}

// Recorder appends execution logs.
type Recorder interface {
	Record(ctx context.Context, o events.Outcome) (*models.ExecutionLog, error)
}

// EventTaskSource lists the repo-event tasks of a source.
type EventTaskSource interface {
	ListEnabledEventTasks(ctx context.Context, source models.EventSource) ([]models.Task, error)
}

// Result is the terminal state of one dispatch.
type Result struct {
	State   State
	Skip    triggers.SkipReason
	Status  models.LogStatus
	Message string
	LogID   string
}

// Dispatcher drives tasks from trigger to execution log.
type Dispatcher struct {
	resolver Resolver
	sender   Sender
	recorder Recorder
	tasks    EventTaskSource
	matcher  *triggers.Matcher
	clock    clock.Clock
	metrics  *metrics.Metrics
	logger   logging.Logger

	wg sync.WaitGroup
}

// Config groups the collaborators of a Dispatcher.
type Config struct {
	Resolver Resolver
	Sender   Sender
	Recorder Recorder
	Tasks    EventTaskSource
	Clock    clock.Clock
	Metrics  *metrics.Metrics
	Logger   logging.Logger
}

// New creates a dispatcher.
func New(cfg Config) *Dispatcher {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Dispatcher{
		resolver: cfg.Resolver,
		sender:   cfg.Sender,
		recorder: cfg.Recorder,
		tasks:    cfg.Tasks,
		matcher:  triggers.NewMatcher(clk, logger),
		clock:    clk,
		metrics:  cfg.Metrics,
		logger:   logger.With(zap.String("component", "dispatcher")),
	}
}

// FireScheduled is the calendar timer callback. It runs task on its own worker
// after checking that the fire is still on time and on an allowed weekday.
func (d *Dispatcher) FireScheduled(task models.Task) {
	d.spawn(func(ctx context.Context) {
		if !task.Enabled {
			d.skip(task, models.OriginCalendar, triggers.SkipDisabled)
			return
		}
		cal, err := triggers.CalendarFor(task)
		if err != nil {
			d.logger.Warn("calendar fire for malformed task", zap.String("task_id", task.ID), zap.Error(err))
			return
		}
		if _, reason := cal.Decide(d.clock.Now()); reason != triggers.SkipNone {
			d.skip(task, models.OriginCalendar, reason)
			return
		}
		d.Run(ctx, task, models.OriginCalendar, nil)
	})
}

// Execute runs task now on its own worker. The weekday mask does not apply to manual runs.
func (d *Dispatcher) Execute(task models.Task) {
	d.spawn(func(ctx context.Context) {
		d.Run(ctx, task, models.OriginManual, nil)
	})
}

// EventReport summarises one inbound webhook dispatch.
type EventReport struct {
	Candidates int
	Matched    int
	Succeeded  int
	Failed     int
}

// DispatchEvent matches event against the enabled repo-event tasks of its source and runs
// every match sequentially on the calling goroutine. Each match is attempted independently.
func (d *Dispatcher) DispatchEvent(ctx context.Context, event models.InboundEvent) (EventReport, error) {
	d.wg.Add(1)
	defer d.wg.Done()

	ctx = context.WithoutCancel(ctx)
	candidates, err := d.tasks.ListEnabledEventTasks(ctx, event.Source)
	if err != nil {
		return EventReport{}, fmt.Errorf("list %s tasks: %w", event.Source, err)
	}

	matched := d.matcher.Match(candidates, event)
	report := EventReport{Candidates: len(candidates), Matched: len(matched)}
	for _, task := range matched {
		res := d.runSafely(ctx, task, models.OriginWebhook, &event)
		switch res.Status {
		case models.LogStatusSuccess:
			report.Succeeded++
		case models.LogStatusFailure:
			report.Failed++
		}
	}
	return report, nil
}

// Run takes one task through RESOLVING and DELIVERING and writes exactly one log.
// Only the disabled check can end it in SKIPPED.
func (d *Dispatcher) Run(ctx context.Context, task models.Task, origin models.Origin, event *models.InboundEvent) Result {
	if !task.Enabled {
		return d.skip(task, origin, triggers.SkipDisabled)
	}

	start := time.Now()
	logger := d.logger.With(
		zap.String("task_id", task.ID),
		zap.String("task_name", task.Name),
		zap.String("kind", string(task.Kind)),
		zap.String("origin", string(origin)),
	)
	logger.Debug("dispatch state", zap.String("state", string(StateResolving)))

	outcome := events.Outcome{Task: &task, Origin: origin}
	if event != nil {
		outcome.EventType = event.Type
	}

	text, err := d.resolver.Resolve(ctx, task, event)
	if err != nil {
		outcome.Status = models.LogStatusFailure
		outcome.Message = err.Error()
	} else {
		logger.Debug("dispatch state", zap.String("state", string(StateDelivering)))
		outcome.Status, outcome.Message = d.deliver(ctx, task, origin, event, text)
	}

	res := Result{State: StateLogged, Status: outcome.Status, Message: outcome.Message}
	entry, err := d.recorder.Record(ctx, outcome)
	if err != nil {
		logger.Error("failed to record dispatch outcome", zap.Error(err))
	} else {
		res.LogID = entry.ID
	}

	d.metrics.Dispatched(string(origin), string(outcome.Status), time.Since(start))
	logger.Info("dispatch finished",
		zap.String("status", string(outcome.Status)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res
}

func (d *Dispatcher) deliver(ctx context.Context, task models.Task, origin models.Origin, event *models.InboundEvent, text string) (models.LogStatus, string) {
	if _, err := d.sender.Send(ctx, task.WebhookURL, feishu.RewriteMentions(text)); err != nil {
		var dErr *feishu.DeliveryError
		if errors.As(err, &dErr) && dErr.Network() {
			d.logger.Warn("delivery transport failure", zap.String("task_id", task.ID), zap.Error(err))
		}
		return models.LogStatusFailure, fmt.Sprintf("消息发送失败: %v", err)
	}

	if origin == models.OriginWebhook && event != nil {
		return models.LogStatusSuccess, fmt.Sprintf("%s事件处理: %s", event.Source.Label(), event.Type)
	}
	return models.LogStatusSuccess, fmt.Sprintf("任务 '%s' 执行成功", task.Name)
}

func (d *Dispatcher) skip(task models.Task, origin models.Origin, reason triggers.SkipReason) Result {
	d.metrics.Skipped(string(reason))
	d.logger.Info("dispatch skipped",
		zap.String("task_id", task.ID),
		zap.String("origin", string(origin)),
		zap.String("reason", string(reason)),
	)
	return Result{State: StateSkipped, Skip: reason}
}

func (d *Dispatcher) runSafely(ctx context.Context, task models.Task, origin models.Origin, event *models.InboundEvent) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatch panicked",
				zap.String("task_id", task.ID),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			res = Result{State: StateLogged, Status: models.LogStatusFailure, Message: fmt.Sprintf("%v", r)}
		}
	}()
	return d.Run(ctx, task, origin, event)
}

func (d *Dispatcher) spawn(fn func(ctx context.Context)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("dispatch worker panicked",
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
			}
		}()
		fn(context.Background())
	}()
}

// Wait blocks until every in-flight worker finishes or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
