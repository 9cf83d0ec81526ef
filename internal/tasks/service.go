package tasks

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/dhima/feishu-notifier/internal/logging"
	"github.com/dhima/feishu-notifier/internal/models"
	"github.com/dhima/feishu-notifier/internal/triggers"
	"github.com/dhima/feishu-notifier/pkg/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NoNextRun is reported by Stats when no enabled calendar task exists.
const NoNextRun = "暂无"

// Service encapsulates task business logic.
type Service struct {
	store     TaskStore
	rebuilder Rebuilder
	executor  Executor
	clock     clock.Clock
	location  *time.Location
	logger    logging.Logger
}

// NewService creates a task service. Calendar times are interpreted in loc.
func NewService(store TaskStore, rebuilder Rebuilder, executor Executor, clk clock.Clock, loc *time.Location, logger logging.Logger) *Service {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		store:     store,
		rebuilder: rebuilder,
		executor:  executor,
		clock:     clk,
		location:  loc,
		logger:    logger.With(zap.String("component", "tasks")),
	}
}

// CreateTask validates and persists a new task, then reinstalls the timers.
func (s *Service) CreateTask(ctx context.Context, req models.TaskRequest) (*models.TaskResponse, error) {
	now := s.clock.Now()
	task := models.Task{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := applyRequest(&task, req); err != nil {
		return nil, err
	}

	if err := s.store.CreateTask(ctx, &task); err != nil {
		return nil, err
	}
	s.rebuild(ctx, "create", task.ID)

	resp := s.buildResponse(task)
	return &resp, nil
}

// ListTasks returns every task.
func (s *Service) ListTasks(ctx context.Context) ([]models.TaskResponse, error) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]models.TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, s.buildResponse(task))
	}
	return responses, nil
}

// GetTask fetches details for a task.
func (s *Service) GetTask(ctx context.Context, taskID string) (*models.TaskResponse, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	resp := s.buildResponse(*task)
	return &resp, nil
}

// UpdateTask replaces a task's configuration. An empty secret or api key keeps the stored one.
func (s *Service) UpdateTask(ctx context.Context, taskID string, req models.TaskRequest) (*models.TaskResponse, error) {
	current, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	updated := models.Task{
		ID:        current.ID,
		CreatedAt: current.CreatedAt,
		UpdatedAt: s.clock.Now(),
	}
	if err := applyRequest(&updated, req); err != nil {
		return nil, err
	}
	if req.Secret == "" {
		updated.Secret = current.Secret
	}
	if req.APIKey == "" {
		updated.APIKey = current.APIKey
	}

	if err := s.store.UpdateTask(ctx, &updated); err != nil {
		return nil, err
	}
	if !updated.Enabled || !updated.Kind.Calendar() {
		s.unschedule(taskID)
	}
	s.rebuild(ctx, "update", taskID)

	resp := s.buildResponse(updated)
	return &resp, nil
}

// DeleteTask removes a task and its timer. Fires already in flight finish normally.
func (s *Service) DeleteTask(ctx context.Context, taskID string) error {
	if err := s.store.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	s.unschedule(taskID)
	s.rebuild(ctx, "delete", taskID)
	return nil
}

// ExecuteTask starts a manual run of a task and returns without waiting for it.
func (s *Service) ExecuteTask(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	s.executor.Execute(*task)
	return task, nil
}

// Stats reports task counts and the soonest calendar fire.
func (s *Service) Stats(ctx context.Context) (models.TaskStats, error) {
	total, active, err := s.store.CountTasks(ctx)
	if err != nil {
		return models.TaskStats{}, err
	}
	calendar, err := s.store.ListEnabledCalendarTasks(ctx)
	if err != nil {
		return models.TaskStats{}, err
	}

	stats := models.TaskStats{Total: total, Active: active, NextRun: NoNextRun}
	if next, ok := triggers.EarliestNextRun(s.now(), calendar); ok {
		stats.NextRun = next.Format(time.RFC3339)
	}
	return stats, nil
}

func (s *Service) now() time.Time {
	return s.clock.Now().In(s.location)
}

func (s *Service) unschedule(taskID string) {
	if s.rebuilder != nil {
		s.rebuilder.Remove(taskID)
	}
}

// rebuild outlives the request: a client hanging up after the commit must not leave stale timers.
func (s *Service) rebuild(ctx context.Context, op, taskID string) {
	if s.rebuilder == nil {
		return
	}
	if err := s.rebuilder.Rebuild(context.WithoutCancel(ctx)); err != nil {
		s.logger.Error("scheduler rebuild failed",
			zap.String("operation", op),
			zap.String("task_id", taskID),
			zap.Error(err),
		)
	}
}

func (s *Service) buildResponse(task models.Task) models.TaskResponse {
	resp := models.TaskResponse{
		ID:          task.ID,
		Name:        task.Name,
		Kind:        task.Kind,
		WebhookURL:  task.WebhookURL,
		Enabled:     task.Enabled,
		TriggerTime: task.TriggerTime,
		DaysOfWeek:  task.DaysOfWeek.Days(),
		Content:     task.Content,
		NewsURL:     task.NewsURL,
		APIURL:      task.APIURL,
		HasAPIKey:   task.APIKey != "",
		ModelName:   task.ModelName,
		Prompt:      task.Prompt,
		Source:      string(task.Source),
		HasSecret:   task.Secret != "",
		EventTypes:  task.EventTypes,
		Repository:  task.Repository,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if resp.EventTypes == nil {
		resp.EventTypes = []string{}
	}

	if task.Enabled {
		if cal, err := triggers.CalendarFor(task); err == nil {
			next := cal.Next(s.now())
			resp.NextRun = &next
		}
	}
	return resp
}

func applyRequest(task *models.Task, req models.TaskRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return NewValidationError("name is required")
	}
	if !req.Kind.Valid() {
		return NewValidationError("unsupported task kind: %s", req.Kind)
	}
	webhook := strings.TrimSpace(req.WebhookURL)
	if err := validateURL("webhook_url", webhook, true); err != nil {
		return err
	}

	mask, err := models.NewDayMask(req.DaysOfWeek...)
	if err != nil {
		return NewValidationError("invalid days_of_week: %v", err)
	}

	task.Name = name
	task.Kind = req.Kind
	task.WebhookURL = webhook
	task.Enabled = req.Enabled == nil || *req.Enabled
	task.DaysOfWeek = mask
	task.Content = req.Content
	task.NewsURL = strings.TrimSpace(req.NewsURL)
	task.APIURL = strings.TrimSpace(req.APIURL)
	task.APIKey = req.APIKey
	task.ModelName = strings.TrimSpace(req.ModelName)
	task.Prompt = req.Prompt
	task.Secret = req.Secret
	task.Repository = strings.TrimSpace(req.Repository)
	task.EventTypes = normalizeEventTypes(req.EventTypes)
	task.Source = models.EventSource(strings.TrimSpace(req.Source))
	task.TriggerTime = ""

	if req.Kind.Calendar() {
		at, err := models.ParseTimeOfDay(req.TriggerTime)
		if err != nil {
			return NewValidationError("trigger_time must be HH:MM:SS: %v", err)
		}
		task.TriggerTime = at.String()
	}

	switch req.Kind {
	case models.TaskKindNewsDigest:
		if err := validateURL("news_url", task.NewsURL, false); err != nil {
			return err
		}
	case models.TaskKindLLMCompletion:
		if task.APIURL == "" || strings.TrimSpace(task.Prompt) == "" {
			return NewValidationError("api_url and prompt are required for llm tasks")
		}
		if err := validateURL("api_url", task.APIURL, true); err != nil {
			return err
		}
	case models.TaskKindRepoEvent:
		switch task.Source {
		case models.EventSourceGitHub, models.EventSourceGitLab:
		default:
			return NewValidationError("source must be github or gitlab for repo_event tasks")
		}
	}
	return nil
}

func validateURL(field, raw string, required bool) error {
	if raw == "" {
		if required {
			return NewValidationError("%s is required", field)
		}
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return NewValidationError("%s must be an absolute http(s) URL", field)
	}
	return nil
}

func normalizeEventTypes(types []string) []string {
	if len(types) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(types))
	out := make([]string, 0, len(types))
	for _, entry := range types {
		for _, t := range strings.Split(entry, ",") {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
