package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dhima/feishu-notifier/internal/models"
)

const taskColumns = `id, name, kind, webhook_url, enabled, trigger_time, days_of_week,
	content, news_url, api_url, api_key, model_name, prompt,
	source, secret, event_types, repository, created_at, updated_at`

// CreateTask inserts a task. Timestamps are taken from the task as given.
func (c *Client) CreateTask(ctx context.Context, task *models.Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := c.db.ExecContext(ctx, query,
		task.ID,
		task.Name,
		string(task.Kind),
		task.WebhookURL,
		task.Enabled,
		task.TriggerTime,
		int(task.DaysOfWeek),
		task.Content,
		task.NewsURL,
		task.APIURL,
		task.APIKey,
		task.ModelName,
		task.Prompt,
		string(task.Source),
		task.Secret,
		joinEventTypes(task.EventTypes),
		task.Repository,
		task.CreatedAt.UTC(),
		task.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetTask fetches a single task.
func (c *Client) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, taskID)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// ListTasks returns every task in creation order.
func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	return c.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at, id`)
}

// ListEnabledCalendarTasks returns the enabled tasks driven by the time-of-day trigger.
func (c *Client) ListEnabledCalendarTasks(ctx context.Context) ([]models.Task, error) {
	return c.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE enabled = ? AND kind IN (?, ?, ?) ORDER BY created_at, id`,
		true,
		string(models.TaskKindStatic),
		string(models.TaskKindNewsDigest),
		string(models.TaskKindLLMCompletion),
	)
}

// ListEnabledEventTasks returns the enabled repo-event tasks listening to source.
func (c *Client) ListEnabledEventTasks(ctx context.Context, source models.EventSource) ([]models.Task, error) {
	return c.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE enabled = ? AND kind = ? AND source = ? ORDER BY created_at, id`,
		true,
		string(models.TaskKindRepoEvent),
		string(source),
	)
}

// UpdateTask replaces every mutable column of a task.
func (c *Client) UpdateTask(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks SET
			name = ?, kind = ?, webhook_url = ?, enabled = ?, trigger_time = ?, days_of_week = ?,
			content = ?, news_url = ?, api_url = ?, api_key = ?, model_name = ?, prompt = ?,
			source = ?, secret = ?, event_types = ?, repository = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := c.db.ExecContext(ctx, query,
		task.Name,
		string(task.Kind),
		task.WebhookURL,
		task.Enabled,
		task.TriggerTime,
		int(task.DaysOfWeek),
		task.Content,
		task.NewsURL,
		task.APIURL,
		task.APIKey,
		task.ModelName,
		task.Prompt,
		string(task.Source),
		task.Secret,
		joinEventTypes(task.EventTypes),
		task.Repository,
		task.UpdatedAt.UTC(),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectOneRow(res)
}

// DeleteTask removes a task. Its execution logs are kept.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, taskID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectOneRow(res)
}

// CountTasks returns the total and enabled task counts.
func (c *Client) CountTasks(ctx context.Context) (total, active int64, err error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN enabled = ? THEN 1 ELSE 0 END), 0) FROM tasks`, true)
	if err := row.Scan(&total, &active); err != nil {
		return 0, 0, fmt.Errorf("count tasks: %w", err)
	}
	return total, active, nil
}

func (c *Client) queryTasks(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		t          models.Task
		kind       string
		source     string
		days       int64
		eventTypes string
	)
	err := row.Scan(
		&t.ID,
		&t.Name,
		&kind,
		&t.WebhookURL,
		&t.Enabled,
		&t.TriggerTime,
		&days,
		&t.Content,
		&t.NewsURL,
		&t.APIURL,
		&t.APIKey,
		&t.ModelName,
		&t.Prompt,
		&source,
		&t.Secret,
		&eventTypes,
		&t.Repository,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Kind = models.TaskKind(kind)
	t.Source = models.EventSource(source)
	t.DaysOfWeek = models.DayMask(days)
	t.EventTypes = splitEventTypes(eventTypes)
	return &t, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func joinEventTypes(types []string) string {
	return strings.Join(types, ",")
}

func splitEventTypes(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	types := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			types = append(types, p)
		}
	}
	return types
}
