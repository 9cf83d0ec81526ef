package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dhima/feishu-notifier/internal/models"
)

// UnknownTaskName labels logs whose task no longer exists.
const UnknownTaskName = "未知任务"

// AppendLog inserts an execution log. Logs are never updated.
func (c *Client) AppendLog(ctx context.Context, log *models.ExecutionLog) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO execution_logs (id, task_id, status, message, created_at) VALUES (?, ?, ?, ?, ?)`,
		log.ID,
		log.TaskID,
		string(log.Status),
		log.Message,
		log.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert execution log: %w", err)
	}
	return nil
}

// ListRecentLogs returns the newest logs first with the task name resolved at read time.
func (c *Client) ListRecentLogs(ctx context.Context, limit int) ([]models.ExecutionLogView, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT l.id, l.task_id, l.status, l.message, l.created_at, t.name
		FROM execution_logs l
		LEFT JOIN tasks t ON l.task_id = t.id
		ORDER BY l.created_at DESC, l.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query execution logs: %w", err)
	}
	defer rows.Close()

	logs := make([]models.ExecutionLogView, 0)
	for rows.Next() {
		var (
			view     models.ExecutionLogView
			taskID   sql.NullString
			taskName sql.NullString
			status   string
		)
		if err := rows.Scan(&view.ID, &taskID, &status, &view.Message, &view.CreatedAt, &taskName); err != nil {
			return nil, fmt.Errorf("scan execution log: %w", err)
		}
		view.Status = models.LogStatus(status)
		if taskID.Valid {
			view.TaskID = &taskID.String
		}
		view.TaskName = UnknownTaskName
		if taskName.Valid {
			view.TaskName = taskName.String
		}
		logs = append(logs, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate execution logs: %w", err)
	}
	return logs, nil
}

// ClearLogs deletes every execution log and returns how many were removed.
func (c *Client) ClearLogs(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM execution_logs`)
	if err != nil {
		return 0, fmt.Errorf("clear execution logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
