package storage

import (
	"context"
	"fmt"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		webhook_url TEXT NOT NULL,
		enabled INTEGER NOT NULL DEFAULT 1,
		trigger_time TEXT NOT NULL DEFAULT '',
		days_of_week INTEGER NOT NULL DEFAULT 0,
		content TEXT NOT NULL DEFAULT '',
		news_url TEXT NOT NULL DEFAULT '',
		api_url TEXT NOT NULL DEFAULT '',
		api_key TEXT NOT NULL DEFAULT '',
		model_name TEXT NOT NULL DEFAULT '',
		prompt TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		secret TEXT NOT NULL DEFAULT '',
		event_types TEXT NOT NULL DEFAULT '',
		repository TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS execution_logs (
		id TEXT PRIMARY KEY,
		task_id TEXT,
		status TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_execution_logs_created_at ON execution_logs (created_at)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		kind VARCHAR(32) NOT NULL,
		webhook_url VARCHAR(1024) NOT NULL,
		enabled TINYINT(1) NOT NULL DEFAULT 1,
		trigger_time VARCHAR(8) NOT NULL DEFAULT '',
		days_of_week TINYINT UNSIGNED NOT NULL DEFAULT 0,
		content TEXT NOT NULL,
		news_url VARCHAR(1024) NOT NULL DEFAULT '',
		api_url VARCHAR(1024) NOT NULL DEFAULT '',
		api_key VARCHAR(512) NOT NULL DEFAULT '',
		model_name VARCHAR(128) NOT NULL DEFAULT '',
		prompt TEXT NOT NULL,
		source VARCHAR(16) NOT NULL DEFAULT '',
		secret VARCHAR(512) NOT NULL DEFAULT '',
		event_types VARCHAR(1024) NOT NULL DEFAULT '',
		repository VARCHAR(255) NOT NULL DEFAULT '',
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		INDEX idx_tasks_kind_enabled (kind, enabled)
	) DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS execution_logs (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		task_id VARCHAR(36) NULL,
		status VARCHAR(16) NOT NULL,
		message TEXT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		INDEX idx_execution_logs_created_at (created_at)
	) DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tasks and execution_logs tables when absent.
func (c *Client) Migrate(ctx context.Context) error {
	statements := sqliteSchema
	if c.driver == DriverMySQL {
		statements = mysqlSchema
	}
	for _, stmt := range statements {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", c.driver, err)
		}
	}
	return nil
}
