package models

import "time"

// LogStatus is the outcome recorded for a dispatch.
type LogStatus string

const (
	LogStatusSuccess LogStatus = "success"
	LogStatusFailure LogStatus = "failure"
)

// ExecutionLog is an immutable record of one dispatch attempt.
type ExecutionLog struct {
	ID        string
	TaskID    *string
	Status    LogStatus
	Message   string
	CreatedAt time.Time
}

// ExecutionLogView is an ExecutionLog with the task name resolved at read time.
type ExecutionLogView struct {
	ID        string    `json:"id" example:"2b1f0c1e-7a43-4c55-9d9e-3f1f3f0f7b11"`
	TaskID    *string   `json:"task_id,omitempty" example:"550e8400-e29b-41d4-a716-446655440000"`
	TaskName  string    `json:"task_name" example:"早安播报"`
	Status    LogStatus `json:"status" example:"success"`
	Message   string    `json:"message" example:"任务 '早安播报' 执行成功"`
	CreatedAt time.Time `json:"created_at" example:"2025-11-05T09:00:01+08:00"`
} // @name ExecutionLog

// ListLogsQuery bounds the recent-log feed.
type ListLogsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=1000" example:"100"`
} // @name ListLogsQuery

// Origin tags what started a dispatch.
type Origin string

const (
	OriginCalendar Origin = "calendar"
	OriginManual   Origin = "manual"
	OriginWebhook  Origin = "webhook"
)
