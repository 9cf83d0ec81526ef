package models

import (
	"fmt"
	"strings"
	"time"
)

// TaskKind selects how a task produces its notification text.
type TaskKind string

const (
	TaskKindStatic        TaskKind = "static"
	TaskKindNewsDigest    TaskKind = "news_digest"
	TaskKindLLMCompletion TaskKind = "llm_completion"
	TaskKindRepoEvent     TaskKind = "repo_event"
)

// Calendar reports whether tasks of this kind are driven by the time-of-day trigger.
func (k TaskKind) Calendar() bool {
	switch k {
	case TaskKindStatic, TaskKindNewsDigest, TaskKindLLMCompletion:
		return true
	default:
		return false
	}
}

// Valid reports whether k is one of the known kinds.
func (k TaskKind) Valid() bool {
	return k.Calendar() || k == TaskKindRepoEvent
}

// EventSource tags the repository host an inbound event came from.
type EventSource string

const (
	EventSourceGitHub EventSource = "github"
	EventSourceGitLab EventSource = "gitlab"
)

// Label returns the display name used in notification and log text.
func (s EventSource) Label() string {
	switch s {
	case EventSourceGitHub:
		return "GitHub"
	case EventSourceGitLab:
		return "GitLab"
	default:
		return string(s)
	}
}

// Task is a configured unit of notification, calendar- or event-triggered.
type Task struct {
	ID         string
	Name       string
	Kind       TaskKind
	WebhookURL string
	Enabled    bool

	// TriggerTime is the raw "HH:MM:SS" column; parsed with ParseTimeOfDay.
	TriggerTime string
	DaysOfWeek  DayMask

	Content   string
	NewsURL   string
	APIURL    string
	APIKey    string
	ModelName string
	Prompt    string

	Source     EventSource
	Secret     string
	EventTypes []string
	Repository string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TimeOfDay is a wall-clock trigger time.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay parses "HH:MM:SS".
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return TimeOfDay{}, fmt.Errorf("time of day %q: expected HH:MM:SS", value)
	}

	var nums [3]int
	limits := [3]int{23, 59, 59}
	for i, part := range parts {
		if part == "" || len(part) > 2 {
			return TimeOfDay{}, fmt.Errorf("time of day %q: malformed field %q", value, part)
		}
		n := 0
		for _, r := range part {
			if r < '0' || r > '9' {
				return TimeOfDay{}, fmt.Errorf("time of day %q: malformed field %q", value, part)
			}
			n = n*10 + int(r-'0')
		}
		if n > limits[i] {
			return TimeOfDay{}, fmt.Errorf("time of day %q: field %q out of range", value, part)
		}
		nums[i] = n
	}

	return TimeOfDay{Hour: nums[0], Minute: nums[1], Second: nums[2]}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// On returns the instant at this time of day on the calendar day of ref, in ref's location.
func (t TimeOfDay) On(ref time.Time) time.Time {
	y, m, d := ref.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, t.Second, 0, ref.Location())
}

// DayMask is a 7-bit weekday set; bit 0 is Sunday. The zero mask means every day.
type DayMask uint8

const allDays DayMask = 1<<7 - 1

// NewDayMask builds a mask from weekday numbers (0 = Sunday).
func NewDayMask(days ...int) (DayMask, error) {
	var m DayMask
	for _, d := range days {
		if d < 0 || d > 6 {
			return 0, fmt.Errorf("day of week %d out of range 0..6", d)
		}
		m |= 1 << uint(d)
	}
	return m, nil
}

// ParseDayMask parses a comma separated weekday list such as "1,3,5".
func ParseDayMask(value string) (DayMask, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	days := make([]int, 0, 7)
	for _, field := range strings.Split(value, ",") {
		field = strings.TrimSpace(field)
		if len(field) != 1 || field[0] < '0' || field[0] > '9' {
			return 0, fmt.Errorf("day of week %q: expected a digit 0..6", field)
		}
		days = append(days, int(field[0]-'0'))
	}
	return NewDayMask(days...)
}

// Empty reports whether the mask places no restriction.
func (m DayMask) Empty() bool { return m == 0 }

// Valid reports whether only the seven weekday bits are set.
func (m DayMask) Valid() bool { return m&^allDays == 0 }

// Has reports whether the weekday is allowed. An empty mask allows every day.
func (m DayMask) Has(day time.Weekday) bool {
	if m.Empty() {
		return true
	}
	return m&(1<<uint(day)) != 0
}

// Days returns the allowed weekday numbers in ascending order.
func (m DayMask) Days() []int {
	days := make([]int, 0, 7)
	for d := 0; d < 7; d++ {
		if m&(1<<uint(d)) != 0 {
			days = append(days, d)
		}
	}
	return days
}

func (m DayMask) String() string {
	days := m.Days()
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return strings.Join(parts, ",")
}

// AcceptsEvent reports whether eventType is in the task's accepted set. An empty set accepts all.
func (t Task) AcceptsEvent(eventType string) bool {
	if len(t.EventTypes) == 0 {
		return true
	}
	for _, accepted := range t.EventTypes {
		if accepted == eventType {
			return true
		}
	}
	return false
}

// TaskRequest is the body for creating or replacing a task.
type TaskRequest struct {
	Name        string   `json:"name" binding:"required" example:"早安播报"`
	Kind        TaskKind `json:"kind" binding:"required,oneof=static news_digest llm_completion repo_event" example:"static"`
	WebhookURL  string   `json:"webhook_url" binding:"required" example:"https://open.feishu.cn/open-apis/bot/v2/hook/xxx"`
	Enabled     *bool    `json:"enabled,omitempty" example:"true"`
	TriggerTime string   `json:"trigger_time,omitempty" example:"09:00:00"`
	DaysOfWeek  []int    `json:"days_of_week,omitempty" example:"1,2,3,4,5"`
	Content     string   `json:"content,omitempty" example:"@所有人 早上好"`
	NewsURL     string   `json:"news_url,omitempty" example:"http://127.0.0.1:4399/v2/ai-news"`
	APIURL      string   `json:"api_url,omitempty" example:"https://api.deepseek.com"`
	APIKey      string   `json:"api_key,omitempty"`
	ModelName   string   `json:"model_name,omitempty" example:"deepseek-chat"`
	Prompt      string   `json:"prompt,omitempty" example:"播报今天的天气"`
	Source      string   `json:"source,omitempty" binding:"omitempty,oneof=github gitlab" example:"github"`
	Secret      string   `json:"secret,omitempty"`
	EventTypes  []string `json:"event_types,omitempty" example:"push,release"`
	Repository  string   `json:"repository,omitempty" example:"org/repo"`
} // @name TaskRequest

// TaskResponse is the API view of a task. Secrets are never echoed back.
type TaskResponse struct {
	ID          string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name        string     `json:"name" example:"早安播报"`
	Kind        TaskKind   `json:"kind" example:"static"`
	WebhookURL  string     `json:"webhook_url"`
	Enabled     bool       `json:"enabled" example:"true"`
	TriggerTime string     `json:"trigger_time,omitempty" example:"09:00:00"`
	DaysOfWeek  []int      `json:"days_of_week"`
	Content     string     `json:"content,omitempty"`
	NewsURL     string     `json:"news_url,omitempty"`
	APIURL      string     `json:"api_url,omitempty"`
	HasAPIKey   bool       `json:"has_api_key"`
	ModelName   string     `json:"model_name,omitempty"`
	Prompt      string     `json:"prompt,omitempty"`
	Source      string     `json:"source,omitempty"`
	HasSecret   bool       `json:"has_secret"`
	EventTypes  []string   `json:"event_types"`
	Repository  string     `json:"repository,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty" example:"2025-11-05T09:00:00+08:00"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
} // @name TaskResponse

// TaskStats summarises the task table.
type TaskStats struct {
	Total   int64  `json:"total" example:"12"`
	Active  int64  `json:"active" example:"9"`
	NextRun string `json:"next_run" example:"2025-11-05T09:00:00+08:00"`
} // @name TaskStats
