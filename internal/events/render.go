package events

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dhima/feishu-notifier/internal/models"
	"github.com/dhima/feishu-notifier/pkg/clock"
)

const (
	timestampLayout  = "2006-01-02 15:04:05"
	maxListedCommits = 5
	maxBodyRunes     = 100
)

// UnknownEventTypeError is returned for an event type no renderer handles.
type UnknownEventTypeError struct {
	Source    models.EventSource
	EventType string
}

func (e *UnknownEventTypeError) Error() string {
	return fmt.Sprintf("未知%s事件类型: %s", e.Source.Label(), e.EventType)
}

// Renderer turns repository events into notification text.
type Renderer struct {
	clock clock.Clock
}

// NewRenderer creates a renderer stamping messages with clk.
func NewRenderer(clk clock.Clock) *Renderer {
	return &Renderer{clock: clk}
}

// Render formats event for its source. Unsupported types yield *UnknownEventTypeError.
func (r *Renderer) Render(event models.InboundEvent) (string, error) {
	now := r.clock.Now()
	switch event.Source {
	case models.EventSourceGitHub:
		return renderGitHub(event.Type, event.Body, now)
	case models.EventSourceGitLab:
		return renderGitLab(event.Type, event.Body, now)
	default:
		return "", &UnknownEventTypeError{Source: event.Source, EventType: event.Type}
	}
}

type message struct {
	b strings.Builder
}

func newMessage(title string) *message {
	m := &message{}
	m.b.WriteString(title)
	m.b.WriteByte('\n')
	return m
}

func (m *message) line(format string, args ...interface{}) *message {
	fmt.Fprintf(&m.b, format, args...)
	m.b.WriteByte('\n')
	return m
}

func (m *message) lineIf(ok bool, format string, args ...interface{}) *message {
	if ok {
		m.line(format, args...)
	}
	return m
}

func (m *message) stamp(now time.Time) string {
	m.line("⏰ 时间: %s", now.Format(timestampLayout))
	return m.b.String()
}

type commitLine struct {
	author  string
	message string
	url     string
}

func (m *message) commits(list []commitLine, total int) *message {
	if len(list) == 0 {
		return m
	}
	m.line("📋 提交详情:")
	for i, c := range list {
		if i == maxListedCommits {
			break
		}
		m.line("  • [%s]: %s", orDefault(c.author, "未知作者"), firstLine(c.message))
		m.lineIf(c.url != "", "    🔗 %s", c.url)
	}
	if total > maxListedCommits {
		m.line("  • ... 还有 %d 个提交", total-maxListedCommits)
	}
	return m
}

// refName strips "refs/heads/" or "refs/tags/" style prefixes.
func refName(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func actionText(actions map[string]string, action string) string {
	if text, ok := actions[action]; ok {
		return text
	}
	return action
}
