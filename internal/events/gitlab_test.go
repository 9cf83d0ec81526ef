package events

import (
	"errors"
	"testing"

	"github.com/dhima/feishu-notifier/internal/models"
	"github.com/dhima/feishu-notifier/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderGitLabEvent(t *testing.T, eventType, body string) string {
	t.Helper()
	text, err := NewRenderer(clock.NewFixed(renderNow)).Render(models.InboundEvent{
		Source: models.EventSourceGitLab,
		Type:   eventType,
		Body:   []byte(body),
	})
	require.NoError(t, err)
	return text
}

func TestGitLabPush(t *testing.T) {
	// Arrange
	body := `{
	  "object_kind": "push",
	  "before": "aaa", "after": "bbb",
	  "ref": "refs/heads/main",
	  "user_name": "alice",
	  "total_commits_count": 1,
	  "project": {"name": "svc", "path_with_namespace": "org/svc", "web_url": "https://gitlab.com/org/svc"},
	  "commits": [{"message": "init", "url": "https://gitlab.com/org/svc/-/commit/bbb", "author": {"name": "alice"}}]
	}`

	// Act
	text := renderGitLabEvent(t, "Push Hook", body)

	// Assert
	want := "🚀 **GitLab Push事件**\n" +
		"📦 项目: svc\n" +
		"👤 用户: alice\n" +
		"🌿 分支: main\n" +
		"📝 提交: 1 个新提交\n" +
		"📋 提交详情:\n" +
		"  • [alice]: init\n" +
		"    🔗 https://gitlab.com/org/svc/-/commit/bbb\n" +
		"🔗 对比链接: https://gitlab.com/org/svc/-/compare/aaa...bbb\n" +
		"⏰ 时间: 2025-01-08 10:00:00\n"
	assert.Equal(t, want, text)
}

func TestGitLabMergeRequest(t *testing.T) {
	body := `{
	  "object_kind": "merge_request",
	  "user": {"name": "bob"},
	  "project": {"name": "svc"},
	  "object_attributes": {"title": "Bump deps", "state": "merged", "action": "merge",
	    "source_branch": "deps", "target_branch": "main", "url": "https://gitlab.com/org/svc/-/merge_requests/3"}
	}`

	text := renderGitLabEvent(t, "Merge Request Hook", body)

	assert.Contains(t, text, "👤 用户: bob 合并了合并请求\n")
	assert.Contains(t, text, "🌿 分支: deps → main\n")
	assert.Contains(t, text, "📊 状态: ✅ 已合并\n")
	assert.Contains(t, text, "🔗 链接: https://gitlab.com/org/svc/-/merge_requests/3\n")
}

func TestGitLabIssue(t *testing.T) {
	body := `{
	  "object_kind": "issue",
	  "user": {"name": "carol"},
	  "project": {"name": "svc"},
	  "object_attributes": {"title": "Crash", "description": "stack", "state": "opened", "action": "open",
	    "url": "https://gitlab.com/org/svc/-/issues/9"}
	}`

	text := renderGitLabEvent(t, "Issue Hook", body)

	assert.Contains(t, text, "📋 **GitLab Issue事件**\n")
	assert.Contains(t, text, "👤 用户: carol 创建了问题\n")
	assert.Contains(t, text, "📊 状态: 🔓 打开\n")
	assert.Contains(t, text, "📄 描述: stack\n")
}

func TestGitLabPipeline(t *testing.T) {
	body := `{
	  "object_kind": "pipeline",
	  "user": {"name": "dan"},
	  "project": {"name": "svc", "web_url": "https://gitlab.com/org/svc"},
	  "object_attributes": {"id": 31, "ref": "main", "status": "failed"}
	}`

	text := renderGitLabEvent(t, "Pipeline Hook", body)

	assert.Contains(t, text, "📊 Pipeline ID: 31\n")
	assert.Contains(t, text, "📋 状态: ❌ 失败\n")
	assert.Contains(t, text, "🔗 链接: https://gitlab.com/org/svc/-/pipelines/31\n")
}

func TestGitLabPipeline_MissingUser(t *testing.T) {
	body := `{"object_kind": "pipeline", "project": {"name": "svc"}, "object_attributes": {"id": 1, "ref": "main", "status": "manual"}}`

	text := renderGitLabEvent(t, "Pipeline Hook", body)

	assert.Contains(t, text, "👤 用户: 未知用户\n")
	assert.Contains(t, text, "📋 状态: manual\n")
}

func TestGitLabTagPush(t *testing.T) {
	body := `{"object_kind": "tag_push", "ref": "refs/tags/v2.0.0", "user_name": "erin",
	  "project": {"name": "svc", "web_url": "https://gitlab.com/org/svc"}}`

	text := renderGitLabEvent(t, "Tag Push Hook", body)

	assert.Contains(t, text, "🏷️ 标签: v2.0.0\n")
	assert.Contains(t, text, "🔗 标签链接: https://gitlab.com/org/svc/-/tags/v2.0.0\n")
}

func TestGitLabUnknownEventType(t *testing.T) {
	_, err := NewRenderer(clock.NewFixed(renderNow)).Render(models.InboundEvent{
		Source: models.EventSourceGitLab,
		Type:   "Wiki Page Hook",
		Body:   []byte(`{"object_kind": "wiki_page"}`),
	})

	var unknown *UnknownEventTypeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "未知GitLab事件类型: Wiki Page Hook", err.Error())
}
