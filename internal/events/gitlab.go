package events

import (
	"fmt"
	"time"

	"github.com/dhima/feishu-notifier/internal/models"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

var gitlabMergeRequestActions = map[string]string{
	"open":   "创建了",
	"close":  "关闭了",
	"merge":  "合并了",
	"reopen": "重新打开了",
	"update": "更新了",
}

var gitlabIssueActions = map[string]string{
	"open":   "创建了",
	"close":  "关闭了",
	"reopen": "重新打开了",
	"update": "更新了",
}

var gitlabStates = map[string]string{
	"opened": "🔓 打开",
	"merged": "✅ 已合并",
	"closed": "❌ 已关闭",
}

var gitlabPipelineStatuses = map[string]string{
	"success":  "✅ 成功",
	"failed":   "❌ 失败",
	"pending":  "⏳ 等待",
	"running":  "🏃 运行中",
	"canceled": "🚫 已取消",
	"skipped":  "⏭️ 已跳过",
}

var gitlabEventTypes = map[gitlab.EventType]bool{
	gitlab.EventTypePush:         true,
	gitlab.EventTypeTagPush:      true,
	gitlab.EventTypeMergeRequest: true,
	gitlab.EventTypeIssue:        true,
	gitlab.EventTypePipeline:     true,
}

func renderGitLab(eventType string, body []byte, now time.Time) (string, error) {
	kind := gitlab.EventType(eventType)
	if !gitlabEventTypes[kind] {
		return "", &UnknownEventTypeError{Source: models.EventSourceGitLab, EventType: eventType}
	}

	payload, err := gitlab.ParseWebhook(kind, body)
	if err != nil {
		return "", fmt.Errorf("decode gitlab %s payload: %w", eventType, err)
	}

	switch e := payload.(type) {
	case *gitlab.PushEvent:
		return gitlabPush(e, now), nil
	case *gitlab.TagEvent:
		return gitlabTagPush(e, now), nil
	case *gitlab.MergeEvent:
		return gitlabMergeRequest(e, now), nil
	case *gitlab.IssueEvent:
		return gitlabIssue(e, now), nil
	case *gitlab.PipelineEvent:
		return gitlabPipeline(e, now), nil
	default:
		return "", &UnknownEventTypeError{Source: models.EventSourceGitLab, EventType: eventType}
	}
}

func gitlabPush(e *gitlab.PushEvent, now time.Time) string {
	commits := make([]commitLine, 0, len(e.Commits))
	for _, c := range e.Commits {
		if c == nil {
			continue
		}
		commits = append(commits, commitLine{author: c.Author.Name, message: c.Message, url: c.URL})
	}

	total := int(e.TotalCommitsCount)
	if total < len(commits) {
		total = len(commits)
	}

	compare := ""
	if e.Project.WebURL != "" && e.Before != "" && e.After != "" {
		compare = fmt.Sprintf("%s/-/compare/%s...%s", e.Project.WebURL, e.Before, e.After)
	}

	return newMessage("🚀 **GitLab Push事件**").
		line("📦 项目: %s", orDefault(e.Project.Name, "未知项目")).
		line("👤 用户: %s", orDefault(e.UserName, "未知用户")).
		line("🌿 分支: %s", refName(e.Ref)).
		line("📝 提交: %d 个新提交", total).
		commits(commits, total).
		lineIf(compare != "", "🔗 对比链接: %s", compare).
		stamp(now)
}

func gitlabTagPush(e *gitlab.TagEvent, now time.Time) string {
	tag := refName(e.Ref)
	link := ""
	if e.Project.WebURL != "" {
		link = fmt.Sprintf("%s/-/tags/%s", e.Project.WebURL, tag)
	}

	return newMessage("🏷️ **GitLab Tag Push事件**").
		line("📦 项目: %s", orDefault(e.Project.Name, "未知项目")).
		line("👤 用户: %s", orDefault(e.UserName, "未知用户")).
		line("🏷️ 标签: %s", tag).
		lineIf(link != "", "🔗 标签链接: %s", link).
		stamp(now)
}

func gitlabMergeRequest(e *gitlab.MergeEvent, now time.Time) string {
	mr := e.ObjectAttributes

	return newMessage("🔀 **GitLab Merge Request事件**").
		line("📦 项目: %s", orDefault(e.Project.Name, "未知项目")).
		line("👤 用户: %s %s合并请求", gitlabUserName(e.User), actionText(gitlabMergeRequestActions, mr.Action)).
		line("📝 标题: %s", orDefault(mr.Title, "未命名合并请求")).
		line("🌿 分支: %s → %s", orDefault(mr.SourceBranch, "未知源分支"), orDefault(mr.TargetBranch, "未知目标分支")).
		line("📊 状态: %s", actionText(gitlabStates, mr.State)).
		line("🔗 链接: %s", mr.URL).
		stamp(now)
}

func gitlabIssue(e *gitlab.IssueEvent, now time.Time) string {
	issue := e.ObjectAttributes
	description := truncateRunes(issue.Description, maxBodyRunes)

	return newMessage("📋 **GitLab Issue事件**").
		line("📦 项目: %s", orDefault(e.Project.Name, "未知项目")).
		line("👤 用户: %s %s问题", gitlabUserName(e.User), actionText(gitlabIssueActions, issue.Action)).
		line("📝 标题: %s", orDefault(issue.Title, "未命名问题")).
		line("📊 状态: %s", actionText(gitlabStates, issue.State)).
		lineIf(description != "", "📄 描述: %s", description).
		line("🔗 链接: %s", issue.URL).
		stamp(now)
}

func gitlabPipeline(e *gitlab.PipelineEvent, now time.Time) string {
	pipeline := e.ObjectAttributes
	link := ""
	if e.Project.WebURL != "" {
		link = fmt.Sprintf("%s/-/pipelines/%v", e.Project.WebURL, pipeline.ID)
	}

	return newMessage("🔄 **GitLab Pipeline事件**").
		line("📦 项目: %s", orDefault(e.Project.Name, "未知项目")).
		line("👤 用户: %s", gitlabUserName(e.User)).
		line("🌿 分支/标签: %s", orDefault(pipeline.Ref, "unknown")).
		line("📊 Pipeline ID: %v", pipeline.ID).
		line("📋 状态: %s", actionText(gitlabPipelineStatuses, pipeline.Status)).
		lineIf(link != "", "🔗 链接: %s", link).
		stamp(now)
}

func gitlabUserName(user *gitlab.EventUser) string {
	if user == nil {
		return "未知用户"
	}
	return orDefault(user.Name, "未知用户")
}
