package events

import (
	"fmt"
	"time"

	"github.com/dhima/feishu-notifier/internal/models"
	"github.com/google/go-github/v74/github"
)

var githubPullRequestActions = map[string]string{
	"opened":                 "创建了",
	"closed":                 "关闭了",
	"merged":                 "合并了",
	"reopened":               "重新打开了",
	"synchronize":            "更新了",
	"edited":                 "编辑了",
	"assigned":               "分配了",
	"unassigned":             "取消分配了",
	"review_requested":       "请求了审查",
	"review_request_removed": "取消了审查请求",
}

var githubIssueActions = map[string]string{
	"opened":       "创建了",
	"closed":       "关闭了",
	"reopened":     "重新打开了",
	"edited":       "编辑了",
	"assigned":     "分配了",
	"unassigned":   "取消分配了",
	"labeled":      "添加了标签",
	"unlabeled":    "移除了标签",
	"milestoned":   "添加到里程碑",
	"demilestoned": "从里程碑移除",
}

var githubReleaseActions = map[string]string{
	"published":   "发布了",
	"edited":      "编辑了",
	"deleted":     "删除了",
	"prereleased": "预发布了",
	"released":    "正式发布了",
}

var githubEventTypes = map[string]bool{
	"push":         true,
	"pull_request": true,
	"issues":       true,
	"release":      true,
	"star":         true,
	"fork":         true,
}

func renderGitHub(eventType string, body []byte, now time.Time) (string, error) {
	if !githubEventTypes[eventType] {
		return "", &UnknownEventTypeError{Source: models.EventSourceGitHub, EventType: eventType}
	}

	payload, err := github.ParseWebHook(eventType, body)
	if err != nil {
		return "", fmt.Errorf("decode github %s payload: %w", eventType, err)
	}

	switch e := payload.(type) {
	case *github.PushEvent:
		return githubPush(e, now), nil
	case *github.PullRequestEvent:
		return githubPullRequest(e, now), nil
	case *github.IssuesEvent:
		return githubIssue(e, now), nil
	case *github.ReleaseEvent:
		return githubRelease(e, now), nil
	case *github.StarEvent:
		return githubStar(e, now), nil
	case *github.ForkEvent:
		return githubFork(e, now), nil
	default:
		return "", &UnknownEventTypeError{Source: models.EventSourceGitHub, EventType: eventType}
	}
}

func githubPush(e *github.PushEvent, now time.Time) string {
	commits := make([]commitLine, 0, len(e.Commits))
	for _, c := range e.Commits {
		commits = append(commits, commitLine{
			author:  c.GetAuthor().GetName(),
			message: c.GetMessage(),
			url:     c.GetURL(),
		})
	}

	return newMessage("🚀 **GitHub Push事件**").
		line("📦 项目: %s", orDefault(e.GetRepo().GetName(), "未知项目")).
		line("👤 用户: %s", orDefault(e.GetPusher().GetName(), "未知用户")).
		line("🌿 分支: %s", refName(e.GetRef())).
		line("📝 提交: %d 个新提交", len(e.Commits)).
		commits(commits, len(e.Commits)).
		lineIf(e.GetCompare() != "", "🔗 对比链接: %s", e.GetCompare()).
		stamp(now)
}

func githubPullRequest(e *github.PullRequestEvent, now time.Time) string {
	pr := e.GetPullRequest()
	action := e.GetAction()
	if action == "closed" && pr.GetMerged() {
		action = "merged"
	}

	return newMessage("🔀 **GitHub Pull Request事件**").
		line("📦 项目: %s", orDefault(e.GetRepo().GetName(), "未知项目")).
		line("👤 用户: %s %s拉取请求", orDefault(e.GetSender().GetLogin(), "未知用户"), actionText(githubPullRequestActions, action)).
		line("📝 标题: #%d %s", pr.GetNumber(), orDefault(pr.GetTitle(), "未命名拉取请求")).
		line("🌿 分支: %s → %s", pr.GetHead().GetRef(), pr.GetBase().GetRef()).
		line("📊 状态: %s", pr.GetState()).
		line("🔗 链接: %s", pr.GetHTMLURL()).
		stamp(now)
}

func githubIssue(e *github.IssuesEvent, now time.Time) string {
	issue := e.GetIssue()
	description := truncateRunes(issue.GetBody(), maxBodyRunes)

	return newMessage("📋 **GitHub Issues事件**").
		line("📦 项目: %s", orDefault(e.GetRepo().GetName(), "未知项目")).
		line("👤 用户: %s %s问题", orDefault(e.GetSender().GetLogin(), "未知用户"), actionText(githubIssueActions, e.GetAction())).
		line("📝 标题: #%d %s", issue.GetNumber(), orDefault(issue.GetTitle(), "未命名问题")).
		lineIf(description != "", "📄 描述: %s", description).
		line("🔗 链接: %s", issue.GetHTMLURL()).
		stamp(now)
}

func githubRelease(e *github.ReleaseEvent, now time.Time) string {
	release := e.GetRelease()
	tag := orDefault(release.GetTagName(), "unknown")
	description := truncateRunes(release.GetBody(), maxBodyRunes)

	return newMessage("🏷️ **GitHub Release事件**").
		line("📦 项目: %s", orDefault(e.GetRepo().GetName(), "未知项目")).
		line("👤 用户: %s %s版本", orDefault(e.GetSender().GetLogin(), "未知用户"), actionText(githubReleaseActions, e.GetAction())).
		line("📝 版本名称: %s", orDefault(release.GetName(), tag)).
		line("🏷️ 版本标签: %s", tag).
		lineIf(description != "", "📄 版本描述: %s", description).
		line("🔗 版本链接: %s", release.GetHTMLURL()).
		stamp(now)
}

func githubStar(e *github.StarEvent, now time.Time) string {
	verb := "给项目点了Star"
	if e.GetAction() == "deleted" {
		verb = "取消了Star"
	}

	return newMessage("⭐ **GitHub Star事件**").
		line("📦 项目: %s", orDefault(e.GetRepo().GetName(), "未知项目")).
		line("👤 用户: %s %s", orDefault(e.GetSender().GetLogin(), "未知用户"), verb).
		line("🔗 项目链接: %s", e.GetRepo().GetHTMLURL()).
		stamp(now)
}

func githubFork(e *github.ForkEvent, now time.Time) string {
	return newMessage("🍴 **GitHub Fork事件**").
		line("📦 项目: %s", orDefault(e.GetRepo().GetName(), "未知项目")).
		line("👤 用户: %s Fork了项目", orDefault(e.GetSender().GetLogin(), "未知用户")).
		lineIf(e.GetForkee().GetHTMLURL() != "", "🍴 新仓库: %s", e.GetForkee().GetHTMLURL()).
		line("🔗 项目链接: %s", e.GetRepo().GetHTMLURL()).
		stamp(now)
}
