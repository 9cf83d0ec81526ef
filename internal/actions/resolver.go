package actions

import (
	"context"
	"errors"
	"strings"

	"github.com/dhima/feishu-notifier/internal/events"
	"github.com/dhima/feishu-notifier/internal/logging"
	"github.com/dhima/feishu-notifier/internal/models"
	"github.com/dhima/feishu-notifier/pkg/clock"
	"github.com/dhima/feishu-notifier/platform/llm"
	"github.com/dhima/feishu-notifier/platform/news"
	"go.uber.org/zap"
)

// NewsFetcher downloads a news digest.
type NewsFetcher interface {
	Fetch(ctx context.Context, url string) (*news.Digest, error)
}

// Completer calls a chat completion endpoint.
type Completer interface {
	Complete(ctx context.Context, endpoint, credential, model, systemPrompt, userPrompt string) (string, error)
}

// EventRenderer formats a repository event.
type EventRenderer interface {
	Render(event models.InboundEvent) (string, error)
}

// Handler produces notification text for one task kind. event is nil outside webhook dispatch.
type Handler func(ctx context.Context, task models.Task, event *models.InboundEvent) (string, error)

// Resolver maps task kinds to handlers.
type Resolver struct {
	handlers map[models.TaskKind]Handler
	logger   logging.Logger
}

// NewResolver registers the handler of every known kind.
func NewResolver(fetcher NewsFetcher, completer Completer, renderer EventRenderer, clk clock.Clock, logger logging.Logger) *Resolver {
	r := &Resolver{
		handlers: make(map[models.TaskKind]Handler, 4),
		logger:   logger.With(zap.String("component", "resolver")),
	}
	r.Register(models.TaskKindStatic, staticText)
	r.Register(models.TaskKindNewsDigest, newsDigest(fetcher))
	r.Register(models.TaskKindLLMCompletion, llmCompletion(completer, clk))
	r.Register(models.TaskKindRepoEvent, repoEvent(renderer))
	return r
}

// Register installs or replaces the handler for kind.
func (r *Resolver) Register(kind models.TaskKind, h Handler) {
	r.handlers[kind] = h
}

// Resolve produces the text for task. Failures are *ResolutionError, *UnknownKindError
// or *events.UnknownEventTypeError.
func (r *Resolver) Resolve(ctx context.Context, task models.Task, event *models.InboundEvent) (string, error) {
	h, ok := r.handlers[task.Kind]
	if !ok {
		return "", &UnknownKindError{Kind: task.Kind}
	}

	text, err := h(ctx, task, event)
	if err != nil {
		r.logger.Warn("resolution failed",
			zap.String("task_id", task.ID),
			zap.String("kind", string(task.Kind)),
			zap.Error(err),
		)
		return "", err
	}
	return text, nil
}

func staticText(_ context.Context, task models.Task, _ *models.InboundEvent) (string, error) {
	return task.Content, nil
}

func newsDigest(fetcher NewsFetcher) Handler {
	return func(ctx context.Context, task models.Task, _ *models.InboundEvent) (string, error) {
		digest, err := fetcher.Fetch(ctx, task.NewsURL)
		if err != nil {
			return "", resolutionFailed(task.Kind, err, "获取AI新闻失败: %v", err)
		}
		return digest.Render(), nil
	}
}

func llmCompletion(completer Completer, clk clock.Clock) Handler {
	return func(ctx context.Context, task models.Task, _ *models.InboundEvent) (string, error) {
		if strings.TrimSpace(task.APIURL) == "" || strings.TrimSpace(task.Prompt) == "" {
			return "", resolutionFailed(task.Kind, nil, "大模型任务缺少接口地址或提示词")
		}
		text, err := completer.Complete(ctx, task.APIURL, task.APIKey, task.ModelName, llm.BroadcastPrompt(clk.Now()), task.Prompt)
		if err != nil {
			return "", resolutionFailed(task.Kind, err, "调用大模型失败: %v", err)
		}
		return text, nil
	}
}

func repoEvent(renderer EventRenderer) Handler {
	return func(_ context.Context, task models.Task, event *models.InboundEvent) (string, error) {
		if event == nil {
			return "", resolutionFailed(task.Kind, nil, "仓库事件任务只能由Webhook触发")
		}
		text, err := renderer.Render(*event)
		if err != nil {
			var unknown *events.UnknownEventTypeError
			if errors.As(err, &unknown) {
				return "", err
			}
			return "", resolutionFailed(task.Kind, err, "解析%s事件失败: %v", event.Source.Label(), err)
		}
		return text, nil
	}
}
