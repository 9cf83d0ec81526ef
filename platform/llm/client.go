package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultModel is used when a task leaves the model name empty.
const DefaultModel = "deepseek-chat"

// ErrEmptyCompletion is returned when the backend answers without any choice.
var ErrEmptyCompletion = errors.New("completion: no choices in response")

// Client calls OpenAI-compatible chat completion endpoints.
type Client struct {
	http         *http.Client
	timeout      time.Duration
	defaultModel string
}

// NewClient creates a completion client bounded by timeout per call.
func NewClient(timeout time.Duration, defaultModel string) *Client {
	if defaultModel == "" {
		defaultModel = DefaultModel
	}
	return &Client{
		http:         &http.Client{Timeout: timeout},
		timeout:      timeout,
		defaultModel: defaultModel,
	}
}

// DefaultModel returns the model used when none is configured.
func (c *Client) DefaultModel() string { return c.defaultModel }

// Complete sends one system and one user message and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, endpoint, credential, model, systemPrompt, userPrompt string) (string, error) {
	if strings.TrimSpace(model) == "" {
		model = c.defaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(credential),
		option.WithHTTPClient(c.http),
		option.WithMaxRetries(0),
	}
	if endpoint != "" {
		opts = append(opts, option.WithBaseURL(endpoint))
	}
	client := openai.NewClient(opts...)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("completion %s: %w", model, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

// BroadcastPrompt is the system prompt used for scheduled broadcasts, stamped with now.
func BroadcastPrompt(now time.Time) string {
	return "# 角色\n你是一位AI智能播报助手,能够根据要求播报内容。\n\n# 要求\n语言幽默，建议使用emoji # 系统时间:" +
		now.Format("2006-01-02 15:04:05")
}
