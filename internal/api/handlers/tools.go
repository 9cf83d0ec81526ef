package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dhima/feishu-notifier/internal/api/response"
	"github.com/dhima/feishu-notifier/internal/logging"
	"github.com/dhima/feishu-notifier/platform/feishu"
	"github.com/dhima/feishu-notifier/platform/news"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DefaultTestMessage is sent by the webhook test tool when no content is given.
const DefaultTestMessage = "这是一条测试消息，用于验证飞书webhook连接是否正常。"

// MessageSender delivers text to a chat webhook.
type MessageSender interface {
	Send(ctx context.Context, webhookURL, text string) (string, error)
}

// NewsFetcher downloads a news digest.
type NewsFetcher interface {
	Fetch(ctx context.Context, url string) (*news.Digest, error)
}

// ToolsHandler serves operator utilities.
type ToolsHandler struct {
	sender MessageSender
	news   NewsFetcher
	logger logging.Logger
}

// NewToolsHandler creates a new tools handler.
func NewToolsHandler(sender MessageSender, fetcher NewsFetcher, logger logging.Logger) *ToolsHandler {
	return &ToolsHandler{
		sender: sender,
		news:   fetcher,
		logger: logger.With(zap.String("handler", "tools")),
	}
}

// TestWebhookRequest is the body of a webhook connectivity test.
type TestWebhookRequest struct {
	WebhookURL string `json:"webhook_url" example:"https://open.feishu.cn/open-apis/bot/v2/hook/xxx"`
	Content    string `json:"content,omitempty" example:"@所有人 测试"`
} // @name TestWebhookRequest

// TestWebhook godoc
// @Summary Send a test message
// @Description Posts a text message to the given chat webhook and reports the delivery result.
// @Tags Tools
// @Accept json
// @Produce json
// @Param request body TestWebhookRequest true "Target and optional content"
// @Success 200 {object} response.WebhookAck
// @Failure 400 {object} response.WebhookAck "Body is not JSON"
// @Router /api/v1/tools/test-webhook [post]
func (h *ToolsHandler) TestWebhook(c *gin.Context) {
	var req TestWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Ack(c, http.StatusBadRequest, false, fmt.Sprintf("解析请求体失败: %v", err))
		return
	}

	target := strings.TrimSpace(req.WebhookURL)
	if target == "" {
		response.Declined(c, "请提供webhook_url")
		return
	}
	content := req.Content
	if strings.TrimSpace(content) == "" {
		content = DefaultTestMessage
	}

	message, err := h.sender.Send(c.Request.Context(), target, feishu.RewriteMentions(content))
	if err != nil {
		h.logger.Warn("test delivery failed",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.Declined(c, fmt.Sprintf("消息发送失败: %v", err))
		return
	}
	response.Acknowledged(c, message)
}

// News godoc
// @Summary Preview the news digest
// @Description Fetches the news feed (the configured default unless url is given) and returns the rendered broadcast.
// @Tags Tools
// @Produce json
// @Param url query string false "Feed URL override"
// @Success 200 {object} response.WebhookAck
// @Router /api/v1/tools/news [get]
func (h *ToolsHandler) News(c *gin.Context) {
	digest, err := h.news.Fetch(c.Request.Context(), c.Query("url"))
	if err != nil {
		h.logger.Warn("news preview failed",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.Declined(c, fmt.Sprintf("获取AI新闻失败: %v", err))
		return
	}
	response.Acknowledged(c, digest.Render())
}
