package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dhima/feishu-notifier/internal/api/response"
	"github.com/dhima/feishu-notifier/internal/dispatch"
	"github.com/dhima/feishu-notifier/internal/events"
	"github.com/dhima/feishu-notifier/internal/logging"
	"github.com/dhima/feishu-notifier/internal/metrics"
	"github.com/dhima/feishu-notifier/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 25 << 20

// EventDispatcher runs the repo-event tasks matching an inbound event.
type EventDispatcher interface {
	DispatchEvent(ctx context.Context, event models.InboundEvent) (dispatch.EventReport, error)
}

// DeliveryFilter reports redelivered webhook ids.
type DeliveryFilter interface {
	Seen(id string) bool
	Forget(id string)
}

// WebhookHandler receives repository host webhooks.
type WebhookHandler struct {
	dispatcher EventDispatcher
	dedup      DeliveryFilter
	metrics    *metrics.Metrics
	logger     logging.Logger
}

// NewWebhookHandler creates a new webhook handler. dedup and m may be nil.
func NewWebhookHandler(dispatcher EventDispatcher, dedup DeliveryFilter, m *metrics.Metrics, logger logging.Logger) *WebhookHandler {
	return &WebhookHandler{
		dispatcher: dispatcher,
		dedup:      dedup,
		metrics:    m,
		logger:     logger.With(zap.String("handler", "webhook")),
	}
}

// GitHub godoc
// @Summary Receive a GitHub webhook
// @Description Matches the event against enabled GitHub tasks (repository, signature, event type, weekday) and notifies each match.
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param X-GitHub-Event header string true "Event type"
// @Param X-Hub-Signature-256 header string false "sha256=<hex> HMAC of the body"
// @Param X-GitHub-Delivery header string false "Delivery id"
// @Param payload body map[string]interface{} true "GitHub payload"
// @Success 200 {object} response.WebhookAck "Always success once the body parses"
// @Failure 400 {object} response.WebhookAck "Body is not JSON"
// @Router /api/v1/webhooks/github [post]
func (h *WebhookHandler) GitHub(c *gin.Context) {
	h.receive(c, models.EventSourceGitHub)
}

// GitLab godoc
// @Summary Receive a GitLab webhook
// @Description Matches the event against enabled GitLab tasks. The signature is read from X-Gitlab-Token, falling back to X-Hub-Signature-256.
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param X-Gitlab-Event header string true "Event type, e.g. Push Hook"
// @Param X-Gitlab-Token header string false "sha256=<hex> HMAC of the body"
// @Param X-Gitlab-Event-UUID header string false "Delivery id"
// @Param payload body map[string]interface{} true "GitLab payload"
// @Success 200 {object} response.WebhookAck "Always success once the body parses"
// @Failure 400 {object} response.WebhookAck "Body is not JSON"
// @Router /api/v1/webhooks/gitlab [post]
func (h *WebhookHandler) GitLab(c *gin.Context) {
	h.receive(c, models.EventSourceGitLab)
}

func (h *WebhookHandler) receive(c *gin.Context, source models.EventSource) {
	logger := h.logger.With(
		zap.String("source", string(source)),
		zap.String("request_id", response.GetRequestID(c)),
	)

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.metrics.WebhookEvent(string(source), "malformed")
		logger.Warn("failed to read webhook body", zap.Error(err))
		response.Ack(c, http.StatusBadRequest, false, fmt.Sprintf("解析请求体失败: %v", err))
		return
	}

	event, err := events.Decode(source, c.Request.Header, body)
	if err != nil {
		h.metrics.WebhookEvent(string(source), "malformed")
		logger.Warn("invalid webhook payload", zap.Error(err))
		response.Ack(c, http.StatusBadRequest, false, fmt.Sprintf("解析请求体失败: %v", err))
		return
	}

	logger = logger.With(
		zap.String("event_type", event.Type),
		zap.String("repository", event.Repository),
		zap.String("delivery_id", event.DeliveryID),
	)

	deliveryKey := ""
	if event.DeliveryID != "" {
		deliveryKey = string(source) + ":" + event.DeliveryID
	}
	if h.dedup != nil && deliveryKey != "" && h.dedup.Seen(deliveryKey) {
		h.metrics.WebhookEvent(string(source), "duplicate")
		logger.Info("duplicate webhook delivery ignored")
		response.Acknowledged(c, "重复投递已忽略")
		return
	}

	report, err := h.dispatcher.DispatchEvent(c.Request.Context(), event)
	if err != nil {
		if h.dedup != nil && deliveryKey != "" {
			h.dedup.Forget(deliveryKey)
		}
		h.metrics.WebhookEvent(string(source), "error")
		logger.Error("webhook dispatch failed", zap.Error(err))
		response.Acknowledged(c, fmt.Sprintf("%s Webhook已接收", source.Label()))
		return
	}

	h.metrics.WebhookEvent(string(source), "dispatched")
	logger.Info("webhook processed",
		zap.Int("candidates", report.Candidates),
		zap.Int("matched", report.Matched),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
	)
	response.Acknowledged(c, fmt.Sprintf("%s Webhook已处理", source.Label()))
}
