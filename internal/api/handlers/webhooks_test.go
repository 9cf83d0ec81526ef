package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dhima/feishu-notifier/internal/api/response"
	"github.com/dhima/feishu-notifier/internal/dispatch"
	"github.com/dhima/feishu-notifier/internal/events"
	"github.com/dhima/feishu-notifier/internal/logging"
	"github.com/dhima/feishu-notifier/internal/metrics"
	"github.com/dhima/feishu-notifier/internal/models"
	"github.com/dhima/feishu-notifier/pkg/clock"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventDispatcher struct {
	events []models.InboundEvent
	report dispatch.EventReport
	err    error
}

func (f *fakeEventDispatcher) DispatchEvent(ctx context.Context, event models.InboundEvent) (dispatch.EventReport, error) {
	f.events = append(f.events, event)
	return f.report, f.err
}

func webhookRouter(t *testing.T, d EventDispatcher, dedup DeliveryFilter, m *metrics.Metrics) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewWebhookHandler(d, dedup, m, logging.NewNoOpLogger())
	r := gin.New()
	r.POST("/api/v1/webhooks/github", h.GitHub)
	r.POST("/api/v1/webhooks/gitlab", h.GitLab)
	return r
}

func postHook(r http.Handler, path, body string, headers map[string]string) (*httptest.ResponseRecorder, response.WebhookAck) {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var ack response.WebhookAck
	_ = json.Unmarshal(w.Body.Bytes(), &ack)
	return w, ack
}

func TestGitHubWebhook_DispatchesNormalizedEvent(t *testing.T) {
	// Arrange
	d := &fakeEventDispatcher{report: dispatch.EventReport{Candidates: 2, Matched: 1, Succeeded: 1}}
	r := webhookRouter(t, d, nil, nil)

	// Act
	w, ack := postHook(r, "/api/v1/webhooks/github", `{"repository":{"full_name":"org/repo"}}`, map[string]string{
		"X-GitHub-Event":      "push",
		"X-Hub-Signature-256": "sha256=abc",
		"X-GitHub-Delivery":   "d-1",
	})

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, ack.Success)
	assert.Equal(t, "GitHub Webhook已处理", ack.Message)
	require.Len(t, d.events, 1)
	got := d.events[0]
	assert.Equal(t, models.EventSourceGitHub, got.Source)
	assert.Equal(t, "push", got.Type)
	assert.Equal(t, "org/repo", got.Repository)
	assert.Equal(t, "sha256=abc", got.Signature)
}

func TestGitLabWebhook_UsesTokenHeader(t *testing.T) {
	d := &fakeEventDispatcher{}
	r := webhookRouter(t, d, nil, nil)

	w, ack := postHook(r, "/api/v1/webhooks/gitlab", `{"project":{"path_with_namespace":"group/app"}}`, map[string]string{
		"X-Gitlab-Event": "Push Hook",
		"X-Gitlab-Token": "sha256=def",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "GitLab Webhook已处理", ack.Message)
	require.Len(t, d.events, 1)
	assert.Equal(t, "group/app", d.events[0].Repository)
	assert.Equal(t, "sha256=def", d.events[0].Signature)
}

func TestWebhook_BadJSONIs400(t *testing.T) {
	d := &fakeEventDispatcher{}
	r := webhookRouter(t, d, nil, nil)

	w, ack := postHook(r, "/api/v1/webhooks/github", `{not json`, map[string]string{"X-GitHub-Event": "push"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, ack.Success)
	assert.True(t, strings.HasPrefix(ack.Message, "解析请求体失败"))
	assert.Empty(t, d.events)
}

func TestWebhook_DispatchErrorIsStillAcknowledged(t *testing.T) {
	r := webhookRouter(t, &fakeEventDispatcher{err: errors.New("db down")}, nil, nil)

	w, ack := postHook(r, "/api/v1/webhooks/github", `{}`, map[string]string{"X-GitHub-Event": "push"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, ack.Success)
	assert.Equal(t, "GitHub Webhook已接收", ack.Message)
}

func TestWebhook_NonObjectJSONIsAcknowledged(t *testing.T) {
	d := &fakeEventDispatcher{}
	r := webhookRouter(t, d, nil, nil)

	w, ack := postHook(r, "/api/v1/webhooks/github", `[1,2]`, map[string]string{"X-GitHub-Event": "push"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, ack.Success)
	require.Len(t, d.events, 1)
	assert.Empty(t, d.events[0].Repository)
}

func TestWebhook_FailedDispatchDoesNotSwallowRedelivery(t *testing.T) {
	// Arrange
	d := &fakeEventDispatcher{err: errors.New("list tasks: db down")}
	dedup, err := events.NewDeliveryDedup(10*time.Minute, clock.NewFixed(time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	r := webhookRouter(t, d, dedup, nil)
	headers := map[string]string{"X-GitHub-Event": "push", "X-GitHub-Delivery": "retry-me"}

	// Act
	postHook(r, "/api/v1/webhooks/github", `{}`, headers)
	d.err = nil
	_, retry := postHook(r, "/api/v1/webhooks/github", `{}`, headers)
	_, again := postHook(r, "/api/v1/webhooks/github", `{}`, headers)

	// Assert
	assert.Equal(t, "GitHub Webhook已处理", retry.Message)
	assert.Equal(t, "重复投递已忽略", again.Message)
	assert.Len(t, d.events, 2)
}

func TestWebhook_DuplicateDeliveryIsNotDispatchedTwice(t *testing.T) {
	// Arrange
	d := &fakeEventDispatcher{}
	dedup, err := events.NewDeliveryDedup(10*time.Minute, clock.NewFixed(time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)
	r := webhookRouter(t, d, dedup, m)
	headers := map[string]string{"X-GitHub-Event": "push", "X-GitHub-Delivery": "same-id"}

	// Act
	_, first := postHook(r, "/api/v1/webhooks/github", `{}`, headers)
	w, second := postHook(r, "/api/v1/webhooks/github", `{}`, headers)
	_, gitlab := postHook(r, "/api/v1/webhooks/gitlab", `{}`, map[string]string{"X-Gitlab-Event": "Push Hook", "X-Gitlab-Event-UUID": "same-id"})

	// Assert
	assert.True(t, first.Success)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, second.Success)
	assert.Equal(t, "重复投递已忽略", second.Message)
	assert.Equal(t, "GitLab Webhook已处理", gitlab.Message)
	assert.Len(t, d.events, 2)

	const want = `
# HELP notifier_webhook_events_total Inbound webhook requests, by source and outcome.
# TYPE notifier_webhook_events_total counter
notifier_webhook_events_total{outcome="dispatched",source="github"} 1
notifier_webhook_events_total{outcome="dispatched",source="gitlab"} 1
notifier_webhook_events_total{outcome="duplicate",source="github"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(want), "notifier_webhook_events_total"))
}
