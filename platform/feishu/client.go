package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dhima/feishu-notifier/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// MentionAll is the plain-text token operators write to notify everyone.
	MentionAll = "@所有人"
	// MentionAllMarkup is the custom bot markup that notifies everyone in the chat.
	MentionAllMarkup = "<at user_id='all'>所有人</at>"

	// SentMessage is reported when the bot accepted the message.
	SentMessage = "消息发送成功"

	maxErrorBody = 512
)

// RewriteMentions replaces every MentionAll token with MentionAllMarkup.
func RewriteMentions(text string) string {
	return strings.ReplaceAll(text, MentionAll, MentionAllMarkup)
}

// DeliveryError reports why a message did not reach the chat.
// A zero StatusCode means the request never produced an HTTP response.
type DeliveryError struct {
	StatusCode int
	Code       int
	Body       string
	Err        error
}

func (e *DeliveryError) Error() string {
	switch {
	case e.Network():
		return fmt.Sprintf("delivery transport: %v", e.Err)
	case e.Rejected():
		return fmt.Sprintf("delivery rejected: code %d: %s", e.Code, e.Body)
	default:
		return fmt.Sprintf("delivery status %d: %s", e.StatusCode, e.Body)
	}
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Network reports a transport failure (dial, TLS, timeout, cancelled context).
func (e *DeliveryError) Network() bool { return e.StatusCode == 0 }

// Rejected reports a 2xx response whose body carries a non-zero bot error code.
func (e *DeliveryError) Rejected() bool { return e.StatusCode >= 200 && e.StatusCode < 300 }

type textMessage struct {
	MsgType string      `json:"msg_type"`
	Content textContent `json:"content"`
}

type textContent struct {
	Text string `json:"text"`
}

type botReply struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Client posts text messages to custom bot webhooks.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	logger  logging.Logger
}

// NewClient creates a delivery client. ratePerSecond <= 0 disables throttling.
func NewClient(timeout time.Duration, ratePerSecond int, logger logging.Logger) *Client {
	limit := rate.Inf
	burst := 1
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
		burst = ratePerSecond
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.With(zap.String("component", "feishu")),
	}
}

// Send posts text to webhookURL and returns a human readable result message.
// Errors are always *DeliveryError.
func (c *Client) Send(ctx context.Context, webhookURL, text string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", &DeliveryError{Err: fmt.Errorf("rate limiter: %w", err)}
	}

	payload, err := json.Marshal(textMessage{MsgType: "text", Content: textContent{Text: text}})
	if err != nil {
		return "", &DeliveryError{Err: fmt.Errorf("encode message: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		return "", &DeliveryError{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("delivery transport failed", zap.Error(err))
		return "", &DeliveryError{Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("delivery rejected by status",
			zap.Int("status_code", resp.StatusCode),
		)
		return "", &DeliveryError{StatusCode: resp.StatusCode, Body: truncate(string(body))}
	}

	var reply botReply
	if err := json.Unmarshal(body, &reply); err == nil && reply.Code != 0 {
		c.logger.Warn("delivery rejected by bot",
			zap.Int("code", reply.Code),
			zap.String("msg", reply.Msg),
		)
		return "", &DeliveryError{StatusCode: resp.StatusCode, Code: reply.Code, Body: reply.Msg}
	}

	return SentMessage, nil
}

func truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	return s[:maxErrorBody] + "..."
}
