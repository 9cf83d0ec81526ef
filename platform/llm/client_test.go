package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

const completionReply = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1736300000,
  "model": "deepseek-chat",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "早上好 ☀️"}}],
  "usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`

func TestComplete_SendsPromptsAndReturnsContent(t *testing.T) {
	// Arrange
	var got chatRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionReply))
	}))
	defer srv.Close()
	client := NewClient(5*time.Second, "")

	// Act
	text, err := client.Complete(context.Background(), srv.URL+"/v1", "sk-test", "", "system", "播报天气")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "早上好 ☀️", text)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, DefaultModel, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "播报天气", got.Messages[1].Content)
}

func TestComplete_ExplicitModelWins(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionReply))
	}))
	defer srv.Close()

	_, err := NewClient(5*time.Second, "").Complete(context.Background(), srv.URL, "k", "qwen-max", "s", "u")

	require.NoError(t, err)
	assert.Equal(t, "qwen-max", got.Model)
}

func TestComplete_APIErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := NewClient(5*time.Second, "").Complete(context.Background(), srv.URL, "bad", "", "s", "u")

	assert.Error(t, err)
}

func TestComplete_TimeoutFails(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(100*time.Millisecond, "").Complete(context.Background(), srv.URL, "k", "", "s", "u")

	assert.Error(t, err)
}

func TestComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(5*time.Second, "").Complete(context.Background(), srv.URL, "k", "", "s", "u")

	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestBroadcastPrompt_StampsTime(t *testing.T) {
	prompt := BroadcastPrompt(time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC))

	assert.Contains(t, prompt, "系统时间:2025-01-08 09:00:00")
}
