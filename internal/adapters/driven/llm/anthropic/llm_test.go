package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

func TestNewLLMService(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	svc, err := NewLLMService(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
}

func TestLLMService_Chat(t *testing.T) {
	var got struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		System    []struct {
			Text string `json:"text"`
		} `json:"system"`
		Messages []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude",
			"content": [{"type": "text", "text": "Paris is the capital."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	svc, err := NewLLMService(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "claude"})
	require.NoError(t, err)

	reply, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "persona"},
		{Role: driven.RoleUser, Content: "question"},
	}, driven.ChatOptions{})

	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital.", reply)
	assert.Equal(t, "claude", got.Model)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
	require.Len(t, got.System, 1)
	assert.Equal(t, "persona", got.System[0].Text)
	require.Len(t, got.Messages, 1, "system prompt is not sent as a message")
	assert.Equal(t, "user", got.Messages[0].Role)
}

func TestReplyText(t *testing.T) {
	tests := []struct {
		name   string
		blocks []anthropic.ContentBlockUnion
		want   string
	}{
		{"single text", []anthropic.ContentBlockUnion{{Type: "text", Text: " Paris. "}}, "Paris."},
		{"skips non-text", []anthropic.ContentBlockUnion{
			{Type: "thinking", Thinking: "hmm"},
			{Type: "text", Text: "It is "},
			{Type: "tool_use", Name: "lookup"},
			{Type: "text", Text: "Paris."},
		}, "It is Paris."},
		{"no text", []anthropic.ContentBlockUnion{{Type: "tool_use"}}, ""},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, replyText(tt.blocks))
		})
	}
}
