package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"SupportChat/models"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIAsk(t *testing.T) {
	var gotAuth string
	var gotReq openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"chatcmpl-1","object":"chat.completion","model":"gpt-test",
			"choices":[{"index":0,"message":{"role":"assistant","content":" Sure, happy to help. "},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	s := &OpenAIService{apiKey: "server-key", baseURL: srv.URL + "/v1", model: "gpt-test", prompt: "Answer in short."}
	s.client = s.newClient(s.apiKey)

	chat := []ChatMessage{
		{Role: models.RoleAssistant, Text: WelcomeMessage},
		{Role: models.RoleUser, Text: "Can you help?"},
	}
	out, err := s.Ask(context.Background(), chat, "")
	require.NoError(t, err)
	assert.Equal(t, "Sure, happy to help.", out)
	assert.Equal(t, "Bearer server-key", gotAuth)

	assert.Equal(t, "gpt-test", gotReq.Model)
	require.Len(t, gotReq.Messages, 3)
	assert.Equal(t, openai.ChatMessageRoleSystem, gotReq.Messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, gotReq.Messages[1].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, gotReq.Messages[2].Role)
}

func TestOpenAIIgnoresWidgetGeminiKey(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"chatcmpl-2","object":"chat.completion","model":"gpt-test",
			"choices":[{"index":0,"message":{"role":"assistant","content":"ok"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	s := &OpenAIService{apiKey: "sk-server", baseURL: srv.URL + "/v1", model: "gpt-test"}
	chat := []ChatMessage{{Role: models.RoleUser, Text: "hi"}}
	_, err := s.Ask(context.Background(), chat, "AIza-widget-gemini-key")
	require.NoError(t, err)
	assert.Equal(t, "Bearer sk-server", gotAuth)

	noServerKey := &OpenAIService{baseURL: srv.URL + "/v1", model: "gpt-test"}
	_, err = noServerKey.Ask(context.Background(), chat, "AIza-widget-gemini-key")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestOpenAIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	s := &OpenAIService{apiKey: "server-key", baseURL: srv.URL + "/v1", model: "gpt-test"}
	_, err := s.Ask(context.Background(), []ChatMessage{{Role: models.RoleUser, Text: "hi"}}, "")
	require.Error(t, err)

	var apiErr *openai.APIError
	assert.ErrorAs(t, err, &apiErr)

	empty := &OpenAIService{model: "gpt-test"}
	_, err = empty.Ask(context.Background(), nil, "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestLocalAssistant(t *testing.T) {
	out, err := NewLocalAssistant().Ask(context.Background(), []ChatMessage{{Role: models.RoleUser, Text: "refund status"}}, "")
	require.NoError(t, err)
	assert.Contains(t, out, "refund status")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewLocalAssistant().Ask(ctx, nil, "")
	assert.ErrorIs(t, err, context.Canceled)
}
