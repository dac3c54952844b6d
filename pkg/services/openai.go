package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"SupportChat/models"
	"SupportChat/pkg/config"

	"github.com/sashabaranov/go-openai"
)

type OpenAIService struct {
	apiKey  string
	baseURL string
	model   string
	prompt  string
	client  *openai.Client
}

func NewOpenAIService() *OpenAIService {
	s := &OpenAIService{
		apiKey:  config.OpenAIAPIKey,
		baseURL: config.OpenAIBaseURL,
		model:   config.OpenAIModel,
		prompt:  config.AssistantPrompt,
	}
	if s.apiKey != "" {
		s.client = s.newClient(s.apiKey)
	}
	return s
}

func (s *OpenAIService) Name() string  { return "openai" }
func (s *OpenAIService) Model() string { return s.model }

func (s *OpenAIService) newClient(key string) *openai.Client {
	cfg := openai.DefaultConfig(key)
	if s.baseURL != "" {
		cfg.BaseURL = s.baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// Ask uses the server key only. The widget's key is a Gemini key and is
// never sent to OpenAI.
func (s *OpenAIService) Ask(ctx context.Context, chat []ChatMessage, _ string) (string, error) {
	key := strings.TrimSpace(s.apiKey)
	if key == "" {
		log.Printf("[openai] OPENAI_API_KEY is not set")
		return "", ErrMissingAPIKey
	}
	client := s.client
	if client == nil {
		client = s.newClient(key)
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(chat)+1)
	if strings.TrimSpace(s.prompt) != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: s.prompt})
	}
	for _, m := range chat {
		role := openai.ChatMessageRoleUser
		if m.Role == models.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Text})
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    s.model,
		Messages: msgs,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			log.Printf("[openai] api error status=%d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errors.New("openai returned no content")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
