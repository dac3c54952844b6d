package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"SupportChat/models"
	"SupportChat/pkg/config"
)

var (
	ErrAssistantDisabled = errors.New("assistant is disabled via config")
	ErrMissingAPIKey     = errors.New("assistant API key is not set")
)

// ChatMessage is one turn handed to a provider. Role is models.RoleUser
// or models.RoleAssistant; providers map it to their own vocabulary.
type ChatMessage struct {
	Role string
	Text string
}

// Assistant answers a conversation. geminiKey is the Gemini key a widget
// may bring; only the Gemini provider uses it in place of the server key.
type Assistant interface {
	Name() string
	Model() string
	Ask(ctx context.Context, chat []ChatMessage, geminiKey string) (string, error)
}

// NewAssistant builds the provider selected by ASSISTANT_PROVIDER.
func NewAssistant() Assistant {
	if !config.IsAssistantEnabled {
		log.Printf("[assistant] disabled via config, using local replies")
		return NewLocalAssistant()
	}
	switch config.AssistantProvider {
	case "openai":
		return NewOpenAIService()
	case "local":
		return NewLocalAssistant()
	default:
		return NewGeminiService()
	}
}

// ChatFromHistory turns stored messages plus the new question into the
// turn list sent to a provider.
func ChatFromHistory(history []models.Message, question string) []ChatMessage {
	chat := make([]ChatMessage, 0, len(history)+1)
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		chat = append(chat, ChatMessage{Role: m.Role, Text: m.Content})
	}
	return append(chat, ChatMessage{Role: models.RoleUser, Text: question})
}

func pickKey(override, server string) string {
	if k := strings.TrimSpace(override); k != "" {
		return k
	}
	return strings.TrimSpace(server)
}
