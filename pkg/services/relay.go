package services

import (
	"context"
	"log"
	"strings"
	"time"

	"SupportChat/models"
	"SupportChat/pkg/config"
	"SupportChat/pkg/events"

	"gorm.io/gorm"
)

const (
	ProviderErrorMessage = "I'm sorry, I encountered an error while processing your message. Please try again later."
	RelayErrorMessage    = "I'm sorry, I couldn't process your request. Please try again later."
)

// RelayRequest is the payload of a "message" event.
type RelayRequest struct {
	ConversationID string `json:"conversationId"`
	SessionID      string `json:"sessionId"`
	Email          string `json:"email"`
	Message        string `json:"message"`
	APIKey         string `json:"geminiApiKey,omitempty"`
}

// RelayReply is the payload of a "message_response" event.
type RelayReply struct {
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
}

// Relay forwards one visitor message to the assistant and reports the
// exchange to the analytics pipeline.
type Relay struct {
	store          *ConversationStore
	assistant      Assistant
	publisher      events.Publisher
	timeout        time.Duration
	historyLimit   int
	persistReplies bool
	now            func() time.Time
}

func NewRelay(db *gorm.DB, assistant Assistant, publisher events.Publisher) *Relay {
	return &Relay{
		store:          NewConversationStore(db),
		assistant:      assistant,
		publisher:      publisher,
		timeout:        time.Duration(config.RelayTimeoutSeconds) * time.Second,
		historyLimit:   config.HistoryLimit,
		persistReplies: config.RelayPersistReplies,
		now:            time.Now,
	}
}

// Handle always produces a reply. Provider failures become the apology
// text; anything else that goes wrong yields RelayErrorMessage.
func (r *Relay) Handle(ctx context.Context, req RelayRequest) (reply RelayReply) {
	start := r.now()
	reply.ConversationID = req.ConversationID

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[relay] panic handling message for conversation %s: %v", req.ConversationID, rec)
			reply.Message = RelayErrorMessage
		}
	}()

	question := strings.TrimSpace(req.Message)
	if question == "" {
		reply.Message = RelayErrorMessage
		return reply
	}

	history := r.history(ctx, req.ConversationID, question)

	askCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	answer, err := r.assistant.Ask(askCtx, ChatFromHistory(history, question), req.APIKey)
	failed := err != nil
	if failed {
		log.Printf("[relay] %s provider error for conversation %s: %v", r.assistant.Name(), req.ConversationID, err)
		answer = ProviderErrorMessage
	}
	reply.Message = answer

	if r.persistReplies && !failed && req.ConversationID != "" {
		if _, err := r.store.AddMessage(ctx, req.ConversationID, req.SessionID, models.RoleAssistant, answer); err != nil {
			log.Printf("[relay] error storing reply: %v", err)
		}
	}

	elapsed := r.now().Sub(start)
	r.publish(events.AnalyticsEvent{
		ConversationID: req.ConversationID,
		SessionID:      req.SessionID,
		Email:          req.Email,
		Message:        question,
		Response:       answer,
		ResponseTimeMs: elapsed.Milliseconds(),
		Provider:       r.assistant.Name(),
		Model:          r.assistant.Model(),
		Fallback:       failed,
		CreatedAt:      r.now().UTC(),
	})
	return reply
}

// history loads prior turns for context. The widget stores the visitor's
// message before sending it, so a trailing copy of the question is dropped.
func (r *Relay) history(ctx context.Context, conversationID, question string) []models.Message {
	if r.historyLimit <= 0 {
		return nil
	}
	msgs, err := r.store.Recent(ctx, conversationID, r.historyLimit+1)
	if err != nil {
		log.Printf("[relay] %v", err)
		return nil
	}
	if n := len(msgs); n > 0 && msgs[n-1].Role == models.RoleUser && strings.TrimSpace(msgs[n-1].Content) == question {
		msgs = msgs[:n-1]
	}
	if len(msgs) > r.historyLimit {
		msgs = msgs[len(msgs)-r.historyLimit:]
	}
	return msgs
}

func (r *Relay) publish(ev events.AnalyticsEvent) {
	if r.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.publisher.PublishAnalytics(ctx, ev); err != nil {
		log.Printf("[analytics] error publishing event: %v", err)
	}
}
