package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"SupportChat/models"
	utils "SupportChat/pkg/utills"

	"gorm.io/gorm"
)

const WelcomeMessage = "Hello! How can I help you today?"

var (
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrInvalidRole          = errors.New("role must be user or assistant")
	ErrEmptyContent         = errors.New("message content is empty")
)

// ConversationStore is the widget's persistence API over conversations,
// messages and feedback.
type ConversationStore struct {
	db *gorm.DB
}

func NewConversationStore(db *gorm.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// Open resumes the newest conversation for email, or starts a new one
// seeded with the welcome message. resumed reports which happened.
func (s *ConversationStore) Open(ctx context.Context, email, sessionID string) (conv *models.Conversation, resumed bool, err error) {
	if !utils.IsValidEmail(email) {
		return nil, false, ErrInvalidEmail
	}
	email = utils.NormalizeEmail(email)

	// a first visit is the common case, so no ErrRecordNotFound here
	var existing models.Conversation
	res := s.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC").
		Limit(1).
		Find(&existing)
	if res.Error != nil {
		return nil, false, fmt.Errorf("error loading conversation: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return &existing, true, nil
	}

	conv = &models.Conversation{Email: email, SessionID: sessionID, IsActive: true}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		welcome := models.Message{
			ConversationID: conv.ID,
			SessionID:      sessionID,
			Role:           models.RoleAssistant,
			Content:        WelcomeMessage,
		}
		return tx.Create(&welcome).Error
	})
	if err != nil {
		return nil, false, fmt.Errorf("error creating conversation: %w", err)
	}
	return conv, false, nil
}

// Get loads a conversation by id.
func (s *ConversationStore) Get(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error loading conversation: %w", err)
	}
	return &conv, nil
}

// Messages returns every message of a conversation, oldest first.
func (s *ConversationStore) Messages(ctx context.Context, conversationID string) ([]models.Message, error) {
	if _, err := s.Get(ctx, conversationID); err != nil {
		return nil, err
	}
	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("error loading messages: %w", err)
	}
	return msgs, nil
}

// Recent returns up to limit of the latest messages, oldest first.
func (s *ConversationStore) Recent(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	if limit <= 0 || conversationID == "" {
		return nil, nil
	}
	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("error loading history: %w", err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// AddMessage stores one chat message.
func (s *ConversationStore) AddMessage(ctx context.Context, conversationID, sessionID, role, content string) (*models.Message, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if !models.ValidRole(role) {
		return nil, ErrInvalidRole
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if _, err := s.Get(ctx, conversationID); err != nil {
		return nil, err
	}
	msg := models.Message{
		ConversationID: conversationID,
		SessionID:      sessionID,
		Role:           role,
		Content:        content,
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("error saving message: %w", err)
	}
	return &msg, nil
}

// AddFeedback stores a thumbs up or down for a conversation.
func (s *ConversationStore) AddFeedback(ctx context.Context, conversationID, sessionID string, isPositive bool) (*models.Feedback, error) {
	if _, err := s.Get(ctx, conversationID); err != nil {
		return nil, err
	}
	fb := models.Feedback{
		ConversationID: conversationID,
		SessionID:      sessionID,
		IsPositive:     isPositive,
	}
	if err := s.db.WithContext(ctx).Create(&fb).Error; err != nil {
		return nil, fmt.Errorf("error saving feedback: %w", err)
	}
	return &fb, nil
}
