package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Analytics is one relayed question/answer pair with its latency.
type Analytics struct {
	ID             string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	ConversationID string         `gorm:"type:varchar(36);index" json:"conversation_id"`
	SessionID      string         `gorm:"size:64" json:"session_id"`
	Email          string         `gorm:"size:320" json:"email"`
	Message        string         `gorm:"type:text" json:"message"`
	Response       string         `gorm:"type:text" json:"response"`
	ResponseTimeMs int64          `gorm:"not null;default:0" json:"response_time_ms"`
	Metadata       datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
}

func (Analytics) TableName() string { return "analytics" }

func (a *Analytics) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
