package models

// Rows of the aggregate views. Column names match the view definitions
// in pkg/database.

type RealtimeDashboard struct {
	TotalUniqueUsers       int64   `json:"total_unique_users"`
	TotalConversations     int64   `json:"total_conversations"`
	TotalMessages          int64   `json:"total_messages"`
	TodayNewUsers          int64   `json:"today_new_users"`
	TodayConversations     int64   `json:"today_conversations"`
	TodayMessages          int64   `json:"today_messages"`
	TotalFeedback          int64   `json:"total_feedback"`
	PositiveFeedback       int64   `json:"positive_feedback"`
	NegativeFeedback       int64   `json:"negative_feedback"`
	SatisfactionRate       float64 `json:"satisfaction_rate"`
	AvgResponseTimeMs      float64 `json:"avg_response_time_ms"`
	TodayAvgResponseTimeMs float64 `json:"today_avg_response_time_ms"`
	ConvertedConversations int64   `json:"converted_conversations"`
	ConversionRate         float64 `json:"conversion_rate"`
}

func (RealtimeDashboard) TableName() string { return "mv_realtime_dashboard" }

type UserEngagement struct {
	TotalConversations int64   `json:"total_conversations"`
	TotalUsers         int64   `json:"total_users"`
	TotalMessages      int64   `json:"total_messages"`
	AvgResponseTimeMs  float64 `json:"avg_response_time_ms"`
	PositiveFeedback   int64   `json:"positive_feedback"`
	NegativeFeedback   int64   `json:"negative_feedback"`
	SatisfactionRate   float64 `json:"satisfaction_rate"`
}

func (UserEngagement) TableName() string { return "mv_user_engagement" }

type ConversationMetrics struct {
	ConversationID              string   `json:"conversation_id"`
	Email                       *string  `json:"email"`
	SessionID                   *string  `json:"session_id"`
	LastActivity                DBTime   `json:"last_activity"`
	ConversationDurationMinutes *float64 `json:"conversation_duration_minutes"`
	MessageCount                *int64   `json:"message_count"`
	UserMessages                *int64   `json:"user_messages"`
	AssistantMessages           *int64   `json:"assistant_messages"`
	AvgResponseTimeMs           *float64 `json:"avg_response_time_ms"`
	FeedbackStatus              *string  `json:"feedback_status"`
}

func (ConversationMetrics) TableName() string { return "mv_conversation_metrics" }
