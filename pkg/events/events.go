// Package events carries analytics records from the relay to the
// recorder, either in process or through RabbitMQ.
package events

import (
	"context"
	"errors"
	"time"
)

const (
	AnalyticsQueue  = "chat_analytics"
	RetryDelay      = 5 * time.Second
	MaxConnectRetry = 5
)

var ErrQueueClosed = errors.New("analytics queue is closed")

type Task interface {
	Type() string

	Payload() []byte

	Ack() error

	Nack() error

	Reject() error
}

// AnalyticsEvent is one relayed exchange and how long it took.
type AnalyticsEvent struct {
	ConversationID string    `json:"conversation_id"`
	SessionID      string    `json:"session_id"`
	Email          string    `json:"email"`
	Message        string    `json:"message"`
	Response       string    `json:"response"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	Provider       string    `json:"provider"`
	Model          string    `json:"model"`
	Fallback       bool      `json:"fallback"`
	CreatedAt      time.Time `json:"created_at"`
}

type Publisher interface {
	PublishAnalytics(ctx context.Context, event AnalyticsEvent) error

	Close()
}

type Receiver interface {
	Tasks() <-chan Task

	Close()
}
