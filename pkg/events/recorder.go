package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"SupportChat/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Recorder writes analytics events to the analytics table.
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record inserts a single event.
func (r *Recorder) Record(ctx context.Context, ev AnalyticsEvent) error {
	meta, err := json.Marshal(map[string]any{
		"provider": ev.Provider,
		"model":    ev.Model,
		"fallback": ev.Fallback,
	})
	if err != nil {
		return fmt.Errorf("error encoding analytics metadata: %w", err)
	}
	if ev.ResponseTimeMs < 0 {
		ev.ResponseTimeMs = 0
	}
	row := models.Analytics{
		ConversationID: ev.ConversationID,
		SessionID:      ev.SessionID,
		Email:          ev.Email,
		Message:        ev.Message,
		Response:       ev.Response,
		ResponseTimeMs: ev.ResponseTimeMs,
		Metadata:       datatypes.JSON(meta),
		CreatedAt:      ev.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("error inserting analytics: %w", err)
	}
	return nil
}

// Run consumes tasks until the receiver closes its channel or ctx is done.
func (r *Recorder) Run(ctx context.Context, recv Receiver) {
	tasks := recv.Tasks()
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-tasks:
			if !ok {
				return
			}
			r.handle(ctx, task)
		}
	}
}

// Start runs the recorder in its own goroutine. The returned channel is
// closed when it stops.
func (r *Recorder) Start(ctx context.Context, recv Receiver) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx, recv)
	}()
	return done
}

func (r *Recorder) handle(ctx context.Context, task Task) {
	var ev AnalyticsEvent
	if err := json.Unmarshal(task.Payload(), &ev); err != nil {
		log.Printf("[analytics] dropping malformed %s payload: %v", task.Type(), err)
		if err := task.Reject(); err != nil {
			log.Printf("[analytics] error rejecting task: %v", err)
		}
		return
	}
	if err := r.Record(ctx, ev); err != nil {
		log.Printf("[analytics] %v", err)
		if err := task.Nack(); err != nil {
			log.Printf("[analytics] error nacking task: %v", err)
		}
		return
	}
	if err := task.Ack(); err != nil {
		log.Printf("[analytics] error acking task: %v", err)
	}
}
