package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"SupportChat/models"
	"SupportChat/pkg/database/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryQueueDropsWhenFull(t *testing.T) {
	q := NewInMemoryQueue(1)
	ctx := context.Background()

	require.NoError(t, q.PublishAnalytics(ctx, AnalyticsEvent{ConversationID: "a"}))
	assert.ErrorIs(t, q.PublishAnalytics(ctx, AnalyticsEvent{ConversationID: "b"}), ErrQueueFull)

	task := <-q.Tasks()
	assert.Equal(t, AnalyticsQueue, task.Type())
	var ev AnalyticsEvent
	require.NoError(t, json.Unmarshal(task.Payload(), &ev))
	assert.Equal(t, "a", ev.ConversationID)

	q.Close()
	q.Close()
	assert.ErrorIs(t, q.PublishAnalytics(ctx, AnalyticsEvent{}), ErrQueueClosed)
	_, ok := <-q.Tasks()
	assert.False(t, ok)
}

func TestRecorderWritesAnalyticsRows(t *testing.T) {
	db := dbtest.New(t)
	q := NewInMemoryQueue(10)
	rec := NewRecorder(db)
	done := rec.Start(context.Background(), q)

	now := time.Now().UTC()
	require.NoError(t, q.PublishAnalytics(context.Background(), AnalyticsEvent{
		ConversationID: "conv-1",
		SessionID:      "sess-1",
		Email:          "visitor@example.com",
		Message:        "Where is my order?",
		Response:       "It ships tomorrow.",
		ResponseTimeMs: 420,
		Provider:       "gemini",
		Model:          "gemini-2.0-flash",
		CreatedAt:      now,
	}))
	require.NoError(t, q.PublishAnalytics(context.Background(), AnalyticsEvent{
		ConversationID: "conv-1",
		ResponseTimeMs: -5,
		CreatedAt:      now,
	}))
	q.Close()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("recorder did not stop after queue closed")
	}

	var rows []models.Analytics
	require.NoError(t, db.Order("response_time_ms DESC").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(420), rows[0].ResponseTimeMs)
	assert.Equal(t, "visitor@example.com", rows[0].Email)
	assert.JSONEq(t, `{"provider":"gemini","model":"gemini-2.0-flash","fallback":false}`, string(rows[0].Metadata))
	assert.Equal(t, int64(0), rows[1].ResponseTimeMs, "negative durations are clamped")
}

type fakeTask struct {
	payload  []byte
	acked    bool
	rejected bool
}

func (t *fakeTask) Type() string    { return AnalyticsQueue }
func (t *fakeTask) Payload() []byte { return t.payload }
func (t *fakeTask) Ack() error      { t.acked = true; return nil }
func (t *fakeTask) Nack() error     { return nil }
func (t *fakeTask) Reject() error   { t.rejected = true; return nil }

func TestRecorderRejectsMalformedPayload(t *testing.T) {
	rec := NewRecorder(dbtest.New(t))

	bad := &fakeTask{payload: []byte("{not json")}
	rec.handle(context.Background(), bad)
	assert.True(t, bad.rejected)
	assert.False(t, bad.acked)

	good, err := json.Marshal(AnalyticsEvent{ConversationID: "conv-2", CreatedAt: time.Now()})
	require.NoError(t, err)
	ok := &fakeTask{payload: good}
	rec.handle(context.Background(), ok)
	assert.True(t, ok.acked)
}
