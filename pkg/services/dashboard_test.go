package services

import (
	"context"
	"testing"
	"time"

	"SupportChat/models"
	"SupportChat/pkg/cache"
	"SupportChat/pkg/database/dbtest"
	"SupportChat/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type seeded struct {
	first, second *models.Conversation
}

// seed builds two conversations: the first converted with positive
// feedback, the second only holding its welcome message.
func seed(t *testing.T, db *gorm.DB) seeded {
	t.Helper()
	ctx := context.Background()
	store := NewConversationStore(db)

	first, _, err := store.Open(ctx, "first@example.com", "sess-first")
	require.NoError(t, err)
	second, _, err := store.Open(ctx, "second@example.com", "sess-second")
	require.NoError(t, err)

	_, err = store.AddMessage(ctx, first.ID, "sess-first", models.RoleUser, "Do you ship abroad?")
	require.NoError(t, err)
	_, err = store.AddMessage(ctx, first.ID, "sess-first", models.RoleAssistant, "Yes, to most countries.")
	require.NoError(t, err)

	_, err = store.AddFeedback(ctx, first.ID, "sess-first", true)
	require.NoError(t, err)
	_, err = store.AddFeedback(ctx, second.ID, "sess-second", false)
	require.NoError(t, err)

	rec := events.NewRecorder(db)
	require.NoError(t, rec.Record(ctx, events.AnalyticsEvent{ConversationID: first.ID, ResponseTimeMs: 100, CreatedAt: time.Now()}))
	require.NoError(t, rec.Record(ctx, events.AnalyticsEvent{ConversationID: first.ID, ResponseTimeMs: 300, CreatedAt: time.Now()}))

	return seeded{first: first, second: second}
}

func TestDashboardMetrics(t *testing.T) {
	db := dbtest.New(t)
	seed(t, db)
	svc := NewDashboardService(db, nil, 0)

	m, err := svc.Metrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), m.TotalUniqueUsers)
	assert.Equal(t, int64(2), m.TotalConversations)
	assert.Equal(t, int64(4), m.TotalMessages)
	assert.Equal(t, int64(2), m.TodayNewUsers)
	assert.Equal(t, int64(2), m.TodayConversations)
	assert.Equal(t, int64(4), m.TodayMessages)
	assert.Equal(t, int64(2), m.TotalFeedback)
	assert.Equal(t, int64(1), m.PositiveFeedback)
	assert.Equal(t, int64(1), m.NegativeFeedback)
	assert.InDelta(t, 50.0, m.SatisfactionRate, 0.001)
	assert.InDelta(t, 200.0, m.AvgResponseTimeMs, 0.001)
	assert.InDelta(t, 200.0, m.TodayAvgResponseTimeMs, 0.001)
	assert.Equal(t, int64(1), m.ConvertedConversations)
	assert.InDelta(t, 50.0, m.ConversionRate, 0.001)
	assert.Equal(t, "200ms", m.AvgResponseTimeDisplay)
}

func TestDashboardMetricsEmptyDatabase(t *testing.T) {
	svc := NewDashboardService(dbtest.New(t), nil, 0)

	m, err := svc.Metrics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, m.TotalConversations)
	assert.Zero(t, m.SatisfactionRate)
	assert.Zero(t, m.ConversionRate)
	assert.Equal(t, "0ms", m.AvgResponseTimeDisplay)

	e, err := svc.Engagement(context.Background())
	require.NoError(t, err)
	assert.Zero(t, e.MessagesPerUser)
	assert.Zero(t, e.ConversationsPerUser)
}

func TestDashboardEngagement(t *testing.T) {
	db := dbtest.New(t)
	seed(t, db)
	svc := NewDashboardService(db, nil, 0)

	e, err := svc.Engagement(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), e.TotalUsers)
	assert.Equal(t, int64(2), e.TotalConversations)
	assert.Equal(t, int64(4), e.TotalMessages)
	assert.InDelta(t, 2.0, e.MessagesPerUser, 0.001)
	assert.InDelta(t, 1.0, e.ConversationsPerUser, 0.001)
	assert.InDelta(t, 50.0, e.SatisfactionRate, 0.001)
}

func TestDashboardConversationsOrderAndFilter(t *testing.T) {
	db := dbtest.New(t)
	s := seed(t, db)
	svc := NewDashboardService(db, nil, 0)
	ctx := context.Background()

	rows, err := svc.Conversations(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, s.first.ID, rows[0].ConversationID, "most recent activity first")
	assert.Equal(t, s.second.ID, rows[1].ConversationID)

	first := rows[0]
	require.NotNil(t, first.MessageCount)
	assert.Equal(t, int64(3), *first.MessageCount)
	assert.Equal(t, int64(1), *first.UserMessages)
	assert.Equal(t, int64(2), *first.AssistantMessages)
	require.NotNil(t, first.FeedbackStatus)
	assert.Equal(t, "positive", *first.FeedbackStatus)
	require.NotNil(t, first.IsActive)
	assert.True(t, *first.IsActive)
	assert.Equal(t, "200ms", first.AvgResponseTimeDisplay)
	assert.True(t, first.LastActivity.Valid)

	assert.Nil(t, rows[1].AvgResponseTimeMs)

	byEmail, err := svc.Conversations(ctx, "SECOND@")
	require.NoError(t, err)
	require.Len(t, byEmail, 1)
	assert.Equal(t, s.second.ID, byEmail[0].ConversationID)

	bySession, err := svc.Conversations(ctx, "sess-first")
	require.NoError(t, err)
	require.Len(t, bySession, 1)
	assert.Equal(t, s.first.ID, bySession[0].ConversationID)

	byID, err := svc.Conversations(ctx, s.second.ID[:8])
	require.NoError(t, err)
	require.NotEmpty(t, byID)
	assert.Equal(t, s.second.ID, byID[0].ConversationID)

	none, err := svc.Conversations(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDashboardConversationDetail(t *testing.T) {
	db := dbtest.New(t)
	s := seed(t, db)
	svc := NewDashboardService(db, nil, 0)

	detail, err := svc.Conversation(context.Background(), s.first.ID)
	require.NoError(t, err)
	assert.Equal(t, s.first.ID, detail.Conversation.ID)
	require.Len(t, detail.Messages, 3)
	assert.Equal(t, WelcomeMessage, detail.Messages[0].Content)
	require.NotNil(t, detail.Metrics)
	assert.Equal(t, int64(3), *detail.Metrics.MessageCount)

	_, err = svc.Conversation(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestDashboardReadsAreCached(t *testing.T) {
	db := dbtest.New(t)
	seed(t, db)
	svc := NewDashboardService(db, cache.New(10), time.Minute)
	ctx := context.Background()

	before, err := svc.Metrics(ctx)
	require.NoError(t, err)

	_, _, err = NewConversationStore(db).Open(ctx, "third@example.com", "sess-third")
	require.NoError(t, err)

	cached, err := svc.Metrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.TotalConversations, cached.TotalConversations)

	require.NoError(t, svc.Refresh(ctx))
	fresh, err := svc.Metrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.TotalConversations+1, fresh.TotalConversations)
}
