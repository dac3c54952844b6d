package database_test

import (
	"testing"
	"time"

	"SupportChat/models"
	"SupportChat/pkg/database"
	"SupportChat/pkg/database/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedViews(t *testing.T, db *gorm.DB) {
	t.Helper()
	now := time.Now()
	convs := []models.Conversation{
		{ID: "c1", Email: "a@example.com", SessionID: "s1"},
		{ID: "c2", Email: "b@example.com", SessionID: "s2"},
	}
	require.NoError(t, db.Create(&convs).Error)
	msgs := []models.Message{
		{ConversationID: "c1", Role: models.RoleAssistant, Content: "welcome", CreatedAt: now.Add(-10 * time.Minute)},
		{ConversationID: "c1", Role: models.RoleUser, Content: "question", CreatedAt: now.Add(-9 * time.Minute)},
		{ConversationID: "c1", Role: models.RoleAssistant, Content: "answer", CreatedAt: now},
		{ConversationID: "c2", Role: models.RoleAssistant, Content: "welcome", CreatedAt: now},
	}
	require.NoError(t, db.Create(&msgs).Error)
	require.NoError(t, db.Create(&[]models.Analytics{
		{ConversationID: "c1", ResponseTimeMs: 100},
		{ConversationID: "c1", ResponseTimeMs: 300},
	}).Error)
	require.NoError(t, db.Create(&models.Feedback{ConversationID: "c1", IsPositive: true}).Error)
}

func TestViewsOnEmptyDatabase(t *testing.T) {
	db := dbtest.New(t)

	var rt models.RealtimeDashboard
	require.NoError(t, db.Take(&rt).Error)
	assert.Zero(t, rt.TotalConversations)
	assert.Zero(t, rt.SatisfactionRate)
	assert.Zero(t, rt.ConversionRate)

	var ue models.UserEngagement
	require.NoError(t, db.Take(&ue).Error)
	assert.Zero(t, ue.TotalUsers)

	var rows []models.ConversationMetrics
	require.NoError(t, db.Find(&rows).Error)
	assert.Empty(t, rows)
}

func TestRealtimeDashboardView(t *testing.T) {
	db := dbtest.New(t)
	seedViews(t, db)

	var rt models.RealtimeDashboard
	require.NoError(t, db.Take(&rt).Error)
	assert.Equal(t, int64(2), rt.TotalUniqueUsers)
	assert.Equal(t, int64(2), rt.TotalConversations)
	assert.Equal(t, int64(4), rt.TotalMessages)
	assert.Equal(t, int64(2), rt.TodayNewUsers)
	assert.Equal(t, int64(1), rt.TotalFeedback)
	assert.Equal(t, int64(1), rt.PositiveFeedback)
	assert.InDelta(t, 100.0, rt.SatisfactionRate, 0.001)
	assert.InDelta(t, 200.0, rt.AvgResponseTimeMs, 0.001)
	assert.Equal(t, int64(1), rt.ConvertedConversations)
	assert.InDelta(t, 50.0, rt.ConversionRate, 0.001)
}

func TestConversationMetricsView(t *testing.T) {
	db := dbtest.New(t)
	seedViews(t, db)

	var m models.ConversationMetrics
	require.NoError(t, db.Where("conversation_id = ?", "c1").Take(&m).Error)
	require.NotNil(t, m.MessageCount)
	assert.Equal(t, int64(3), *m.MessageCount)
	assert.Equal(t, int64(1), *m.UserMessages)
	assert.Equal(t, int64(2), *m.AssistantMessages)
	require.NotNil(t, m.AvgResponseTimeMs)
	assert.InDelta(t, 200.0, *m.AvgResponseTimeMs, 0.001)
	require.NotNil(t, m.ConversationDurationMinutes)
	assert.InDelta(t, 10.0, *m.ConversationDurationMinutes, 0.1)
	require.NotNil(t, m.FeedbackStatus)
	assert.Equal(t, "positive", *m.FeedbackStatus)

	var other models.ConversationMetrics
	require.NoError(t, db.Where("conversation_id = ?", "c2").Take(&other).Error)
	assert.Nil(t, other.FeedbackStatus)
	assert.Nil(t, other.AvgResponseTimeMs)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := dbtest.New(t)
	require.NoError(t, database.Migrate(db))
	for _, name := range database.Views {
		assert.True(t, viewExists(t, db, name), "missing view %s", name)
	}
}

func TestRefreshViewsNoopOnSQLite(t *testing.T) {
	db := dbtest.New(t)
	assert.NoError(t, database.RefreshViews(t.Context(), db))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := database.Open("oracle", "whatever")
	assert.ErrorContains(t, err, "unsupported database driver")
}

func viewExists(t *testing.T, db *gorm.DB, name string) bool {
	t.Helper()
	var n int64
	require.NoError(t, db.Raw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'view' AND name = ?", name).Scan(&n).Error)
	return n == 1
}
