package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"SupportChat/models"
	"SupportChat/pkg/cache"
	"SupportChat/pkg/database"
	utils "SupportChat/pkg/utills"

	"gorm.io/gorm"
)

const (
	cacheKeyMetrics       = "dashboard:metrics"
	cacheKeyEngagement    = "dashboard:engagement"
	cacheKeyConversations = "dashboard:conversations"
)

type MetricsView struct {
	models.RealtimeDashboard
	AvgResponseTimeDisplay      string `json:"avg_response_time_display"`
	TodayAvgResponseTimeDisplay string `json:"today_avg_response_time_display"`
}

type EngagementView struct {
	models.UserEngagement
	MessagesPerUser        float64 `json:"messages_per_user"`
	ConversationsPerUser   float64 `json:"conversations_per_user"`
	AvgResponseTimeDisplay string  `json:"avg_response_time_display"`
}

// ConversationRow is a metrics row merged with its conversation.
type ConversationRow struct {
	models.ConversationMetrics
	IsActive               *bool  `json:"is_active"`
	AvgResponseTimeDisplay string `json:"avg_response_time_display,omitempty"`
}

type ConversationDetail struct {
	Conversation models.Conversation `json:"conversation"`
	Messages     []models.Message    `json:"messages"`
	Metrics      *ConversationRow    `json:"metrics"`
}

// DashboardService reads the aggregate views, caching each read for ttl.
type DashboardService struct {
	db    *gorm.DB
	cache *cache.Cache
	ttl   time.Duration
}

func NewDashboardService(db *gorm.DB, c *cache.Cache, ttl time.Duration) *DashboardService {
	return &DashboardService{db: db, cache: c, ttl: ttl}
}

func (s *DashboardService) Metrics(ctx context.Context) (*MetricsView, error) {
	v, err := s.cache.GetOrLoad(cacheKeyMetrics, s.ttl, func() (any, error) {
		var row models.RealtimeDashboard
		if err := s.takeSingleRow(ctx, &row); err != nil {
			return nil, err
		}
		return &MetricsView{
			RealtimeDashboard:           row,
			AvgResponseTimeDisplay:      utils.FormatResponseTime(row.AvgResponseTimeMs),
			TodayAvgResponseTimeDisplay: utils.FormatResponseTime(row.TodayAvgResponseTimeMs),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*MetricsView), nil
}

func (s *DashboardService) Engagement(ctx context.Context) (*EngagementView, error) {
	v, err := s.cache.GetOrLoad(cacheKeyEngagement, s.ttl, func() (any, error) {
		var row models.UserEngagement
		if err := s.takeSingleRow(ctx, &row); err != nil {
			return nil, err
		}
		view := &EngagementView{
			UserEngagement:         row,
			AvgResponseTimeDisplay: utils.FormatResponseTime(row.AvgResponseTimeMs),
		}
		if row.TotalUsers > 0 {
			view.MessagesPerUser = float64(row.TotalMessages) / float64(row.TotalUsers)
			view.ConversationsPerUser = float64(row.TotalConversations) / float64(row.TotalUsers)
		}
		return view, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*EngagementView), nil
}

// Conversations lists metrics rows by last activity, newest first. A
// non-empty q keeps rows whose email, conversation id or session id
// contains it, ignoring case.
func (s *DashboardService) Conversations(ctx context.Context, q string) ([]ConversationRow, error) {
	v, err := s.cache.GetOrLoad(cacheKeyConversations, s.ttl, func() (any, error) {
		return s.loadConversationRows(ctx)
	})
	if err != nil {
		return nil, err
	}
	all := v.([]ConversationRow)

	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]ConversationRow, 0, len(all))
	for _, row := range all {
		if q == "" || row.matches(q) {
			out = append(out, row)
		}
	}
	return out, nil
}

// Conversation returns one conversation with its messages and metrics.
func (s *DashboardService) Conversation(ctx context.Context, id string) (*ConversationDetail, error) {
	v, err := s.cache.GetOrLoad(cache.KeyFromStrings("dashboard:conversation", id), s.ttl, func() (any, error) {
		store := NewConversationStore(s.db)
		conv, err := store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		msgs, err := store.Messages(ctx, id)
		if err != nil {
			return nil, err
		}
		var metrics []models.ConversationMetrics
		if err := s.db.WithContext(ctx).Where("conversation_id = ?", id).Limit(1).Find(&metrics).Error; err != nil {
			return nil, fmt.Errorf("error loading conversation metrics: %w", err)
		}
		detail := &ConversationDetail{Conversation: *conv, Messages: msgs}
		if len(metrics) > 0 {
			row := mergeConversation(metrics[0], conv)
			detail.Metrics = &row
		}
		return detail, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ConversationDetail), nil
}

// Refresh recomputes the materialized views and drops cached reads.
func (s *DashboardService) Refresh(ctx context.Context) error {
	if err := database.RefreshViews(ctx, s.db); err != nil {
		return err
	}
	s.cache.Purge()
	return nil
}

func (s *DashboardService) takeSingleRow(ctx context.Context, dest any) error {
	err := s.db.WithContext(ctx).Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error reading dashboard view: %w", err)
	}
	return nil
}

func (s *DashboardService) loadConversationRows(ctx context.Context) ([]ConversationRow, error) {
	var metrics []models.ConversationMetrics
	if err := s.db.WithContext(ctx).Order("last_activity DESC").Find(&metrics).Error; err != nil {
		return nil, fmt.Errorf("error loading conversation metrics: %w", err)
	}

	ids := make([]string, 0, len(metrics))
	for _, m := range metrics {
		ids = append(ids, m.ConversationID)
	}
	byID := make(map[string]*models.Conversation, len(ids))
	if len(ids) > 0 {
		var convs []models.Conversation
		if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&convs).Error; err != nil {
			return nil, fmt.Errorf("error loading conversations: %w", err)
		}
		for i := range convs {
			byID[convs[i].ID] = &convs[i]
		}
	}

	rows := make([]ConversationRow, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, mergeConversation(m, byID[m.ConversationID]))
	}
	return rows, nil
}

func mergeConversation(m models.ConversationMetrics, conv *models.Conversation) ConversationRow {
	row := ConversationRow{ConversationMetrics: m}
	if conv != nil {
		email, session, active := conv.Email, conv.SessionID, conv.IsActive
		row.Email, row.SessionID, row.IsActive = &email, &session, &active
	}
	if m.AvgResponseTimeMs != nil {
		row.AvgResponseTimeDisplay = utils.FormatResponseTime(*m.AvgResponseTimeMs)
	}
	return row
}

func (r ConversationRow) matches(q string) bool {
	fields := []string{r.ConversationID}
	if r.Email != nil {
		fields = append(fields, *r.Email)
	}
	if r.SessionID != nil {
		fields = append(fields, *r.SessionID)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
