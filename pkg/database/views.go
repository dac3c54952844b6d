package database

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

const (
	ViewRealtimeDashboard   = "mv_realtime_dashboard"
	ViewUserEngagement      = "mv_user_engagement"
	ViewConversationMetrics = "mv_conversation_metrics"
)

// Views lists the dashboard views in dependency order.
var Views = []string{ViewRealtimeDashboard, ViewUserEngagement, ViewConversationMetrics}

// dialect holds the few SQL fragments that differ between databases.
type dialect struct {
	materialized bool
	today        func(col string) string
	minutes      func(from, to string) string
	float        func(expr string) string
}

func dialectFor(db *gorm.DB) dialect {
	switch db.Dialector.Name() {
	case "postgres":
		return dialect{
			materialized: true,
			today:        func(col string) string { return fmt.Sprintf("CAST(%s AS DATE) = CURRENT_DATE", col) },
			minutes: func(from, to string) string {
				return fmt.Sprintf("EXTRACT(EPOCH FROM (%s - %s)) / 60.0", to, from)
			},
			float: func(expr string) string { return fmt.Sprintf("CAST(%s AS DOUBLE PRECISION)", expr) },
		}
	case "mysql":
		return dialect{
			today: func(col string) string { return fmt.Sprintf("DATE(%s) = CURDATE()", col) },
			minutes: func(from, to string) string {
				return fmt.Sprintf("TIMESTAMPDIFF(SECOND, %s, %s) / 60.0", from, to)
			},
			float: func(expr string) string { return fmt.Sprintf("(%s + 0.0)", expr) },
		}
	default:
		return dialect{
			today: func(col string) string { return fmt.Sprintf("date(%s) = date('now')", col) },
			minutes: func(from, to string) string {
				return fmt.Sprintf("(julianday(%s) - julianday(%s)) * 1440.0", to, from)
			},
			float: func(expr string) string { return fmt.Sprintf("CAST(%s AS REAL)", expr) },
		}
	}
}

const (
	positiveCase = "CASE WHEN is_positive THEN 1 ELSE 0 END"
	negativeCase = "CASE WHEN is_positive THEN 0 ELSE 1 END"
	// a conversation converts once the visitor got an answer beyond the welcome message
	convertedConversations = "SELECT conversation_id FROM messages GROUP BY conversation_id HAVING COUNT(*) > 2"
)

func (d dialect) feedbackColumns() string {
	return fmt.Sprintf(`(SELECT COUNT(*) FROM feedback) AS total_feedback,
  COALESCE((SELECT SUM(%s) FROM feedback), 0) AS positive_feedback,
  COALESCE((SELECT SUM(%s) FROM feedback), 0) AS negative_feedback,
  COALESCE((SELECT %s FROM feedback), 0) AS satisfaction_rate`,
		positiveCase, negativeCase,
		d.float(fmt.Sprintf("100.0 * SUM(%s) / NULLIF(COUNT(*), 0)", positiveCase)))
}

func (d dialect) realtimeDashboardSQL() string {
	return fmt.Sprintf(`SELECT
  (SELECT COUNT(DISTINCT email) FROM conversations) AS total_unique_users,
  (SELECT COUNT(*) FROM conversations) AS total_conversations,
  (SELECT COUNT(*) FROM messages) AS total_messages,
  (SELECT COUNT(*) FROM (SELECT email FROM conversations GROUP BY email HAVING %s) new_users) AS today_new_users,
  (SELECT COUNT(*) FROM conversations WHERE %s) AS today_conversations,
  (SELECT COUNT(*) FROM messages WHERE %s) AS today_messages,
  %s,
  COALESCE((SELECT %s FROM analytics), 0) AS avg_response_time_ms,
  COALESCE((SELECT %s FROM analytics WHERE %s), 0) AS today_avg_response_time_ms,
  (SELECT COUNT(*) FROM (%s) converted) AS converted_conversations,
  COALESCE(%s, 0) AS conversion_rate`,
		d.today("MIN(created_at)"),
		d.today("created_at"),
		d.today("created_at"),
		d.feedbackColumns(),
		d.float("AVG(response_time_ms)"),
		d.float("AVG(response_time_ms)"), d.today("created_at"),
		convertedConversations,
		d.float(fmt.Sprintf("100.0 * (SELECT COUNT(*) FROM (%s) converted) / NULLIF((SELECT COUNT(*) FROM conversations), 0)", convertedConversations)),
	)
}

func (d dialect) userEngagementSQL() string {
	return fmt.Sprintf(`SELECT
  (SELECT COUNT(*) FROM conversations) AS total_conversations,
  (SELECT COUNT(DISTINCT email) FROM conversations) AS total_users,
  (SELECT COUNT(*) FROM messages) AS total_messages,
  COALESCE((SELECT %s FROM analytics), 0) AS avg_response_time_ms,
  COALESCE((SELECT SUM(%s) FROM feedback), 0) AS positive_feedback,
  COALESCE((SELECT SUM(%s) FROM feedback), 0) AS negative_feedback,
  COALESCE((SELECT %s FROM feedback), 0) AS satisfaction_rate`,
		d.float("AVG(response_time_ms)"),
		positiveCase, negativeCase,
		d.float(fmt.Sprintf("100.0 * SUM(%s) / NULLIF(COUNT(*), 0)", positiveCase)),
	)
}

func (d dialect) conversationMetricsSQL() string {
	return fmt.Sprintf(`SELECT
  c.id AS conversation_id,
  c.email AS email,
  c.session_id AS session_id,
  COALESCE(MAX(m.created_at), c.created_at) AS last_activity,
  COALESCE(%s, 0) AS conversation_duration_minutes,
  COUNT(m.id) AS message_count,
  COALESCE(SUM(CASE WHEN m.role = 'user' THEN 1 ELSE 0 END), 0) AS user_messages,
  COALESCE(SUM(CASE WHEN m.role = 'assistant' THEN 1 ELSE 0 END), 0) AS assistant_messages,
  (SELECT %s FROM analytics a WHERE a.conversation_id = c.id) AS avg_response_time_ms,
  (SELECT CASE WHEN f.is_positive THEN 'positive' ELSE 'negative' END
     FROM feedback f WHERE f.conversation_id = c.id
     ORDER BY f.created_at DESC LIMIT 1) AS feedback_status
FROM conversations c
LEFT JOIN messages m ON m.conversation_id = c.id
GROUP BY c.id, c.email, c.session_id, c.created_at`,
		d.float(d.minutes("MIN(m.created_at)", "MAX(m.created_at)")),
		d.float("AVG(a.response_time_ms)"),
	)
}

func (d dialect) viewSQL(name string) string {
	switch name {
	case ViewRealtimeDashboard:
		return d.realtimeDashboardSQL()
	case ViewUserEngagement:
		return d.userEngagementSQL()
	default:
		return d.conversationMetricsSQL()
	}
}

func (d dialect) kind() string {
	if d.materialized {
		return "MATERIALIZED VIEW"
	}
	return "VIEW"
}

// CreateViews (re)creates the dashboard views. On PostgreSQL they are
// materialized; elsewhere they are plain views with the same columns.
func CreateViews(db *gorm.DB) error {
	if err := DropViews(db); err != nil {
		return err
	}
	d := dialectFor(db)
	for _, name := range Views {
		stmt := fmt.Sprintf("CREATE %s %s AS\n%s", d.kind(), name, d.viewSQL(name))
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("error creating view %s: %w", name, err)
		}
	}
	if d.materialized {
		stmt := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s_conversation_id_idx ON %s (conversation_id)",
			ViewConversationMetrics, ViewConversationMetrics)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("error indexing view %s: %w", ViewConversationMetrics, err)
		}
	}
	return nil
}

func DropViews(db *gorm.DB) error {
	d := dialectFor(db)
	for i := len(Views) - 1; i >= 0; i-- {
		if err := db.Exec(fmt.Sprintf("DROP %s IF EXISTS %s", d.kind(), Views[i])).Error; err != nil {
			return fmt.Errorf("error dropping view %s: %w", Views[i], err)
		}
	}
	return nil
}

// RefreshViews recomputes materialized views. Plain views are always
// current, so this is a no-op outside PostgreSQL.
func RefreshViews(ctx context.Context, db *gorm.DB) error {
	if !dialectFor(db).materialized {
		return nil
	}
	var failed []string
	for _, name := range Views {
		if err := db.WithContext(ctx).Exec("REFRESH MATERIALIZED VIEW " + name).Error; err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", name, err))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("error refreshing views: %s", strings.Join(failed, "; "))
	}
	return nil
}
