package database

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"
)

// StartViewRefresher refreshes the materialized views every interval until
// ctx is done. It returns immediately when there is nothing to refresh.
func StartViewRefresher(ctx context.Context, db *gorm.DB, interval time.Duration) {
	if interval <= 0 || !dialectFor(db).materialized {
		return
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				start := time.Now()
				if err := RefreshViews(ctx, db); err != nil {
					log.Printf("[views] refresh failed: %v", err)
					continue
				}
				log.Printf("[views] refreshed in %s", time.Since(start).Round(time.Millisecond))
			}
		}
	}()
}
