package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"SupportChat/middleware"
	"SupportChat/pkg/cache"
	"SupportChat/pkg/config"
	"SupportChat/pkg/database"
	"SupportChat/pkg/events"
	svc "SupportChat/pkg/services"
	"SupportChat/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const analyticsQueueSize = 1024

func main() {
	if err := config.Load(); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if config.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(config.DatabaseDriver, config.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed migrate: %v", err)
	}

	middleware.ConfigureFromSettings()
	cache.SetMaxItems(config.DashboardCacheMaxItems)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	publisher, recorderDone := startAnalytics(ctx, db)
	database.StartViewRefresher(ctx, db, time.Duration(config.ViewRefreshSeconds)*time.Second)

	relay := svc.NewRelay(db, svc.NewAssistant(), publisher)
	dash := svc.NewDashboardService(db, cache.Default(), time.Duration(config.DashboardCacheTTLSeconds)*time.Second)

	r := gin.Default()
	r.Use(cors.New(corsConfig(config.CORSOrigins)))
	routes.RegisterRoutes(r, db, relay, dash)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[server] listening on :%s", config.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[server] forced shutdown: %v", err)
	}
	publisher.Close()
	select {
	case <-recorderDone:
	case <-shutdownCtx.Done():
		log.Println("[analytics] recorder did not stop in time")
	}
}

// startAnalytics wires the relay's publisher to a recorder. Without a
// broker both ends share an in-memory queue.
func startAnalytics(ctx context.Context, db *gorm.DB) (events.Publisher, <-chan struct{}) {
	recorder := events.NewRecorder(db)
	if config.AnalyticsAMQPURL != "" {
		pub, err := events.NewRabbitMQPublisher(config.AnalyticsAMQPURL)
		if err == nil {
			recv, rerr := events.NewRabbitMQReceiver(config.AnalyticsAMQPURL)
			if rerr != nil {
				log.Printf("[analytics] no in-process consumer, run chatctl analytics-worker: %v", rerr)
				done := make(chan struct{})
				close(done)
				return pub, done
			}
			go func() {
				<-ctx.Done()
				recv.Close()
			}()
			log.Printf("[analytics] publishing to RabbitMQ queue %s", events.AnalyticsQueue)
			return pub, recorder.Start(ctx, recv)
		}
		log.Printf("[analytics] RabbitMQ unavailable, falling back to in-memory queue: %v", err)
	}
	queue := events.NewInMemoryQueue(analyticsQueueSize)
	// the recorder stops once the queue is closed and drained
	return queue, recorder.Start(context.WithoutCancel(ctx), queue)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-Session-ID"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
