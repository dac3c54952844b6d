package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const DefaultAssistantPrompt = "You are a helpful assistant. Answer the following question in short."

// Settings mirrors the environment. Load copies it into the package
// variables below, which the rest of the app reads directly.
type Settings struct {
	AppEnv string `env:"APP_ENV" envDefault:"staging"`
	Port   string `env:"PORT" envDefault:"3000"`

	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabaseURL    string `env:"DATABASE_URL" envDefault:"app.db"`

	AssistantProvider  string `env:"ASSISTANT_PROVIDER" envDefault:"gemini"`
	IsAssistantEnabled bool   `env:"IS_ASSISTANT_ENABLED" envDefault:"true"`
	AssistantPrompt    string `env:"ASSISTANT_PROMPT"`
	GeminiAPIKey       string `env:"GEMINI_API_KEY"`
	GeminiModel        string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	GeminiBaseURL      string `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	OpenAIAPIKey       string `env:"OPENAI_API_KEY"`
	OpenAIModel        string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIBaseURL      string `env:"OPENAI_BASE_URL"`

	RelayTimeoutSeconds int  `env:"RELAY_TIMEOUT_SECONDS" envDefault:"30"`
	HistoryLimit        int  `env:"HISTORY_LIMIT" envDefault:"6"`
	RelayPersistReplies bool `env:"RELAY_PERSIST_REPLIES" envDefault:"false"`

	RateLimitWindowSeconds  int `env:"RATE_LIMIT_WINDOW_SECONDS" envDefault:"10"`
	RateLimitCapacity       int `env:"RATE_LIMIT_CAPACITY" envDefault:"5"`
	SessionConcurrencyLimit int `env:"SESSION_CONCURRENCY_LIMIT" envDefault:"2"`
	DuplicateWindowSeconds  int `env:"DUPLICATE_WINDOW_SECONDS" envDefault:"10"`

	DashboardCacheTTLSeconds int  `env:"DASHBOARD_CACHE_TTL_SECONDS" envDefault:"30"`
	DashboardCacheMaxItems   int  `env:"DASHBOARD_CACHE_MAX_ITEMS" envDefault:"200"`
	ViewRefreshSeconds       int  `env:"VIEW_REFRESH_SECONDS" envDefault:"60"`
	DashboardAuth            bool `env:"DASHBOARD_AUTH" envDefault:"false"`

	AnalyticsAMQPURL string `env:"ANALYTICS_AMQP_URL"`

	JWTSecret   string   `env:"JWT_SECRET_KEY"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	StaticDir   string   `env:"STATIC_DIR" envDefault:"./web"`
}

// Defaults apply until Load is called.
var (
	AppEnv       = "staging"
	IsStaging    = true
	IsProduction = false

	Port = "3000"

	DatabaseDriver = "sqlite"
	DatabaseURL    = "app.db"

	AssistantProvider  = "gemini"
	IsAssistantEnabled = true
	AssistantPrompt    = DefaultAssistantPrompt
	GeminiAPIKey       string
	GeminiModel        = "gemini-2.0-flash"
	GeminiBaseURL      = "https://generativelanguage.googleapis.com"
	OpenAIAPIKey       string
	OpenAIModel        = "gpt-4o-mini"
	OpenAIBaseURL      string

	RelayTimeoutSeconds = 30
	HistoryLimit        = 6
	RelayPersistReplies = false

	RateLimitWindowSeconds  = 10
	RateLimitCapacity       = 5
	SessionConcurrencyLimit = 2
	DuplicateWindowSeconds  = 10

	DashboardCacheTTLSeconds = 30
	DashboardCacheMaxItems   = 200
	ViewRefreshSeconds       = 60
	DashboardAuth            = false

	AnalyticsAMQPURL string

	JWTSecret   string
	CORSOrigins = []string{"*"}
	StaticDir   = "./web"
)

// loadAppEnv loads .env unless APP_ENV is production.
func loadAppEnv() {
	if os.Getenv("APP_ENV") == "production" {
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Println("[config] no .env file found, continuing with environment variables")
	}
}

// Load reads the environment into the package variables.
func Load() error {
	loadAppEnv()

	var s Settings
	if err := env.Parse(&s); err != nil {
		return fmt.Errorf("error parsing config: %w", err)
	}
	if err := Apply(s); err != nil {
		return err
	}

	log.Printf("[config] AppEnv=%s IsStaging=%v IsProduction=%v", AppEnv, IsStaging, IsProduction)
	log.Printf("[config] Database driver=%s", DatabaseDriver)
	log.Printf("[config] Assistant provider=%s enabled=%v GeminiAPIKeyPresent=%v OpenAIAPIKeyPresent=%v",
		AssistantProvider, IsAssistantEnabled, GeminiAPIKey != "", OpenAIAPIKey != "")
	log.Printf("[config] Relay timeout=%ds history=%d persistReplies=%v", RelayTimeoutSeconds, HistoryLimit, RelayPersistReplies)
	log.Printf("[config] RateLimit window=%ds capacity=%d sessionConc=%d dupWindow=%ds",
		RateLimitWindowSeconds, RateLimitCapacity, SessionConcurrencyLimit, DuplicateWindowSeconds)
	log.Printf("[config] Dashboard auth=%v cacheTTL=%ds cacheMax=%d viewRefresh=%ds",
		DashboardAuth, DashboardCacheTTLSeconds, DashboardCacheMaxItems, ViewRefreshSeconds)
	if JWTSecret == "" {
		log.Println("[config] JWT_SECRET_KEY is not set, operator login is disabled")
	}
	return nil
}

// Apply validates s and copies it into the package variables.
func Apply(s Settings) error {
	s.AppEnv = strings.ToLower(strings.TrimSpace(s.AppEnv))
	if !slices.Contains([]string{"staging", "production"}, s.AppEnv) {
		return errors.New("environment variable APP_ENV must be 'staging' or 'production'")
	}
	provider := strings.ToLower(strings.TrimSpace(s.AssistantProvider))
	if !slices.Contains([]string{"gemini", "openai", "local"}, provider) {
		return fmt.Errorf("unsupported ASSISTANT_PROVIDER %q", s.AssistantProvider)
	}

	AppEnv = s.AppEnv
	IsStaging = AppEnv == "staging"
	IsProduction = AppEnv == "production"
	Port = s.Port

	DatabaseDriver = strings.ToLower(strings.TrimSpace(s.DatabaseDriver))
	DatabaseURL = s.DatabaseURL

	AssistantProvider = provider
	IsAssistantEnabled = s.IsAssistantEnabled
	AssistantPrompt = s.AssistantPrompt
	if strings.TrimSpace(AssistantPrompt) == "" {
		AssistantPrompt = DefaultAssistantPrompt
	}
	GeminiAPIKey = s.GeminiAPIKey
	GeminiModel = s.GeminiModel
	GeminiBaseURL = strings.TrimRight(s.GeminiBaseURL, "/")
	OpenAIAPIKey = s.OpenAIAPIKey
	OpenAIModel = s.OpenAIModel
	OpenAIBaseURL = s.OpenAIBaseURL

	RelayTimeoutSeconds = positiveOr(s.RelayTimeoutSeconds, 30)
	HistoryLimit = s.HistoryLimit
	RelayPersistReplies = s.RelayPersistReplies

	RateLimitWindowSeconds = positiveOr(s.RateLimitWindowSeconds, 10)
	RateLimitCapacity = positiveOr(s.RateLimitCapacity, 5)
	SessionConcurrencyLimit = positiveOr(s.SessionConcurrencyLimit, 2)
	DuplicateWindowSeconds = s.DuplicateWindowSeconds

	DashboardCacheTTLSeconds = s.DashboardCacheTTLSeconds
	DashboardCacheMaxItems = s.DashboardCacheMaxItems
	ViewRefreshSeconds = s.ViewRefreshSeconds
	// production always requires an operator login
	DashboardAuth = s.DashboardAuth || IsProduction

	AnalyticsAMQPURL = s.AnalyticsAMQPURL
	JWTSecret = s.JWTSecret
	CORSOrigins = s.CORSOrigins
	if len(CORSOrigins) == 0 {
		CORSOrigins = []string{"*"}
	}
	StaticDir = s.StaticDir

	if DashboardAuth && JWTSecret == "" {
		return errors.New("JWT_SECRET_KEY must be set when dashboard auth is enabled")
	}
	return nil
}

func positiveOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
