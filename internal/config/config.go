package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// CORS
	AllowedOrigins []string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Supabase (persistence backend)
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string

	// JWT / Auth
	JWTSecret string
	JWTTTL    time.Duration

	// Admin (local-dev fallback secret; JWT role=admin is the real path)
	AdminSecret string

	// Analytics
	// SpendScope controls whether category spend is summed over the user's
	// full history ("lifetime", the observed legacy behavior) or only the
	// queried month ("period").
	SpendScope string

	// Chatbot (OpenRouter)
	OpenRouterURL    string
	OpenRouterAPIKey string
	ChatModel        string
	AppURL           string

	// Mail (SendGrid)
	SendGridAPIKey string
	FromEmail      string
	ContactInbox   string

	// Payments (Razorpay)
	RazorpayURL       string
	RazorpayKeyID     string
	RazorpayKeySecret string

	// Dev mode
	DevSeed bool // DEV_SEED=true enables POST /api/dev/seed
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 4000),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AllowedOrigins: []string{
			getEnv("WEB_ORIGIN", "http://localhost:3000"),
			getEnv("WEB_ORIGIN_ALT", "http://localhost:3003"),
		},

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),

		JWTSecret: getEnv("JWT_SECRET", "expensio-default-dev-secret-change-me"),
		JWTTTL:    getEnvDuration("JWT_TTL", 7*24*time.Hour),

		AdminSecret: getEnv("ADMIN_SECRET", ""),

		SpendScope: getEnv("SPEND_SCOPE", "lifetime"),

		OpenRouterURL:    getEnv("OPENROUTER_URL", "https://openrouter.ai/api"),
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		ChatModel:        getEnv("CHAT_MODEL", "anthropic/claude-3-haiku"),
		AppURL:           getEnv("APP_URL", "http://localhost:3000"),

		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		FromEmail:      getEnv("FROM_EMAIL", "alerts@expensio.app"),
		ContactInbox:   getEnv("CONTACT_INBOX", "support@expensio.app"),

		RazorpayURL:       getEnv("RAZORPAY_URL", "https://api.razorpay.com"),
		RazorpayKeyID:     getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),

		DevSeed: getEnv("DEV_SEED", "false") == "true",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
