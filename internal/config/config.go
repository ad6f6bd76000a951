package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	// Text oracle (LLM) configuration
	OpenAIAPIKey  string
	OpenAIModel   string
	GeminiAPIKey  string
	GeminiModel   string
	OracleTimeout time.Duration

	// Dialogue configuration
	TurnBudget     int
	SessionTTL     time.Duration
	UseMemoryStore bool

	// Scheduling configuration
	GoogleCalendarID      string
	GoogleCredentialsJSON string
	SlotDurationMinutes   int
	SlotSearchWindowHours int
	SchedulerTimeout      time.Duration

	// Redis session store
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// SendGrid staff notification
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SupportTeamEmail  string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OracleTimeout: getEnvAsDuration("ORACLE_TIMEOUT", 15*time.Second),

		TurnBudget:     getEnvAsInt("TURN_BUDGET", 10),
		SessionTTL:     getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		UseMemoryStore: getEnvAsBool("USE_MEMORY_STORE", false),

		GoogleCalendarID:      getEnv("GOOGLE_CALENDAR_ID", "primary"),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),
		SlotDurationMinutes:   getEnvAsInt("SLOT_DURATION_MINUTES", 15),
		SlotSearchWindowHours: getEnvAsInt("SLOT_SEARCH_WINDOW_HOURS", 2),
		SchedulerTimeout:      getEnvAsDuration("SCHEDULER_TIMEOUT", 15*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "FirstTier Support"),
		SupportTeamEmail:  getEnv("SUPPORT_TEAM_EMAIL", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
