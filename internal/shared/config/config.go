package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// postgres://..., user:pass@tcp(host:3306)/db (parseTime=true is added
	// when missing) or a SQLite path
	DatabaseURL      string
	WhatsAppStoreURL string
	Port             string
	Env              string
	LogLevel         string

	// Conversation pipeline
	StaleMessageAfter time.Duration
	ReplyPacing       time.Duration
	TeardownWait      time.Duration
	LLMTimeout        time.Duration
	HistoryLimit      int
	SchedulingKeyword string
	TimeZone          string
	FilterPolicyPath  string

	// Subscription / payment
	MercadoPagoAccessToken    string
	SubscriptionSweepSchedule string
	PublicBaseURL             string

	// Email (welcome message after activation)
	BrevoAPIKey   string
	EmailFrom     string
	EmailFromName string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("⚠️ .env file not found, using system environment variables")
	}

	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		WhatsAppStoreURL: os.Getenv("WHATSAPP_STORE_URL"),
		Port:             os.Getenv("PORT"),
		Env:              os.Getenv("ENV"),
		LogLevel:         os.Getenv("LOG_LEVEL"),

		StaleMessageAfter: envDuration("STALE_MESSAGE_AFTER", 20*time.Second),
		ReplyPacing:       envDuration("REPLY_PACING", 2*time.Second),
		TeardownWait:      envDuration("TEARDOWN_WAIT", 3*time.Second),
		LLMTimeout:        envDuration("LLM_TIMEOUT", 60*time.Second),
		HistoryLimit:      envInt("HISTORY_LIMIT", 6),
		SchedulingKeyword: os.Getenv("SCHEDULING_KEYWORD"),
		TimeZone:          os.Getenv("TIME_ZONE"),
		FilterPolicyPath:  os.Getenv("FILTER_POLICY_PATH"),

		MercadoPagoAccessToken:    os.Getenv("MP_ACCESS_TOKEN"),
		SubscriptionSweepSchedule: os.Getenv("SUBSCRIPTION_SWEEP_SCHEDULE"),
		PublicBaseURL:             os.Getenv("PUBLIC_BASE_URL"),

		BrevoAPIKey:   os.Getenv("BREVO_API_KEY"),
		EmailFrom:     os.Getenv("EMAIL_FROM"),
		EmailFromName: os.Getenv("EMAIL_FROM_NAME"),
	}

	// Default values
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.SchedulingKeyword == "" {
		cfg.SchedulingKeyword = "agendamento"
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = "America/Sao_Paulo"
	}
	if cfg.SubscriptionSweepSchedule == "" {
		// every 30 minutes (seconds field enabled)
		cfg.SubscriptionSweepSchedule = "0 */30 * * * *"
	}
	if cfg.EmailFromName == "" {
		cfg.EmailFromName = "Suporte NexusChat"
	}
	if cfg.TeardownWait > 3*time.Second {
		cfg.TeardownWait = 3 * time.Second
	}

	return cfg
}

// Location resolves the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		log.Warn().Err(err).Str("time_zone", c.TimeZone).Msg("⚠️ Unknown time zone, using UTC")
		return time.UTC
	}
	return loc
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("⚠️ Invalid duration, using default")
		return def
	}
	return d
}

func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("⚠️ Invalid integer, using default")
		return def
	}
	return n
}
