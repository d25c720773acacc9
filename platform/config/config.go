// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetHTTPRateLimitPerSec() float64
	GetHTTPRateLimitBurst() int
}

// ChatConfig provides settings for the conversation module.
type ChatConfig interface {
	GetChatHistoryTurns() int
	GetChatMaxMessageLen() int
	GetChatQuotaPerMinute() float64
	GetChatQuotaBurst() int
}

// GeneratorConfig provides settings for the streaming generation backend.
type GeneratorConfig interface {
	GetGeminiAPIKey() string
	GetGeminiModel() string
	IsGeneratorEnabled() bool
}

// GuardConfig provides settings for the duplicate-call guard.
type GuardConfig interface {
	GetGuardWindow() time.Duration
	GetGuardCapacity() int
	GetGuardBackend() string
}

// RealtimeConfig provides settings for the ephemeral session registry.
type RealtimeConfig interface {
	GetRealtimeSessionTTL() time.Duration
	GetRealtimeSweepInterval() time.Duration
	GetRealtimeVoiceEnabled() bool
	GetRealtimeVideoEnabled() bool
}

// LeadConfig provides settings for the lead manager.
type LeadConfig interface {
	GetFollowUpThreshold() int
	GetFollowUpDelay() time.Duration
}

// PlaybookConfig provides the location of the stage playbook file.
type PlaybookConfig interface {
	GetPlaybookPath() string
}

// SchedulerConfig provides settings for the asynq scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// EmailConfig provides settings for follow-up email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                   string
	HTTPAddr              string
	HTTPRateLimitPerSec   float64
	HTTPRateLimitBurst    int
	JWTAccessSecret       string
	CORSAllowAll          bool
	CORSOrigins           []string
	CORSAllowCreds        bool
	ChatHistoryTurns      int
	ChatMaxMessageLen     int
	ChatQuotaPerMinute    float64
	ChatQuotaBurst        int
	GeminiAPIKey          string
	GeminiModel           string
	GuardWindow           time.Duration
	GuardCapacity         int
	GuardBackend          string
	RealtimeSessionTTL    time.Duration
	RealtimeSweepInterval time.Duration
	RealtimeVoiceEnabled  bool
	RealtimeVideoEnabled  bool
	FollowUpThreshold     int
	FollowUpDelay         time.Duration
	PlaybookPath          string
	RedisURL              string
	RedisTLSInsecure      bool
	AsynqQueueName        string
	AsynqConcurrency      int
	EmailEnabled          bool
	SMTPHost              string
	SMTPPort              int
	SMTPUsername          string
	SMTPPassword          string
	EmailFromName         string
	EmailFromAddress      string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string              { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool            { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string         { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool          { return c.CORSAllowCreds }
func (c *Config) GetHTTPRateLimitPerSec() float64  { return c.HTTPRateLimitPerSec }
func (c *Config) GetHTTPRateLimitBurst() int       { return c.HTTPRateLimitBurst }

// ChatConfig implementation
func (c *Config) GetChatHistoryTurns() int        { return c.ChatHistoryTurns }
func (c *Config) GetChatMaxMessageLen() int       { return c.ChatMaxMessageLen }
func (c *Config) GetChatQuotaPerMinute() float64  { return c.ChatQuotaPerMinute }
func (c *Config) GetChatQuotaBurst() int          { return c.ChatQuotaBurst }

// GeneratorConfig implementation
func (c *Config) GetGeminiAPIKey() string   { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string    { return c.GeminiModel }
func (c *Config) IsGeneratorEnabled() bool  { return c.GeminiAPIKey != "" }

// GuardConfig implementation
func (c *Config) GetGuardWindow() time.Duration { return c.GuardWindow }
func (c *Config) GetGuardCapacity() int         { return c.GuardCapacity }
func (c *Config) GetGuardBackend() string       { return c.GuardBackend }

// RealtimeConfig implementation
func (c *Config) GetRealtimeSessionTTL() time.Duration    { return c.RealtimeSessionTTL }
func (c *Config) GetRealtimeSweepInterval() time.Duration { return c.RealtimeSweepInterval }
func (c *Config) GetRealtimeVoiceEnabled() bool           { return c.RealtimeVoiceEnabled }
func (c *Config) GetRealtimeVideoEnabled() bool           { return c.RealtimeVideoEnabled }

// LeadConfig implementation
func (c *Config) GetFollowUpThreshold() int        { return c.FollowUpThreshold }
func (c *Config) GetFollowUpDelay() time.Duration  { return c.FollowUpDelay }

// PlaybookConfig implementation
func (c *Config) GetPlaybookPath() string { return c.PlaybookPath }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string      { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "false"), "true")

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		HTTPRateLimitPerSec:   mustFloat(getEnv("HTTP_RATE_LIMIT_PER_SEC", "25")),
		HTTPRateLimitBurst:    mustInt(getEnv("HTTP_RATE_LIMIT_BURST", "50")),
		JWTAccessSecret:       getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:          corsAllowAll,
		CORSOrigins:           corsOrigins,
		CORSAllowCreds:        strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		ChatHistoryTurns:      mustInt(getEnv("CHAT_HISTORY_TURNS", "12")),
		ChatMaxMessageLen:     mustInt(getEnv("CHAT_MAX_MESSAGE_LEN", "4000")),
		ChatQuotaPerMinute:    mustFloat(getEnv("CHAT_QUOTA_PER_MINUTE", "20")),
		ChatQuotaBurst:        mustInt(getEnv("CHAT_QUOTA_BURST", "5")),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GuardWindow:           mustDuration(getEnv("GUARD_WINDOW", "10s")),
		GuardCapacity:         mustInt(getEnv("GUARD_CAPACITY", "100")),
		GuardBackend:          getEnv("GUARD_BACKEND", "memory"),
		RealtimeSessionTTL:    mustDuration(getEnv("REALTIME_SESSION_TTL", "10m")),
		RealtimeSweepInterval: mustDuration(getEnv("REALTIME_SWEEP_INTERVAL", "60s")),
		RealtimeVoiceEnabled:  strings.EqualFold(getEnv("REALTIME_VOICE_ENABLED", "true"), "true"),
		RealtimeVideoEnabled:  strings.EqualFold(getEnv("REALTIME_VIDEO_ENABLED", "false"), "true"),
		FollowUpThreshold:     mustInt(getEnv("FOLLOW_UP_THRESHOLD", "60")),
		FollowUpDelay:         mustDuration(getEnv("FOLLOW_UP_DELAY", "15m")),
		PlaybookPath:          getEnv("PLAYBOOK_PATH", ""),
		RedisURL:              getEnv("REDIS_URL", ""),
		RedisTLSInsecure:      strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:        getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:      mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		EmailEnabled:          emailEnabled,
		SMTPHost:              getEnv("SMTP_HOST", ""),
		SMTPPort:              mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:          getEnv("SMTP_USERNAME", ""),
		SMTPPassword:          getEnv("SMTP_PASSWORD", ""),
		EmailFromName:         getEnv("EMAIL_FROM_NAME", "LeadChat"),
		EmailFromAddress:      getEnv("EMAIL_FROM_ADDRESS", ""),
	}

	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.GuardBackend != "memory" && cfg.GuardBackend != "redis" {
		return nil, fmt.Errorf("GUARD_BACKEND must be memory or redis")
	}
	if cfg.GuardBackend == "redis" && cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required when GUARD_BACKEND is redis")
	}
	if cfg.EmailEnabled && (cfg.SMTPHost == "" || cfg.EmailFromAddress == "") {
		return nil, fmt.Errorf("SMTP_HOST and EMAIL_FROM_ADDRESS are required when EMAIL_ENABLED is true")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
