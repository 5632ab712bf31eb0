package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config contains all runtime settings for the live agent widget service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	FirstAudioSLO            time.Duration
	MetricsNamespace         string

	AllowAnyOrigin bool

	GeminiAPIKey  string
	LiveModel     string
	ImageModel    string
	AdvancedModel string
	FastModel     string
	TTSModel      string

	ToolCallTimeout time.Duration
	MediaAckTimeout time.Duration

	WebhookURL           string
	WebhookSigningSecret string
	WebhookTimeout       time.Duration
	CalendarRelayURL     string

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("HEARTH_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("HEARTH_METRICS_NAMESPACE", "hearth"),
		AllowAnyOrigin:   false,

		GeminiAPIKey:  envTrimmed("GEMINI_API_KEY"),
		LiveModel:     envOrDefault("HEARTH_LIVE_MODEL", "gemini-2.5-flash-native-audio-preview-09-2025"),
		ImageModel:    envOrDefault("HEARTH_IMAGE_MODEL", "gemini-2.5-flash-image"),
		AdvancedModel: envOrDefault("HEARTH_ADVANCED_MODEL", "gemini-2.5-pro"),
		FastModel:     envOrDefault("HEARTH_FAST_MODEL", "gemini-2.5-flash"),
		TTSModel:      envOrDefault("HEARTH_TTS_MODEL", "gemini-2.5-flash-preview-tts"),

		WebhookURL:           envTrimmed("HEARTH_WEBHOOK_URL"),
		WebhookSigningSecret: envTrimmed("HEARTH_WEBHOOK_SIGNING_SECRET"),
		CalendarRelayURL:     envTrimmed("HEARTH_CALENDAR_RELAY_URL"),
		DatabaseURL:          envTrimmed("DATABASE_URL"),

		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 2 * time.Minute,
		FirstAudioSLO:            700 * time.Millisecond,
		ToolCallTimeout:          30 * time.Second,
		MediaAckTimeout:          10 * time.Second,
		WebhookTimeout:           10 * time.Second,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("HEARTH_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("HEARTH_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.FirstAudioSLO, err = durationFromEnv("HEARTH_FIRST_AUDIO_SLO", cfg.FirstAudioSLO)
	if err != nil {
		return Config{}, err
	}
	cfg.ToolCallTimeout, err = durationFromEnv("HEARTH_TOOL_CALL_TIMEOUT", cfg.ToolCallTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.MediaAckTimeout, err = durationFromEnv("HEARTH_MEDIA_ACK_TIMEOUT", cfg.MediaAckTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.WebhookTimeout, err = durationFromEnv("HEARTH_WEBHOOK_TIMEOUT", cfg.WebhookTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("HEARTH_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("HEARTH_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.ToolCallTimeout <= 0 {
		return Config{}, fmt.Errorf("HEARTH_TOOL_CALL_TIMEOUT must be positive")
	}
	if cfg.MediaAckTimeout <= 0 {
		return Config{}, fmt.Errorf("HEARTH_MEDIA_ACK_TIMEOUT must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(envTrimmed(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
