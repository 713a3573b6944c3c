package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dudumaluf/BOT-TextureGen/internal/dispatch"
)

const (
	FormatJSON        = "json"
	FormatCloudEvents = "cloudevents"

	DefaultWebhookURL = "http://localhost:3000/api/webhook/comfyui"

	DefaultMaxRequestBytes int64 = 64 << 20
)

type Config struct {
	Port string

	// BaseURL prefixes the view paths sent to the webhook.
	BaseURL         string
	OutputDir       string
	OutputSubfolder string

	// MaxRequestBytes caps the body of an /invoke request.
	MaxRequestBytes int64

	WebhookURL     string
	WebhookSecret  string
	WebhookFormat  string
	WebhookTimeout time.Duration

	SourceID  string
	EventType string

	LogLevel  string
	LogFormat string
}

// LoadEnvFile loads variables from path without overriding ones already set.
// A missing default .env file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil
		}
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8188"),
		BaseURL:         getEnv("COMFYUI_BASE_URL", dispatch.DefaultBaseURL),
		OutputDir:       getEnv("COMFYUI_OUTPUT_DIR", ""),
		OutputSubfolder: getEnv("OUTPUT_SUBFOLDER", ""),
		WebhookURL:      getEnv("WEBHOOK_URL", DefaultWebhookURL),
		WebhookSecret:   getEnv("WEBHOOK_SECRET", ""),
		WebhookFormat:   strings.ToLower(getEnv("WEBHOOK_FORMAT", FormatJSON)),
		SourceID:        getEnv("SOURCE_ID", "automata/webhook-node"),
		EventType:       getEnv("EVENT_TYPE", "automata.textures.completed"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "console"),
	}

	timeout, err := time.ParseDuration(getEnv("WEBHOOK_TIMEOUT", dispatch.DefaultTimeout.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid WEBHOOK_TIMEOUT: %w", err)
	}
	cfg.WebhookTimeout = timeout

	maxBytes, err := strconv.ParseInt(getEnv("MAX_REQUEST_BYTES", strconv.FormatInt(DefaultMaxRequestBytes, 10)), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_REQUEST_BYTES: %w", err)
	}
	cfg.MaxRequestBytes = maxBytes

	if cfg.Port == "" {
		return nil, errors.New("PORT environment variable must be set")
	}
	switch cfg.WebhookFormat {
	case FormatJSON, FormatCloudEvents:
	default:
		return nil, fmt.Errorf("WEBHOOK_FORMAT must be %q or %q, got %q", FormatJSON, FormatCloudEvents, cfg.WebhookFormat)
	}
	if cfg.WebhookTimeout <= 0 {
		return nil, errors.New("WEBHOOK_TIMEOUT must be positive")
	}
	if cfg.MaxRequestBytes <= 0 {
		return nil, errors.New("MAX_REQUEST_BYTES must be positive")
	}
	if sub := filepath.Clean(filepath.FromSlash(cfg.OutputSubfolder)); cfg.OutputSubfolder != "" &&
		(filepath.IsAbs(sub) || sub == ".." || strings.HasPrefix(sub, ".."+string(filepath.Separator))) {
		return nil, fmt.Errorf("OUTPUT_SUBFOLDER must stay inside the output directory, got %q", cfg.OutputSubfolder)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}
