package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudumaluf/BOT-TextureGen/internal/dispatch"
)

var keys = []string{
	"PORT", "COMFYUI_BASE_URL", "COMFYUI_OUTPUT_DIR", "OUTPUT_SUBFOLDER",
	"WEBHOOK_URL", "WEBHOOK_SECRET", "WEBHOOK_FORMAT", "WEBHOOK_TIMEOUT",
	"MAX_REQUEST_BYTES",
	"SOURCE_ID", "EVENT_TYPE", "LOG_LEVEL", "LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8188", cfg.Port)
	assert.Equal(t, dispatch.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultWebhookURL, cfg.WebhookURL)
	assert.Equal(t, FormatJSON, cfg.WebhookFormat)
	assert.Equal(t, 30*time.Second, cfg.WebhookTimeout)
	assert.Equal(t, int64(64<<20), cfg.MaxRequestBytes)
	assert.Empty(t, cfg.OutputDir)
	assert.Empty(t, cfg.WebhookSecret)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("COMFYUI_BASE_URL", "https://tunnel.example")
	t.Setenv("COMFYUI_OUTPUT_DIR", "/data/output")
	t.Setenv("OUTPUT_SUBFOLDER", "automata/textures")
	t.Setenv("WEBHOOK_FORMAT", "CloudEvents")
	t.Setenv("WEBHOOK_TIMEOUT", "5s")
	t.Setenv("MAX_REQUEST_BYTES", "1048576")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://tunnel.example", cfg.BaseURL)
	assert.Equal(t, "/data/output", cfg.OutputDir)
	assert.Equal(t, "automata/textures", cfg.OutputSubfolder)
	assert.Equal(t, FormatCloudEvents, cfg.WebhookFormat)
	assert.Equal(t, 5*time.Second, cfg.WebhookTimeout)
	assert.Equal(t, int64(1<<20), cfg.MaxRequestBytes)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string][2]string{
		"format":           {"WEBHOOK_FORMAT", "xml"},
		"timeout":          {"WEBHOOK_TIMEOUT", "soon"},
		"negative timeout": {"WEBHOOK_TIMEOUT", "-1s"},
		"escaping folder":  {"OUTPUT_SUBFOLDER", "../up"},
		"absolute folder":  {"OUTPUT_SUBFOLDER", "/abs"},
		"body limit":       {"MAX_REQUEST_BYTES", "lots"},
		"zero body limit":  {"MAX_REQUEST_BYTES", "0"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.Unsetenv("WEBHOOK_SECRET"))
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("WEBHOOK_SECRET=from-file\n"), 0o600))

	require.NoError(t, LoadEnvFile(path))
	t.Cleanup(func() { os.Unsetenv("WEBHOOK_SECRET") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.WebhookSecret)

	assert.Error(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}
