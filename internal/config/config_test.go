package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
feed:
  base_url: https://api.example.com
  token: secret
slots:
  - name: gameA
    enabled: true
    webhooks:
      - https://hooks.example.com/a
  - name: gameB
    enabled: false
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.Feed.BaseURL)
	assert.Equal(t, "18", cfg.Feed.SportID)
	assert.Equal(t, 10, cfg.Feed.TimeoutSeconds)
	assert.Equal(t, "America/New_York", cfg.Tracker.Timezone)
	assert.Equal(t, 30, cfg.Lines.CacheTTLSeconds)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Audit.CSVEnabled)
	assert.False(t, cfg.Notify.Telegram.Enabled)

	require.Len(t, cfg.Slots, 2)
	assert.True(t, cfg.Slots[0].Enabled)
	assert.False(t, cfg.Slots[1].Enabled)
}

func TestLoadMissingToken(t *testing.T) {
	_, err := Load(writeConfig(t, `
feed:
  base_url: https://api.example.com
slots:
  - name: gameA
    enabled: true
    webhooks: [https://hooks.example.com/a]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed.token")
}

func TestValidateEnabledSlotNeedsWebhooks(t *testing.T) {
	_, err := Load(writeConfig(t, `
feed:
  base_url: https://api.example.com
  token: secret
slots:
  - name: gameA
    enabled: true
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no webhooks")
}

func TestValidateDuplicateSlotNames(t *testing.T) {
	_, err := Load(writeConfig(t, `
feed:
  base_url: https://api.example.com
  token: secret
slots:
  - name: gameA
    enabled: true
    webhooks: [https://hooks.example.com/a]
  - name: gameA
    enabled: true
    webhooks: [https://hooks.example.com/b]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate slot name")
}

func TestValidateBadTimezone(t *testing.T) {
	_, err := Load(writeConfig(t, minimalYAML+`
tracker:
  timezone: Mars/Olympus
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timezone")
}

func TestValidateTelegramRequiresCredentials(t *testing.T) {
	_, err := Load(writeConfig(t, minimalYAML+`
notify:
  telegram:
    enabled: true
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram")
}
