package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/kitbot/shop/conversation"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
telegram:
  token: test-token
  admin_id: 7
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test-token", cfg.Telegram.Token)
	assert.EqualValues(t, 7, cfg.Telegram.AdminID)
	assert.Equal(t, SourceStatic, cfg.Catalog.Source)
	assert.Equal(t, string(conversation.PolicyDrop), cfg.Conversation.BusyPolicy)
	assert.False(t, cfg.UsesDatabase())
	assert.Same(t, &cfg.Config, cfg.CoreConfig())
}

func TestLoadEnvOverlay(t *testing.T) {
	t.Setenv("CATALOG_SOURCE", "postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("CONVERSATION_BUSY_POLICY", "Queue")
	path := writeFile(t, "config.yaml", `
telegram:
  token: test-token
database:
  port: "5432"
  user: bot
  name: catalog
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.UsesDatabase())
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, string(conversation.PolicyQueue), cfg.Conversation.BusyPolicy)
}

func TestNormalizeErrors(t *testing.T) {
	base := func() Config {
		var cfg Config
		cfg.Telegram.Token = "t"
		return cfg
	}
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"yaml without path", func(c *Config) { c.Catalog.Source = "yaml" }, "catalog.path"},
		{"postgres without host", func(c *Config) { c.Catalog.Source = "postgres" }, "database.host"},
		{"unknown source", func(c *Config) { c.Catalog.Source = "csv" }, "invalid catalog.source"},
		{"unknown policy", func(c *Config) { c.Conversation.BusyPolicy = "retry" }, "busy_policy"},
		{"negative sender", func(c *Config) { c.Sender.Workers = -1 }, "sender"},
		{"core validation", func(c *Config) { c.Telegram.Token = "" }, "token is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			assert.ErrorContains(t, Normalize(&cfg), tt.want)
		})
	}
}

func TestNormalizeCollectsAllErrors(t *testing.T) {
	var cfg Config
	cfg.Catalog.Source = "yaml"
	cfg.Conversation.BusyPolicy = "retry"

	err := Normalize(&cfg)
	require.Error(t, err)
	assert.ErrorContains(t, err, "token is required")
	assert.ErrorContains(t, err, "catalog.path")
	assert.ErrorContains(t, err, "busy_policy")
}
