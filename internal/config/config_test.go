package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `
app:
  name: brightnest
  environment: test
server:
  base_url: http://localhost:8080
database:
  path: /tmp/test.db
stripe:
  secret_key: sk_test_123
  webhook_secret: whsec_123
admin:
  password: secret
`

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "brightnest", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "usd", cfg.Stripe.Currency)
	assert.Equal(t, "primary", cfg.Google.CalendarID)
	assert.Equal(t, 30, cfg.Admin.SessionTTLDays)
	assert.Equal(t, 587, cfg.SMTP.Port)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_STRIPE_KEY", "sk_test_from_env")

	path := writeConfig(t, `
server:
  base_url: http://localhost:8080
database:
  path: /tmp/test.db
stripe:
  secret_key: ${TEST_STRIPE_KEY}
  webhook_secret: whsec_123
admin:
  password: secret
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk_test_from_env", cfg.Stripe.SecretKey)
}

func TestValidate_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no database path", func(c *Config) { c.Database.Path = "" }},
		{"no stripe key", func(c *Config) { c.Stripe.SecretKey = "" }},
		{"no webhook secret", func(c *Config) { c.Stripe.WebhookSecret = "" }},
		{"no admin password", func(c *Config) { c.Admin.Password = "" }},
		{"no base url", func(c *Config) { c.Server.BaseURL = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Server:   ServerConfig{BaseURL: "http://localhost"},
				Database: DatabaseConfig{Path: "/tmp/x.db"},
				Stripe:   StripeConfig{SecretKey: "sk", WebhookSecret: "wh"},
				Admin:    AdminConfig{Password: "pw"},
			}
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_FileMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}
