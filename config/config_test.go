package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"CRM_PORT", "CRM_DB_PATH", "LOG_LEVEL", "SENTRY_DSN", "APP_ENV",
		"TWILIO_SID", "TWILIO_TOKEN", "TWILIO_WHATSAPP_FROM", "TWILIO_CHANNEL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "data/crm.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "whatsapp", cfg.Twilio.Channel)
	assert.False(t, cfg.Twilio.Complete())
}

func TestLoad_TwilioPrefix(t *testing.T) {
	t.Setenv("CRM_PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("TWILIO_SID", "AC123")
	t.Setenv("TWILIO_TOKEN", "secret")
	t.Setenv("TWILIO_WHATSAPP_FROM", "+14155238886")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "AC123", cfg.Twilio.AccountSID)
	assert.Equal(t, "secret", cfg.Twilio.AuthToken)
	assert.Equal(t, "+14155238886", cfg.Twilio.From)
	assert.True(t, cfg.Twilio.Complete())
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("CRM_PORT", "eighty")

	_, err := Load()

	assert.Error(t, err)
}
