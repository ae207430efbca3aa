package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CardWatch/internal/model"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("TIMEZONE", "Europe/Warsaw")
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "balance.db"))
	t.Setenv("SMS_TO", "48500100200")
	t.Setenv("CARD_NUMBER", "123")
	t.Setenv("SMSAPI_USERNAME", "user")
	t.Setenv("SMSAPI_PASSWORD", "secret")
}

func TestLoad_EnvOnly(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, int64(123), cfg.Card.Number)
	assert.Equal(t, "48500100200", cfg.SMS.To)
	assert.Equal(t, DefaultCardEndpoint, cfg.Card.Endpoint)
	assert.Equal(t, DefaultCardSalt, cfg.Card.Salt)
	assert.Equal(t, DefaultSMSAPIEndpoint, cfg.SMSAPI.Endpoint)
	assert.Equal(t, DefaultSMSSender, cfg.SMSAPI.Sender)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "Europe/Warsaw", cfg.Location().String())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
timezone: UTC
card:
  number: 42
sms:
  to: "111"
smsapi:
  username: file-user
  password: file-pass
database:
  sqlite_path: /tmp/file.db
schedule:
  cron: "0 */15 * * * *"
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv("SMSAPI_USERNAME", "env-user")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, int64(42), cfg.Card.Number)
	assert.Equal(t, "env-user", cfg.SMSAPI.Username)
	assert.Equal(t, "file-pass", cfg.SMSAPI.Password)
	assert.Equal(t, "0 */15 * * * *", cfg.Schedule.Cron)
}

func TestLoad_InvalidCardNumber(t *testing.T) {
	t.Setenv("CARD_NUMBER", "abc")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	var cfgErr *model.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "CARD_NUMBER", cfgErr.Setting)
}

func TestValidate_MissingSettings(t *testing.T) {
	tests := []struct {
		unset   string
		setting string
	}{
		{"TIMEZONE", "TIMEZONE"},
		{"DATABASE_URL", "DATABASE_URL"},
		{"SMS_TO", "SMS_TO"},
		{"CARD_NUMBER", "CARD_NUMBER"},
		{"SMSAPI_USERNAME", "SMSAPI_USERNAME"},
		{"SMSAPI_PASSWORD", "SMSAPI_PASSWORD"},
	}
	for _, tt := range tests {
		t.Run(tt.unset, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.unset, "")

			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			require.NoError(t, err)

			var cfgErr *model.ConfigurationError
			require.True(t, errors.As(cfg.Validate(), &cfgErr))
			assert.Equal(t, tt.setting, cfgErr.Setting)
		})
	}
}

func TestValidate_UnknownTimezone(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TIMEZONE", "Mars/Olympus_Mons")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	var cfgErr *model.ConfigurationError
	require.True(t, errors.As(cfg.Validate(), &cfgErr))
	assert.Equal(t, "TIMEZONE", cfgErr.Setting)
	assert.NotEmpty(t, cfgErr.Reason)
}
