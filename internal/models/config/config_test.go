package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Environment: "development",
		HTTP:        HTTPConfig{Port: "8080"},
		Auth:        AuthConfig{JWTSecret: "secret", TokenTTL: time.Hour},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Username: "academy",
			Name:     "academy",
			SSLMode:  "disable",
		},
		Settings: SettingsConfig{PollInterval: time.Second},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidate_MissingJWTSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = ""

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
	assert.Contains(t, err.Error(), "JWTSecret")
}

func TestValidate_BotTokenRequiredWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Bot.Enabled = true

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Token")

	cfg.Bot.Token = "123:abc"
	assert.NoError(t, Validate(cfg))
}

func TestValidate_ProductionRequiresPassword(t *testing.T) {
	cfg := validConfig()
	cfg.Environment = "production"
	cfg.Database.SSLMode = "require"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD is required in production")
}

func TestValidate_UnknownEnvironment(t *testing.T) {
	cfg := validConfig()
	cfg.Environment = "local"

	assert.Error(t, Validate(cfg))
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_USER", "academy")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("SETTINGS_POLL_INTERVAL", "5s")
	t.Setenv("ADMIN_IDS", "1, 2,x")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 5*time.Second, cfg.Settings.PollInterval)
	assert.Equal(t, []int64{1, 2}, cfg.Bot.AdminIDs)
}

func TestDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Password = "pw"

	assert.Equal(t,
		"host=localhost port=5432 user=academy password=pw dbname=academy sslmode=disable",
		cfg.Database.DSN())
}
