package config

import "time"

// Config основной конфиг
type Config struct {
	Environment string `validate:"required,oneof=development staging production test"`
	HTTP        HTTPConfig
	Auth        AuthConfig
	Bot         BotConfig
	Database    DatabaseConfig
	Settings    SettingsConfig
}

type HTTPConfig struct {
	Port        string `validate:"required,numeric"`
	CORSOrigins string
}

type AuthConfig struct {
	JWTSecret string        `validate:"required"`
	TokenTTL  time.Duration `validate:"gt=0"`
}

type BotConfig struct {
	Enabled  bool
	Token    string `validate:"required_if=Enabled true"`
	Debug    bool
	AdminIDs []int64 // ID администраторов для уведомлений
}

type SettingsConfig struct {
	// PollInterval: как часто перечитывать таблицу настроек
	PollInterval time.Duration `validate:"gt=0"`
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
