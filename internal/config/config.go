package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config keeps runtime settings for the service.
type Config struct {
	DatabasePath string `mapstructure:"database_path"`
	ListenAddr   string `mapstructure:"listen_addr"`

	Notifications NotificationConfig `mapstructure:"notifications"`
	SMTP          SMTPConfig         `mapstructure:"smtp"`
	Telegram      TelegramConfig     `mapstructure:"telegram"`
	Bootstrap     BootstrapConfig    `mapstructure:"bootstrap"`
}

// NotificationConfig controls the background due-date sweep.
type NotificationConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// SMTPConfig configures the outbound mail transport.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// TelegramConfig optionally routes notifications to Telegram chats,
// keyed by username.
type TelegramConfig struct {
	Token string           `mapstructure:"token"`
	Chats map[string]int64 `mapstructure:"chats"`
}

// BootstrapConfig seeds an initial admin account into an empty user
// table so a fresh install can be logged into.
type BootstrapConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Email    string `mapstructure:"email"`
}

// Load reads configuration from an optional YAML file plus TASKLIST_*
// environment variables, with sane defaults. Environment variables win
// over the file; nested keys use underscores (TASKLIST_SMTP_HOST).
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TASKLIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database_path", "tasklist.db")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("notifications.enabled", false)
	v.SetDefault("notifications.interval", time.Hour)
	v.SetDefault("smtp.port", 587)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(*os.PathError); !ok {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Notifications.Interval <= 0 {
		cfg.Notifications.Interval = time.Hour
	}
	if cfg.Notifications.Enabled && cfg.SMTP.Host == "" && cfg.Telegram.Token == "" {
		return Config{}, fmt.Errorf("notifications enabled but neither smtp.host nor telegram.token is set")
	}

	return cfg, nil
}
