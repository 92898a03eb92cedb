package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ServerConfig holds the connection endpoints for the Eventify backend.
type ServerConfig struct {
	// BaseURL is the root URL of the REST API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// WSPath is the path of the notification push channel, resolved
	// against BaseURL with the scheme switched to ws/wss.
	WSPath string `mapstructure:"ws_path" yaml:"ws_path"`
}

// NotificationsConfig holds feed behavior settings.
type NotificationsConfig struct {
	// PageSize is how many persisted notifications to fetch per page.
	PageSize int `mapstructure:"page_size" yaml:"page_size"`

	// LiveBufferCap bounds the in-memory live push buffer.
	LiveBufferCap int `mapstructure:"live_buffer_cap" yaml:"live_buffer_cap"`
}

// ToastConfig holds ephemeral toast presentation settings.
type ToastConfig struct {
	// Max is the number of toasts visible at once.
	Max int `mapstructure:"max" yaml:"max"`

	// TTLSec is how long a toast stays on screen.
	TTLSec int `mapstructure:"ttl_sec" yaml:"ttl_sec"`

	// FreshnessSec is the maximum age of a push event that may still
	// spawn a toast; older events only land in the inbox.
	FreshnessSec int `mapstructure:"freshness_sec" yaml:"freshness_sec"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server        ServerConfig        `mapstructure:"server" yaml:"server"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
	Toasts        ToastConfig         `mapstructure:"toasts" yaml:"toasts"`
	Display       DisplayConfig       `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/eventify/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "eventify", "config.yaml")
}

// DefaultDataPath returns the default path for the local notification
// cache database.
func DefaultDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "notifications.db")
	}
	return filepath.Join(home, ".config", "eventify", "notifications.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			BaseURL: "http://localhost:5000",
			WSPath:  "/ws/notifications",
		},
		Notifications: NotificationsConfig{
			PageSize:      10,
			LiveBufferCap: 50,
		},
		Toasts: ToastConfig{
			Max:          3,
			TTLSec:       5,
			FreshnessSec: 5,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns the default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("server.base_url", "http://localhost:5000")
	v.SetDefault("server.ws_path", "/ws/notifications")
	v.SetDefault("notifications.page_size", 10)
	v.SetDefault("notifications.live_buffer_cap", 50)
	v.SetDefault("toasts.max", 3)
	v.SetDefault("toasts.ttl_sec", 5)
	v.SetDefault("toasts.freshness_sec", 5)
	v.SetDefault("display.theme", "default")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("notifications", cfg.Notifications)
	v.Set("toasts", cfg.Toasts)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
