package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env            string        `mapstructure:"MEDICURE_ENV"`
	BackendURL     string        `mapstructure:"MEDICURE_BACKEND_URL"`
	BackendTimeout time.Duration `mapstructure:"MEDICURE_BACKEND_TIMEOUT"`
	DataDir        string        `mapstructure:"MEDICURE_DATA_DIR"`
	Ephemeral      bool          `mapstructure:"MEDICURE_EPHEMERAL"`
	CheckTimeout   time.Duration `mapstructure:"MEDICURE_CHECK_TIMEOUT"`
	LogLevel       string        `mapstructure:"MEDICURE_LOG_LEVEL"`
	WatchVault     bool          `mapstructure:"MEDICURE_WATCH_VAULT"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("MEDICURE_ENV", "development")
	v.SetDefault("MEDICURE_BACKEND_TIMEOUT", "10s")
	v.SetDefault("MEDICURE_DATA_DIR", defaultDataDir())
	v.SetDefault("MEDICURE_EPHEMERAL", false)
	v.SetDefault("MEDICURE_CHECK_TIMEOUT", "3s")
	v.SetDefault("MEDICURE_LOG_LEVEL", "info")
	v.SetDefault("MEDICURE_WATCH_VAULT", true)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("MEDICURE_ENV")
	v.BindEnv("MEDICURE_BACKEND_URL")
	v.BindEnv("MEDICURE_BACKEND_TIMEOUT")
	v.BindEnv("MEDICURE_DATA_DIR")
	v.BindEnv("MEDICURE_EPHEMERAL")
	v.BindEnv("MEDICURE_CHECK_TIMEOUT")
	v.BindEnv("MEDICURE_LOG_LEVEL")
	v.BindEnv("MEDICURE_WATCH_VAULT")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run with. The backend
// URL is optional (the local screens work offline) but must be well
// formed when set, and the gate's check timeout must stay within the
// bounds the fail-closed behavior was designed around.
func (c *Config) Validate() error {
	if c.BackendURL != "" {
		u, err := url.Parse(c.BackendURL)
		if err != nil {
			return fmt.Errorf("MEDICURE_BACKEND_URL is not a valid URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("MEDICURE_BACKEND_URL must be http or https, got %q", u.Scheme)
		}
		if u.Scheme == "http" && !c.IsDev() {
			return fmt.Errorf("MEDICURE_BACKEND_URL must use https outside development")
		}
	}

	if c.CheckTimeout <= 0 {
		return fmt.Errorf("MEDICURE_CHECK_TIMEOUT must be positive, got %s", c.CheckTimeout)
	}
	if c.CheckTimeout > 30*time.Second {
		return fmt.Errorf("MEDICURE_CHECK_TIMEOUT must be 30s or less, got %s", c.CheckTimeout)
	}
	if c.BackendTimeout <= 0 {
		return fmt.Errorf("MEDICURE_BACKEND_TIMEOUT must be positive, got %s", c.BackendTimeout)
	}

	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return fmt.Errorf("MEDICURE_LOG_LEVEL must be a zerolog level, got %q", c.LogLevel)
	}

	if !c.Ephemeral && c.DataDir == "" {
		return fmt.Errorf("MEDICURE_DATA_DIR is required unless MEDICURE_EPHEMERAL is set")
	}
	return nil
}

// defaultDataDir places the vault under the platform config dir, falling
// back to a dotted directory in $HOME when the platform offers none.
func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "medicure")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".medicure"
	}
	return filepath.Join(home, ".medicure")
}
