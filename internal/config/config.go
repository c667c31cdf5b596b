package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TRANSPORTER_TIMEOUT.
const EnvPrefix = "TRANSPORTER"

// Config holds the transporter configuration loaded from defaults, an
// optional config file and environment variables.
type Config struct {
	LogLevel              string            `mapstructure:"log_level"`
	Transporter           string            `mapstructure:"transporter"`
	ConnectTimeoutSeconds float64           `mapstructure:"connect_timeout"`
	TimeoutSeconds        float64           `mapstructure:"timeout"`
	BufferSize            int               `mapstructure:"buffer_size"`
	UseEnvProxy           bool              `mapstructure:"use_env_proxy"`
	Resolve               map[string]string `mapstructure:"resolve"` // host -> ip

	ConnectTimeout time.Duration `mapstructure:"-"`
	Timeout        time.Duration `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("transporter", "default-http")
	v.SetDefault("connect_timeout", 5) // seconds
	v.SetDefault("timeout", 5)         // seconds
	v.SetDefault("buffer_size", 1160)
	v.SetDefault("use_env_proxy", false)
	v.SetDefault("resolve", map[string]string{})
}

// Default returns the configuration without consulting files or the
// environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := unmarshal(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from path (if not empty), a .env file in the
// working directory (if present) and TRANSPORTER_* environment variables.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.ConnectTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid connect_timeout (must be positive seconds)")
	}
	if cfg.TimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid timeout (must be positive seconds)")
	}
	if cfg.BufferSize <= 0 {
		return nil, fmt.Errorf("invalid buffer_size (must be positive)")
	}
	cfg.ConnectTimeout = seconds(cfg.ConnectTimeoutSeconds)
	cfg.Timeout = seconds(cfg.TimeoutSeconds)
	return &cfg, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
