package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Engine      EngineConfig      `mapstructure:"engine"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Development DevelopmentConfig `mapstructure:"development"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// EngineConfig is the administrative parameter set the engine consumes
// read-only.
type EngineConfig struct {
	FeeRateBps      int64    `mapstructure:"fee_rate_bps"`
	TimeoutSeconds  int64    `mapstructure:"timeout_seconds"`
	KFactor         int64    `mapstructure:"k_factor"`
	BaseRating      int64    `mapstructure:"base_rating"`
	LeaderboardSize int      `mapstructure:"leaderboard_size"`
	RecentWinsSize  int      `mapstructure:"recent_wins_size"`
	FeeRecipient    string   `mapstructure:"fee_recipient"`
	SupportedAssets []string `mapstructure:"supported_assets"`
}

func (c EngineConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type AuthConfig struct {
	Secret     string `mapstructure:"secret"`
	TTLMinutes int    `mapstructure:"ttl_minutes"`
}

type DevelopmentConfig struct {
	Debug        bool   `mapstructure:"debug"`
	LogLevel     string `mapstructure:"log_level"`
	FaucetAmount int64  `mapstructure:"faucet_amount"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Enable environment variables
	viper.SetEnvPrefix("STAKEBOARD")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, run on defaults.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("engine.fee_rate_bps", 250)
	viper.SetDefault("engine.timeout_seconds", 86400) // one day per move
	viper.SetDefault("engine.k_factor", 32)
	viper.SetDefault("engine.base_rating", 1000)
	viper.SetDefault("engine.leaderboard_size", 100)
	viper.SetDefault("engine.recent_wins_size", 50)
	viper.SetDefault("engine.fee_recipient", "platform-fees")
	viper.SetDefault("engine.supported_assets", []string{"native"})
	viper.SetDefault("auth.secret", "dev-secret-change-me")
	viper.SetDefault("auth.ttl_minutes", 720)
	viper.SetDefault("development.debug", false)
	viper.SetDefault("development.log_level", "info")
	viper.SetDefault("development.faucet_amount", 0)
}

// Validate enforces the documented administrative ranges. A config
// outside them is an operator error, not something to clamp silently.
func (c *Config) Validate() error {
	if c.Engine.FeeRateBps < 0 || c.Engine.FeeRateBps > 1000 {
		return fmt.Errorf("engine.fee_rate_bps %d outside 0..1000", c.Engine.FeeRateBps)
	}
	timeout := c.Engine.Timeout()
	if timeout < time.Second || timeout > 7*24*time.Hour {
		return fmt.Errorf("engine.timeout_seconds %d outside 1s..7d", c.Engine.TimeoutSeconds)
	}
	if c.Engine.KFactor < 1 || c.Engine.KFactor > 1000 {
		return fmt.Errorf("engine.k_factor %d outside 1..1000", c.Engine.KFactor)
	}
	if c.Engine.BaseRating < 0 {
		return fmt.Errorf("engine.base_rating must not be negative")
	}
	if c.Engine.LeaderboardSize < 1 {
		return fmt.Errorf("engine.leaderboard_size must be positive")
	}
	if c.Engine.FeeRecipient == "" {
		return fmt.Errorf("engine.fee_recipient must be set")
	}
	if len(c.Engine.SupportedAssets) == 0 {
		return fmt.Errorf("engine.supported_assets must not be empty")
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth.secret must be set")
	}
	return nil
}
