package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "localhost", Port: 8080},
		Engine: EngineConfig{
			FeeRateBps:      250,
			TimeoutSeconds:  86400,
			KFactor:         32,
			BaseRating:      1000,
			LeaderboardSize: 100,
			RecentWinsSize:  50,
			FeeRecipient:    "platform-fees",
			SupportedAssets: []string{"native"},
		},
		Auth: AuthConfig{Secret: "secret", TTLMinutes: 720},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestValidateRanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"fee too high", func(c *Config) { c.Engine.FeeRateBps = 1001 }},
		{"fee negative", func(c *Config) { c.Engine.FeeRateBps = -1 }},
		{"timeout too short", func(c *Config) { c.Engine.TimeoutSeconds = 0 }},
		{"timeout too long", func(c *Config) { c.Engine.TimeoutSeconds = int64(8 * 24 * time.Hour / time.Second) }},
		{"k factor zero", func(c *Config) { c.Engine.KFactor = 0 }},
		{"k factor too high", func(c *Config) { c.Engine.KFactor = 1001 }},
		{"no fee recipient", func(c *Config) { c.Engine.FeeRecipient = "" }},
		{"no assets", func(c *Config) { c.Engine.SupportedAssets = nil }},
		{"no auth secret", func(c *Config) { c.Auth.Secret = "" }},
		{"leaderboard size zero", func(c *Config) { c.Engine.LeaderboardSize = 0 }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := validConfig()
			test.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestTimeoutConversion(t *testing.T) {
	cfg := validConfig()
	if got := cfg.Engine.Timeout(); got != 24*time.Hour {
		t.Errorf("expected 24h, got %v", got)
	}
}
