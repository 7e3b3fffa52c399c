package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("YT_API_KEY", "test-key")
	t.Setenv("SEARCH_OUTPUT_PATH", "/tmp/out.json")
	t.Setenv("SEARCH_TIMEOUT", "5s")
	t.Setenv("CONVERT_TIMEOUT", "2m")
	t.Setenv("AUDIO_FORMAT", ".wav")
	t.Setenv("RATE_LIMIT", "10")
	t.Setenv("RATE_LIMIT_INTERVAL", "2s")
	t.Setenv("DB_PATH", "")

	cfg := LoadConfig()

	if cfg.APIKey != "test-key" {
		t.Errorf("expected test-key, got %s", cfg.APIKey)
	}
	if cfg.SearchOutputPath != "/tmp/out.json" {
		t.Errorf("expected /tmp/out.json, got %s", cfg.SearchOutputPath)
	}
	if cfg.SearchTimeout != 5*time.Second {
		t.Errorf("expected 5s, got %s", cfg.SearchTimeout)
	}
	if cfg.ConvertTimeout != 2*time.Minute {
		t.Errorf("expected 2m, got %s", cfg.ConvertTimeout)
	}
	if cfg.AudioFormat != "wav" {
		t.Errorf("expected wav, got %s", cfg.AudioFormat)
	}
	if cfg.RateLimit != 10 {
		t.Errorf("expected 10, got %d", cfg.RateLimit)
	}
	if cfg.RateLimitInterval != 2*time.Second {
		t.Errorf("expected 2s, got %s", cfg.RateLimitInterval)
	}
	if cfg.DBPath != "" {
		t.Errorf("expected empty DB path, got %s", cfg.DBPath)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SEARCH_TIMEOUT", "not-a-duration")
	t.Setenv("RATE_LIMIT", "many")

	cfg := LoadConfig()

	if cfg.SearchTimeout != 15*time.Second {
		t.Errorf("expected default 15s, got %s", cfg.SearchTimeout)
	}
	if cfg.RateLimit != 5 {
		t.Errorf("expected default 5, got %d", cfg.RateLimit)
	}
	if cfg.APIEndpoint != DefaultAPIEndpoint {
		t.Errorf("expected %s, got %s", DefaultAPIEndpoint, cfg.APIEndpoint)
	}
	if cfg.WatchHost != DefaultWatchHost {
		t.Errorf("expected %s, got %s", DefaultWatchHost, cfg.WatchHost)
	}
}

func TestLoadConfig_LegacyKey(t *testing.T) {
	t.Setenv("YT_API_KEY", "")
	os.Unsetenv("YT_API_KEY")
	t.Setenv("yt_key", "legacy-key")

	cfg := LoadConfig()
	if cfg.APIKey != "legacy-key" {
		t.Errorf("expected legacy-key, got %s", cfg.APIKey)
	}
}

func TestValidateConfig(t *testing.T) {
	t.Setenv("SPACES_BUCKET", "")

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty output path", func(c *Config) { c.SearchOutputPath = "" }, true},
		{"zero search timeout", func(c *Config) { c.SearchTimeout = 0 }, true},
		{"zero rate limit", func(c *Config) { c.RateLimit = 0 }, true},
		{"bucket without credentials", func(c *Config) {
			c.Spaces.Bucket = "media"
			c.Spaces.AccessKey = ""
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadConfig()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequireAPIKey(t *testing.T) {
	cfg := &Config{APIKey: "  "}
	if err := cfg.RequireAPIKey(); err == nil {
		t.Error("expected error for blank API key")
	}

	cfg.APIKey = "key"
	if err := cfg.RequireAPIKey(); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}
