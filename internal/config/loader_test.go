package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPPort != 8089 {
		t.Errorf("HTTPPort = %d, want default 8089", cfg.HTTPPort)
	}
	if cfg.MetricsPort != 8080 {
		t.Errorf("MetricsPort = %d, want default 8080", cfg.MetricsPort)
	}
	if cfg.ServiceName != "AttentionBudgetEngine" {
		t.Errorf("ServiceName = %s", cfg.ServiceName)
	}
	if cfg.RedisAddr() != "localhost:6379" {
		t.Errorf("RedisAddr = %s", cfg.RedisAddr())
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPPort != 9000 {
		t.Errorf("HTTPPort = %d, want 9000", cfg.HTTPPort)
	}
	if cfg.RedisAddr() != "redis.internal:6379" {
		t.Errorf("RedisAddr = %s", cfg.RedisAddr())
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s", cfg.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"http port zero", func(c *Config) { c.HTTPPort = 0 }, true},
		{"http port too large", func(c *Config) { c.HTTPPort = 70000 }, true},
		{"metrics port zero", func(c *Config) { c.MetricsPort = 0 }, true},
		{"negative classifier timeout", func(c *Config) { c.ClassifierTimeoutMs = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{HTTPPort: 8089, MetricsPort: 8080, ClassifierTimeoutMs: 3000}
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
