package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		expected    bool
	}{
		{"production", "production", true},
		{"prod", "prod", true},
		{"development", "development", false},
		{"dev", "dev", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			if got := cfg.IsProduction(); got != tt.expected {
				t.Errorf("IsProduction() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		expected    bool
	}{
		{"development", "development", true},
		{"dev", "dev", true},
		{"empty", "", true},
		{"production", "production", false},
		{"prod", "prod", false},
		{"staging", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			if got := cfg.IsDevelopment(); got != tt.expected {
				t.Errorf("IsDevelopment() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		ListenAddr:     ":5300",
		OpsAddr:        ":9300",
		SessionTimeout: 5 * time.Minute,
		SweepInterval:  30 * time.Second,
		MaxFrameBytes:  4 << 20,
		RateLimitRPS:   100,
		RateLimitBurst: 200,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Config)
		wantError     bool
		errorContains string
	}{
		{
			name:      "valid",
			mutate:    func(c *Config) {},
			wantError: false,
		},
		{
			name:          "empty_listen_addr",
			mutate:        func(c *Config) { c.ListenAddr = "" },
			wantError:     true,
			errorContains: "LISTEN_ADDR",
		},
		{
			name:          "zero_session_timeout",
			mutate:        func(c *Config) { c.SessionTimeout = 0 },
			wantError:     true,
			errorContains: "SESSION_TIMEOUT",
		},
		{
			name:          "negative_sweep_interval",
			mutate:        func(c *Config) { c.SweepInterval = -time.Second },
			wantError:     true,
			errorContains: "SWEEP_INTERVAL",
		},
		{
			name:          "zero_max_frame",
			mutate:        func(c *Config) { c.MaxFrameBytes = 0 },
			wantError:     true,
			errorContains: "MAX_FRAME_BYTES",
		},
		{
			name:          "negative_rate_limit",
			mutate:        func(c *Config) { c.RateLimitRPS = -1 },
			wantError:     true,
			errorContains: "RATE_LIMIT_RPS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantError {
				if err == nil {
					t.Error("Expected error, got nil")
				} else if tt.errorContains != "" && !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Expected error containing %q, got %q", tt.errorContains, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		expected     string
	}{
		{"env_set", "TEST_KEY", "default", "custom", "custom"},
		{"env_not_set", "TEST_KEY_NOT_SET", "default", "", "default"},
		{"empty_default", "TEST_KEY_EMPTY", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.expected {
				t.Errorf("getEnv() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue time.Duration
		expected     time.Duration
	}{
		{"env_set", "90s", time.Minute, 90 * time.Second},
		{"env_not_set", "", time.Minute, time.Minute},
		{"invalid_falls_back", "ninety", time.Minute, time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_DURATION", tt.envValue)
				defer os.Unsetenv("TEST_DURATION")
			}

			got := getEnvDuration("TEST_DURATION", tt.defaultValue)
			if got != tt.expected {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue int
		expected     int
	}{
		{"env_set", "1024", 512, 1024},
		{"env_not_set", "", 512, 512},
		{"invalid_falls_back", "many", 512, 512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_INT", tt.envValue)
				defer os.Unsetenv("TEST_INT")
			}

			got := getEnvInt("TEST_INT", tt.defaultValue)
			if got != tt.expected {
				t.Errorf("getEnvInt() = %v, want %v", got, tt.expected)
			}
		})
	}
}
