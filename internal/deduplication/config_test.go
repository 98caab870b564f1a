package deduplication

import (
	"strings"
	"testing"
	"time"
)

var dedupEnvKeys = []string{
	"POSTBOT_DEDUP_THRESHOLD",
	"POSTBOT_DEDUP_WINDOW_DAYS",
	"POSTBOT_FRESHNESS_WINDOW_DAYS",
	"POSTBOT_DEDUP_EXACT_CONTENT",
}

func TestConfigFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(t *testing.T, cfg Config)
	}{
		{
			name:    "no environment variables uses defaults",
			envVars: map[string]string{},
			check: func(t *testing.T, cfg Config) {
				defaults := DefaultConfig()
				if cfg != defaults {
					t.Errorf("ConfigFromEnv() = %v, want %v", cfg, defaults)
				}
			},
		},
		{
			name: "valid custom configuration",
			envVars: map[string]string{
				"POSTBOT_DEDUP_THRESHOLD":       "0.80",
				"POSTBOT_DEDUP_WINDOW_DAYS":     "14",
				"POSTBOT_FRESHNESS_WINDOW_DAYS": "90",
				"POSTBOT_DEDUP_EXACT_CONTENT":   "false",
			},
			check: func(t *testing.T, cfg Config) {
				if cfg.Threshold != 0.80 {
					t.Errorf("Threshold = %v, want 0.80", cfg.Threshold)
				}
				if cfg.Window != 14*24*time.Hour {
					t.Errorf("Window = %v, want %v", cfg.Window, 14*24*time.Hour)
				}
				if cfg.FreshnessWindow != 90*24*time.Hour {
					t.Errorf("FreshnessWindow = %v, want %v", cfg.FreshnessWindow, 90*24*time.Hour)
				}
				if cfg.ExactContentMatch {
					t.Errorf("ExactContentMatch = true, want false")
				}
			},
		},
		{
			name:    "invalid float value",
			envVars: map[string]string{"POSTBOT_DEDUP_THRESHOLD": "not-a-number"},
			wantErr: true,
		},
		{
			name:    "invalid int value",
			envVars: map[string]string{"POSTBOT_DEDUP_WINDOW_DAYS": "two weeks"},
			wantErr: true,
		},
		{
			name:    "invalid bool value",
			envVars: map[string]string{"POSTBOT_DEDUP_EXACT_CONTENT": "maybe"},
			wantErr: true,
		},
		{
			name:    "value out of range - threshold too high",
			envVars: map[string]string{"POSTBOT_DEDUP_THRESHOLD": "1.5"},
			wantErr: true,
		},
		{
			name:    "value out of range - window zero",
			envVars: map[string]string{"POSTBOT_DEDUP_WINDOW_DAYS": "0"},
			wantErr: true,
		},
		{
			name: "partial configuration",
			envVars: map[string]string{
				"POSTBOT_DEDUP_WINDOW_DAYS": "7",
			},
			check: func(t *testing.T, cfg Config) {
				defaults := DefaultConfig()
				if cfg.Window != 7*24*time.Hour {
					t.Errorf("Window = %v, want 7 days", cfg.Window)
				}
				if cfg.Threshold != defaults.Threshold {
					t.Errorf("Threshold = %v, want %v (default)", cfg.Threshold, defaults.Threshold)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range dedupEnvKeys {
				t.Setenv(key, "")
			}
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg, err := ConfigFromEnv()
			if (err != nil) != tt.wantErr {
				t.Errorf("ConfigFromEnv() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"default", func(*Config) {}, ""},
		{"threshold zero", func(c *Config) { c.Threshold = 0 }, ""},
		{"threshold negative", func(c *Config) { c.Threshold = -0.1 }, "threshold"},
		{"window negative", func(c *Config) { c.Window = -time.Hour }, "window must be positive"},
		{"window too large", func(c *Config) { c.Window = 400 * 24 * time.Hour }, "window too large"},
		{"freshness zero", func(c *Config) { c.FreshnessWindow = 0 }, "freshness_window"},
		{"venue match too high", func(c *Config) { c.VenueMatchThreshold = 2 }, "venue_match_threshold"},
		{"venue penalty negative", func(c *Config) { c.VenuePenalty = -1 }, "venue_penalty"},
		{"category penalty too high", func(c *Config) { c.CategoryPenalty = 1.5 }, "category_penalty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigString(t *testing.T) {
	s := DefaultConfig().String()
	for _, want := range []string{"Threshold: 0.75", "Window: 720h0m0s", "ExactContent: true"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
