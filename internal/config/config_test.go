package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BB_JWT_SECRET", "test-secret")
	t.Setenv("BB_ADMIN_USERNAME", "admin")
	t.Setenv("BB_ADMIN_PASSWORD_HASH", "$2a$10$abcdefghijklmnopqrstuu")
}

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		wantPanic bool
	}{
		{
			name:      "variable set",
			key:       "BB_TEST_VAR",
			value:     "test_value",
			wantPanic: false,
		},
		{
			name:      "variable not set",
			key:       "BB_TEST_VAR_MISSING",
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv(tt.key)
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("PM2_HOME", "/srv/pm2")

	cfg := Load()

	if cfg.ListenPort != ":3001" {
		t.Errorf("ListenPort = %q, want :3001", cfg.ListenPort)
	}
	if cfg.AccessTTL != 30*time.Minute {
		t.Errorf("AccessTTL = %v, want 30m", cfg.AccessTTL)
	}
	if cfg.RefreshTTL != 7*24*time.Hour {
		t.Errorf("RefreshTTL = %v, want 168h", cfg.RefreshTTL)
	}
	if cfg.JWTIssuer != "big-brother-api" || cfg.JWTAudience != "big-brother-dashboard" {
		t.Errorf("issuer/audience = %q/%q", cfg.JWTIssuer, cfg.JWTAudience)
	}
	if cfg.MaxLogLines != 2000 || cfg.DefaultLogLines != 500 {
		t.Errorf("log limits = %d/%d, want 2000/500", cfg.MaxLogLines, cfg.DefaultLogLines)
	}
	if cfg.RefreshStore != RefreshStoreMemory {
		t.Errorf("RefreshStore = %q, want memory", cfg.RefreshStore)
	}
	if cfg.PM2Home != "/srv/pm2" {
		t.Errorf("PM2Home = %q, want PM2_HOME fallback", cfg.PM2Home)
	}
	if cfg.IsProduction() {
		t.Error("default env must not be production")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unknown env", key: "BB_ENV", val: "staging"},
		{name: "unknown refresh store", key: "BB_REFRESH_STORE", val: "etcd"},
		{name: "default above max", key: "BB_DEFAULT_LOG_LINES", val: "5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.val)

			defer func() {
				if r := recover(); r == nil {
					t.Errorf("Load() should have panicked for %s=%s", tt.key, tt.val)
				}
			}()
			Load()
		})
	}
}

func TestLoadMissingSecretPanics(t *testing.T) {
	t.Setenv("BB_JWT_SECRET", "")
	t.Setenv("BB_ADMIN_USERNAME", "admin")
	t.Setenv("BB_ADMIN_PASSWORD_HASH", "hash")

	defer func() {
		if r := recover(); r == nil {
			t.Error("Load() should panic without BB_JWT_SECRET")
		}
	}()
	Load()
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "BB_TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "BB_TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "BB_TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      bool
		expected bool
	}{
		{name: "true value", value: "true", def: false, expected: true},
		{name: "false value", value: "false", def: true, expected: false},
		{name: "invalid value uses default", value: "invalid", def: true, expected: true},
		{name: "missing variable uses default", value: "", def: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BB_TEST_BOOL", tt.value)

			result := mustBool("BB_TEST_BOOL", tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(` 10.0.0.0/8, "192.168.1.0/24" ,,'::1/128'`)
	want := []string{"10.0.0.0/8", "192.168.1.0/24", "::1/128"}

	if len(got) != len(want) {
		t.Fatalf("splitAndTrim() length = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitAndTrim()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
