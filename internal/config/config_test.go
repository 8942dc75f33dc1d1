package config

import (
	"errors"
	"testing"
	"time"

	"github.com/limeboard/limeboard/internal/apperrors"
)

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue time.Duration
		envValue     string
		shouldSet    bool
		want         time.Duration
	}{
		{
			name:         "returns environment variable as duration when set with valid value",
			key:          "TEST_DUR_VAR",
			defaultValue: time.Hour,
			envValue:     "30m",
			shouldSet:    true,
			want:         30 * time.Minute,
		},
		{
			name:         "returns default when environment variable not set",
			key:          "TEST_DUR_VAR_MISSING",
			defaultValue: time.Hour,
			envValue:     "",
			shouldSet:    false,
			want:         time.Hour,
		},
		{
			name:         "returns default when environment variable is not a valid duration",
			key:          "TEST_DUR_VAR_INVALID",
			defaultValue: time.Hour,
			envValue:     "soon",
			shouldSet:    true,
			want:         time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnvAsDuration(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvAsDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitCommaList(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{
			name:  "splits and trims entries",
			value: "attribute_8, attribute_9 ,nombre_profe",
			want:  []string{"attribute_8", "attribute_9", "nombre_profe"},
		},
		{
			name:  "drops empty entries",
			value: "attribute_8,,  ,attribute_9",
			want:  []string{"attribute_8", "attribute_9"},
		},
		{
			name:  "empty value yields nil",
			value: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitCommaList(tt.value)
			if len(got) != len(tt.want) {
				t.Fatalf("splitCommaList() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("splitCommaList()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLoad_RequiresAPIKey(t *testing.T) {
	t.Setenv("API_KEY", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail when API_KEY is not set")
	}
	if !errors.Is(err, apperrors.ErrConfig) {
		t.Errorf("Load() error = %v, want a ConfigError", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %v, want 8080", cfg.Port)
	}
	if cfg.CacheTTL != 24*time.Hour {
		t.Errorf("CacheTTL = %v, want 24h", cfg.CacheTTL)
	}
	if cfg.Locale != "en" {
		t.Errorf("Locale = %v, want en", cfg.Locale)
	}
	if cfg.RPCRetryMax != 0 {
		t.Errorf("RPCRetryMax = %v, want 0", cfg.RPCRetryMax)
	}
}

func TestValidateLimeSurvey(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		reason string
		ok     bool
	}{
		{
			name: "valid settings",
			cfg: Config{
				LimeSurveyURL:      "https://surveys.example.org/index.php/admin/remotecontrol",
				LimeSurveyUser:     "admin",
				LimeSurveyPassword: "secret",
			},
			ok: true,
		},
		{
			name:   "missing url",
			cfg:    Config{LimeSurveyUser: "admin", LimeSurveyPassword: "secret"},
			reason: "missing",
		},
		{
			name: "missing password",
			cfg: Config{
				LimeSurveyURL:  "https://surveys.example.org/index.php/admin/remotecontrol",
				LimeSurveyUser: "admin",
			},
			reason: "missing",
		},
		{
			name: "placeholder url",
			cfg: Config{
				LimeSurveyURL:      "https://your-limesurvey-domain/index.php/admin/remotecontrol",
				LimeSurveyUser:     "admin",
				LimeSurveyPassword: "secret",
			},
			reason: "placeholder",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, ok := tt.cfg.ValidateLimeSurvey()
			if ok != tt.ok {
				t.Errorf("ValidateLimeSurvey() ok = %v, want %v", ok, tt.ok)
			}
			if reason != tt.reason {
				t.Errorf("ValidateLimeSurvey() reason = %v, want %v", reason, tt.reason)
			}
		})
	}
}
