package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"capitals/config"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := config.Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Server.Addr != ":8000" || cfg.Server.RateLimit != 60 {
		t.Errorf("server: got %+v", cfg.Server)
	}
	if cfg.Classifier.Provider != "none" || cfg.Classifier.Timeout != 3*time.Second {
		t.Errorf("classifier: got %+v", cfg.Classifier)
	}
	if cfg.Audio.Source != "none" {
		t.Errorf("audio.source: got %s, want none", cfg.Audio.Source)
	}
	if cfg.OpenAI.Language != "en" {
		t.Errorf("openai.language: got %s, want en", cfg.OpenAI.Language)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("log: got %+v", cfg.Log)
	}
}

func TestParse_ProviderFollowsKey(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"anthropic key", "anthropic:\n  api_key: sk-test\n", "anthropic"},
		{"gemini key", "gemini:\n  api_key: g-test\n", "gemini"},
		{"explicit none", "classifier:\n  provider: none\nanthropic:\n  api_key: sk-test\n", "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if cfg.Classifier.Provider != tt.want {
				t.Errorf("provider: got %s, want %s", cfg.Classifier.Provider, tt.want)
			}
		})
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("CAPITALS_TEST_KEY", "sk-from-env")

	cfg, err := config.Parse([]byte("anthropic:\n  api_key: ${CAPITALS_TEST_KEY}\nclassifier:\n  timeout: 750ms\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Anthropic.APIKey != "sk-from-env" {
		t.Errorf("api_key: got %q", cfg.Anthropic.APIKey)
	}
	if cfg.Classifier.Timeout != 750*time.Millisecond {
		t.Errorf("timeout: got %s", cfg.Classifier.Timeout)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"unknown provider", "classifier:\n  provider: openai\n", "Provider"},
		{"provider without key", "classifier:\n  provider: gemini\n", "gemini.api_key"},
		{"negative timeout", "classifier:\n  timeout: -1s\n", "Timeout"},
		{"unknown audio source", "audio:\n  source: bluetooth\n", "Source"},
		{"pushover without token", "pushover:\n  enabled: true\n", "Token"},
		{"bad log level", "log:\n  level: loud\n", "Level"},
		{"malformed yaml", "server: [", "parsing config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":9000\"\n"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("addr: got %s", cfg.Server.Addr)
	}

	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
