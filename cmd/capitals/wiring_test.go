package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"capitals/config"
	"capitals/internal/application"
	"capitals/internal/infra/anthropic"
	"capitals/internal/infra/audio"
	"capitals/internal/infra/gemini"
)

func TestCreateLanguageModel(t *testing.T) {
	tests := []struct {
		provider string
		check    func(application.LanguageModel) bool
	}{
		{"anthropic", func(m application.LanguageModel) bool { _, ok := m.(*anthropic.ClaudeClient); return ok }},
		{"gemini", func(m application.LanguageModel) bool { _, ok := m.(*gemini.Client); return ok }},
		{"none", func(m application.LanguageModel) bool { return m == nil }},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := &config.Config{Classifier: config.ClassifierConfig{Provider: tt.provider}}
			model, err := createLanguageModel(cfg)
			if err != nil {
				t.Fatalf("createLanguageModel: %v", err)
			}
			if !tt.check(model) {
				t.Errorf("unexpected model %T", model)
			}
		})
	}

	if _, err := createLanguageModel(&config.Config{Classifier: config.ClassifierConfig{Provider: "llama"}}); err == nil {
		t.Error("expected an error for an unknown provider")
	}
}

func TestCreateAudioSource(t *testing.T) {
	logger := setupLogger(config.LogConfig{Level: "error"})

	if src := createAudioSource(config.AudioConfig{Source: "none"}, logger); src != nil {
		t.Errorf("none: got %T, want nil", src)
	}
	if _, ok := createAudioSource(config.AudioConfig{Source: "http", HTTPAddr: ":0", RateLimit: 10}, logger).(*audio.HTTPSource); !ok {
		t.Error("http: wrong source type")
	}
	if _, ok := createAudioSource(config.AudioConfig{Source: "file", FileDir: t.TempDir()}, logger).(*audio.FileSource); !ok {
		t.Error("file: wrong source type")
	}
}

func TestAskCommand(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("classifier:\n  provider: none\nlog:\n  level: error\n"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cmd := askCmd(&configPath)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"What", "is", "the", "capital", "of", "Kenya?"})
	cmd.SetContext(context.Background())

	if err := cmd.Execute(); err != nil {
		t.Fatalf("ask: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "The capital of Kenya is Nairobi." {
		t.Errorf("output: got %q", got)
	}
}

func TestEntitiesCommand(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("{}\n"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cmd := entitiesCmd(&configPath)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--category", "state"})
	cmd.SetContext(context.Background())

	if err := cmd.Execute(); err != nil {
		t.Fatalf("entities: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 50 {
		t.Fatalf("got %d lines, want 50", len(lines))
	}
	if lines[0] != "state\tAlabama\tMontgomery" {
		t.Errorf("first line: got %q", lines[0])
	}
}
