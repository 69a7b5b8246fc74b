package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"capitals/config"
	"capitals/internal/application"
	"capitals/internal/gazetteer"
	"capitals/internal/infra/anthropic"
	"capitals/internal/infra/audio"
	"capitals/internal/infra/gemini"
	"capitals/internal/infra/openai"
	"capitals/internal/infra/pushover"
)

func buildEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application.Engine, error) {
	g, err := loadGazetteer(ctx, cfg.Gazetteer)
	if err != nil {
		return nil, err
	}

	model, err := createLanguageModel(cfg)
	if err != nil {
		return nil, err
	}

	classifier := application.NewClassifier(model, g, cfg.Classifier.Timeout, logger)
	return application.NewEngine(classifier, g, logger), nil
}

func loadGazetteer(ctx context.Context, cfg config.GazetteerConfig) (*gazetteer.Gazetteer, error) {
	if cfg.PostgresDSN == "" {
		g, err := gazetteer.LoadFiles(cfg.CountriesFile, cfg.StatesFile)
		if err != nil {
			return nil, fmt.Errorf("loading gazetteer: %w", err)
		}
		return g, nil
	}

	db, err := openPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	g, err := gazetteer.LoadPostgres(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("loading gazetteer: %w", err)
	}
	return g, nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

// createLanguageModel returns nil for provider "none"; the classifier then
// runs the heuristic only.
func createLanguageModel(cfg *config.Config) (application.LanguageModel, error) {
	switch cfg.Classifier.Provider {
	case "anthropic":
		return anthropic.NewClaudeClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model), nil
	case "gemini":
		return gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown classifier provider %q", cfg.Classifier.Provider)
	}
}

func createAudioSource(cfg config.AudioConfig, logger *slog.Logger) application.AudioSource {
	switch cfg.Source {
	case "http":
		return audio.NewHTTPSource(cfg.HTTPAddr, cfg.AuthToken, cfg.RateLimit, logger)
	case "file":
		return audio.NewFileSource(cfg.FileDir)
	case "microphone":
		return audio.NewMicrophoneSource(cfg.SampleRate, cfg.SilenceThreshold, cfg.MaxSeconds, logger)
	default:
		return nil
	}
}

func createSpeechToText(cfg config.OpenAIConfig) application.SpeechToText {
	if cfg.APIKey == "" {
		return &application.NoopSTT{}
	}
	return openai.NewWhisperClient(cfg.APIKey, cfg.Language)
}

func createNotifier(cfg config.PushoverConfig) application.Notifier {
	if !cfg.Enabled {
		return &application.NoopNotifier{}
	}
	return pushover.NewClient(cfg.Token, cfg.UserKey)
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	// stdout is reserved for command output.
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
