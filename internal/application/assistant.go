package application

import (
	"context"
	"fmt"
	"log/slog"

	"capitals/internal/domain"
)

// Assistant is the voice pipeline: utterances from an AudioSource are
// transcribed, answered by the engine, and the reply text is handed to the
// Notifier.
type Assistant struct {
	audio    AudioSource
	stt      SpeechToText
	engine   QueryProcessor
	notifier Notifier
	logger   *slog.Logger
}

func NewAssistant(
	audio AudioSource,
	stt SpeechToText,
	engine QueryProcessor,
	notifier Notifier,
	logger *slog.Logger,
) *Assistant {
	return &Assistant{
		audio:    audio,
		stt:      stt,
		engine:   engine,
		notifier: notifier,
		logger:   logger,
	}
}

func (a *Assistant) Run(ctx context.Context) error {
	a.logger.Info("starting audio source", "source", a.audio.Name())
	if err := a.audio.Start(ctx); err != nil {
		return fmt.Errorf("starting audio: %w", err)
	}
	defer a.audio.Stop()

	a.logger.Info("assistant ready, listening for questions")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := a.processOneCommand(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				a.logger.Error("processing command", "error", err)
			}
		}
	}
}

func (a *Assistant) processOneCommand(ctx context.Context) error {
	audioData, err := a.audio.NextCommand(ctx)
	if err != nil {
		return fmt.Errorf("getting audio: %w", err)
	}

	if len(audioData) == 0 {
		return nil
	}

	var text string

	if directText, isText := domain.ParseTextCommand(audioData); isText {
		a.logger.Info("received text command directly", "text", directText)
		text = directText
	} else {
		a.logger.Info("received audio", "bytes", len(audioData))

		var err error
		text, err = a.stt.Transcribe(ctx, audioData)
		if err != nil {
			return fmt.Errorf("transcribing: %w", err)
		}

		a.logger.Info("transcribed", "text", text)
	}

	resp := a.engine.Process(ctx, text)

	if err := a.notifier.Notify(ctx, resp.Text); err != nil {
		a.logger.Error("delivering reply", "error", err)
	}

	return nil
}
