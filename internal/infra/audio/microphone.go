//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 1024

// MicrophoneSource records one spoken question per NextCommand call: it
// waits for speech, then stops after a second of silence or maxSeconds.
type MicrophoneSource struct {
	stream     *portaudio.Stream
	frame      []int16
	sampleRate int
	threshold  int16
	maxSeconds int
	logger     *slog.Logger
}

func NewMicrophoneSource(sampleRate int, threshold int16, maxSeconds int, logger *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{
		frame:      make([]int16, framesPerBuffer),
		sampleRate: sampleRate,
		threshold:  threshold,
		maxSeconds: maxSeconds,
		logger:     logger,
	}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Start(_ context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), len(m.frame), m.frame)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("starting stream: %w", err)
	}

	m.stream = stream
	m.logger.Info("microphone started", "sample_rate", m.sampleRate)
	return nil
}

func (m *MicrophoneSource) Stop() error {
	if m.stream != nil {
		m.stream.Stop()
		m.stream.Close()
		m.stream = nil
	}
	return portaudio.Terminate()
}

func (m *MicrophoneSource) NextCommand(ctx context.Context) ([]byte, error) {
	m.logger.Debug("listening for a question")

	u := newUtterance(m.sampleRate, m.threshold, m.maxSeconds)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := m.stream.Read(); err != nil {
			return nil, fmt.Errorf("reading from stream: %w", err)
		}

		if u.add(m.frame) {
			break
		}
	}

	m.logger.Info("recorded question", "samples", len(u.samples))
	return encodeWAV(u.samples, m.sampleRate), nil
}
