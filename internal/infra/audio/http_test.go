package audio_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"capitals/internal/domain"
	"capitals/internal/infra/audio"
)

func newSource(token string) *audio.HTTPSource {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return audio.NewHTTPSource(":0", token, 100, logger)
}

func TestHTTPSource_ReceiveAudio(t *testing.T) {
	source := newSource("")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := source.Start(ctx); err != nil {
		t.Fatalf("starting source: %v", err)
	}
	defer source.Stop()

	testAudio := []byte("fake audio data for testing")

	go func() {
		time.Sleep(100 * time.Millisecond)
		source.InjectAudio(testAudio)
	}()

	received, err := source.NextCommand(ctx)
	if err != nil {
		t.Fatalf("receiving audio: %v", err)
	}

	if !bytes.Equal(received, testAudio) {
		t.Errorf("audio mismatch: got %d bytes, want %d bytes", len(received), len(testAudio))
	}
}

func TestHTTPSource_HandleAudioEndpoint(t *testing.T) {
	source := newSource("")
	handler := source.Handler()

	testAudio := []byte("test audio content")
	req := httptest.NewRequest(http.MethodPost, "/audio", bytes.NewReader(testAudio))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("status code: got %d, want %d", rec.Code, http.StatusAccepted)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["bytes"] != float64(len(testAudio)) {
		t.Errorf("bytes: got %v", body["bytes"])
	}
}

func TestHTTPSource_TextEndpointWrapsQuestion(t *testing.T) {
	source := newSource("")
	handler := source.Handler()

	question := `What is the "capital" of Peru?`
	req := httptest.NewRequest(http.MethodPost, "/text", strings.NewReader(question))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status code: got %d, want %d", rec.Code, http.StatusAccepted)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body["text"] != question {
		t.Errorf("text: got %q", body["text"])
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	data, err := source.NextCommand(ctx)
	if err != nil {
		t.Fatalf("NextCommand: %v", err)
	}
	if text, ok := domain.ParseTextCommand(data); !ok || text != question {
		t.Errorf("queued command: got %q", data)
	}
}

func TestHTTPSource_RejectsEmptyText(t *testing.T) {
	handler := newSource("").Handler()

	req := httptest.NewRequest(http.MethodPost, "/text", strings.NewReader("   "))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status code: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHTTPSource_WebhookWithToken(t *testing.T) {
	authToken := "test-secret-token-123"
	handler := newSource(authToken).Handler()

	tests := []struct {
		name       string
		token      string
		method     string
		wantStatus int
	}{
		{
			name:       "valid token in header",
			token:      authToken,
			method:     "header",
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "valid token in query",
			token:      authToken,
			method:     "query",
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "invalid token",
			token:      "wrong-token",
			method:     "header",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing token",
			token:      "",
			method:     "header",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testText := []byte("what is the capital of Kenya")
			var req *http.Request

			if tt.method == "query" {
				req = httptest.NewRequest(http.MethodPost, "/webhook?token="+tt.token, bytes.NewReader(testText))
			} else {
				req = httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(testText))
				if tt.token != "" {
					req.Header.Set("X-Auth-Token", tt.token)
				}
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status code: got %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestHTTPSource_WebhookWithoutToken(t *testing.T) {
	handler := newSource("").Handler()

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("capital of Maine"))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("status code: got %d, want %d (auth should be disabled)", rec.Code, http.StatusAccepted)
	}
}

func TestHTTPSource_RateLimited(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := audio.NewHTTPSource(":0", "", 1, logger).Handler()

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/text", strings.NewReader("capital of Chile"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusAccepted || codes[1] != http.StatusTooManyRequests {
		t.Errorf("status codes: got %v", codes)
	}
}

func TestHTTPSource_RejectsAfterStop(t *testing.T) {
	source := newSource("")
	if err := source.Start(context.Background()); err != nil {
		t.Fatalf("starting source: %v", err)
	}
	if err := source.Stop(); err != nil {
		t.Fatalf("stopping source: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/text", strings.NewReader("capital of Chile"))
	rec := httptest.NewRecorder()
	source.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status code: got %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestFileSource_LoadFromDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	testCases := []struct {
		filename string
		content  []byte
	}{
		{"command1.wav", []byte("RIFF....WAVEfmt audio data 1")},
		{"command2.txt", []byte("What is the capital of Nepal?\n")},
		{"notes.md", []byte("ignored")},
	}

	for _, tc := range testCases {
		path := filepath.Join(tmpDir, tc.filename)
		if err := os.WriteFile(path, tc.content, 0644); err != nil {
			t.Fatalf("writing test file: %v", err)
		}
	}

	source := audio.NewFileSource(tmpDir)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := source.Start(ctx); err != nil {
		t.Fatalf("starting source: %v", err)
	}

	audio1, err := source.NextCommand(ctx)
	if err != nil {
		t.Fatalf("reading first command: %v", err)
	}

	if !bytes.HasPrefix(audio1, []byte("RIFF")) {
		t.Errorf("first command should be the recording, got %q", audio1)
	}

	second, err := source.NextCommand(ctx)
	if err != nil {
		t.Fatalf("reading second command: %v", err)
	}

	if text, ok := domain.ParseTextCommand(second); !ok || text != "What is the capital of Nepal?" {
		t.Errorf("second command: got %q", second)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "command1.wav.processed")); err != nil {
		t.Errorf("recording was not marked processed: %v", err)
	}

	if _, err := source.NextCommand(ctx); err == nil {
		t.Error("expected the context to expire with only ignored files left")
	}
}

func TestFileSource_LoadSampleAudios(t *testing.T) {
	samplesDir := "../../../testdata/audio"

	if _, err := os.Stat(samplesDir); os.IsNotExist(err) {
		t.Skip("testdata/audio directory not found, skipping sample audio tests")
	}

	source := audio.NewFileSource(samplesDir)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := source.Start(ctx); err != nil {
		t.Fatalf("starting source: %v", err)
	}

	audioData, err := source.NextCommand(ctx)
	if err != nil {
		if ctx.Err() != nil {
			t.Skip("no audio files in testdata/audio")
		}
		t.Fatalf("reading audio: %v", err)
	}

	if len(audioData) < 44 {
		t.Error("audio too short to be valid WAV")
	}

	t.Logf("loaded sample audio: %d bytes", len(audioData))
}
