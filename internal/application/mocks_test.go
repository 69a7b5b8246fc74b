package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"capitals/internal/application"
	"capitals/internal/domain"
	"capitals/internal/gazetteer"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	embeddedOnce sync.Once
	embeddedGaz  *gazetteer.Gazetteer
	embeddedErr  error
)

func embeddedGazetteer(t *testing.T) *gazetteer.Gazetteer {
	t.Helper()
	embeddedOnce.Do(func() {
		embeddedGaz, embeddedErr = gazetteer.LoadEmbedded()
	})
	if embeddedErr != nil {
		t.Fatalf("LoadEmbedded: %v", embeddedErr)
	}
	return embeddedGaz
}

// mockModel returns a canned reply or error.
type mockModel struct {
	reply *application.ModelReply
	err   error
	calls int
	mu    sync.Mutex
}

func (m *mockModel) Name() string { return "mock" }

func (m *mockModel) Classify(_ context.Context, _ string) (*application.ModelReply, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.reply, m.err
}

func (m *mockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// oracleModel behaves like a well-behaved language model for utterances of
// the form "what is the capital of X".
type oracleModel struct {
	index application.EntityIndex
}

func (o *oracleModel) Name() string { return "oracle" }

func (o *oracleModel) Classify(_ context.Context, utterance string) (*application.ModelReply, error) {
	const prefix = "what is the capital of "
	lower := strings.ToLower(utterance)
	if !strings.HasPrefix(lower, prefix) {
		return &application.ModelReply{QueryType: string(domain.QueryTypeOutOfScope), Confidence: 0.9}, nil
	}
	entity := strings.TrimRight(utterance[len(prefix):], "?")

	switch matches := o.index.LookupAny(entity); len(matches) {
	case 1:
		return &application.ModelReply{QueryType: string(matches[0].Category.QueryType()), Entity: entity, Confidence: 0.95}, nil
	case 2:
		return &application.ModelReply{QueryType: string(domain.QueryTypeAmbiguous), Entity: entity, Confidence: 0.6}, nil
	default:
		return &application.ModelReply{QueryType: string(domain.QueryTypeCountry), Entity: entity, Confidence: 0.4}, nil
	}
}

// blockingModel ignores its context and waits until released.
type blockingModel struct {
	release chan struct{}
}

func (b *blockingModel) Name() string { return "blocking" }

func (b *blockingModel) Classify(_ context.Context, _ string) (*application.ModelReply, error) {
	<-b.release
	return nil, errors.New("released")
}
