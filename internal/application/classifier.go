package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"capitals/internal/domain"
	"capitals/internal/metrics"
)

const tracerName = "capitals/application"

// DefaultClassifierTimeout bounds the single language-model call.
const DefaultClassifierTimeout = 3 * time.Second

// LanguageModel is the external classification collaborator. Implementations
// must request a schema-constrained reply; they are called at most once per
// utterance and must not retry.
type LanguageModel interface {
	Name() string
	Classify(ctx context.Context, utterance string) (*ModelReply, error)
}

type IntentClassifier interface {
	Classify(ctx context.Context, utterance string) domain.Classification
	Provider() string
}

type Classifier struct {
	model    LanguageModel
	index    EntityIndex
	timeout  time.Duration
	validate *validator.Validate
	logger   *slog.Logger
}

// NewClassifier builds a classifier. A nil model runs the heuristic only.
func NewClassifier(model LanguageModel, index EntityIndex, timeout time.Duration, logger *slog.Logger) *Classifier {
	if timeout <= 0 {
		timeout = DefaultClassifierTimeout
	}
	return &Classifier{
		model:    model,
		index:    index,
		timeout:  timeout,
		validate: validator.New(),
		logger:   logger,
	}
}

func (c *Classifier) Provider() string {
	if c.model == nil {
		return "heuristic"
	}
	return c.model.Name()
}

// Classify never fails: any problem with the model degrades to the heuristic.
func (c *Classifier) Classify(ctx context.Context, utterance string) domain.Classification {
	if strings.TrimSpace(utterance) == "" {
		return domain.Classification{QueryType: domain.QueryTypeOutOfScope, Source: domain.SourceHeuristic}
	}

	if c.model == nil {
		return c.fallback(utterance, domain.FallbackUnavailable, nil)
	}

	reply, err := c.callModel(ctx, utterance)
	if err != nil {
		cause := domain.FallbackModelError
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			cause = domain.FallbackTimeout
		case errors.Is(err, ErrInvalidReply):
			cause = domain.FallbackInvalidReply
		}
		return c.fallback(utterance, cause, err)
	}

	cls, err := c.fromReply(reply)
	if err != nil {
		return c.fallback(utterance, domain.FallbackInvalidReply, err)
	}
	return cls
}

// callModel makes the one bounded attempt. The model runs in its own
// goroutine so a collaborator that ignores ctx still cannot stall the query.
func (c *Classifier) callModel(ctx context.Context, utterance string) (*ModelReply, error) {
	provider := c.model.Name()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "application.Classifier.callModel",
		trace.WithAttributes(
			attribute.String("provider", provider),
			attribute.Int64("timeout_ms", c.timeout.Milliseconds()),
		),
	)
	defer span.End()

	type result struct {
		reply *ModelReply
		err   error
	}
	done := make(chan result, 1)
	start := time.Now()

	go func() {
		reply, err := c.model.Classify(ctx, utterance)
		done <- result{reply: reply, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res = result{err: ctx.Err()}
	}
	if res.err == nil && res.reply == nil {
		res.err = errors.New("empty reply")
	}

	status := "ok"
	if res.err != nil {
		status = "error"
		if errors.Is(res.err, context.DeadlineExceeded) {
			status = "timeout"
		}
		span.RecordError(res.err)
		span.SetStatus(codes.Error, res.err.Error())
	}
	metrics.RecordClassifierCall(provider, status, time.Since(start))

	if res.err != nil {
		return nil, fmt.Errorf("%s classify: %w", provider, res.err)
	}
	return res.reply, nil
}

func (c *Classifier) fromReply(reply *ModelReply) (domain.Classification, error) {
	if err := c.validate.Struct(reply); err != nil {
		return domain.Classification{}, fmt.Errorf("reply does not match schema: %w", err)
	}

	qt := domain.QueryType(reply.QueryType)
	cls := domain.Classification{
		QueryType:  qt,
		Confidence: reply.Confidence,
		Source:     domain.SourceModel,
	}
	if qt == domain.QueryTypeOutOfScope {
		return cls, nil
	}

	entity := strings.TrimSpace(reply.Entity)
	if entity == "" {
		return domain.Classification{}, fmt.Errorf("reply has query_type %s but no entity", qt)
	}
	cls.Entity = &entity
	return cls, nil
}

func (c *Classifier) fallback(utterance string, cause domain.FallbackCause, err error) domain.Classification {
	if err != nil {
		c.logger.Warn("classifier fallback to heuristic",
			"cause", cause,
			"provider", c.Provider(),
			"error", err,
		)
	}
	metrics.RecordFallback(string(cause))

	cls := ClassifyHeuristic(c.index, utterance)
	cls.Fallback = cause
	return cls
}
