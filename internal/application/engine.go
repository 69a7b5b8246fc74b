package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"capitals/internal/domain"
	"capitals/internal/metrics"
)

// QueryProcessor is the inbound contract used by the HTTP API and the voice
// pipeline.
type QueryProcessor interface {
	Process(ctx context.Context, text string) domain.Response
}

// Engine wires classification, resolution and composition. It holds no
// per-query state and is safe for concurrent use.
type Engine struct {
	classifier IntentClassifier
	resolver   *Resolver
	index      EntityIndex
	logger     *slog.Logger
}

func NewEngine(classifier IntentClassifier, index EntityIndex, logger *slog.Logger) *Engine {
	return &Engine{
		classifier: classifier,
		resolver:   NewResolver(index),
		index:      index,
		logger:     logger,
	}
}

func (e *Engine) Process(ctx context.Context, text string) domain.Response {
	queryID := uuid.NewString()
	start := time.Now()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "application.Engine.Process",
		trace.WithAttributes(attribute.String("query_id", queryID)),
	)
	defer span.End()

	cls := e.classifier.Classify(ctx, text)
	res := e.resolver.Resolve(cls)
	resp := Compose(res)

	outcome := "success"
	if !resp.Success {
		outcome = string(resp.Reason)
	}
	metrics.RecordQuery(string(resp.QueryType), outcome, time.Since(start))

	span.SetAttributes(
		attribute.String("query_type", string(resp.QueryType)),
		attribute.Bool("success", resp.Success),
		attribute.String("classifier_source", string(cls.Source)),
	)

	e.logger.Info("processed query",
		"query_id", queryID,
		"query_type", resp.QueryType,
		"success", resp.Success,
		"reason", resp.Reason,
		"classifier_source", cls.Source,
		"fallback", cls.Fallback,
		"confidence", cls.Confidence,
	)

	return resp
}

type EntityListing struct {
	Countries []string `json:"countries"`
	States    []string `json:"states"`
}

func (e *Engine) Entities() EntityListing {
	return EntityListing{
		Countries: e.index.Names(domain.CategoryCountry),
		States:    e.index.Names(domain.CategoryState),
	}
}

type Status struct {
	Classifier string `json:"classifier"`
	Countries  int    `json:"countries"`
	States     int    `json:"states"`
}

func (e *Engine) Status() Status {
	return Status{
		Classifier: e.classifier.Provider(),
		Countries:  e.index.Count(domain.CategoryCountry),
		States:     e.index.Count(domain.CategoryState),
	}
}
