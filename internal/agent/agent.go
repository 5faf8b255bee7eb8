// Package agent implements the query-intent pipeline: a natural-language
// monitoring question is parsed into a structured intent, mapped onto a
// PromQL query, executed against the metrics backend, and rendered back
// into a one-or-two sentence answer.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nlmetrics/nlmetrics/internal/grafana"
	"github.com/nlmetrics/nlmetrics/internal/observability"
	"github.com/nlmetrics/nlmetrics/internal/schema"
)

// Executor runs a synthesized query against the metrics backend
type Executor interface {
	Execute(ctx context.Context, promql string) ([]grafana.QueryResult, error)
}

// ModelClient is the generation capability the pipeline depends on
type ModelClient interface {
	generator
	Model() string
}

// Agent owns the full pipeline and its append-only conversation log.
// It is constructed explicitly and passed by handle; initialization order is
// schema first, then model selection, then the agent itself.
type Agent struct {
	store       *schema.Store
	llm         ModelClient
	executor    Executor
	extractor   *Extractor
	synthesizer *Synthesizer
	formatter   *Formatter
	log         *ConversationLog
	logger      *observability.Logger
}

// New wires the pipeline components around a loaded schema, a selected model
// and a backend executor.
func New(store *schema.Store, llm ModelClient, executor Executor) *Agent {
	resolver := NewResolver(llm, store)

	return &Agent{
		store:       store,
		llm:         llm,
		executor:    executor,
		extractor:   NewExtractor(llm, store, resolver),
		synthesizer: NewSynthesizer(store),
		formatter:   NewFormatter(llm, store),
		log:         NewConversationLog(),
		logger:      observability.NewLogger("agent"),
	}
}

// Schema returns the read-only metric registry
func (a *Agent) Schema() *schema.Store {
	return a.store
}

// Model returns the identifier of the selected model
func (a *Agent) Model() string {
	return a.llm.Model()
}

// History returns a copy of the conversation log
func (a *Agent) History() []Turn {
	return a.log.Turns()
}

// ProcessQuery runs one full pipeline turn. It never returns an error: every
// stage failure is downgraded here, and only here, into a single user-facing
// sentence. Each turn is synchronous and single-shot; a failed call fails
// the turn.
func (a *Agent) ProcessQuery(ctx context.Context, query string) string {
	start := time.Now()
	var errorType string

	a.logger.Info(ctx, "Processing query", map[string]interface{}{
		"query": query,
	})

	answer, err := a.runPipeline(ctx, query, &errorType)
	duration := time.Since(start)
	observability.RecordTurnMetrics(duration, err == nil, errorType)

	if err != nil {
		a.logger.Error(ctx, "Query processing failed", err, map[string]interface{}{
			"query":       query,
			"duration_ms": duration.Milliseconds(),
			"error_type":  errorType,
		})
		return fmt.Sprintf("I encountered an error while processing your query: %s", err.Error())
	}

	a.logger.Info(ctx, "Query processed successfully", map[string]interface{}{
		"query":       query,
		"duration_ms": duration.Milliseconds(),
	})
	return answer
}

// runPipeline sequences extract -> synthesize -> execute -> format and logs
// the turn on success.
func (a *Agent) runPipeline(ctx context.Context, query string, errorType *string) (string, error) {
	intent, err := a.extractor.Extract(ctx, query)
	if err != nil {
		*errorType = "intent_extraction"
		return "", err
	}

	a.logger.Debug(ctx, "Parsed intent", map[string]interface{}{
		"metric":      intent.Metric,
		"aggregation": intent.Aggregation,
		"time_range":  intent.TimeRange,
		"confidence":  intent.Confidence,
	})

	// The resolver's fallback makes an empty metric unreachable under current
	// contracts; the guard is kept deliberately rather than silently removed.
	if intent.Metric == "" {
		return a.unknownMetricAnswer(), nil
	}

	promql, err := a.synthesizer.Synthesize(intent)
	if err != nil {
		*errorType = "query_synthesis"
		return "", err
	}

	a.logger.Info(ctx, "Generated PromQL", map[string]interface{}{
		"promql": promql,
	})

	execStart := time.Now()
	results, err := a.executor.Execute(ctx, promql)
	observability.RecordBackendMetrics(time.Since(execStart), err)
	if err != nil {
		*errorType = "backend_execution"
		return "", err
	}

	a.logger.Info(ctx, "Query executed", map[string]interface{}{
		"result_count": len(results),
	})

	answer, err := a.formatter.Format(ctx, intent, results)
	if err != nil {
		*errorType = "answer_formatting"
		return "", err
	}

	a.log.Append(Turn{
		Query:     query,
		Intent:    intent,
		PromQL:    promql,
		Results:   results,
		Answer:    answer,
		Model:     a.llm.Model(),
		Timestamp: time.Now(),
	})

	return answer, nil
}

// unknownMetricAnswer suggests known metrics when no metric could be mapped
func (a *Agent) unknownMetricAnswer() string {
	descriptions := make([]string, 0, a.store.Len())
	for _, spec := range a.store.Specs() {
		descriptions = append(descriptions, strings.ToLower(spec.Description))
	}
	return fmt.Sprintf("I couldn't understand which metric you're asking about. Please try asking about %s.",
		strings.Join(descriptions, ", "))
}
