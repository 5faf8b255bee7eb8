package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/nlmetrics/nlmetrics/internal/errors"
	"github.com/nlmetrics/nlmetrics/internal/schema"
)

// Aggregation functions the synthesizer knows how to wrap
const (
	AggAvg = "avg"
	AggMax = "max"
	AggMin = "min"
	AggSum = "sum"
)

// Defaults applied when the model omits or mangles a field
const (
	DefaultAggregation = AggAvg
	DefaultTimeRange   = "5m"
)

var validAggregations = map[string]bool{
	AggAvg: true,
	AggMax: true,
	AggMin: true,
	AggSum: true,
}

var validTimeRanges = map[string]bool{
	"5m":  true,
	"15m": true,
	"1h":  true,
	"6h":  true,
	"24h": true,
}

// jsonObjectPattern locates the JSON object inside free-form model output,
// tolerating commentary before and after it.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// Intent is the structured, schema-validated representation of a query.
// Metric is empty when the model could not map the question to any metric.
// Instances are treated as immutable; the resolver produces adjusted copies.
type Intent struct {
	Metric      string  `json:"metric"`
	Aggregation string  `json:"aggregation"`
	TimeRange   string  `json:"time_range"`
	Text        string  `json:"intent"`
	Confidence  float64 `json:"confidence"`
}

// rawIntent is the wire shape decoded from model output; metric is nullable there
type rawIntent struct {
	Metric      *string `json:"metric"`
	Aggregation string  `json:"aggregation"`
	TimeRange   string  `json:"time_range"`
	Intent      string  `json:"intent"`
	Confidence  float64 `json:"confidence"`
}

// Extractor converts free-text queries into validated intents
type Extractor struct {
	llm      generator
	store    *schema.Store
	resolver *Resolver
}

// generator is the narrow slice of the model client the pipeline needs
type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewExtractor creates an intent extractor backed by the given model and schema
func NewExtractor(llm generator, store *schema.Store, resolver *Resolver) *Extractor {
	return &Extractor{
		llm:      llm,
		store:    store,
		resolver: resolver,
	}
}

// Extract parses a natural-language query into an Intent.
// Defaults are enforced regardless of what the model returns: aggregation
// falls back to avg, time range to 5m, and an unmappable metric stays empty
// rather than being fabricated. A metric outside the schema is replaced by
// the resolver and costs a confidence penalty.
func (e *Extractor) Extract(ctx context.Context, query string) (*Intent, error) {
	prompt := e.buildPrompt(query)

	raw, err := e.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, errors.NewModelRequestError(err)
	}

	jsonStr := jsonObjectPattern.FindString(raw)
	if jsonStr == "" {
		return nil, errors.NewNoStructuredOutputError(raw)
	}

	var decoded rawIntent
	if err := json.Unmarshal([]byte(jsonStr), &decoded); err != nil {
		return nil, errors.NewMalformedIntentJSONError(err)
	}

	intent := &Intent{
		Aggregation: decoded.Aggregation,
		TimeRange:   decoded.TimeRange,
		Text:        decoded.Intent,
		Confidence:  decoded.Confidence,
	}
	if decoded.Metric != nil {
		intent.Metric = *decoded.Metric
	}
	applyDefaults(intent)

	// A named metric that is not in the schema is never accepted as-is
	if intent.Metric != "" && !e.store.Has(intent.Metric) {
		resolved := e.resolver.Resolve(ctx, query)
		adjusted := *intent
		adjusted.Metric = resolved
		adjusted.Confidence = penalizeConfidence(intent.Confidence)
		return &adjusted, nil
	}

	return intent, nil
}

// applyDefaults normalizes fields the model omitted or invented
func applyDefaults(intent *Intent) {
	if !validAggregations[intent.Aggregation] {
		intent.Aggregation = DefaultAggregation
	}
	if !validTimeRanges[intent.TimeRange] {
		intent.TimeRange = DefaultTimeRange
	}
	if intent.Confidence < 0 {
		intent.Confidence = 0
	}
	if intent.Confidence > 1 {
		intent.Confidence = 1
	}
}

// penalizeConfidence applies the repair penalty with a floor of 0.3
func penalizeConfidence(confidence float64) float64 {
	penalized := confidence - 0.2
	if penalized < 0.3 {
		return 0.3
	}
	return penalized
}

// buildPrompt enumerates the known metrics and anchors the output format
// with two worked examples.
func (e *Extractor) buildPrompt(query string) string {
	var sb strings.Builder

	sb.WriteString("You are a system monitoring assistant. Parse the following user query into a structured JSON format.\n\n")

	sb.WriteString("Available metrics:\n")
	for _, spec := range e.store.Specs() {
		unit := spec.Unit
		if unit == "" {
			unit = "N/A"
		}
		sb.WriteString(fmt.Sprintf("- %s: %s (unit: %s)\n", spec.Name, spec.Description, unit))
	}

	sb.WriteString(fmt.Sprintf("\nUser query: %q\n\n", query))

	sb.WriteString("Extract the following information and respond with ONLY a valid JSON object:\n")
	sb.WriteString("{\n")
	sb.WriteString("    \"metric\": \"exact_metric_name_from_list_above\",\n")
	sb.WriteString("    \"aggregation\": \"avg|max|min|sum\",\n")
	sb.WriteString("    \"time_range\": \"5m|15m|1h|6h|24h\",\n")
	sb.WriteString("    \"intent\": \"brief_description_of_what_user_wants\",\n")
	sb.WriteString("    \"confidence\": 0.0-1.0\n")
	sb.WriteString("}\n\n")

	sb.WriteString("Rules:\n")
	sb.WriteString("1. If no specific aggregation is mentioned, use \"avg\"\n")
	sb.WriteString("2. If no time range is mentioned, use \"5m\"\n")
	sb.WriteString("3. Match the closest metric from the available list\n")
	sb.WriteString("4. Set confidence based on how certain you are about the mapping\n")
	sb.WriteString("5. If you can't determine the metric, set it to null\n\n")

	sb.WriteString("Examples:\n")
	sb.WriteString(`- "What's the CPU usage?" -> {"metric": "cpu_usage", "aggregation": "avg", "time_range": "5m", "intent": "get current CPU usage", "confidence": 0.9}` + "\n")
	sb.WriteString(`- "Show me maximum memory consumption in the last hour" -> {"metric": "memory_usage", "aggregation": "max", "time_range": "1h", "intent": "get peak memory usage", "confidence": 0.95}` + "\n\n")

	sb.WriteString("Respond with ONLY the JSON object, no other text.\n")

	return sb.String()
}
