package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/nlmetrics/nlmetrics/internal/errors"
	"github.com/nlmetrics/nlmetrics/internal/grafana"
	"github.com/nlmetrics/nlmetrics/internal/schema"
)

// NoDataAnswer is returned without a model call when the query matched nothing.
const NoDataAnswer = "No data found for this metric and time range."

// Formatter turns a result set plus intent into a short conversational answer
type Formatter struct {
	llm   generator
	store *schema.Store
}

// NewFormatter creates an answer formatter
func NewFormatter(llm generator, store *schema.Store) *Formatter {
	return &Formatter{
		llm:   llm,
		store: store,
	}
}

// Format renders the first result as a one-or-two sentence answer.
// Percent-unit metrics are scaled: the backend reports fractions in [0,1],
// the display value is multiplied by 100. The model's text is returned
// trimmed but otherwise verbatim.
func (f *Formatter) Format(ctx context.Context, intent *Intent, results []grafana.QueryResult) (string, error) {
	if len(results) == 0 {
		return NoDataAnswer, nil
	}

	spec, ok := f.store.Get(intent.Metric)
	if !ok {
		return "", errors.NewUnknownMetricError(intent.Metric)
	}

	value := results[0].Value
	if spec.Unit == "%" {
		value *= 100
	}
	display := FormatValue(value, spec.Unit)

	prompt := f.buildPrompt(intent, spec, display)

	answer, err := f.llm.Generate(ctx, prompt)
	if err != nil {
		return "", errors.NewModelRequestError(err)
	}

	return strings.TrimSpace(answer), nil
}

// FormatValue renders a display value with two decimals and the unit symbol
func FormatValue(value float64, unit string) string {
	return fmt.Sprintf("%.2f%s", value, unit)
}

func (f *Formatter) buildPrompt(intent *Intent, spec schema.MetricSpec, display string) string {
	var sb strings.Builder

	sb.WriteString("You are generating a natural, conversational response for a system monitoring query.\n\n")
	sb.WriteString(fmt.Sprintf("User asked: %q\n", intent.Text))
	sb.WriteString(fmt.Sprintf("Metric: %s\n", spec.Description))
	sb.WriteString(fmt.Sprintf("Aggregation: %s\n", capitalize(intent.Aggregation)))
	sb.WriteString(fmt.Sprintf("Value: %s\n", display))
	sb.WriteString(fmt.Sprintf("Time range: %s\n\n", intent.TimeRange))

	sb.WriteString("Generate a brief, helpful response (1-2 sentences) that:\n")
	sb.WriteString("1. Directly answers the user's question\n")
	sb.WriteString("2. Provides the specific value with appropriate context\n")
	sb.WriteString("3. Uses natural language (avoid technical jargon)\n\n")

	sb.WriteString("Example: \"The current average CPU usage is 15.6%, which indicates normal system load.\"\n\n")
	sb.WriteString("Respond with only the natural language answer, no other text.\n")

	return sb.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
