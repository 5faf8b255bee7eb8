package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/nlmetrics/nlmetrics/internal/observability"
	"github.com/nlmetrics/nlmetrics/internal/schema"
)

// Resolver repairs intents whose metric is not a schema key. It is total:
// it always returns an in-schema metric name, trading precision for
// availability via its first-key fallback.
type Resolver struct {
	llm    generator
	store  *schema.Store
	logger *observability.Logger
}

// NewResolver creates a metric resolver
func NewResolver(llm generator, store *schema.Store) *Resolver {
	return &Resolver{
		llm:    llm,
		store:  store,
		logger: observability.NewLogger("metric-resolver"),
	}
}

// Resolve picks the schema metric closest to the user's question.
// Resolution order, first match wins:
//  1. exact case-insensitive match of the trimmed model response;
//  2. first schema key appearing case-insensitively anywhere in the response;
//  3. the first key in schema order.
func (r *Resolver) Resolve(ctx context.Context, query string) string {
	names := r.store.Names()

	raw, err := r.llm.Generate(ctx, r.buildPrompt(query, names))
	if err != nil {
		// An unusable model answer degrades to the deterministic fallback
		r.logger.Warn(ctx, "Metric resolution call failed, using fallback", map[string]interface{}{
			"error": err.Error(),
		})
		return names[0]
	}

	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if r.store.Has(trimmed) {
		return trimmed
	}

	lowerRaw := strings.ToLower(raw)
	for _, name := range names {
		if strings.Contains(lowerRaw, strings.ToLower(name)) {
			return name
		}
	}

	return names[0]
}

// buildPrompt issues the narrow pick-one-name request
func (r *Resolver) buildPrompt(query string, names []string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Analyze this user query: %q\n\n", query))
	sb.WriteString("Available metrics:\n")
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("- %s\n", name))
	}
	sb.WriteString("\nWhich metric from the list above is most relevant to the user's question?\n")
	sb.WriteString("Respond with ONLY the metric name, nothing else.\n")

	return sb.String()
}
