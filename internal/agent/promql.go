package agent

import (
	"fmt"
	"strings"

	"github.com/nlmetrics/nlmetrics/internal/errors"
	"github.com/nlmetrics/nlmetrics/internal/schema"
)

// Synthesizer deterministically maps a validated intent onto a PromQL string.
// It is a pure function of (intent, schema): no model calls, no hidden state.
type Synthesizer struct {
	store *schema.Store
}

// NewSynthesizer creates a query synthesizer over the given schema
func NewSynthesizer(store *schema.Store) *Synthesizer {
	return &Synthesizer{store: store}
}

// Synthesize builds the backend query for an intent.
// The metric's template has its default time-range token substituted when the
// intent asks for a different range (a single textual substitution, only the
// default token is recognized), then the query is wrapped with the intent's
// aggregation function. An aggregation outside {avg,max,min,sum} returns the
// templated query unwrapped; that pass-through is a documented leniency, not
// an error.
func (s *Synthesizer) Synthesize(intent *Intent) (string, error) {
	if intent.Metric == "" {
		return "", errors.NewUnknownMetricError("(none)")
	}

	spec, ok := s.store.Get(intent.Metric)
	if !ok {
		return "", errors.NewUnknownMetricError(intent.Metric)
	}

	query := spec.QueryTemplate
	if intent.TimeRange != DefaultTimeRange && containsDefaultToken(query) {
		query = replaceDefaultToken(query, intent.TimeRange)
	}

	switch intent.Aggregation {
	case AggAvg, AggMax, AggMin, AggSum:
		return fmt.Sprintf("%s(%s)", intent.Aggregation, query), nil
	default:
		return query, nil
	}
}

func containsDefaultToken(template string) bool {
	return strings.Contains(template, schema.DefaultRangeToken)
}

func replaceDefaultToken(template, timeRange string) string {
	return strings.ReplaceAll(template, schema.DefaultRangeToken, fmt.Sprintf("[%s]", timeRange))
}
