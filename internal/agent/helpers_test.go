package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nlmetrics/nlmetrics/internal/grafana"
	"github.com/nlmetrics/nlmetrics/internal/schema"
)

// scriptedLLM returns canned responses in order and records every prompt
type scriptedLLM struct {
	responses []string
	errs      []error
	prompts   []string
	model     string
}

func (s *scriptedLLM) Generate(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	i := len(s.prompts) - 1
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	var resp string
	if i < len(s.responses) {
		resp = s.responses[i]
	}
	return resp, err
}

func (s *scriptedLLM) Model() string {
	if s.model == "" {
		return "gemma-3-27b-it"
	}
	return s.model
}

// fakeExecutor records the query it received and returns fixed results
type fakeExecutor struct {
	promql  string
	results []grafana.QueryResult
	err     error
}

func (f *fakeExecutor) Execute(_ context.Context, promql string) ([]grafana.QueryResult, error) {
	f.promql = promql
	return f.results, f.err
}

// newTestStore builds a three-metric registry; names sort to
// cpu_usage, memory_usage, system_uptime.
func newTestStore(t *testing.T) *schema.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.json")
	content := `{
		"metrics": {
			"cpu_usage": {
				"description": "CPU usage",
				"unit": "%",
				"example_query": "rate(node_cpu_seconds_total[5m])"
			},
			"memory_usage": {
				"description": "Memory usage",
				"unit": "%",
				"example_query": "node_memory_used_ratio"
			},
			"system_uptime": {
				"description": "System uptime",
				"unit": "s",
				"example_query": "time() - node_boot_time_seconds"
			}
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	store, err := schema.Load(path)
	require.NoError(t, err)
	return store
}
