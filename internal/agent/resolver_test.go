package agent

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestResolveExactMatch tests a clean model response naming a schema key
func TestResolveExactMatch(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{name: "exact key", response: "memory_usage", want: "memory_usage"},
		{name: "surrounding whitespace", response: "  memory_usage\n", want: "memory_usage"},
		{name: "different case", response: "MEMORY_USAGE", want: "memory_usage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			llm := &scriptedLLM{responses: []string{tt.response}}
			resolver := NewResolver(llm, store)

			got := resolver.Resolve(context.Background(), "memory?")
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestResolveSubstringMatch tests a schema key embedded in model chatter
func TestResolveSubstringMatch(t *testing.T) {
	store := newTestStore(t)
	llm := &scriptedLLM{responses: []string{"The best match here is system_uptime, I believe."}}
	resolver := NewResolver(llm, store)

	got := resolver.Resolve(context.Background(), "how long up?")
	assert.Equal(t, "system_uptime", got)
}

// TestResolveFallback tests the deterministic first-key fallback
func TestResolveFallback(t *testing.T) {
	tests := []struct {
		name string
		llm  *scriptedLLM
	}{
		{name: "unusable response", llm: &scriptedLLM{responses: []string{"none of these fit"}}},
		{name: "empty response", llm: &scriptedLLM{responses: []string{""}}},
		{name: "model error", llm: &scriptedLLM{errs: []error{fmt.Errorf("timeout")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			resolver := NewResolver(tt.llm, store)

			// cpu_usage is first in schema order
			got := resolver.Resolve(context.Background(), "anything")
			assert.Equal(t, "cpu_usage", got)
		})
	}
}

// TestResolveTotality tests that resolution always lands on a schema key
func TestResolveTotality(t *testing.T) {
	responses := []string{
		"cpu_usage",
		"gpu_utilization",
		"something about disks",
		"",
		"CPU_usage or memory_usage, hard to say",
	}

	for _, response := range responses {
		store := newTestStore(t)
		llm := &scriptedLLM{responses: []string{response}}
		resolver := NewResolver(llm, store)

		got := resolver.Resolve(context.Background(), "query")
		assert.True(t, store.Has(got), "response %q resolved to out-of-schema %q", response, got)
	}
}

// TestResolvePromptContents tests the pick-one-name prompt shape
func TestResolvePromptContents(t *testing.T) {
	store := newTestStore(t)
	llm := &scriptedLLM{responses: []string{"cpu_usage"}}
	resolver := NewResolver(llm, store)

	resolver.Resolve(context.Background(), "processor load?")

	prompt := llm.prompts[0]
	assert.Contains(t, prompt, `"processor load?"`)
	assert.Contains(t, prompt, "- cpu_usage\n")
	assert.Contains(t, prompt, "- memory_usage\n")
	assert.Contains(t, prompt, "ONLY the metric name")
}
