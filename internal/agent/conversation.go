package agent

import (
	"sync"
	"time"

	"github.com/nlmetrics/nlmetrics/internal/grafana"
)

// Turn records one completed pipeline pass
type Turn struct {
	Query     string                `json:"query"`
	Intent    *Intent               `json:"intent"`
	PromQL    string                `json:"promql"`
	Results   []grafana.QueryResult `json:"results"`
	Answer    string                `json:"answer"`
	Model     string                `json:"model_used"`
	Timestamp time.Time             `json:"timestamp"`
}

// ConversationLog is an append-only, process-lifetime record of successful
// turns. Turns are never evicted; unbounded growth is accepted. The mutex
// exists only for concurrent hosts such as the HTTP server.
type ConversationLog struct {
	mu    sync.Mutex
	turns []Turn
}

// NewConversationLog creates an empty log
func NewConversationLog() *ConversationLog {
	return &ConversationLog{}
}

// Append records a turn
func (cl *ConversationLog) Append(turn Turn) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.turns = append(cl.turns, turn)
}

// Turns returns a copy of the recorded turns in order
func (cl *ConversationLog) Turns() []Turn {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	out := make([]Turn, len(cl.turns))
	copy(out, cl.turns)
	return out
}

// Len returns the number of recorded turns
func (cl *ConversationLog) Len() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.turns)
}
