// Package schema holds the static registry of queryable metrics.
//
// The registry is loaded once at startup from a JSON or YAML document and is
// read-only for the process lifetime.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nlmetrics/nlmetrics/internal/errors"
)

// DefaultRangeToken is the time-range placeholder every query template carries.
const DefaultRangeToken = "[5m]"

// MetricSpec describes a single queryable metric
type MetricSpec struct {
	Name          string `json:"name" yaml:"-"`
	Description   string `json:"description" yaml:"description"`
	Unit          string `json:"unit,omitempty" yaml:"unit,omitempty"`
	QueryTemplate string `json:"example_query" yaml:"example_query"`
}

// document is the on-disk schema shape: all metrics grouped under one key
type document struct {
	Metrics map[string]MetricSpec `json:"metrics" yaml:"metrics"`
}

// Store is an immutable snapshot of the metric registry
type Store struct {
	metrics map[string]MetricSpec
	names   []string
}

// Load reads the schema document at path and builds a Store.
// Fails with SCHEMA_MISSING when the file cannot be read and SCHEMA_MALFORMED
// when the top-level metrics mapping is absent or empty.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewSchemaMissingError(err, path)
	}

	var doc document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSchemaMalformed, "Invalid schema format").
			WithDetails(fmt.Sprintf("Schema file '%s' could not be decoded", path))
	}

	if len(doc.Metrics) == 0 {
		return nil, errors.NewSchemaMalformedError(path)
	}

	metrics := make(map[string]MetricSpec, len(doc.Metrics))
	names := make([]string, 0, len(doc.Metrics))
	for name, spec := range doc.Metrics {
		spec.Name = name
		metrics[name] = spec
		names = append(names, name)
	}
	// Map iteration order is randomized; a sorted name list keeps the
	// resolver's first-key fallback deterministic across runs.
	sort.Strings(names)

	return &Store{metrics: metrics, names: names}, nil
}

// Get returns the spec for a metric name
func (s *Store) Get(name string) (MetricSpec, bool) {
	spec, ok := s.metrics[name]
	return spec, ok
}

// Has reports whether name is a known metric
func (s *Store) Has(name string) bool {
	_, ok := s.metrics[name]
	return ok
}

// Names returns the metric names in stable load order
func (s *Store) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of metrics in the registry
func (s *Store) Len() int {
	return len(s.names)
}

// Specs returns all metric specs in stable order
func (s *Store) Specs() []MetricSpec {
	out := make([]MetricSpec, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, s.metrics[name])
	}
	return out
}

// Describe renders a human-readable listing of the available metrics
func (s *Store) Describe() string {
	var sb strings.Builder
	sb.WriteString("Available metrics:\n")
	for _, name := range s.names {
		spec := s.metrics[name]
		sb.WriteString(fmt.Sprintf("• %s (%s)\n", spec.Description, name))
	}
	return strings.TrimRight(sb.String(), "\n")
}
