// Command chat runs the agent pipeline from a terminal: a handful of demo
// queries first, then an interactive prompt loop.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/nlmetrics/nlmetrics/internal/agent"
	"github.com/nlmetrics/nlmetrics/internal/config"
	"github.com/nlmetrics/nlmetrics/internal/grafana"
	"github.com/nlmetrics/nlmetrics/internal/llm"
	"github.com/nlmetrics/nlmetrics/internal/schema"
)

var demoQueries = []string{
	"What's the current CPU usage?",
	"Show me maximum memory usage in the last hour",
	"How long has the system been running?",
	"What's the GPU utilization?",
	"Give me the average CPU usage",
}

func main() {
	ctx := context.Background()

	cfg := config.NewDefaultLoader().MustLoad(ctx)
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	fmt.Println("Initializing metrics agent...")

	store, err := schema.Load(cfg.Schema.Path)
	if err != nil {
		log.Fatal("Failed to load schema: ", err)
	}

	modelClient, err := llm.NewClientWithFallback(ctx, cfg.Gemini.APIKey, cfg.Gemini.Models)
	if err != nil {
		log.Fatal("Failed to initialize model client: ", err)
	}
	fmt.Printf("Using model %s\n", modelClient.Model())

	grafanaClient := grafana.NewClient(
		cfg.Grafana.URL,
		cfg.Grafana.APIKey,
		cfg.Grafana.DatasourceID,
		cfg.Grafana.Timeout,
	)

	a := agent.New(store, modelClient, grafanaClient)

	fmt.Println(store.Describe())
	fmt.Println("\n" + strings.Repeat("=", 50) + "\n")

	for i, query := range demoQueries {
		fmt.Printf("Query %d: %s\n", i+1, query)
		fmt.Printf("Answer: %s\n", a.ProcessQuery(ctx, query))
		fmt.Println(strings.Repeat("-", 30))
	}

	fmt.Println("\nEntering interactive mode. Type 'quit' to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nYour question: ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(input) {
		case "quit", "exit", "q":
			return
		case "":
			continue
		}

		fmt.Printf("Agent: %s\n", a.ProcessQuery(ctx, input))
	}
}
