package llm

import (
	"context"
)

// Client is the text-in/text-out boundary to the generation model.
// Output is free text; callers own all parsing and validation.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}
