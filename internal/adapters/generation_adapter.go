// Package adapters bridges external systems (Genkit models, Go functions,
// caches) to the quorum component interfaces.
package adapters

import (
	"context"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/quorumlabs/quorum-genkit"
)

// GenkitGenerationClient implements the quorum.GenerationClient interface on
// top of a Genkit model. All planner, solver and verifier calls flow through
// here, so sampling parameters map 1:1 onto the model config.
type GenkitGenerationClient struct {
	g         *genkit.Genkit
	modelName string
}

// GenerationOption configures a GenkitGenerationClient.
type GenerationOption func(*GenkitGenerationClient)

// WithModelName overrides the default model configured on the Genkit instance.
func WithModelName(name string) GenerationOption {
	return func(c *GenkitGenerationClient) {
		c.modelName = name
	}
}

// NewGenkitGenerationClient creates a generation client backed by the given
// Genkit instance.
func NewGenkitGenerationClient(g *genkit.Genkit, options ...GenerationOption) *GenkitGenerationClient {
	client := &GenkitGenerationClient{g: g}

	for _, option := range options {
		option(client)
	}

	return client
}

// Generate implements the quorum.GenerationClient interface.
func (c *GenkitGenerationClient) Generate(ctx context.Context, req quorum.GenerationRequest) (*quorum.GenerationResult, error) {
	if c.g == nil {
		return nil, quorum.NewConfigurationError("genkit instance is not configured", nil)
	}

	messages := make([]*ai.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case quorum.RoleSystem:
			messages = append(messages, ai.NewSystemTextMessage(msg.Content))
		case quorum.RoleModel:
			messages = append(messages, ai.NewModelTextMessage(msg.Content))
		default:
			messages = append(messages, ai.NewUserTextMessage(msg.Content))
		}
	}

	opts := []ai.GenerateOption{
		ai.WithMessages(messages...),
		ai.WithConfig(&ai.GenerationCommonConfig{
			Temperature:     req.Sampling.Temperature,
			TopP:            req.Sampling.TopP,
			MaxOutputTokens: req.Sampling.MaxTokens,
		}),
	}

	if c.modelName != "" {
		opts = append(opts, ai.WithModelName(c.modelName))
	}

	// A named output format means the caller will JSON-parse the content.
	if req.OutputFormat != "" {
		opts = append(opts, ai.WithOutputFormat(ai.OutputFormatJSON))
	}

	resp, err := genkit.Generate(ctx, c.g, opts...)
	if err != nil {
		return nil, quorum.NewGenerationError("generation", err)
	}

	result := &quorum.GenerationResult{
		Content:   resp.Text(),
		ModelUsed: c.modelName,
	}

	if resp.Usage != nil {
		result.Usage = map[string]interface{}{
			"input_tokens":  resp.Usage.InputTokens,
			"output_tokens": resp.Usage.OutputTokens,
			"total_tokens":  resp.Usage.TotalTokens,
		}
	}

	return result, nil
}
