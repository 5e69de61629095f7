// Package verifier scores candidate answers. Verification is two-phase: any
// fenced code blocks in the answer are executed in the sandbox tool for
// ground-truth evidence, then a critic generation call produces the structured
// verdict.
package verifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/quorumlabs/quorum-genkit"
	"github.com/quorumlabs/quorum-genkit/internal/eventbus"
	"github.com/quorumlabs/quorum-genkit/internal/prompt"
)

// codeFencePattern extracts fenced code blocks from an answer.
var codeFencePattern = regexp.MustCompile("(?s)```(?:python|py)?\\s*\\n(.*?)```")

// verifierMaxTokens bounds the critic's verdict.
const verifierMaxTokens = 512

// LLMVerifier implements the quorum.Verifier interface.
type LLMVerifier struct {
	client   quorum.GenerationClient
	sandbox  quorum.Tool
	eventBus eventbus.EventBus
}

// VerifierOption configures an LLMVerifier.
type VerifierOption func(*LLMVerifier)

// WithSandboxTool attaches a code execution tool. When set, fenced code
// blocks in answers are executed and their output is fed to the critic.
func WithSandboxTool(tool quorum.Tool) VerifierOption {
	return func(v *LLMVerifier) {
		v.sandbox = tool
	}
}

// WithEventBus attaches an event bus for tool execution events.
func WithEventBus(eventBus eventbus.EventBus) VerifierOption {
	return func(v *LLMVerifier) {
		v.eventBus = eventBus
	}
}

// NewLLMVerifier creates a verifier backed by the given generation client.
func NewLLMVerifier(client quorum.GenerationClient, options ...VerifierOption) *LLMVerifier {
	v := &LLMVerifier{client: client}

	for _, option := range options {
		option(v)
	}

	return v
}

// Verify implements the quorum.Verifier interface. The solution is mutated in
// place: score, confidence and status all come from the critic's verdict.
//
// Sandbox failures are recoverable (the critic just sees no tool evidence);
// a failed critic call is fatal and propagates.
func (v *LLMVerifier) Verify(ctx context.Context, solution *quorum.Solution, question string, plan *quorum.ExecutionPlan) error {
	toolEvidence := v.collectToolEvidence(ctx, solution.Content)

	req := quorum.GenerationRequest{
		Messages: []quorum.Message{
			{Role: quorum.RoleSystem, Content: prompt.VerifierSystem},
			{Role: quorum.RoleUser, Content: prompt.VerifierUser(question, solution.Content, toolEvidence)},
		},
		Sampling: quorum.SamplingConfig{
			Temperature: 0.0,
			MaxTokens:   verifierMaxTokens,
		},
		OutputFormat: prompt.VerificationOutputFormat,
	}

	result, err := v.client.Generate(ctx, req)
	if err != nil {
		return quorum.NewVerificationError(err)
	}

	verdict, err := parseVerdict(result.Content)
	if err != nil {
		return quorum.NewVerificationError(err)
	}

	solution.VerificationResult = verdict
	solution.Score = verdict.Score
	solution.Confidence = verdict.Confidence
	if verdict.Passed {
		solution.Status = quorum.SolutionStatusVerified
	} else {
		solution.Status = quorum.SolutionStatusFailed
	}

	return nil
}

// collectToolEvidence runs any fenced code blocks through the sandbox tool.
// Returns one evidence line per block; empty when there is nothing to run or
// no sandbox is configured.
func (v *LLMVerifier) collectToolEvidence(ctx context.Context, content string) []string {
	if v.sandbox == nil || !strings.Contains(content, "```") {
		return nil
	}

	matches := codeFencePattern.FindAllStringSubmatch(content, -1)
	evidence := make([]string, 0, len(matches))

	for i, match := range matches {
		code := strings.TrimSpace(match[1])
		if code == "" {
			continue
		}

		if v.eventBus != nil {
			v.eventBus.Publish(ctx, eventbus.NewEvent(
				eventbus.EventToolExecutionStarted,
				v.sandbox.Name(),
				"LLMVerifier.collectToolEvidence",
				map[string]interface{}{"block": i},
			))
		}

		toolCtx, cancel := context.WithTimeout(ctx, v.sandbox.Timeout())
		output, err := v.sandbox.Execute(toolCtx, map[string]interface{}{"code": code})
		cancel()

		if err != nil {
			// Tool failure is never fatal to verification
			log.Printf("Code execution failed: %v", err)
			if v.eventBus != nil {
				v.eventBus.Publish(ctx, eventbus.NewEvent(
					eventbus.EventToolExecutionFailure,
					err.Error(),
					"LLMVerifier.collectToolEvidence",
					map[string]interface{}{"block": i},
				))
			}
			evidence = append(evidence, fmt.Sprintf("block %d: execution failed: %v", i, err))
			continue
		}

		if v.eventBus != nil {
			v.eventBus.Publish(ctx, eventbus.NewEvent(
				eventbus.EventToolExecutionSuccess,
				v.sandbox.Name(),
				"LLMVerifier.collectToolEvidence",
				map[string]interface{}{"block": i},
			))
		}

		evidence = append(evidence, fmt.Sprintf("block %d: %v", i, output["output"]))
	}

	return evidence
}

// parseVerdict decodes the critic's JSON verdict, tolerating a fenced
// response.
func parseVerdict(content string) (*quorum.VerificationResult, error) {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	var verdict quorum.VerificationResult
	if err := json.Unmarshal([]byte(trimmed), &verdict); err != nil {
		return nil, fmt.Errorf("failed to parse verification verdict: %w", err)
	}

	if verdict.Score < 0 || verdict.Score > 1 {
		return nil, fmt.Errorf("verification score %.2f out of range [0, 1]", verdict.Score)
	}

	return &verdict, nil
}
