// Package planner sizes the solving effort for a question. A generation call
// produces the shared strategy text, while complexity classification and
// solver-count selection are deliberate keyword heuristics so plan shape never
// depends on model output.
package planner

import (
	"context"
	"sort"
	"strings"

	"github.com/quorumlabs/quorum-genkit"
	"github.com/quorumlabs/quorum-genkit/internal/prompt"
)

// Keyword sets for complexity classification. Matched against the lowercased
// question; the simple set wins over the complex set.
var (
	simpleKeywords  = []string{"simple", "what is", "define"}
	complexKeywords = []string{"prove", "derive", "optimize"}
)

// solverCountFor maps complexity to the number of parallel solvers.
var solverCountFor = map[quorum.Complexity]int{
	quorum.ComplexitySimple:  1,
	quorum.ComplexityMedium:  3,
	quorum.ComplexityComplex: 5,
}

// LLMPlanner implements the quorum.Planner interface.
type LLMPlanner struct {
	client         quorum.GenerationClient
	maxSolverCount int
}

// NewLLMPlanner creates a planner backed by the given generation client.
// maxSolverCount caps the plan's solver suggestion regardless of complexity.
func NewLLMPlanner(client quorum.GenerationClient, maxSolverCount int) *LLMPlanner {
	return &LLMPlanner{
		client:         client,
		maxSolverCount: maxSolverCount,
	}
}

// GeneratePlan implements the quorum.Planner interface.
func (p *LLMPlanner) GeneratePlan(ctx context.Context, input quorum.PlannerInput) (*quorum.ExecutionPlan, error) {
	toolNames := make([]string, 0, len(input.ToolSchema))
	for name := range input.ToolSchema {
		toolNames = append(toolNames, name)
	}
	sort.Strings(toolNames)

	req := quorum.GenerationRequest{
		Messages: []quorum.Message{
			{Role: quorum.RoleSystem, Content: prompt.PlannerSystem},
			{Role: quorum.RoleUser, Content: prompt.PlannerUser(input.Question, input.Context, toolNames)},
		},
		Sampling: quorum.SamplingConfig{
			Temperature: 0.3,
			MaxTokens:   512,
		},
	}

	result, err := p.client.Generate(ctx, req)
	if err != nil {
		return nil, quorum.NewPlanningError(err)
	}

	complexity := classifyComplexity(input.Question)

	return &quorum.ExecutionPlan{
		Strategy:             result.Content,
		ToolsNeeded:          toolNames,
		Complexity:           complexity,
		SuggestedSolverCount: p.clampSolverCount(solverCountFor[complexity]),
	}, nil
}

// classifyComplexity buckets the question by keyword. The heuristic is crude
// on purpose: misclassifying as medium only costs extra solvers, never
// correctness.
func classifyComplexity(question string) quorum.Complexity {
	lowered := strings.ToLower(question)

	for _, kw := range simpleKeywords {
		if strings.Contains(lowered, kw) {
			return quorum.ComplexitySimple
		}
	}
	for _, kw := range complexKeywords {
		if strings.Contains(lowered, kw) {
			return quorum.ComplexityComplex
		}
	}
	return quorum.ComplexityMedium
}

func (p *LLMPlanner) clampSolverCount(n int) int {
	if n > p.maxSolverCount {
		return p.maxSolverCount
	}
	return n
}
