// Package prompt owns the prompt templates used by the planner, solver and
// verifier agents. Templates are plain Go code so they can be unit tested
// without a model backend.
package prompt

import (
	"fmt"
	"sort"
	"strings"
)

// MaxPlannerContextRunes bounds the supporting context embedded in the planner
// prompt. The full context still reaches the solvers.
const MaxPlannerContextRunes = 500

// PlannerSystem is the system message for the planning agent.
const PlannerSystem = `You are a planning agent. Analyze the question and create a strategy.

Consider:
- Question complexity (simple/medium/complex)
- Required reasoning steps
- Tools needed (calculator, code execution, etc.)
- Number of solvers recommended

Be concise.`

// VerifierSystem is the system message for the critic agent.
const VerifierSystem = `You are a critic. Verify the answer is:
1. Correct and accurate
2. Well-supported by evidence
3. Complete

Score 0-1. Identify specific issues.`

// VerificationOutputFormat names the JSON contract the verifier's generation
// call must satisfy.
const VerificationOutputFormat = "verification"

// TruncateContext shortens the supporting context for planner consumption.
// Truncation is rune-aware so multi-byte text is never split mid-character.
func TruncateContext(context string) string {
	runes := []rune(context)
	if len(runes) <= MaxPlannerContextRunes {
		return context
	}
	return string(runes[:MaxPlannerContextRunes]) + "..."
}

// PlannerUser builds the user message for the planning agent.
func PlannerUser(question, context string, toolNames []string) string {
	names := make([]string, len(toolNames))
	copy(names, toolNames)
	sort.Strings(names)

	return fmt.Sprintf(`Question: %s

Context: %s

Available tools: [%s]

Create strategy:`, question, TruncateContext(context), strings.Join(names, ", "))
}

// SolverSystem builds the system message for one solver.
// Each solver is addressed by its slot so independent attempts stay distinguishable.
func SolverSystem(solverID int, strategy string) string {
	return fmt.Sprintf(`You are Solver %d. Follow the strategy precisely.

Strategy: %s

Be accurate and cite evidence from context.`, solverID, strategy)
}

// SolverUser builds the user message for one solver.
func SolverUser(question, context string) string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nAnswer:", context, question)
}

// VerifierUser builds the user message for the critic agent. toolEvidence
// summarizes any sandbox runs; it may be empty.
func VerifierUser(question, answer string, toolEvidence []string) string {
	evidence := "[]"
	if len(toolEvidence) > 0 {
		evidence = "[" + strings.Join(toolEvidence, "; ") + "]"
	}

	return fmt.Sprintf(`Question: %s

Answer: %s

Tool results: %s

Verify (JSON format):`, question, answer, evidence)
}
