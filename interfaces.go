package quorum

import (
	"context"
	"time"
)

// GenerationClient is the text-generation backend behind every component.
// Implementations own their retry/backoff policy and any structured-output
// parsing the backend requires; the orchestration core never retries.
type GenerationClient interface {
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
}

// Planner produces an ExecutionPlan from the question and supporting context.
type Planner interface {
	GeneratePlan(ctx context.Context, input PlannerInput) (*ExecutionPlan, error)
}

// SolverPool runs N independent solver attempts concurrently, one per
// solverId in [0, plan.SuggestedSolverCount).
//
// The returned slice is ordered by solverId regardless of completion order.
// Failing solvers are dropped, never retried; an empty slice is a valid
// return and means the whole round failed.
type SolverPool interface {
	SolveParallel(ctx context.Context, question, context_ string, plan *ExecutionPlan, round int) ([]*Solution, error)
}

// Verifier scores a single solution for correctness and support, mutating it
// in place. Verification of one solution never depends on another's outcome.
type Verifier interface {
	Verify(ctx context.Context, solution *Solution, question string, plan *ExecutionPlan) error
}

// Judge deterministically picks the best solution among a scored set.
type Judge interface {
	Select(solutions []*Solution) (*Solution, error)
}

// Tool represents a named capability the verifier may consult, such as
// sandboxed code execution.
type Tool interface {
	// Execute performs the tool's action. Callers bound the call with the
	// tool's own Timeout; failures are non-fatal to the caller.
	Execute(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error)

	// Schema returns a description of the tool, used by the planner prompt.
	// Standard keys include "description", "parameters" and "returns".
	Schema() map[string]interface{}

	// Validate checks if the provided input is valid for this tool.
	Validate(input map[string]interface{}) error

	// Name returns the tool's name.
	Name() string

	// Timeout is the per-call budget owned by this tool.
	Timeout() time.Duration
}

// Cache provides storage for frequently accessed data, like generated plans.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}) error
}
