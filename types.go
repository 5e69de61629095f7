package quorum

import (
	"time"
)

// Complexity classifies how hard the planner believes a question is.
type Complexity string

const (
	// ComplexitySimple indicates a direct factual question answerable by a single solver.
	ComplexitySimple Complexity = "simple"
	// ComplexityMedium indicates a question that benefits from a few independent attempts.
	ComplexityMedium Complexity = "medium"
	// ComplexityComplex indicates multi-step reasoning that warrants the full solver fan-out.
	ComplexityComplex Complexity = "complex"
)

// SolutionStatus represents the possible states of a solution.
type SolutionStatus string

const (
	// SolutionStatusPending indicates the solution has been generated but not yet verified.
	SolutionStatusPending SolutionStatus = "pending"
	// SolutionStatusVerified indicates the verifier accepted the solution.
	SolutionStatusVerified SolutionStatus = "verified"
	// SolutionStatusFailed indicates the verifier rejected the solution.
	SolutionStatusFailed SolutionStatus = "failed"
	// SolutionStatusRejected indicates a verified solution that was disqualified by the
	// judge when its round missed the threshold and a new round was started.
	SolutionStatusRejected SolutionStatus = "rejected"
)

// DefaultSolverConfidence is assigned to freshly generated solutions until the
// verifier replaces it.
const DefaultSolverConfidence = 0.7

// ExecutionPlan is the planner's output: a strategy shared by every solver in
// the solve, plus solver-count guidance. It is created once per solve and
// never mutated afterwards.
type ExecutionPlan struct {
	Strategy             string     `json:"strategy"`
	ToolsNeeded          []string   `json:"tools_needed"`
	Complexity           Complexity `json:"complexity"`
	SuggestedSolverCount int        `json:"suggested_solver_count"`
}

// VerificationResult is the structured verdict attached to exactly one solution.
type VerificationResult struct {
	Passed     bool     `json:"passed"`
	Score      float64  `json:"score"`
	Issues     []string `json:"issues"`
	Confidence float64  `json:"confidence"`
}

// Solution is one solver's answer together with its verification state.
//
// A solution is owned by the round that created it: each solver builds its own
// solution concurrently, and afterwards the orchestrator mutates it from a
// single goroutine (verification, judging), so no locking is needed.
type Solution struct {
	Content string `json:"content"`

	// SolverID is the 0-based index within the generation round. It is not
	// unique across rounds.
	SolverID int `json:"solver_id"`

	Confidence         float64             `json:"confidence"`
	Score              float64             `json:"score"`
	Status             SolutionStatus      `json:"status"`
	VerificationResult *VerificationResult `json:"verification_result,omitempty"`

	// ExecutionTime is the wall-clock duration of this solver's own generation call.
	ExecutionTime time.Duration `json:"execution_time"`
}

// NewSolution creates a pending solution for the given solver slot.
// Confidence starts at the generation-time default and is overwritten by
// verification; Score is meaningful only after verification.
func NewSolution(content string, solverID int, elapsed time.Duration) *Solution {
	return &Solution{
		Content:       content,
		SolverID:      solverID,
		Confidence:    DefaultSolverConfidence,
		Status:        SolutionStatusPending,
		ExecutionTime: elapsed,
	}
}

// Summary converts a solution to its envelope row.
func (s *Solution) Summary() SolutionSummary {
	return SolutionSummary{
		SolverID:   s.SolverID,
		Score:      s.Score,
		Confidence: s.Confidence,
		Status:     s.Status,
	}
}

// PlannerInput carries everything the planner needs to produce an ExecutionPlan.
type PlannerInput struct {
	Question   string                            `json:"question"`
	Context    string                            `json:"context"`
	ToolSchema map[string]map[string]interface{} `json:"tool_schema"`
}

// MessageRole identifies the author of a chat message.
type MessageRole string

const (
	RoleSystem MessageRole = "system"
	RoleUser   MessageRole = "user"
	RoleModel  MessageRole = "model"
)

// Message is one role/content pair in a generation request.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// SamplingConfig controls the variance of a single generation call.
type SamplingConfig struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	MaxTokens   int     `json:"max_tokens"`
}

// GenerationRequest is the input to a GenerationClient call.
//
// OutputFormat, when non-empty, names a JSON contract the backend must
// satisfy; the client is responsible for producing parseable content.
type GenerationRequest struct {
	Messages     []Message      `json:"messages"`
	Sampling     SamplingConfig `json:"sampling"`
	OutputFormat string         `json:"output_format,omitempty"`
}

// GenerationResult is the output of a GenerationClient call.
type GenerationResult struct {
	Content   string `json:"content"`
	ModelUsed string `json:"model_used"`

	// Usage holds backend-specific accounting (token counts etc.). May be nil.
	Usage map[string]interface{} `json:"usage,omitempty"`
}

// PlanSummary is the plan subset reported in the result envelope.
type PlanSummary struct {
	Strategy    string     `json:"strategy"`
	Complexity  Complexity `json:"complexity"`
	SolverCount int        `json:"solver_count"`
}

// SolutionSummary is one row per generated solution in the result envelope.
type SolutionSummary struct {
	SolverID   int            `json:"solver_id"`
	Score      float64        `json:"score"`
	Confidence float64        `json:"confidence"`
	Status     SolutionStatus `json:"status"`
}

// Solve methods reported in Result.Method.
const (
	// MethodSimple marks the single-solver fast path for simple questions.
	MethodSimple = "simple"
	// MethodEarlyStop marks a solution returned mid-scan once it cleared the threshold.
	MethodEarlyStop = "early_stop"
	// MethodJudged marks a solution selected by the judge.
	MethodJudged = "judged"
)

// Result is the envelope returned by a successful solve.
type Result struct {
	Answer                  string              `json:"answer"`
	SolverID                int                 `json:"solver_id"`
	Confidence              float64             `json:"confidence"`
	Verification            *VerificationResult `json:"verification,omitempty"`
	Score                   float64             `json:"score"`
	Status                  SolutionStatus      `json:"status"`
	Method                  string              `json:"method"`
	Plan                    PlanSummary         `json:"plan"`
	AllSolutions            []SolutionSummary   `json:"all_solutions"`
	ExecutionTimeMs         float64             `json:"execution_time_ms"`
	TotalSolutionsGenerated int                 `json:"total_solutions_generated"`
}
