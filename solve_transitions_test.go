package quorum

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// scriptedPlanner returns a fixed plan or error.
type scriptedPlanner struct {
	plan *ExecutionPlan
	err  error
}

func (p *scriptedPlanner) GeneratePlan(ctx context.Context, input PlannerInput) (*ExecutionPlan, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.plan, nil
}

// scriptedPool returns a preset number of solutions per round.
type scriptedPool struct {
	// perRound[i] is the number of solutions round i produces; rounds past the
	// end of the slice produce the full solver count.
	perRound []int
	calls    int
}

func (p *scriptedPool) SolveParallel(ctx context.Context, question, supportingContext string, plan *ExecutionPlan, round int) ([]*Solution, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	n := plan.SuggestedSolverCount
	if p.calls < len(p.perRound) {
		n = p.perRound[p.calls]
	}
	p.calls++

	solutions := make([]*Solution, 0, n)
	for i := 0; i < n; i++ {
		solutions = append(solutions, NewSolution(fmt.Sprintf("answer r%d s%d", round, i), i, time.Millisecond))
	}
	return solutions, nil
}

// scriptedVerifier assigns scores from a queue, one per Verify call.
type scriptedVerifier struct {
	scores []float64
	next   int
	err    error
}

func (v *scriptedVerifier) Verify(ctx context.Context, solution *Solution, question string, plan *ExecutionPlan) error {
	if v.err != nil {
		return v.err
	}

	score := 0.0
	if v.next < len(v.scores) {
		score = v.scores[v.next]
	}
	v.next++

	passed := score >= 0.5
	solution.VerificationResult = &VerificationResult{
		Passed:     passed,
		Score:      score,
		Confidence: score,
	}
	solution.Score = score
	solution.Confidence = score
	if passed {
		solution.Status = SolutionStatusVerified
	} else {
		solution.Status = SolutionStatusFailed
	}
	return nil
}

// maxJudge picks the highest (score, confidence) pair, earliest wins ties.
type maxJudge struct{}

func (j *maxJudge) Select(solutions []*Solution) (*Solution, error) {
	if len(solutions) == 0 {
		return nil, NewNoCandidatesError("judging")
	}
	best := solutions[0]
	for _, s := range solutions[1:] {
		if s.Score > best.Score || (s.Score == best.Score && s.Confidence > best.Confidence) {
			best = s
		}
	}
	return best, nil
}

func mediumPlan(solverCount int) *ExecutionPlan {
	return &ExecutionPlan{
		Strategy:             "reason step by step",
		Complexity:           ComplexityMedium,
		SuggestedSolverCount: solverCount,
	}
}

func newTestMachine(planner Planner, pool SolverPool, verifier Verifier, cfg Config) *StateMachine {
	components := Components{
		Planner:    planner,
		Pool:       pool,
		Verifier:   verifier,
		Judge:      &maxJudge{},
		Config:     cfg,
		GetSchemas: func() map[string]map[string]interface{} { return nil },
	}
	return CreateSolveStateMachine(components, nil)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.EnableEventBus = false
	cfg.SolveTimeout = 0
	return cfg
}

func TestSolveEarlyStopTakesFirstPassingInScanOrder(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRounds = 1

	// Solver 2 scores highest, but solver 1 is the first past the threshold.
	verifier := &scriptedVerifier{scores: []float64{0.60, 0.90, 0.95}}
	sm := newTestMachine(&scriptedPlanner{plan: mediumPlan(3)}, &scriptedPool{}, verifier, cfg)

	result, err := sm.Execute(context.Background(), NewSolveContext("q", "", false))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Method != MethodEarlyStop {
		t.Errorf("expected method %q, got %q", MethodEarlyStop, result.Method)
	}
	if result.SolverID != 1 {
		t.Errorf("expected solver 1, got %d", result.SolverID)
	}
	if result.Score != 0.90 {
		t.Errorf("expected score 0.90, got %.2f", result.Score)
	}
	if verifier.next != 2 {
		t.Errorf("expected scan to stop after 2 verifications, got %d", verifier.next)
	}
	if result.TotalSolutionsGenerated != 3 {
		t.Errorf("expected 3 generated solutions, got %d", result.TotalSolutionsGenerated)
	}
}

func TestSolveSimpleQuestionUsesFastPath(t *testing.T) {
	cfg := testConfig()

	plan := &ExecutionPlan{
		Strategy:             "answer directly",
		Complexity:           ComplexitySimple,
		SuggestedSolverCount: 1,
	}
	// Fast path returns even a failed verification immediately.
	verifier := &scriptedVerifier{scores: []float64{0.20}}
	sm := newTestMachine(&scriptedPlanner{plan: plan}, &scriptedPool{}, verifier, cfg)

	result, err := sm.Execute(context.Background(), NewSolveContext("What is 2+2?", "", false))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Method != MethodSimple {
		t.Errorf("expected method %q, got %q", MethodSimple, result.Method)
	}
	if result.Status != SolutionStatusFailed {
		t.Errorf("expected status %q, got %q", SolutionStatusFailed, result.Status)
	}
	if result.TotalSolutionsGenerated != 1 {
		t.Errorf("expected 1 generated solution, got %d", result.TotalSolutionsGenerated)
	}
}

func TestSolveForceMultiCandidateSkipsFastPath(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRounds = 1
	cfg.EnableEarlyStop = false

	plan := &ExecutionPlan{
		Strategy:             "answer directly",
		Complexity:           ComplexitySimple,
		SuggestedSolverCount: 1,
	}
	verifier := &scriptedVerifier{scores: []float64{0.60}}
	sm := newTestMachine(&scriptedPlanner{plan: plan}, &scriptedPool{}, verifier, cfg)

	result, err := sm.Execute(context.Background(), NewSolveContext("What is 2+2?", "", true))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Method != MethodJudged {
		t.Errorf("expected method %q, got %q", MethodJudged, result.Method)
	}
}

func TestSolveJudgedAcrossRoundsWhenThresholdNeverMet(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRounds = 2
	cfg.EnableEarlyStop = false

	verifier := &scriptedVerifier{scores: []float64{0.50, 0.60, 0.70, 0.55, 0.65, 0.75}}
	sm := newTestMachine(&scriptedPlanner{plan: mediumPlan(3)}, &scriptedPool{}, verifier, cfg)

	sc := NewSolveContext("q", "", false)
	result, err := sm.Execute(context.Background(), sc)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Method != MethodJudged {
		t.Errorf("expected method %q, got %q", MethodJudged, result.Method)
	}
	if result.TotalSolutionsGenerated != 6 {
		t.Errorf("expected 6 generated solutions, got %d", result.TotalSolutionsGenerated)
	}
	if result.Score != 0.75 || result.SolverID != 2 {
		t.Errorf("expected solver 2 with score 0.75, got solver %d with %.2f", result.SolverID, result.Score)
	}

	// Round 0's verified solutions were disqualified before regeneration but
	// stayed in the cross-round pool.
	rejected := 0
	for _, s := range sc.AllSolutions[:3] {
		if s.Status == SolutionStatusRejected {
			rejected++
		}
	}
	if rejected != 3 {
		t.Errorf("expected 3 rejected solutions from round 0, got %d", rejected)
	}
}

func TestSolveRoundJudgingHaltsAtThreshold(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRounds = 2
	cfg.EnableEarlyStop = false

	pool := &scriptedPool{}
	verifier := &scriptedVerifier{scores: []float64{0.90, 0.40, 0.60}}
	sm := newTestMachine(&scriptedPlanner{plan: mediumPlan(3)}, pool, verifier, cfg)

	result, err := sm.Execute(context.Background(), NewSolveContext("q", "", false))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Method != MethodJudged {
		t.Errorf("expected method %q, got %q", MethodJudged, result.Method)
	}
	if pool.calls != 1 {
		t.Errorf("expected 1 round, pool was called %d times", pool.calls)
	}
	if result.SolverID != 0 || result.Score != 0.90 {
		t.Errorf("expected solver 0 with score 0.90, got solver %d with %.2f", result.SolverID, result.Score)
	}
}

func TestSolveEmptyRoundAdvancesToNextRound(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRounds = 2

	pool := &scriptedPool{perRound: []int{0, 3}}
	verifier := &scriptedVerifier{scores: []float64{0.95}}
	sm := newTestMachine(&scriptedPlanner{plan: mediumPlan(3)}, pool, verifier, cfg)

	result, err := sm.Execute(context.Background(), NewSolveContext("q", "", false))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Method != MethodEarlyStop {
		t.Errorf("expected method %q, got %q", MethodEarlyStop, result.Method)
	}
	if pool.calls != 2 {
		t.Errorf("expected 2 rounds, pool was called %d times", pool.calls)
	}
	if result.TotalSolutionsGenerated != 3 {
		t.Errorf("expected 3 generated solutions, got %d", result.TotalSolutionsGenerated)
	}
}

func TestSolveFailsWithNoCandidatesWhenEveryRoundIsEmpty(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRounds = 2

	pool := &scriptedPool{perRound: []int{0, 0}}
	sm := newTestMachine(&scriptedPlanner{plan: mediumPlan(3)}, pool, &scriptedVerifier{}, cfg)

	result, err := sm.Execute(context.Background(), NewSolveContext("q", "", false))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if result != nil {
		t.Errorf("expected nil result, got %+v", result)
	}
	if !HasErrorCode(err, ErrCodeNoCandidates) {
		t.Errorf("expected %s error, got %v", ErrCodeNoCandidates, err)
	}
	if pool.calls != 2 {
		t.Errorf("expected 2 rounds before giving up, pool was called %d times", pool.calls)
	}
}

func TestSolvePlanningFailureIsFatal(t *testing.T) {
	cfg := testConfig()

	plannerErr := NewPlanningError(errors.New("model unavailable"))
	sm := newTestMachine(&scriptedPlanner{err: plannerErr}, &scriptedPool{}, &scriptedVerifier{}, cfg)

	_, err := sm.Execute(context.Background(), NewSolveContext("q", "", false))
	if !HasErrorCode(err, ErrCodePlanning) {
		t.Errorf("expected %s error, got %v", ErrCodePlanning, err)
	}
}

func TestSolveVerificationFailureIsFatal(t *testing.T) {
	cfg := testConfig()

	verifier := &scriptedVerifier{err: NewVerificationError(errors.New("critic call failed"))}
	sm := newTestMachine(&scriptedPlanner{plan: mediumPlan(3)}, &scriptedPool{}, verifier, cfg)

	_, err := sm.Execute(context.Background(), NewSolveContext("q", "", false))
	if !HasErrorCode(err, ErrCodeVerification) {
		t.Errorf("expected %s error, got %v", ErrCodeVerification, err)
	}
}

func TestSolveRespectsContextCancellation(t *testing.T) {
	cfg := testConfig()

	sm := newTestMachine(&scriptedPlanner{plan: mediumPlan(3)}, &scriptedPool{}, &scriptedVerifier{}, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sc := NewSolveContext("q", "", false)
	_, err := sm.Execute(ctx, sc)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if sc.CurrentState != StateCancelled {
		t.Errorf("expected state %q, got %q", StateCancelled, sc.CurrentState)
	}
}
