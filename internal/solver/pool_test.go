package solver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/quorumlabs/quorum-genkit"
)

// fakeClient answers per solver slot, derived from the system prompt.
type fakeClient struct {
	mu      sync.Mutex
	failFor map[int]bool
	temps   map[int]float64
}

func (c *fakeClient) Generate(ctx context.Context, req quorum.GenerationRequest) (*quorum.GenerationResult, error) {
	var solverID int
	if _, err := fmt.Sscanf(req.Messages[0].Content, "You are Solver %d.", &solverID); err != nil {
		return nil, fmt.Errorf("unexpected system prompt: %q", req.Messages[0].Content)
	}

	c.mu.Lock()
	if c.temps == nil {
		c.temps = make(map[int]float64)
	}
	c.temps[solverID] = req.Sampling.Temperature
	fail := c.failFor[solverID]
	c.mu.Unlock()

	if fail {
		return nil, errors.New("generation failed")
	}
	return &quorum.GenerationResult{Content: fmt.Sprintf("answer %d", solverID)}, nil
}

func testPlan(n int) *quorum.ExecutionPlan {
	return &quorum.ExecutionPlan{
		Strategy:             "reason step by step",
		Complexity:           quorum.ComplexityMedium,
		SuggestedSolverCount: n,
	}
}

func TestTemperatureLadder(t *testing.T) {
	cases := []struct {
		solverID int
		want     float64
	}{
		{0, 0.0},
		{1, 0.4},
		{2, 0.5},
		{3, 0.6},
		{4, 0.7},
		{9, 0.7},
	}

	for _, tc := range cases {
		got := TemperatureFor(tc.solverID)
		if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("TemperatureFor(%d) = %v, want %v", tc.solverID, got, tc.want)
		}
	}
}

func TestSolveParallelPreservesSolverOrder(t *testing.T) {
	client := &fakeClient{}
	p := NewLLMSolverPool(client)

	solutions, err := p.SolveParallel(context.Background(), "q", "ctx", testPlan(4), 0)
	if err != nil {
		t.Fatalf("SolveParallel failed: %v", err)
	}

	if len(solutions) != 4 {
		t.Fatalf("expected 4 solutions, got %d", len(solutions))
	}
	for i, s := range solutions {
		if s.SolverID != i {
			t.Errorf("solution %d has solver ID %d", i, s.SolverID)
		}
		if s.Status != quorum.SolutionStatusPending {
			t.Errorf("expected pending status, got %q", s.Status)
		}
		if s.Confidence != quorum.DefaultSolverConfidence {
			t.Errorf("expected default confidence, got %v", s.Confidence)
		}
	}

	// Each slot must sample at its own temperature.
	for i := 0; i < 4; i++ {
		if client.temps[i] != TemperatureFor(i) {
			t.Errorf("solver %d sampled at %v, want %v", i, client.temps[i], TemperatureFor(i))
		}
	}
}

func TestSolveParallelDropsFailedSolvers(t *testing.T) {
	client := &fakeClient{failFor: map[int]bool{1: true}}
	p := NewLLMSolverPool(client)

	solutions, err := p.SolveParallel(context.Background(), "q", "", testPlan(3), 0)
	if err != nil {
		t.Fatalf("SolveParallel failed: %v", err)
	}

	if len(solutions) != 2 {
		t.Fatalf("expected 2 solutions, got %d", len(solutions))
	}
	if solutions[0].SolverID != 0 || solutions[1].SolverID != 2 {
		t.Errorf("unexpected solver IDs: %d, %d", solutions[0].SolverID, solutions[1].SolverID)
	}
}

func TestSolveParallelAllSolversFailing(t *testing.T) {
	client := &fakeClient{failFor: map[int]bool{0: true, 1: true, 2: true}}
	p := NewLLMSolverPool(client)

	solutions, err := p.SolveParallel(context.Background(), "q", "", testPlan(3), 0)
	if err != nil {
		t.Fatalf("SolveParallel failed: %v", err)
	}
	if len(solutions) != 0 {
		t.Errorf("expected empty round, got %d solutions", len(solutions))
	}
}

func TestSolveParallelCancelledContext(t *testing.T) {
	p := NewLLMSolverPool(&fakeClient{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.SolveParallel(ctx, "q", "", testPlan(3), 0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
