// Package solver runs the parallel candidate-generation phase. Every solver
// in a round shares the plan's strategy but samples at its own temperature,
// trading determinism for diversity as the solver index grows.
package solver

import (
	"context"
	"log"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/quorumlabs/quorum-genkit"
	"github.com/quorumlabs/quorum-genkit/internal/eventbus"
	"github.com/quorumlabs/quorum-genkit/internal/prompt"
)

// solverMaxTokens bounds each candidate answer.
const solverMaxTokens = 1024

// LLMSolverPool implements the quorum.SolverPool interface.
type LLMSolverPool struct {
	client   quorum.GenerationClient
	eventBus eventbus.EventBus
}

// PoolOption configures an LLMSolverPool.
type PoolOption func(*LLMSolverPool)

// WithEventBus attaches an event bus for per-solver lifecycle events.
func WithEventBus(eventBus eventbus.EventBus) PoolOption {
	return func(p *LLMSolverPool) {
		p.eventBus = eventBus
	}
}

// NewLLMSolverPool creates a solver pool backed by the given generation client.
func NewLLMSolverPool(client quorum.GenerationClient, options ...PoolOption) *LLMSolverPool {
	p := &LLMSolverPool{client: client}

	for _, option := range options {
		option(p)
	}

	return p
}

// TemperatureFor returns the sampling temperature for a solver slot.
// Solver 0 is greedy; later solvers get progressively more exploratory,
// capped at 0.7.
func TemperatureFor(solverID int) float64 {
	if solverID == 0 {
		return 0.0
	}
	temp := 0.3 + 0.1*float64(solverID)
	if temp > 0.7 {
		return 0.7
	}
	return temp
}

// SolveParallel implements the quorum.SolverPool interface.
//
// The returned slice is ordered by solverId regardless of completion order.
// Individual solver failures are logged and dropped; the error return is
// reserved for whole-round failures such as context cancellation.
func (p *LLMSolverPool) SolveParallel(ctx context.Context, question, supportingContext string, plan *quorum.ExecutionPlan, round int) ([]*quorum.Solution, error) {
	n := plan.SuggestedSolverCount
	if n < 0 {
		n = 0
	}

	// Indexed by solverID so completion order never reorders results.
	results := make([]*quorum.Solution, n)

	workers := pool.New().WithMaxGoroutines(n + 1)
	for solverID := 0; solverID < n; solverID++ {
		solverID := solverID
		workers.Go(func() {
			solution, err := p.solveSingle(ctx, question, supportingContext, plan, solverID, round)
			if err != nil {
				log.Printf("Solver %d failed in round %d: %v", solverID, round, err)
				if p.eventBus != nil {
					p.eventBus.Publish(ctx, eventbus.NewEvent(
						eventbus.EventSolverFailure,
						err.Error(),
						"LLMSolverPool.SolveParallel",
						map[string]interface{}{
							"solver_id": solverID,
							"round":     round,
						},
					))
				}
				return
			}
			results[solverID] = solution
		})
	}
	workers.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// Drop failed slots, preserving solverID order.
	solutions := make([]*quorum.Solution, 0, n)
	for _, s := range results {
		if s != nil {
			solutions = append(solutions, s)
		}
	}

	return solutions, nil
}

// solveSingle runs one solver attempt.
func (p *LLMSolverPool) solveSingle(ctx context.Context, question, supportingContext string, plan *quorum.ExecutionPlan, solverID, round int) (*quorum.Solution, error) {
	if p.eventBus != nil {
		p.eventBus.Publish(ctx, eventbus.NewEvent(
			eventbus.EventSolverStarted,
			question,
			"LLMSolverPool.solveSingle",
			map[string]interface{}{
				"solver_id":   solverID,
				"round":       round,
				"temperature": TemperatureFor(solverID),
			},
		))
	}

	req := quorum.GenerationRequest{
		Messages: []quorum.Message{
			{Role: quorum.RoleSystem, Content: prompt.SolverSystem(solverID, plan.Strategy)},
			{Role: quorum.RoleUser, Content: prompt.SolverUser(question, supportingContext)},
		},
		Sampling: quorum.SamplingConfig{
			Temperature: TemperatureFor(solverID),
			MaxTokens:   solverMaxTokens,
		},
	}

	startTime := time.Now()
	result, err := p.client.Generate(ctx, req)
	elapsed := time.Since(startTime)

	if err != nil {
		return nil, err
	}

	if p.eventBus != nil {
		p.eventBus.Publish(ctx, eventbus.NewEvent(
			eventbus.EventSolverSuccess,
			question,
			"LLMSolverPool.solveSingle",
			map[string]interface{}{
				"solver_id":   solverID,
				"round":       round,
				"duration_ms": elapsed.Milliseconds(),
			},
		))
	}

	return quorum.NewSolution(result.Content, solverID, elapsed), nil
}
